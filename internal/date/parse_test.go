package date

import (
	"testing"
	"time"

	"github.com/matryer/is"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParse(t *testing.T) {
	today := day(2025, time.June, 15)
	tests := []struct {
		name string
		args []string
		want time.Time
	}{
		{"today", []string{"today", "TODAY", " Today "}, today},
		{"tomorrow", []string{"tomorrow", "Tomorrow"}, day(2025, time.June, 16)},
		{"iso", []string{"2025-12-31", "2025/12/31"}, day(2025, time.December, 31)},
		{"compact", []string{"20251231"}, day(2025, time.December, 31)},
		{"month day later this year", []string{"1231"}, day(2025, time.December, 31)},
		{"month day already passed", []string{"0101"}, day(2026, time.January, 1)},
		{"month day is today", []string{"0615"}, today},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			is := is.New(t)
			for _, arg := range tt.args {
				got, err := Parse(arg, today)
				is.NoErr(err)
				is.True(got != nil)
				is.Equal(*got, tt.want)
			}
		})
	}
}

func TestParse_Clear(t *testing.T) {
	is := is.New(t)
	for _, arg := range []string{"none", "clear", "NONE"} {
		got, err := Parse(arg, Today())
		is.NoErr(err)
		is.Equal(got, nil)
	}
}

func TestParse_MonthDayRollsOverAfterDate(t *testing.T) {
	t.Run("before the date", func(t *testing.T) {
		is := is.New(t)
		got, err := Parse("1231", day(2025, time.March, 1))
		is.NoErr(err)
		is.Equal(*got, day(2025, time.December, 31))
	})
	t.Run("after the date", func(t *testing.T) {
		is := is.New(t)
		got, err := Parse("1231", day(2026, time.January, 2))
		is.NoErr(err)
		is.Equal(*got, day(2026, time.December, 31))
	})
}

func TestParse_Invalid(t *testing.T) {
	today := day(2025, time.June, 15)
	for _, arg := range []string{"", "someday", "20251332", "1340", "0230", "123", "2025-02-30"} {
		t.Run(arg, func(t *testing.T) {
			is := is.New(t)
			got, err := Parse(arg, today)
			is.Equal(err, ErrFormat)
			is.Equal(got, nil)
		})
	}
}

func TestDaysBetween(t *testing.T) {
	is := is.New(t)
	is.Equal(DaysBetween(day(2025, time.June, 15), day(2025, time.June, 18)), 3)
	is.Equal(DaysBetween(day(2025, time.June, 15), day(2025, time.June, 10)), -5)
	is.Equal(DaysBetween(day(2025, time.June, 15), time.Date(2025, time.June, 15, 23, 59, 0, 0, time.UTC)), 0)
}
