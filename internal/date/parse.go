package date

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

var ErrFormat = errors.New("invalid date format. Use YYYY-MM-DD, YYYYMMDD, MMDD, 'today', 'tomorrow', or 'none'")

var absoluteFormats = []string{
	Layout,
	"2006/01/02",
	"2006-1-2",
}

// Parse interprets user date input relative to today. A nil date with a nil
// error means the input asked to clear the date ("none" or "clear").
//
// Accepted forms: YYYY-MM-DD, YYYYMMDD, MMDD (current year, or next year when
// that day has already passed), today, tomorrow, none, clear.
func Parse(s string, today time.Time) (*time.Time, error) {
	today = Of(today)
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "none", "clear":
		return nil, nil
	case "today":
		return &today, nil
	case "tomorrow":
		t := today.AddDate(0, 0, 1)
		return &t, nil
	}

	if isDigits(s) {
		switch len(s) {
		case 8:
			y, _ := strconv.Atoi(s[:4])
			m, _ := strconv.Atoi(s[4:6])
			d, _ := strconv.Atoi(s[6:])
			t, ok := civil(y, m, d)
			if !ok {
				return nil, ErrFormat
			}
			return &t, nil
		case 4:
			m, _ := strconv.Atoi(s[:2])
			d, _ := strconv.Atoi(s[2:])
			t, ok := civil(today.Year(), m, d)
			if !ok {
				return nil, ErrFormat
			}
			if t.Before(today) {
				if next, ok := civil(today.Year()+1, m, d); ok {
					t = next
				}
			}
			return &t, nil
		}
		return nil, ErrFormat
	}

	for _, layout := range absoluteFormats {
		if t, err := time.Parse(layout, s); err == nil {
			t = Of(t)
			return &t, nil
		}
	}
	return nil, ErrFormat
}

// civil builds a date and reports false when time.Date had to normalize it
// (for example month 13 or February 30).
func civil(y, m, d int) (time.Time, bool) {
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
