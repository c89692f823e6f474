package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/matryer/is"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{" warn ", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			is := is.New(t)
			got, err := ParseLevel(tt.in)
			is.Equal(err != nil, tt.wantErr)
			is.Equal(got, tt.want)
		})
	}
}

func TestNew_WritesJSONToFile(t *testing.T) {
	is := is.New(t)
	path := filepath.Join(t.TempDir(), "logs", "nt.log")

	log, closer, err := New(path, "info")
	is.NoErr(err)
	log.Debug("hidden")
	log.Info("added task", "id", 7)
	is.NoErr(closer.Close())

	data, err := os.ReadFile(path)
	is.NoErr(err)
	lines := bytes.Split(bytes.TrimSpace(data), []byte("\n"))
	is.Equal(len(lines), 1)

	var rec map[string]any
	is.NoErr(json.Unmarshal(lines[0], &rec))
	is.Equal(rec["msg"], "added task")
	is.Equal(rec["id"], 7.0)
}

func TestNew_EmptyPathDiscards(t *testing.T) {
	is := is.New(t)
	log, closer, err := New("", "nonsense")
	is.NoErr(err)
	log.Error("dropped")
	is.NoErr(closer.Close())
}

func TestNew_BadLevel(t *testing.T) {
	is := is.New(t)
	_, _, err := New(filepath.Join(t.TempDir(), "nt.log"), "loud")
	is.True(err != nil)
}
