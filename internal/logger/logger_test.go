package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewFallsBackToInfo(t *testing.T) {
	log, err := New("verbose", "text", "stdout")
	if err != nil {
		t.Fatal(err)
	}
	if log.GetLevel() != logrus.InfoLevel {
		t.Fatalf("level = %v, want info", log.GetLevel())
	}
}

func TestNewJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	log, err := New("debug", "json", path)
	if err != nil {
		t.Fatal(err)
	}
	log.WithField("match_id", 7).Debug("rescored")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	line := string(data)
	if !strings.Contains(line, `"match_id":7`) || !strings.Contains(line, `"msg":"rescored"`) {
		t.Fatalf("unexpected log line: %s", line)
	}
}

func TestNewBadPath(t *testing.T) {
	if _, err := New("info", "text", filepath.Join(t.TempDir(), "missing", "app.log")); err == nil {
		t.Fatal("expected error for unwritable path")
	}
}
