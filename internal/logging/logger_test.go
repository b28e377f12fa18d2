package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitWritesToDir(t *testing.T) {
	t.Setenv("SITMON_LOG_LEVEL", "debug")
	dir := t.TempDir()
	if err := Init(dir); err != nil {
		t.Fatalf("Init: %v", err)
	}
	Info("cycle complete", "items", 12)
	Close()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("log dir holds %d files, want 1", len(entries))
	}
	if !strings.HasPrefix(entries[0].Name(), "sitmon-") {
		t.Errorf("log file name = %q, want sitmon- prefix", entries[0].Name())
	}

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "cycle complete") {
		t.Errorf("log file missing written message:\n%s", data)
	}
}

func TestHelpersDropWithoutInit(t *testing.T) {
	Close()

	// Must not panic with no logger installed.
	Info("dropped")
	Debug("dropped")
	Warn("dropped")
	Error("dropped")
	Close()
}
