package main

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
)

func setFlags(t *testing.T, values map[string]string) {
	t.Helper()
	for name, value := range values {
		if err := flag.Set(name, value); err != nil {
			t.Fatal(err)
		}
	}
}

func TestRunCaptureNotOpened(t *testing.T) {
	dir := t.TempDir()
	saved := logger
	t.Cleanup(func() { logger = saved })
	setFlags(t, map[string]string{
		"dir":     dir,
		"video":   "/dev/does-not-exist",
		"offline": "true",
		"preview": "false",
	})

	if code := run(); code != 1 {
		t.Fatalf("exit status %d, want 1", code)
	}

	markers, err := filepath.Glob(filepath.Join(dir, "exg_*_Marker.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if len(markers) != 1 {
		t.Fatalf("marker files %v", markers)
	}
	data, err := os.ReadFile(markers[0])
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "TimeStamp,Code\n" {
		t.Fatalf("marker file = %q", data)
	}

	logs, err := filepath.Glob(filepath.Join(dir, "exg_*-videos.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 1 {
		t.Fatalf("segment logs %v", logs)
	}
	videos, err := os.ReadDir(filepath.Join(dir, "videos"))
	if err != nil {
		t.Fatal(err)
	}
	if len(videos) != 0 {
		t.Fatalf("no video may be written, found %d", len(videos))
	}
}
