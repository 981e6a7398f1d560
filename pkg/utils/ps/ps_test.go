package ps

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPS(t *testing.T) {
	m, err := MemoryStatus()
	if err != nil {
		t.Fatal(err)
	}
	if m.Total == 0 {
		t.Fatal("total memory is zero")
	}

	d, err := DiskUsage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(d.String(), "disk ") {
		t.Fatalf("unexpected disk summary %q", d)
	}
}

func TestDirDiskUsage(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "videos"), 0750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "a.csv"), make([]byte, 100), 0660); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "videos", "b.avi"), make([]byte, 28), 0660); err != nil {
		t.Fatal(err)
	}

	size, err := DirDiskUsage(dir)
	if err != nil {
		t.Fatal(err)
	}
	if size != 128 {
		t.Fatalf("size = %d, want 128", size)
	}
}
