package video

import (
	"bytes"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
)

func jpegFrame(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewGray(image.Rect(0, 0, width, height)), nil); err != nil {
		t.Fatal(err)
	}

	return buf.Bytes()
}

func TestFrameSize(t *testing.T) {
	w, h, err := FrameSize(jpegFrame(t, 320, 240))
	if err != nil {
		t.Fatal(err)
	}
	if w != 320 || h != 240 {
		t.Fatalf("FrameSize = %dx%d", w, h)
	}

	if _, _, err = FrameSize([]byte{0x00, 0x01}); err == nil {
		t.Fatal("expected error for garbage frame")
	}
}

func TestBuilder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "segment.avi")
	b, err := NewBuilder(path, 64, 48, 15)
	if err != nil {
		t.Fatal(err)
	}
	frame := jpegFrame(t, 64, 48)
	for i := 0; i < 5; i++ {
		if err = b.Add(frame); err != nil {
			t.Fatal(err)
		}
	}
	if err = b.Close(); err != nil {
		t.Fatal(err)
	}
	if b.Count() != 5 {
		t.Fatalf("count = %d", b.Count())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("RIFF")) || !bytes.Contains(data, []byte(FourCC)) {
		t.Fatal("output is not an MJPG avi")
	}
	size, err := b.Size()
	if err != nil {
		t.Fatal(err)
	}
	if size != int64(len(data)) {
		t.Fatalf("size = %d, want %d", size, len(data))
	}
}

func TestBuilderRejectsBadParams(t *testing.T) {
	dir := t.TempDir()
	if _, err := NewBuilder(filepath.Join(dir, "a.avi"), 0, 48, 15); err == nil {
		t.Fatal("expected error for zero width")
	}
	if _, err := NewBuilder(filepath.Join(dir, "b.avi"), 64, 48, 0); err == nil {
		t.Fatal("expected error for zero fps")
	}
	if _, err := NewBuilder(filepath.Join(dir, "missing", "c.avi"), 64, 48, 15); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
