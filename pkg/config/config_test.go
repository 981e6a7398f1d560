package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"exg-recorder/pkg/marker"
)

func TestDeviceName(t *testing.T) {
	cases := []struct {
		arg, want string
	}{
		{"Explore_84D1", "Explore_84D1"},
		{"", "Explore_CA14"},
		{"Explore_84D", "Explore_CA14"},
		{"Explore_84D12", "Explore_CA14"},
		{"Explorer_84D", "Explore_CA14"},
		{"MyDevice_123", "Explore_CA14"},
	}
	for _, c := range cases {
		if got := DeviceName(c.arg, "Explore_CA14"); got != c.want {
			t.Fatalf("DeviceName(%q) = %q, want %q", c.arg, got, c.want)
		}
	}
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recorder.yaml")
	data := `
data_dir: /tmp/exg
device:
  name: Explore_84D1
  offline: true
camera:
  width: 640
  height: 480
marker:
  gesture_count: 16
  counter_start: 12
preview:
  enabled: false
`
	if err := os.WriteFile(path, []byte(data), 0660); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DataDir != "/tmp/exg" || cfg.Device.Name != "Explore_84D1" || !cfg.Device.Offline {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Camera.Width != 640 || cfg.Camera.FPS != 30 || cfg.Camera.FourCC != "MJPG" {
		t.Fatalf("defaults not kept: %+v", cfg.Camera)
	}
	if cfg.Marker.GestureCount != 16 || cfg.Marker.CounterStart != 12 || cfg.Preview.Enabled {
		t.Fatalf("unexpected marker/preview config %+v %+v", cfg.Marker, cfg.Preview)
	}
	if err = cfg.Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recorder.json")
	data := `{"dataDir": "out", "marker": {"gestureCount": 24}, "log": {"level": "debug"}}`
	if err := os.WriteFile(path, []byte(data), 0660); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DataDir != "out" || cfg.Log.Level != "debug" || cfg.Device.Name != "Explore_CA14" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if err = cfg.Validate(); err == nil {
		t.Fatal("expected gesture count 24 to be rejected")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Camera.FourCC = "XVID"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected fourcc error")
	}

	cfg = Default()
	cfg.Marker.CounterStart = 1024
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected counter error")
	}

	cfg = Default()
	cfg.Marker.GestureCount = 128
	if err := cfg.Validate(); !errors.Is(err, marker.ErrCodeRange) {
		t.Fatalf("gesture count 128: expected ErrCodeRange, got %v", err)
	}

	cfg = Default()
	cfg.DataDir = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected data dir error")
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error")
	}
}
