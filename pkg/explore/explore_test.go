package explore

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestValidName(t *testing.T) {
	cases := map[string]bool{
		"Explore_CA14":  true,
		"Explore_1234":  true,
		"Explore_CA1":   false,
		"Explore_CA145": false,
		"explore_CA14":  false,
		"Xxplore_CA14":  false,
		"":              false,
	}
	for name, want := range cases {
		if got := ValidName(name); got != want {
			t.Fatalf("ValidName(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestOfflineMarkers(t *testing.T) {
	d, err := Connect(DefaultName, "", 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Disconnect()
	d.now = func() time.Time { return time.Unix(1689674523, int64(250*time.Millisecond)) }

	if err = d.SetMarker(7); !errors.Is(err, ErrNotRecording) {
		t.Fatalf("SetMarker before RecordData: %v", err)
	}

	prefix := filepath.Join(t.TempDir(), "exg_run")
	if err = d.RecordData(prefix); err != nil {
		t.Fatal(err)
	}
	if err = d.RecordData(prefix); !errors.Is(err, ErrRecording) {
		t.Fatalf("second RecordData: %v", err)
	}
	if err = d.SetMarker(7); err != nil {
		t.Fatal(err)
	}
	if err = d.SetMarker(6); err != nil {
		t.Fatal(err)
	}
	if err = d.StopRecording(); err != nil {
		t.Fatal(err)
	}
	if err = d.StopRecording(); err != nil {
		t.Fatalf("second StopRecording: %v", err)
	}
	if err = d.SetMarker(7); !errors.Is(err, ErrNotRecording) {
		t.Fatalf("SetMarker after StopRecording: %v", err)
	}

	data, err := os.ReadFile(prefix + "_Marker.csv")
	if err != nil {
		t.Fatal(err)
	}
	want := "TimeStamp,Code\n1689674523.25,sw_7\n1689674523.25,sw_6\n"
	if string(data) != want {
		t.Fatalf("marker file = %q, want %q", data, want)
	}
	if _, err = os.Stat(prefix + "_ExG.bin"); !os.IsNotExist(err) {
		t.Fatal("offline device should not create a stream file")
	}
}

func TestConnectMissingPort(t *testing.T) {
	_, err := Connect(DefaultName, "/dev/does-not-exist", DefaultBaudRate, nil)
	if err == nil {
		t.Fatal("expected error for missing port")
	}
	if !strings.Contains(err.Error(), DefaultName) {
		t.Fatalf("error does not name the device: %s", err)
	}
}

func TestConnectUsesLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	d, err := Connect(DefaultName, "", 0, zap.New(core).Sugar().With("run", "abc123"))
	if err != nil {
		t.Fatal(err)
	}
	if err = d.RecordData(filepath.Join(t.TempDir(), "exg_run")); err != nil {
		t.Fatal(err)
	}
	if err = d.Disconnect(); err != nil {
		t.Fatal(err)
	}

	entries := logs.All()
	if len(entries) == 0 {
		t.Fatal("nothing logged")
	}
	for _, e := range entries {
		fields := e.ContextMap()
		if fields["run"] != "abc123" || fields["device"] != DefaultName {
			t.Fatalf("entry %q missing run or device: %v", e.Message, fields)
		}
	}
}
