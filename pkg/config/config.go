package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"exg-recorder/pkg/camera"
	"exg-recorder/pkg/explore"
	"exg-recorder/pkg/marker"
	"exg-recorder/pkg/storage/consts"
	"exg-recorder/pkg/video"
)

type Config struct {
	DataDir string        `yaml:"data_dir" json:"dataDir"`
	Device  DeviceConfig  `yaml:"device" json:"device"`
	Camera  CameraConfig  `yaml:"camera" json:"camera"`
	Marker  MarkerConfig  `yaml:"marker" json:"marker"`
	Preview PreviewConfig `yaml:"preview" json:"preview"`
	Log     LogConfig     `yaml:"log" json:"log"`
}

type DeviceConfig struct {
	Name     string `yaml:"name" json:"name"`
	Port     string `yaml:"port" json:"port"`
	BaudRate int    `yaml:"baud_rate" json:"baudRate"`
	// Offline skips the serial link, markers are still logged.
	Offline bool `yaml:"offline" json:"offline"`
}

type CameraConfig struct {
	Device string `yaml:"device" json:"device"`
	Width  int    `yaml:"width" json:"width"`
	Height int    `yaml:"height" json:"height"`
	FPS    int    `yaml:"fps" json:"fps"`
	FourCC string `yaml:"fourcc" json:"fourcc"`
}

type MarkerConfig struct {
	GestureCount int `yaml:"gesture_count" json:"gestureCount"`
	CounterStart int `yaml:"counter_start" json:"counterStart"`
}

type PreviewConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Title   string `yaml:"title" json:"title"`
}

type LogConfig struct {
	Level string `yaml:"level" json:"level"`
}

func Default() *Config {
	return &Config{
		DataDir: consts.DefaultDataDir,
		Device: DeviceConfig{
			Name:     explore.DefaultName,
			Port:     explore.DefaultPort,
			BaudRate: explore.DefaultBaudRate,
		},
		Camera: CameraConfig{
			Device: camera.DefaultDevice,
			Width:  camera.DefaultWidth,
			Height: camera.DefaultHeight,
			FPS:    camera.DefaultFPS,
			FourCC: video.FourCC,
		},
		Marker: MarkerConfig{
			GestureCount: marker.DefaultGestureCount,
		},
		Preview: PreviewConfig{
			Enabled: true,
			Title:   "Video feed",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads a YAML or, for .json files, a JSON config on top of the
// defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, cfg)
	default:
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data dir can not be empty")
	}
	if err := marker.CheckGestureCount(c.Marker.GestureCount); err != nil {
		return err
	}
	if c.Marker.CounterStart < 0 || c.Marker.CounterStart > marker.MaxCounter {
		return fmt.Errorf("counter start %d out of range [0, %d]", c.Marker.CounterStart, marker.MaxCounter)
	}
	if !strings.EqualFold(c.Camera.FourCC, video.FourCC) {
		return fmt.Errorf("unsupported fourcc %q, only %s is written", c.Camera.FourCC, video.FourCC)
	}
	if c.Camera.Width <= 0 || c.Camera.Height <= 0 || c.Camera.FPS <= 0 {
		return fmt.Errorf("invalid camera mode %dx%d@%d", c.Camera.Width, c.Camera.Height, c.Camera.FPS)
	}

	return nil
}

// DeviceName picks the device name from the command line argument. The
// argument is only used when it is a valid Explore device name.
func DeviceName(arg, fallback string) string {
	if explore.ValidName(arg) {
		return arg
	}

	return fallback
}
