package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"exg-recorder/pkg/camera"
	"exg-recorder/pkg/config"
	"exg-recorder/pkg/explore"
	"exg-recorder/pkg/keyboard"
	"exg-recorder/pkg/preview"
	"exg-recorder/pkg/recorder"
	"exg-recorder/pkg/storage"
	"exg-recorder/pkg/utils"
	"exg-recorder/pkg/utils/ps"
	"exg-recorder/pkg/video"
)

const diskWarnPercent = 95

var (
	configPath = flag.String("config", "", "config file (yaml, or json by extension)")
	dataDir    = flag.String("dir", "", "data directory")
	videoDev   = flag.String("video", "", "video capture device")
	port       = flag.String("port", "", "serial port of the Explore device")
	offline    = flag.Bool("offline", false, "log markers without connecting to the device")
	showFeed   = flag.Bool("preview", true, "show the live feed in a window")
	logLevel   = flag.String("log-level", "", "debug, info, warn or error")

	logger *zap.SugaredLogger
)

func init() {
	logger = utils.GetLogger()
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] [Explore_XXXX]\n", os.Args[0])
		flag.PrintDefaults()
	}
}

func main() {
	flag.Parse()
	os.Exit(run())
}

func run() int {
	defer logger.Sync()

	cfg, err := loadConfig()
	if err != nil {
		logger.Error(err)
		return 1
	}
	if err = utils.SetLevel(cfg.Log.Level); err != nil {
		logger.Warnf("log level %q: %s", cfg.Log.Level, err)
	}
	logger = logger.With("run", uuid.NewString()[:8])

	name := config.DeviceName(flag.Arg(0), cfg.Device.Name)
	stg, err := storage.New(cfg.DataDir, time.Now())
	if err != nil {
		logger.Errorf("init storage: %s", err)
		return 1
	}
	logger.Infof("starting %s in %s", stg.RunName(), stg.Root())
	preflight(stg.Root())

	portName := cfg.Device.Port
	if cfg.Device.Offline {
		portName = ""
	}
	dev, err := explore.Connect(name, portName, cfg.Device.BaudRate, logger)
	if err != nil {
		logger.Error(err)
		return 1
	}
	defer func() {
		if err := dev.Disconnect(); err != nil {
			logger.Warnf("disconnect %s: %s", name, err)
		}
	}()
	if err = dev.RecordData(stg.DevicePrefix()); err != nil {
		logger.Errorf("record data: %s", err)
		return 1
	}

	segments, err := storage.OpenSegmentLog(stg.SegmentLogPath())
	if err != nil {
		logger.Error(err)
		stopDevice(dev)
		return 1
	}
	defer segments.Close()

	ctx, cancel := utils.WithSignal(context.Background())
	defer cancel()

	kb, err := keyboard.Open(os.Stdin)
	if err != nil {
		logger.Errorf("keyboard: %s", err)
		stopDevice(dev)
		return 1
	}
	defer kb.Close()

	keys := kb.Keys()
	var (
		win     *preview.Window
		display recorder.Display
	)
	if cfg.Preview.Enabled {
		win = preview.New(cfg.Preview.Title)
		display = win
		keys = keyboard.Merge(kb.Keys(), win.Keys())
	}

	rec, err := recorder.New(recorder.Options{
		OpenCapture: func(ctx context.Context) (recorder.Capture, error) {
			cam := camera.New(ctx, cfg.Camera.Device, cfg.Camera.Width, cfg.Camera.Height, cfg.Camera.FPS)
			cam.SetLogger(logger)
			if _, err := cam.Start(); err != nil {
				return nil, err
			}
			return cam, nil
		},
		OpenWriter: func(path string, width, height, fps int) (recorder.VideoWriter, error) {
			b, err := video.NewBuilder(path, width, height, fps)
			if err != nil {
				return nil, err
			}
			return b, nil
		},
		VideoPath:    stg.VideoPath,
		Markers:      dev,
		Log:          segments,
		Display:      display,
		Keys:         keys,
		GestureCount: cfg.Marker.GestureCount,
		CounterStart: cfg.Marker.CounterStart,
		Out:          os.Stdout,
		Logger:       logger,
	})
	if err != nil {
		logger.Error(err)
		stopDevice(dev)
		return 1
	}

	if win == nil {
		err = rec.Run(ctx)
	} else {
		errCh := make(chan error, 1)
		go func() {
			errCh <- rec.Run(ctx)
			win.Close()
		}()
		if werr := win.Run(); werr != nil {
			logger.Warnf("preview unavailable: %s", werr)
		}
		err = <-errCh
	}

	if err != nil {
		switch {
		case errors.Is(err, recorder.ErrCaptureNotOpened):
			logger.Errorf("Error: Could not open video capture! %s", err)
		case errors.Is(err, recorder.ErrWriterNotOpened):
			logger.Errorf("Error: Could not open video writer! %s", err)
		default:
			logger.Error(err)
		}
		stopDevice(dev)
		return 1
	}

	stopDevice(dev)
	summary(stg, segments)

	return 0
}

func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return nil, err
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "dir":
			cfg.DataDir = *dataDir
		case "video":
			cfg.Camera.Device = *videoDev
		case "port":
			cfg.Device.Port = *port
		case "offline":
			cfg.Device.Offline = *offline
		case "preview":
			cfg.Preview.Enabled = *showFeed
		case "log-level":
			cfg.Log.Level = *logLevel
		}
	})

	return cfg, cfg.Validate()
}

func preflight(dir string) {
	d, err := ps.DiskUsage(dir)
	if err != nil {
		logger.Warnf("disk usage of %s: %s", dir, err)
	} else {
		logger.Info(d.String())
		if d.UsedPercent > diskWarnPercent {
			logger.Warnf("data disk is %.1f%% full", d.UsedPercent)
		}
	}
	if m, err := ps.MemoryStatus(); err == nil {
		logger.Debug(m.String())
	}
}

func stopDevice(dev *explore.Device) {
	if err := dev.StopRecording(); err != nil {
		logger.Errorf("stop recording on %s: %s", dev.Name(), err)
	}
}

func summary(stg *storage.Storage, segments *storage.SegmentLog) {
	logger.Infof("%d segment(s) logged to %s", segments.Rows(), segments.Path())
	size, err := ps.DirDiskUsage(stg.Root())
	if err != nil {
		logger.Warnf("data dir usage: %s", err)
		return
	}
	logger.Infof("%s in %s", humanize.Bytes(uint64(size)), stg.Root())
}
