package camera

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vladimirvivien/go4vl/device"
	"github.com/vladimirvivien/go4vl/v4l2"
	"go.uber.org/zap"
)

var (
	StartedErr = errors.New("already started")
)

const closeTimeout = 2 * time.Second

// Camera streams JPEG frames from a V4L2 device. A Camera is opened for one
// recording segment and closed afterwards.
type Camera struct {
	devName string
	ctx     context.Context

	width  int
	height int
	fps    int

	logger *zap.SugaredLogger

	lock   sync.Mutex
	cancel context.CancelFunc
	camera *device.Device
	frames <-chan []byte
}

func New(ctx context.Context, devName string, width, height, fps int) *Camera {
	return &Camera{
		ctx:     ctx,
		devName: devName,
		width:   width,
		height:  height,
		fps:     fps,
		logger:  logger,
	}
}

// SetLogger replaces the package logger for this camera.
func (c *Camera) SetLogger(l *zap.SugaredLogger) {
	if l != nil {
		c.logger = l
	}
}

func (c *Camera) open() error {
	if c.camera != nil {
		return StartedErr
	}
	camera, err := device.Open(
		c.devName,
		device.WithBufferSize(DefaultBufferSize),
		device.WithFPS(uint32(c.fps)),
		device.WithPixFormat(v4l2.PixFormat{
			PixelFormat: DefaultPixelFormat,
			Width:       uint32(c.width),
			Height:      uint32(c.height),
			Field:       v4l2.FieldNone,
		}),
	)
	if err != nil {
		return err
	}
	c.camera = camera

	// the driver may pick the closest supported size
	if f, err := camera.GetPixFormat(); err == nil {
		c.width, c.height = int(f.Width), int(f.Height)
		c.logger.Debugf("camera %s format: %s", c.devName, FormatToString(f))
	}

	return nil
}

// Start opens the device and begins streaming.
func (c *Camera) Start() (<-chan []byte, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	start := time.Now()
	if err := c.open(); err != nil {
		return nil, err
	}

	newCtx, cancel := context.WithCancel(c.ctx)
	c.cancel = cancel
	if err := c.camera.Start(newCtx); err != nil {
		cancel()
		c.cancel = nil
		_ = c.camera.Close()
		c.camera = nil
		return nil, err
	}
	c.frames = c.camera.GetOutput()
	c.logger.Infof("took %.2f seconds to open video capture %s", time.Since(start).Seconds(), c.devName)

	return c.frames, nil
}

func (c *Camera) Frames() <-chan []byte {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.frames
}

// FrameRate is the rate reported by the driver, or the requested one when the
// driver does not report it.
func (c *Camera) FrameRate() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.camera != nil {
		fps, err := c.camera.GetFrameRate()
		if err == nil && fps > 0 {
			return int(fps)
		}
		c.logger.Warnf("unable to read frame rate, using %d: %v", c.fps, err)
	}

	return c.fps
}

func (c *Camera) Size() (width, height int) {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.width, c.height
}

func (c *Camera) Close() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
		c.drain()
	}
	c.frames = nil
	if c.camera != nil {
		err := c.camera.Close()
		c.camera = nil
		return err
	}
	return nil
}

// drain reads frames until the stream loop sees the cancelled context and
// closes the channel. The loop may be blocked sending a frame nobody reads.
func (c *Camera) drain() {
	if c.frames == nil {
		return
	}
	timeout := time.NewTimer(closeTimeout)
	defer timeout.Stop()
	for {
		select {
		case _, ok := <-c.frames:
			if !ok {
				return
			}
		case <-timeout.C:
			c.logger.Warnf("stream of %s did not stop within %s", c.devName, closeTimeout)
			return
		}
	}
}
