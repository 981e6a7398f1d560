// Package recorder runs the operator loop: pick a gesture with a key, record
// a video segment framed by start and stop markers, log it, repeat.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"exg-recorder/pkg/keyboard"
	"exg-recorder/pkg/marker"
	"exg-recorder/pkg/storage"
	"exg-recorder/pkg/utils"
	"exg-recorder/pkg/video"
)

var (
	ErrCaptureNotOpened = errors.New("could not open video capture")
	ErrWriterNotOpened  = errors.New("could not open video writer")
	ErrStreamClosed     = errors.New("capture stream closed")
)

const IdleLabel = "idle"

// Capture is an opened camera streaming JPEG frames.
type Capture interface {
	Frames() <-chan []byte
	FrameRate() int
	Size() (width, height int)
	Close() error
}

type VideoWriter interface {
	Add(frame []byte) error
	Close() error
	Count() int
}

type sizer interface {
	Size() (int64, error)
}

type MarkerSink interface {
	SetMarker(code uint16) error
}

type SegmentLog interface {
	Append(s storage.Segment) error
}

// Display shows the live feed. Implementations must not block.
type Display interface {
	Show(frame []byte, label string)
	Idle(label string)
}

type Options struct {
	OpenCapture func(ctx context.Context) (Capture, error)
	OpenWriter  func(path string, width, height, fps int) (VideoWriter, error)
	VideoPath   func(t time.Time) string

	Markers MarkerSink
	Log     SegmentLog
	Display Display
	Keys    <-chan rune

	GestureCount int
	CounterStart int

	Out    io.Writer
	Logger *zap.SugaredLogger
	Now    func() time.Time
}

type action int

const (
	actionQuit action = iota
	actionRequeue
)

type Recorder struct {
	openCapture func(ctx context.Context) (Capture, error)
	openWriter  func(path string, width, height, fps int) (VideoWriter, error)
	videoPath   func(t time.Time) string

	markers MarkerSink
	log     SegmentLog
	display Display
	keys    <-chan rune

	gestureCount int
	counter      int

	out    io.Writer
	logger *zap.SugaredLogger
	now    func() time.Time
}

func New(opts Options) (*Recorder, error) {
	if opts.OpenCapture == nil || opts.OpenWriter == nil || opts.VideoPath == nil {
		return nil, errors.New("capture, writer and video path are required")
	}
	if opts.Markers == nil || opts.Log == nil {
		return nil, errors.New("marker sink and segment log are required")
	}
	if opts.Keys == nil {
		return nil, errors.New("key source is required")
	}
	if opts.GestureCount == 0 {
		opts.GestureCount = marker.DefaultGestureCount
	}
	if err := marker.CheckGestureCount(opts.GestureCount); err != nil {
		return nil, err
	}
	if opts.CounterStart < 0 || opts.CounterStart > marker.MaxCounter {
		return nil, fmt.Errorf("counter start %d out of range [0, %d]", opts.CounterStart, marker.MaxCounter)
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Logger == nil {
		opts.Logger = utils.GetLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Recorder{
		openCapture:  opts.OpenCapture,
		openWriter:   opts.OpenWriter,
		videoPath:    opts.VideoPath,
		markers:      opts.Markers,
		log:          opts.Log,
		display:      opts.Display,
		keys:         opts.Keys,
		gestureCount: opts.GestureCount,
		counter:      opts.CounterStart,
		out:          opts.Out,
		logger:       opts.Logger,
		now:          opts.Now,
	}, nil
}

// Run loops until the operator quits, the key source ends or ctx is done.
// ErrCaptureNotOpened and ErrWriterNotOpened are returned before anything is
// recorded for the segment.
func (r *Recorder) Run(ctx context.Context) error {
	for {
		capture, err := r.openCapture(ctx)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrCaptureNotOpened, err)
		}

		gesture, ok := r.awaitGesture(ctx)
		if !ok {
			r.closeCapture(capture)
			return nil
		}

		act, err := r.record(ctx, gesture, capture)
		r.closeCapture(capture)
		if r.display != nil {
			r.display.Idle(IdleLabel)
		}
		if err != nil {
			return err
		}
		if act == actionQuit {
			return nil
		}
	}
}

func (r *Recorder) closeCapture(c Capture) {
	if err := c.Close(); err != nil {
		r.logger.Warnf("close capture: %s", err)
	}
}

func (r *Recorder) printf(format string, a ...any) {
	_, _ = fmt.Fprintf(r.out, format+"\r\n", a...)
}

func (r *Recorder) awaitGesture(ctx context.Context) (int, bool) {
	r.printf("Press a number key to start recording for the specified marker")
	r.printf("Press [q] to quit")
	for i := 0; i <= 9; i++ {
		r.printf("(%d) -- Marker", i)
	}
	r.printf("Waiting for key input...")

	for {
		select {
		case <-ctx.Done():
			return 0, false
		case k, ok := <-r.keys:
			if !ok {
				r.logger.Info("key input closed")
				return 0, false
			}
			switch {
			case k >= '0' && k <= '9':
				r.logger.Debugf("key input: %q", k)
				return int(k - '0'), true
			case isQuit(k):
				return 0, false
			default:
				r.logger.Debugf("ignoring key %q", k)
			}
		}
	}
}

func isQuit(k rune) bool {
	return k == 'q' || k == 'Q' || k == keyboard.Interrupt
}

func isRequeue(k rune) bool {
	return k == 'r' || k == 'R'
}

// nextFrame returns the next non-empty frame. The driver sends empty frames
// for buffers it flagged as broken.
func (r *Recorder) nextFrame(ctx context.Context, frames <-chan []byte) ([]byte, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case f, ok := <-frames:
			if !ok {
				return nil, ErrStreamClosed
			}
			if len(f) == 0 {
				r.logger.Debug("skipping empty frame")
				continue
			}
			return f, nil
		}
	}
}

// dropStale discards the frames queued while waiting for a key. The frame
// still held by the driver goes to the sizing read.
func (r *Recorder) dropStale(frames <-chan []byte) {
	n := 0
drain:
	for i := len(frames); i > 0; i-- {
		select {
		case _, ok := <-frames:
			if !ok {
				break drain
			}
			n++
		default:
			break drain
		}
	}
	if n > 0 {
		r.logger.Debugf("dropped %d stale frame(s)", n)
	}
}

func (r *Recorder) record(ctx context.Context, gesture int, capture Capture) (action, error) {
	frames := capture.Frames()
	r.dropStale(frames)
	// the sizing frame is not part of the segment
	first, err := r.nextFrame(ctx, frames)
	if err != nil {
		if ctx.Err() != nil {
			return actionQuit, nil
		}
		return actionQuit, err
	}
	width, height, err := video.FrameSize(first)
	if err != nil {
		width, height = capture.Size()
		r.logger.Warnf("%s, using capture size %dx%d", err, width, height)
	}
	fps := capture.FrameRate()

	target := r.videoPath(r.now())
	writer, err := r.openWriter(target, width, height, fps)
	if err != nil {
		return actionQuit, fmt.Errorf("%w: %s: %w", ErrWriterNotOpened, target, err)
	}

	code, err := marker.Construct(r.counter, gesture, true, r.gestureCount)
	if err == nil && code > marker.MaxCode {
		err = fmt.Errorf("marker %d exceeds %d", code, marker.MaxCode)
	}
	if err == nil {
		err = r.markers.SetMarker(uint16(code))
	}
	if err != nil {
		_ = writer.Close()
		return actionQuit, fmt.Errorf("start marker: %w", err)
	}

	r.logger.Infof("recording gesture %d to %s (%dx%d@%d, marker %s)", gesture, target, width, height, fps, marker.Label(code))
	r.printf("Press [r] during recording to stop current recording and start a new one")
	r.printf("Press [q] during recording to stop current recording and quit program")

	label := fmt.Sprintf("REC gesture %d %s", gesture, marker.Label(code))
	act, start, streamErr := r.capture(ctx, frames, writer, label)

	var errs []error
	errs = append(errs, streamErr)
	if err = r.markers.SetMarker(uint16(marker.Stop(code))); err != nil {
		errs = append(errs, fmt.Errorf("stop marker: %w", err))
	}
	end := r.now()
	if start.IsZero() {
		start = end
	}
	if err = writer.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close %s: %w", target, err))
	} else if s, ok := writer.(sizer); ok {
		if n, err := s.Size(); err == nil {
			r.logger.Infof("wrote %s to %s", humanize.Bytes(uint64(n)), target)
		}
	}

	seg := storage.Segment{
		Path:     target,
		Start:    start,
		Duration: end.Sub(start),
		Marker:   code,
		Frames:   writer.Count(),
	}
	if err = r.log.Append(seg); err != nil {
		errs = append(errs, err)
	}
	r.logger.Infof("video record time: %.3fs, %d frames", seg.Duration.Seconds(), seg.Frames)

	r.counter = (r.counter + 1) % (marker.MaxCounter + 1)

	return act, errors.Join(errs...)
}

// capture writes frames until a stop key. start is the time of the first
// written frame.
func (r *Recorder) capture(ctx context.Context, frames <-chan []byte, writer VideoWriter, label string) (act action, start time.Time, err error) {
	for {
		select {
		case <-ctx.Done():
			return actionQuit, start, nil
		case k, ok := <-r.keys:
			if !ok {
				return actionQuit, start, nil
			}
			switch {
			case isRequeue(k):
				return actionRequeue, start, nil
			case isQuit(k):
				return actionQuit, start, nil
			}
		case frame, ok := <-frames:
			if !ok {
				return actionQuit, start, ErrStreamClosed
			}
			if len(frame) == 0 {
				r.logger.Debug("skipping empty frame")
				continue
			}
			if start.IsZero() {
				start = r.now()
			}
			if err = writer.Add(frame); err != nil {
				return actionQuit, start, fmt.Errorf("write frame: %w", err)
			}
			if r.display != nil {
				r.display.Show(frame, label)
			}
		}
	}
}
