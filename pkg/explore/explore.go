// Package explore drives the host side of an Explore ExG acquisition session:
// the Bluetooth serial link to the device, the raw stream recording and the
// software marker log.
package explore

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"

	"exg-recorder/pkg/marker"
	"exg-recorder/pkg/storage/consts"
	"exg-recorder/pkg/utils"
)

const (
	DefaultName     = "Explore_CA14"
	DefaultPort     = "/dev/rfcomm0"
	DefaultBaudRate = 115200

	NamePrefix = "Explore_"
	NameLength = 12

	streamSuffix = "_ExG.bin"
	markerSuffix = "_Marker.csv"

	readTimeout = 100 * time.Millisecond
)

var (
	ErrNotRecording = errors.New("device is not recording")
	ErrRecording    = errors.New("device is already recording")

	markerHeader = []string{"TimeStamp", "Code"}
)

// ValidName reports whether name looks like an Explore device name.
func ValidName(name string) bool {
	return len(name) == NameLength && strings.HasPrefix(name, NamePrefix)
}

// Device is a connected Explore device. A Device without a port runs
// offline: markers are logged but no ExG data is recorded.
type Device struct {
	name   string
	port   serial.Port
	logger *zap.SugaredLogger

	lock    sync.Mutex
	stream  *os.File
	markers *os.File
	csv     *csv.Writer
	done    chan struct{}
	wg      sync.WaitGroup
	now     func() time.Time
}

// Connect opens the serial link of the named device. An empty portName
// returns an offline device. A nil logger uses the package default.
func Connect(name, portName string, baudRate int, logger *zap.SugaredLogger) (*Device, error) {
	if logger == nil {
		logger = utils.GetLogger()
	}
	d := &Device{
		name:   name,
		logger: logger.With("device", name),
		now:    time.Now,
	}
	if portName == "" {
		d.logger.Warn("no serial port configured, running offline")
		return d, nil
	}
	if baudRate <= 0 {
		baudRate = DefaultBaudRate
	}
	port, err := serial.Open(portName, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return nil, fmt.Errorf("connect %s on %s: %w", name, portName, err)
	}
	if err = port.SetReadTimeout(readTimeout); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("configure %s: %w", portName, err)
	}
	d.port = port
	d.logger.Infof("connected on %s", portName)

	return d, nil
}

func (d *Device) Name() string {
	return d.name
}

// RecordData starts recording the ExG stream to <prefix>_ExG.bin and the
// markers to <prefix>_Marker.csv.
func (d *Device) RecordData(prefix string) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.markers != nil {
		return ErrRecording
	}

	markers, err := os.OpenFile(prefix+markerSuffix, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, consts.DefaultFilePerm)
	if err != nil {
		return fmt.Errorf("create marker file: %w", err)
	}
	w := csv.NewWriter(markers)
	if err = w.Write(markerHeader); err != nil {
		_ = markers.Close()
		return fmt.Errorf("write marker header: %w", err)
	}
	w.Flush()

	if d.port != nil {
		stream, err := os.OpenFile(prefix+streamSuffix, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, consts.DefaultFilePerm)
		if err != nil {
			_ = markers.Close()
			return fmt.Errorf("create stream file: %w", err)
		}
		d.stream = stream
		d.done = make(chan struct{})
		d.wg.Add(1)
		go d.copyStream(d.port, stream, d.done)
	}
	d.markers = markers
	d.csv = w
	d.logger.Infof("recording to %s", prefix)

	return nil
}

func (d *Device) copyStream(src io.Reader, dst io.Writer, done <-chan struct{}) {
	defer d.wg.Done()
	buf := make([]byte, 4096)
	var total int64
	for {
		select {
		case <-done:
			d.logger.Debugf("stream recording stopped after %d bytes", total)
			return
		default:
		}
		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				d.logger.Errorf("write stream: %s", werr)
				return
			}
			total += int64(n)
		}
		if err != nil {
			d.logger.Errorf("read stream: %s", err)
			return
		}
	}
}

// SetMarker timestamps code in the marker log.
func (d *Device) SetMarker(code uint16) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.csv == nil {
		return ErrNotRecording
	}
	ts := strconv.FormatFloat(utils.EpochSeconds(d.now()), 'f', -1, 64)
	if err := d.csv.Write([]string{ts, marker.Label(int(code))}); err != nil {
		return err
	}
	d.csv.Flush()
	if err := d.csv.Error(); err != nil {
		return fmt.Errorf("set marker %d: %w", code, err)
	}
	d.logger.Debugf("marker %s at %s", marker.Label(int(code)), ts)

	return nil
}

// StopRecording stops the stream copy and closes the recording files. It is
// a no-op when nothing is recording.
func (d *Device) StopRecording() error {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.markers == nil {
		return nil
	}
	if d.done != nil {
		close(d.done)
		d.wg.Wait()
		d.done = nil
	}

	var errs []error
	d.csv.Flush()
	errs = append(errs, d.csv.Error(), d.markers.Close())
	if d.stream != nil {
		errs = append(errs, d.stream.Close())
		d.stream = nil
	}
	d.markers = nil
	d.csv = nil
	d.logger.Info("recording stopped")

	return errors.Join(errs...)
}

func (d *Device) Disconnect() error {
	if err := d.StopRecording(); err != nil {
		d.logger.Warnf("stop recording: %s", err)
	}
	if d.port == nil {
		return nil
	}
	err := d.port.Close()
	d.port = nil

	return err
}
