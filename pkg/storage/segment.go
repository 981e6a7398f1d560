package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"exg-recorder/pkg/marker"
	"exg-recorder/pkg/storage/consts"
	"exg-recorder/pkg/utils"
)

// Segment is one recorded video and the marker that opened it.
type Segment struct {
	Path     string
	Start    time.Time
	Duration time.Duration
	Marker   int
	Frames   int
}

func (s Segment) Row() []string {
	return []string{
		s.Path,
		strconv.FormatFloat(utils.EpochSeconds(s.Start), 'f', -1, 64),
		strconv.FormatFloat(s.Duration.Seconds(), 'f', -1, 64),
		marker.Label(s.Marker),
	}
}

// SegmentLog appends one CSV row per segment. Every row is flushed right away
// so a crash loses at most the running segment.
type SegmentLog struct {
	mu   sync.Mutex
	path string
	file *os.File
	csv  *csv.Writer
	rows int
}

// OpenSegmentLog opens the log in append mode and writes the header row.
func OpenSegmentLog(path string) (*SegmentLog, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, consts.DefaultFilePerm)
	if err != nil {
		return nil, fmt.Errorf("open segment log %s: %w", path, err)
	}
	l := &SegmentLog{path: path, file: f, csv: csv.NewWriter(f)}
	if err = l.write(consts.SegmentLogHeader); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write segment log header: %w", err)
	}

	return l, nil
}

func (l *SegmentLog) Append(s Segment) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.write(s.Row()); err != nil {
		return fmt.Errorf("append segment %s: %w", s.Path, err)
	}
	l.rows++

	return nil
}

func (l *SegmentLog) write(row []string) error {
	if err := l.csv.Write(row); err != nil {
		return err
	}
	l.csv.Flush()

	return l.csv.Error()
}

func (l *SegmentLog) Path() string {
	return l.path
}

// Rows returns the number of segments written, header excluded.
func (l *SegmentLog) Rows() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rows
}

func (l *SegmentLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.csv.Flush()
	return l.file.Close()
}
