package video

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	"os"

	"github.com/icza/mjpeg"
)

// FourCC of the streams produced by Builder.
const FourCC = "MJPG"

// Builder writes JPEG frames into an AVI container.
type Builder struct {
	path   string
	width  int
	height int
	fps    int

	cnt int
	aw  mjpeg.AviWriter
}

func NewBuilder(path string, width, height, fps int) (*Builder, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", width, height)
	}
	if fps <= 0 {
		return nil, fmt.Errorf("invalid frame rate %d", fps)
	}
	aw, err := mjpeg.New(path, int32(width), int32(height), int32(fps))
	if err != nil {
		return nil, err
	}

	return &Builder{
		path:   path,
		width:  width,
		height: height,
		fps:    fps,
		aw:     aw,
	}, nil
}

func (b *Builder) Add(frame []byte) error {
	err := b.aw.AddFrame(frame)
	if err != nil {
		return err
	}
	b.cnt++

	return nil
}

func (b *Builder) Close() error {
	return b.aw.Close()
}

func (b *Builder) Count() int {
	return b.cnt
}

// Size returns the size of the written file.
func (b *Builder) Size() (int64, error) {
	info, err := os.Stat(b.path)
	if err != nil {
		return 0, err
	}

	return info.Size(), nil
}

// FrameSize reads width and height from a JPEG frame header.
func FrameSize(frame []byte) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(frame))
	if err != nil {
		return 0, 0, fmt.Errorf("read frame size: %w", err)
	}

	return cfg.Width, cfg.Height, nil
}
