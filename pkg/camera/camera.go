package camera

import (
	"github.com/vladimirvivien/go4vl/v4l2"
)

const (
	DefaultDevice = "/dev/video0"
	DefaultFPS    = 30
	DefaultWidth  = 1280
	DefaultHeight = 720

	DefaultBufferSize = 2
)

// DefaultPixelFormat is written as is into the MJPEG AVI files.
var DefaultPixelFormat v4l2.FourCCType = v4l2.PixelFmtMJPEG
