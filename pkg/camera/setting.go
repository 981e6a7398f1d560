package camera

import (
	"fmt"

	"github.com/vladimirvivien/go4vl/v4l2"
	"go.uber.org/zap"

	"exg-recorder/pkg/utils"
)

var logger *zap.SugaredLogger

func init() {
	logger = utils.GetLogger()
}

func FormatToString(f v4l2.PixFormat) string {
	p := f.PixelFormat
	fourcc := string([]byte{byte(p), byte(p >> 8), byte(p >> 16), byte(p >> 24)})
	return fmt.Sprintf("%s %dx%d", fourcc, f.Width, f.Height)
}
