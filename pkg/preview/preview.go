// Package preview shows the live feed in a window while recording.
package preview

import (
	"image"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"go.uber.org/zap"

	"exg-recorder/pkg/utils"
	img "exg-recorder/pkg/utils/image"
)

const (
	defaultWidth  = 640
	defaultHeight = 480
)

var (
	digitKeys = [...]ebiten.Key{
		ebiten.KeyDigit0, ebiten.KeyDigit1, ebiten.KeyDigit2, ebiten.KeyDigit3, ebiten.KeyDigit4,
		ebiten.KeyDigit5, ebiten.KeyDigit6, ebiten.KeyDigit7, ebiten.KeyDigit8, ebiten.KeyDigit9,
	}
	numpadKeys = [...]ebiten.Key{
		ebiten.KeyNumpad0, ebiten.KeyNumpad1, ebiten.KeyNumpad2, ebiten.KeyNumpad3, ebiten.KeyNumpad4,
		ebiten.KeyNumpad5, ebiten.KeyNumpad6, ebiten.KeyNumpad7, ebiten.KeyNumpad8, ebiten.KeyNumpad9,
	}
)

func keyRune(k ebiten.Key) (rune, bool) {
	switch k {
	case ebiten.KeyQ:
		return 'q', true
	case ebiten.KeyR:
		return 'r', true
	}
	for i := range digitKeys {
		if k == digitKeys[i] || k == numpadKeys[i] {
			return rune('0' + i), true
		}
	}

	return 0, false
}

type frame struct {
	data  []byte
	label string
}

// Window implements ebiten.Game. Show and Idle may be called from any
// goroutine, Run must be called from the main goroutine.
type Window struct {
	title  string
	logger *zap.SugaredLogger

	frames    chan frame
	keys      chan rune
	done      chan struct{}
	closeOnce sync.Once

	pressed []ebiten.Key
	closing bool
	rgba    *image.RGBA
	texture *ebiten.Image
}

func New(title string) *Window {
	return &Window{
		title:  title,
		logger: utils.GetLogger(),
		frames: make(chan frame, 1),
		keys:   make(chan rune, 16),
		done:   make(chan struct{}),
		rgba:   image.NewRGBA(image.Rect(0, 0, defaultWidth, defaultHeight)),
	}
}

// Show replaces the pending frame, older frames are dropped.
func (w *Window) Show(data []byte, label string) {
	f := frame{data: data, label: label}
	select {
	case w.frames <- f:
		return
	default:
	}
	select {
	case <-w.frames:
	default:
	}
	select {
	case w.frames <- f:
	default:
	}
}

// Idle blanks the window and shows label.
func (w *Window) Idle(label string) {
	w.Show(nil, label)
}

// Keys delivers digits, r and q pressed in the window. Closing the window
// sends q.
func (w *Window) Keys() <-chan rune {
	return w.keys
}

// Close makes Run return.
func (w *Window) Close() {
	w.closeOnce.Do(func() { close(w.done) })
}

func (w *Window) Run() error {
	ebiten.SetWindowTitle(w.title)
	ebiten.SetWindowSize(defaultWidth, defaultHeight)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowClosingHandled(true)

	return ebiten.RunGame(w)
}

func (w *Window) sendKey(k rune) {
	select {
	case w.keys <- k:
	default:
		w.logger.Warnf("preview: dropped key %q", k)
	}
}

func (w *Window) Update() error {
	select {
	case <-w.done:
		return ebiten.Termination
	default:
	}

	if ebiten.IsWindowBeingClosed() && !w.closing {
		w.closing = true
		w.sendKey('q')
	}
	w.pressed = inpututil.AppendJustPressedKeys(w.pressed[:0])
	for _, k := range w.pressed {
		if r, ok := keyRune(k); ok {
			w.sendKey(r)
		}
	}

	select {
	case f := <-w.frames:
		w.render(f)
	default:
	}

	return nil
}

func (w *Window) render(f frame) {
	if f.data == nil {
		clear(w.rgba.Pix)
	} else {
		decoded, err := img.DecodeJPEG(f.data, w.rgba)
		if err != nil {
			w.logger.Debugf("preview: %s", err)
			return
		}
		w.rgba = decoded
	}
	img.DrawLabel(w.rgba, f.label)

	b := w.rgba.Bounds()
	if w.texture == nil || w.texture.Bounds().Size() != b.Size() {
		if w.texture != nil {
			w.texture.Deallocate()
		}
		w.texture = ebiten.NewImage(b.Dx(), b.Dy())
	}
	w.texture.WritePixels(w.rgba.Pix)
}

func (w *Window) Draw(screen *ebiten.Image) {
	if w.texture != nil {
		screen.DrawImage(w.texture, nil)
	}
}

func (w *Window) Layout(_, _ int) (int, int) {
	b := w.rgba.Bounds()
	return b.Dx(), b.Dy()
}
