// Package keyboard delivers single key presses without waiting for Enter.
package keyboard

import (
	"io"
	"os"
	"sync"

	"golang.org/x/term"
)

// Interrupt is Ctrl-C as read from a terminal in raw mode.
const Interrupt rune = 0x03

type Reader struct {
	fd    int
	state *term.State
	keys  chan rune
	once  sync.Once
}

// Open switches f to raw mode when it is a terminal and starts reading keys.
func Open(f *os.File) (*Reader, error) {
	r := &Reader{fd: int(f.Fd()), keys: make(chan rune, 16)}
	if term.IsTerminal(r.fd) {
		state, err := term.MakeRaw(r.fd)
		if err != nil {
			return nil, err
		}
		r.state = state
	}
	go r.read(f)

	return r, nil
}

// NewReader reads keys from a plain reader, e.g. a pipe.
func NewReader(in io.Reader) *Reader {
	r := &Reader{fd: -1, keys: make(chan rune, 16)}
	go r.read(in)

	return r
}

func (r *Reader) read(in io.Reader) {
	defer close(r.keys)
	buf := make([]byte, 1)
	for {
		n, err := in.Read(buf)
		if n == 1 {
			r.keys <- rune(buf[0])
		}
		if err != nil {
			return
		}
	}
}

// Keys is closed when the input ends.
func (r *Reader) Keys() <-chan rune {
	return r.keys
}

// Close restores the terminal. The pending read is left behind.
func (r *Reader) Close() error {
	var err error
	r.once.Do(func() {
		if r.state != nil {
			err = term.Restore(r.fd, r.state)
		}
	})

	return err
}

// Merge fans in several key sources. The result closes once all inputs are
// closed.
func Merge(sources ...<-chan rune) <-chan rune {
	out := make(chan rune, 16)
	var wg sync.WaitGroup
	for _, src := range sources {
		if src == nil {
			continue
		}
		wg.Add(1)
		go func(src <-chan rune) {
			defer wg.Done()
			for k := range src {
				out <- k
			}
		}(src)
	}
	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}
