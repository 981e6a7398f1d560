// Package marker packs experiment counter, gesture and start/stop flag into the
// 16 bit event codes sent to the ExG device.
//
// Layout for the default gesture count of 32:
//
//	counter << 5 | gesture << 1 | start
//
// The counter identifies the experiment, the gesture the label chosen by the
// operator and the lowest bit tells start from stop.
package marker

import (
	"errors"
	"fmt"
	"math/bits"
	"strconv"
)

const (
	DefaultGestureCount = 32
	MaxCounter          = 1023
	MaxCode             = 0xFFFF

	StopMask = 0xFFFE

	labelPrefix = "sw_"
)

var (
	ErrGestureCount = errors.New("gesture count not a power of 2")
	ErrCodeRange    = errors.New("marker codes do not fit in 16 bits")
)

// Construct builds the marker code. Counter and gesture are not range checked,
// values that do not fit spill into the neighbouring bit fields.
func Construct(counter, gesture int, start bool, gestureCount int) (int, error) {
	shift, err := counterShift(gestureCount)
	if err != nil {
		return 0, err
	}
	code := counter<<shift | gesture<<1
	if start {
		code |= 1
	}

	return code, nil
}

// CheckGestureCount reports whether every counter value can be encoded with
// gestureCount gestures.
func CheckGestureCount(gestureCount int) error {
	shift, err := counterShift(gestureCount)
	if err != nil {
		return err
	}
	if MaxCounter<<shift > MaxCode {
		return fmt.Errorf("%w: counter %d with %d gestures", ErrCodeRange, MaxCounter, gestureCount)
	}

	return nil
}

// Stop returns the stop variant of a start code.
func Stop(code int) int {
	return code & StopMask
}

// Decode splits a code back into its fields. Only gestures below
// gestureCount/2 survive the round trip.
func Decode(code, gestureCount int) (counter, gesture int, start bool, err error) {
	shift, err := counterShift(gestureCount)
	if err != nil {
		return
	}
	if shift == 0 {
		err = fmt.Errorf("gesture count %d leaves no gesture bits", gestureCount)
		return
	}
	start = code&1 == 1
	gesture = (code >> 1) & (1<<(shift-1) - 1)
	counter = code >> shift

	return
}

// Label is the value stored in the marker column of the segment log.
func Label(code int) string {
	return labelPrefix + strconv.Itoa(code)
}

func counterShift(gestureCount int) (int, error) {
	if gestureCount <= 0 || gestureCount&(gestureCount-1) != 0 {
		return 0, fmt.Errorf("%w: %d", ErrGestureCount, gestureCount)
	}

	return bits.TrailingZeros(uint(gestureCount)), nil
}
