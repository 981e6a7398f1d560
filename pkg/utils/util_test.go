package utils

import (
	"testing"
	"time"
)

func TestEpochSeconds(t *testing.T) {
	ts := time.Unix(1689674523, int64(250*time.Millisecond))
	if got := EpochSeconds(ts); got != 1689674523.25 {
		t.Fatalf("EpochSeconds = %f", got)
	}
}
