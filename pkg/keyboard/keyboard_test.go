package keyboard

import (
	"sort"
	"strings"
	"testing"
	"time"
)

func collect(t *testing.T, keys <-chan rune) []rune {
	t.Helper()
	var res []rune
	timeout := time.After(2 * time.Second)
	for {
		select {
		case k, ok := <-keys:
			if !ok {
				return res
			}
			res = append(res, k)
		case <-timeout:
			t.Fatal("timeout reading keys")
		}
	}
}

func TestReader(t *testing.T) {
	r := NewReader(strings.NewReader("3xq\x03"))
	defer r.Close()

	got := string(collect(t, r.Keys()))
	if got != "3xq\x03" {
		t.Fatalf("keys = %q", got)
	}
}

func TestMerge(t *testing.T) {
	a := make(chan rune, 2)
	b := make(chan rune, 2)
	a <- '1'
	a <- 'r'
	b <- 'q'
	close(a)
	close(b)

	got := collect(t, Merge(a, nil, b))
	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	if string(got) != "1qr" {
		t.Fatalf("merged keys = %q", string(got))
	}
}
