package doctor

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"vaani/clipboard"
)

const clipboardTimeout = 3 * time.Second

var errHung = errors.New("clipboard tool hung (display not accessible?)")

// within runs fn but gives up when ctx ends; a hung xclip never returns.
func within[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn()
		ch <- result{v, err}
	}()
	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, errHung
	}
}

// checkClipboard round-trips a marker through the system clipboard, the
// way copying the conversation does, then puts the old contents back.
func (c *checker) checkClipboard() bool {
	if clipboard.Unsupported() {
		c.printf("  FAIL: no clipboard tool found (install xclip, xsel or wl-clipboard)\n")
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), clipboardTimeout)
	defer cancel()

	prev, _ := within(ctx, clipboard.Read)
	marker := "vaani-doctor-" + uuid.NewString()
	if _, err := within(ctx, func() (struct{}, error) { return struct{}{}, clipboard.Copy(marker) }); err != nil {
		c.printf("  FAIL: clipboard write failed: %v\n", err)
		return false
	}
	got, err := within(ctx, clipboard.Read)
	if err != nil {
		c.printf("  FAIL: clipboard read failed: %v\n", err)
		return false
	}
	if prev != "" {
		clipboard.Copy(prev)
	}
	if got != marker {
		c.printf("  FAIL: clipboard mismatch: wrote %q, got %q\n", marker, got)
		return false
	}
	c.printf("  PASS: clipboard write/read verified\n")
	return true
}
