// Package shutdown runs cleanup when the process is asked to terminate.
package shutdown

import (
	"os"
	"os/signal"
	"sync"
)

// OnSignal calls fn once, on its own goroutine, when a termination signal
// arrives. The returned stop function unregisters the handler; fn is not
// called after stop returns.
func OnSignal(fn func()) (stop func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, signals...)
	done := make(chan struct{})
	go func() {
		select {
		case <-ch:
			fn()
		case <-done:
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(ch)
			close(done)
		})
	}
}
