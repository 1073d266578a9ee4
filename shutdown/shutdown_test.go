//go:build !windows

package shutdown

import (
	"syscall"
	"testing"
	"time"
)

func TestOnSignalRunsOnce(t *testing.T) {
	called := make(chan struct{}, 2)
	stop := OnSignal(func() { called <- struct{}{} })
	defer stop()

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGHUP); err != nil {
		t.Fatal(err)
	}
	select {
	case <-called:
	case <-time.After(2 * time.Second):
		t.Fatal("handler not called")
	}
}

func TestStopUnregisters(t *testing.T) {
	called := make(chan struct{}, 1)
	stop := OnSignal(func() { called <- struct{}{} })
	stop()
	stop() // idempotent
	select {
	case <-called:
		t.Fatal("handler called after stop")
	case <-time.After(50 * time.Millisecond):
	}
}
