package doctor

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"vaani/shutdown"
)

// holdTerminal records the stdin terminal mode. The returned restore puts
// it back, for checks whose helpers leave the terminal raw.
func holdTerminal() (restore func()) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return func() {}
	}
	state, err := term.GetState(fd)
	if err != nil {
		return func() {}
	}
	return func() { term.Restore(fd, state) }
}

// exitOnInterrupt ends the diagnostics on Ctrl+C with the terminal restored.
func exitOnInterrupt(restore func()) (stop func()) {
	return shutdown.OnSignal(func() {
		restore()
		fmt.Fprintln(os.Stderr, "\nInterrupted")
		os.Exit(1)
	})
}
