package clipboard

import cb "github.com/atotto/clipboard"

// Unsupported reports whether the platform lacks a clipboard utility
// (xclip, xsel or wl-clipboard on Linux).
func Unsupported() bool { return cb.Unsupported }

func Copy(text string) error {
	return cb.WriteAll(text)
}

func Read() (string, error) {
	return cb.ReadAll()
}

// Writer adapts the system clipboard to the single-method interface the
// conversation session expects.
type Writer struct{}

func (Writer) Write(text string) error { return Copy(text) }
