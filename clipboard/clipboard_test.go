package clipboard

import "testing"

func TestCopyRoundTrip(t *testing.T) {
	if Unsupported() {
		t.Skip("no clipboard utility available")
	}
	const text = "Speaker1: नमस्ते\n\nSpeaker2: Hello"
	if err := (Writer{}).Write(text); err != nil {
		t.Skipf("clipboard not writable here: %v", err)
	}
	got, err := Read()
	if err != nil {
		t.Fatal(err)
	}
	if got != text {
		t.Errorf("Read() = %q, want %q", got, text)
	}
}
