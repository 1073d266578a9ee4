package transcriber

import (
	"context"
	"errors"
	"fmt"
	"os"

	"vaani/audio"
)

// ErrUnavailable means the platform cannot do speech recognition at all
// (no provider key, no audio stack).
var ErrUnavailable = errors.New("speech recognition unavailable")

// Error is a recognition engine failure.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return "recognition error: " + e.Code
	}
	return fmt.Sprintf("recognition error: %s: %s", e.Code, e.Message)
}

// Update carries the recognizer's current best text for the stream. Text
// already includes every earlier committed segment, so consumers overwrite
// rather than append.
type Update struct {
	Text    string
	IsFinal bool
}

type Stream interface {
	// Updates is closed when the stream ends, either through Stop or
	// because the engine gave up. Err reports why once it is closed.
	Updates() <-chan Update
	Err() error
	Stop()
}

type Transcriber interface {
	Name() string
	Start(ctx context.Context, language string) (Stream, error)
}

// Unavailable is the Transcriber used when recognition cannot be set up; it
// reports the reason on every Start.
type Unavailable struct {
	Reason string
}

func (u Unavailable) Name() string { return "none" }

func (u Unavailable) Start(context.Context, string) (Stream, error) {
	return nil, fmt.Errorf("%w: %s", ErrUnavailable, u.Reason)
}

// New returns the Deepgram streaming recognizer reading from device on
// actx. Without DEEPGRAM_API_KEY or an audio context it returns Unavailable.
func New(actx audio.Context, device *audio.DeviceInfo) Transcriber {
	key := os.Getenv("DEEPGRAM_API_KEY")
	switch {
	case key == "":
		return Unavailable{Reason: "set DEEPGRAM_API_KEY to enable voice input"}
	case actx == nil:
		return Unavailable{Reason: "no audio input available"}
	}
	return NewDeepgram(key, actx, device)
}
