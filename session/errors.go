package session

import "errors"

// Every operation error matches exactly one of these with errors.Is. None
// of them leave the session in a bad state; the caller reports the message
// and carries on.
var (
	ErrInvalidSlot         = errors.New("no such speaker")
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrEmptyInput          = errors.New("nothing to translate")
	ErrTranslation         = errors.New("translation failed")
	ErrNothingToClear      = errors.New("conversation is already empty")
	ErrEmptyTranscript     = errors.New("nothing to copy")
	ErrSpeechUnavailable   = errors.New("speech recognition not supported")
	ErrSpeechStart         = errors.New("speech recognition failed to start")
	ErrClipboardWrite      = errors.New("copy failed")
	ErrNoSuchEntry         = errors.New("no such transcript entry")
	ErrClosed              = errors.New("session is closed")
)
