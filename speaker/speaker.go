package speaker

import (
	"os"
	"sync"
)

// Speaker reads text aloud. Speak is fire-and-forget: it returns before
// playback starts and failures are only logged. Empty text is a no-op.
type Speaker interface {
	Name() string
	Speak(text, language string)
}

// New returns the OpenAI voice when enabled and OPENAI_API_KEY is set, and
// a silent speaker otherwise.
func New(enabled bool) Speaker {
	key := os.Getenv("OPENAI_API_KEY")
	if !enabled || key == "" {
		return Nop{}
	}
	return NewOpenAI(key, os.Getenv("OPENAI_TTS_VOICE"), "", nil)
}

type Nop struct{}

func (Nop) Name() string        { return "none" }
func (Nop) Speak(string, string) {}

type Utterance struct {
	Text, Language string
}

// Fake records what it was asked to say.
type Fake struct {
	mu   sync.Mutex
	said []Utterance
}

func (f *Fake) Name() string { return "fake" }

func (f *Fake) Speak(text, language string) {
	if text == "" {
		return
	}
	f.mu.Lock()
	f.said = append(f.said, Utterance{Text: text, Language: language})
	f.mu.Unlock()
}

func (f *Fake) Said() []Utterance {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Utterance(nil), f.said...)
}
