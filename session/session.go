package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"vaani/lang"
	"vaani/log"
	"vaani/speaker"
	"vaani/transcriber"
	"vaani/translator"
)

// Clipboard receives the rendered transcript on CopyToClipboard.
type Clipboard interface {
	Write(text string) error
}

type Config struct {
	Translator  translator.Translator
	Transcriber transcriber.Transcriber // nil disables Listen
	Speaker     speaker.Speaker         // nil speaks nothing
	Clipboard   Clipboard               // nil fails CopyToClipboard

	// Starting languages; empty means lang.DefaultSpeaker1 / DefaultSpeaker2.
	Lang1, Lang2 string

	// Observer is called after every state change, outside the session lock.
	// It may call State but must not block for long.
	Observer func(Event)
}

// Entry is one translated utterance. Entries are handed out by value and
// never change once appended.
type Entry struct {
	ID      string
	Speaker Slot
	Text    string
	From    string
	To      string
}

type SlotState struct {
	Language    string
	PendingText string
}

// Snapshot is a copy of the session state for rendering.
type Snapshot struct {
	Speaker1            SlotState
	Speaker2            SlotState
	Transcript          []Entry
	TranslationInFlight bool
	ActiveListening     Slot
}

func (s Snapshot) Slot(slot Slot) SlotState {
	if slot == Speaker2 {
		return s.Speaker2
	}
	return s.Speaker1
}

type Session struct {
	translator  translator.Translator
	transcriber transcriber.Transcriber
	speaker     speaker.Speaker
	clipboard   Clipboard
	observer    func(Event)

	mu         sync.Mutex
	slots      [2]SlotState
	transcript []Entry
	inFlight   int
	listening  Slot
	stream     transcriber.Stream
	pumped     chan struct{} // closed when stream's pump has applied its last fragment
	// owner is the stream allowed to write each slot's pending text. It
	// outlives stop so finalized text still lands, until the slot listens again.
	owner [2]transcriber.Stream

	listenMu  sync.Mutex
	closed    bool // guarded by listenMu
	closeOnce sync.Once
}

func New(cfg Config) (*Session, error) {
	if cfg.Translator == nil {
		return nil, errors.New("session needs a translator")
	}
	l1, l2 := cfg.Lang1, cfg.Lang2
	if l1 == "" {
		l1 = lang.DefaultSpeaker1
	}
	if l2 == "" {
		l2 = lang.DefaultSpeaker2
	}
	for _, code := range []string{l1, l2} {
		if !lang.IsSupported(code) {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, code)
		}
	}
	if l1 == l2 {
		return nil, fmt.Errorf("both speakers start in %s; pick two different languages", lang.Label(l1))
	}
	sp := cfg.Speaker
	if sp == nil {
		sp = speaker.Nop{}
	}
	return &Session{
		translator:  cfg.Translator,
		transcriber: cfg.Transcriber,
		speaker:     sp,
		clipboard:   cfg.Clipboard,
		observer:    cfg.Observer,
		slots:       [2]SlotState{{Language: l1}, {Language: l2}},
	}, nil
}

func (s *Session) emit(ev Event) {
	if s.observer != nil {
		s.observer(ev)
	}
}

func (s *Session) State() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Speaker1:            s.slots[0],
		Speaker2:            s.slots[1],
		Transcript:          append([]Entry(nil), s.transcript...),
		TranslationInFlight: s.inFlight > 0,
		ActiveListening:     s.listening,
	}
}

func (s *Session) SetLanguage(slot Slot, code string) error {
	if !slot.Valid() {
		return ErrInvalidSlot
	}
	if !lang.IsSupported(code) {
		return fmt.Errorf("%w: %q is not in the language list", ErrUnsupportedLanguage, code)
	}
	s.mu.Lock()
	s.slots[slot.index()].Language = code
	s.mu.Unlock()
	s.emit(Event{Kind: EventLanguages, Slot: slot})
	return nil
}

// SetPendingText stores text verbatim.
func (s *Session) SetPendingText(slot Slot, text string) error {
	if !slot.Valid() {
		return ErrInvalidSlot
	}
	s.mu.Lock()
	s.slots[slot.index()].PendingText = text
	s.mu.Unlock()
	s.emit(Event{Kind: EventPendingText, Slot: slot})
	return nil
}

func (s *Session) SwapLanguages() {
	s.mu.Lock()
	s.slots[0].Language, s.slots[1].Language = s.slots[1].Language, s.slots[0].Language
	s.mu.Unlock()
	s.emit(Event{Kind: EventLanguages})
}

// Translate renders the slot's pending text into the other speaker's
// language and appends the result. Concurrent calls are independent and
// land in the order they finish. The pending text is left as is.
func (s *Session) Translate(ctx context.Context, slot Slot) (Entry, error) {
	if !slot.Valid() {
		return Entry{}, ErrInvalidSlot
	}

	s.mu.Lock()
	text := s.slots[slot.index()].PendingText
	if strings.TrimSpace(text) == "" {
		s.mu.Unlock()
		return Entry{}, fmt.Errorf("%w: type or say something for %s first", ErrEmptyInput, slot.Label())
	}
	from := s.slots[slot.index()].Language
	to := s.slots[slot.Other().index()].Language
	s.inFlight++
	s.mu.Unlock()
	s.emit(Event{Kind: EventTranslationStarted, Slot: slot})

	res, err := s.translator.Translate(ctx, text, from, to)

	s.mu.Lock()
	s.inFlight--
	if err != nil {
		s.mu.Unlock()
		log.TranslationFailed(s.translator.Name(), from, to, err)
		err = fmt.Errorf("%w (%s → %s): %w", ErrTranslation, lang.Label(from), lang.Label(to), err)
		s.emit(Event{Kind: EventTranslationDone, Slot: slot, Err: err})
		return Entry{}, err
	}
	entry := Entry{ID: uuid.NewString(), Speaker: slot, Text: res.Text, From: from, To: to}
	s.transcript = append(s.transcript, entry)
	s.mu.Unlock()

	s.logTranslation(entry, text, res.Metrics)
	s.emit(Event{Kind: EventTranslationDone, Slot: slot})
	s.emit(Event{Kind: EventEntryAdded, Slot: slot})
	return entry, nil
}

func (s *Session) logTranslation(e Entry, source string, m *translator.NetworkMetrics) {
	tm := log.TranslationMetrics{
		Provider: s.translator.Name(),
		From:     e.From,
		To:       e.To,
		Chars:    len([]rune(source)),
	}
	if m != nil {
		tm.DNSMs = ms(m.DNS)
		tm.TLSMs = ms(m.TLS)
		tm.TTFBMs = ms(m.TTFB)
		tm.NetworkMs = ms(m.Sum())
		tm.TotalMs = ms(m.Total)
		tm.ConnReused = m.ConnReused
	}
	log.Translation(tm)
	log.ConversationEntry(e.Speaker.String(), e.From, e.To, e.Text)
}

func ms(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }

// SpeakEntry reads transcript entry i aloud in the listener's language.
func (s *Session) SpeakEntry(i int) error {
	s.mu.Lock()
	if i < 0 || i >= len(s.transcript) {
		n := len(s.transcript)
		s.mu.Unlock()
		return fmt.Errorf("%w: %d (transcript has %d)", ErrNoSuchEntry, i, n)
	}
	e := s.transcript[i]
	s.mu.Unlock()
	s.Speak(e)
	return nil
}

// Speak plays e in the current language of the speaker opposite e.Speaker.
func (s *Session) Speak(e Entry) {
	s.mu.Lock()
	language := s.slots[e.Speaker.Other().index()].Language
	s.mu.Unlock()
	s.speaker.Speak(e.Text, language)
}

// ClearTranscript empties the transcript. Confirmation is the caller's job.
func (s *Session) ClearTranscript() error {
	s.mu.Lock()
	n := len(s.transcript)
	if n == 0 {
		s.mu.Unlock()
		return ErrNothingToClear
	}
	s.transcript = nil
	s.mu.Unlock()
	log.TranscriptCleared(n)
	s.emit(Event{Kind: EventTranscriptCleared})
	return nil
}

// CopyTranscript renders the transcript as "Speaker1: text" lines
// separated by a blank line.
func (s *Session) CopyTranscript() (string, error) {
	text, _, err := s.render()
	return text, err
}

func (s *Session) render() (string, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.transcript) == 0 {
		return "", 0, fmt.Errorf("%w: the conversation is empty", ErrEmptyTranscript)
	}
	lines := make([]string, len(s.transcript))
	for i, e := range s.transcript {
		lines[i] = e.Speaker.String() + ": " + e.Text
	}
	return strings.Join(lines, "\n\n"), len(lines), nil
}

// CopyToClipboard writes CopyTranscript's output to the clipboard and
// returns what was written.
func (s *Session) CopyToClipboard() (string, error) {
	text, n, err := s.render()
	if err != nil {
		return "", err
	}
	if s.clipboard == nil {
		return "", fmt.Errorf("%w: no clipboard available", ErrClipboardWrite)
	}
	if err := s.clipboard.Write(text); err != nil {
		return "", fmt.Errorf("%w: %w", ErrClipboardWrite, err)
	}
	log.TranscriptCopied(n, len([]rune(text)))
	return text, nil
}

// Close stops any active recognition and logs the end of the session.
// Later calls do nothing.
func (s *Session) Close() {
	s.closeOnce.Do(s.close)
}

func (s *Session) close() {
	s.listenMu.Lock()
	s.closed = true
	s.mu.Lock()
	st, slot, pumped := s.stream, s.listening, s.pumped
	s.stream, s.listening, s.pumped = nil, NoSlot, nil
	n := len(s.transcript)
	s.mu.Unlock()
	if st != nil {
		st.Stop()
		awaitPump(pumped)
		log.ListenStop(slot.String(), st.Err())
	}
	s.listenMu.Unlock()
	log.SessionEnd(n)
}
