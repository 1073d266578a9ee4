package transcriber

import "time"

const tickInterval = 100 * time.Millisecond

// TurnLimits bound a single listening turn. A turn ends after Trailing
// silence once the speaker has started talking, after NoSpeech if they
// never do, and after Max regardless. Zero disables a limit.
type TurnLimits struct {
	Trailing time.Duration
	NoSpeech time.Duration
	Max      time.Duration
}

// DefaultTurnLimits ends a turn the way a one-shot browser recognizer does:
// when the speaker pauses.
func DefaultTurnLimits() TurnLimits {
	return TurnLimits{
		Trailing: 1500 * time.Millisecond,
		NoSpeech: 8 * time.Second,
		Max:      60 * time.Second,
	}
}

type turnEvent int

const (
	turnNone turnEvent = iota
	turnSpeechStarted
	turnEnded    // speaker went quiet
	turnNoSpeech // nothing said
	turnTooLong
)

func (e turnEvent) String() string {
	switch e {
	case turnSpeechStarted:
		return "speech_started"
	case turnEnded:
		return "turn_ended"
	case turnNoSpeech:
		return "no_speech"
	case turnTooLong:
		return "turn_too_long"
	}
	return "none"
}

const onsetTicks = 2 // speech ticks within the onset window that start a turn

type turnMonitor struct {
	trailingAt int
	noSpeechAt int
	maxAt      int

	ticks  int
	recent [4]bool // onset window
	spoke  bool
	quiet  int
	ended  bool
}

func newTurnMonitor(limits TurnLimits, every time.Duration) *turnMonitor {
	ticksOf := func(d time.Duration) int {
		if d <= 0 {
			return 0
		}
		return max(int(d/every), 1)
	}
	return &turnMonitor{
		trailingAt: ticksOf(limits.Trailing),
		noSpeechAt: ticksOf(limits.NoSpeech),
		maxAt:      ticksOf(limits.Max),
	}
}

// Tick advances the monitor by one interval. Once it has returned an
// ending event it returns turnNone forever.
func (m *turnMonitor) Tick(hasSpeech bool) turnEvent {
	if m.ended {
		return turnNone
	}
	m.recent[m.ticks%len(m.recent)] = hasSpeech
	m.ticks++

	ev := turnNone
	if hasSpeech {
		m.quiet = 0
	} else {
		m.quiet++
	}
	if !m.spoke {
		n := 0
		for _, s := range m.recent {
			if s {
				n++
			}
		}
		if n >= onsetTicks {
			m.spoke = true
			ev = turnSpeechStarted
		}
	}

	switch {
	case m.maxAt > 0 && m.ticks >= m.maxAt:
		ev = turnTooLong
	case m.spoke && m.trailingAt > 0 && m.quiet >= m.trailingAt:
		ev = turnEnded
	case !m.spoke && m.noSpeechAt > 0 && m.ticks >= m.noSpeechAt:
		ev = turnNoSpeech
	}
	if ev == turnEnded || ev == turnNoSpeech || ev == turnTooLong {
		m.ended = true
	}
	return ev
}
