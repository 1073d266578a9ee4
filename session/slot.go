package session

// Slot is one of the two fixed speaker roles. The zero value means "no
// speaker" and is what ActiveListening holds while nobody is listening.
type Slot int

const (
	NoSlot Slot = iota
	Speaker1
	Speaker2
)

func (s Slot) Valid() bool { return s == Speaker1 || s == Speaker2 }

// String is the label used in copied transcripts.
func (s Slot) String() string {
	switch s {
	case Speaker1:
		return "Speaker1"
	case Speaker2:
		return "Speaker2"
	}
	return "none"
}

// Label is the human-facing name used in messages.
func (s Slot) Label() string {
	switch s {
	case Speaker1:
		return "Speaker 1"
	case Speaker2:
		return "Speaker 2"
	}
	return "nobody"
}

// Other returns the listening side of a conversation turn.
func (s Slot) Other() Slot {
	if s == Speaker1 {
		return Speaker2
	}
	return Speaker1
}

func (s Slot) index() int { return int(s) - 1 }
