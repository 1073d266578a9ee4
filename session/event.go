package session

type EventKind int

const (
	EventPendingText EventKind = iota
	EventLanguages
	EventTranslationStarted
	EventTranslationDone
	EventEntryAdded
	EventListenStarted
	EventListenStopped
	EventTranscriptCleared
)

func (k EventKind) String() string {
	switch k {
	case EventPendingText:
		return "pending_text"
	case EventLanguages:
		return "languages"
	case EventTranslationStarted:
		return "translation_started"
	case EventTranslationDone:
		return "translation_done"
	case EventEntryAdded:
		return "entry_added"
	case EventListenStarted:
		return "listen_started"
	case EventListenStopped:
		return "listen_stopped"
	case EventTranscriptCleared:
		return "transcript_cleared"
	}
	return "unknown"
}

// Event tells an observer that session state changed. Observers re-read
// State rather than trusting fields beyond Kind, Slot and Err.
type Event struct {
	Kind EventKind
	Slot Slot
	Err  error // set on TranslationDone and ListenStopped when something failed
}
