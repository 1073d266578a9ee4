package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vaani/lang"
	"vaani/log"
	"vaani/transcriber"
)

const pumpDrainMax = 3 * time.Second

// Listen toggles speech input for slot. Listening on the active slot stops
// it. Listening on the other slot stops that one first, then starts
// recognition in slot's language. Every recognized fragment replaces the
// slot's pending text.
func (s *Session) Listen(ctx context.Context, slot Slot) error {
	if !slot.Valid() {
		return ErrInvalidSlot
	}
	s.listenMu.Lock()
	defer s.listenMu.Unlock()
	if s.closed {
		return ErrClosed
	}

	s.mu.Lock()
	prev, prevSlot, prevPumped := s.stream, s.listening, s.pumped
	s.stream, s.listening, s.pumped = nil, NoSlot, nil
	language := s.slots[slot.index()].Language
	s.mu.Unlock()

	if prev != nil {
		prev.Stop()
		// Late fragments land before Listen returns, never over a later edit.
		awaitPump(prevPumped)
		err := prev.Err()
		log.ListenStop(prevSlot.String(), err)
		s.emit(Event{Kind: EventListenStopped, Slot: prevSlot, Err: err})
	}
	if prevSlot == slot {
		return nil
	}

	if s.transcriber == nil {
		return fmt.Errorf("%w: no recognizer configured", ErrSpeechUnavailable)
	}
	st, err := s.transcriber.Start(ctx, language)
	if err != nil {
		if errors.Is(err, transcriber.ErrUnavailable) {
			return fmt.Errorf("%w: %w", ErrSpeechUnavailable, err)
		}
		return fmt.Errorf("%w for %s in %s: %w", ErrSpeechStart, slot.Label(), lang.Label(language), err)
	}

	pumped := make(chan struct{})
	s.mu.Lock()
	s.stream, s.listening, s.pumped = st, slot, pumped
	s.owner[slot.index()] = st
	s.mu.Unlock()

	log.ListenStart(slot.String(), language)
	s.emit(Event{Kind: EventListenStarted, Slot: slot})
	go s.pump(slot, st, pumped)
	return nil
}

func awaitPump(pumped chan struct{}) {
	if pumped == nil {
		return
	}
	select {
	case <-pumped:
	case <-time.After(pumpDrainMax):
		log.Warn("recognition updates still open after stop")
	}
}

// pump copies fragments into the slot until the stream closes. A stream
// that ends by itself clears ActiveListening; one stopped by Listen or
// Close was already cleared there.
func (s *Session) pump(slot Slot, st transcriber.Stream, pumped chan struct{}) {
	defer close(pumped)
	i := slot.index()
	for u := range st.Updates() {
		s.mu.Lock()
		if s.owner[i] != st {
			s.mu.Unlock()
			continue
		}
		s.slots[i].PendingText = u.Text
		s.mu.Unlock()
		s.emit(Event{Kind: EventPendingText, Slot: slot})
	}

	s.mu.Lock()
	current := s.stream == st
	if current {
		s.stream, s.listening, s.pumped = nil, NoSlot, nil
	}
	s.mu.Unlock()
	if !current {
		return
	}
	err := st.Err()
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrSpeechStart, err)
	}
	log.ListenStop(slot.String(), err)
	s.emit(Event{Kind: EventListenStopped, Slot: slot, Err: err})
}
