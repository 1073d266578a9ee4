package transcriber

import (
	"context"
	"sync"
	"time"
)

// Fake replays a fixed list of updates on every Start. With Hold set the
// stream stays open after the last update until Stop, like a microphone
// that keeps listening.
type Fake struct {
	Updates  []Update
	Interval time.Duration
	Hold     bool
	StartErr error
	EndErr   error

	mu      sync.Mutex
	streams []*FakeStream
}

func NewFake(updates ...Update) *Fake {
	return &Fake{Updates: updates, Hold: true}
}

func (f *Fake) Name() string { return "fake" }

func (f *Fake) Start(ctx context.Context, language string) (Stream, error) {
	if f.StartErr != nil {
		return nil, f.StartErr
	}
	s := &FakeStream{
		Language: language,
		updates:  make(chan Update, len(f.Updates)+1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	f.mu.Lock()
	f.streams = append(f.streams, s)
	f.mu.Unlock()

	go s.run(ctx, f.Updates, f.Interval, f.Hold, f.EndErr)
	return s, nil
}

// Streams returns every stream started so far, oldest first.
func (f *Fake) Streams() []*FakeStream {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*FakeStream(nil), f.streams...)
}

type FakeStream struct {
	Language string

	updates  chan Update
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	mu      sync.Mutex
	err     error
	stopped bool
}

func (s *FakeStream) run(ctx context.Context, updates []Update, interval time.Duration, hold bool, endErr error) {
	defer close(s.done)
	defer close(s.updates)
	for _, u := range updates {
		if interval > 0 {
			select {
			case <-time.After(interval):
			case <-s.stop:
				return
			}
		}
		select {
		case s.updates <- u:
		case <-s.stop:
			return
		}
	}
	if endErr != nil {
		s.mu.Lock()
		s.err = endErr
		s.mu.Unlock()
		return
	}
	if hold {
		select {
		case <-s.stop:
		case <-ctx.Done():
		}
	}
}

func (s *FakeStream) Updates() <-chan Update { return s.updates }

func (s *FakeStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *FakeStream) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.stopped = true
		s.mu.Unlock()
		close(s.stop)
	})
	<-s.done
}

func (s *FakeStream) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}
