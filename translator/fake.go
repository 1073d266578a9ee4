package translator

import (
	"context"
	"fmt"
	"sync"
)

// Fake answers from a fixed table keyed by "from|to|text". Missing keys
// echo the text wrapped in brackets. Calls are recorded for assertions.
type Fake struct {
	mu      sync.Mutex
	answers map[string]string
	err     error
	calls   []FakeCall
	gate    func(call FakeCall) <-chan struct{}
}

type FakeCall struct {
	Text, From, To string
}

func NewFake(err error) *Fake {
	return &Fake{answers: map[string]string{}, err: err}
}

func (f *Fake) Name() string { return "fake" }

func (f *Fake) Answer(from, to, text, translated string) *Fake {
	f.mu.Lock()
	f.answers[from+"|"+to+"|"+text] = translated
	f.mu.Unlock()
	return f
}

// Gate makes Translate block until the returned channel is closed, letting
// tests control completion order of concurrent calls.
func (f *Fake) Gate(fn func(call FakeCall) <-chan struct{}) {
	f.mu.Lock()
	f.gate = fn
	f.mu.Unlock()
}

func (f *Fake) Calls() []FakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]FakeCall(nil), f.calls...)
}

func (f *Fake) Translate(ctx context.Context, text, from, to string) (*Result, error) {
	if err := checkText(text); err != nil {
		return nil, err
	}
	call := FakeCall{Text: text, From: from, To: to}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	gate := f.gate
	answer, ok := f.answers[from+"|"+to+"|"+text]
	err := f.err
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate(call):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, fmt.Errorf("fake translator error: %w", err)
	}
	if !ok {
		answer = "[" + to + "] " + text
	}
	return &Result{Text: answer, Metrics: &NetworkMetrics{}}, nil
}
