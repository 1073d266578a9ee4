package transcriber

import (
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"vaani/audio"
	"vaani/log"
)

const (
	streamChunkMs      = 100
	streamChunkBytes   = audio.SampleRate * audio.BytesPerFrame * streamChunkMs / 1000
	streamFinalizeIdle = 200 * time.Millisecond
	streamFinalizeMax  = 1000 * time.Millisecond
	streamDrainMax     = 2 * time.Second
)

type rawStream interface {
	Send(pcm []byte) error
	CloseSend() error
	Recv() (streamUpdate, error)
	Close() error
}

type streamUpdate struct {
	Transcript   string
	IsFinal      bool
	FromFinalize bool
}

// stream pumps captured PCM into a rawStream and turns provider messages
// into Updates: committed final segments joined by spaces, followed by the
// current interim segment.
type stream struct {
	raw       rawStream
	capture   audio.CaptureDevice
	audioCh   chan []byte
	updates   chan Update
	connected chan struct{}

	sendDone      chan struct{}
	recvDone      chan struct{}
	done          chan struct{}
	finalized     chan struct{}
	finalizedOnce sync.Once
	stopOnce      sync.Once
	captureOnce   sync.Once

	feedMu   sync.Mutex
	feedBuf  []byte
	feedEnd  bool
	detector speechDetector

	mu        sync.Mutex
	committed string
	last      Update
	err       error
	closing   bool
}

func newStream(capture audio.CaptureDevice, dial func() (rawStream, error)) *stream {
	s := &stream{
		capture:   capture,
		audioCh:   make(chan []byte, 128),
		updates:   make(chan Update, 16),
		connected: make(chan struct{}),
		sendDone:  make(chan struct{}),
		recvDone:  make(chan struct{}),
		done:      make(chan struct{}),
		finalized: make(chan struct{}),
	}

	go func() {
		raw, err := dial()
		if err != nil {
			s.setErr(err)
			close(s.sendDone)
			close(s.recvDone)
			close(s.connected)
			return
		}
		s.raw = raw
		close(s.connected)
		go s.runSender()
		go s.runReceiver()
	}()

	go s.finish()
	return s
}

func (s *stream) Updates() <-chan Update { return s.updates }

func (s *stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Feed is the capture callback. It never blocks the audio thread: chunks are
// dropped when the sender falls behind.
func (s *stream) Feed(pcm []byte) {
	s.feedMu.Lock()
	defer s.feedMu.Unlock()
	if s.feedEnd {
		return
	}
	if s.detector != nil {
		s.detector.Process(pcm)
	}
	s.feedBuf = append(s.feedBuf, pcm...)
	for len(s.feedBuf) >= streamChunkBytes {
		chunk := make([]byte, streamChunkBytes)
		copy(chunk, s.feedBuf[:streamChunkBytes])
		s.feedBuf = s.feedBuf[streamChunkBytes:]
		select {
		case s.audioCh <- chunk:
		default:
			log.Warn("recognition audio chunk dropped")
		}
	}
}

// endOnSilence lets det decide when the speaker has finished: the stream
// stops itself when mon reports the end of the turn. Call it before audio
// starts flowing.
func (s *stream) endOnSilence(det speechDetector, mon *turnMonitor, every time.Duration) {
	s.feedMu.Lock()
	s.detector = det
	s.feedMu.Unlock()
	go s.watchTurn(det, mon, every)
}

func (s *stream) watchTurn(det speechDetector, mon *turnMonitor, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			switch ev := mon.Tick(det.HasSpeechTick()); ev {
			case turnSpeechStarted:
				log.Info("recognition_" + ev.String())
			case turnEnded, turnNoSpeech, turnTooLong:
				log.Info("recognition_auto_stop: " + ev.String())
				// Stop waits for done, which this goroutine must not block.
				go s.Stop()
				return
			}
		}
	}
}

// endFeed stops the microphone and closes the audio channel, flushing any
// partial chunk. Safe to call more than once.
func (s *stream) endFeed() {
	s.captureOnce.Do(func() {
		if s.capture != nil {
			s.capture.ClearCallback()
			s.capture.Stop()
			s.capture.Close()
		}
	})
	s.feedMu.Lock()
	defer s.feedMu.Unlock()
	if s.feedEnd {
		return
	}
	s.feedEnd = true
	if len(s.feedBuf) > 0 {
		select {
		case s.audioCh <- s.feedBuf:
		default:
		}
		s.feedBuf = nil
	}
	close(s.audioCh)
}

// Stop ends recognition: the microphone is released, the provider is asked
// to finalize, and Updates is closed once the last result has arrived.
func (s *stream) Stop() {
	s.stopOnce.Do(func() {
		s.endFeed()
		<-s.connected

		s.mu.Lock()
		failed := s.err != nil
		s.mu.Unlock()

		if !failed {
			<-s.sendDone
			select {
			case <-s.finalized:
				time.Sleep(streamFinalizeIdle)
			case <-time.After(streamFinalizeMax):
			}
		}

		s.mu.Lock()
		s.closing = true
		s.mu.Unlock()
		if s.raw != nil {
			s.raw.Close()
		}
	})

	select {
	case <-s.done:
	case <-time.After(streamDrainMax):
		log.Warn("recognition stream drain timeout")
	}
}

// finish closes Updates after the receiver exits, whichever side ended the
// stream, and re-sends the last result in case the non-blocking send
// dropped it.
func (s *stream) finish() {
	<-s.recvDone
	go s.endFeed()
	for range s.audioCh {
	}

	s.mu.Lock()
	last := s.last
	s.mu.Unlock()
	if last.Text != "" {
		select {
		case s.updates <- last:
		default:
		}
	}
	close(s.updates)
	close(s.done)
}

func (s *stream) runSender() {
	defer close(s.sendDone)
	for chunk := range s.audioCh {
		if err := s.raw.Send(chunk); err != nil {
			s.setErr(err)
			for range s.audioCh {
			}
			return
		}
	}
	if err := s.raw.CloseSend(); err != nil {
		s.setErr(err)
	}
}

func (s *stream) runReceiver() {
	defer close(s.recvDone)
	for {
		update, err := s.raw.Recv()
		if err != nil {
			s.mu.Lock()
			closing := s.closing
			s.mu.Unlock()
			if !closing && !errors.Is(err, io.EOF) {
				s.setErr(err)
			}
			return
		}

		if update.FromFinalize {
			s.finalizedOnce.Do(func() { close(s.finalized) })
		}

		text := strings.TrimSpace(update.Transcript)
		isFinal := update.IsFinal || update.FromFinalize

		s.mu.Lock()
		if isFinal && text != "" {
			s.committed = joinSegments(s.committed, text)
			text = s.committed
		} else if isFinal {
			text = s.committed
		} else {
			text = joinSegments(s.committed, text)
		}
		if text == "" || (text == s.last.Text && isFinal == s.last.IsFinal) {
			s.mu.Unlock()
			continue
		}
		u := Update{Text: text, IsFinal: isFinal}
		s.last = u
		s.mu.Unlock()

		select {
		case s.updates <- u:
		default:
		}
	}
}

func joinSegments(committed, segment string) string {
	switch {
	case committed == "":
		return segment
	case segment == "":
		return committed
	}
	return committed + " " + segment
}

func (s *stream) setErr(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	first := s.err == nil
	if first {
		s.err = err
	}
	s.mu.Unlock()
	if first && s.raw != nil {
		s.raw.Close()
	}
}
