package transcriber

import (
	"sync"

	webrtcvad "github.com/maxhawkins/go-webrtcvad"

	"vaani/audio"
	"vaani/log"
)

const (
	vadMode         = 3
	vadFrameMs      = 20
	vadFrameBytes   = audio.SampleRate * vadFrameMs / 1000 * audio.BytesPerFrame // 640 bytes
	speechThreshold = 0.10                                                       // share of frames in a tick that must be speech
	levelThreshold  = 0.02
)

// speechDetector classifies captured audio as speech or not, one tick at a
// time.
type speechDetector interface {
	Process(pcm []byte)
	// HasSpeechTick reports whether the audio seen since the previous call
	// contained speech.
	HasSpeechTick() bool
}

// newSpeechDetector returns the WebRTC voice detector, or a plain level
// gate if it cannot be created.
func newSpeechDetector() speechDetector {
	vp, err := newVADProcessor()
	if err != nil {
		log.Warnf("VAD init: %v; falling back to level detection", err)
		return &levelDetector{threshold: levelThreshold}
	}
	return vp
}

type vadProcessor struct {
	vad *webrtcvad.VAD

	mu           sync.Mutex
	buf          []byte
	totalFrames  int
	speechFrames int
	tickTotal    int
	tickSpeech   int
}

func newVADProcessor() (*vadProcessor, error) {
	v, err := webrtcvad.New()
	if err != nil {
		return nil, err
	}
	if err := v.SetMode(vadMode); err != nil {
		return nil, err
	}
	return &vadProcessor{vad: v}, nil
}

func (p *vadProcessor) Process(data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.buf = append(p.buf, data...)
	for len(p.buf) >= vadFrameBytes {
		frame := p.buf[:vadFrameBytes]
		p.buf = p.buf[vadFrameBytes:]

		active, err := p.vad.Process(audio.SampleRate, frame)
		if err != nil {
			continue
		}
		p.totalFrames++
		if active {
			p.speechFrames++
		}
	}
}

func (p *vadProcessor) HasSpeechTick() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	t := p.totalFrames - p.tickTotal
	s := p.speechFrames - p.tickSpeech
	p.tickTotal, p.tickSpeech = p.totalFrames, p.speechFrames
	if t == 0 {
		return false
	}
	return float64(s)/float64(t) >= speechThreshold
}

// levelDetector treats any chunk louder than threshold as speech.
type levelDetector struct {
	threshold float64

	mu     sync.Mutex
	loud   int
	chunks int
}

func (d *levelDetector) Process(pcm []byte) {
	level := audio.Level(pcm)
	d.mu.Lock()
	d.chunks++
	if level >= d.threshold {
		d.loud++
	}
	d.mu.Unlock()
}

func (d *levelDetector) HasSpeechTick() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	loud, chunks := d.loud, d.chunks
	d.loud, d.chunks = 0, 0
	if chunks == 0 {
		return false
	}
	return float64(loud)/float64(chunks) >= speechThreshold
}
