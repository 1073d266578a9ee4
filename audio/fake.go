package audio

import (
	"os"
	"sync"
	"time"
)

const fakeFrames = 1024

// FakeContext replays fixed PCM through every capture it creates. Once the
// PCM is exhausted the capture keeps delivering silence until stopped, like
// an idle microphone.
type FakeContext struct {
	pcm      []byte
	realtime bool
}

// NewFakeContext loads a 16 kHz mono WAV file.
func NewFakeContext(wavPath string, realtime bool) (*FakeContext, error) {
	data, err := os.ReadFile(wavPath)
	if err != nil {
		return nil, err
	}
	if len(data) > WAVHeaderSize {
		data = data[WAVHeaderSize:]
	}
	return NewFakeContextPCM(data, realtime), nil
}

func NewFakeContextPCM(pcm []byte, realtime bool) *FakeContext {
	return &FakeContext{pcm: pcm, realtime: realtime}
}

func (f *FakeContext) Devices() ([]DeviceInfo, error) {
	return []DeviceInfo{{ID: "fake", Name: "fake microphone"}}, nil
}

func (f *FakeContext) Close() {}

func (f *FakeContext) NewCapture(_ *DeviceInfo, _ CaptureConfig) (CaptureDevice, error) {
	return &FakeCapture{pcm: f.pcm, realtime: f.realtime}, nil
}

type FakeCapture struct {
	pcm      []byte
	realtime bool

	mu      sync.Mutex
	cb      DataCallback
	stopCh  chan struct{}
	done    chan struct{}
	started int
}

func (f *FakeCapture) SetCallback(cb DataCallback) {
	f.mu.Lock()
	f.cb = cb
	f.mu.Unlock()
}

func (f *FakeCapture) ClearCallback() {
	f.mu.Lock()
	f.cb = nil
	f.mu.Unlock()
}

func (f *FakeCapture) DeviceName() string { return "fake" }

// Starts reports how many times Start was called.
func (f *FakeCapture) Starts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.started
}

func (f *FakeCapture) emit(chunk []byte) {
	f.mu.Lock()
	cb := f.cb
	f.mu.Unlock()
	if cb != nil {
		cb(chunk, uint32(len(chunk)/BytesPerFrame))
	}
}

func (f *FakeCapture) Start() error {
	f.mu.Lock()
	f.started++
	f.stopCh = make(chan struct{})
	f.done = make(chan struct{})
	stop, done := f.stopCh, f.done
	f.mu.Unlock()

	chunkBytes := fakeFrames * BytesPerFrame
	interval := time.Millisecond
	if f.realtime {
		interval = time.Duration(fakeFrames) * time.Second / SampleRate
	}

	go func() {
		defer close(done)
		pos := 0
		silence := make([]byte, chunkBytes)
		for {
			if pos < len(f.pcm) {
				end := min(pos+chunkBytes, len(f.pcm))
				chunk := make([]byte, end-pos)
				copy(chunk, f.pcm[pos:end])
				f.emit(chunk)
				pos = end
			} else {
				f.emit(silence)
			}
			select {
			case <-stop:
				return
			case <-time.After(interval):
			}
		}
	}()
	return nil
}

func (f *FakeCapture) Stop() {
	f.mu.Lock()
	stop, done := f.stopCh, f.done
	if stop != nil {
		select {
		case <-stop:
		default:
			close(stop)
		}
	}
	f.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (f *FakeCapture) Close() { f.Stop() }
