package audio

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func pcmConst(n int, v int16) []byte {
	b := make([]byte, n*2)
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint16(b[i*2:], uint16(v))
	}
	return b
}

func TestLevel(t *testing.T) {
	if got := Level(nil); got != 0 {
		t.Errorf("Level(nil) = %v", got)
	}
	if got := Level(pcmConst(100, 0)); got != 0 {
		t.Errorf("Level(silence) = %v", got)
	}
	got := Level(pcmConst(100, 16384))
	if math.Abs(got-0.5) > 1e-9 {
		t.Errorf("Level(half scale) = %v, want 0.5", got)
	}
}

func TestFindDevice(t *testing.T) {
	ctx := NewFakeContextPCM(nil, false)
	d, err := FindDevice(ctx, "MICRO")
	if err != nil {
		t.Fatal(err)
	}
	if d.ID != "fake" {
		t.Errorf("ID = %q", d.ID)
	}
	if _, err := FindDevice(ctx, "headset"); err == nil {
		t.Error("expected error for unknown device")
	}
}

func TestFakeCaptureDeliversPCMThenSilence(t *testing.T) {
	pcm := pcmConst(fakeFrames+10, 1000)
	ctx := NewFakeContextPCM(pcm, false)
	capture, err := ctx.NewCapture(nil, DefaultCaptureConfig())
	if err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	var got []byte
	silent := make(chan struct{}, 1)
	capture.SetCallback(func(data []byte, frames uint32) {
		if int(frames)*BytesPerFrame != len(data) {
			t.Errorf("frames %d does not match %d bytes", frames, len(data))
		}
		mu.Lock()
		defer mu.Unlock()
		if len(got) >= len(pcm) {
			select {
			case silent <- struct{}{}:
			default:
			}
			return
		}
		got = append(got, data...)
	})

	if err := capture.Start(); err != nil {
		t.Fatal(err)
	}
	select {
	case <-silent:
	case <-time.After(2 * time.Second):
		t.Fatal("capture never reached silence")
	}
	capture.Stop()
	capture.Stop() // idempotent

	mu.Lock()
	defer mu.Unlock()
	if len(got) != len(pcm) {
		t.Errorf("got %d bytes, want %d", len(got), len(pcm))
	}
	if capture.(*FakeCapture).Starts() != 1 {
		t.Error("Starts() should be 1")
	}
}

func TestNewFakeContextSkipsWAVHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.wav")
	data := append(make([]byte, WAVHeaderSize), pcmConst(4, 7)...)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	ctx, err := NewFakeContext(path, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(ctx.pcm) != 8 {
		t.Errorf("pcm = %d bytes, want 8", len(ctx.pcm))
	}
}
