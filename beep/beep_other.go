//go:build !linux

package beep

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

var (
	otoCtx  *oto.Context
	otoErr  error
	otoOnce sync.Once
)

// oto allows one context per process, so it is created lazily at the shared
// SampleRate.
func otoContext() (*oto.Context, error) {
	otoOnce.Do(func() {
		var ready chan struct{}
		otoCtx, ready, otoErr = oto.NewContext(&oto.NewContextOptions{
			SampleRate:   SampleRate,
			ChannelCount: 1,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   50 * time.Millisecond,
		})
		if otoErr == nil {
			<-ready
		}
	})
	return otoCtx, otoErr
}

func play(samples []int16) error {
	ctx, err := otoContext()
	if err != nil {
		return fmt.Errorf("oto playback: %w", err)
	}
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, samples)

	player := ctx.NewPlayer(buf)
	player.Play()
	for player.IsPlaying() {
		time.Sleep(10 * time.Millisecond)
	}
	return player.Close()
}
