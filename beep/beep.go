// Package beep plays short listening cues and raw speech audio.
//
// All playback is mono signed 16-bit at SampleRate, which is also the rate
// the speech synthesizer produces, so one output stream serves both.
package beep

import (
	"math"
	"sync"
	"sync/atomic"
)

const SampleRate = 24000

const (
	// Start cue: high pitch, short
	startFreq   = 1200
	startVolume = 0.5
	startDecay  = 60

	// Stop cue: medium pitch, slightly longer
	endFreq   = 900
	endVolume = 0.5
	endDecay  = 40

	// Error cue: low pitch double-beep
	errorFreq   = 350
	errorVolume = 0.6
	errorDecay  = 30
)

var (
	disabled     atomic.Bool
	startSamples []int16
	endSamples   []int16
	errorSamples []int16
	cueOnce      sync.Once
)

// Disable silences cues. Speech playback is unaffected.
func Disable() { disabled.Store(true) }

func initCues() {
	// 200ms tails let PulseAudio fill its buffer before draining
	startSamples = generateTick(SampleRate, startFreq, 0.2, startVolume, startDecay)
	endSamples = generateTick(SampleRate, endFreq, 0.2, endVolume, endDecay)
	errorSamples = generateDoubleBeep(SampleRate, errorFreq, 0.08, 0.05, errorVolume, errorDecay)
}

func generateTick(sampleRate int, freq, duration, volume, decay float64) []int16 {
	n := int(float64(sampleRate) * duration)
	samples := make([]int16, n)
	for i := range samples {
		t := float64(i) / float64(sampleRate)
		envelope := math.Exp(-t * decay)
		samples[i] = int16(math.Sin(2*math.Pi*freq*t) * 32767 * volume * envelope)
	}
	return samples
}

func generateDoubleBeep(sampleRate int, freq, beepDur, gapDur, volume, decay float64) []int16 {
	tick := generateTick(sampleRate, freq, beepDur, volume, decay)
	gap := make([]int16, int(float64(sampleRate)*gapDur))
	result := make([]int16, 0, len(tick)*2+len(gap))
	result = append(result, tick...)
	result = append(result, gap...)
	return append(result, tick...)
}

func cue(samples *[]int16) {
	if disabled.Load() {
		return
	}
	cueOnce.Do(initCues)
	go play(*samples)
}

func PlayStart() { cue(&startSamples) }

func PlayEnd() { cue(&endSamples) }

func PlayError() { cue(&errorSamples) }

// PlayPCM plays mono samples at SampleRate and blocks until they have been
// handed to the audio device.
func PlayPCM(samples []int16) error {
	if len(samples) == 0 {
		return nil
	}
	return play(samples)
}
