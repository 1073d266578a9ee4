package beep

import (
	"math"
	"testing"
)

func TestGenerateTickDecays(t *testing.T) {
	s := generateTick(SampleRate, 1000, 0.1, 0.5, 40)
	if len(s) != SampleRate/10 {
		t.Fatalf("len = %d, want %d", len(s), SampleRate/10)
	}
	peak := func(part []int16) float64 {
		var p float64
		for _, v := range part {
			p = math.Max(p, math.Abs(float64(v)))
		}
		return p
	}
	head, tail := peak(s[:len(s)/4]), peak(s[3*len(s)/4:])
	if head <= tail {
		t.Errorf("envelope does not decay: head %v, tail %v", head, tail)
	}
	if head > 32767*0.5+1 {
		t.Errorf("peak %v exceeds volume", head)
	}
}

func TestGenerateDoubleBeep(t *testing.T) {
	tick := generateTick(SampleRate, errorFreq, 0.08, errorVolume, errorDecay)
	s := generateDoubleBeep(SampleRate, errorFreq, 0.08, 0.05, errorVolume, errorDecay)
	gap := int(float64(SampleRate) * 0.05)
	if len(s) != 2*len(tick)+gap {
		t.Fatalf("len = %d, want %d", len(s), 2*len(tick)+gap)
	}
	for i := len(tick); i < len(tick)+gap; i++ {
		if s[i] != 0 {
			t.Fatalf("gap sample %d = %d, want silence", i, s[i])
		}
	}
}

func TestPlayPCMEmptyIsNoop(t *testing.T) {
	if err := PlayPCM(nil); err != nil {
		t.Errorf("PlayPCM(nil) = %v", err)
	}
}

func TestDisabledCuesDoNotInit(t *testing.T) {
	Disable()
	PlayStart()
	PlayEnd()
	PlayError()
	if startSamples != nil {
		t.Error("cues generated while disabled")
	}
}
