package doctor

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"strings"
	"testing"
	"time"

	"vaani/audio"
	"vaani/speaker"
	"vaani/transcriber"
	"vaani/translator"
)

func newChecker(input string) (*checker, *bytes.Buffer) {
	var out bytes.Buffer
	return &checker{
		out:    &out,
		in:     bufio.NewReader(strings.NewReader(input)),
		record: 50 * time.Millisecond,
	}, &out
}

func tone(samples int, amplitude int16) []byte {
	pcm := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		v := amplitude
		if i%2 == 1 {
			v = -amplitude
		}
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(v))
	}
	return pcm
}

func TestCheckTranslation(t *testing.T) {
	c, out := newChecker("")
	tr := translator.NewFake(nil).Answer("en", "hi", "Hello, how are you?", "नमस्ते, आप कैसे हैं?")
	if !c.checkTranslation(tr, "en", "hi") {
		t.Fatalf("check failed:\n%s", out)
	}
	if !strings.Contains(out.String(), "नमस्ते") {
		t.Errorf("output missing translation:\n%s", out)
	}

	c, out = newChecker("")
	if c.checkTranslation(translator.NewFake(errors.New("offline")), "en", "hi") {
		t.Fatal("check passed with failing translator")
	}
	if !strings.Contains(out.String(), "FAIL") || !strings.Contains(out.String(), "offline") {
		t.Errorf("output:\n%s", out)
	}
}

func TestCheckMicrophone(t *testing.T) {
	c, out := newChecker("\n")
	dev, ok := c.checkMicrophone(audio.NewFakeContextPCM(tone(16000, 8000), false), "")
	if !ok || dev == nil {
		t.Fatalf("loud input failed:\n%s", out)
	}

	c, out = newChecker("\n")
	if _, ok := c.checkMicrophone(audio.NewFakeContextPCM(nil, false), ""); ok {
		t.Fatalf("silent input passed:\n%s", out)
	}

	c, out = newChecker("")
	if _, ok := c.checkMicrophone(audio.NewFakeContextPCM(nil, false), "usb headset"); ok {
		t.Fatalf("missing device passed:\n%s", out)
	}
}

func TestCheckRecognition(t *testing.T) {
	tc := transcriber.NewFake(
		transcriber.Update{Text: "hello"},
		transcriber.Update{Text: "hello world", IsFinal: true},
	)
	c, out := newChecker("\ny\n")
	if !c.checkRecognition(tc, "en") {
		t.Fatalf("check failed:\n%s", out)
	}
	if !strings.Contains(out.String(), "Recognized text: hello world") {
		t.Errorf("output:\n%s", out)
	}
	if !tc.Streams()[0].Stopped() {
		t.Error("stream left running")
	}

	c, _ = newChecker("\nn\n")
	if c.checkRecognition(transcriber.NewFake(), "en") {
		t.Error("unconfirmed recognition passed")
	}

	c, out = newChecker("\n")
	if !c.checkRecognition(transcriber.Unavailable{Reason: "no key"}, "en") {
		t.Error("unavailable recognizer should be skipped, not failed")
	}
	if !strings.Contains(out.String(), "SKIP") {
		t.Errorf("output:\n%s", out)
	}

	c, _ = newChecker("\n")
	failing := &transcriber.Fake{EndErr: &transcriber.Error{Code: "not-allowed"}}
	if c.checkRecognition(failing, "en") {
		t.Error("stream error passed")
	}
}

func TestCheckSpeech(t *testing.T) {
	c, out := newChecker("")
	if !c.checkSpeech(speaker.Nop{}, "hi") || !strings.Contains(out.String(), "SKIP") {
		t.Errorf("Nop speaker not skipped:\n%s", out)
	}

	sp := &speaker.Fake{}
	c, _ = newChecker("yes\n")
	if !c.checkSpeech(sp, "hi") {
		t.Error("confirmed speech failed")
	}
	if said := sp.Said(); len(said) != 1 || said[0].Language != "hi" {
		t.Errorf("said = %+v", said)
	}

	c, _ = newChecker("n\n")
	if c.checkSpeech(&speaker.Fake{}, "hi") {
		t.Error("unconfirmed speech passed")
	}
}

func TestWithinGivesUpOnHang(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	release := make(chan struct{})
	defer close(release)
	_, err := within(ctx, func() (string, error) {
		<-release
		return "late", nil
	})
	if !errors.Is(err, errHung) {
		t.Errorf("err = %v, want errHung", err)
	}

	got, err := within(context.Background(), func() (string, error) { return "ok", nil })
	if err != nil || got != "ok" {
		t.Errorf("within = %q, %v", got, err)
	}
}
