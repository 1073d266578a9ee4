package doctor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"vaani/audio"
	"vaani/lang"
	"vaani/speaker"
	"vaani/transcriber"
	"vaani/translator"
)

type Options struct {
	Device string // capture device name substring; empty asks when there are several
	From   string // language spoken into the microphone and translated from
	To     string
}

type checker struct {
	out    io.Writer
	in     *bufio.Reader
	record time.Duration
}

func (c *checker) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

func (c *checker) confirm(prompt string) bool {
	c.printf("%s [y/n]: ", prompt)
	answer, _ := c.in.ReadString('\n')
	answer = strings.TrimSpace(strings.ToLower(answer))
	return answer == "y" || answer == "yes"
}

// Run executes interactive diagnostic checks and returns an exit code (0=all pass, 1=any fail).
func Run(opts Options) int {
	restore := holdTerminal()
	defer restore()
	stop := exitOnInterrupt(restore)
	defer stop()

	if opts.From == "" {
		opts.From = lang.DefaultSpeaker1
	}
	if opts.To == "" {
		opts.To = lang.DefaultSpeaker2
	}
	c := &checker{out: os.Stdout, in: bufio.NewReader(os.Stdin), record: 3 * time.Second}

	c.printf("vaani doctor - interactive system diagnostics\n")
	c.printf("=============================================\n")

	allPass := true
	tally := func(ok bool) {
		if !ok {
			allPass = false
		}
	}

	c.printf("\n[1/5] Translation (%s → %s)\n", lang.Label(opts.From), lang.Label(opts.To))
	tr, err := translator.New()
	if err != nil {
		c.printf("  FAIL: %v\n", err)
		tally(false)
	} else {
		tally(c.checkTranslation(tr, opts.From, opts.To))
	}

	c.printf("\n[2/5] Microphone\n")
	actx, err := audio.NewContext()
	var device *audio.DeviceInfo
	if err != nil {
		c.printf("  FAIL: cannot connect to audio: %v\n", err)
		tally(false)
	} else {
		defer actx.Close()
		var ok bool
		device, ok = c.checkMicrophone(actx, opts.Device)
		tally(ok)
	}

	c.printf("\n[3/5] Speech recognition (%s)\n", lang.Label(opts.From))
	if device == nil {
		c.printf("  SKIP: no working microphone\n")
	} else {
		tally(c.checkRecognition(transcriber.New(actx, device), opts.From))
	}

	c.printf("\n[4/5] Clipboard\n")
	tally(c.checkClipboard())

	c.printf("\n[5/5] Speech output\n")
	tally(c.checkSpeech(speaker.New(true), opts.To))

	c.printf("\n")
	if allPass {
		c.printf("All checks passed!\n")
		return 0
	}
	c.printf("Some checks failed. See details above.\n")
	return 1
}

func (c *checker) checkTranslation(tr translator.Translator, from, to string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	start := time.Now()
	res, err := tr.Translate(ctx, "Hello, how are you?", from, to)
	if err != nil {
		c.printf("  FAIL: %s: %v\n", tr.Name(), err)
		return false
	}
	elapsed := time.Since(start)
	if res.Metrics != nil && res.Metrics.Total > 0 {
		elapsed = res.Metrics.Total
	}
	c.printf("  %s: %q (%dms)\n", tr.Name(), res.Text, elapsed.Milliseconds())
	c.printf("  PASS: translation round trip\n")
	return true
}

// checkMicrophone records briefly and reports the peak level. It returns
// the device that worked so the recognition check can reuse it.
func (c *checker) checkMicrophone(actx audio.Context, name string) (*audio.DeviceInfo, bool) {
	devices, err := actx.Devices()
	if err != nil {
		c.printf("  FAIL: cannot list devices: %v\n", err)
		return nil, false
	}
	if len(devices) == 0 {
		c.printf("  FAIL: no capture devices found\n")
		return nil, false
	}

	var device *audio.DeviceInfo
	switch {
	case name != "":
		device, err = audio.FindDevice(actx, name)
		if err != nil {
			c.printf("  FAIL: %v\n", err)
			return nil, false
		}
	case len(devices) == 1:
		device = &devices[0]
	default:
		c.printf("Select input device:\n")
		for i, d := range devices {
			c.printf("  %d. %s\n", i+1, d.Name)
		}
		c.printf("Choice [1-%d]: ", len(devices))
		choice, _ := c.in.ReadString('\n')
		idx := 0
		if choice = strings.TrimSpace(choice); choice != "" {
			fmt.Sscanf(choice, "%d", &idx)
			idx--
		}
		if idx < 0 || idx >= len(devices) {
			c.printf("  FAIL: invalid choice\n")
			return nil, false
		}
		device = &devices[idx]
	}
	c.printf("Using device: %s\n", device.Name)

	c.printf("Press Enter and speak for %d seconds...", int(c.record.Seconds()))
	c.in.ReadString('\n')

	peak, err := c.recordPeak(actx, device)
	if err != nil {
		c.printf("  FAIL: recording error: %v\n", err)
		return nil, false
	}
	c.printf("  Peak level: %.3f\n", peak)
	if peak < 0.01 {
		c.printf("  FAIL: microphone is silent (muted or wrong device?)\n")
		return nil, false
	}
	c.printf("  PASS: microphone picks up sound\n")
	return device, true
}

func (c *checker) recordPeak(actx audio.Context, device *audio.DeviceInfo) (float64, error) {
	var peak float64
	var mu sync.Mutex

	capture, err := actx.NewCapture(device, audio.DefaultCaptureConfig())
	if err != nil {
		return 0, err
	}
	capture.SetCallback(func(data []byte, _ uint32) {
		l := audio.Level(data)
		mu.Lock()
		peak = max(peak, l)
		mu.Unlock()
	})
	if err := capture.Start(); err != nil {
		capture.Close()
		return 0, err
	}

	c.printf("  Recording")
	ticker := time.NewTicker(500 * time.Millisecond)
	deadline := time.After(c.record)
loop:
	for {
		select {
		case <-ticker.C:
			c.printf(".")
		case <-deadline:
			break loop
		}
	}
	ticker.Stop()
	capture.ClearCallback()
	capture.Stop()
	capture.Close()
	c.printf(" done\n")

	mu.Lock()
	defer mu.Unlock()
	return peak, nil
}

func (c *checker) checkRecognition(tc transcriber.Transcriber, language string) bool {
	c.printf("Press Enter and say a sentence in %s...", lang.Label(language))
	c.in.ReadString('\n')

	stream, err := tc.Start(context.Background(), language)
	if errors.Is(err, transcriber.ErrUnavailable) {
		c.printf("  SKIP: %v\n", err)
		return true
	}
	if err != nil {
		c.printf("  FAIL: %v\n", err)
		return false
	}

	var text string
	deadline := time.After(c.record + time.Second)
collect:
	for {
		select {
		case u, ok := <-stream.Updates():
			if !ok {
				break collect
			}
			text = u.Text
		case <-deadline:
			stream.Stop()
			// drain what finalize flushed
			for u := range stream.Updates() {
				text = u.Text
			}
			break collect
		}
	}
	if err := stream.Err(); err != nil {
		c.printf("  FAIL: %s: %v\n", tc.Name(), err)
		return false
	}

	text = strings.TrimSpace(text)
	if text == "" {
		text = "(no speech detected)"
	}
	c.printf("\n  Recognized text: %s\n\n", text)
	if c.confirm("Is this correct?") {
		c.printf("  PASS: recognition verified by user\n")
		return true
	}
	c.printf("  FAIL: recognition not confirmed\n")
	return false
}

func (c *checker) checkSpeech(sp speaker.Speaker, language string) bool {
	if _, ok := sp.(speaker.Nop); ok {
		c.printf("  SKIP: set OPENAI_API_KEY to enable spoken playback\n")
		return true
	}
	text := "Hello, how are you?"
	c.printf("  Speaking %q with %s...\n", text, sp.Name())
	sp.Speak(text, language)
	if w, ok := sp.(interface{ Wait() }); ok {
		w.Wait()
	}
	if c.confirm("Did you hear it?") {
		c.printf("  PASS: speech output verified by user\n")
		return true
	}
	c.printf("  FAIL: speech output not confirmed\n")
	return false
}
