package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/term"

	"vaani/audio"
	"vaani/beep"
	"vaani/clipboard"
	"vaani/doctor"
	"vaani/lang"
	"vaani/log"
	"vaani/session"
	"vaani/shutdown"
	"vaani/speaker"
	"vaani/transcriber"
	"vaani/translator"
)

var version = "dev"

type options struct {
	lang1, lang2 string
	device       string
	setup        bool
	logPath      string
	tui          bool
	test         bool
	wav          string
	noSpeech     bool
	version      bool
	doctor       bool
}

// parseFlags parses args into options and checks the language pair.
func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("vaani", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.lang1, "lang1", lang.DefaultSpeaker1, "Speaker 1 language code")
	fs.StringVar(&o.lang2, "lang2", lang.DefaultSpeaker2, "Speaker 2 language code")
	fs.StringVar(&o.device, "device", "", "Use named microphone device")
	fs.BoolVar(&o.setup, "setup", false, "Select microphone device (otherwise uses system default)")
	fs.StringVar(&o.logPath, "logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	fs.BoolVar(&o.tui, "tui", true, "Run with terminal UI")
	fs.BoolVar(&o.test, "test", false, "Test mode (headless, stdin-driven)")
	fs.StringVar(&o.wav, "wav", "", "WAV file used as the microphone in -test mode")
	fs.BoolVar(&o.noSpeech, "nospeech", false, "Disable spoken playback of translations")
	fs.BoolVar(&o.version, "version", false, "Print version and exit")
	fs.BoolVar(&o.doctor, "doctor", false, "Run system diagnostics and exit")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.version || o.doctor {
		return o, nil
	}

	for _, code := range []string{o.lang1, o.lang2} {
		if !lang.IsSupported(code) {
			return o, fmt.Errorf("unknown language %q (choose from %s)", code, languageCodes())
		}
	}
	if o.lang1 == o.lang2 {
		return o, fmt.Errorf("-lang1 and -lang2 are both %q; the speakers need different languages", o.lang1)
	}
	if o.wav != "" && !o.test {
		return o, errors.New("-wav only applies to -test mode")
	}
	return o, nil
}

func languageCodes() string {
	var s string
	for i, l := range lang.List() {
		if i > 0 {
			s += ", "
		}
		s += l.Code
	}
	return s
}

var (
	activeSession *session.Session
	shutdownOnce  sync.Once
)

func gracefulShutdown() {
	shutdownOnce.Do(func() {
		if activeSession != nil {
			activeSession.Close()
		}
		log.Close()
		tuiMu.Lock()
		p := tuiProgram
		tuiMu.Unlock()
		if p != nil {
			p.Quit()
		}
		os.Exit(0)
	})
}

// cue plays the feedback sound for a session event.
func cue(ev session.Event) {
	switch ev.Kind {
	case session.EventListenStarted:
		beep.PlayStart()
	case session.EventListenStopped:
		if ev.Err != nil {
			beep.PlayError()
		} else {
			beep.PlayEnd()
		}
	case session.EventTranslationDone:
		if ev.Err != nil {
			beep.PlayError()
		}
	}
}

func initCrashLog() {
	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
	debug.SetCrashOutput(crashFile, debug.CrashOptions{})
}

// openAudio returns the capture context and device used for speech input.
// Failures leave recognition unavailable rather than stopping the program.
func openAudio(o options) (audio.Context, *audio.DeviceInfo) {
	if o.test {
		if o.wav == "" {
			return nil, nil
		}
		ctx, err := audio.NewFakeContext(o.wav, true)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading WAV: %v\n", err)
			os.Exit(1)
		}
		return ctx, nil
	}

	ctx, err := audio.NewContext()
	if err != nil {
		log.Warnf("audio context init error: %v", err)
		fmt.Fprintf(os.Stderr, "Warning: no audio input (%v); voice input disabled\n", err)
		return nil, nil
	}

	var device *audio.DeviceInfo
	switch {
	case o.device != "":
		device, err = audio.FindDevice(ctx, o.device)
		if err != nil {
			log.Warnf("device lookup failed: %v", err)
			fmt.Printf("Warning: %v\n", err)
			fmt.Println("Falling back to default device")
		}
	case o.setup:
		device, err = audio.SelectDevice(ctx)
		if err != nil {
			log.Warnf("device selection failed: %v", err)
			fmt.Printf("Warning: device selection failed: %v\n", err)
			fmt.Println("Falling back to default device")
		}
	}
	if device != nil {
		log.Info("recording_device: " + device.Name)
	}
	return ctx, device
}

func run() int {
	_ = godotenv.Load()

	o, err := parseFlags(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	if o.version {
		fmt.Printf("vaani %s\n", version)
		return 0
	}

	logPath, err := log.ResolveDir(o.logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		return 1
	}
	log.SetDir(logPath)
	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}
	initCrashLog()

	if o.doctor {
		return doctor.Run(doctor.Options{Device: o.device, From: o.lang1, To: o.lang2})
	}

	if err := log.Init(uuid.NewString()); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	defer log.Close()

	tr, err := translator.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if w, ok := tr.(interface{ Warm() }); ok && !o.test {
		go w.Warm()
	}

	if o.test {
		beep.Disable()
	}
	actx, device := openAudio(o)
	if actx != nil {
		defer actx.Close()
	}
	var tc transcriber.Transcriber
	if actx != nil {
		tc = transcriber.New(actx, device)
	} else {
		tc = transcriber.Unavailable{Reason: "no audio input available"}
	}
	sp := speaker.New(!o.noSpeech && !o.test)

	// forward is set once below, before any operation can emit an event.
	var forward func(session.Event)
	sess, err := session.New(session.Config{
		Translator:  tr,
		Transcriber: tc,
		Speaker:     sp,
		Clipboard:   clipboard.Writer{},
		Lang1:       o.lang1,
		Lang2:       o.lang2,
		Observer: func(ev session.Event) {
			cue(ev)
			if forward != nil {
				forward(ev)
			}
		},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	activeSession = sess
	log.SessionStart(tr.Name(), tc.Name(), sp.Name(), o.lang1, o.lang2)

	stopSignals := shutdown.OnSignal(gracefulShutdown)
	defer stopSignals()

	if o.test || !o.tui || !term.IsTerminal(int(os.Stdout.Fd())) {
		cm := newCommander(sess, os.Stdout)
		forward = cm.onEvent
		err := cm.run(context.Background(), os.Stdin)
		sess.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	tuiMu.Lock()
	tuiProgram = newTUIProgram(sess, tc.Name() != "none")
	tuiMu.Unlock()
	forward = func(ev session.Event) { tuiSend(sessionEventMsg(ev)) }

	if _, err := tuiProgram.Run(); err != nil {
		log.Errorf("TUI error: %v", err)
		sess.Close()
		return 1
	}
	sess.Close()
	return 0
}

func main() {
	os.Exit(run())
}
