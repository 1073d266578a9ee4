package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"vaani/lang"
	"vaani/log"
	"vaani/session"
)

// command is one parsed stdin line of the headless mode.
type command struct {
	name  string
	slot  session.Slot
	arg   string
	index int
}

func parseSlot(s string) (session.Slot, error) {
	switch s {
	case "1":
		return session.Speaker1, nil
	case "2":
		return session.Speaker2, nil
	}
	return session.NoSlot, fmt.Errorf("speaker must be 1 or 2, got %q", s)
}

func parseCommand(line string) (command, error) {
	line = strings.TrimSpace(line)
	name, rest, _ := strings.Cut(line, " ")
	name = strings.ToLower(name)
	c := command{name: name}

	switch name {
	case "swap", "copy", "clear", "show", "langs", "quit", "wait", "transcript":
		return c, nil
	case "translate", "listen":
		slot, err := parseSlot(strings.TrimSpace(rest))
		c.slot = slot
		return c, err
	case "text":
		// text after "text N " is kept verbatim, spaces included
		n, text, _ := strings.Cut(rest, " ")
		slot, err := parseSlot(n)
		c.slot, c.arg = slot, text
		return c, err
	case "lang":
		fields := strings.Fields(rest)
		if len(fields) != 2 {
			return c, errors.New("usage: lang <1|2> <code>")
		}
		slot, err := parseSlot(fields[0])
		c.slot, c.arg = slot, fields[1]
		return c, err
	case "speak", "sleep":
		n, err := strconv.Atoi(strings.TrimSpace(rest))
		if err != nil {
			return c, fmt.Errorf("usage: %s <number>", name)
		}
		c.index = n
		return c, nil
	case "":
		return c, errors.New("empty command")
	}
	return c, fmt.Errorf("unknown command %q", name)
}

// commander drives a session from line-oriented input, one command per
// line, printing results and session notices to out.
type commander struct {
	sess *session.Session

	outMu sync.Mutex
	out   io.Writer

	listenDone chan struct{}
}

func newCommander(sess *session.Session, out io.Writer) *commander {
	return &commander{sess: sess, out: out, listenDone: make(chan struct{}, 1)}
}

func (c *commander) printf(format string, args ...any) {
	c.outMu.Lock()
	fmt.Fprintf(c.out, format, args...)
	c.outMu.Unlock()
}

func (c *commander) onEvent(ev session.Event) {
	switch ev.Kind {
	case session.EventPendingText:
		st := c.sess.State()
		if st.ActiveListening == ev.Slot {
			c.printf("%s (heard): %s\n", ev.Slot, st.Slot(ev.Slot).PendingText)
		}
	case session.EventListenStopped:
		if ev.Err != nil {
			c.printf("error: %v\n", ev.Err)
		}
		c.printf("%s stopped listening\n", ev.Slot)
		select {
		case c.listenDone <- struct{}{}:
		default:
		}
	}
}

func (c *commander) run(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		cmd, err := parseCommand(line)
		if err != nil {
			c.printf("error: %v\n", err)
			continue
		}
		if cmd.name == "quit" {
			return nil
		}
		if err := c.exec(ctx, cmd); err != nil {
			log.Warnf("command %q: %v", cmd.name, err)
			c.printf("error: %v\n", err)
		}
	}
	return scanner.Err()
}

func (c *commander) exec(ctx context.Context, cmd command) error {
	s := c.sess
	switch cmd.name {
	case "text":
		return s.SetPendingText(cmd.slot, cmd.arg)
	case "translate":
		e, err := s.Translate(ctx, cmd.slot)
		if err != nil {
			return err
		}
		c.printf("%s: %s\n", e.Speaker, e.Text)
	case "swap":
		s.SwapLanguages()
		st := s.State()
		c.printf("Speaker1 speaks %s, Speaker2 speaks %s\n", lang.Label(st.Speaker1.Language), lang.Label(st.Speaker2.Language))
	case "lang":
		if err := s.SetLanguage(cmd.slot, cmd.arg); err != nil {
			return err
		}
		c.printf("%s speaks %s\n", cmd.slot, lang.Label(cmd.arg))
	case "listen":
		if err := s.Listen(ctx, cmd.slot); err != nil {
			return err
		}
		if s.State().ActiveListening == cmd.slot {
			c.printf("%s listening in %s\n", cmd.slot, lang.Label(s.State().Slot(cmd.slot).Language))
		}
	case "wait":
		for s.State().ActiveListening != session.NoSlot {
			select {
			case <-c.listenDone:
			case <-time.After(50 * time.Millisecond):
			}
		}
	case "sleep":
		time.Sleep(time.Duration(cmd.index) * time.Millisecond)
	case "speak":
		return s.SpeakEntry(cmd.index)
	case "copy":
		if _, err := s.CopyToClipboard(); err != nil {
			return err
		}
		c.printf("Copied conversation to clipboard\n")
	case "transcript":
		text, err := s.CopyTranscript()
		if err != nil {
			return err
		}
		c.printf("%s\n", text)
	case "clear":
		if err := s.ClearTranscript(); err != nil {
			return err
		}
		c.printf("Conversation cleared\n")
	case "show":
		c.printf("%s", renderState(s.State()))
	case "langs":
		for _, l := range lang.List() {
			c.printf("%s\t%s\n", l.Code, l.Label)
		}
	}
	return nil
}

func renderState(st session.Snapshot) string {
	var b strings.Builder
	for _, slot := range []session.Slot{session.Speaker1, session.Speaker2} {
		ss := st.Slot(slot)
		marker := ""
		if st.ActiveListening == slot {
			marker = " (listening)"
		}
		fmt.Fprintf(&b, "%s [%s]%s: %q\n", slot, ss.Language, marker, ss.PendingText)
	}
	if st.TranslationInFlight {
		b.WriteString("translating...\n")
	}
	for i, e := range st.Transcript {
		fmt.Fprintf(&b, "%d. %s: %s\n", i, e.Speaker, e.Text)
	}
	return b.String()
}
