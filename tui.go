package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"vaani/lang"
	"vaani/session"
)

// TUI message types
type sessionEventMsg session.Event
type noticeMsg struct {
	Text string
	Err  error
}
type tickMsg time.Time

type tuiModel struct {
	sess          *session.Session
	voice         bool // speech input configured
	focus         session.Slot
	inputs        [2]textinput.Model
	state         session.Snapshot
	notice        string
	noticeErr     bool
	confirmClear  bool
	frame         int
	width, height int
}

var (
	tuiProgram *tea.Program
	tuiMu      sync.Mutex
)

var (
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("231")).Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	helpKeyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Bold(true)
	listenStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	noticeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	speakerStyles = [2]lipgloss.Style{
		lipgloss.NewStyle().Foreground(lipgloss.Color("4")).Bold(true),
		lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Bold(true),
	}
	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1)
	focusedPaneStyle = paneStyle.BorderForeground(lipgloss.Color("63"))
)

func newTUIModel(sess *session.Session, voice bool) tuiModel {
	m := tuiModel{sess: sess, voice: voice, focus: session.Speaker1, state: sess.State()}
	for i := range m.inputs {
		in := textinput.New()
		in.Placeholder = "type here"
		in.Prompt = "> "
		in.CharLimit = 2000
		m.inputs[i] = in
	}
	if voice {
		m.inputs[0].Placeholder = "type or press ctrl+l to speak"
		m.inputs[1].Placeholder = "type or press ctrl+l to speak"
	}
	m.inputs[0].Focus()
	return m
}

func newTUIProgram(sess *session.Session, voice bool) *tea.Program {
	return tea.NewProgram(newTUIModel(sess, voice), tea.WithAltScreen())
}

// tuiSend delivers msg without blocking; session events can fire from
// inside Update, where a direct Send would wait on the loop itself.
func tuiSend(msg tea.Msg) {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()
	if p != nil {
		go p.Send(msg)
	}
}

func tuiTick() tea.Cmd {
	return tea.Tick(120*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, tuiTick())
}

func (m tuiModel) translateCmd(slot session.Slot) tea.Cmd {
	sess := m.sess
	return func() tea.Msg {
		_, err := sess.Translate(context.Background(), slot)
		return noticeMsg{Err: err}
	}
}

func (m tuiModel) listenCmd(slot session.Slot) tea.Cmd {
	sess := m.sess
	return func() tea.Msg {
		return noticeMsg{Err: sess.Listen(context.Background(), slot)}
	}
}

func (m *tuiModel) setNotice(text string, err error) {
	if err != nil {
		m.notice, m.noticeErr = err.Error(), true
		return
	}
	m.notice, m.noticeErr = text, false
}

func (m *tuiModel) switchFocus() {
	m.inputs[m.focus-1].Blur()
	m.focus = m.focus.Other()
	m.inputs[m.focus-1].Focus()
}

// syncInputs copies pending text that changed outside the inputs (speech)
// into them.
func (m *tuiModel) syncInputs() {
	for i, slot := range []session.Slot{session.Speaker1, session.Speaker2} {
		if text := m.state.Slot(slot).PendingText; m.inputs[i].Value() != text {
			m.inputs[i].SetValue(text)
			m.inputs[i].CursorEnd()
		}
	}
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		m.frame++
		return m, tuiTick()

	case sessionEventMsg:
		m.state = m.sess.State()
		m.syncInputs()
		if msg.Kind == session.EventListenStopped && msg.Err != nil {
			m.setNotice("", msg.Err)
		}

	case noticeMsg:
		m.state = m.sess.State()
		if msg.Err != nil || msg.Text != "" {
			m.setNotice(msg.Text, msg.Err)
		}
	}
	return m, nil
}

func (m tuiModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m, tea.Quit
	}

	if m.confirmClear {
		m.confirmClear = false
		if key == "y" || key == "Y" {
			err := m.sess.ClearTranscript()
			m.state = m.sess.State()
			m.setNotice("Conversation cleared", err)
		} else {
			m.setNotice("Clear cancelled", nil)
		}
		return m, nil
	}

	switch key {
	case "tab", "shift+tab":
		m.switchFocus()
		return m, nil
	case "enter":
		m.setNotice("", nil)
		return m, m.translateCmd(m.focus)
	case "ctrl+s":
		m.sess.SwapLanguages()
		m.state = m.sess.State()
		m.setNotice(fmt.Sprintf("Speaker 1 speaks %s, Speaker 2 speaks %s",
			lang.Label(m.state.Speaker1.Language), lang.Label(m.state.Speaker2.Language)), nil)
		return m, nil
	case "ctrl+n", "ctrl+p":
		current := m.state.Slot(m.focus).Language
		next := lang.Next(current)
		if key == "ctrl+p" {
			next = lang.Prev(current)
		}
		err := m.sess.SetLanguage(m.focus, next)
		m.state = m.sess.State()
		m.setNotice(fmt.Sprintf("%s speaks %s", m.focus.Label(), lang.Label(next)), err)
		return m, nil
	case "ctrl+l":
		return m, m.listenCmd(m.focus)
	case "ctrl+y":
		_, err := m.sess.CopyToClipboard()
		m.setNotice("Copied conversation to clipboard", err)
		return m, nil
	case "ctrl+x":
		if len(m.state.Transcript) == 0 {
			m.setNotice("", session.ErrNothingToClear)
			return m, nil
		}
		m.confirmClear = true
		m.setNotice("Clear the whole conversation? [y/n]", nil)
		return m, nil
	case "ctrl+r":
		n := len(m.state.Transcript)
		if n == 0 {
			m.setNotice("", errors.New("nothing to speak yet"))
			return m, nil
		}
		m.setNotice("", m.sess.SpeakEntry(n-1))
		return m, nil
	}

	i := m.focus - 1
	var cmd tea.Cmd
	m.inputs[i], cmd = m.inputs[i].Update(msg)
	if v := m.inputs[i].Value(); v != m.state.Slot(m.focus).PendingText {
		m.sess.SetPendingText(m.focus, v)
		m.state = m.sess.State()
	}
	return m, cmd
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	paneWidth := max((m.width-4)/2, 20)
	var panes [2]string
	for i, slot := range []session.Slot{session.Speaker1, session.Speaker2} {
		panes[i] = m.renderPane(slot, paneWidth)
	}
	top := lipgloss.JoinHorizontal(lipgloss.Top, panes[0], " ", panes[1])

	var status string
	switch {
	case m.state.TranslationInFlight:
		dots := strings.Repeat(".", m.frame%4)
		status = dimStyle.Render("translating" + dots)
	case m.notice != "" && m.noticeErr:
		status = errorStyle.Render("⚠ " + m.notice)
	case m.notice != "":
		status = noticeStyle.Render(m.notice)
	}

	help := m.renderHelp()
	title := titleStyle.Render("vaani") + dimStyle.Render(" "+version)

	used := lipgloss.Height(title) + lipgloss.Height(top) + 4 + lipgloss.Height(help)
	conversation := m.renderTranscript(m.width-2, max(m.height-used, 3))

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		top,
		dimStyle.Render("Conversation"),
		conversation,
		status,
		help,
	)
}

func (m tuiModel) renderPane(slot session.Slot, width int) string {
	i := slot - 1
	header := speakerStyles[i].Render(slot.Label()) +
		dimStyle.Render(" · "+lang.Label(m.state.Slot(slot).Language))
	if m.state.ActiveListening == slot {
		dot := "●"
		if m.frame%8 >= 4 {
			dot = "○"
		}
		header += " " + listenStyle.Render(dot+" listening")
	}
	in := m.inputs[i]
	in.Width = width - 6
	style := paneStyle
	if m.focus == slot {
		style = focusedPaneStyle
	}
	return style.Width(width).Render(header + "\n" + in.View())
}

func (m tuiModel) renderTranscript(width, height int) string {
	if len(m.state.Transcript) == 0 {
		return dimStyle.Render("  No translations yet")
	}
	var lines []string
	for _, e := range m.state.Transcript {
		label := speakerStyles[e.Speaker-1].Render(e.Speaker.Label() + ":")
		wrapped := wrapText(e.Text, max(width-12, 10))
		for j, w := range wrapped {
			if j == 0 {
				lines = append(lines, "  "+label+" "+w)
			} else {
				lines = append(lines, "             "+w)
			}
		}
	}
	// newest at the bottom; older lines scroll off the top
	if len(lines) > height {
		lines = lines[len(lines)-height:]
	}
	return strings.Join(lines, "\n")
}

func (m tuiModel) renderHelp() string {
	pair := func(k, v string) string { return helpKeyStyle.Render(k) + helpStyle.Render(" "+v) }
	items := []string{
		pair("tab", "speaker"),
		pair("enter", "translate"),
		pair("ctrl+s", "swap"),
		pair("ctrl+n/p", "language"),
	}
	if m.voice {
		items = append(items, pair("ctrl+l", "listen"))
	}
	items = append(items,
		pair("ctrl+r", "speak"),
		pair("ctrl+y", "copy"),
		pair("ctrl+x", "clear"),
		pair("ctrl+c", "quit"),
	)
	return strings.Join(items, helpStyle.Render("  "))
}

// wrapText breaks text at spaces so no line exceeds width runes.
func wrapText(text string, width int) []string {
	if len(text) == 0 {
		return []string{""}
	}
	if width <= 0 {
		width = 1
	}

	var lines []string
	runes := []rune(text)
	for len(runes) > width {
		// Find last space within width
		splitAt := width
		for i := width; i > 0; i-- {
			if runes[i] == ' ' {
				splitAt = i
				break
			}
		}
		lines = append(lines, string(runes[:splitAt]))
		runes = []rune(strings.TrimLeft(string(runes[splitAt:]), " "))
	}
	if len(runes) > 0 {
		lines = append(lines, string(runes))
	}
	return lines
}
