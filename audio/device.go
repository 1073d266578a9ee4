package audio

import (
	"errors"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var errPickerCancelled = errors.New("device selection cancelled")

var (
	pickerTitle    = lipgloss.NewStyle().Bold(true)
	pickerSelected = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
)

// pickerModel lists capture devices and lets the user choose one.
type pickerModel struct {
	devices   []DeviceInfo
	cursor    int
	chosen    *DeviceInfo
	cancelled bool
}

func (m pickerModel) Init() tea.Cmd { return nil }

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "enter":
		m.chosen = &m.devices[m.cursor]
		return m, tea.Quit
	case "ctrl+c", "q", "esc":
		m.cancelled = true
		return m, tea.Quit
	case "down", "j":
		if m.cursor < len(m.devices)-1 {
			m.cursor++
		}
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	}
	return m, nil
}

func (m pickerModel) View() string {
	if m.chosen != nil || m.cancelled {
		return ""
	}
	var b strings.Builder
	b.WriteString(pickerTitle.Render("Select microphone (↑/↓, Enter to confirm):"))
	b.WriteString("\n\n")
	for i, d := range m.devices {
		if i == m.cursor {
			b.WriteString(pickerSelected.Render("  ▶ "+d.Name) + "\n")
		} else {
			b.WriteString("    " + d.Name + "\n")
		}
	}
	return b.String()
}

// SelectDevice asks on the terminal which capture device to use. A single
// device is returned without prompting.
func SelectDevice(ctx Context) (*DeviceInfo, error) {
	devices, err := ctx.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerating devices: %w", err)
	}
	if len(devices) == 0 {
		return nil, errors.New("no capture devices found")
	}
	if len(devices) == 1 {
		return &devices[0], nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, errors.New("device selection needs an interactive terminal")
	}

	final, err := tea.NewProgram(pickerModel{devices: devices}).Run()
	if err != nil {
		return nil, fmt.Errorf("device picker: %w", err)
	}
	m := final.(pickerModel)
	if m.chosen == nil {
		return nil, errPickerCancelled
	}
	return m.chosen, nil
}
