package audio

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func pickerKeys(m pickerModel, keys ...tea.KeyMsg) (pickerModel, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(k)
		m = next.(pickerModel)
	}
	return m, cmd
}

func TestPickerMovesAndChooses(t *testing.T) {
	m := pickerModel{devices: []DeviceInfo{{ID: "a", Name: "Built-in"}, {ID: "b", Name: "USB headset"}, {ID: "c", Name: "Webcam"}}}
	if v := m.View(); !strings.Contains(v, "▶ Built-in") {
		t.Fatalf("view:\n%s", v)
	}

	m, cmd := pickerKeys(m,
		tea.KeyMsg{Type: tea.KeyDown},
		tea.KeyMsg{Type: tea.KeyDown},
		tea.KeyMsg{Type: tea.KeyDown}, // clamps at the last device
		tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("k")},
		tea.KeyMsg{Type: tea.KeyEnter},
	)
	if m.chosen == nil || m.chosen.ID != "b" {
		t.Fatalf("chosen = %+v", m.chosen)
	}
	if cmd == nil {
		t.Error("enter should quit the picker")
	}
	if m.View() != "" {
		t.Error("view should clear after choosing")
	}
}

func TestPickerCancel(t *testing.T) {
	m := pickerModel{devices: []DeviceInfo{{ID: "a"}, {ID: "b"}}}
	m, _ = pickerKeys(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if !m.cancelled || m.chosen != nil {
		t.Errorf("cancelled = %v, chosen = %+v", m.cancelled, m.chosen)
	}
}

func TestSelectDeviceSingle(t *testing.T) {
	d, err := SelectDevice(NewFakeContextPCM(nil, false))
	if err != nil {
		t.Fatal(err)
	}
	if d.ID != "fake" {
		t.Errorf("ID = %q", d.ID)
	}
}
