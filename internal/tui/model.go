// Package tui is the terminal visual layer: a step grid lit by sync pulses
// and keyboard control of the sequencer.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/satindergrewal/groove/internal/dispatch"
	"github.com/satindergrewal/groove/internal/groove"
	"github.com/satindergrewal/groove/internal/playback"
)

const tempoStep = 5

var tips = []string{
	"Clap on the bright circles!",
	"Step right on 1 & 3, left on 2 & 4.",
	"Keep your shoulders relaxed.",
	"Small hops on the accented beats.",
	"Smile and enjoy the groove!",
}

// Sequencer is the control surface the model drives.
type Sequencer interface {
	Start() error
	Stop()
	SetTempo(bpm float64) int
	SetGroove(name string) error
	State() playback.Snapshot
}

// PulseMsg carries a sync pulse into the program.
type PulseMsg dispatch.Pulse

// StoppedMsg reports that playback ended without a Stop request.
type StoppedMsg struct {
	Err error
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("213"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	tipStyle    = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("229"))

	cellStyle   = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("245"))
	beatStyle   = cellStyle.Foreground(lipgloss.Color("252"))
	litStyle    = cellStyle.Background(lipgloss.Color("39")).Foreground(lipgloss.Color("0"))
	accentStyle = cellStyle.Background(lipgloss.Color("208")).Foreground(lipgloss.Color("0")).Bold(true)
)

type Model struct {
	seq      Sequencer
	pulse    dispatch.Pulse
	lit      bool
	err      error
	quitting bool
}

func NewModel(seq Sequencer) Model {
	return Model{seq: seq}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			m.seq.Stop()
			return m, tea.Quit

		case " ":
			if m.seq.State().IsPlaying {
				m.seq.Stop()
				m.lit = false
			} else {
				m.err = m.seq.Start()
			}

		case "+", "=":
			m.seq.SetTempo(float64(m.seq.State().BPM + tempoStep))

		case "-", "_":
			m.seq.SetTempo(float64(m.seq.State().BPM - tempoStep))

		case "1", "2", "3":
			names := groove.Names()
			idx := int(msg.String()[0] - '1')
			if idx < len(names) {
				m.err = m.seq.SetGroove(string(names[idx]))
			}
		}

	case PulseMsg:
		m.pulse = dispatch.Pulse(msg)
		m.lit = true

	case StoppedMsg:
		m.err = msg.Err
		m.lit = false
	}

	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	s := m.seq.State()
	playState := "STOP"
	if s.IsPlaying {
		playState = "PLAY"
	}
	header := headerStyle.Render(fmt.Sprintf("groove  %s  %3dbpm  %s", playState, s.BPM, s.Groove))

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")
	out.WriteString(m.grid())
	out.WriteString("\n\n")
	if g, err := groove.Lookup(s.Groove); err == nil {
		out.WriteString(dimStyle.Render(g.String()))
		out.WriteString("\n")
	}
	if m.lit {
		out.WriteString(tipStyle.Render(tips[(m.pulse.Step/4)%len(tips)]))
		out.WriteString("\n")
	}
	if m.err != nil {
		out.WriteString(errStyle.Render("error: " + m.err.Error()))
		out.WriteString("\n")
	}
	out.WriteString("\n")
	out.WriteString(dimStyle.Render("space:play/stop  +/-:tempo  1-3:groove  q:quit"))
	return out.String()
}

// grid renders one cell per step; the pulsed step is lit, orange on accent.
func (m Model) grid() string {
	cells := make([]string, groove.Steps)
	for i := range cells {
		label := fmt.Sprintf("%2d", i+1)
		switch {
		case m.lit && i == m.pulse.Step && m.pulse.Accent:
			cells[i] = accentStyle.Render(label)
		case m.lit && i == m.pulse.Step:
			cells[i] = litStyle.Render(label)
		case i%4 == 0:
			cells[i] = beatStyle.Render(label)
		default:
			cells[i] = cellStyle.Render(label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}
