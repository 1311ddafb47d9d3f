package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-beeper/hw"
	"go-beeper/player"
	"go-beeper/synth"
	"go-beeper/theme"
	"go-beeper/widgets"
)

// RefreshInterval is how often the monitor samples the player
const RefreshInterval = 50 * time.Millisecond

type Model struct {
	Player   player.Player
	Theme    *theme.Theme
	Title    string
	status   player.Status
	done     bool
	quitting bool
	width    int
}

type RefreshMsg time.Time

type DoneMsg struct{}

func NewModel(p player.Player, th *theme.Theme, title string) Model {
	return Model{
		Player: p,
		Theme:  th,
		Title:  title,
		status: p.Status(),
		width:  80,
	}
}

func Refresh() tea.Cmd {
	return tea.Tick(RefreshInterval, func(t time.Time) tea.Msg {
		return RefreshMsg(t)
	})
}

func ListenForDone(p player.Player) tea.Cmd {
	return func() tea.Msg {
		<-p.Done()
		return DoneMsg{}
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		Refresh(),
		ListenForDone(m.Player),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			m.Player.Stop()
			return m, tea.Quit

		case "up", "k", "a":
			m.Player.HandleButton(hw.ButtonA)

		case "down", "j", "b":
			m.Player.HandleButton(hw.ButtonB)

		case "w":
			m.Player.SetWaveform(m.status.Waveform.Next())

		case "1", "2", "3":
			idx := int(msg.String()[0] - '1')
			m.Player.SetWaveform(synth.Waveforms[idx])
		}
		m.status = m.Player.Status()

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case RefreshMsg:
		m.status = m.Player.Status()
		return m, Refresh()

	case DoneMsg:
		m.done = true
		m.status = m.Player.Status()
	}

	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	s := m.status

	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	warnStyle := lipgloss.NewStyle().Foreground(m.Theme.Warning())

	state := "PLAY"
	if m.done || s.Finished {
		state = "DONE"
	}

	var header string
	switch s.Mode {
	case player.ModeMIDI:
		header = fmt.Sprintf("%s  %s  %-8s tick:%06d  %.1f ticks/s  tracks %d/%d",
			m.Title, state, s.Waveform, s.Tick, s.TickRate, s.ActiveTracks, s.Tracks)
	case player.ModeTone:
		header = fmt.Sprintf("%s  %s  %-8s key %d", m.Title, state, s.Waveform, s.Key)
	case player.ModePCM:
		header = fmt.Sprintf("%s  %s  sample %d/%d", m.Title, state, s.Position, s.Length)
	}

	barWidth := max(m.width-24, 8)

	var body string
	switch s.Mode {
	case player.ModeMIDI:
		body = widgets.RenderVoices(m.Theme, s.Voices, barWidth)
	case player.ModeTone:
		body = widgets.RenderBar(m.Theme, float64(s.Key)/127, barWidth)
	case player.ModePCM:
		norm := 0.0
		if s.Length > 0 {
			norm = float64(s.Position) / float64(s.Length)
		}
		body = widgets.RenderBar(m.Theme, norm, barWidth)
	}

	stats := widgets.RenderStats(s.Stats)
	if s.Stats.DeadlineMisses > 0 || s.Stats.Underruns > 0 {
		stats = warnStyle.Render(stats)
	} else {
		stats = dimStyle.Render(stats)
	}

	help := dimStyle.Render("a/up b/down:buttons  w:waveform  1-3:sine/square/triangle  q:quit")

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(headerStyle.Render(header))
	out.WriteString("\n\n")
	out.WriteString(body)
	out.WriteString("\n\n")
	out.WriteString(widgets.RenderBuffers(m.Theme, s.Buffers))
	out.WriteString("\n")
	out.WriteString(stats)
	out.WriteString("\n\n")
	out.WriteString(help)

	return out.String()
}
