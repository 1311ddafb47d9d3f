package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"go-beeper/midi"
	"go-beeper/pwm"
	"go-beeper/sequencer"
	"go-beeper/theme"
)

// RenderPad renders a single colored block
func RenderPad(color theme.RGB, symbol rune) string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(rgbToHex(color)))
	return style.Render(string(symbol))
}

// RenderVoices renders one line per voice channel: the key, its name and a
// bar whose length and color follow the pitch
func RenderVoices(th *theme.Theme, slots [sequencer.MaxChannels]sequencer.Slot, width int) string {
	var lines []string
	for ch, s := range slots {
		if !s.Active {
			lines = append(lines, fmt.Sprintf("ch%d %s %s", ch, RenderPad(th.RGB(0.2), th.Symbols.VoiceOff), strings.Repeat(" ", 8)))
			continue
		}
		norm := float64(s.Key) / 127
		lines = append(lines, fmt.Sprintf("ch%d %s %3d %-4s %s",
			ch, RenderPad(th.RGB(norm), th.Symbols.VoiceOn), s.Key, midi.NoteName(s.Key), RenderBar(th, norm, width)))
	}
	return strings.Join(lines, "\n")
}

// RenderBar renders a meter filled to norm (0-1)
func RenderBar(th *theme.Theme, norm float64, width int) string {
	norm = min(max(norm, 0), 1)
	filled := int(norm*float64(width) + 0.5)

	var out strings.Builder
	for i := 0; i < width; i++ {
		if i < filled {
			out.WriteString(RenderPad(th.RGB(float64(i)/float64(width)), th.Symbols.Bar))
		} else {
			out.WriteString(RenderPad(th.RGB(0.1), th.Symbols.Empty))
		}
	}
	return out.String()
}

// RenderBuffers shows who owns each of the two sample buffers
func RenderBuffers(th *theme.Theme, states [2]pwm.State) string {
	var parts []string
	for slot, s := range states {
		var sym rune
		var norm float64
		switch s {
		case pwm.Filling:
			sym, norm = th.Symbols.Filling, theme.RoleWarning
		case pwm.Ready:
			sym, norm = th.Symbols.Ready, theme.RoleMuted
		case pwm.Streaming:
			sym, norm = th.Symbols.Streaming, theme.RoleSuccess
		}
		parts = append(parts, fmt.Sprintf("buf%d %s %-9s", slot, RenderPad(th.RGB(norm), sym), s))
	}
	return strings.Join(parts, "  ")
}

// RenderStats formats the pipeline counters on one line
func RenderStats(stats pwm.Stats) string {
	return fmt.Sprintf("buffers %d  refills %d  max refill %v  misses %d  underruns %d",
		stats.Buffers, stats.Refills, stats.MaxRefill, stats.DeadlineMisses, stats.Underruns)
}

// RenderKeyHelp formats key bindings in a friendly way
func RenderKeyHelp(sections []KeySection) string {
	var lines []string
	for _, sec := range sections {
		if sec.Title != "" {
			lines = append(lines, sec.Title)
		}
		for _, k := range sec.Keys {
			lines = append(lines, fmt.Sprintf("  %-12s %s", k.Key, k.Desc))
		}
	}
	return strings.Join(lines, "\n")
}

// KeySection groups related key bindings
type KeySection struct {
	Title string
	Keys  []KeyBinding
}

// KeyBinding is a single key and its description
type KeyBinding struct {
	Key  string
	Desc string
}

func rgbToHex(c theme.RGB) string {
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}
