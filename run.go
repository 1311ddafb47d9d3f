package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"go-beeper/assets"
	"go-beeper/config"
	"go-beeper/debug"
	"go-beeper/midi"
	"go-beeper/player"
	"go-beeper/sequencer"
	"go-beeper/speaker"
	"go-beeper/theme"
	"go-beeper/tui"
	"go-beeper/wavout"
)

func runPlay(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("play", flag.ExitOnError)
	var common commonFlags
	common.register(fs)
	file := fs.String("file", cfg.MIDI.File, "MIDI file (default: built in tune)")
	keyboard := fs.String("keyboard", "", "MIDI input port to play along on")
	fs.Parse(args)

	if err := common.apply(cfg); err != nil {
		return err
	}

	f, err := loadMIDI(cfg, *file)
	if err != nil {
		return err
	}

	rig := player.NewRig()
	p := rig.NewMIDIPlayer(cfg, f)

	if kb := openKeyboard(cfg, *keyboard); kb != nil {
		defer kb.Close()
		go func() {
			for ev := range kb.Notes() {
				p.HandleNote(ev)
			}
		}()
	}

	return run(cfg, rig, p, common.headless, "go-beeper")
}

func runTone(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("tone", flag.ExitOnError)
	var common commonFlags
	common.register(fs)
	fs.Parse(args)

	if err := common.apply(cfg); err != nil {
		return err
	}

	rig := player.NewRig()
	return run(cfg, rig, rig.NewTonePlayer(cfg), common.headless, "go-beeper tone")
}

func runPCM(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("pcm", flag.ExitOnError)
	var common commonFlags
	common.register(fs)
	file := fs.String("file", cfg.PCM.File, "raw unsigned 8 bit mono samples (default: built in)")
	fs.Parse(args)

	if err := common.apply(cfg); err != nil {
		return err
	}

	data, err := loadPCM(cfg, *file)
	if err != nil {
		return err
	}

	rig := player.NewRig()
	return run(cfg, rig, rig.NewPCMPlayer(cfg, data), common.headless, "go-beeper pcm")
}

func runRender(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	var common commonFlags
	common.register(fs)
	mode := fs.String("mode", string(player.ModeMIDI), "midi, tone or pcm")
	file := fs.String("file", "", "input file (default: built in)")
	duration := fs.Duration("duration", wavout.DefaultMaxDuration, "longest render")
	tail := fs.Duration("tail", 250*time.Millisecond, "silence kept after the end")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return errors.New("render: need exactly one output path")
	}
	if err := common.apply(cfg); err != nil {
		return err
	}

	rig := player.NewRig()
	var p player.Player
	switch player.Mode(*mode) {
	case player.ModeMIDI:
		f, err := loadMIDI(cfg, *file)
		if err != nil {
			return err
		}
		p = rig.NewMIDIPlayer(cfg, f)
	case player.ModeTone:
		p = rig.NewTonePlayer(cfg)
	case player.ModePCM:
		data, err := loadPCM(cfg, *file)
		if err != nil {
			return err
		}
		p = rig.NewPCMPlayer(cfg, data)
	default:
		return fmt.Errorf("render: unknown mode %q", *mode)
	}

	out, err := os.Create(fs.Arg(0))
	if err != nil {
		return err
	}
	defer out.Close()

	res, err := wavout.Render(out, rig, p, wavout.Options{MaxDuration: *duration, Tail: *tail})
	if err != nil {
		return err
	}

	color.Green("wrote %s", fs.Arg(0))
	fmt.Printf("  %v at %d Hz (%d samples)\n", res.Duration.Round(time.Millisecond), res.SampleRate, res.Samples)
	printStats(res.Status)
	return out.Close()
}

// run plays p through the speaker until it finishes or the user quits
func run(cfg *config.Config, rig *player.Rig, p player.Player, headless bool, title string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	sp, err := speaker.Open(speaker.NewSource(rig.PWM, p.Rate(), speaker.OutputRate))
	if err != nil {
		return err
	}
	defer sp.Close()

	p.Start()
	defer p.Stop()
	go rig.RTC.Run(ctx)

	if !headless && !isatty.IsTerminal(os.Stdout.Fd()) {
		debug.Log("player", "stdout is not a terminal, monitor disabled")
		headless = true
	}
	if headless {
		color.Cyan("%s: playing, ctrl+c to stop", title)
		select {
		case <-ctx.Done():
		case <-p.Done():
			// let the device drain
			time.Sleep(200 * time.Millisecond)
		}
		p.Stop()
		printStats(p.Status())
		return nil
	}

	palette, err := theme.LoadOrDefault(cfg.UI.Palette)
	if err != nil {
		return err
	}

	prog := tea.NewProgram(tui.NewModel(p, theme.New(palette), title), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := prog.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	p.Stop()
	printStats(p.Status())
	return nil
}

func printStats(s player.Status) {
	st := s.Stats
	fmt.Printf("  %d buffers, %d refills, slowest refill %v\n", st.Buffers, st.Refills, st.MaxRefill)
	if st.DeadlineMisses > 0 || st.Underruns > 0 {
		color.Yellow("  %d deadline misses, %d underruns", st.DeadlineMisses, st.Underruns)
	}
}

// loadMIDI reads path, or the built in tune when path is empty. A file that
// does not parse, or plays notes beyond the voice table, is fatal.
func loadMIDI(cfg *config.Config, path string) (*midi.File, error) {
	data := assets.Tune
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, err
		}
	}

	f, err := midi.Load(data, min(cfg.MIDI.MaxTracks, sequencer.MaxTracks))
	if err != nil {
		return nil, err
	}
	if err := f.CheckChannels(sequencer.MaxChannels); err != nil {
		return nil, err
	}
	if f.TotalTracks > len(f.Tracks) {
		color.Yellow("playing %d of %d tracks", len(f.Tracks), f.TotalTracks)
	}
	debug.Log("midi", "loaded %d tracks at %d ticks/s", len(f.Tracks), f.TicksPerSecond)
	return f, nil
}

func loadPCM(cfg *config.Config, path string) ([]byte, error) {
	if path == "" {
		cfg.PCM.DataSampleRate = assets.BoingRate
		return assets.Boing, nil
	}
	return os.ReadFile(path)
}

// openKeyboard connects the named port, or the first auto connect keyboard
// in the config. Failures are reported and playback goes on without one.
func openKeyboard(cfg *config.Config, name string) *midi.Keyboard {
	if name == "" {
		auto := cfg.AutoConnectKeyboards()
		if len(auto) == 0 {
			return nil
		}
		name = auto[0].PortName
	}

	kb, err := midi.OpenKeyboard(name)
	if err != nil {
		color.Yellow("keyboard: %v", err)
		return nil
	}
	color.Cyan("keyboard: %s", kb.ID())
	return kb
}
