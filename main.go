package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"

	"go-beeper/config"
	"go-beeper/debug"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fatal(err)
	}

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "play":
		err = runPlay(cfg, args)
	case "tone":
		err = runTone(cfg, args)
	case "pcm":
		err = runPCM(cfg, args)
	case "render":
		err = runRender(cfg, args)
	case "config":
		err = runConfig(cfg)
	case "help", "-h", "--help":
		usage()
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		fatal(err)
	}
}

func usage() {
	fmt.Println("go-beeper - PWM speaker synthesizer")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  play   [-file f.mid] [-headless] [-keyboard name]   play a MIDI file")
	fmt.Println("  tone   [-headless]                                  hold a tone, a/b to move it")
	fmt.Println("  pcm    [-file f.u8] [-headless]                     loop raw 8 bit samples")
	fmt.Println("  render [-mode midi|tone|pcm] [-file f] out.wav      render to a WAV file")
	fmt.Println("  config                                              write the default config")
}

func fatal(err error) {
	color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "error: ")
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

// commonFlags are shared by every playback command
type commonFlags struct {
	debug    bool
	headless bool
	waveform string
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.BoolVar(&c.debug, "debug", false, "write ~/.config/go-beeper/debug.log")
	fs.BoolVar(&c.headless, "headless", false, "play without the monitor")
	fs.StringVar(&c.waveform, "waveform", "", "sine, square or triangle")
}

// apply folds the flags into cfg and validates the result
func (c *commonFlags) apply(cfg *config.Config) error {
	if c.debug {
		if err := debug.Enable(); err != nil {
			return fmt.Errorf("enable debug log: %w", err)
		}
	}
	if c.waveform != "" {
		cfg.Audio.Waveform = c.waveform
		cfg.Tone.Waveform = c.waveform
	}
	return cfg.Validate()
}

func runConfig(cfg *config.Config) error {
	path, err := config.ConfigPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		color.Yellow("%s already exists", path)
		return nil
	}
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	color.Green("wrote %s", path)
	return nil
}
