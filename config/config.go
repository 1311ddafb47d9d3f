package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go-beeper/synth"
)

// ErrInvalid is wrapped by every error Validate returns
var ErrInvalid = errors.New("invalid config")

// BaseClock is the pulse generator input clock before its prescaler
const BaseClock = 16_000_000

// Counter tops the pulse generator accepts
const (
	MinCounterTop = 3
	MaxCounterTop = 32767
)

// AudioConfig drives MIDI playback
type AudioConfig struct {
	SampleRate   int    `json:"sampleRate"`
	BufferSize   int    `json:"bufferSize"`
	PWMPrescaler int    `json:"pwmPrescaler"` // clock is BaseClock >> prescaler
	Waveform     string `json:"waveform"`
	Volume       int    `json:"volume"`    // 0..127
	Polyphony    string `json:"polyphony"` // "highest" or "mix"
}

// MIDIConfig selects and times the sequence
type MIDIConfig struct {
	TicksPerSecond int    `json:"ticksPerSecond,omitempty"` // 0 uses the file's division
	MaxTracks      int    `json:"maxTracks"`
	File           string `json:"file,omitempty"` // empty plays the embedded tune
}

// ToneConfig is the single note generator
type ToneConfig struct {
	SampleRate int    `json:"sampleRate"`
	BufferSize int    `json:"bufferSize"`
	StartKey   int    `json:"startKey"`
	Volume     int    `json:"volume"`
	Waveform   string `json:"waveform"`
}

// PCMConfig is the raw sample player
type PCMConfig struct {
	DataSampleRate   int     `json:"dataSampleRate"`
	TargetSampleRate int     `json:"targetSampleRate"`
	Refresh          int     `json:"refresh"` // extra periods each sample is held for
	Gain             float64 `json:"gain"`
	BufferSize       int     `json:"bufferSize"`
	File             string  `json:"file,omitempty"`
}

// KeyboardConfig is a saved MIDI input
type KeyboardConfig struct {
	PortName    string `json:"portName"`
	AutoConnect bool   `json:"autoConnect"`
}

// UIConfig stores UI preferences
type UIConfig struct {
	Palette string `json:"palette,omitempty"` // .gpl file, empty for the built in palette
}

// Config is the main configuration structure
type Config struct {
	Audio     AudioConfig      `json:"audio"`
	MIDI      MIDIConfig       `json:"midi"`
	Tone      ToneConfig       `json:"tone"`
	PCM       PCMConfig        `json:"pcm"`
	Keyboards []KeyboardConfig `json:"keyboards,omitempty"`
	UI        UIConfig         `json:"ui,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Audio: AudioConfig{
			SampleRate: 16387,
			BufferSize: 16,
			Waveform:   "square",
			Volume:     127,
			Polyphony:  "highest",
		},
		MIDI: MIDIConfig{
			MaxTracks: 8,
		},
		Tone: ToneConfig{
			SampleRate: 160000,
			BufferSize: 512,
			StartKey:   64,
			Volume:     127,
			Waveform:   "sine",
		},
		PCM: PCMConfig{
			DataSampleRate:   2700,
			TargetSampleRate: 2700,
			Refresh:          5,
			Gain:             1.0,
			BufferSize:       256,
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-beeper"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads the config at path. Fields missing from the file keep their
// defaults.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to path, creating its directory
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// FindKeyboard finds a keyboard config by port name
func (c *Config) FindKeyboard(portName string) *KeyboardConfig {
	for i := range c.Keyboards {
		if c.Keyboards[i].PortName == portName {
			return &c.Keyboards[i]
		}
	}
	return nil
}

// AddKeyboard adds or updates a keyboard config
func (c *Config) AddKeyboard(kb KeyboardConfig) {
	for i := range c.Keyboards {
		if c.Keyboards[i].PortName == kb.PortName {
			c.Keyboards[i] = kb
			return
		}
	}
	c.Keyboards = append(c.Keyboards, kb)
}

// AutoConnectKeyboards returns keyboards with autoConnect enabled
func (c *Config) AutoConnectKeyboards() []KeyboardConfig {
	var result []KeyboardConfig
	for _, kb := range c.Keyboards {
		if kb.AutoConnect {
			result = append(result, kb)
		}
	}
	return result
}

// PWMClock is the pulse generator clock in Hz
func (c *Config) PWMClock() int {
	return BaseClock >> c.Audio.PWMPrescaler
}

// CounterTop is the number of clock cycles in one PWM period when running at
// rate periods per second
func (c *Config) CounterTop(rate int) uint16 {
	if rate <= 0 {
		return 0
	}
	top := c.PWMClock() / rate
	return uint16(min(top, MaxCounterTop+1))
}

// PCMCounterTop shortens the period so each sample can be held for Refresh
// extra periods and still play at the target rate
func (c *Config) PCMCounterTop() uint16 {
	return c.CounterTop(c.PCM.TargetSampleRate * (c.PCM.Refresh + 1))
}

// TickRate picks the tick rate for a file whose header gives fileRate
func (c *Config) TickRate(fileRate int) int {
	if c.MIDI.TicksPerSecond > 0 {
		return c.MIDI.TicksPerSecond
	}
	return fileRate
}

func (c *Config) Waveform() synth.Waveform {
	wf, _ := synth.ParseWaveform(c.Audio.Waveform)
	return wf
}

func (c *Config) ToneWaveform() synth.Waveform {
	wf, _ := synth.ParseWaveform(c.Tone.Waveform)
	return wf
}

func (c *Config) Polyphony() synth.Policy {
	p, _ := synth.ParsePolicy(c.Audio.Polyphony)
	return p
}

// Validate reports every setting that cannot be played
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	checkTop := func(name string, rate int) {
		if rate <= 0 {
			bad("%s must be positive, got %d", name, rate)
			return
		}
		if top := c.CounterTop(rate); top < MinCounterTop || top > MaxCounterTop {
			bad("%s %d gives counter top %d, outside %d..%d", name, rate, top, MinCounterTop, MaxCounterTop)
		}
	}

	if c.Audio.PWMPrescaler < 0 || c.Audio.PWMPrescaler > 7 {
		bad("audio.pwmPrescaler %d outside 0..7", c.Audio.PWMPrescaler)
	}
	checkTop("audio.sampleRate", c.Audio.SampleRate)
	checkTop("tone.sampleRate", c.Tone.SampleRate)
	if c.PCM.Refresh < 0 {
		bad("pcm.refresh %d is negative", c.PCM.Refresh)
	} else {
		checkTop("pcm.targetSampleRate", c.PCM.TargetSampleRate*(c.PCM.Refresh+1))
	}
	if c.PCM.DataSampleRate <= 0 {
		bad("pcm.dataSampleRate must be positive, got %d", c.PCM.DataSampleRate)
	}

	for name, size := range map[string]int{
		"audio.bufferSize": c.Audio.BufferSize,
		"tone.bufferSize":  c.Tone.BufferSize,
		"pcm.bufferSize":   c.PCM.BufferSize,
	} {
		if size <= 0 {
			bad("%s must be positive, got %d", name, size)
		}
	}

	for name, v := range map[string]int{
		"audio.volume":  c.Audio.Volume,
		"tone.volume":   c.Tone.Volume,
		"tone.startKey": c.Tone.StartKey,
	} {
		if v < 0 || v > 127 {
			bad("%s %d outside 0..127", name, v)
		}
	}

	if _, err := synth.ParseWaveform(c.Audio.Waveform); err != nil {
		bad("audio.waveform: %v", err)
	}
	if _, err := synth.ParseWaveform(c.Tone.Waveform); err != nil {
		bad("tone.waveform: %v", err)
	}
	if _, err := synth.ParsePolicy(c.Audio.Polyphony); err != nil {
		bad("audio.polyphony: %v", err)
	}

	if c.MIDI.MaxTracks <= 0 {
		bad("midi.maxTracks must be positive, got %d", c.MIDI.MaxTracks)
	}
	if c.MIDI.TicksPerSecond < 0 {
		bad("midi.ticksPerSecond %d is negative", c.MIDI.TicksPerSecond)
	}

	return errors.Join(errs...)
}
