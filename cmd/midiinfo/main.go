package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"

	"go-beeper/assets"
	"go-beeper/midi"
	"go-beeper/sequencer"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	var err error
	switch os.Args[1] {
	case "tracks":
		err = listTracks(arg(2))
	case "events":
		err = listEvents(arg(2), arg(3))
	case "ports":
		err = listPorts()
	case "poll":
		pollPorts()
	case "monitor":
		err = monitor(arg(2))
	case "demo":
		err = writeDemo(arg(2))
	default:
		usage()
	}

	if err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func arg(i int) string {
	if i < len(os.Args) {
		return os.Args[i]
	}
	return ""
}

func usage() {
	fmt.Println("MIDI file and port inspection")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  tracks [file]          - Timing and per track summary")
	fmt.Println("  events [file] [limit]  - Merged note events in play order")
	fmt.Println("  ports                  - List MIDI input ports")
	fmt.Println("  poll                   - Watch for input port changes")
	fmt.Println("  monitor [name]         - Print notes from an input port")
	fmt.Println("  demo out.mid           - Write a four channel test file")
	fmt.Println("")
	fmt.Println("Without a file the built in tune is used.")
}

func load(path string, maxTracks int) (*midi.File, error) {
	data := assets.Tune
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, err
		}
	}
	return midi.Load(data, maxTracks)
}

func listTracks(path string) error {
	f, err := load(path, 1<<16)
	if err != nil {
		return err
	}

	prescaler := sequencer.Prescaler(f.TicksPerSecond)
	header := color.New(color.FgCyan, color.Bold)
	header.Println("=== Timing ===")
	fmt.Printf("  ticks/s    %d\n", f.TicksPerSecond)
	fmt.Printf("  prescaler  %d (%.2f Hz)\n", prescaler, sequencer.TickRate(prescaler))
	fmt.Printf("  tracks     %d", f.TotalTracks)
	if f.TotalTracks > sequencer.MaxTracks {
		color.New(color.FgYellow).Printf(" (only %d play)", sequencer.MaxTracks)
	}
	fmt.Println()

	header.Println("\n=== Tracks ===")
	for _, tr := range f.Tracks {
		var events, notes int
		var ticks uint32
		channels := map[uint8]bool{}
		for {
			ev, ok := tr.Next()
			if !ok {
				break
			}
			events++
			ticks += ev.Delta
			if e, ok := midi.Decode(ev.Message); ok {
				notes++
				channels[e.Channel] = true
			}
		}

		var chans []string
		for ch := range uint8(16) {
			if channels[ch] {
				s := strconv.Itoa(int(ch))
				if int(ch) >= sequencer.MaxChannels {
					s = color.YellowString(s)
				}
				chans = append(chans, s)
			}
		}
		fmt.Printf("  %d: %4d events %4d notes  %6d ticks  channels [%s]\n",
			tr.Index, events, notes, ticks, strings.Join(chans, " "))
	}
	return nil
}

func listEvents(path, limit string) error {
	f, err := load(path, sequencer.MaxTracks)
	if err != nil {
		return err
	}

	n := -1
	if limit != "" {
		if n, err = strconv.Atoi(limit); err != nil {
			return fmt.Errorf("limit: %w", err)
		}
	}

	sched := sequencer.NewScheduler(f.Tracks)
	for count := 0; n < 0 || count < n; count++ {
		out := sched.AdvanceTo(^uint32(0))
		if out.Kind == sequencer.OutcomeFinished {
			color.Green("-- end, %d events", count)
			return nil
		}
		if int(out.Event.Channel) >= sequencer.MaxChannels {
			color.Yellow("%8d %9.3fs  track %d  %v (dropped)", out.Tick, seconds(out.Tick, f), out.Track, out.Event)
			continue
		}
		fmt.Printf("%8d %9.3fs  track %d  %v\n", out.Tick, seconds(out.Tick, f), out.Track, out.Event)
	}
	return nil
}

func seconds(tick uint32, f *midi.File) float64 {
	return float64(tick) / float64(f.TicksPerSecond)
}

func listPorts() error {
	fmt.Println("=== MIDI Input Ports ===")
	fmt.Println("(waiting up to 3 seconds...)")

	names, err := midi.InPortNames(3 * time.Second)
	if err != nil {
		fmt.Println("\nTIMEOUT! CoreMIDI is hung.")
		fmt.Println("Fix: sudo killall coreaudiod midiserver")
		return err
	}
	for i, name := range names {
		fmt.Printf("  %d: %s\n", i, name)
	}
	if len(names) == 0 {
		fmt.Println("  (none)")
	}
	return nil
}

func pollPorts() {
	fmt.Println("Polling for input changes every 2 seconds...")
	fmt.Println("Connect/disconnect a keyboard to test. Ctrl+C to exit.")

	last := ""
	for {
		names, err := midi.InPortNames(3 * time.Second)
		if err != nil {
			color.Red("  %v", err)
		}

		current := strings.Join(names, ",")
		if current != last {
			fmt.Printf("\n[%s] Device change detected!\n", time.Now().Format("15:04:05"))
			fmt.Printf("  Inputs: %v\n", names)
			last = current
		}

		time.Sleep(2 * time.Second)
	}
}

func monitor(name string) error {
	kb, err := midi.OpenKeyboard(name)
	if err != nil {
		return err
	}
	defer kb.Close()

	color.Cyan("Listening on %s, ctrl+c to stop", kb.ID())

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	for {
		select {
		case ev, ok := <-kb.Notes():
			if !ok {
				return nil
			}
			fmt.Printf("[%s] %v %s\n", time.Now().Format("15:04:05.000"), ev, midi.NoteName(ev.Note))
		case <-stop:
			return nil
		}
	}
}

// writeDemo writes an arpeggio spread over the four voice channels, one
// track per channel
func writeDemo(path string) error {
	if path == "" {
		return fmt.Errorf("demo: need an output path")
	}

	const step = 24
	chord := []uint8{60, 64, 67, 72}

	var tracks [][]midi.Step
	for ch, key := range chord {
		var tr []midi.Step
		delay := uint32(ch * step)
		for bar := 0; bar < 4; bar++ {
			tr = append(tr,
				midi.On(delay, uint8(ch), key+uint8(bar%2)*2, 100),
				midi.Off(step*2, uint8(ch), key+uint8(bar%2)*2),
			)
			delay = step * 2
		}
		tracks = append(tracks, tr)
	}

	if err := os.WriteFile(path, midi.Build(96, tracks...), 0644); err != nil {
		return err
	}
	color.Green("wrote %s", path)
	return nil
}
