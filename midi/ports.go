package midi

import (
	"errors"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver
)

// ErrPortScanTimeout is returned when the MIDI driver does not answer a port
// scan in time (CoreMIDI can hang)
var ErrPortScanTimeout = errors.New("midi: port scan timed out")

// InPorts lists the MIDI input ports, giving up after timeout
func InPorts(timeout time.Duration) ([]drivers.In, error) {
	ch := make(chan []drivers.In, 1)
	go func() {
		ch <- gomidi.GetInPorts()
	}()

	select {
	case ports := <-ch:
		return ports, nil
	case <-time.After(timeout):
		// User needs to run: sudo killall coreaudiod midiserver
		return nil, ErrPortScanTimeout
	}
}

// InPortNames is InPorts reduced to the port names
func InPortNames(timeout time.Duration) ([]string, error) {
	ports, err := InPorts(timeout)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(ports))
	for i, p := range ports {
		names[i] = p.String()
	}
	return names, nil
}
