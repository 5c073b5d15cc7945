// Package digio is the digital I/O abstraction. Two backends serve the same
// capability interface: the TCA9534 expander over the shared I2C bus and
// direct pins on the HOST connector. The backend is chosen once per
// configuration apply, never per call.
//
// Conventions shared by both backends:
//   - direction mask: bit=1 input, bit=0 output
//   - outputs are active-low (asserted = electrical low)
//   - inputs are reported inverted so that On means signal present
package digio

import (
	"tinygo.org/x/drivers"

	"iotflow-kernel/types"
)

// Tristate is one input position. The zero value is Unknown, so an empty
// Snapshot reports nothing.
type Tristate uint8

const (
	Unknown Tristate = iota // output-configured or unreadable position
	Off
	On
)

// Snapshot is one read of all eight positions. It is comparable, which is
// what the change-detection in the main loop relies on.
type Snapshot [8]Tristate

// Driver is the capability interface the rest of the runtime sees.
// Channels are 1-based (1..8), matching the bus topic scheme.
type Driver interface {
	// SetOutput asserts or releases a channel. No-op for input-configured
	// channels and for degraded backends.
	SetOutput(channel int, on bool)
	// ReadAllInputs reads every input-configured position once. ok is false
	// when the backend could not be read at all.
	ReadAllInputs() (Snapshot, bool)
}

// Pin is the direct-pin collaborator, satisfied by platform GPIO handles.
type Pin interface {
	ConfigureInput(pullup bool) error
	ConfigureOutput(high bool) error
	Set(high bool)
	Get() bool
}

// PinOpener resolves a platform pin number to a handle.
type PinOpener func(number int) (Pin, error)

// New builds the backend selected by the hardware mode. Construction
// failures leave a degraded driver that logs and no-ops rather than
// propagating: a mis-wired board must not take down the runtime.
func New(hw types.HardwareConfig, mask uint8, bus drivers.I2C, open PinOpener) Driver {
	switch hw.Mode {
	case types.ModeGPIO:
		return NewDirect(mask, hw.HostPins, open)
	default:
		addr, err := types.ParseHexAddr(hw.DeviceAddr)
		if err != nil {
			println("[digio] bad expander address:", hw.DeviceAddr)
			return &Expander{}
		}
		return NewExpander(bus, addr, mask)
	}
}

func maskBitInput(mask uint8, channel int) bool {
	return (mask>>(channel-1))&0x01 == 1
}
