package digio

import (
	"tinygo.org/x/drivers"

	"iotflow-kernel/drivers/tca9534"
)

// Expander serves channels through the TCA9534. It keeps an in-memory
// shadow of the output register (active-low: bit cleared = asserted) so a
// single-bit change still writes a consistent full byte.
type Expander struct {
	dev    tca9534.Device
	mask   uint8
	shadow uint8
	ok     bool
}

func NewExpander(bus drivers.I2C, addr uint16, mask uint8) *Expander {
	e := &Expander{
		dev:    tca9534.New(bus, addr),
		mask:   mask,
		shadow: 0xFF, // all outputs released
	}
	if err := e.dev.Configure(mask); err != nil {
		println("[digio] expander init failed, driver degraded")
		return e
	}
	e.ok = true
	return e
}

func (e *Expander) SetOutput(channel int, on bool) {
	if channel < 1 || channel > 8 || maskBitInput(e.mask, channel) {
		return
	}
	if !e.ok {
		return
	}
	bit := uint8(1) << (channel - 1)
	if on {
		e.shadow &^= bit
	} else {
		e.shadow |= bit
	}
	if err := e.dev.WriteOutput(e.shadow); err != nil {
		println("[digio] expander write failed, channel", channel)
	}
}

func (e *Expander) ReadAllInputs() (Snapshot, bool) {
	var snap Snapshot
	if !e.ok {
		return snap, false
	}
	raw, err := e.dev.ReadInput()
	if err != nil {
		println("[digio] expander read failed")
		return snap, false
	}
	for i := 0; i < 8; i++ {
		if e.mask>>(uint(i))&0x01 != 1 {
			continue // output position stays Unknown
		}
		if raw>>(uint(i))&0x01 == 0 {
			snap[i] = On // active-low: low level means signal present
		} else {
			snap[i] = Off
		}
	}
	return snap, true
}
