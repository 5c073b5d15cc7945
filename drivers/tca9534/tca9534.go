// Package tca9534 drives the TCA9534 8-bit I/O expander used on the
// IoTextra Digital mezzanines. Only the three registers the boards need are
// exposed. The I2C bus must already be configured.
package tca9534

import (
	"errors"

	"tinygo.org/x/drivers"
)

// Register addresses.
const (
	regInput  = 0x00
	regOutput = 0x01
	regConfig = 0x03
)

var ErrBus = errors.New("tca9534: bus error")

// Device wraps an I2C connection to one expander.
type Device struct {
	bus  drivers.I2C
	addr uint16
}

// New creates a connection object; it does not touch the device.
func New(bus drivers.I2C, addr uint16) Device {
	return Device{bus: bus, addr: addr}
}

// Configure writes the direction register: bit=1 input, bit=0 output.
func (d Device) Configure(mask uint8) error {
	if err := d.bus.Tx(d.addr, []byte{regConfig, mask}, nil); err != nil {
		return ErrBus
	}
	return nil
}

// WriteOutput writes the whole output register in one transaction.
func (d Device) WriteOutput(state uint8) error {
	if err := d.bus.Tx(d.addr, []byte{regOutput, state}, nil); err != nil {
		return ErrBus
	}
	return nil
}

// ReadInput reads the input register once.
func (d Device) ReadInput() (uint8, error) {
	var buf [1]byte
	if err := d.bus.Tx(d.addr, []byte{regInput}, buf[:]); err != nil {
		return 0, ErrBus
	}
	return buf[0], nil
}
