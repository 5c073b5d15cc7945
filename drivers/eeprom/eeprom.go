// Package eeprom drives AT24-class I2C EEPROMs (two-byte word address,
// paged writes, ack polling during the internal write cycle). It backs the
// configuration store on hardware.
package eeprom

import (
	"errors"
	"time"

	"tinygo.org/x/drivers"
)

const (
	defaultPageSize = 32
	writeCycle      = 5 * time.Millisecond
	ackPollRetries  = 10
)

var (
	ErrBus    = errors.New("eeprom: bus error")
	ErrBounds = errors.New("eeprom: address out of range")
)

type Device struct {
	bus      drivers.I2C
	addr     uint16
	size     int
	pageSize int
}

// New creates a driver for an EEPROM of the given byte size.
func New(bus drivers.I2C, addr uint16, size int) *Device {
	return &Device{bus: bus, addr: addr, size: size, pageSize: defaultPageSize}
}

// ReadAt fills buf starting at the given word address.
func (d *Device) ReadAt(off int, buf []byte) error {
	if off < 0 || off+len(buf) > d.size {
		return ErrBounds
	}
	if len(buf) == 0 {
		return nil
	}
	cmd := []byte{byte(off >> 8), byte(off)}
	if err := d.bus.Tx(d.addr, cmd, buf); err != nil {
		return ErrBus
	}
	return nil
}

// WriteAt writes data starting at the given word address, splitting on page
// boundaries and waiting out the device write cycle between pages.
func (d *Device) WriteAt(off int, data []byte) error {
	if off < 0 || off+len(data) > d.size {
		return ErrBounds
	}
	for len(data) > 0 {
		n := d.pageSize - off%d.pageSize
		if n > len(data) {
			n = len(data)
		}
		cmd := make([]byte, 2+n)
		cmd[0] = byte(off >> 8)
		cmd[1] = byte(off)
		copy(cmd[2:], data[:n])
		if err := d.bus.Tx(d.addr, cmd, nil); err != nil {
			return ErrBus
		}
		if err := d.waitReady(); err != nil {
			return err
		}
		off += n
		data = data[n:]
	}
	return nil
}

// waitReady polls until the device acks again after a write cycle.
func (d *Device) waitReady() error {
	var probe [1]byte
	for i := 0; i < ackPollRetries; i++ {
		time.Sleep(writeCycle / 2)
		if err := d.bus.Tx(d.addr, []byte{0, 0}, probe[:]); err == nil {
			return nil
		}
	}
	return ErrBus
}
