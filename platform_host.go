//go:build !rp2040 && !rp2350

package main

import (
	"bufio"
	"os"

	"iotflow-kernel/confstore"
	"iotflow-kernel/errcode"
	"iotflow-kernel/kernel"
	"iotflow-kernel/services/analog"
	"iotflow-kernel/services/digio"
	"iotflow-kernel/services/netlink"
	"iotflow-kernel/types"
)

// Host build: real MQTT over the host network, RAM-backed storage, fake pins
// and a stdin/stdout host link. Lets the whole runtime be exercised on a
// workstation against a local broker.

const hostStorageSize = 1024

func newPlatform() kernel.Platform {
	return kernel.Platform{
		Bus:         hostI2C{},
		OpenPin:     openHostPin,
		Radio:       &hostRadio{},
		NewClient:   netlink.NewPahoClient,
		NewReader:   func(doc types.Document) analog.Reader { return hostReader{doc: doc} },
		Storage:     newMemStorage(hostStorageSize),
		StorageSize: hostStorageSize,
		Port:        newStdioPort(),
		Restart:     func() { println("[host] restart requested") },
	}
}

// ---- I2C: no bus on a workstation; transactions fail cleanly ----

type hostI2C struct{}

func (hostI2C) Tx(addr uint16, w, r []byte) error { return errcode.BusFault }

// ---- GPIO: level-holding fakes ----

type hostPin struct{ level bool }

func openHostPin(number int) (digio.Pin, error) { return &hostPin{}, nil }

func (p *hostPin) ConfigureInput(pullup bool) error {
	p.level = pullup // pulled-up inputs idle high
	return nil
}
func (p *hostPin) ConfigureOutput(high bool) error {
	p.level = high
	return nil
}
func (p *hostPin) Set(high bool) { p.level = high }
func (p *hostPin) Get() bool     { return p.level }

// ---- Radio: host networking is already up ----

type hostRadio struct{ up bool }

func (r *hostRadio) Connect(ssid, password string) bool {
	println("[host] assuming network reachable, ssid:", ssid)
	r.up = true
	return true
}
func (r *hostRadio) IsConnected() bool { return r.up }
func (r *hostRadio) Disconnect()       { r.up = false }

// ---- Analog: zero raw input run through the real channel conversion ----

type hostReader struct{ doc types.Document }

// ReadScaled applies the channel calibration to a flat zero raw sample, so
// host runs exercise the same conversion the device-side driver performs.
func (r hostReader) ReadScaled(channel int) (float64, error) {
	for _, ch := range r.doc.AnalogChannels() {
		if ch.Number != channel {
			continue
		}
		gain, shunt, offset := ch.Calibration()
		v := 0.0*gain + offset
		if u, ok := analog.DefaultRangeUnit(ch.Range); ok && u == "mA" {
			v /= shunt
		}
		return v, nil
	}
	return 0, errcode.BusFault
}

func (hostReader) RangeUnit(code string) (string, bool) { return analog.DefaultRangeUnit(code) }

// ---- Storage: RAM image ----

type memStorage struct{ img []byte }

func newMemStorage(size int) *memStorage { return &memStorage{img: make([]byte, size)} }

func (m *memStorage) ReadAt(off int, buf []byte) error {
	if off < 0 || off+len(buf) > len(m.img) {
		return errcode.StoreIO
	}
	copy(buf, m.img[off:])
	return nil
}

func (m *memStorage) WriteAt(off int, data []byte) error {
	if off < 0 || off+len(data) > len(m.img) {
		return errcode.StoreIO
	}
	copy(m.img[off:], data)
	return nil
}

var _ confstore.Storage = (*memStorage)(nil)

// ---- Host link: stdin in, stdout out ----

type stdioPort struct{ rx chan byte }

func newStdioPort() *stdioPort {
	p := &stdioPort{rx: make(chan byte, 4096)}
	go p.pump()
	return p
}

func (p *stdioPort) pump() {
	r := bufio.NewReader(os.Stdin)
	for {
		b, err := r.ReadByte()
		if err != nil {
			return
		}
		p.rx <- b
	}
}

func (p *stdioPort) Buffered() int { return len(p.rx) }

func (p *stdioPort) ReadByte() (byte, error) {
	select {
	case b := <-p.rx:
		return b, nil
	default:
		return 0, errcode.Timeout
	}
}

func (p *stdioPort) WriteString(s string) { os.Stdout.WriteString(s) }
