//go:build rp2040 || rp2350

package main

import (
	"context"
	"machine"
	"time"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
	"tinygo.org/x/drivers"
	dnetlink "tinygo.org/x/drivers/netlink"
	"tinygo.org/x/drivers/netlink/probe"

	"iotflow-kernel/drivers/eeprom"
	"iotflow-kernel/errcode"
	"iotflow-kernel/kernel"
	"iotflow-kernel/services/analog"
	"iotflow-kernel/services/digio"
	"iotflow-kernel/services/netlink"
	"iotflow-kernel/types"
)

// RP2 build (Pico W / Pico 2 W). The shared I2C bus, the EEPROM behind it
// and the host-link UART are brought up from compiled-in defaults; the
// document read back from the EEPROM then selects what actually runs.

const hostLinkBaud = 115200

func newPlatform() kernel.Platform {
	hw := types.Defaults().Hardware

	bus := machine.I2C0
	sda := machine.Pin(hw.I2CSDAPin)
	scl := machine.Pin(hw.I2CSCLPin)
	sda.Configure(machine.PinConfig{Mode: machine.PinI2C})
	scl.Configure(machine.PinConfig{Mode: machine.PinI2C})
	bus.Configure(machine.I2CConfig{
		SDA:       sda,
		SCL:       scl,
		Frequency: 400 * machine.KHz,
	})

	eepromAddr, err := types.ParseHexAddr(hw.EEPROMAddr)
	if err != nil {
		eepromAddr = 0x57
	}

	return kernel.Platform{
		Bus:         bus,
		OpenPin:     openRP2Pin,
		Radio:       newRP2Radio(),
		NewClient:   netlink.NewPahoClient,
		NewReader:   func(types.Document) analog.Reader { return nil },
		Storage:     eeprom.New(bus, eepromAddr, hw.EEPROMSize),
		StorageSize: hw.EEPROMSize,
		Port:        newUARTPort(),
		Restart:     machine.CPUReset,
	}
}

// ---- GPIO ----

type rp2Pin struct{ p machine.Pin }

func openRP2Pin(number int) (digio.Pin, error) {
	// GP0..GP28 are the user GPIOs on the RP2 family.
	if number < 0 || number > 28 {
		return nil, errcode.InvalidConfig
	}
	return &rp2Pin{p: machine.Pin(number)}, nil
}

func (r *rp2Pin) ConfigureInput(pullup bool) error {
	mode := machine.PinInput
	if pullup {
		mode = machine.PinInputPullup
	}
	r.p.Configure(machine.PinConfig{Mode: mode})
	return nil
}

func (r *rp2Pin) ConfigureOutput(high bool) error {
	r.p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	r.p.Set(high)
	return nil
}

func (r *rp2Pin) Set(high bool) { r.p.Set(high) }
func (r *rp2Pin) Get() bool     { return r.p.Get() }

// ---- Radio: on-board wireless via the drivers netlink probe ----

type rp2Radio struct {
	link dnetlink.Netlinker
	up   bool
}

func newRP2Radio() *rp2Radio {
	r := &rp2Radio{}
	link, _ := probe.Probe()
	r.link = link
	link.NetNotify(func(e dnetlink.Event) {
		switch e {
		case dnetlink.EventNetUp:
			r.up = true
		case dnetlink.EventNetDown:
			r.up = false
		}
	})
	return r
}

func (r *rp2Radio) Connect(ssid, password string) bool {
	err := r.link.NetConnect(&dnetlink.ConnectParams{
		Ssid:           ssid,
		Passphrase:     password,
		ConnectTimeout: 10 * time.Second,
	})
	if err != nil {
		println("[platform] wifi connect failed:", err.Error())
		return false
	}
	r.up = true
	return true
}

func (r *rp2Radio) IsConnected() bool { return r.up }

func (r *rp2Radio) Disconnect() {
	r.link.NetDisconnect()
	r.up = false
}

// ---- Host link over UART0 ----

type uartPort struct {
	u  *uartx.UART
	rx chan byte
}

func newUARTPort() *uartPort {
	u := uartx.UART0
	_ = u.Configure(uartx.UARTConfig{BaudRate: hostLinkBaud})
	p := &uartPort{u: u, rx: make(chan byte, 512)}
	go p.pump()
	return p
}

// pump moves received bytes into the channel the cooperative loop drains.
func (p *uartPort) pump() {
	var buf [64]byte
	for {
		n, err := p.u.RecvSomeContext(context.Background(), buf[:])
		if err != nil {
			continue
		}
		for i := 0; i < n; i++ {
			select {
			case p.rx <- buf[i]:
			default:
				// Overrun: host is flooding faster than the loop drains.
			}
		}
	}
}

func (p *uartPort) Buffered() int { return len(p.rx) }

func (p *uartPort) ReadByte() (byte, error) {
	select {
	case b := <-p.rx:
		return b, nil
	default:
		return 0, errcode.Timeout
	}
}

func (p *uartPort) WriteString(s string) { p.u.Write([]byte(s)) }

var _ drivers.I2C = machine.I2C0
