package digio

import (
	"errors"
	"testing"

	"iotflow-kernel/types"
)

// fakeI2C emulates the TCA9534 register file.
type fakeI2C struct {
	config uint8
	output uint8
	input  uint8
	fail   bool
	writes []uint8 // output register history
}

func (f *fakeI2C) Tx(addr uint16, w, r []byte) error {
	if f.fail {
		return errors.New("bus fault")
	}
	switch {
	case len(w) == 2 && w[0] == 0x03:
		f.config = w[1]
	case len(w) == 2 && w[0] == 0x01:
		f.output = w[1]
		f.writes = append(f.writes, w[1])
	case len(w) == 1 && w[0] == 0x00 && len(r) == 1:
		r[0] = f.input
	}
	return nil
}

func TestExpander_ConfiguresDirectionOnInit(t *testing.T) {
	bus := &fakeI2C{}
	NewExpander(bus, 0x3F, 0b00001111)
	if bus.config != 0b00001111 {
		t.Fatalf("config=%08b", bus.config)
	}
}

func TestExpander_SetOutputActiveLow(t *testing.T) {
	bus := &fakeI2C{}
	e := NewExpander(bus, 0x3F, 0b00001111)

	e.SetOutput(5, true)
	if bus.output != 0b11101111 {
		t.Fatalf("assert: output=%08b", bus.output)
	}
	e.SetOutput(8, true)
	if bus.output != 0b01101111 {
		t.Fatalf("second assert: output=%08b", bus.output)
	}
	e.SetOutput(5, false)
	if bus.output != 0b01111111 {
		t.Fatalf("release: output=%08b", bus.output)
	}
}

func TestExpander_SetOutputIgnoresInputChannels(t *testing.T) {
	bus := &fakeI2C{}
	e := NewExpander(bus, 0x3F, 0b00001111)

	e.SetOutput(1, true) // mask bit 0 is input
	e.SetOutput(0, true)
	e.SetOutput(9, true)
	if len(bus.writes) != 0 {
		t.Fatalf("writes=%v", bus.writes)
	}
}

func TestExpander_ReadAllInputs(t *testing.T) {
	bus := &fakeI2C{input: 0b11111010}
	e := NewExpander(bus, 0x3F, 0b00001111)

	snap, ok := e.ReadAllInputs()
	if !ok {
		t.Fatalf("read failed")
	}
	// Inverted: low level reads as On. Bits 0 and 2 are low.
	want := Snapshot{On, Off, On, Off, Unknown, Unknown, Unknown, Unknown}
	if snap != want {
		t.Fatalf("snap=%v want %v", snap, want)
	}
}

func TestExpander_DegradedOnInitFailure(t *testing.T) {
	bus := &fakeI2C{fail: true}
	e := NewExpander(bus, 0x3F, 0b00001111)

	bus.fail = false
	e.SetOutput(5, true)
	if len(bus.writes) != 0 {
		t.Fatalf("degraded expander wrote %v", bus.writes)
	}
	if _, ok := e.ReadAllInputs(); ok {
		t.Fatalf("degraded expander reported a readable snapshot")
	}
}

// fakePin records its configuration and level.
type fakePin struct {
	input  bool
	pullup bool
	level  bool
}

func (p *fakePin) ConfigureInput(pullup bool) error {
	p.input = true
	p.pullup = pullup
	p.level = pullup
	return nil
}

func (p *fakePin) ConfigureOutput(high bool) error {
	p.input = false
	p.level = high
	return nil
}

func (p *fakePin) Set(high bool) { p.level = high }
func (p *fakePin) Get() bool     { return p.level }

func fakeOpener(pins map[int]*fakePin) PinOpener {
	return func(number int) (Pin, error) {
		p, ok := pins[number]
		if !ok {
			return nil, errors.New("no such pin")
		}
		return p, nil
	}
}

func TestDirect_ConfiguresPinsFromMask(t *testing.T) {
	pins := map[int]*fakePin{}
	hostPins := types.DefaultHostPins()
	for _, n := range hostPins {
		pins[n] = &fakePin{}
	}
	NewDirect(0b00001111, hostPins, fakeOpener(pins))

	for channel, n := range hostPins {
		p := pins[n]
		if channel <= 4 {
			if !p.input || !p.pullup {
				t.Fatalf("channel %d: want pulled-up input, got %+v", channel, p)
			}
		} else {
			if p.input || !p.level {
				t.Fatalf("channel %d: want output idling high, got %+v", channel, p)
			}
		}
	}
}

func TestDirect_SetOutputActiveLow(t *testing.T) {
	pins := map[int]*fakePin{14: {}}
	d := NewDirect(0b00001111, map[int]int{5: 14}, fakeOpener(pins))

	d.SetOutput(5, true)
	if pins[14].level {
		t.Fatalf("asserted output should drive low")
	}
	d.SetOutput(5, false)
	if !pins[14].level {
		t.Fatalf("released output should drive high")
	}
	d.SetOutput(1, true) // input channel, no pin mapped
}

func TestDirect_ReadAllInputsInverted(t *testing.T) {
	pins := map[int]*fakePin{10: {}, 11: {}}
	d := NewDirect(0b00000011, map[int]int{1: 10, 2: 11}, fakeOpener(pins))

	pins[10].level = false // driven low: signal present
	pins[11].level = true  // pulled up: idle

	snap, ok := d.ReadAllInputs()
	if !ok {
		t.Fatalf("read failed")
	}
	want := Snapshot{On, Off}
	if snap != want {
		t.Fatalf("snap=%v want %v", snap, want)
	}
}

func TestNew_SelectsBackendByMode(t *testing.T) {
	bus := &fakeI2C{}
	hw := types.HardwareConfig{Mode: types.ModeI2C, DeviceAddr: "0x3f"}
	if _, ok := New(hw, 0x0F, bus, nil).(*Expander); !ok {
		t.Fatalf("i2c mode did not select the expander backend")
	}

	hw = types.HardwareConfig{Mode: types.ModeGPIO, HostPins: map[int]int{1: 10}}
	if _, ok := New(hw, 0x0F, nil, fakeOpener(map[int]*fakePin{10: {}})).(*Direct); !ok {
		t.Fatalf("gpio mode did not select the direct backend")
	}
}

func TestNew_BadExpanderAddressDegrades(t *testing.T) {
	hw := types.HardwareConfig{Mode: types.ModeI2C, DeviceAddr: "not-hex"}
	drv := New(hw, 0x0F, &fakeI2C{}, nil)
	drv.SetOutput(5, true)
	if _, ok := drv.ReadAllInputs(); ok {
		t.Fatalf("degraded driver reported a readable snapshot")
	}
}
