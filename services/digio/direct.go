package digio

// Direct serves channels straight from HOST connector pins. Inputs are
// configured with pull-ups; outputs idle electrically high (released).
type Direct struct {
	mask uint8
	pins map[int]Pin // channel (1..8) -> configured handle
}

func NewDirect(mask uint8, hostPins map[int]int, open PinOpener) *Direct {
	d := &Direct{mask: mask, pins: make(map[int]Pin, len(hostPins))}
	if open == nil {
		println("[digio] no pin opener, driver degraded")
		return d
	}
	for channel, number := range hostPins {
		if channel < 1 || channel > 8 {
			continue
		}
		pin, err := open(number)
		if err != nil {
			println("[digio] pin open failed, channel", channel)
			continue
		}
		if maskBitInput(mask, channel) {
			if err := pin.ConfigureInput(true); err != nil {
				println("[digio] input config failed, channel", channel)
				continue
			}
		} else {
			if err := pin.ConfigureOutput(true); err != nil {
				println("[digio] output config failed, channel", channel)
				continue
			}
		}
		d.pins[channel] = pin
	}
	return d
}

func (d *Direct) SetOutput(channel int, on bool) {
	if channel < 1 || channel > 8 || maskBitInput(d.mask, channel) {
		return
	}
	pin, ok := d.pins[channel]
	if !ok {
		return
	}
	pin.Set(!on) // active-low
}

func (d *Direct) ReadAllInputs() (Snapshot, bool) {
	var snap Snapshot
	for i := 0; i < 8; i++ {
		channel := i + 1
		if !maskBitInput(d.mask, channel) {
			continue
		}
		pin, ok := d.pins[channel]
		if !ok {
			continue
		}
		if pin.Get() {
			snap[i] = Off // pulled up, no signal
		} else {
			snap[i] = On
		}
	}
	return snap, true
}
