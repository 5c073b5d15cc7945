package types

import "iotflow-kernel/errcode"

// Validate enforces the document invariants. It expects Normalize to have
// run first so that optional fields carry their defaults.
func (d *Document) Validate() error {
	if len(d.Channels) > MaxChannels {
		return &errcode.E{C: errcode.InvalidConfig, Msg: "more than 8 channels"}
	}
	if _, err := d.DirectionMask(); err != nil {
		return err
	}
	if d.StatusEveryS <= 0 || d.StatusEveryS > 0xFFFF {
		return &errcode.E{C: errcode.InvalidConfig, Msg: "status interval out of range"}
	}
	if d.MQTT.Port < 1 || d.MQTT.Port > 0xFFFF {
		return &errcode.E{C: errcode.InvalidConfig, Msg: "mqtt port out of range"}
	}

	// The packed record carries these as u8/u16; anything wider would not
	// survive the persist round trip.
	hw := d.Hardware
	if hw.EEPROMSize < 1 || hw.EEPROMSize > 0xFFFF {
		return &errcode.E{C: errcode.InvalidConfig, Msg: "eeprom size out of range"}
	}
	if hw.I2CBusID < 0 || hw.I2CBusID > 0xFF ||
		hw.I2CSDAPin < 0 || hw.I2CSDAPin > 0xFF ||
		hw.I2CSCLPin < 0 || hw.I2CSCLPin > 0xFF {
		return &errcode.E{C: errcode.InvalidConfig, Msg: "i2c pin numbers out of range"}
	}
	if _, ok := SamplingRateCode[hw.ADCSamplingRate]; !ok {
		return &errcode.E{C: errcode.InvalidConfig, Msg: "unsupported adc sampling rate"}
	}
	if len(hw.ADCAddrs) > MaxChannels {
		return &errcode.E{C: errcode.InvalidConfig, Msg: "too many adc addresses"}
	}
	for channel, pin := range hw.HostPins {
		if channel < 1 || channel > MaxChannels {
			return &errcode.E{C: errcode.InvalidConfig, Msg: "host pin channel out of range"}
		}
		if pin < 0 || pin > 0xFF {
			return &errcode.E{C: errcode.InvalidConfig, Msg: "host pin number out of range"}
		}
	}

	names := map[string]bool{}
	numbers := map[string]map[int]bool{
		ChannelDigital: {},
		ChannelAnalog:  {},
	}
	for i := range d.Channels {
		ch := &d.Channels[i]
		if ch.Name == "" || len(ch.Name) > 8 {
			return &errcode.E{C: errcode.InvalidConfig, Msg: "channel name must be 1-8 chars: " + ch.Name}
		}
		if names[ch.Name] {
			return &errcode.E{C: errcode.InvalidConfig, Msg: "duplicate channel name: " + ch.Name}
		}
		names[ch.Name] = true

		perType, ok := numbers[ch.Type]
		if !ok {
			return &errcode.E{C: errcode.InvalidConfig, Msg: "unknown channel type for " + ch.Name}
		}
		if ch.Number < 0 || ch.Number > 7 {
			return &errcode.E{C: errcode.InvalidConfig, Msg: "channel number out of range for " + ch.Name}
		}
		if perType[ch.Number] {
			return &errcode.E{C: errcode.InvalidConfig, Msg: "duplicate channel number for " + ch.Name}
		}
		perType[ch.Number] = true

		switch ch.Type {
		case ChannelDigital:
			if ch.Actions != 0 && ch.Actions != 1 {
				return &errcode.E{C: errcode.InvalidConfig, Msg: "digital actions must be 0 or 1: " + ch.Name}
			}
		case ChannelAnalog:
			if ch.Actions != 0 {
				return &errcode.E{C: errcode.InvalidConfig, Msg: "analog channels are read-only: " + ch.Name}
			}
			if _, ok := LookupRange(ch.Range); !ok {
				return &errcode.E{C: errcode.InvalidConfig, Msg: "bad measurement range for " + ch.Name}
			}
			if ch.Gain != nil && *ch.Gain <= 0 {
				return &errcode.E{C: errcode.InvalidConfig, Msg: "gain must be positive: " + ch.Name}
			}
			if ch.Shunt != nil && *ch.Shunt <= 0 {
				return &errcode.E{C: errcode.InvalidConfig, Msg: "shunt must be positive: " + ch.Name}
			}
		}
	}

	// Expander-served channels need a device address.
	for _, ch := range d.Channels {
		if ch.Interface == InterfaceExpander || ch.Interface == InterfaceGPIOAndI2C {
			if _, err := ParseHexAddr(d.Hardware.DeviceAddr); err != nil {
				return err
			}
			break
		}
	}
	return nil
}
