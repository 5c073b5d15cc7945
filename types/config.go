package types

// Device configuration document, exchanged with the host configurator and
// persisted in EEPROM. The document arrives as untrusted JSON: callers must
// run Normalize before Validate, and never rely on optional fields being set.

import (
	"iotflow-kernel/errcode"

	"iotflow-kernel/x/strconvx"
)

// Channel types (channel_type field).
const (
	ChannelDigital = "1" // digital I/O bit
	ChannelAnalog  = "2" // analog input, integer scaled
)

// Interface codes (interface_type field).
const (
	InterfaceGPIO       = "01" // direct pins on the HOST connector
	InterfaceExpander   = "11" // TCA9534 expander over I2C
	InterfaceGPIOAndI2C = "12" // reserved for mixed boards
	InterfaceADC        = "21" // analog mezzanine ADC
)

// Hardware modes (hardware.mode field).
const (
	ModeI2C  = "i2c"
	ModeGPIO = "gpio"
)

const MaxChannels = 8

type Document struct {
	ModuleType    string         `json:"module_type"`
	MezzanineType string         `json:"mezzanine_type"`
	Channels      []Channel      `json:"channels"`
	Network       NetworkConfig  `json:"network"`
	MQTT          MQTTConfig     `json:"mqtt"`
	Hardware      HardwareConfig `json:"hardware"`
	PinConfig     string         `json:"pin_config"`
	StatusEveryS  int            `json:"status_update_interval_s"`
}

type Channel struct {
	Name      string `json:"name"`
	Type      string `json:"channel_type"`
	Interface string `json:"interface_type"`
	Number    int    `json:"channel_number"` // 0..7, unique per type
	Actions   int    `json:"actions"`        // digital: 0=read only, 1=read+write; analog: 0

	// Analog-only fields. Calibration values are optional; nil means
	// "use the board default".
	Range  string   `json:"measurement_range,omitempty"`
	Gain   *float64 `json:"adc_hardware_gain,omitempty"`
	Shunt  *float64 `json:"shunt_resistance,omitempty"`
	Offset *float64 `json:"adc_offset,omitempty"`
}

type NetworkConfig struct {
	SSID     string `json:"wifi_ssid"`
	Password string `json:"wifi_password"`
}

type MQTTConfig struct {
	Broker    string `json:"broker"`
	Port      int    `json:"port"`
	ClientID  string `json:"client_id"`
	BaseTopic string `json:"base_topic"`
}

type HardwareConfig struct {
	Mode string `json:"mode"`

	I2CBusID   int    `json:"i2c_bus_id"`
	I2CSDAPin  int    `json:"i2c_sda_pin"`
	I2CSCLPin  int    `json:"i2c_scl_pin"`
	DeviceAddr string `json:"i2c_device_addr"` // expander address, hex string

	EEPROMAddr string `json:"eeprom_i2c_addr"`
	EEPROMSize int    `json:"eeprom_size"`

	ADCAddrs        []string `json:"adc_i2c_addrs,omitempty"`
	ADCSamplingRate int      `json:"adc_sampling_rate"`

	HostPins map[int]int `json:"gpio_host_pins"` // channel (1..8) -> pin
}

// DirectionMask parses the canonical pin_config string. Accepted forms are
// "0b00001111", "0x0f" and plain decimal; bit=1 marks the channel as input.
func (d *Document) DirectionMask() (uint8, error) {
	return ParseMask(d.PinConfig)
}

func ParseMask(s string) (uint8, error) {
	if s == "" {
		return 0, &errcode.E{C: errcode.InvalidConfig, Msg: "empty pin_config"}
	}
	base := 10
	digits := s
	if len(s) > 2 {
		switch s[:2] {
		case "0b", "0B":
			base = 2
			digits = s[2:]
		case "0x", "0X":
			base = 16
			digits = s[2:]
		}
	}
	v, err := strconvx.ParseUint(digits, base, 16)
	if err != nil || v > 0xFF {
		return 0, &errcode.E{C: errcode.InvalidConfig, Msg: "bad pin_config: " + s, Err: err}
	}
	return uint8(v), nil
}

// ParseHexAddr parses an I2C address of the form "0x3f" (or bare hex).
func ParseHexAddr(s string) (uint16, error) {
	digits := s
	if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
		digits = s[2:]
	}
	v, err := strconvx.ParseUint(digits, 16, 16)
	if err != nil || v > 0x7F {
		return 0, &errcode.E{C: errcode.InvalidConfig, Msg: "bad i2c address: " + s, Err: err}
	}
	return uint16(v), nil
}

// AnalogChannels returns the analog subset in document order.
func (d *Document) AnalogChannels() []Channel {
	var out []Channel
	for _, ch := range d.Channels {
		if ch.Type == ChannelAnalog {
			out = append(out, ch)
		}
	}
	return out
}

// DigitalChannels returns the digital subset in document order.
func (d *Document) DigitalChannels() []Channel {
	var out []Channel
	for _, ch := range d.Channels {
		if ch.Type == ChannelDigital {
			out = append(out, ch)
		}
	}
	return out
}

// Writable reports whether a digital channel allows set_output.
func (c Channel) Writable() bool { return c.Type == ChannelDigital && c.Actions == 1 }

// Calibration returns the channel's ADC calibration triple with board
// defaults filled in for absent fields.
func (c Channel) Calibration() (gain, shunt, offset float64) {
	gain, shunt, offset = DefaultADCGain, DefaultShuntOhms, DefaultADCOffset
	if c.Gain != nil {
		gain = *c.Gain
	}
	if c.Shunt != nil {
		shunt = *c.Shunt
	}
	if c.Offset != nil {
		offset = *c.Offset
	}
	return gain, shunt, offset
}
