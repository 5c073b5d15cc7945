package types

import "iotflow-kernel/x/strx"

// Factory defaults, used when the EEPROM holds no readable document and as
// field fallbacks for partial documents received from the host.

const (
	DefaultEEPROMAddr = "0x57"
	DefaultEEPROMSize = 1024

	DefaultSamplingRate = 128
	DefaultStatusEveryS = 30

	// Per-channel ADC calibration fallbacks (IoTextra Analog V1 boards).
	DefaultADCGain    = 0.23761904761904762
	DefaultShuntOhms  = 0.249
	DefaultADCOffset  = 0.0
)

// Defaults returns the compiled-in configuration. It drives no channels and
// has no network credentials, so a freshly flashed device idles until the
// host applies a real document.
func Defaults() Document {
	return Document{
		ModuleType:    "IoTbase PICO",
		MezzanineType: "IoTextra Digital",
		Channels:      nil,
		Network:       NetworkConfig{},
		MQTT: MQTTConfig{
			Port:      1883,
			ClientID:  "pico-iotextra-controller-1",
			BaseTopic: "iotextra/device_1",
		},
		Hardware: HardwareConfig{
			Mode:            ModeI2C,
			I2CBusID:        0,
			I2CSDAPin:       20,
			I2CSCLPin:       21,
			DeviceAddr:      "0x3f",
			EEPROMAddr:      DefaultEEPROMAddr,
			EEPROMSize:      DefaultEEPROMSize,
			ADCSamplingRate: DefaultSamplingRate,
			HostPins:        DefaultHostPins(),
		},
		PinConfig:    "0b00001111",
		StatusEveryS: DefaultStatusEveryS,
	}
}

// DefaultHostPins maps channels 1..8 to the HOST connector pins AP0..AP7.
func DefaultHostPins() map[int]int {
	return map[int]int{
		1: 10, 2: 11, 3: 12, 4: 13,
		5: 14, 6: 15, 7: 18, 8: 19,
	}
}

// Normalize fills absent optional fields with defaults. The document comes
// from an untrusted source; nothing here assumes field presence.
func (d *Document) Normalize() {
	def := Defaults()
	if d.MQTT.Port == 0 {
		d.MQTT.Port = def.MQTT.Port
	}
	d.MQTT.ClientID = strx.Coalesce(d.MQTT.ClientID, def.MQTT.ClientID)
	d.MQTT.BaseTopic = strx.Coalesce(d.MQTT.BaseTopic, def.MQTT.BaseTopic)
	d.Hardware.Mode = strx.Coalesce(d.Hardware.Mode, def.Hardware.Mode)
	d.Hardware.DeviceAddr = strx.Coalesce(d.Hardware.DeviceAddr, def.Hardware.DeviceAddr)
	d.Hardware.EEPROMAddr = strx.Coalesce(d.Hardware.EEPROMAddr, def.Hardware.EEPROMAddr)
	if d.Hardware.EEPROMSize == 0 {
		d.Hardware.EEPROMSize = def.Hardware.EEPROMSize
	}
	if d.Hardware.ADCSamplingRate == 0 {
		d.Hardware.ADCSamplingRate = def.Hardware.ADCSamplingRate
	}
	if len(d.Hardware.HostPins) == 0 {
		d.Hardware.HostPins = DefaultHostPins()
	}
	d.PinConfig = strx.Coalesce(d.PinConfig, def.PinConfig)
	if d.StatusEveryS <= 0 {
		d.StatusEveryS = def.StatusEveryS
	}
}
