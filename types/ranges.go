package types

// Measurement-range codes for analog channels. The code is carried in the
// document as a binary string ("0b00100010"); bit 5 distinguishes current
// ranges from voltage ranges, bit 7 marks bipolar ranges.

type RangeKind uint8

const (
	RangeVoltage RangeKind = iota
	RangeCurrent
)

func (k RangeKind) Unit() string {
	if k == RangeCurrent {
		return "mA"
	}
	return "V"
}

type Range struct {
	Code  uint8
	Kind  RangeKind
	Label string
}

var ranges = map[uint8]Range{
	0x01: {0x01, RangeVoltage, "Voltage 0-0.5V"},
	0x02: {0x02, RangeVoltage, "Voltage 0-5V"},
	0x03: {0x03, RangeVoltage, "Voltage 0-10V"},
	0x81: {0x81, RangeVoltage, "Voltage ±0.5V"},
	0x82: {0x82, RangeVoltage, "Voltage ±5V"},
	0x83: {0x83, RangeVoltage, "Voltage ±10V"},
	0x21: {0x21, RangeCurrent, "Current 0-20mA"},
	0xA1: {0xA1, RangeCurrent, "Current ±20mA"},
	0x22: {0x22, RangeCurrent, "Current 4-20mA"},
	0x23: {0x23, RangeCurrent, "Current 0-40mA"},
}

// LookupRange resolves a binary-string range code ("0b…") from the table.
func LookupRange(code string) (Range, bool) {
	v, err := ParseMask(code)
	if err != nil {
		return Range{}, false
	}
	r, ok := ranges[v]
	return r, ok
}

// SamplingRateCode maps an SPS value to the ADC configuration selector.
// 128 SPS is the ADS1115 default.
var SamplingRateCode = map[int]uint8{
	8:   0,
	16:  1,
	32:  2,
	64:  3,
	128: 4,
	250: 5,
	475: 6,
	860: 7,
}
