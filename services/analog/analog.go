// Package analog publishes scaled readings for the configured analog
// channels. The ADC itself is a collaborator behind the Reader interface;
// this package owns unit resolution and formatting only.
package analog

import (
	"iotflow-kernel/types"
	"iotflow-kernel/x/strconvx"
)

// Reader is the analog acquisition collaborator. ReadScaled returns the
// value in the channel's display unit (V or mA); RangeUnit resolves a
// measurement-range code from the collaborator's range table.
type Reader interface {
	ReadScaled(channel int) (float64, error)
	RangeUnit(code string) (string, bool)
}

// DefaultRangeUnit resolves a code against the built-in range table; Reader
// implementations without their own table delegate here.
func DefaultRangeUnit(code string) (string, bool) {
	r, ok := types.LookupRange(code)
	if !ok {
		return "", false
	}
	return r.Kind.Unit(), true
}

// PublishFunc delivers one formatted value for a 1-based channel.
type PublishFunc func(channel int, value string)

// Publisher reads every configured analog channel once per Service call and
// publishes the formatted value. Deadband is an extension point: when
// non-zero, values moving less than the deadband since the last publish are
// suppressed. It defaults to 0 (publish every cycle).
type Publisher struct {
	reader   Reader
	channels []types.Channel
	publish  PublishFunc

	Deadband float64
	last     map[int]float64
}

func NewPublisher(reader Reader, channels []types.Channel, publish PublishFunc) *Publisher {
	return &Publisher{
		reader:   reader,
		channels: channels,
		publish:  publish,
		last:     make(map[int]float64, len(channels)),
	}
}

// Service runs one acquisition/publish pass. Read failures skip the channel
// and leave the publisher usable.
func (p *Publisher) Service() {
	for _, ch := range p.channels {
		v, err := p.reader.ReadScaled(ch.Number)
		if err != nil {
			println("[analog] read failed, channel", ch.Number)
			continue
		}
		if p.Deadband > 0 {
			if prev, ok := p.last[ch.Number]; ok && abs(v-prev) < p.Deadband {
				continue
			}
		}
		s := strconvx.FormatFloat(v, 'f', 3, 64)
		println("[analog]", ch.Name, s, p.UnitFor(ch))
		p.publish(ch.Number+1, s)
		p.last[ch.Number] = v
	}
}

// UnitFor resolves the display unit for a channel: range table first, then
// the channel's own tag, defaulting to current measurement.
func (p *Publisher) UnitFor(ch types.Channel) string {
	if u, ok := p.reader.RangeUnit(ch.Range); ok {
		return u
	}
	return types.RangeCurrent.Unit()
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
