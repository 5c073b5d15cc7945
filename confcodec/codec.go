// Package confcodec packs the configuration document into the compact
// big-endian form stored in EEPROM and exchanged during round-trip
// validation. Pack and Unpack are inverse for every valid document.
package confcodec

import (
	"encoding/binary"
	"math"
	"sort"

	"iotflow-kernel/errcode"
	"iotflow-kernel/types"
)

// Version is the first payload byte; bump on layout changes.
const Version = 1

// Calibration presence flags per analog channel.
const (
	flagGain   = 1 << 0
	flagShunt  = 1 << 1
	flagOffset = 1 << 2
)

func Pack(doc types.Document) ([]byte, error) {
	if len(doc.Channels) > types.MaxChannels {
		return nil, &errcode.E{C: errcode.InvalidConfig, Op: "pack", Msg: "too many channels"}
	}
	var w writer
	w.u8(Version)
	w.str(doc.ModuleType)
	w.str(doc.MezzanineType)

	w.u8(uint8(len(doc.Channels)))
	for _, ch := range doc.Channels {
		w.str(ch.Name)
		w.str(ch.Type)
		w.str(ch.Interface)
		w.u8(uint8(ch.Number))
		w.u8(uint8(ch.Actions))
		w.str(ch.Range)
		var flags uint8
		if ch.Gain != nil {
			flags |= flagGain
		}
		if ch.Shunt != nil {
			flags |= flagShunt
		}
		if ch.Offset != nil {
			flags |= flagOffset
		}
		w.u8(flags)
		if ch.Gain != nil {
			w.f64(*ch.Gain)
		}
		if ch.Shunt != nil {
			w.f64(*ch.Shunt)
		}
		if ch.Offset != nil {
			w.f64(*ch.Offset)
		}
	}

	w.str(doc.Network.SSID)
	w.str(doc.Network.Password)

	w.str(doc.MQTT.Broker)
	w.u16(uint16(doc.MQTT.Port))
	w.str(doc.MQTT.ClientID)
	w.str(doc.MQTT.BaseTopic)

	h := doc.Hardware
	w.str(h.Mode)
	w.u8(uint8(h.I2CBusID))
	w.u8(uint8(h.I2CSDAPin))
	w.u8(uint8(h.I2CSCLPin))
	w.str(h.DeviceAddr)
	w.str(h.EEPROMAddr)
	w.u16(uint16(h.EEPROMSize))
	w.u8(uint8(len(h.ADCAddrs)))
	for _, a := range h.ADCAddrs {
		w.str(a)
	}
	w.u16(uint16(h.ADCSamplingRate))

	// Pin map in channel order so packing is deterministic.
	chans := make([]int, 0, len(h.HostPins))
	for c := range h.HostPins {
		chans = append(chans, c)
	}
	sort.Ints(chans)
	w.u8(uint8(len(chans)))
	for _, c := range chans {
		w.u8(uint8(c))
		w.u8(uint8(h.HostPins[c]))
	}

	w.str(doc.PinConfig)
	w.u16(uint16(doc.StatusEveryS))

	return w.buf, w.err
}

func Unpack(raw []byte) (types.Document, error) {
	var doc types.Document
	r := reader{buf: raw}

	if v := r.u8(); r.err == nil && v != Version {
		return doc, &errcode.E{C: errcode.DecodeFailed, Op: "unpack", Msg: "unknown version"}
	}
	doc.ModuleType = r.str()
	doc.MezzanineType = r.str()

	n := int(r.u8())
	if n > types.MaxChannels {
		return doc, &errcode.E{C: errcode.DecodeFailed, Op: "unpack", Msg: "channel count"}
	}
	for i := 0; i < n && r.err == nil; i++ {
		var ch types.Channel
		ch.Name = r.str()
		ch.Type = r.str()
		ch.Interface = r.str()
		ch.Number = int(r.u8())
		ch.Actions = int(r.u8())
		ch.Range = r.str()
		flags := r.u8()
		if flags&flagGain != 0 {
			v := r.f64()
			ch.Gain = &v
		}
		if flags&flagShunt != 0 {
			v := r.f64()
			ch.Shunt = &v
		}
		if flags&flagOffset != 0 {
			v := r.f64()
			ch.Offset = &v
		}
		doc.Channels = append(doc.Channels, ch)
	}

	doc.Network.SSID = r.str()
	doc.Network.Password = r.str()

	doc.MQTT.Broker = r.str()
	doc.MQTT.Port = int(r.u16())
	doc.MQTT.ClientID = r.str()
	doc.MQTT.BaseTopic = r.str()

	doc.Hardware.Mode = r.str()
	doc.Hardware.I2CBusID = int(r.u8())
	doc.Hardware.I2CSDAPin = int(r.u8())
	doc.Hardware.I2CSCLPin = int(r.u8())
	doc.Hardware.DeviceAddr = r.str()
	doc.Hardware.EEPROMAddr = r.str()
	doc.Hardware.EEPROMSize = int(r.u16())
	na := int(r.u8())
	for i := 0; i < na && r.err == nil; i++ {
		doc.Hardware.ADCAddrs = append(doc.Hardware.ADCAddrs, r.str())
	}
	doc.Hardware.ADCSamplingRate = int(r.u16())
	np := int(r.u8())
	if np > 0 {
		doc.Hardware.HostPins = make(map[int]int, np)
		for i := 0; i < np && r.err == nil; i++ {
			c := int(r.u8())
			doc.Hardware.HostPins[c] = int(r.u8())
		}
	}

	doc.PinConfig = r.str()
	doc.StatusEveryS = int(r.u16())

	if r.err != nil {
		return types.Document{}, r.err
	}
	if r.off != len(raw) {
		return types.Document{}, &errcode.E{C: errcode.DecodeFailed, Op: "unpack", Msg: "trailing bytes"}
	}
	return doc, nil
}

// ---- little buffer helpers (error-carrying, no allocations beyond buf) ----

type writer struct {
	buf []byte
	err error
}

func (w *writer) u8(v uint8) { w.buf = append(w.buf, v) }

func (w *writer) u16(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *writer) f64(v float64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], math.Float64bits(v))
	w.buf = append(w.buf, b[:]...)
}

func (w *writer) str(s string) {
	if len(s) > 0xFFFF {
		if w.err == nil {
			w.err = &errcode.E{C: errcode.InvalidConfig, Op: "pack", Msg: "string too long"}
		}
		return
	}
	w.u16(uint16(len(s)))
	w.buf = append(w.buf, s...)
}

type reader struct {
	buf []byte
	off int
	err error
}

func (r *reader) fail() {
	if r.err == nil {
		r.err = &errcode.E{C: errcode.DecodeFailed, Op: "unpack", Msg: "truncated payload"}
	}
}

func (r *reader) u8() uint8 {
	if r.err != nil || r.off+1 > len(r.buf) {
		r.fail()
		return 0
	}
	v := r.buf[r.off]
	r.off++
	return v
}

func (r *reader) u16() uint16 {
	if r.err != nil || r.off+2 > len(r.buf) {
		r.fail()
		return 0
	}
	v := binary.BigEndian.Uint16(r.buf[r.off:])
	r.off += 2
	return v
}

func (r *reader) f64() float64 {
	if r.err != nil || r.off+8 > len(r.buf) {
		r.fail()
		return 0
	}
	v := math.Float64frombits(binary.BigEndian.Uint64(r.buf[r.off:]))
	r.off += 8
	return v
}

func (r *reader) str() string {
	n := int(r.u16())
	if r.err != nil || r.off+n > len(r.buf) {
		r.fail()
		return ""
	}
	s := string(r.buf[r.off : r.off+n])
	r.off += n
	return s
}
