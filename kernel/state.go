// Package kernel is the cooperative runtime: it owns the live state built
// from the active configuration, the boot sequence and the main loop.
package kernel

import (
	"tinygo.org/x/drivers"

	"iotflow-kernel/confstore"
	"iotflow-kernel/services/analog"
	"iotflow-kernel/services/digio"
	"iotflow-kernel/services/hostlink"
	"iotflow-kernel/services/netlink"
	"iotflow-kernel/types"
)

// Platform is everything the runtime needs from the board it runs on.
// Filled once at startup by the build-tagged platform file.
type Platform struct {
	Bus     drivers.I2C
	OpenPin digio.PinOpener

	Radio     netlink.Radio
	NewClient netlink.ClientFactory

	// NewReader builds the analog acquisition collaborator for a document,
	// or returns nil when the board has no analog frontend.
	NewReader func(doc types.Document) analog.Reader

	Storage     confstore.Storage
	StorageSize int

	Port hostlink.Port

	Restart func()
}

// State is the live runtime built from one configuration document. A new
// apply replaces it wholesale; nothing is patched in place.
type State struct {
	Doc    types.Document
	Driver digio.Driver
	Analog *analog.Publisher
	Link   *netlink.Manager
}

// BuildState constructs the full runtime for a validated document.
func BuildState(p Platform, doc types.Document) *State {
	mask, err := doc.DirectionMask()
	if err != nil {
		// Validate catches this earlier; an unparseable mask here means all
		// positions become outputs.
		println("[kernel] bad pin mask:", doc.PinConfig)
	}
	drv := digio.New(doc.Hardware, mask, p.Bus, p.OpenPin)

	link := netlink.NewManager(p.Radio, p.NewClient, doc.Network, doc.MQTT)
	link.CommandFunc = func(channel int, on bool) bool {
		for _, ch := range doc.DigitalChannels() {
			if ch.Number+1 != channel {
				continue
			}
			if !ch.Writable() {
				println("[kernel] ignoring write to read-only channel", channel)
				return false
			}
			drv.SetOutput(channel, on)
			return true
		}
		println("[kernel] ignoring write to unconfigured channel", channel)
		return false
	}

	var pub *analog.Publisher
	if chs := doc.AnalogChannels(); len(chs) > 0 && p.NewReader != nil {
		if rd := p.NewReader(doc); rd != nil {
			pub = analog.NewPublisher(rd, chs, link.PublishAnalog)
		}
	}

	return &State{Doc: doc, Driver: drv, Analog: pub, Link: link}
}
