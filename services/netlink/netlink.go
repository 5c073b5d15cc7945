// Package netlink owns connectivity: the Wi-Fi association (Radio), the
// MQTT session (Client) and the reconnect watchdog that keeps a deployed
// device self-healing. All dispatch is synchronous; CheckForMessages drains
// at most one inbound message per call so the cooperative loop stays in
// charge of scheduling.
package netlink

import (
	"strings"

	"iotflow-kernel/types"
	"iotflow-kernel/x/strconvx"
	"iotflow-kernel/x/timex"
)

// Radio is the network-layer collaborator. Connect blocks up to the
// platform's association timeout and reports success.
type Radio interface {
	Connect(ssid, password string) bool
	IsConnected() bool
	Disconnect()
}

// MessageHandler receives one inbound bus message.
type MessageHandler func(topic, payload string)

// Client is the message-bus collaborator.
type Client interface {
	Connect() bool
	Subscribe(topic string)
	Publish(topic, payload string, retain bool)
	// CheckForMessages dispatches at most one pending inbound message to the
	// handler registered at construction. Non-blocking.
	CheckForMessages()
	Disconnect()
}

// ClientFactory builds a Client delivering inbound messages to the handler.
type ClientFactory func(cfg types.MQTTConfig, onMessage MessageHandler) Client

// Watchdog states.
type LinkState uint8

const (
	LinkConnected LinkState = iota
	LinkRetryWindowOpen
	LinkRetryExhausted
)

// retryWindowMs bounds how long after a loss reconnects are attempted.
const retryWindowMs = 20_000

// Manager composes the radio and the bus client for one configuration.
// It is rebuilt wholesale on every apply.
type Manager struct {
	radio  Radio
	client Client
	net    types.NetworkConfig
	base   string

	// CommandFunc handles a decoded output command (channel 1..8) and
	// reports whether the command was applied.
	CommandFunc func(channel int, on bool) bool

	state    LinkState
	lostAtMs int64
	nowMs    func() int64
}

func NewManager(radio Radio, newClient ClientFactory, net types.NetworkConfig, mq types.MQTTConfig) *Manager {
	m := &Manager{
		radio: radio,
		net:   net,
		base:  mq.BaseTopic,
		nowMs: timex.NowMs,
	}
	m.client = newClient(mq, m.handleMessage)
	return m
}

// ConnectNetwork associates with the configured network. A device with no
// SSID stays offline by design.
func (m *Manager) ConnectNetwork() bool {
	if m.net.SSID == "" {
		println("[netlink] no SSID configured, skipping network connect")
		return false
	}
	return m.radio.Connect(m.net.SSID, m.net.Password)
}

func (m *Manager) NetworkUp() bool { return m.radio.IsConnected() }

// ConnectBus opens the MQTT session, re-subscribes the command topic and
// republishes the retained online status. Requires the network layer up.
func (m *Manager) ConnectBus() bool {
	if !m.radio.IsConnected() {
		return false
	}
	if !m.client.Connect() {
		return false
	}
	m.client.Subscribe(m.base + "/output/+/set")
	m.client.Publish(m.base+"/status", "online", true)
	return true
}

func (m *Manager) CheckForMessages() { m.client.CheckForMessages() }

// PublishStatus publishes the heartbeat (not retained; the retained copy is
// written on connect).
func (m *Manager) PublishStatus() {
	m.client.Publish(m.base+"/status", "online", false)
}

// PublishInput publishes a digital input edge, retained.
func (m *Manager) PublishInput(channel int, on bool) {
	m.client.Publish(m.base+"/input/"+strconvx.Itoa(channel), boolPayload(on), true)
}

// PublishAnalog publishes one formatted analog value, retained.
func (m *Manager) PublishAnalog(channel int, value string) {
	m.client.Publish(m.base+"/analog/"+strconvx.Itoa(channel), value, true)
}

// Disconnect tears the session down; used when a new configuration replaces
// this manager.
func (m *Manager) Disconnect() {
	m.client.Disconnect()
}

// MarkUp is called on ticks where the network layer is observed connected.
// It re-arms the watchdog: only a fresh loss event starts a new window.
func (m *Manager) MarkUp() {
	if m.state != LinkConnected {
		m.state = LinkConnected
		m.lostAtMs = 0
	}
}

// Tick drives the watchdog on ticks where the network layer is down.
func (m *Manager) Tick() {
	switch m.state {
	case LinkConnected:
		m.state = LinkRetryWindowOpen
		m.lostAtMs = m.nowMs()
		println("[netlink] network lost, opening retry window")
		m.retry()
	case LinkRetryWindowOpen:
		if m.nowMs()-m.lostAtMs < retryWindowMs {
			m.retry()
		} else {
			m.state = LinkRetryExhausted
			println("[netlink] retry window elapsed, waiting for next connection")
		}
	case LinkRetryExhausted:
		// Stay quiet until MarkUp observes a connection.
	}
}

func (m *Manager) State() LinkState { return m.state }

func (m *Manager) retry() {
	if m.ConnectNetwork() {
		m.ConnectBus()
	}
}

// handleMessage decodes ".../output/{n}/set" commands, applies them through
// CommandFunc and echoes the applied state, retained. Commands the handler
// refuses are not echoed.
func (m *Manager) handleMessage(topic, payload string) {
	parts := strings.Split(topic, "/")
	if len(parts) < 3 || parts[len(parts)-1] != "set" || parts[len(parts)-3] != "output" {
		return
	}
	channel, err := strconvx.Atoi(parts[len(parts)-2])
	if err != nil || channel < 1 || channel > 8 {
		return
	}
	v, err := strconvx.Atoi(payload)
	if err != nil {
		return
	}
	on := v != 0
	if m.CommandFunc == nil || !m.CommandFunc(channel, on) {
		return
	}
	m.client.Publish(m.base+"/output/"+strconvx.Itoa(channel)+"/state", boolPayload(on), true)
}

func boolPayload(on bool) string {
	if on {
		return "1"
	}
	return "0"
}
