package netlink

import (
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"iotflow-kernel/types"
	"iotflow-kernel/x/strconvx"
)

// Paho-backed Client. Paho delivers messages on its own goroutine, so they
// are queued here and handed to the cooperative loop one at a time from
// CheckForMessages; the command handler therefore always runs on the loop.

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 1 * time.Second
	inboxDepth     = 16
)

type inbound struct {
	topic   string
	payload string
}

type pahoClient struct {
	cfg       types.MQTTConfig
	onMessage MessageHandler
	cli       mqtt.Client
	inbox     chan inbound
}

// NewPahoClient is the ClientFactory used by platform wiring.
func NewPahoClient(cfg types.MQTTConfig, onMessage MessageHandler) Client {
	return &pahoClient{
		cfg:       cfg,
		onMessage: onMessage,
		inbox:     make(chan inbound, inboxDepth),
	}
}

func (c *pahoClient) Connect() bool {
	if c.cfg.Broker == "" {
		return false
	}
	if c.cli == nil {
		opts := mqtt.NewClientOptions().
			AddBroker("tcp://" + c.cfg.Broker + ":" + strconvx.Itoa(c.cfg.Port)).
			SetClientID(c.cfg.ClientID).
			SetConnectTimeout(connectTimeout).
			SetKeepAlive(30 * time.Second).
			SetAutoReconnect(false)
		c.cli = mqtt.NewClient(opts)
	}
	tok := c.cli.Connect()
	if !tok.WaitTimeout(connectTimeout) || tok.Error() != nil {
		println("[netlink] mqtt connect failed:", c.cfg.Broker)
		return false
	}
	println("[netlink] mqtt connected:", c.cfg.Broker)
	return true
}

func (c *pahoClient) Subscribe(topic string) {
	if c.cli == nil {
		return
	}
	tok := c.cli.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		select {
		case c.inbox <- inbound{topic: msg.Topic(), payload: string(msg.Payload())}:
		default:
			// Drop when the loop is not draining fast enough.
		}
	})
	tok.WaitTimeout(publishTimeout)
}

func (c *pahoClient) Publish(topic, payload string, retain bool) {
	if c.cli == nil || !c.cli.IsConnected() {
		return
	}
	c.cli.Publish(topic, 0, retain, payload).WaitTimeout(publishTimeout)
}

func (c *pahoClient) CheckForMessages() {
	select {
	case msg := <-c.inbox:
		if c.onMessage != nil {
			c.onMessage(msg.topic, msg.payload)
		}
	default:
	}
}

func (c *pahoClient) Disconnect() {
	if c.cli != nil && c.cli.IsConnected() {
		c.cli.Disconnect(250)
	}
}
