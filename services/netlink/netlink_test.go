package netlink

import (
	"testing"

	"iotflow-kernel/types"
)

type fakeRadio struct {
	up       bool
	attempts int
	accept   bool
}

func (r *fakeRadio) Connect(ssid, password string) bool {
	r.attempts++
	if r.accept {
		r.up = true
	}
	return r.accept
}
func (r *fakeRadio) IsConnected() bool { return r.up }
func (r *fakeRadio) Disconnect()       { r.up = false }

type pub struct {
	topic   string
	payload string
	retain  bool
}

type fakeClient struct {
	onMessage MessageHandler
	accept    bool
	connects  int
	subs      []string
	pubs      []pub
	closed    bool
}

func (c *fakeClient) Connect() bool {
	c.connects++
	return c.accept
}
func (c *fakeClient) Subscribe(topic string) { c.subs = append(c.subs, topic) }
func (c *fakeClient) Publish(topic, payload string, retain bool) {
	c.pubs = append(c.pubs, pub{topic, payload, retain})
}
func (c *fakeClient) CheckForMessages() {}
func (c *fakeClient) Disconnect()       { c.closed = true }

func (c *fakeClient) inject(topic, payload string) { c.onMessage(topic, payload) }

func newTestManager(radio *fakeRadio, client *fakeClient) *Manager {
	factory := func(cfg types.MQTTConfig, onMessage MessageHandler) Client {
		client.onMessage = onMessage
		return client
	}
	net := types.NetworkConfig{SSID: "plant-net", Password: "pw"}
	mq := types.MQTTConfig{Broker: "10.0.0.2", Port: 1883, BaseTopic: "iotextra/device_1"}
	return NewManager(radio, factory, net, mq)
}

func TestConnectBus_SubscribesAndAnnounces(t *testing.T) {
	radio := &fakeRadio{up: true}
	client := &fakeClient{accept: true}
	m := newTestManager(radio, client)

	if !m.ConnectBus() {
		t.Fatalf("ConnectBus failed")
	}
	if len(client.subs) != 1 || client.subs[0] != "iotextra/device_1/output/+/set" {
		t.Fatalf("subs=%v", client.subs)
	}
	if len(client.pubs) != 1 {
		t.Fatalf("pubs=%v", client.pubs)
	}
	got := client.pubs[0]
	if got.topic != "iotextra/device_1/status" || got.payload != "online" || !got.retain {
		t.Fatalf("status publish=%+v", got)
	}
}

func TestConnectBus_RequiresNetworkUp(t *testing.T) {
	radio := &fakeRadio{up: false}
	client := &fakeClient{accept: true}
	m := newTestManager(radio, client)

	if m.ConnectBus() {
		t.Fatalf("ConnectBus succeeded with network down")
	}
	if client.connects != 0 {
		t.Fatalf("client contacted with network down")
	}
}

func TestConnectNetwork_SkipsWithoutSSID(t *testing.T) {
	radio := &fakeRadio{accept: true}
	client := &fakeClient{}
	factory := func(cfg types.MQTTConfig, onMessage MessageHandler) Client { return client }
	m := NewManager(radio, factory, types.NetworkConfig{}, types.MQTTConfig{})

	if m.ConnectNetwork() {
		t.Fatalf("connected with no SSID")
	}
	if radio.attempts != 0 {
		t.Fatalf("radio contacted with no SSID")
	}
}

func TestPublishHelpers(t *testing.T) {
	radio := &fakeRadio{up: true}
	client := &fakeClient{accept: true}
	m := newTestManager(radio, client)

	m.PublishStatus()
	m.PublishInput(3, true)
	m.PublishAnalog(2, "4.096")

	want := []pub{
		{"iotextra/device_1/status", "online", false},
		{"iotextra/device_1/input/3", "1", true},
		{"iotextra/device_1/analog/2", "4.096", true},
	}
	if len(client.pubs) != len(want) {
		t.Fatalf("pubs=%v", client.pubs)
	}
	for i := range want {
		if client.pubs[i] != want[i] {
			t.Fatalf("pub %d=%+v want %+v", i, client.pubs[i], want[i])
		}
	}
}

func TestHandleMessage_CommandAndEcho(t *testing.T) {
	radio := &fakeRadio{up: true}
	client := &fakeClient{accept: true}
	m := newTestManager(radio, client)

	var gotChannel int
	var gotOn bool
	m.CommandFunc = func(channel int, on bool) bool {
		gotChannel = channel
		gotOn = on
		return true
	}

	client.inject("iotextra/device_1/output/5/set", "1")
	if gotChannel != 5 || !gotOn {
		t.Fatalf("command channel=%d on=%v", gotChannel, gotOn)
	}
	if len(client.pubs) != 1 {
		t.Fatalf("pubs=%v", client.pubs)
	}
	echo := client.pubs[0]
	if echo.topic != "iotextra/device_1/output/5/state" || echo.payload != "1" || !echo.retain {
		t.Fatalf("echo=%+v", echo)
	}

	client.inject("iotextra/device_1/output/5/set", "0")
	if gotOn {
		t.Fatalf("off command not applied")
	}
}

func TestHandleMessage_IgnoresMalformedTopics(t *testing.T) {
	radio := &fakeRadio{up: true}
	client := &fakeClient{accept: true}
	m := newTestManager(radio, client)

	fired := false
	m.CommandFunc = func(int, bool) bool {
		fired = true
		return true
	}

	client.inject("iotextra/device_1/output/5/get", "1")
	client.inject("iotextra/device_1/input/5/set", "1")
	client.inject("iotextra/device_1/output/nine/set", "1")
	client.inject("iotextra/device_1/output/0/set", "1")
	client.inject("iotextra/device_1/output/9/set", "1")
	client.inject("iotextra/device_1/output/5/set", "notanumber")

	if fired || len(client.pubs) != 0 {
		t.Fatalf("fired=%v pubs=%v", fired, client.pubs)
	}
}

func TestHandleMessage_RefusedCommandNotEchoed(t *testing.T) {
	radio := &fakeRadio{up: true}
	client := &fakeClient{accept: true}
	m := newTestManager(radio, client)

	m.CommandFunc = func(int, bool) bool { return false }
	client.inject("iotextra/device_1/output/5/set", "1")

	if len(client.pubs) != 0 {
		t.Fatalf("refused command echoed: %v", client.pubs)
	}
}

func TestWatchdog_RetriesOnlyInsideWindow(t *testing.T) {
	radio := &fakeRadio{accept: false}
	client := &fakeClient{}
	m := newTestManager(radio, client)

	now := int64(1000)
	m.nowMs = func() int64 { return now }

	// Loss detected: window opens and the first retry fires.
	m.Tick()
	if m.State() != LinkRetryWindowOpen || radio.attempts != 1 {
		t.Fatalf("state=%v attempts=%d", m.State(), radio.attempts)
	}

	// Inside the window every tick retries.
	now += 5000
	m.Tick()
	now += 5000
	m.Tick()
	if radio.attempts != 3 {
		t.Fatalf("attempts=%d", radio.attempts)
	}

	// Past 20s the watchdog gives up.
	now += 10001
	m.Tick()
	if m.State() != LinkRetryExhausted {
		t.Fatalf("state=%v", m.State())
	}
	attempts := radio.attempts
	m.Tick()
	m.Tick()
	if radio.attempts != attempts {
		t.Fatalf("exhausted watchdog kept retrying")
	}
}

func TestWatchdog_MarkUpRearms(t *testing.T) {
	radio := &fakeRadio{accept: false}
	client := &fakeClient{}
	m := newTestManager(radio, client)

	now := int64(0)
	m.nowMs = func() int64 { return now }

	m.Tick()
	now += 30000
	m.Tick()
	if m.State() != LinkRetryExhausted {
		t.Fatalf("state=%v", m.State())
	}

	m.MarkUp()
	if m.State() != LinkConnected {
		t.Fatalf("state=%v after MarkUp", m.State())
	}

	// A fresh loss opens a fresh window.
	attempts := radio.attempts
	m.Tick()
	if m.State() != LinkRetryWindowOpen || radio.attempts != attempts+1 {
		t.Fatalf("state=%v attempts=%d", m.State(), radio.attempts)
	}
}

func TestWatchdog_SuccessfulRetryReconnectsBus(t *testing.T) {
	radio := &fakeRadio{accept: true}
	client := &fakeClient{accept: true}
	m := newTestManager(radio, client)

	m.nowMs = func() int64 { return 0 }
	m.Tick()
	if client.connects != 1 {
		t.Fatalf("connects=%d", client.connects)
	}
	if len(client.subs) != 1 {
		t.Fatalf("subs=%v", client.subs)
	}
}

func TestDisconnect_ClosesClient(t *testing.T) {
	radio := &fakeRadio{up: true}
	client := &fakeClient{accept: true}
	m := newTestManager(radio, client)

	m.Disconnect()
	if !client.closed {
		t.Fatalf("client not closed")
	}
}
