package kernel

import (
	"time"

	"iotflow-kernel/confcodec"
	"iotflow-kernel/confstore"
	"iotflow-kernel/services/digio"
	"iotflow-kernel/services/hostlink"
	"iotflow-kernel/types"
	"iotflow-kernel/x/timex"
)

const tickInterval = 10 * time.Millisecond

// Kernel runs everything on one goroutine. Host-link traffic takes strict
// priority over bus traffic: a tick with pending host bytes services the
// host link only.
type Kernel struct {
	p     Platform
	store *confstore.Store
	host  *hostlink.Handler
	st    *State

	lastInputs   digio.Snapshot
	haveInputs   bool
	lastStatusMs int64

	sleep func(d time.Duration)
	nowMs func() int64
}

func New(p Platform) *Kernel {
	k := &Kernel{p: p, sleep: time.Sleep, nowMs: timex.NowMs}
	k.store = confstore.New(p.Storage, p.StorageSize)
	k.host = hostlink.New(p.Port, k.store, k.applyDoc, k.reconnect)
	return k
}

// applyDoc swaps the live state for one built from doc. The old bus session
// is closed first so the broker sees a clean reconnect.
func (k *Kernel) applyDoc(doc types.Document) {
	if k.st != nil {
		k.st.Link.Disconnect()
	}
	k.st = BuildState(k.p, doc)
	k.lastInputs = digio.Snapshot{}
	k.haveInputs = false
	println("[kernel] configuration applied:", doc.ModuleType)
}

func (k *Kernel) reconnect() {
	if k.st.Link.ConnectNetwork() {
		k.st.Link.ConnectBus()
	}
}

// Boot restores the persisted configuration, falling back to compiled-in
// defaults on any storage or decode failure, then brings connectivity up.
func (k *Kernel) Boot() {
	doc := types.Defaults()
	raw, err := k.store.Load()
	if err != nil {
		println("[kernel] no stored configuration, using defaults:", err.Error())
	} else if restored, uerr := confcodec.Unpack(raw); uerr != nil {
		println("[kernel] stored configuration unreadable, using defaults:", uerr.Error())
	} else {
		restored.Normalize()
		if verr := restored.Validate(); verr != nil {
			println("[kernel] stored configuration invalid, using defaults:", verr.Error())
		} else {
			doc = restored
			println("[kernel] restored stored configuration")
		}
	}
	k.applyDoc(doc)
	k.reconnect()
	k.lastStatusMs = k.nowMs()
}

// Run boots and then ticks forever.
func (k *Kernel) Run() {
	k.Boot()
	for {
		k.tick()
		k.sleep(tickInterval)
	}
}

func (k *Kernel) tick() {
	if k.host.Pending() {
		k.host.Service()
		return
	}
	st := k.st
	if st.Link.NetworkUp() {
		st.Link.MarkUp()
		st.Link.CheckForMessages()
		k.publishInputChanges()
		if st.Analog != nil {
			st.Analog.Service()
		}
		now := k.nowMs()
		if now-k.lastStatusMs >= int64(st.Doc.StatusEveryS)*1000 {
			st.Link.PublishStatus()
			k.lastStatusMs = now
		}
	} else {
		st.Link.Tick()
	}
}

// publishInputChanges reads one input snapshot and publishes every position
// that changed since the previous snapshot. The first readable snapshot
// publishes all known positions so the broker starts from the real state.
func (k *Kernel) publishInputChanges() {
	snap, ok := k.st.Driver.ReadAllInputs()
	if !ok {
		return
	}
	if k.haveInputs && snap == k.lastInputs {
		return
	}
	for i := 0; i < len(snap); i++ {
		if snap[i] == digio.Unknown {
			continue
		}
		if k.haveInputs && snap[i] == k.lastInputs[i] {
			continue
		}
		k.st.Link.PublishInput(i+1, snap[i] == digio.On)
	}
	k.lastInputs = snap
	k.haveInputs = true
}
