// Package hostlink implements the control protocol spoken with the host
// configurator over a character stream: marker-delimited JSON frames
// carrying either a read request or a full configuration document to apply.
package hostlink

import (
	"encoding/json"
	"time"

	"iotflow-kernel/confcodec"
	"iotflow-kernel/confstore"
	"iotflow-kernel/errcode"
	"iotflow-kernel/types"
)

// Port is the character-stream collaborator (USB CDC or UART).
type Port interface {
	// Buffered reports how many received bytes are pending.
	Buffered() int
	ReadByte() (byte, error)
	WriteString(s string)
}

// Applier swaps the live runtime state for a freshly applied document.
type Applier func(doc types.Document)

type Handler struct {
	port      Port
	store     *confstore.Store
	apply     Applier
	reconnect func()

	sc    Scanner
	yield func()
}

// New wires the handler. reconnect is invoked after a successful apply when
// the document carries network credentials; it may be nil.
func New(port Port, store *confstore.Store, apply Applier, reconnect func()) *Handler {
	return &Handler{
		port:      port,
		store:     store,
		apply:     apply,
		reconnect: reconnect,
		yield:     func() { time.Sleep(1 * time.Millisecond) },
	}
}

// Pending reports whether any host bytes are waiting.
func (h *Handler) Pending() bool { return h.port.Buffered() > 0 }

// Service drains every currently pending byte, processing complete frames as
// they appear, and yields briefly between passes so a host sending a large
// burst is never half-read. It returns once no further bytes are pending.
func (h *Handler) Service() {
	for {
		n := h.port.Buffered()
		if n == 0 {
			return
		}
		for i := 0; i < n; i++ {
			b, err := h.port.ReadByte()
			if err != nil {
				break
			}
			h.sc.Push(b)
			if payload, ok := h.sc.Next(); ok {
				h.dispatch(payload)
			}
		}
		h.yield() // let the receive buffer refill
	}
}

// dispatch handles one framed payload. Nothing that happens in here may
// crash the loop: malformed documents, store failures and panics all turn
// into logged error replies.
func (h *Handler) dispatch(payload []byte) {
	defer func() {
		if r := recover(); r != nil {
			println("[hostlink] dispatch panic recovered")
			h.replyError("internal error", errcode.Error)
		}
	}()

	var probe map[string]any
	if err := json.Unmarshal(payload, &probe); err != nil {
		println("[hostlink] malformed frame payload")
		h.replyError("malformed request", errcode.InvalidPayload)
		return
	}
	if cmd, _ := probe["command"].(string); cmd == "read" {
		h.handleRead()
		return
	}
	h.handleApply(payload)
}

func (h *Handler) handleRead() {
	raw, err := h.store.Load()
	if err != nil {
		println("[hostlink] read: store load failed")
		h.replyFail(err)
		return
	}
	doc, err := confcodec.Unpack(raw)
	if err != nil {
		println("[hostlink] read: unpack failed")
		h.replyFail(err)
		return
	}
	h.replyDoc(doc)
}

func (h *Handler) handleApply(payload []byte) {
	var doc types.Document
	if err := json.Unmarshal(payload, &doc); err != nil {
		println("[hostlink] apply: document decode failed")
		h.replyError("invalid configuration document", errcode.InvalidPayload)
		return
	}
	doc.Normalize()
	if err := doc.Validate(); err != nil {
		println("[hostlink] apply: validation failed:", err.Error())
		h.replyFail(err)
		return
	}

	packed, err := confcodec.Pack(doc)
	if err != nil {
		h.replyFail(err)
		return
	}
	if err := h.store.Save(packed); err != nil {
		println("[hostlink] apply: save failed:", err.Error())
		h.replyFail(err)
		return
	}

	// Round-trip validation: read the record back and decode it before
	// acknowledging or applying anything.
	raw, err := h.store.Load()
	if err != nil {
		h.replyFail(err)
		return
	}
	restored, err := confcodec.Unpack(raw)
	if err != nil {
		h.replyFail(err)
		return
	}

	h.replyDoc(restored)
	h.apply(restored)
	if restored.Network.SSID != "" && h.reconnect != nil {
		h.reconnect()
	}
}

func (h *Handler) replyDoc(doc types.Document) {
	b, err := json.Marshal(doc)
	if err != nil {
		h.replyError("failed to encode configuration", errcode.Error)
		return
	}
	h.port.WriteString(StartMarker + string(b) + EndMarker + "\n")
}

// replyFail answers with the error message and its stable code so the host
// can key on codes rather than message text.
func (h *Handler) replyFail(err error) {
	h.replyError(err.Error(), errcode.Of(err))
}

func (h *Handler) replyError(msg string, code errcode.Code) {
	b, _ := json.Marshal(map[string]string{"error": msg, "code": string(code)})
	h.port.WriteString(StartMarker + string(b) + EndMarker + "\n")
}
