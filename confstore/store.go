// Package confstore persists the packed configuration blob with a two-byte
// big-endian length header at a fixed offset. It sits on top of any
// byte-addressable storage (the EEPROM driver on hardware, a RAM image in
// tests). Errors degrade: callers fall back to compiled-in defaults.
package confstore

import (
	"encoding/binary"

	"iotflow-kernel/errcode"
)

// Storage layout.
const (
	lenOffset     = 0x000
	payloadOffset = 0x002
	headerSize    = 2
)

// Sentinel errors; both satisfy errors.Is against themselves and expose a
// stable code to the host link.
var (
	ErrTooLarge = errcode.StoreTooLarge
	ErrCorrupt  = errcode.StoreCorrupt
)

// Storage is the raw persistence collaborator.
type Storage interface {
	ReadAt(off int, buf []byte) error
	WriteAt(off int, data []byte) error
}

type Store struct {
	s        Storage
	capacity int
}

func New(s Storage, capacity int) *Store {
	return &Store{s: s, capacity: capacity}
}

// Save writes the length header followed by the payload. It refuses payloads
// that do not fit the device. No partial-write recovery is attempted; callers
// confirm the write with a read-back.
func (st *Store) Save(payload []byte) error {
	if len(payload) > st.capacity-headerSize {
		return ErrTooLarge
	}
	var hdr [headerSize]byte
	binary.BigEndian.PutUint16(hdr[:], uint16(len(payload)))
	if err := st.s.WriteAt(lenOffset, hdr[:]); err != nil {
		return &errcode.E{C: errcode.StoreIO, Op: "save", Err: err}
	}
	if err := st.s.WriteAt(payloadOffset, payload); err != nil {
		return &errcode.E{C: errcode.StoreIO, Op: "save", Err: err}
	}
	return nil
}

// Load reads the header first and refuses impossible lengths before touching
// the payload region.
func (st *Store) Load() ([]byte, error) {
	var hdr [headerSize]byte
	if err := st.s.ReadAt(lenOffset, hdr[:]); err != nil {
		return nil, &errcode.E{C: errcode.StoreIO, Op: "load", Err: err}
	}
	n := int(binary.BigEndian.Uint16(hdr[:]))
	if n > st.capacity-headerSize {
		return nil, ErrCorrupt
	}
	buf := make([]byte, n)
	if err := st.s.ReadAt(payloadOffset, buf); err != nil {
		return nil, &errcode.E{C: errcode.StoreIO, Op: "load", Err: err}
	}
	return buf, nil
}
