package confstore

import (
	"bytes"
	"errors"
	"testing"
)

// ramStorage is a flat byte image, same shape as the EEPROM driver presents.
type ramStorage struct {
	img  []byte
	fail bool
}

var errRAM = errors.New("storage fault")

func (r *ramStorage) ReadAt(off int, buf []byte) error {
	if r.fail {
		return errRAM
	}
	copy(buf, r.img[off:])
	return nil
}

func (r *ramStorage) WriteAt(off int, data []byte) error {
	if r.fail {
		return errRAM
	}
	copy(r.img[off:], data)
	return nil
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	ram := &ramStorage{img: make([]byte, 1024)}
	st := New(ram, 1024)

	payload := []byte("packed configuration record")
	if err := st.Save(payload); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := st.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("Load=%q want %q", got, payload)
	}
}

func TestSaveLoad_HeaderLayout(t *testing.T) {
	ram := &ramStorage{img: make([]byte, 1024)}
	st := New(ram, 1024)

	if err := st.Save([]byte{0xAB, 0xCD, 0xEF}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	// Two-byte big-endian length at 0x000, payload from 0x002.
	if ram.img[0] != 0x00 || ram.img[1] != 0x03 {
		t.Fatalf("header=% x", ram.img[:2])
	}
	if !bytes.Equal(ram.img[2:5], []byte{0xAB, 0xCD, 0xEF}) {
		t.Fatalf("payload=% x", ram.img[2:5])
	}
}

func TestSave_RejectsOversizedPayload(t *testing.T) {
	st := New(&ramStorage{img: make([]byte, 64)}, 64)
	if err := st.Save(make([]byte, 63)); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("err=%v, want ErrTooLarge", err)
	}
	// 62 bytes + 2 header bytes exactly fills the device.
	if err := st.Save(make([]byte, 62)); err != nil {
		t.Fatalf("exact fit rejected: %v", err)
	}
}

func TestLoad_RejectsImpossibleHeader(t *testing.T) {
	ram := &ramStorage{img: make([]byte, 64)}
	ram.img[0] = 0xFF
	ram.img[1] = 0xFF
	st := New(ram, 64)
	if _, err := st.Load(); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("err=%v, want ErrCorrupt", err)
	}
}

func TestSaveLoad_PropagatesStorageFaults(t *testing.T) {
	ram := &ramStorage{img: make([]byte, 64), fail: true}
	st := New(ram, 64)
	if err := st.Save([]byte{1}); err == nil {
		t.Fatalf("Save swallowed storage fault")
	}
	if _, err := st.Load(); err == nil {
		t.Fatalf("Load swallowed storage fault")
	}
}

func TestLoad_EmptyDeviceIsZeroLength(t *testing.T) {
	st := New(&ramStorage{img: make([]byte, 64)}, 64)
	got, err := st.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("fresh device returned %d bytes", len(got))
	}
}
