package hostlink

import "bytes"

// Frame markers, shared with the host-side configurator. Payloads containing
// the literal marker text are unsupported by this protocol.
const (
	StartMarker = "<START>"
	EndMarker   = "<END>"
)

// Scanner accumulates a character stream and slices out marker-delimited
// payloads. Chunk boundaries may fall anywhere, including mid-marker; bytes
// after a consumed frame are preserved for the next one.
type Scanner struct {
	buf []byte
}

// Push appends one received byte.
func (s *Scanner) Push(b byte) { s.buf = append(s.buf, b) }

// Next returns the payload of the first complete frame in the buffer and
// consumes it, or ok=false when no complete frame is buffered yet.
func (s *Scanner) Next() ([]byte, bool) {
	start := bytes.Index(s.buf, []byte(StartMarker))
	if start < 0 {
		// Marker-free noise is worthless: keep only a tail short enough to
		// hold a split start marker so the buffer stays bounded.
		if n := len(s.buf) - (len(StartMarker) - 1); n > 0 {
			s.buf = append(s.buf[:0], s.buf[n:]...)
		}
		return nil, false
	}
	end := bytes.Index(s.buf[start:], []byte(EndMarker))
	if end < 0 {
		// Drop noise ahead of the start marker while waiting for the rest.
		if start > 0 {
			s.buf = append(s.buf[:0], s.buf[start:]...)
		}
		return nil, false
	}
	end += start
	payload := append([]byte(nil), s.buf[start+len(StartMarker):end]...)
	s.buf = append(s.buf[:0], s.buf[end+len(EndMarker):]...)
	return payload, true
}
