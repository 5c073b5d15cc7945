package errcode

// Code is a stable, host-facing error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK Code = "ok"

	// Host-link / document decoding.
	DecodeFailed   Code = "decode_failed"
	InvalidConfig  Code = "invalid_config"
	InvalidPayload Code = "invalid_payload"

	// Persistent store.
	StoreTooLarge Code = "store_too_large"
	StoreCorrupt  Code = "store_corrupt"
	StoreIO       Code = "store_io"

	// Peripheral I/O (expander, EEPROM, ADC).
	BusFault Code = "bus_fault"

	// Connectivity.
	NetDown  Code = "net_down"
	LinkDown Code = "link_down"
	Timeout  Code = "timeout"

	Error Code = "error" // generic fallback
)

// Optional wrapper when we want to keep context and a cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	if e.Msg != "" {
		return string(e.C) + ": " + e.Msg
	}
	return string(e.C)
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	return Error
}
