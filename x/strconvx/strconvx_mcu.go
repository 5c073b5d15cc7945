//go:build rp2040 || rp2350

package strconvx

// Minimal, allocation-aware replacements for the strconv calls this firmware
// makes. Bases 2..36. FormatFloat supports 'f' with a fixed precision, which
// is all the analog publisher needs; it is not IEEE-perfect.

type parseError struct{}

func (parseError) Error() string { return "invalid syntax" }

func Itoa(i int) string { return FormatInt(int64(i), 10) }

func Atoi(s string) (int, error) {
	v, err := ParseInt(s, 10, 0)
	return int(v), err
}

func FormatInt(i int64, base int) string {
	if base < 2 || base > 36 {
		base = 10
	}
	if i < 0 {
		return "-" + FormatUint(uint64(-i), base)
	}
	return FormatUint(uint64(i), base)
}

func FormatUint(u uint64, base int) string {
	if base < 2 || base > 36 {
		base = 10
	}
	if u == 0 {
		return "0"
	}
	const digits = "0123456789abcdefghijklmnopqrstuvwxyz"
	var buf [64]byte
	i := len(buf)
	b := uint64(base)
	for u > 0 {
		i--
		buf[i] = digits[u%b]
		u /= b
	}
	return string(buf[i:])
}

func ParseInt(s string, base, bitSize int) (int64, error) {
	neg := false
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	u, err := ParseUint(s, base, 64)
	if err != nil {
		return 0, err
	}
	if neg {
		if u > 1<<63 {
			return 0, parseError{}
		}
		return -int64(u), nil
	}
	if u >= 1<<63 {
		return 0, parseError{}
	}
	return int64(u), nil
}

func ParseUint(s string, base, bitSize int) (uint64, error) {
	if base < 2 || base > 36 || len(s) == 0 {
		return 0, parseError{}
	}
	var v uint64
	for i := 0; i < len(s); i++ {
		c := s[i]
		var d byte
		switch {
		case '0' <= c && c <= '9':
			d = c - '0'
		case 'a' <= c && c <= 'z':
			d = c - 'a' + 10
		case 'A' <= c && c <= 'Z':
			d = c - 'A' + 10
		default:
			return 0, parseError{}
		}
		if int(d) >= base {
			return 0, parseError{}
		}
		v = v*uint64(base) + uint64(d)
	}
	if bitSize > 0 && bitSize < 64 && v >= 1<<uint(bitSize) {
		return 0, parseError{}
	}
	return v, nil
}

// FormatFloat supports fmt=='f' with prec>=0 only.
func FormatFloat(f float64, fmt byte, prec, bitSize int) string {
	neg := false
	if f < 0 {
		neg = true
		f = -f
	}
	scale := int64(1)
	for i := 0; i < prec; i++ {
		scale *= 10
	}
	scaled := int64(f*float64(scale) + 0.5)
	whole := scaled / scale
	frac := scaled % scale
	s := FormatInt(whole, 10)
	if prec > 0 {
		fs := FormatInt(frac, 10)
		for len(fs) < prec {
			fs = "0" + fs
		}
		s += "." + fs
	}
	if neg {
		s = "-" + s
	}
	return s
}

func ParseFloat(s string, bitSize int) (float64, error) {
	whole := s
	fracDigits := ""
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			whole = s[:i]
			fracDigits = s[i+1:]
			break
		}
	}
	neg := len(whole) > 0 && whole[0] == '-'
	w, err := ParseInt(whole, 10, 64)
	if err != nil {
		return 0, err
	}
	v := float64(w)
	if fracDigits != "" {
		fv, err := ParseUint(fracDigits, 10, 64)
		if err != nil {
			return 0, err
		}
		div := 1.0
		for range fracDigits {
			div *= 10
		}
		if neg {
			v -= float64(fv) / div
		} else {
			v += float64(fv) / div
		}
	}
	return v, nil
}
