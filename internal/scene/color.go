package scene

import (
	"math"
	"strconv"
	"strings"
)

// InterpolateColor blends two #RRGGBB colors channel by channel:
// round(c1 + f*(c2-c1)). Malformed channels are not rejected; they
// propagate as the literal "NaN" in the output.
func InterpolateColor(c1, c2 string, f float64) string {
	hex1 := strings.Replace(c1, "#", "", 1)
	hex2 := strings.Replace(c2, "#", "", 1)

	var sb strings.Builder
	sb.WriteByte('#')
	for i := 0; i < 6; i += 2 {
		a := parseHexChannel(substring(hex1, i, i+2))
		b := parseHexChannel(substring(hex2, i, i+2))
		sb.WriteString(formatChannel(math.Floor(a + f*(b-a) + 0.5)))
	}
	return sb.String()
}

// parseHexChannel reads the leading hex digits of s after optional
// whitespace, sign and 0x prefix. It returns NaN when there are none.
func parseHexChannel(s string) float64 {
	s = strings.TrimLeft(s, " \t\n\r\v\f")
	sign := 1.0
	if s != "" && (s[0] == '+' || s[0] == '-') {
		if s[0] == '-' {
			sign = -1
		}
		s = s[1:]
	}
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}

	n := 0
	for n < len(s) && isHexDigit(s[n]) {
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	v, err := strconv.ParseUint(s[:n], 16, 64)
	if err != nil {
		return math.NaN()
	}
	return sign * float64(v)
}

// formatChannel encodes a rounded channel as lowercase hex, zero-padded to two digits.
func formatChannel(v float64) string {
	var s string
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	default:
		s = strconv.FormatInt(int64(v), 16)
	}
	if len(s) < 2 {
		s = "0" + s
	}
	return s
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// substring clamps [start, end) to the bounds of s.
func substring(s string, start, end int) string {
	if start > len(s) {
		start = len(s)
	}
	if end > len(s) {
		end = len(s)
	}
	return s[start:end]
}
