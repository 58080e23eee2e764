package format

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	kb = 1 << 10
	mb = 1 << 20
	gb = 1 << 30
	tb = 1 << 40
)

// FormatBytes renders a byte count in human-readable units, dropping
// the decimals for whole values.
func FormatBytes(b int64) string {
	val := float64(b)
	var unit string

	switch {
	case b >= tb:
		val /= float64(tb)
		unit = "TB"
	case b >= gb:
		val /= float64(gb)
		unit = "GB"
	case b >= mb:
		val /= float64(mb)
		unit = "MB"
	case b >= kb:
		val /= float64(kb)
		unit = "KB"
	default:
		return fmt.Sprintf("%dB", b)
	}

	if val == float64(int(val)) {
		return fmt.Sprintf("%.0f%s", val, unit)
	}
	return fmt.Sprintf("%.2f%s", val, unit)
}

// ParseBytes parses a human-readable byte size such as "4MB", "512KB"
// or a bare number. Units are binary multiples.
func ParseBytes(s string) (uint64, error) {
	s = strings.TrimSpace(strings.ToUpper(s))
	if s == "" {
		return 0, fmt.Errorf("empty size")
	}

	mult := uint64(1)
	switch {
	case strings.HasSuffix(s, "TB"):
		mult, s = tb, s[:len(s)-2]
	case strings.HasSuffix(s, "GB"):
		mult, s = gb, s[:len(s)-2]
	case strings.HasSuffix(s, "MB"):
		mult, s = mb, s[:len(s)-2]
	case strings.HasSuffix(s, "KB"):
		mult, s = kb, s[:len(s)-2]
	case strings.HasSuffix(s, "B"):
		s = s[:len(s)-1]
	}

	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	return v * mult, nil
}
