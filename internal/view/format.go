package view

import (
	"fmt"
	"strings"
)

// Money renders a number with thousands separators and a fixed number
// of decimals, e.g. Money(1234567.891, 2) -> "1,234,567.89".
func Money(v float64, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}
	s := fmt.Sprintf("%.*f", decimals, v)

	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, fracPart, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}

	out := b.String()
	if hasFrac {
		out += "." + fracPart
	}
	if neg {
		out = "-" + out
	}
	return out
}

// Compact renders a large number with a magnitude suffix, e.g.
// Compact(1260000000000) -> "1.26 T". Values under a thousand pass
// through Money.
func Compact(v float64) string {
	abs := v
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs >= 1e12:
		return fmt.Sprintf("%.2f T", v/1e12)
	case abs >= 1e9:
		return fmt.Sprintf("%.2f B", v/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("%.2f M", v/1e6)
	case abs >= 1e3:
		return fmt.Sprintf("%.2f K", v/1e3)
	default:
		return Money(v, 2)
	}
}

// Percent renders a signed percent value with two decimals.
func Percent(v float64) string {
	if v > 0 {
		return fmt.Sprintf("+%.2f%%", v)
	}
	return fmt.Sprintf("%.2f%%", v)
}
