package profile

import (
	"strconv"
	"strings"
)

// ParseCount converts an abbreviated count such as "1.2M", "3,400" or "250K" into an integer.
// Suffixes are checked in the order M, comma, K. Anything unparseable yields 0.
func ParseCount(text string) int64 {
	s := strings.TrimSpace(text)

	switch {
	case strings.Contains(s, "M"):
		return parseDecimal(strings.ReplaceAll(s, "M", ""), 6)
	case strings.Contains(s, ","):
		return parseDecimal(strings.ReplaceAll(s, ",", ""), 0)
	case strings.Contains(s, "K"):
		return parseDecimal(strings.ReplaceAll(s, "K", ""), 3)
	default:
		whole, _, _ := strings.Cut(s, ".")
		return parseDecimal(whole, 0)
	}
}

// parseDecimal multiplies a plain decimal by 10^scale and truncates toward zero.
// Digits are handled as text so that "2.3" at scale 3 is exactly 2300.
func parseDecimal(s string, scale int) int64 {
	whole, frac, _ := strings.Cut(strings.TrimSpace(s), ".")
	if whole == "" && frac == "" {
		return 0
	}
	if !isDigits(whole) || !isDigits(frac) {
		return 0
	}

	if len(frac) > scale {
		frac = frac[:scale]
	}
	frac += strings.Repeat("0", scale-len(frac))

	n, err := strconv.ParseInt(whole+frac, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
