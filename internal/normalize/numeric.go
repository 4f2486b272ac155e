package normalize

import (
	"strconv"
	"strings"
)

// placeholderMarkers flag cells that carry site chrome instead of a value.
var placeholderMarkers = []string{
	"Ver histórico",
	"Atualizado",
}

// CleanNumeric coerces a scraped cell into a float, handling the
// source's Brazilian formatting: "1.246,72" means 1246.72, leading "+"
// on variations is noise, and currency/percent symbols are stripped.
// Any string that still fails to parse after cleanup is treated as a
// missing value, never guessed.
func CleanNumeric(raw string) *float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	for _, marker := range placeholderMarkers {
		if strings.Contains(s, marker) {
			return nil
		}
	}

	s = strings.TrimLeft(s, "+")

	// A comma is always the decimal separator; any dots before it are
	// thousands separators.
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}

	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}

	v, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return nil
	}
	return &v
}
