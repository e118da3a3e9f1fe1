package model

import (
	"fmt"
	"strconv"
	"strings"
)

// OverKey builds the feed market key for an over line: 2.5 → "over_2_5".
func OverKey(line float64) string {
	return "over_" + lineKey(line)
}

// UnderKey builds the feed market key for an under line.
func UnderKey(line float64) string {
	return "under_" + lineKey(line)
}

func lineKey(line float64) string {
	return strings.ReplaceAll(strings.TrimSuffix(fmt.Sprintf("%.2f", line), "0"), ".", "_")
}

// LineFromKey parses "over_2_5" back into 2.5, "over_2_25" into 2.25.
// Returns false for keys that are not over/under markets.
func LineFromKey(key string) (float64, bool) {
	var rest string
	switch {
	case strings.HasPrefix(key, "over_"):
		rest = strings.TrimPrefix(key, "over_")
	case strings.HasPrefix(key, "under_"):
		rest = strings.TrimPrefix(key, "under_")
	default:
		return 0, false
	}
	line, err := strconv.ParseFloat(strings.Replace(rest, "_", ".", 1), 64)
	if err != nil {
		return 0, false
	}
	return line, true
}
