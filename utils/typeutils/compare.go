package typeutils

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Compare returns 0 for equal, -1 if a < b else 1 if a > b. Nil sorts first.
// Timestamp strings (the usual Tally cursor values) compare chronologically.
// Mixed types never panic; they fall back to comparing stringified forms, so
// a malformed record cannot take down the sync.
func Compare(a, b any) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}

	switch aVal := a.(type) {
	case time.Time:
		if bTime, ok := b.(time.Time); ok {
			return aVal.Compare(bTime)
		}
	case string:
		if bStr, ok := b.(string); ok {
			aTime, aErr := ParseTimestamp(aVal)
			bTime, bErr := ParseTimestamp(bStr)
			if aErr == nil && bErr == nil {
				return aTime.Compare(bTime)
			}
			return strings.Compare(aVal, bStr)
		}
	}

	if aNum, aOK := toFloat64(a); aOK {
		if bNum, bOK := toFloat64(b); bOK {
			const eps = 1e-6
			diff := aNum - bNum
			switch {
			case math.Abs(diff) < eps:
				return 0
			case diff < 0:
				return -1
			default:
				return 1
			}
		}
	}

	// mixed or unhandled types; compare stringified forms
	return strings.Compare(fmt.Sprintf("%v", a), fmt.Sprintf("%v", b))
}

// toFloat64 widens any numeric value; bookmarks read back from a state file
// arrive as float64 while fresh values may be ints.
func toFloat64(value any) (float64, bool) {
	switch n := value.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses the timestamp formats the Tally API emits.
func ParseTimestamp(value string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("value [%s] is not a recognized timestamp", value)
}
