package typeutils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		name     string
		a, b     any
		expected int
	}{
		{"both nil", nil, nil, 0},
		{"nil sorts first", nil, 1, -1},
		{"value beats nil", "x", nil, 1},
		{"ints", 1, 2, -1},
		{"equal ints", 5, 5, 0},
		{"mixed int widths", int64(10), 3, 1},
		{"floats", 1.5, 1.25, 1},
		{"floats within epsilon", 1.0000001, 1.0000002, 0},
		{"plain strings", "apple", "banana", -1},
		{"timestamps chronological", "2025-01-02T00:00:00Z", "2025-01-01T23:59:59Z", 1},
		{"timestamps with offsets", "2025-01-01T12:00:00+02:00", "2025-01-01T11:00:00Z", -1},
		{"equal timestamps", "2025-06-01T00:00:00Z", "2025-06-01T00:00:00Z", 0},
		{"number against timestamp string", float64(5), "2025-01-02T00:00:00Z", 1},
		{"timestamp string against number", "2025-01-02T00:00:00Z", 7, -1},
		{"plain string against number", "x", 3, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Compare(tt.a, tt.b))
		})
	}
}

func TestCompare_TimeValues(t *testing.T) {
	earlier := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	later := earlier.Add(time.Hour)

	assert.Equal(t, -1, Compare(earlier, later))
	assert.Equal(t, 1, Compare(later, earlier))
	assert.Equal(t, 0, Compare(earlier, earlier))
}

func TestParseTimestamp(t *testing.T) {
	parsed, err := ParseTimestamp("2025-03-15T10:30:00.000Z")
	require.NoError(t, err)
	assert.Equal(t, 2025, parsed.Year())

	_, err = ParseTimestamp("not-a-timestamp")
	assert.Error(t, err)
}
