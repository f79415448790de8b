package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStream_NewStream(t *testing.T) {
	stream := NewStream("users", "")

	assert.Equal(t, "users", stream.Name)
	assert.Equal(t, "users", stream.ID(), "ID without namespace is the bare name")

	assert.NotNil(t, stream.SupportedSyncModes, "SupportedSyncModes should be initialized")
	assert.NotNil(t, stream.SourceDefinedPrimaryKey, "SourceDefinedPrimaryKey should be initialized")
	assert.NotNil(t, stream.AvailableCursorFields, "AvailableCursorFields should be initialized")
	assert.NotNil(t, stream.Schema, "Schema should be initialized")
}

func TestStream_WithSyncMode(t *testing.T) {
	tests := []struct {
		name             string
		modes            []SyncMode
		expectedModes    []SyncMode
		notExpectedModes []SyncMode
	}{
		{
			name:             "single mode",
			modes:            []SyncMode{FULLREFRESH},
			expectedModes:    []SyncMode{FULLREFRESH},
			notExpectedModes: []SyncMode{INCREMENTAL},
		},
		{
			name:             "multiple modes",
			modes:            []SyncMode{FULLREFRESH, INCREMENTAL},
			expectedModes:    []SyncMode{FULLREFRESH, INCREMENTAL},
			notExpectedModes: []SyncMode{},
		},
		{
			name:             "duplicate modes",
			modes:            []SyncMode{FULLREFRESH, FULLREFRESH},
			expectedModes:    []SyncMode{FULLREFRESH},
			notExpectedModes: []SyncMode{INCREMENTAL},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stream := NewStream("users", "")
			outputStream := stream.WithSyncMode(tt.modes...)

			assert.Same(t, stream, outputStream, "should return the same instance")

			for _, mode := range tt.expectedModes {
				assert.True(t, outputStream.SupportedSyncModes.Exists(mode), "should contain %v", mode)
			}
			for _, mode := range tt.notExpectedModes {
				assert.False(t, outputStream.SupportedSyncModes.Exists(mode), "should not contain %v", mode)
			}
		})
	}
}

func TestStream_WithCursorField_EnablesIncremental(t *testing.T) {
	stream := NewStream("submissions", "").WithCursorField("submittedAt")

	assert.True(t, stream.AvailableCursorFields.Exists("submittedAt"))
	assert.True(t, stream.SupportedSyncModes.Exists(INCREMENTAL))
}

func TestStream_UpsertField(t *testing.T) {
	stream := NewStream("forms", "")
	stream.UpsertField("id", STRING, false)
	stream.UpsertField("updatedAt", TIMESTAMP, true)

	idType, err := stream.Schema.GetType("id")
	require.NoError(t, err)
	assert.Equal(t, STRING, idType)

	property, err := stream.Schema.GetProperty("updatedAt")
	require.NoError(t, err)
	assert.True(t, property.Nullable())
	assert.Equal(t, TIMESTAMP, property.DataType())

	// widening an existing column must not duplicate it
	stream.UpsertField("id", STRING, false)
	assert.Equal(t, []string{"id", "updatedAt"}, stream.Schema.Columns())
}

func TestConfiguredStream_Validate(t *testing.T) {
	source := NewStream("submissions", "").
		WithSyncMode(FULLREFRESH).
		WithCursorField("submittedAt").
		WithPrimaryKey("id")
	source.SyncMode = INCREMENTAL
	source.CursorField = "submittedAt"

	t.Run("defaults adopted from source", func(t *testing.T) {
		configured := &ConfiguredStream{Stream: NewStream("submissions", "").WithPrimaryKey("id")}
		require.NoError(t, configured.Validate(source))
		assert.Equal(t, INCREMENTAL, configured.GetSyncMode())
		assert.Equal(t, "submittedAt", configured.Cursor())
	})

	t.Run("invalid sync mode", func(t *testing.T) {
		cfgStream := NewStream("submissions", "").WithPrimaryKey("id")
		cfgStream.SyncMode = SyncMode("cdc")
		configured := &ConfiguredStream{Stream: cfgStream}
		assert.Error(t, configured.Validate(source))
	})

	t.Run("invalid cursor field", func(t *testing.T) {
		cfgStream := NewStream("submissions", "").WithPrimaryKey("id")
		cfgStream.SyncMode = INCREMENTAL
		configured := &ConfiguredStream{Stream: cfgStream, CursorField: "nope"}
		assert.Error(t, configured.Validate(source))
	})
}

func TestStreamsToMap(t *testing.T) {
	a := NewStream("forms", "")
	b := NewStream("users", "")
	m := StreamsToMap(a, b)

	require.Len(t, m, 2)
	assert.Same(t, a, m["forms"])
	assert.Same(t, b, m["users"])
}
