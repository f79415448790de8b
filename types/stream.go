package types

import "fmt"

type SyncMode string

const (
	FULLREFRESH SyncMode = "full_refresh"
	INCREMENTAL SyncMode = "incremental"
)

// StreamInterface is what the sync path operates on; implemented by
// ConfiguredStream.
type StreamInterface interface {
	ID() string
	Self() *ConfiguredStream
	Name() string
	Namespace() string
	Schema() *TypeSchema
	GetStream() *Stream
	Cursor() string
	GetSyncMode() SyncMode
}

// Stream is one extractable resource declared by the source: a name, a type
// schema, a primary key and the cursor fields usable for incremental sync.
type Stream struct {
	Name                    string         `json:"name"`
	Namespace               string         `json:"namespace,omitempty"`
	Schema                  *TypeSchema    `json:"json_schema,omitempty"`
	SupportedSyncModes      *Set[SyncMode] `json:"supported_sync_modes,omitempty"`
	SourceDefinedPrimaryKey *Set[string]   `json:"source_defined_primary_key,omitempty"`
	AvailableCursorFields   *Set[string]   `json:"available_cursor_fields,omitempty"`
	SyncMode                SyncMode       `json:"sync_mode,omitempty"`
	CursorField             string         `json:"cursor_field,omitempty"`
}

func NewStream(name, namespace string) *Stream {
	return &Stream{
		Name:                    name,
		Namespace:               namespace,
		Schema:                  NewTypeSchema(),
		SupportedSyncModes:      NewSet[SyncMode](),
		SourceDefinedPrimaryKey: NewSet[string](),
		AvailableCursorFields:   NewSet[string](),
	}
}

func (s *Stream) ID() string {
	if s.Namespace == "" {
		return s.Name
	}
	return fmt.Sprintf("%s.%s", s.Namespace, s.Name)
}

func (s *Stream) WithSyncMode(modes ...SyncMode) *Stream {
	s.SupportedSyncModes.Insert(modes...)
	return s
}

func (s *Stream) WithPrimaryKey(keys ...string) *Stream {
	s.SourceDefinedPrimaryKey.Insert(keys...)
	return s
}

func (s *Stream) WithCursorField(fields ...string) *Stream {
	s.AvailableCursorFields.Insert(fields...)
	s.WithSyncMode(INCREMENTAL)
	return s
}

// UpsertField adds a column to the schema, or widens its type set when the
// column already exists.
func (s *Stream) UpsertField(column string, typ DataType, nullable bool) {
	types := []DataType{typ}
	if nullable {
		types = append(types, NULL)
	}
	s.Schema.AddTypes(column, types...)
}

// Wrap converts a source stream into a catalog entry.
func (s *Stream) Wrap() *ConfiguredStream {
	return &ConfiguredStream{
		Stream:      s,
		CursorField: s.CursorField,
	}
}

func StreamsToMap(streams ...*Stream) map[string]*Stream {
	output := make(map[string]*Stream)
	for _, stream := range streams {
		output[stream.ID()] = stream
	}
	return output
}
