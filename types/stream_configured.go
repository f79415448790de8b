package types

import "fmt"

// ConfiguredStream is a catalog entry: a source stream plus the user's
// choice of sync mode and cursor.
type ConfiguredStream struct {
	Stream *Stream `json:"stream,omitempty"`

	// Column used as the incremental bookmark; MUST NOT be mutated mid-sync
	CursorField string `json:"cursor_field,omitempty"`
}

func (s *ConfiguredStream) ID() string {
	return s.Stream.ID()
}

func (s *ConfiguredStream) Self() *ConfiguredStream {
	return s
}

func (s *ConfiguredStream) Name() string {
	return s.Stream.Name
}

func (s *ConfiguredStream) Namespace() string {
	return s.Stream.Namespace
}

func (s *ConfiguredStream) Schema() *TypeSchema {
	return s.Stream.Schema
}

func (s *ConfiguredStream) GetStream() *Stream {
	return s.Stream
}

func (s *ConfiguredStream) Cursor() string {
	return s.CursorField
}

func (s *ConfiguredStream) GetSyncMode() SyncMode {
	return s.Stream.SyncMode
}

// Validate checks the configured stream against the stream discovered from
// the source.
func (s *ConfiguredStream) Validate(source *Stream) error {
	if s.Stream.SyncMode == "" {
		s.Stream.SyncMode = source.SyncMode
	}
	if !source.SupportedSyncModes.Exists(s.Stream.SyncMode) {
		return fmt.Errorf("invalid sync mode[%s]; valid are %v", s.Stream.SyncMode, source.SupportedSyncModes.Array())
	}

	if s.Stream.SyncMode == INCREMENTAL {
		if s.CursorField == "" {
			s.CursorField = source.CursorField
		}
		if !source.AvailableCursorFields.Exists(s.CursorField) {
			return fmt.Errorf("invalid cursor field [%s]; valid are %v", s.CursorField, source.AvailableCursorFields.Array())
		}
	}

	if s.Stream.SourceDefinedPrimaryKey.Len() > 0 && !source.SourceDefinedPrimaryKey.SubsetOf(s.Stream.SourceDefinedPrimaryKey) {
		return fmt.Errorf("primary key mismatch; source declares %v", source.SourceDefinedPrimaryKey.Array())
	}

	return nil
}
