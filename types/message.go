package types

import "time"

type MessageType string

const (
	LogMessage              MessageType = "LOG"
	ConnectionStatusMessage MessageType = "CONNECTION_STATUS"
	StateMessage            MessageType = "STATE"
	RecordMessage           MessageType = "RECORD"
	SchemaMessage           MessageType = "SCHEMA"
	CatalogMessage          MessageType = "CATALOG"
	SpecMessage             MessageType = "SPEC"
)

type ConnectionStatus string

const (
	ConnectionSucceed ConnectionStatus = "SUCCEEDED"
	ConnectionFailed  ConnectionStatus = "FAILED"
)

// Message is one protocol row written to stdout. Exactly one payload field
// is populated per row, selected by Type.
type Message struct {
	Type             MessageType    `json:"type"`
	Log              *Log           `json:"log,omitempty"`
	ConnectionStatus *StatusRow     `json:"connectionStatus,omitempty"`
	State            *State         `json:"state,omitempty"`
	Catalog          *Catalog       `json:"catalog,omitempty"`
	Spec             map[string]any `json:"spec,omitempty"`

	// RECORD and SCHEMA payloads
	Stream             string      `json:"stream,omitempty"`
	Record             Record      `json:"record,omitempty"`
	Schema             *TypeSchema `json:"schema,omitempty"`
	KeyProperties      []string    `json:"key_properties,omitempty"`
	BookmarkProperties []string    `json:"bookmark_properties,omitempty"`
	TimeExtracted      *time.Time  `json:"time_extracted,omitempty"`
}

type Log struct {
	Level   string `json:"level,omitempty"`
	Message string `json:"message,omitempty"`
}

type StatusRow struct {
	Status  ConnectionStatus `json:"status,omitempty"`
	Message string           `json:"message,omitempty"`
}
