package types

type DataType string

const (
	NULL      DataType = "null"
	INT64     DataType = "integer"
	FLOAT64   DataType = "number"
	STRING    DataType = "string"
	BOOL      DataType = "boolean"
	OBJECT    DataType = "object"
	ARRAY     DataType = "array"
	TIMESTAMP DataType = "timestamp"
	UNKNOWN   DataType = "unknown"
)

// Record is one API entity mapped to field name -> value.
type Record map[string]any
