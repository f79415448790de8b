package types

import (
	"fmt"
	"sync"

	"github.com/goccy/go-json"
)

// TypeSchema is the declared output schema of a stream: an ordered mapping
// of property name -> type set.
type TypeSchema struct {
	mu         sync.RWMutex
	properties map[string]*Property
	order      []string
}

// Property describes one schema field; the type set carries NULL for
// nullable fields.
type Property struct {
	Type *Set[DataType] `json:"type,omitempty"`
}

func (p *Property) DataType() DataType {
	for _, typ := range p.Type.Array() {
		if typ != NULL {
			return typ
		}
	}
	return NULL
}

func (p *Property) Nullable() bool {
	return p.Type.Exists(NULL)
}

func NewTypeSchema() *TypeSchema {
	return &TypeSchema{properties: make(map[string]*Property)}
}

func (t *TypeSchema) AddTypes(column string, types ...DataType) {
	t.mu.Lock()
	defer t.mu.Unlock()
	property, found := t.properties[column]
	if !found {
		t.properties[column] = &Property{Type: NewSet(types...)}
		t.order = append(t.order, column)
		return
	}
	property.Type.Insert(types...)
}

func (t *TypeSchema) GetType(column string) (DataType, error) {
	property, err := t.GetProperty(column)
	if err != nil {
		return "", err
	}
	return property.DataType(), nil
}

func (t *TypeSchema) GetProperty(column string) (*Property, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	property, found := t.properties[column]
	if !found {
		return nil, fmt.Errorf("column [%s] missing from type schema", column)
	}
	return property, nil
}

// Columns returns property names in declaration order.
func (t *TypeSchema) Columns() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

func (t *TypeSchema) MarshalJSON() ([]byte, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	propertiesMap := make(map[string]*Property, len(t.properties))
	for column, property := range t.properties {
		propertiesMap[column] = property
	}
	return json.Marshal(&struct {
		Properties map[string]*Property `json:"properties,omitempty"`
	}{Properties: propertiesMap})
}

func (t *TypeSchema) UnmarshalJSON(data []byte) error {
	aux := &struct {
		Properties map[string]*Property `json:"properties,omitempty"`
	}{}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.properties == nil {
		t.properties = make(map[string]*Property)
	}
	for column, property := range aux.Properties {
		if _, found := t.properties[column]; !found {
			t.order = append(t.order, column)
		}
		t.properties[column] = property
	}
	return nil
}
