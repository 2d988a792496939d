package toolexecutor

import (
	"encoding/json"
)

// Parameter types understood by the argument mapper
const (
	TypeString  = "string"
	TypeBoolean = "boolean"
	TypeNumber  = "number"
	TypeInteger = "integer"
	TypeArray   = "array"
)

// Property describes one declared parameter of a tool
type Property struct {
	Name        string          `json:"name"`
	Type        string          `json:"type"`
	Description string          `json:"description,omitempty"`
	Raw         json.RawMessage `json:"-"`
}

// Parameters is the JSON-Schema-like parameter block of a tool.
// Properties keep the order in which the manifest declared them.
type Parameters struct {
	Properties []Property      `json:"properties"`
	Required   []string        `json:"required,omitempty"`
	Raw        json.RawMessage `json:"-"`
}

// ToolDefinition is one tool described by the manifest. It is built by
// ParseManifest and treated as read-only afterwards.
type ToolDefinition struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Parameters  Parameters `json:"parameters"`
}

// Property returns the declared property with the given name
func (p Parameters) Property(name string) (Property, bool) {
	for _, prop := range p.Properties {
		if prop.Name == name {
			return prop, true
		}
	}
	return Property{}, false
}

// IsRequired reports whether name is listed in the required set
func (p Parameters) IsRequired(name string) bool {
	for _, req := range p.Required {
		if req == name {
			return true
		}
	}
	return false
}

// Schema returns the raw parameter schema, or an empty object schema when
// the manifest declared none.
func (p Parameters) Schema() json.RawMessage {
	if len(p.Raw) == 0 {
		return json.RawMessage(`{"type":"object","properties":{}}`)
	}
	return p.Raw
}

// SchemaMap decodes the raw parameter schema into a generic map for hosts
// that consume schemas as values.
func (p Parameters) SchemaMap() map[string]interface{} {
	schema := map[string]interface{}{}
	if err := json.Unmarshal(p.Schema(), &schema); err != nil {
		return map[string]interface{}{"type": "object", "properties": map[string]interface{}{}}
	}
	if _, ok := schema["type"]; !ok {
		schema["type"] = "object"
	}
	if _, ok := schema["properties"]; !ok {
		schema["properties"] = map[string]interface{}{}
	}
	return schema
}
