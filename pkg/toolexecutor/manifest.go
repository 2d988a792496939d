package toolexecutor

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
	"github.com/xeipuuv/gojsonschema"
)

// ManifestFileName is the manifest file looked up under the functions root
const ManifestFileName = "functions.json"

// ToolEntrySchema is the JSON Schema a single manifest entry must satisfy
const ToolEntrySchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["name"],
  "properties": {
    "name": {
      "type": "string",
      "minLength": 1
    },
    "description": {
      "type": ["string", "null"]
    },
    "parameters": {
      "type": "object",
      "properties": {
        "properties": { "type": "object" },
        "required": {
          "type": "array",
          "items": { "type": "string" }
        }
      }
    }
  }
}`

var entrySchema = mustCompileSchema(ToolEntrySchema)

func mustCompileSchema(schema string) *gojsonschema.Schema {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schema))
	if err != nil {
		panic(fmt.Sprintf("invalid built-in schema: %v", err))
	}
	return compiled
}

// LoadManifest reads and parses the manifest at path. A missing file yields
// ErrManifestMissing and unparsable JSON yields ErrManifestMalformed; the
// registrar treats both as "no tools".
func LoadManifest(path string) ([]ToolDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrManifestMissing, path)
		}
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: invalid JSON in %s", ErrManifestMalformed, path)
	}

	root := gjson.ParseBytes(data)
	if !root.IsArray() && !root.IsObject() {
		return nil, fmt.Errorf("%w: unexpected format in %s", ErrManifestMalformed, path)
	}

	return ParseManifest(root), nil
}

// ParseManifest converts a parsed manifest into tool definitions, preserving
// manifest order. It accepts a bare array of tool objects or an object with a
// "functions" array. Entries that fail ToolEntrySchema are skipped, as are
// later duplicates of an already seen name.
func ParseManifest(root gjson.Result) []ToolDefinition {
	var entries gjson.Result
	switch {
	case root.IsArray():
		entries = root
	case root.IsObject():
		entries = root.Get("functions")
		if !entries.IsArray() {
			log.Debug().Msg("Manifest object has no functions array")
			return []ToolDefinition{}
		}
	default:
		log.Debug().Str("type", root.Type.String()).Msg("Unexpected manifest shape")
		return []ToolDefinition{}
	}

	defs := []ToolDefinition{}
	seen := make(map[string]bool)
	index := 0
	entries.ForEach(func(_, entry gjson.Result) bool {
		i := index
		index++

		def, err := parseEntry(entry)
		if err != nil {
			log.Warn().Int("index", i).Err(err).Msg("Skipping malformed manifest entry")
			return true
		}
		if seen[def.Name] {
			log.Warn().Int("index", i).Str("tool", def.Name).Msg("Skipping duplicate tool name")
			return true
		}
		seen[def.Name] = true
		defs = append(defs, def)
		return true
	})

	return defs
}

// parseEntry validates one manifest entry and converts it
func parseEntry(entry gjson.Result) (ToolDefinition, error) {
	if !entry.IsObject() {
		return ToolDefinition{}, fmt.Errorf("entry is not an object")
	}

	result, err := entrySchema.Validate(gojsonschema.NewStringLoader(entry.Raw))
	if err != nil {
		return ToolDefinition{}, fmt.Errorf("schema validation error: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return ToolDefinition{}, fmt.Errorf("schema validation errors: %s", strings.Join(msgs, "; "))
	}

	def := ToolDefinition{
		Name:        entry.Get("name").String(),
		Description: entry.Get("description").String(),
		Parameters:  parseParameters(entry.Get("parameters")),
	}
	return def, nil
}

func parseParameters(params gjson.Result) Parameters {
	out := Parameters{
		Properties: []Property{},
		Required:   []string{},
	}
	if !params.Exists() {
		return out
	}
	out.Raw = json.RawMessage(params.Raw)

	params.Get("properties").ForEach(func(key, value gjson.Result) bool {
		prop := Property{
			Name:        key.String(),
			Type:        TypeString,
			Description: value.Get("description").String(),
			Raw:         json.RawMessage(value.Raw),
		}
		if t := value.Get("type"); t.Type == gjson.String && t.Str != "" {
			prop.Type = t.Str
		}
		out.Properties = append(out.Properties, prop)
		return true
	})

	for _, req := range params.Get("required").Array() {
		out.Required = append(out.Required, req.String())
	}

	return out
}
