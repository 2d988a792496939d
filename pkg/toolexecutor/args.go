package toolexecutor

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// CheckRequired returns a ValidationError naming every required parameter
// that is absent from params or set to nil.
func CheckRequired(toolName string, params Parameters, values map[string]interface{}) error {
	var missing []string
	for _, name := range params.Required {
		if v, ok := values[name]; !ok || v == nil {
			missing = append(missing, name)
		}
	}

	if len(missing) > 0 {
		return &ValidationError{Tool: toolName, Missing: missing}
	}
	return nil
}

// BuildArgs maps call arguments to command-line tokens following the
// declared property order:
//   - string/number foo=v  -> --foo v
//   - boolean foo=true     -> --foo (false is omitted)
//   - array foo=[a b]      -> --foo a --foo b
//
// Underscores in parameter names become hyphens in the flag. Values for
// undeclared names and nil values are ignored.
func BuildArgs(params Parameters, values map[string]interface{}) []string {
	args := []string{}
	for _, prop := range params.Properties {
		value, ok := values[prop.Name]
		if !ok || value == nil {
			continue
		}

		flag := "--" + strings.ReplaceAll(prop.Name, "_", "-")

		switch prop.Type {
		case TypeBoolean:
			if isTrue(value) {
				args = append(args, flag)
			}
		case TypeArray:
			for _, elem := range toSlice(value) {
				args = append(args, flag, formatValue(elem))
			}
		default:
			args = append(args, flag, formatValue(value))
		}
	}

	return args
}

// isTrue interprets a boolean argument. Strings such as "true" are accepted
// because some hosts stringify arguments; non-zero numbers count as true.
func isTrue(v interface{}) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		b, err := strconv.ParseBool(val)
		return err == nil && b
	case float64:
		return val != 0
	case float32:
		return val != 0
	case int:
		return val != 0
	case int64:
		return val != 0
	case json.Number:
		f, err := val.Float64()
		return err == nil && f != 0
	default:
		return false
	}
}

// toSlice returns array elements, or wraps a scalar into a one-element slice
func toSlice(v interface{}) []interface{} {
	switch val := v.(type) {
	case []interface{}:
		return val
	case []string:
		out := make([]interface{}, len(val))
		for i, s := range val {
			out[i] = s
		}
		return out
	default:
		return []interface{}{v}
	}
}

// formatValue renders an argument value as a single token
func formatValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case json.Number:
		return val.String()
	case map[string]interface{}, []interface{}:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(data)
	default:
		return fmt.Sprintf("%v", val)
	}
}
