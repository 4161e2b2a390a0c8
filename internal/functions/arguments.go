package functions

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/kmf-ai/server/internal/errx"
)

// reflectSchema builds an inline JSON schema for the argument struct A.
func reflectSchema[A any]() (map[string]any, error) {
	reflector := jsonschema.Reflector{
		DoNotReference: true,
	}
	schema := reflector.Reflect(new(A))

	data, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}

	delete(out, "$schema")
	delete(out, "$id")
	out["type"] = "object"
	if _, ok := out["properties"]; !ok {
		out["properties"] = map[string]any{}
	}

	return out, nil
}

func invalidArguments(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errx.ErrInvalidArguments, fmt.Sprintf(format, args...))
}

// decodeArguments parses raw call arguments. Empty input and JSON null are
// an empty object; anything other than an object is rejected.
func decodeArguments(raw json.RawMessage) (map[string]any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return map[string]any{}, nil
	}

	var args map[string]any
	if err := json.Unmarshal(trimmed, &args); err != nil {
		return nil, invalidArguments("arguments must be a JSON object: %v", err)
	}
	if args == nil {
		args = map[string]any{}
	}

	return args, nil
}

// normalizeArguments checks args against schema: required properties are
// present, types match, enums hold. Integral floats and numeric strings are
// coerced for integer properties since models often send 2023.0 or "2023".
// Unknown properties are dropped.
func normalizeArguments(schema map[string]any, args map[string]any) (map[string]any, error) {
	props, _ := schema["properties"].(map[string]any)

	for _, name := range requiredOf(schema) {
		v, ok := args[name]
		if !ok || v == nil {
			return nil, invalidArguments("missing required argument %q", name)
		}
	}

	out := make(map[string]any, len(args))
	for name, value := range args {
		prop, ok := props[name].(map[string]any)
		if !ok {
			continue
		}
		if value == nil {
			continue
		}

		coerced, err := coerce(name, prop, value)
		if err != nil {
			return nil, err
		}

		if enum, ok := prop["enum"].([]any); ok && !slices.Contains(enum, coerced) {
			return nil, invalidArguments("argument %q must be one of %v, got %v", name, enum, coerced)
		}

		out[name] = coerced
	}

	return out, nil
}

func requiredOf(schema map[string]any) []string {
	var names []string
	switch req := schema["required"].(type) {
	case []any:
		for _, r := range req {
			if s, ok := r.(string); ok {
				names = append(names, s)
			}
		}
	case []string:
		names = req
	}
	return names
}

func coerce(name string, prop map[string]any, value any) (any, error) {
	typ, _ := prop["type"].(string)

	switch typ {
	case "integer":
		n, ok := toInteger(value)
		if !ok {
			return nil, invalidArguments("argument %q must be an integer, got %v", name, value)
		}
		return n, nil

	case "number":
		switch v := value.(type) {
		case float64:
			return v, nil
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return nil, invalidArguments("argument %q must be a number, got %q", name, v)
			}
			return f, nil
		}
		return nil, invalidArguments("argument %q must be a number, got %v", name, value)

	case "string":
		s, ok := value.(string)
		if !ok {
			return nil, invalidArguments("argument %q must be a string, got %v", name, value)
		}
		return s, nil

	case "boolean":
		b, ok := value.(bool)
		if !ok {
			return nil, invalidArguments("argument %q must be a boolean, got %v", name, value)
		}
		return b, nil
	}

	return value, nil
}

func toInteger(value any) (int64, bool) {
	switch v := value.(type) {
	case float64:
		return floatToInteger(v)
	case string:
		s := strings.TrimSpace(v)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return floatToInteger(f)
		}
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, true
		}
	}
	return 0, false
}

// floatToInteger accepts integral floats that fit in an int64. 2^63 is the
// first float64 past math.MaxInt64.
func floatToInteger(f float64) (int64, bool) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || f >= 1<<63 || f < -(1<<63) {
		return 0, false
	}
	return int64(f), true
}

// bindArguments decodes normalized arguments into the typed struct A.
func bindArguments[A any](args map[string]any) (A, error) {
	var a A

	data, err := json.Marshal(args)
	if err != nil {
		return a, invalidArguments("encode arguments: %v", err)
	}
	if err := json.Unmarshal(data, &a); err != nil {
		return a, invalidArguments("%v", err)
	}

	return a, nil
}
