package functions

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// resolveSchema compiles a parameter schema so that keywords like minimum,
// maximum and additionalProperties are enforced on every call.
func resolveSchema(schema map[string]any) (*jsonschema.Resolved, error) {
	data, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshal parameters schema: %w", err)
	}

	var s jsonschema.Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse parameters schema: %w", err)
	}

	resolved, err := s.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("resolve parameters schema: %w", err)
	}

	return resolved, nil
}

// validateArguments checks normalized args against the compiled schema.
func validateArguments(resolved *jsonschema.Resolved, args map[string]any) error {
	if resolved == nil {
		return nil
	}
	if err := resolved.Validate(args); err != nil {
		return invalidArguments("%v", err)
	}
	return nil
}
