package toolregistry

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// deriveSchema reflects over T's struct tags (json, jsonschema) to build a
// JSON Schema object, the same derivation the teacher's stdio server
// delegates to the MCP go-sdk for. We depend on jsonschema-go directly so
// the core registry does not need to wrap the whole SDK.
func deriveSchema[T any]() (*jsonschema.Schema, error) {
	schema, err := jsonschema.For[T](nil)
	if err != nil {
		return nil, fmt.Errorf("derive schema for %T: %w", *new(T), err)
	}
	return schema, nil
}

// validateAgainst checks raw against T's derived JSON Schema before
// deserializing it, so a missing required field (e.g. `echo` called with
// `{}`) is rejected with a field hint instead of silently unmarshaling to
// a zero value (spec.md §7/§8).
func validateAgainst[T any](raw json.RawMessage) (T, error) {
	var v T
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}

	schema, err := deriveSchema[T]()
	if err != nil {
		return v, fmt.Errorf("invalid params: %w", err)
	}
	resolved, err := schema.Resolve(nil)
	if err != nil {
		return v, fmt.Errorf("invalid params: %w", err)
	}
	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return v, fmt.Errorf("invalid params: %w", err)
	}
	if err := resolved.Validate(instance); err != nil {
		return v, fmt.Errorf("invalid params: %w", err)
	}

	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("invalid params: %w", err)
	}
	return v, nil
}

func mustMarshalSchema(s *jsonschema.Schema) json.RawMessage {
	if s == nil {
		return nil
	}
	raw, err := json.Marshal(s)
	if err != nil {
		panic(fmt.Sprintf("marshal schema: %v", err))
	}
	return raw
}
