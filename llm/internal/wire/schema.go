// Package wire holds marshalling helpers shared by the provider clients.
package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/ai-gentic/apprentice/llm"
)

type SchemaMode int

const (
	// SchemaOpen emits a plain object schema.
	SchemaOpen SchemaMode = iota
	// SchemaClosed adds additionalProperties:false.
	SchemaClosed
	// SchemaStrict is SchemaClosed where every property is listed as required
	// and optional ones also accept null.
	SchemaStrict
)

// ParamsSchema renders tool parameters as a JSON Schema object.
func ParamsSchema(params []llm.ToolParam, mode SchemaMode) map[string]any {
	props := make(map[string]any, len(params))
	required := make([]string, 0, len(params))
	for _, p := range params {
		prop := map[string]any{"type": string(p.Type)}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		switch {
		case p.Required:
			required = append(required, p.Name)
		case mode == SchemaStrict:
			prop["type"] = []string{string(p.Type), "null"}
			required = append(required, p.Name)
		}
		props[p.Name] = prop
	}

	out := map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
	if mode != SchemaOpen {
		out["additionalProperties"] = false
	}
	return out
}

// EncodeArguments renders tool arguments as JSON object text.
func EncodeArguments(args map[string]any) (string, error) {
	if args == nil {
		return "{}", nil
	}
	b, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("encode tool arguments: %w", err)
	}
	return string(b), nil
}

// DecodeArguments parses a JSON object into tool arguments. Empty input and
// null decode to an empty map; anything but an object is an error. Numbers
// are kept as json.Number so large integers survive a round trip.
func DecodeArguments(raw []byte) (map[string]any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return map[string]any{}, nil
	}
	if raw[0] != '{' {
		return nil, fmt.Errorf("tool arguments are not a JSON object")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("trailing data after tool arguments")
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}
