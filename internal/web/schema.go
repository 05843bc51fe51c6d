package web

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Request schemas for the public endpoints. Staff endpoints take trusted
// input and are validated in the handlers.
const (
	intakeSchemaJSON = `{
		"type": "object",
		"required": ["name"],
		"additionalProperties": false,
		"properties": {
			"name":    {"type": "string", "minLength": 1, "maxLength": 200},
			"needs":   {"type": "array", "items": {"type": "string", "minLength": 1}, "maxItems": 20},
			"urgency": {"type": "string", "enum": ["low", "medium", "high", "critical"]},
			"notes":   {"type": "string", "maxLength": 4000}
		}
	}`

	routeSchemaJSON = `{
		"type": "object",
		"required": ["task"],
		"additionalProperties": false,
		"properties": {
			"task":  {"type": "string", "enum": ["navigator", "triage", "careplan"]},
			"query": {"type": "string", "maxLength": 4000},
			"client": {
				"type": "object",
				"additionalProperties": false,
				"properties": {
					"id":      {"type": "string"},
					"name":    {"type": "string"},
					"needs":   {"type": "array", "items": {"type": "string"}},
					"urgency": {"type": "string"},
					"notes":   {"type": "string"}
				}
			},
			"options": {
				"type": "object",
				"additionalProperties": false,
				"properties": {
					"context":            {"type": "string"},
					"caseworker_context": {"type": "string"},
					"input":              {"type": "string"}
				}
			}
		}
	}`
)

var (
	intakeSchema = mustCompileSchema(intakeSchemaJSON)
	routeSchema  = mustCompileSchema(routeSchemaJSON)
)

func mustCompileSchema(src string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("invalid request schema: %v", err))
	}
	return schema
}

// validateJSON checks body against schema and returns a caller-facing error
// listing the violations.
func validateJSON(schema *gojsonschema.Schema, body []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("invalid JSON")
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}
