package configstore

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const applicationSchemaURL = "https://statuswatch.local/schemas/application.json"

// applicationSchema describes one application entry of the tenant configuration.
const applicationSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "_id": { "type": "string" },
    "appKey": { "type": "string" },
    "name": { "type": "string", "minLength": 1 },
    "url": { "type": "string", "minLength": 1 },
    "description": { "type": "string" }
  },
  "required": ["name", "url"],
  "additionalProperties": false
}`

// EntryValidator checks configuration entries against the application schema.
type EntryValidator struct {
	schema *jsonschema.Schema
}

// NewEntryValidator compiles the application schema.
func NewEntryValidator() (*EntryValidator, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(applicationSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to parse application schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err = compiler.AddResource(applicationSchemaURL, doc); err != nil {
		return nil, fmt.Errorf("failed to add application schema: %w", err)
	}

	schema, err := compiler.Compile(applicationSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile application schema: %w", err)
	}
	return &EntryValidator{schema: schema}, nil
}

// Validate validates one decoded entry (the result of jsonschema.UnmarshalJSON).
func (v *EntryValidator) Validate(entry any) error {
	if err := v.schema.Validate(entry); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
