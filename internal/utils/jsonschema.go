package utils

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// JSONSchemaValidator validates documents against named, precompiled schemas
type JSONSchemaValidator struct {
	schemas map[string]*gojsonschema.Schema
}

// NewJSONSchemaValidator creates a new JSONSchemaValidator
func NewJSONSchemaValidator() *JSONSchemaValidator {
	return &JSONSchemaValidator{
		schemas: make(map[string]*gojsonschema.Schema),
	}
}

// LoadSchema loads and compiles a JSON schema
func (v *JSONSchemaValidator) LoadSchema(name, schema string) error {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schema))
	if err != nil {
		return fmt.Errorf("failed to compile schema %s: %w", name, err)
	}

	v.schemas[name] = compiled
	return nil
}

// ValidateAgainstSchema validates a Go value against a named schema
func (v *JSONSchemaValidator) ValidateAgainstSchema(name string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}
	return v.ValidateJSON(name, jsonData)
}

// ValidateJSON validates a raw JSON document against a named schema.
// Schema violations wrap ErrValidation.
func (v *JSONSchemaValidator) ValidateJSON(name string, document []byte) error {
	schema, ok := v.schemas[name]
	if !ok {
		return fmt.Errorf("schema %s not found", name)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(document))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if !result.Valid() {
		messages := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			messages = append(messages, fmt.Sprintf("%s: %s", e.Field(), e.Description()))
		}
		return fmt.Errorf("%w: %s", ErrValidation, strings.Join(messages, "; "))
	}

	return nil
}

// JSONSchemaBuilder helps build JSON schemas programmatically
type JSONSchemaBuilder struct {
	schema map[string]interface{}
}

// NewJSONSchemaBuilder creates a new JSONSchemaBuilder for a closed object
func NewJSONSchemaBuilder() *JSONSchemaBuilder {
	return &JSONSchemaBuilder{
		schema: map[string]interface{}{
			"$schema":              "http://json-schema.org/draft-07/schema#",
			"type":                 "object",
			"additionalProperties": false,
			"properties":           map[string]interface{}{},
			"required":             []string{},
		},
	}
}

// SetTitle sets the schema title
func (b *JSONSchemaBuilder) SetTitle(title string) *JSONSchemaBuilder {
	b.schema["title"] = title
	return b
}

// AddProperty adds a property with optional keyword constraints such as minLength or minimum
func (b *JSONSchemaBuilder) AddProperty(name, propertyType string, required bool, constraints map[string]interface{}) *JSONSchemaBuilder {
	property := map[string]interface{}{"type": propertyType}
	for k, v := range constraints {
		property[k] = v
	}

	properties := b.schema["properties"].(map[string]interface{})
	properties[name] = property

	if required {
		b.schema["required"] = append(b.schema["required"].([]string), name)
	}

	return b
}

// AddStringProperty adds a string property to the schema
func (b *JSONSchemaBuilder) AddStringProperty(name string, required bool, minLength int) *JSONSchemaBuilder {
	var constraints map[string]interface{}
	if minLength > 0 {
		constraints = map[string]interface{}{"minLength": minLength}
	}
	return b.AddProperty(name, "string", required, constraints)
}

// AddNumberProperty adds a bounded number property to the schema
func (b *JSONSchemaBuilder) AddNumberProperty(name string, required bool, minimum, maximum float64) *JSONSchemaBuilder {
	return b.AddProperty(name, "number", required, map[string]interface{}{
		"minimum": minimum,
		"maximum": maximum,
	})
}

// AddIntegerProperty adds a positive integer property to the schema
func (b *JSONSchemaBuilder) AddIntegerProperty(name string, required bool) *JSONSchemaBuilder {
	return b.AddProperty(name, "integer", required, map[string]interface{}{"minimum": 1})
}

// Build returns the JSON schema as a string
func (b *JSONSchemaBuilder) Build() (string, error) {
	jsonBytes, err := json.MarshalIndent(b.schema, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal schema: %w", err)
	}

	return string(jsonBytes), nil
}
