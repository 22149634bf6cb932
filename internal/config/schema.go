package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// ErrSchema indicates a config document that does not match the schema.
var ErrSchema = errors.New("config does not match schema")

//go:embed schema.json
var schemaJSON []byte

// SchemaIssue is one schema violation.
type SchemaIssue struct {
	Field       string
	Description string
}

// Schema returns the JSON schema of the config file.
func Schema() []byte {
	return schemaJSON
}

// CheckFile validates a config file against the schema.
func CheckFile(path string) ([]SchemaIssue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	return CheckDocument(data)
}

// CheckDocument validates YAML config data against the schema. A document
// with violations returns them along with an error wrapping ErrSchema.
func CheckDocument(data []byte) ([]SchemaIssue, error) {
	var doc any

	err := yaml.Unmarshal(data, &doc)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// An empty file is a valid config of defaults.
	if doc == nil {
		doc = map[string]any{}
	}

	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schemaJSON), gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("schema validation: %w", err)
	}

	if result.Valid() {
		return nil, nil
	}

	issues := make([]SchemaIssue, 0, len(result.Errors()))

	for _, re := range result.Errors() {
		issues = append(issues, SchemaIssue{Field: re.Field(), Description: re.Description()})
	}

	return issues, fmt.Errorf("%w: %d issue(s)", ErrSchema, len(issues))
}
