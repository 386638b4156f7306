package gemini

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

var (
	//go:embed prompts/analysis.schema.json
	analysisSchema string
	//go:embed prompts/fit.schema.json
	fitSchema string
)

// SchemaError lists every field that failed validation.
type SchemaError struct {
	Fields []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("gemini response does not match schema: %s", strings.Join(e.Fields, "; "))
}

func validateJSON(schema, document string) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewStringLoader(document),
	)
	if err != nil {
		return fmt.Errorf("validate gemini response: %w", err)
	}
	if result.Valid() {
		return nil
	}

	schemaErr := &SchemaError{Fields: make([]string, 0, len(result.Errors()))}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		schemaErr.Fields = append(schemaErr.Fields, fmt.Sprintf("%s: %s", field, desc.Description()))
	}
	return schemaErr
}
