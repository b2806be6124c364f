// Package schemas provides JSON Schema validation for structured AI output.
package schemas

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// previewSchema constrains the structured resume preview. The generative
// model is already schema-constrained, but its output is validated again
// here before it reaches callers.
const previewSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["personalData"],
  "properties": {
    "personalData": {
      "type": "object",
      "required": ["name"],
      "properties": {
        "name": {"type": "string", "minLength": 1},
        "title": {"type": "string"},
        "email": {"type": "string"},
        "phone": {"type": "string"},
        "location": {"type": "string"},
        "website": {"type": "string"}
      }
    },
    "summary": {"type": "string"},
    "experiences": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["title", "company"],
        "properties": {
          "title": {"type": "string", "minLength": 1},
          "company": {"type": "string", "minLength": 1},
          "location": {"type": "string"},
          "years": {"type": "string"},
          "description": {"type": "array", "items": {"type": "string"}}
        }
      }
    },
    "projects": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "description": {"type": "array", "items": {"type": "string"}}
        }
      }
    },
    "skills": {"type": "array", "items": {"type": "string"}},
    "education": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["institution"],
        "properties": {
          "institution": {"type": "string", "minLength": 1},
          "degree": {"type": "string"},
          "years": {"type": "string"}
        }
      }
    }
  }
}`

// ValidationError represents a schema validation failure with field paths
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// ValidatePreview checks raw JSON against the preview schema.
func ValidatePreview(document []byte) error {
	return validateAgainst(previewSchema, document)
}

func validateAgainst(schema string, document []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(schema)
	documentLoader := gojsonschema.NewBytesLoader(document)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation failed during load: %w", err)
	}

	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Errors: make([]FieldError, 0, len(result.Errors())),
	}

	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}

	return validationErr
}
