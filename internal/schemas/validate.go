// Package schemas checks the files a run writes against their JSON Schemas.
package schemas

import (
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	schemafiles "github.com/jonathan/exampapers/schemas"
)

// ValidationError lists every field of a document that breaks its schema.
type ValidationError struct {
	Errors []FieldError
}

// FieldError is one schema violation, addressed by dotted field path.
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("manifest does not match schema:\n")
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// ValidateManifest checks a manifest.json file against the run manifest schema.
func ValidateManifest(manifestPath string) error {
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return fmt.Errorf("failed to read manifest: %w", err)
	}
	return ValidateManifestData(data)
}

// ValidateManifestData checks encoded manifest JSON. Documents that are not
// JSON at all are reported as a plain error, not a ValidationError.
func ValidateManifestData(data []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schemafiles.RunManifest),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return fmt.Errorf("failed to check manifest: %w", err)
	}
	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{Errors: make([]FieldError, 0, len(result.Errors()))}
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
