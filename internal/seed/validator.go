package seed

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

// Validator handles seed file validation
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator creates a new validator with the given schema file
func NewValidator(schemaPath string) (*Validator, error) {
	compiler := jsonschema.NewCompiler()

	schema, err := compiler.Compile(schemaPath)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	return &Validator{schema: schema}, nil
}

// ValidateDirectory loads and validates all seed files in a directory
func (v *Validator) ValidateDirectory(dirPath string) []ValidationError {
	seeds, loadErrors := LoadFromDirectory(dirPath)

	var allErrors []ValidationError
	allErrors = append(allErrors, loadErrors...)

	if len(seeds) == 0 {
		return allErrors
	}

	// Validate each seed against the JSON schema
	for _, s := range seeds {
		schemaErrors := v.validateSchema(s.File, s.Seed)
		allErrors = append(allErrors, schemaErrors...)
	}

	// Apply extra validation rules
	extraErrors := validateExtraRules(seeds)
	allErrors = append(allErrors, extraErrors...)

	return allErrors
}

// validateSchema validates a single seed against the JSON schema
func (v *Validator) validateSchema(file string, s *Seed) []ValidationError {
	var errors []ValidationError

	// Round-trip through YAML to get a schema-checkable document
	yamlBytes, err := yaml.Marshal(s)
	if err != nil {
		errors = append(errors, ValidationError{
			File:    file,
			Message: fmt.Sprintf("failed to marshal seed: %v", err),
		})
		return errors
	}

	var doc interface{}
	if err := yaml.Unmarshal(yamlBytes, &doc); err != nil {
		errors = append(errors, ValidationError{
			File:    file,
			Message: fmt.Sprintf("failed to convert to JSON: %v", err),
		})
		return errors
	}

	if err := v.schema.Validate(doc); err != nil {
		if validationErr, ok := err.(*jsonschema.ValidationError); ok {
			errors = append(errors, extractSchemaErrors(file, validationErr)...)
		} else {
			errors = append(errors, ValidationError{
				File:    file,
				Message: err.Error(),
			})
		}
	}

	return errors
}

// extractSchemaErrors converts JSON schema validation errors to ValidationErrors
func extractSchemaErrors(file string, err *jsonschema.ValidationError) []ValidationError {
	var errors []ValidationError

	path := strings.Join(err.InstanceLocation, ".")
	if path == "" {
		path = "(root)"
	}

	errors = append(errors, ValidationError{
		File:    file,
		Path:    path,
		Message: err.Error(),
	})

	for _, cause := range err.Causes {
		errors = append(errors, extractSchemaErrors(file, cause)...)
	}

	return errors
}

// validateExtraRules applies additional validation rules beyond JSON schema
func validateExtraRules(seeds []SeedWithFile) []ValidationError {
	var errors []ValidationError

	// Check for duplicate (domain, measureName) pairs across files
	seen := make(map[string]string)
	for _, s := range seeds {
		key := s.Seed.Domain + "/" + s.Seed.MeasureName
		if prevFile, exists := seen[key]; exists {
			errors = append(errors, ValidationError{
				File:    s.File,
				Path:    "measureName",
				Message: fmt.Sprintf("duplicate initiative %q in domain %q (also in %s)", s.Seed.MeasureName, s.Seed.Domain, filepath.Base(prevFile)),
			})
		} else {
			seen[key] = s.File
		}
	}

	return errors
}
