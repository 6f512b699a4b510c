package seed

import (
	"path/filepath"
	"strings"
	"testing"
)

func mustNewValidator(t *testing.T) *Validator {
	t.Helper()

	validator, err := NewValidator("../../schemas/initiative_v1.json")
	if err != nil {
		t.Fatalf("failed to create validator: %v", err)
	}
	return validator
}

func TestValidator_ValidateDirectory_ValidFiles(t *testing.T) {
	validator := mustNewValidator(t)

	errors := validator.ValidateDirectory("../../fixtures/seed/valid")

	if len(errors) != 0 {
		t.Errorf("expected no errors, got %d:", len(errors))
		for _, err := range errors {
			t.Logf("  %v", err)
		}
	}
}

func TestValidator_ValidateDirectory_InvalidFiles(t *testing.T) {
	validator := mustNewValidator(t)

	errors := validator.ValidateDirectory("../../fixtures/seed/invalid")

	if len(errors) == 0 {
		t.Fatal("expected validation errors, got none")
	}

	for _, err := range errors {
		t.Logf("Error: %s: %s: %s", filepath.Base(err.File), err.Path, err.Message)
	}

	// Group errors by file
	errorsByFile := make(map[string][]ValidationError)
	for _, err := range errors {
		base := filepath.Base(err.File)
		errorsByFile[base] = append(errorsByFile[base], err)
	}

	// missing-fields.yaml has no measureName
	if errs, ok := errorsByFile["missing-fields.yaml"]; ok {
		hasNameError := false
		for _, err := range errs {
			if contains(err.Path, "measureName") || contains(err.Message, "measureName") {
				hasNameError = true
				break
			}
		}
		if !hasNameError {
			t.Errorf("expected error about missing measureName, got: %v", errs)
		}
	} else {
		t.Error("expected errors for missing-fields.yaml")
	}

	// bad-date.yaml has a malformed startDate
	if errs, ok := errorsByFile["bad-date.yaml"]; ok {
		hasDateError := false
		for _, err := range errs {
			if contains(err.Path, "startDate") || contains(err.Message, "startDate") {
				hasDateError = true
				break
			}
		}
		if !hasDateError {
			t.Errorf("expected error about startDate, got: %v", errs)
		}
	} else {
		t.Error("expected errors for bad-date.yaml")
	}

	// dup-a.yaml and dup-b.yaml define the same initiative
	hasDuplicateError := false
	for _, err := range errors {
		if contains(err.Message, "duplicate") {
			hasDuplicateError = true
			break
		}
	}
	if !hasDuplicateError {
		t.Error("expected duplicate initiative error")
	}
}

func TestLoadFromDirectory(t *testing.T) {
	seeds, errors := LoadFromDirectory("../../fixtures/seed/valid")

	if len(errors) != 0 {
		t.Fatalf("expected no load errors, got %v", errors)
	}
	if len(seeds) != 2 {
		t.Fatalf("expected 2 seeds, got %d", len(seeds))
	}

	byName := make(map[string]*Seed)
	for _, s := range seeds {
		byName[s.Seed.MeasureName] = s.Seed
	}

	sales, ok := byName["新規顧客開拓の強化"]
	if !ok {
		t.Fatal("expected sales seed to load")
	}
	if sales.Domain != "営業" || sales.StartDate != "2024-04-01" {
		t.Errorf("unexpected seed fields: %+v", sales)
	}
}

func contains(s, substr string) bool {
	return strings.Contains(s, substr)
}
