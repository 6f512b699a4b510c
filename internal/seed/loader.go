package seed

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadFromDirectory loads every *.yaml and *.yml file under dirPath. Files
// that fail to parse are reported as errors while the remaining seeds still
// load, so one broken file does not hide problems in the others.
func LoadFromDirectory(dirPath string) ([]SeedWithFile, []ValidationError) {
	var seeds []SeedWithFile
	var errors []ValidationError

	walkErr := filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if ext := filepath.Ext(path); ext != ".yaml" && ext != ".yml" {
			return nil
		}

		s, err := parseSeedFile(path)
		if err != nil {
			errors = append(errors, ValidationError{
				File:    path,
				Message: err.Error(),
			})
			return nil
		}
		seeds = append(seeds, SeedWithFile{Seed: s, File: path})
		return nil
	})
	if walkErr != nil {
		errors = append(errors, ValidationError{
			File:    dirPath,
			Message: fmt.Sprintf("failed to read directory: %v", walkErr),
		})
	}

	return seeds, errors
}

// parseSeedFile decodes one seed file strictly. Unknown keys are rejected so
// a misspelled field name cannot silently drop data, and an empty document is
// an error rather than an all-defaults seed.
func parseSeedFile(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Seed
	if err := dec.Decode(&s); err == io.EOF {
		return nil, fmt.Errorf("empty seed file")
	} else if err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return &s, nil
}
