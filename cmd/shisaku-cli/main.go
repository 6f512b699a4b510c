package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/stakahara/shisaku/internal/seed"
	"github.com/stakahara/shisaku/internal/storage/sqlite"
)

func main() {
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	validateDir := validateCmd.String("dir", "", "directory containing initiative seed YAML files")

	importCmd := flag.NewFlagSet("import", flag.ExitOnError)
	importDir := importCmd.String("dir", "", "directory containing initiative seed YAML files")
	importDB := importCmd.String("db", "shisaku.db", "path to the SQLite database file")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "validate":
		validateCmd.Parse(os.Args[2:])
		if *validateDir == "" {
			fmt.Fprintln(os.Stderr, "Error: --dir flag is required")
			validateCmd.Usage()
			os.Exit(1)
		}
		os.Exit(runValidate(*validateDir))
	case "import":
		importCmd.Parse(os.Args[2:])
		if *importDir == "" {
			fmt.Fprintln(os.Stderr, "Error: --dir flag is required")
			importCmd.Usage()
			os.Exit(1)
		}
		os.Exit(runImport(*importDir, *importDB))
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: shisaku <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  validate --dir <path>              Validate initiative seed files in a directory")
	fmt.Println("  import --dir <path> [--db <path>]  Validate and import seed files into the database")
	fmt.Println()
}

func runValidate(dirPath string) int {
	errors, ok := validateDirectory(dirPath)
	if !ok {
		return 1
	}

	if len(errors) == 0 {
		fmt.Println("✓ All seed files are valid")
		return 0
	}

	printErrors(errors)
	return 1
}

func runImport(dirPath, dbPath string) int {
	errors, ok := validateDirectory(dirPath)
	if !ok {
		return 1
	}
	if len(errors) > 0 {
		printErrors(errors)
		return 1
	}

	seeds, loadErrors := seed.LoadFromDirectory(dirPath)
	if len(loadErrors) > 0 {
		printErrors(loadErrors)
		return 1
	}

	store, err := sqlite.NewStore(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open database: %v\n", err)
		return 1
	}
	defer store.Close()

	count, err := seed.Import(store, seeds)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: import failed after %d initiative(s): %v\n", count, err)
		return 1
	}

	fmt.Printf("✓ Imported %d initiative(s)\n", count)
	return 0
}

func validateDirectory(dirPath string) ([]seed.ValidationError, bool) {
	schemaPath := findSchemaFile()
	if schemaPath == "" {
		fmt.Fprintln(os.Stderr, "Error: could not find schemas/initiative_v1.json")
		return nil, false
	}

	validator, err := seed.NewValidator(schemaPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize validator: %v\n", err)
		return nil, false
	}

	return validator.ValidateDirectory(dirPath), true
}

func printErrors(errors []seed.ValidationError) {
	// Group errors by file
	errorsByFile := make(map[string][]seed.ValidationError)
	for _, err := range errors {
		errorsByFile[err.File] = append(errorsByFile[err.File], err)
	}

	var files []string
	for file := range errorsByFile {
		files = append(files, file)
	}
	sort.Strings(files)

	fmt.Fprintf(os.Stderr, "✗ Validation failed with %d error(s):\n\n", len(errors))
	for _, file := range files {
		for _, err := range errorsByFile[file] {
			if err.Path != "" {
				fmt.Fprintf(os.Stderr, "%s: %s: %s\n", filepath.Base(err.File), err.Path, err.Message)
			} else {
				fmt.Fprintf(os.Stderr, "%s: %s\n", filepath.Base(err.File), err.Message)
			}
		}
	}
}

// findSchemaFile looks for the schema file in common locations
func findSchemaFile() string {
	candidates := []string{
		"schemas/initiative_v1.json",
		"../schemas/initiative_v1.json",
		"../../schemas/initiative_v1.json",
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}
