// Package schemas validates decoded model output against the per-task JSON Schemas
// embedded in this package.
package schemas

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/Aquil1401/resume-reviewer/internal/models"
)

//go:embed *.json
var schemaFiles embed.FS

var (
	compiled   map[models.AnalysisTask]*gojsonschema.Schema
	compileErr error
	compileMu  sync.Once
)

// ValidationError represents a schema validation error with field paths
type ValidationError struct {
	Task   models.AnalysisTask
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s output failed validation:", ve.Task))
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf(" %d. %s: %s;", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// SchemaLoadError represents errors loading or parsing the schema itself
type SchemaLoadError struct {
	Path  string
	Cause error
}

func (e *SchemaLoadError) Error() string {
	return fmt.Sprintf("failed to load schema %s: %v", e.Path, e.Cause)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

func load() (map[models.AnalysisTask]*gojsonschema.Schema, error) {
	compileMu.Do(func() {
		out := make(map[models.AnalysisTask]*gojsonschema.Schema, len(models.AllTasks))
		for _, task := range models.AllTasks {
			path := string(task) + ".json"
			raw, err := schemaFiles.ReadFile(path)
			if err != nil {
				compileErr = &SchemaLoadError{Path: path, Cause: err}
				return
			}
			schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
			if err != nil {
				compileErr = &SchemaLoadError{Path: path, Cause: err}
				return
			}
			out[task] = schema
		}
		compiled = out
	})
	return compiled, compileErr
}

// Raw returns the schema document for a task.
func Raw(task models.AnalysisTask) (string, error) {
	raw, err := schemaFiles.ReadFile(string(task) + ".json")
	if err != nil {
		return "", fmt.Errorf("no schema for task %q: %w", task, err)
	}
	return string(raw), nil
}

// Validate checks a decoded JSON document against the schema of the task.
func Validate(task models.AnalysisTask, document any) error {
	all, err := load()
	if err != nil {
		return err
	}

	schema, ok := all[task]
	if !ok {
		return fmt.Errorf("no schema for task %q", task)
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(document))
	if err != nil {
		return fmt.Errorf("failed to validate %s output: %w", task, err)
	}

	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Task:   task,
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
