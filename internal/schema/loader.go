package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// structValidator checks the declarative shape of definitions before
// the semantic checks in validateSchema run.
var structValidator = validator.New()

// schemaFile is the on-disk YAML shape; one file may define several
// document types.
type schemaFile struct {
	Schemas []DocSchema `yaml:"schemas" validate:"required,min=1,dive"`
}

// LoadDir merges YAML schema definitions from dir into the registry.
// External definitions override built-ins of the same type. Any
// malformed file aborts the load: definition errors are fatal at
// startup, never deferred to document processing.
func (r *Registry) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read schema dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
			files = append(files, filepath.Join(dir, name))
		}
	}
	sort.Strings(files)

	for _, path := range files {
		if err := r.loadFile(path); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read schema file %s: %w", path, err)
	}

	var file schemaFile
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return &DefinitionError{DocType: path, Detail: "invalid YAML", Err: err}
	}
	if err := structValidator.Struct(file); err != nil {
		return &DefinitionError{DocType: path, Detail: "invalid structure", Err: err}
	}

	for _, s := range file.Schemas {
		if err := r.add(s); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}
