package api

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Request body schemas.
const (
	schemaRegister   = "register.json"
	schemaLogin      = "login.json"
	schemaTaskCreate = "task_create.json"
	schemaTaskUpdate = "task_update.json"
)

type validator struct {
	schemas map[string]*jsonschema.Schema
}

func newValidator() (*validator, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	compiler.AssertFormat = true

	entries, err := fs.ReadDir(schemaFS, "schemas")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded schemas: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		data, err := schemaFS.ReadFile(path.Join("schemas", e.Name()))
		if err != nil {
			return nil, err
		}
		if err := compiler.AddResource(e.Name(), bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("invalid schema %s: %w", e.Name(), err)
		}
		names = append(names, e.Name())
	}

	v := &validator{schemas: make(map[string]*jsonschema.Schema, len(names))}
	for _, name := range names {
		s, err := compiler.Compile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to compile schema %s: %w", name, err)
		}
		v.schemas[name] = s
	}
	return v, nil
}

// validate checks a document decoded with json.Decoder.UseNumber against
// the named schema.
func (v *validator) validate(name string, doc any) error {
	s, ok := v.schemas[name]
	if !ok {
		return fmt.Errorf("unknown schema %q", name)
	}
	err := s.Validate(doc)
	if err == nil {
		return nil
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return badRequest("%v", err)
	}
	var problems []string
	collectProblems(ve, &problems)
	sort.Strings(problems)
	return badRequest("%s", strings.Join(problems, "; "))
}

func collectProblems(ve *jsonschema.ValidationError, out *[]string) {
	if len(ve.Causes) == 0 {
		field := strings.TrimPrefix(ve.InstanceLocation, "/")
		if field == "" {
			*out = append(*out, ve.Message)
			return
		}
		*out = append(*out, strings.ReplaceAll(field, "/", ".")+": "+ve.Message)
		return
	}
	for _, cause := range ve.Causes {
		collectProblems(cause, out)
	}
}
