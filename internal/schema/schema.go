// Package schema holds the embedded JSON Schemas for API payloads and
// plugin manifests.
package schema

import (
	"bytes"
	"embed"
	"fmt"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed *.schema.json
var schemaFS embed.FS

const (
	Session = "session"
	Hook    = "hook"
	Plugin  = "plugin"
)

var names = []string{Session, Hook, Plugin}

var (
	compileOnce sync.Once
	compiled    map[string]*jsonschema.Schema
	compileErr  error
)

func load() (map[string]*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.AssertFormat()
		for _, name := range names {
			data, err := schemaFS.ReadFile(fileName(name))
			if err != nil {
				compileErr = fmt.Errorf("read schema %s: %w", name, err)
				return
			}
			doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
			if err != nil {
				compileErr = fmt.Errorf("decode schema %s: %w", name, err)
				return
			}
			if err := c.AddResource(url(name), doc); err != nil {
				compileErr = fmt.Errorf("register schema %s: %w", name, err)
				return
			}
		}

		out := make(map[string]*jsonschema.Schema, len(names))
		for _, name := range names {
			s, err := c.Compile(url(name))
			if err != nil {
				compileErr = fmt.Errorf("compile %s: %w", name, err)
				return
			}
			out[name] = s
		}
		compiled = out
	})
	return compiled, compileErr
}

func fileName(name string) string {
	return name + ".schema.json"
}

func url(name string) string {
	return "mem://schemas/" + fileName(name)
}

// Compile returns the compiled schema called name.
func Compile(name string) (*jsonschema.Schema, error) {
	all, err := load()
	if err != nil {
		return nil, err
	}
	s, ok := all[name]
	if !ok {
		return nil, fmt.Errorf("unknown schema %q", name)
	}
	return s, nil
}

// Validate checks the JSON document data against the named schema.
func Validate(name string, data []byte) error {
	s, err := Compile(name)
	if err != nil {
		return err
	}
	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	if err := s.Validate(instance); err != nil {
		return fmt.Errorf("%s invalid: %w", name, err)
	}
	return nil
}

// Raw returns the source of the named schema.
func Raw(name string) ([]byte, error) {
	return schemaFS.ReadFile(fileName(name))
}
