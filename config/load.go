//go:build !tinygo

package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "config.schema.json"

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
			schemaErr = err
			return
		}
		schema, schemaErr = c.Compile(schemaURL)
	})
	return schema, schemaErr
}

// Load returns the defaults, overlaid with the YAML file at path (if path
// is not empty) and then with VOXOS_* environment variables, and checks
// the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}
		if cfg, err = Parse(raw); err != nil {
			return Config{}, fmt.Errorf("%s: %w", path, err)
		}
	}
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse overlays a YAML document on the defaults. Unknown keys are
// errors.
func Parse(raw []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse yaml: %w", err)
	}
	return cfg, nil
}

// ParseEnv applies VOXOS_* environment overrides to cfg.
func ParseEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks cfg against the embedded JSON schema.
func Validate(cfg Config) error {
	s, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	var doc any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return err
	}
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
