package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	terrors "github.com/3leaps/taprelease/internal/errors"
)

//go:embed schema/config.schema.json
var schemaJSON []byte

const schemaURL = "https://github.com/3leaps/taprelease/schema/config.schema.json"

// MissingInputMessage prefixes the list of absent required inputs.
const MissingInputMessage = "You must provide all necessary environment variables. Please reference the documentation."

// Requirement names the inputs an operation needs.
type Requirement int

const (
	// ForRelease requires everything a full publish run needs.
	ForRelease Requirement = iota
	// ForRender requires only what rendering a formula needs.
	ForRender
)

// Validate checks required inputs first, reporting every missing one at
// once, then checks value shapes against the embedded schema.
func (c *Config) Validate(req Requirement) error {
	if missing := c.missing(req); len(missing) > 0 {
		return terrors.Config("validate config",
			fmt.Errorf("%w: %s Missing: %s", terrors.ErrMissingInput, MissingInputMessage, strings.Join(missing, ", ")))
	}
	if err := validateSchema(c); err != nil {
		return terrors.Config("validate config", err)
	}
	return nil
}

func (c *Config) missing(req Requirement) []string {
	type input struct {
		key   string
		value string
	}
	inputs := []input{
		{"repository", c.Repository},
		{"install", c.Install},
	}
	if req == ForRelease {
		inputs = append(inputs,
			input{"github_token", c.GitHubToken},
			input{"homebrew_owner", c.HomebrewOwner},
			input{"homebrew_tap", c.HomebrewTap},
		)
	}

	var out []string
	for _, in := range inputs {
		if strings.TrimSpace(in.value) == "" {
			out = append(out, in.key)
		}
	}
	return out
}

func validateSchema(c *Config) error {
	schema, err := compileSchema()
	if err != nil {
		return err
	}
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	if err := schema.Validate(inst); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func compileSchema() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("parse config schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		return nil, fmt.Errorf("add config schema: %w", err)
	}
	schema, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile config schema: %w", err)
	}
	return schema, nil
}
