package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

type OutputFormat string

const (
	FormatJSON OutputFormat = "json"
	FormatText OutputFormat = "text"
	FormatYAML OutputFormat = "yaml"
)

func allowedFormats() []string {
	out := []string{string(FormatJSON), string(FormatText), string(FormatYAML)}
	slices.Sort(out)
	return out
}

// String implements pflag.Value.
func (f *OutputFormat) String() string {
	if *f == "" {
		return string(FormatText)
	}
	return strings.ToLower(string(*f))
}

// Set implements pflag.Value.
func (f *OutputFormat) Set(v string) error {
	v = strings.ToLower(strings.TrimSpace(v))
	if slices.Contains(allowedFormats(), v) {
		*f = OutputFormat(v)
		return nil
	}
	return fmt.Errorf("invalid format '%s', must be one of %s", v, strings.Join(allowedFormats(), ", "))
}

// Type implements pflag.Value.
func (f *OutputFormat) Type() string { return "format" }

// write renders v as JSON or YAML, or calls text for the human format.
func (f OutputFormat) write(w io.Writer, v any, text func(io.Writer) error) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return text(w)
	}
}
