// Package policy loads the income tax table used by the india-tax
// calculator and keeps the active copy current.
package policy

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"

	"financecalc/internal/finance"
)

//go:embed default_policy.yaml
var defaultPolicyYAML []byte

// Store is a source of the tax policy.
type Store interface {
	Load(ctx context.Context) (finance.TaxPolicy, error)
}

// Format names a policy file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// FormatFromPath picks the encoding from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported policy file extension %q (use .yaml, .toml or .json)", filepath.Ext(path))
	}
}

// Parse decodes and validates a policy document.
func Parse(data []byte, format Format) (finance.TaxPolicy, error) {
	var p finance.TaxPolicy
	var err error
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&p)
	case FormatTOML:
		err = toml.Unmarshal(data, &p)
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&p)
	default:
		return p, fmt.Errorf("unsupported policy format %q", format)
	}
	if err != nil {
		return p, fmt.Errorf("decode %s policy: %w", format, err)
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

// LoadFile reads a policy file, choosing the decoder from its extension.
func LoadFile(path string) (finance.TaxPolicy, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return finance.TaxPolicy{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return finance.TaxPolicy{}, fmt.Errorf("read policy file: %w", err)
	}
	return Parse(data, format)
}

// Default returns the policy compiled into the binary.
func Default() finance.TaxPolicy {
	p, err := Parse(defaultPolicyYAML, FormatYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded tax policy is invalid: %v", err))
	}
	return p
}

// Marshal encodes a policy for display or export.
func Marshal(p finance.TaxPolicy, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		return yaml.Marshal(p)
	case FormatTOML:
		return toml.Marshal(p)
	case FormatJSON:
		return json.MarshalIndent(p, "", "  ")
	default:
		return nil, fmt.Errorf("unsupported policy format %q", format)
	}
}

// EmbeddedStore serves the compiled-in policy.
type EmbeddedStore struct{}

func (EmbeddedStore) Load(context.Context) (finance.TaxPolicy, error) {
	return Default(), nil
}

// FileStore reads the policy from disk on every load, so edits are picked
// up by the next reload.
type FileStore struct {
	Path string
}

func (s FileStore) Load(context.Context) (finance.TaxPolicy, error) {
	return LoadFile(s.Path)
}
