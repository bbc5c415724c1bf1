package algorithm

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is a definition file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts json, yaml or yml. Empty means json.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unsupported format %q (want json or yaml)", s)
}

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	if f == FormatYAML {
		return "application/yaml"
	}
	return "application/json"
}

// Encode writes def in format f. Conditions are written in their text form.
func Encode(def *Definition, f Format) ([]byte, error) {
	switch f {
	case FormatYAML:
		return yaml.Marshal(def)
	case FormatJSON:
		return json.MarshalIndent(def, "", "  ")
	}
	return nil, fmt.Errorf("unsupported format %q", f)
}

// Decode reads a definition in format f. Node ids default to their map key.
// The result is not validated.
func Decode(data []byte, f Format) (*Definition, error) {
	var def Definition
	var err error
	switch f {
	case FormatYAML:
		err = yaml.Unmarshal(data, &def)
	case FormatJSON:
		err = json.Unmarshal(data, &def)
	default:
		return nil, fmt.Errorf("unsupported format %q", f)
	}
	if err != nil {
		return nil, fmt.Errorf("decode algorithm: %w", err)
	}
	for id, n := range def.Nodes {
		if n != nil && n.ID == "" {
			n.ID = id
		}
	}
	return &def, nil
}
