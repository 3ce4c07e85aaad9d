package render

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/sonarbridge/pkg/measure"
)

const yamlIndent = 2

// JSONRenderer writes the visible snapshot as indented JSON.
type JSONRenderer struct {
	opts Options
}

// Render implements Renderer.
func (r *JSONRenderer) Render(w io.Writer, snap *measure.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(Visible(snap, r.opts)); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}

	return nil
}

// YAMLRenderer writes the visible snapshot as YAML.
type YAMLRenderer struct {
	opts Options
}

// Render implements Renderer.
func (r *YAMLRenderer) Render(w io.Writer, snap *measure.Snapshot) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(yamlIndent)

	if err := enc.Encode(Visible(snap, r.opts)); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}

	return nil
}
