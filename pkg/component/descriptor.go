package component

import (
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// DescriptorFile is the descriptor looked up in a project directory.
const DescriptorFile = "sonarbridge-project.yaml"

//go:embed schema.json
var descriptorSchema []byte

// Sentinel errors for descriptor loading.
var (
	// ErrInvalidDescriptor indicates a descriptor failing schema validation.
	ErrInvalidDescriptor = errors.New("invalid project descriptor")
	// ErrDuplicateKey indicates two components sharing a key.
	ErrDuplicateKey = errors.New("duplicate component key")
)

// Descriptor is the YAML form of a component tree.
type Descriptor struct {
	Key       string       `yaml:"key"`
	Name      string       `yaml:"name,omitempty"`
	BuildUnit string       `yaml:"build_unit,omitempty"`
	Dir       string       `yaml:"dir,omitempty"`
	Modules   []Descriptor `yaml:"modules,omitempty"`
}

// ValidationError is one schema violation.
type ValidationError struct {
	Field       string
	Description string
}

// Validate checks raw descriptor YAML against the embedded JSON schema and
// returns the violations. A YAML syntax error is returned as error.
func Validate(data []byte) ([]ValidationError, error) {
	var doc any

	err := yaml.Unmarshal(data, &doc)
	if err != nil {
		return nil, fmt.Errorf("parse descriptor: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(descriptorSchema),
		gojsonschema.NewGoLoader(doc),
	)
	if err != nil {
		return nil, fmt.Errorf("validate descriptor: %w", err)
	}

	violations := make([]ValidationError, 0, len(result.Errors()))
	for _, verr := range result.Errors() {
		violations = append(violations, ValidationError{Field: verr.Field(), Description: verr.Description()})
	}

	return violations, nil
}

// Parse validates and decodes descriptor YAML.
func Parse(data []byte) (*Descriptor, error) {
	violations, err := Validate(data)
	if err != nil {
		return nil, err
	}

	if len(violations) > 0 {
		msgs := make([]string, 0, len(violations))
		for _, v := range violations {
			msgs = append(msgs, v.Field+": "+v.Description)
		}

		return nil, fmt.Errorf("%w: %s", ErrInvalidDescriptor, strings.Join(msgs, "; "))
	}

	var desc Descriptor

	err = yaml.Unmarshal(data, &desc)
	if err != nil {
		return nil, fmt.Errorf("decode descriptor: %w", err)
	}

	return &desc, nil
}

// Load reads the descriptor at path. When the file does not exist a
// stand-alone project named after projectDir is returned.
func Load(fs afero.Fs, path, projectDir string) (*Component, error) {
	exists, err := afero.Exists(fs, path)
	if err != nil {
		return nil, fmt.Errorf("stat descriptor: %w", err)
	}

	if !exists {
		return Standalone(projectDir), nil
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read descriptor: %w", err)
	}

	desc, err := Parse(data)
	if err != nil {
		return nil, err
	}

	return desc.Build()
}

// Standalone returns a root project without modules named after dir.
func Standalone(dir string) *Component {
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}

	name := filepath.Base(abs)

	return &Component{Key: name, Name: name, Qualifier: QualifierProject}
}

// Build converts the descriptor into a component tree rooted at a Project.
func (d *Descriptor) Build() (*Component, error) {
	seen := make(map[string]bool)

	root, err := d.build(seen)
	if err != nil {
		return nil, err
	}

	root.Qualifier = QualifierProject

	return root, nil
}

func (d *Descriptor) build(seen map[string]bool) (*Component, error) {
	if seen[d.Key] {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateKey, d.Key)
	}

	seen[d.Key] = true

	name := d.Name
	if name == "" {
		name = artifactOf(d.Key)
	}

	comp := &Component{Key: d.Key, Name: name, BuildUnit: d.BuildUnit, Dir: d.Dir}

	for i := range d.Modules {
		child, err := d.Modules[i].build(seen)
		if err != nil {
			return nil, err
		}

		comp.AddChild(child)
	}

	return comp, nil
}

// ArtifactOf returns the part of a "group:artifact" key after the last colon.
func ArtifactOf(key string) string { return artifactOf(key) }

func artifactOf(key string) string {
	if idx := strings.LastIndex(key, ":"); idx >= 0 {
		return key[idx+1:]
	}

	return key
}
