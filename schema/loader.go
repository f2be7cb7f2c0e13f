package schema

import (
	"bytes"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/godsrf/dsrf"
	"gopkg.in/yaml.v3"
)

// Document is the YAML form of a schema definition as stored on disk.
type Document struct {
	Version   string              `yaml:"version"`
	Profile   string              `yaml:"profile"`
	ValueSets map[string][]string `yaml:"value_sets"`
	Rows      map[string]RowDef   `yaml:"rows"`
}

// LoaderOption configures schema compilation.
type LoaderOption func(*loaderConfig)

type loaderConfig struct {
	repeatDelimiter string
}

// WithRepeatDelimiter overrides the multi-value separator compiled into the
// cell validators. The default is the standard's "|".
func WithRepeatDelimiter(d string) LoaderOption {
	return func(c *loaderConfig) {
		if d != "" {
			c.repeatDelimiter = d
		}
	}
}

// LoadYAML decodes a schema document and compiles it. Decoding is strict:
// an unknown document field is an error, which catches typos in hand-edited
// schema files.
func LoadYAML(data []byte, opts ...LoaderOption) (*Schema, error) {
	cfg := loaderConfig{repeatDelimiter: dsrf.DefaultRepeatDelimiter}
	for _, opt := range opts {
		opt(&cfg)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode schema document: %w", err)
	}

	return compile(&doc, cfg)
}

// LoadFS reads and compiles a schema document from a file system.
func LoadFS(fsys fs.FS, path string, opts ...LoaderOption) (*Schema, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("read schema document: %w", err)
	}
	s, err := LoadYAML(data, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// compile validates the document and builds the Schema.
func compile(doc *Document, cfg loaderConfig) (*Schema, error) {
	version := dsrf.Version(doc.Version)
	if !version.IsValid() {
		return nil, fmt.Errorf("unsupported version %q", doc.Version)
	}
	profile, ok := dsrf.ParseProfile(doc.Profile)
	if !ok {
		return nil, fmt.Errorf("unknown profile %q", doc.Profile)
	}
	if !version.Supports(profile) {
		return nil, fmt.Errorf("version %s does not support profile %s", version, profile)
	}
	if len(doc.Rows) == 0 {
		return nil, fmt.Errorf("schema for %s/%s declares no row types", version, profile)
	}

	valueSets := make(map[string]*ValueSet, len(doc.ValueSets))
	for name, values := range doc.ValueSets {
		if len(values) == 0 {
			return nil, fmt.Errorf("value set %q is empty", name)
		}
		valueSets[name] = NewValueSet(name, values...)
	}

	s := &Schema{
		Version:    version,
		Profile:    profile,
		rows:       make(map[string]RowDef, len(doc.Rows)),
		validators: make(map[string][]dsrf.CellValidator, len(doc.Rows)),
		valueSets:  valueSets,
		rowTypes:   make([]string, 0, len(doc.Rows)),
	}

	for name, def := range doc.Rows {
		rowType := strings.ToUpper(name)
		if _, dup := s.rows[rowType]; dup {
			return nil, fmt.Errorf("row type %s declared twice", rowType)
		}
		switch def.Class {
		case ClassHead, ClassBody, ClassFoot:
		default:
			return nil, fmt.Errorf("row type %s: unknown class %q", rowType, def.Class)
		}
		if len(def.Cells) == 0 {
			return nil, fmt.Errorf("row type %s declares no cells", rowType)
		}

		validators := make([]dsrf.CellValidator, 0, len(def.Cells))
		for i, cell := range def.Cells {
			v, err := NewCellValidator(cell, valueSets, cfg.repeatDelimiter)
			if err != nil {
				return nil, fmt.Errorf("row type %s, column %d: %w", rowType, i, err)
			}
			validators = append(validators, v)
		}

		s.rows[rowType] = def
		s.validators[rowType] = validators
		s.rowTypes = append(s.rowTypes, rowType)
	}
	sort.Strings(s.rowTypes)

	return s, nil
}
