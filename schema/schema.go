// Package schema defines the row-type tables that drive flat-file parsing:
// which row types exist, how each participates in block framing, and the
// ordered cell validators for its columns.
//
// Schemas are data-driven. A YAML document declares the row types of one
// (version, profile) pair; Load compiles it into a Schema that implements
// dsrf.RowSchema. The documents shipped with the module live in the specs
// package; user-supplied directories are layered in front via resolvers.
package schema

import (
	"sort"

	"github.com/godsrf/dsrf"
)

// RowClass tells the parser how a row type participates in block framing.
type RowClass string

// Row classes.
const (
	// ClassHead rows collect into the report-level HEAD block.
	ClassHead RowClass = "head"
	// ClassBody rows carry a block id in their second column and group
	// into numbered BODY blocks.
	ClassBody RowClass = "body"
	// ClassFoot rows collect into the file-terminal FOOT block.
	ClassFoot RowClass = "foot"
)

// CellDef describes one column of a row type. Columns are positional; the
// first entry covers the record-type column itself and is normally declared
// with type "ignore".
type CellDef struct {
	// Name of the cell, used in diagnostics and output.
	Name string `yaml:"name"`
	// Type is one of string, integer, decimal, boolean, or ignore.
	Type string `yaml:"type"`
	// Required rejects empty values.
	Required bool `yaml:"required"`
	// Repeated allows multiple values separated by the repeat delimiter.
	Repeated bool `yaml:"repeated"`
	// Pattern is a named pattern ("duration", "datetime", "territory") or
	// an inline regular expression every value must match.
	Pattern string `yaml:"pattern,omitempty"`
	// ValueSet names an allowed-value set declared by the same document.
	ValueSet string `yaml:"value_set,omitempty"`
}

// RowDef describes one row type: its class and its ordered columns.
type RowDef struct {
	Class RowClass  `yaml:"class"`
	Cells []CellDef `yaml:"cells"`
}

// Schema is the compiled row-type table of one (version, profile) pair. It
// implements dsrf.RowSchema. A Schema is immutable after Load and safe for
// concurrent readers.
type Schema struct {
	Version dsrf.Version
	Profile dsrf.Profile

	rows       map[string]RowDef
	validators map[string][]dsrf.CellValidator
	valueSets  map[string]*ValueSet
	rowTypes   []string
}

// Validators returns the ordered cell validators for a row type. A nil
// entry marks an ignored column. The second return is false for row types
// the schema does not know.
func (s *Schema) Validators(rowType string) ([]dsrf.CellValidator, bool) {
	v, ok := s.validators[rowType]
	return v, ok
}

// HeadType reports whether the row type collects into the HEAD block.
func (s *Schema) HeadType(rowType string) bool {
	return s.rows[rowType].Class == ClassHead
}

// FootType reports whether the row type collects into the FOOT block.
func (s *Schema) FootType(rowType string) bool {
	return s.rows[rowType].Class == ClassFoot
}

// RowTypes returns every known row type, sorted.
func (s *Schema) RowTypes() []string {
	return s.rowTypes
}

// Row returns the definition of a row type.
func (s *Schema) Row(rowType string) (RowDef, bool) {
	def, ok := s.rows[rowType]
	return def, ok
}

// ValueSet returns a named allowed-value set.
func (s *Schema) ValueSet(name string) (*ValueSet, bool) {
	vs, ok := s.valueSets[name]
	return vs, ok
}

// ValueSet is a named set of allowed cell values. Matching is exact and
// case-sensitive, as the standard's allowed-value sets are.
type ValueSet struct {
	name   string
	values map[string]struct{}
}

// NewValueSet builds a value set from its allowed values.
func NewValueSet(name string, values ...string) *ValueSet {
	vs := &ValueSet{
		name:   name,
		values: make(map[string]struct{}, len(values)),
	}
	for _, v := range values {
		vs.values[v] = struct{}{}
	}
	return vs
}

// Name returns the set's name.
func (s *ValueSet) Name() string {
	return s.name
}

// Contains reports whether v is an allowed value.
func (s *ValueSet) Contains(v string) bool {
	_, ok := s.values[v]
	return ok
}

// Values returns the allowed values, sorted.
func (s *ValueSet) Values() []string {
	out := make([]string, 0, len(s.values))
	for v := range s.values {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
