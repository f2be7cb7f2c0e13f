package schema

import (
	"strings"
	"testing"

	"github.com/godsrf/dsrf"
	"github.com/shopspring/decimal"
)

func testContext() dsrf.CellContext {
	return dsrf.CellContext{RowNumber: 7, FileName: "test.tsv", BlockID: "3"}
}

func mustValidator(t *testing.T, def CellDef, sets map[string]*ValueSet) dsrf.CellValidator {
	t.Helper()
	v, err := NewCellValidator(def, sets, "|")
	if err != nil {
		t.Fatalf("NewCellValidator(%+v) error = %v", def, err)
	}
	return v
}

func TestStringCell(t *testing.T) {
	v := mustValidator(t, CellDef{Name: "Title", Type: "string"}, nil)

	got, err := v.Validate("Some Title", testContext())
	if err != nil {
		t.Fatalf("Validate error = %v", err)
	}
	if got != "Some Title" {
		t.Errorf("Validate = %v; want %q", got, "Some Title")
	}

	// Optional cell: empty means absent.
	got, err = v.Validate("", testContext())
	if err != nil {
		t.Fatalf("Validate(\"\") error = %v", err)
	}
	if got != nil {
		t.Errorf("Validate(\"\") = %v; want nil", got)
	}
}

func TestStringCell_Required(t *testing.T) {
	v := mustValidator(t, CellDef{Name: "Title", Type: "string", Required: true}, nil)

	_, err := v.Validate("", testContext())
	if err == nil {
		t.Fatal("Validate(\"\") on a required cell should fail")
	}
	cellErr, ok := err.(*dsrf.CellError)
	if !ok {
		t.Fatalf("error type = %T; want *dsrf.CellError", err)
	}
	if cellErr.CellName != "Title" {
		t.Errorf("CellName = %q; want Title", cellErr.CellName)
	}
	if !strings.Contains(cellErr.Message, "mandatory") {
		t.Errorf("Message = %q; want it to mention mandatory", cellErr.Message)
	}
}

func TestStringCell_Pattern(t *testing.T) {
	v := mustValidator(t, CellDef{Name: "ISRC", Type: "string", Pattern: "[A-Z]{2}[A-Z0-9]{3}[0-9]{7}"}, nil)

	if _, err := v.Validate("USAB11300012", testContext()); err != nil {
		t.Errorf("Validate(valid ISRC) error = %v", err)
	}

	_, err := v.Validate("not-an-isrc", testContext())
	if err == nil {
		t.Fatal("Validate(invalid ISRC) should fail")
	}
	if !strings.Contains(err.Error(), "does not match the pattern") {
		t.Errorf("error = %v; want a pattern diagnostic", err)
	}
}

func TestStringCell_ValueSet(t *testing.T) {
	sets := map[string]*ValueSet{
		"UseType": NewValueSet("UseType", "Stream", "Download"),
	}
	v := mustValidator(t, CellDef{Name: "UseType", Type: "string", ValueSet: "UseType"}, sets)

	if _, err := v.Validate("Stream", testContext()); err != nil {
		t.Errorf("Validate(Stream) error = %v", err)
	}

	_, err := v.Validate("Teleport", testContext())
	if err == nil {
		t.Fatal("Validate(Teleport) should fail")
	}
	if !strings.Contains(err.Error(), "allowed value set UseType") {
		t.Errorf("error = %v; want a value-set diagnostic", err)
	}
}

func TestStringCell_Repeated(t *testing.T) {
	sets := map[string]*ValueSet{
		"UseType": NewValueSet("UseType", "Stream", "Download"),
	}
	v := mustValidator(t, CellDef{Name: "UseType", Type: "string", ValueSet: "UseType", Repeated: true}, sets)

	got, err := v.Validate("Stream|Download", testContext())
	if err != nil {
		t.Fatalf("Validate error = %v", err)
	}
	values, ok := got.([]string)
	if !ok {
		t.Fatalf("Validate returned %T; want []string", got)
	}
	if len(values) != 2 || values[0] != "Stream" || values[1] != "Download" {
		t.Errorf("values = %v; want [Stream Download]", values)
	}

	// One bad value rejects the whole cell.
	if _, err := v.Validate("Stream|Teleport", testContext()); err == nil {
		t.Error("Validate with one bad value should fail")
	}
}

func TestIntegerCell(t *testing.T) {
	v := mustValidator(t, CellDef{Name: "NumberOfUsages", Type: "integer"}, nil)

	got, err := v.Validate("42", testContext())
	if err != nil {
		t.Fatalf("Validate error = %v", err)
	}
	if got != int64(42) {
		t.Errorf("Validate = %v (%T); want int64 42", got, got)
	}

	if _, err := v.Validate("forty-two", testContext()); err == nil {
		t.Error("Validate(forty-two) should fail")
	}

	got, err = v.Validate("", testContext())
	if err != nil || got != nil {
		t.Errorf("Validate(\"\") = %v, %v; want nil, nil", got, err)
	}
}

func TestIntegerCell_Repeated(t *testing.T) {
	v := mustValidator(t, CellDef{Name: "Ids", Type: "integer", Repeated: true}, nil)

	got, err := v.Validate("1|2|3", testContext())
	if err != nil {
		t.Fatalf("Validate error = %v", err)
	}
	values, ok := got.([]int64)
	if !ok {
		t.Fatalf("Validate returned %T; want []int64", got)
	}
	if len(values) != 3 || values[0] != 1 || values[2] != 3 {
		t.Errorf("values = %v; want [1 2 3]", values)
	}
}

func TestDecimalCell(t *testing.T) {
	v := mustValidator(t, CellDef{Name: "Revenue", Type: "decimal"}, nil)

	got, err := v.Validate("0.000123", testContext())
	if err != nil {
		t.Fatalf("Validate error = %v", err)
	}
	d, ok := got.(decimal.Decimal)
	if !ok {
		t.Fatalf("Validate returned %T; want decimal.Decimal", got)
	}
	if !d.Equal(decimal.RequireFromString("0.000123")) {
		t.Errorf("value = %s; want 0.000123", d)
	}

	if _, err := v.Validate("12,50", testContext()); err == nil {
		t.Error("Validate(12,50) should fail")
	}
}

func TestBooleanCell(t *testing.T) {
	v := mustValidator(t, CellDef{Name: "IsRoyaltyBearing", Type: "boolean"}, nil)

	for raw, want := range map[string]bool{"true": true, "True": true, "1": true, "false": false, "0": false} {
		got, err := v.Validate(raw, testContext())
		if err != nil {
			t.Errorf("Validate(%q) error = %v", raw, err)
			continue
		}
		if got != want {
			t.Errorf("Validate(%q) = %v; want %v", raw, got, want)
		}
	}

	if _, err := v.Validate("maybe", testContext()); err == nil {
		t.Error("Validate(maybe) should fail")
	}
}

func TestNamedPatterns(t *testing.T) {
	tests := []struct {
		pattern string
		value   string
		ok      bool
	}{
		{PatternDuration, "PT2M10S", true},
		{PatternDuration, "P1Y6M", true},
		{PatternDuration, "-PT30S", true},
		{PatternDuration, "2:10", false},
		{PatternDateTime, "2015-02-03T01:22:03Z", true},
		{PatternDateTime, "2015-02-03T01:22:03+02:00", true},
		{PatternDateTime, "20150203T012203", false},
		{PatternTerritory, "US", true},
		{PatternTerritory, "worldwide", true},
		{PatternTerritory, "Multi", true},
		{PatternTerritory, "2136", true},
		{PatternTerritory, "USA", false},
	}

	for _, tt := range tests {
		v := mustValidator(t, CellDef{Name: "X", Type: "string", Pattern: tt.pattern}, nil)
		_, err := v.Validate(tt.value, testContext())
		if tt.ok && err != nil {
			t.Errorf("pattern %s: Validate(%q) error = %v; want ok", tt.pattern, tt.value, err)
		}
		if !tt.ok && err == nil {
			t.Errorf("pattern %s: Validate(%q) succeeded; want error", tt.pattern, tt.value)
		}
	}
}

func TestNewCellValidator_Ignore(t *testing.T) {
	v, err := NewCellValidator(CellDef{Name: "RecordType", Type: "ignore"}, nil, "|")
	if err != nil {
		t.Fatalf("NewCellValidator error = %v", err)
	}
	if v != nil {
		t.Errorf("validator = %v; want nil for an ignored column", v)
	}
}

func TestNewCellValidator_Errors(t *testing.T) {
	tests := []struct {
		name string
		def  CellDef
	}{
		{"unknown type", CellDef{Name: "X", Type: "float"}},
		{"pattern on integer", CellDef{Name: "X", Type: "integer", Pattern: "[0-9]+"}},
		{"value set on decimal", CellDef{Name: "X", Type: "decimal", ValueSet: "Currency"}},
		{"unknown value set", CellDef{Name: "X", Type: "string", ValueSet: "Nope"}},
		{"bad pattern", CellDef{Name: "X", Type: "string", Pattern: "("}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewCellValidator(tt.def, nil, "|"); err == nil {
				t.Errorf("NewCellValidator(%+v) succeeded; want error", tt.def)
			}
		})
	}
}
