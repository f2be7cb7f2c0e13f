package schema

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/godsrf/dsrf"
	"github.com/shopspring/decimal"
)

// Named patterns a schema document can reference in place of an inline
// regular expression. duration and datetime carry the standard's
// xs:duration and xs:dateTime shapes; territory matches the
// TerritoryOfUseOrSale values.
const (
	PatternDuration  = "duration"
	PatternDateTime  = "datetime"
	PatternTerritory = "territory"
)

var namedPatterns = map[string]string{
	PatternDuration:  `(?P<sign>-?)P(?:(?P<years>\d+)Y)?(?:(?P<months>\d+)M)?(?:(?P<days>\d+)D)?(?:T(?:(?P<hours>\d+)H)?(?:(?P<minutes>\d+)M)?(?:(?P<seconds>\d+)S)?)?`,
	PatternDateTime:  `[0-9]{4}-[0-9]{2}-[0-9]{2}T[0-9]{2}:[0-9]{2}:[0-9]{2}(Z|([-+][0-9]{2}:{0,1}[0-9]{2}))`,
	PatternTerritory: `(?i)(\w{2}|\d{1,4}|Worldwide|multi)`,
}

var (
	regexCacheMu sync.RWMutex
	regexCache   = make(map[string]*regexp.Regexp)
)

// compilePattern compiles a named or inline pattern, anchored to the whole
// value. Compiled expressions are cached process-wide; schemas for several
// profiles share the same columns.
func compilePattern(pattern string) (*regexp.Regexp, error) {
	if expanded, ok := namedPatterns[pattern]; ok {
		pattern = expanded
	}

	regexCacheMu.RLock()
	if cached, ok := regexCache[pattern]; ok {
		regexCacheMu.RUnlock()
		return cached, nil
	}
	regexCacheMu.RUnlock()

	compiled, err := regexp.Compile("^(?:" + pattern + ")$")
	if err != nil {
		return nil, err
	}

	regexCacheMu.Lock()
	regexCache[pattern] = compiled
	regexCacheMu.Unlock()

	return compiled, nil
}

// cellTypes maps document type names to cell types. The "ignore" entry
// never reaches here; the loader turns it into a nil validator.
var cellTypes = map[string]dsrf.CellType{
	"string":  dsrf.CellString,
	"integer": dsrf.CellInteger,
	"decimal": dsrf.CellDecimal,
	"boolean": dsrf.CellBoolean,
}

// NewCellValidator compiles one cell definition into its validator. An
// "ignore" (or empty) type yields (nil, nil): the row builder skips that
// column. Pattern and value-set constraints apply to string cells only.
func NewCellValidator(def CellDef, sets map[string]*ValueSet, repeatDelimiter string) (dsrf.CellValidator, error) {
	if def.Type == "" || def.Type == "ignore" {
		return nil, nil
	}
	typ, ok := cellTypes[def.Type]
	if !ok {
		return nil, fmt.Errorf("cell %q: unknown type %q", def.Name, def.Type)
	}
	if typ != dsrf.CellString && (def.Pattern != "" || def.ValueSet != "") {
		return nil, fmt.Errorf("cell %q: pattern and value_set require type string, not %q", def.Name, def.Type)
	}
	if repeatDelimiter == "" {
		repeatDelimiter = dsrf.DefaultRepeatDelimiter
	}

	base := baseCell{
		name:        def.Name,
		typ:         typ,
		required:    def.Required,
		repeated:    def.Repeated,
		repeatDelim: repeatDelimiter,
	}

	switch typ {
	case dsrf.CellString:
		v := &StringCell{baseCell: base}
		if def.Pattern != "" {
			re, err := compilePattern(def.Pattern)
			if err != nil {
				return nil, fmt.Errorf("cell %q: bad pattern: %w", def.Name, err)
			}
			v.pattern = re
			v.patternName = def.Pattern
		}
		if def.ValueSet != "" {
			vs, ok := sets[def.ValueSet]
			if !ok {
				return nil, fmt.Errorf("cell %q: unknown value set %q", def.Name, def.ValueSet)
			}
			v.valueSet = vs
		}
		return v, nil
	case dsrf.CellInteger:
		return &IntegerCell{baseCell: base}, nil
	case dsrf.CellDecimal:
		return &DecimalCell{baseCell: base}, nil
	default:
		return &BooleanCell{baseCell: base}, nil
	}
}

// baseCell carries what every cell validator shares.
type baseCell struct {
	name        string
	typ         dsrf.CellType
	required    bool
	repeated    bool
	repeatDelim string
}

// Name returns the cell name used in diagnostics and output.
func (b *baseCell) Name() string {
	return b.name
}

// Type returns the declared type of the cell's values.
func (b *baseCell) Type() dsrf.CellType {
	return b.typ
}

// empty handles the empty-field case shared by all validators: a required
// cell rejects it, any other cell is simply absent.
func (b *baseCell) empty(ctx dsrf.CellContext) (any, error) {
	if b.required {
		return nil, dsrf.NewCellError(dsrf.DiagCellRequired, b.name, "", ctx, nil)
	}
	return nil, nil
}

// pieces splits a non-empty raw field into its values, honoring Repeated.
func (b *baseCell) pieces(value string) []string {
	if !b.repeated {
		return []string{value}
	}
	return strings.Split(value, b.repeatDelim)
}

// StringCell validates string-typed columns, optionally against a pattern
// and an allowed-value set.
type StringCell struct {
	baseCell
	pattern     *regexp.Regexp
	patternName string
	valueSet    *ValueSet
}

// Validate implements dsrf.CellValidator.
func (c *StringCell) Validate(value string, ctx dsrf.CellContext) (any, error) {
	if value == "" {
		return c.empty(ctx)
	}
	values := c.pieces(value)
	for _, v := range values {
		if c.pattern != nil && !c.pattern.MatchString(v) {
			return nil, dsrf.NewCellError(dsrf.DiagCellPattern, c.name, v, ctx,
				map[string]any{"pattern": c.patternName})
		}
		if c.valueSet != nil && !c.valueSet.Contains(v) {
			return nil, dsrf.NewCellError(dsrf.DiagCellNotInValueSet, c.name, v, ctx,
				map[string]any{"value_set": c.valueSet.Name()})
		}
	}
	if !c.repeated {
		return values[0], nil
	}
	return values, nil
}

// IntegerCell validates integer-typed columns.
type IntegerCell struct {
	baseCell
}

// Validate implements dsrf.CellValidator.
func (c *IntegerCell) Validate(value string, ctx dsrf.CellContext) (any, error) {
	if value == "" {
		return c.empty(ctx)
	}
	values := c.pieces(value)
	parsed := make([]int64, 0, len(values))
	for _, v := range values {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, dsrf.NewCellError(dsrf.DiagCellInvalid, c.name, v, ctx,
				map[string]any{"cell_type": "integer"})
		}
		parsed = append(parsed, n)
	}
	if !c.repeated {
		return parsed[0], nil
	}
	return parsed, nil
}

// DecimalCell validates decimal-typed columns. Values keep exact decimal
// semantics; revenue columns must not round through float64.
type DecimalCell struct {
	baseCell
}

// Validate implements dsrf.CellValidator.
func (c *DecimalCell) Validate(value string, ctx dsrf.CellContext) (any, error) {
	if value == "" {
		return c.empty(ctx)
	}
	values := c.pieces(value)
	parsed := make([]decimal.Decimal, 0, len(values))
	for _, v := range values {
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return nil, dsrf.NewCellError(dsrf.DiagCellInvalid, c.name, v, ctx,
				map[string]any{"cell_type": "decimal"})
		}
		parsed = append(parsed, d)
	}
	if !c.repeated {
		return parsed[0], nil
	}
	return parsed, nil
}

// BooleanCell validates boolean-typed columns. It accepts the 1/t/true and
// 0/f/false forms strconv.ParseBool accepts.
type BooleanCell struct {
	baseCell
}

// Validate implements dsrf.CellValidator.
func (c *BooleanCell) Validate(value string, ctx dsrf.CellContext) (any, error) {
	if value == "" {
		return c.empty(ctx)
	}
	values := c.pieces(value)
	parsed := make([]bool, 0, len(values))
	for _, v := range values {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return nil, dsrf.NewCellError(dsrf.DiagCellInvalid, c.name, v, ctx,
				map[string]any{"cell_type": "boolean"})
		}
		parsed = append(parsed, b)
	}
	if !c.repeated {
		return parsed[0], nil
	}
	return parsed, nil
}
