package dsrf

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// BlockType classifies a block of rows. The zero value is the unset state a
// fresh block starts in; the type is assigned from the first row the block
// receives and at most once per block lifetime (a FOOT-class row may claim a
// still-unset block that a HEAD-class row would otherwise have claimed).
type BlockType string

const (
	// BlockUnset is the state of a freshly opened block before any row
	// joined it.
	BlockUnset BlockType = ""
	// BlockHead is the leading metadata block of a file.
	BlockHead BlockType = "HEAD"
	// BlockBody is a numbered data block.
	BlockBody BlockType = "BODY"
	// BlockFoot is the trailing summary block of a file.
	BlockFoot BlockType = "FOOT"
)

// String returns the block type name, or "UNSET" for the zero value.
func (t BlockType) String() string {
	if t == BlockUnset {
		return "UNSET"
	}
	return string(t)
}

// CellType is the declared type of a cell's values.
type CellType string

const (
	// CellString holds free or patterned text values.
	CellString CellType = "string"
	// CellInteger holds int64 values.
	CellInteger CellType = "integer"
	// CellDecimal holds exact decimal values.
	CellDecimal CellType = "decimal"
	// CellBoolean holds boolean values.
	CellBoolean CellType = "boolean"
)

// Cell is one validated, typed column value within a Row. Exactly one of the
// value slices is populated, matching Type; a cell always carries at least
// one value (columns that validated to nothing are omitted from the Row).
type Cell struct {
	Name string   `json:"name"`
	Type CellType `json:"type"`

	Strings  []string          `json:"strings,omitempty"`
	Integers []int64           `json:"integers,omitempty"`
	Decimals []decimal.Decimal `json:"decimals,omitempty"`
	Booleans []bool            `json:"booleans,omitempty"`
}

// Len returns the number of values the cell carries.
func (c *Cell) Len() int {
	switch c.Type {
	case CellInteger:
		return len(c.Integers)
	case CellDecimal:
		return len(c.Decimals)
	case CellBoolean:
		return len(c.Booleans)
	default:
		return len(c.Strings)
	}
}

// First returns the first value as display text, or "" for an empty cell.
// Handy for HEAD cells, which are single-valued.
func (c *Cell) First() string {
	if c.Len() == 0 {
		return ""
	}
	switch c.Type {
	case CellInteger:
		return strconv.FormatInt(c.Integers[0], 10)
	case CellDecimal:
		return c.Decimals[0].String()
	case CellBoolean:
		return strconv.FormatBool(c.Booleans[0])
	default:
		return c.Strings[0]
	}
}

// NewStringCell builds a string cell from one or more values.
func NewStringCell(name string, values ...string) *Cell {
	return &Cell{Name: name, Type: CellString, Strings: values}
}

// NewIntegerCell builds an integer cell from one or more values.
func NewIntegerCell(name string, values ...int64) *Cell {
	return &Cell{Name: name, Type: CellInteger, Integers: values}
}

// NewDecimalCell builds a decimal cell from one or more values.
func NewDecimalCell(name string, values ...decimal.Decimal) *Cell {
	return &Cell{Name: name, Type: CellDecimal, Decimals: values}
}

// NewBooleanCell builds a boolean cell from one or more values.
func NewBooleanCell(name string, values ...bool) *Cell {
	return &Cell{Name: name, Type: CellBoolean, Booleans: values}
}

// NewCell assembles a Cell from a validator's parsed output. Scalars are
// wrapped as a single value; slices are used as-is. A nil output, an empty
// string, or an empty slice means the column carried no data: NewCell
// returns (nil, nil) and the column is omitted. An output whose dynamic type
// does not match the declared cell type is an error.
func NewCell(name string, typ CellType, parsed any) (*Cell, error) {
	if parsed == nil {
		return nil, nil
	}
	switch typ {
	case CellString:
		switch v := parsed.(type) {
		case string:
			if v == "" {
				return nil, nil
			}
			return NewStringCell(name, v), nil
		case []string:
			if len(v) == 0 {
				return nil, nil
			}
			return NewStringCell(name, v...), nil
		}
	case CellInteger:
		switch v := parsed.(type) {
		case int64:
			return NewIntegerCell(name, v), nil
		case []int64:
			if len(v) == 0 {
				return nil, nil
			}
			return NewIntegerCell(name, v...), nil
		}
	case CellDecimal:
		switch v := parsed.(type) {
		case decimal.Decimal:
			return NewDecimalCell(name, v), nil
		case []decimal.Decimal:
			if len(v) == 0 {
				return nil, nil
			}
			return NewDecimalCell(name, v...), nil
		}
	case CellBoolean:
		switch v := parsed.(type) {
		case bool:
			return NewBooleanCell(name, v), nil
		case []bool:
			if len(v) == 0 {
				return nil, nil
			}
			return NewBooleanCell(name, v...), nil
		}
	}
	return nil, fmt.Errorf("cell %q: validator returned %T, want %s", name, parsed, typ)
}

// Row is one validated physical record.
type Row struct {
	// Type is the upper-cased row-type code (e.g. "SR01", "HEAD").
	Type string `json:"type"`

	// Number is the 1-based physical line number within the file.
	Number int `json:"number"`

	// Cells holds the validated cells in column order. Columns whose
	// validator returned no data are absent.
	Cells []*Cell `json:"cells,omitempty"`
}

// Cell returns the named cell, or nil.
func (r *Row) Cell(name string) *Cell {
	for _, c := range r.Cells {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Block is a contiguous run of rows of one kind within a file: the HEAD
// metadata block, a numbered BODY block, or the trailing FOOT block. A Block
// exclusively owns its Rows, which exclusively own their Cells.
type Block struct {
	// Type of the block; BlockUnset until the first row joins.
	Type BlockType `json:"type,omitempty"`

	// Number identifies BODY blocks; meaningless for HEAD and FOOT.
	Number int64 `json:"number,omitempty"`

	// Version is the report version string, captured from the HEAD row.
	Version string `json:"version,omitempty"`

	// FileNumber is the file's position within a multi-file report.
	FileNumber int `json:"file_number,omitempty"`

	// Rows in physical order.
	Rows []*Row `json:"rows,omitempty"`
}

// RowCount returns the number of rows in the block.
func (b *Block) RowCount() int {
	return len(b.Rows)
}

// String returns a compact description for logs.
func (b *Block) String() string {
	switch b.Type {
	case BlockBody:
		return fmt.Sprintf("BODY block %d (%d rows, file %d)", b.Number, len(b.Rows), b.FileNumber)
	case BlockUnset:
		return fmt.Sprintf("UNSET block (%d rows, file %d)", len(b.Rows), b.FileNumber)
	default:
		return fmt.Sprintf("%s block (%d rows, file %d)", b.Type, len(b.Rows), b.FileNumber)
	}
}
