package parser

import (
	"github.com/godsrf/dsrf"
)

// buildRow validates the fields of one line and assembles the Row. Fields
// are paired with the row type's validators by position; positions without
// a validator are ignored, and trailing fields beyond the validator list
// (or trailing validators beyond the fields) are dropped the same way.
//
// The first failing cell fails the whole row: no partial rows are produced.
// Columns whose validator reports no data are omitted from the row.
func buildRow(rowType string, rowNumber int, fields []string, validators []dsrf.CellValidator, ctx dsrf.CellContext) (*dsrf.Row, error) {
	row := &dsrf.Row{Type: rowType, Number: rowNumber}

	n := len(fields)
	if len(validators) < n {
		n = len(validators)
	}
	for i := 0; i < n; i++ {
		v := validators[i]
		if v == nil {
			continue
		}
		parsed, err := v.Validate(fields[i], ctx)
		if err != nil {
			return nil, err
		}
		cell, err := dsrf.NewCell(v.Name(), v.Type(), parsed)
		if err != nil {
			return nil, err
		}
		if cell == nil {
			continue
		}
		row.Cells = append(row.Cells, cell)
	}
	return row, nil
}
