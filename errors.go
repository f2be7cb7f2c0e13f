package dsrf

import "fmt"

// RowError is a recoverable row-level validation failure: the offending row
// is reported and skipped, and parsing continues. It never aborts a file.
type RowError struct {
	// FileName is the base name of the file.
	FileName string
	// RowNumber is the 1-based physical line number.
	RowNumber int
	// Code classifies the defect.
	Code IssueCode
	// Message is the formatted diagnostic.
	Message string
	// Value is the rejected raw content, when one field is to blame.
	Value string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d in file %s: %s", e.RowNumber, e.FileName, e.Message)
}

// Issue converts the error into a reportable Issue.
func (e *RowError) Issue() Issue {
	return Issue{
		Severity:    SeverityError,
		Code:        e.Code,
		Diagnostics: e.Message,
		FileName:    e.FileName,
		RowNumber:   e.RowNumber,
		Value:       e.Value,
	}
}

// NewRowError builds a RowError from a diagnostic template.
func NewRowError(code IssueCode, id DiagnosticID, fileName string, rowNumber int, params map[string]any) *RowError {
	return &RowError{
		FileName:  fileName,
		RowNumber: rowNumber,
		Code:      code,
		Message:   FormatDiagnostic(id, params),
	}
}

// CellError is a cell-level validation failure. The parser treats it as a
// row-level failure for the enclosing row.
type CellError struct {
	// CellName names the offending cell.
	CellName string
	// Value is the raw field content that was rejected.
	Value string
	// FileName is the base name of the file.
	FileName string
	// RowNumber is the 1-based physical line number.
	RowNumber int
	// BlockID is the block context the cell was parsed in.
	BlockID string
	// Message is the formatted diagnostic.
	Message string
}

func (e *CellError) Error() string {
	return fmt.Sprintf("cell %s in row %d of file %s: %s", e.CellName, e.RowNumber, e.FileName, e.Message)
}

// Issue converts the error into a reportable Issue.
func (e *CellError) Issue() Issue {
	return Issue{
		Severity:    SeverityError,
		Code:        CodeCellInvalid,
		Diagnostics: e.Message,
		FileName:    e.FileName,
		RowNumber:   e.RowNumber,
		BlockID:     e.BlockID,
		CellName:    e.CellName,
		Value:       e.Value,
	}
}

// NewCellError builds a CellError from a diagnostic template.
func NewCellError(id DiagnosticID, cellName, value string, ctx CellContext, params map[string]any) *CellError {
	if params == nil {
		params = make(map[string]any, 3)
	}
	params["cell_name"] = cellName
	params["value"] = value
	params["row_number"] = ctx.RowNumber
	return &CellError{
		CellName:  cellName,
		Value:     value,
		FileName:  ctx.FileName,
		RowNumber: ctx.RowNumber,
		BlockID:   ctx.BlockID,
		Message:   FormatDiagnostic(id, params),
	}
}
