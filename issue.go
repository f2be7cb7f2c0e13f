package dsrf

import "strconv"

// IssueSeverity represents the severity of a parsing or validation issue.
type IssueSeverity string

const (
	// SeverityFatal indicates the issue aborted the parse of a file.
	SeverityFatal IssueSeverity = "fatal"
	// SeverityError indicates a row or file that failed validation.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a potential problem that should be reviewed.
	SeverityWarning IssueSeverity = "warning"
	// SeverityInformation indicates informational feedback.
	SeverityInformation IssueSeverity = "information"
)

// IssueCode identifies the kind of defect an issue reports.
type IssueCode string

const (
	// CodeEmptyRecord indicates an empty physical line.
	CodeEmptyRecord IssueCode = "empty-record"
	// CodeUnknownRowType indicates a row type missing from the schema.
	CodeUnknownRowType IssueCode = "unknown-row-type"
	// CodeBadBlockID indicates a body row whose block id is not an integer.
	CodeBadBlockID IssueCode = "bad-block-id"
	// CodeCellInvalid indicates a cell that failed its validator.
	CodeCellInvalid IssueCode = "cell-invalid"
	// CodeFileNameInvalid indicates a file name that does not follow the
	// DSR naming convention.
	CodeFileNameInvalid IssueCode = "file-name-invalid"
	// CodeFileNameMismatch indicates file-name parts that change across the
	// files of one report.
	CodeFileNameMismatch IssueCode = "file-name-mismatch"
	// CodeFileSetIncomplete indicates missing or duplicated file numbers in
	// a multi-file report.
	CodeFileSetIncomplete IssueCode = "file-set-incomplete"
	// CodeHeadMismatch indicates HEAD block cells that contradict the file
	// name.
	CodeHeadMismatch IssueCode = "head-mismatch"
	// CodeReadFailed indicates an I/O failure on the underlying stream.
	CodeReadFailed IssueCode = "read-failed"
)

// Issue represents a single reported defect. Row-level issues carry the file
// name and 1-based physical line number of the offending row; cell-level
// issues additionally name the cell and its raw value.
type Issue struct {
	// Severity of the issue.
	Severity IssueSeverity `json:"severity"`

	// Code identifying the kind of defect.
	Code IssueCode `json:"code"`

	// Diagnostics contains the human-readable message.
	Diagnostics string `json:"diagnostics,omitempty"`

	// FileName is the base name of the file the issue was found in.
	FileName string `json:"file_name,omitempty"`

	// RowNumber is the 1-based physical line number, if row-scoped.
	RowNumber int `json:"row_number,omitempty"`

	// BlockID is the block context: the block number for body rows, or the
	// row type for head/foot rows.
	BlockID string `json:"block_id,omitempty"`

	// CellName names the offending cell, if cell-scoped.
	CellName string `json:"cell_name,omitempty"`

	// Value is the raw cell or field content that was rejected.
	Value string `json:"value,omitempty"`
}

// IsError returns true if this is an error or fatal issue.
func (i Issue) IsError() bool {
	return i.Severity == SeverityError || i.Severity == SeverityFatal
}

// IsWarning returns true if this is a warning.
func (i Issue) IsWarning() bool {
	return i.Severity == SeverityWarning
}

// String returns a human-readable representation of the issue.
func (i Issue) String() string {
	at := ""
	if i.FileName != "" {
		at = " [" + i.FileName
		if i.RowNumber > 0 {
			at += ":" + strconv.Itoa(i.RowNumber)
		}
		at += "]"
	}
	return string(i.Severity) + ": " + i.Diagnostics + at
}

// IssueBuilder provides a fluent API for building issues.
type IssueBuilder struct {
	issue Issue
}

// NewIssue creates a new IssueBuilder.
func NewIssue(severity IssueSeverity, code IssueCode) *IssueBuilder {
	return &IssueBuilder{
		issue: Issue{
			Severity: severity,
			Code:     code,
		},
	}
}

// Error creates an error issue.
func Error(code IssueCode) *IssueBuilder {
	return NewIssue(SeverityError, code)
}

// Warning creates a warning issue.
func Warning(code IssueCode) *IssueBuilder {
	return NewIssue(SeverityWarning, code)
}

// Info creates an informational issue.
func Info(code IssueCode) *IssueBuilder {
	return NewIssue(SeverityInformation, code)
}

// Fatal creates a fatal issue.
func Fatal(code IssueCode) *IssueBuilder {
	return NewIssue(SeverityFatal, code)
}

// Diagnostics sets the diagnostic message.
func (b *IssueBuilder) Diagnostics(msg string) *IssueBuilder {
	b.issue.Diagnostics = msg
	return b
}

// File sets the file name.
func (b *IssueBuilder) File(name string) *IssueBuilder {
	b.issue.FileName = name
	return b
}

// Row sets the physical line number.
func (b *IssueBuilder) Row(n int) *IssueBuilder {
	b.issue.RowNumber = n
	return b
}

// Block sets the block context.
func (b *IssueBuilder) Block(id string) *IssueBuilder {
	b.issue.BlockID = id
	return b
}

// Cell sets the cell name and the rejected raw value.
func (b *IssueBuilder) Cell(name, value string) *IssueBuilder {
	b.issue.CellName = name
	b.issue.Value = value
	return b
}

// Value sets the rejected raw content without naming a cell.
func (b *IssueBuilder) Value(v string) *IssueBuilder {
	b.issue.Value = v
	return b
}

// Build returns the constructed issue.
func (b *IssueBuilder) Build() Issue {
	return b.issue
}
