package dsrf

import (
	"fmt"
	"strings"
)

// DiagnosticID identifies a specific diagnostic message.
type DiagnosticID string

// Diagnostic IDs for row-level parsing failures.
const (
	DiagEmptyRecord    DiagnosticID = "ROW_EMPTY_RECORD"
	DiagUnknownRowType DiagnosticID = "ROW_UNKNOWN_TYPE"
	DiagBadBlockID     DiagnosticID = "ROW_BAD_BLOCK_ID"
)

// Diagnostic IDs for cell validation failures.
const (
	DiagCellInvalid       DiagnosticID = "CELL_INVALID"
	DiagCellRequired      DiagnosticID = "CELL_REQUIRED"
	DiagCellPattern       DiagnosticID = "CELL_PATTERN"
	DiagCellNotInValueSet DiagnosticID = "CELL_NOT_IN_VALUE_SET"
)

// Diagnostic IDs for report-level file checks.
const (
	DiagFileNameFormat    DiagnosticID = "FILE_NAME_FORMAT"
	DiagFileNamePart      DiagnosticID = "FILE_NAME_PART"
	DiagFileNameExtension DiagnosticID = "FILE_NAME_EXTENSION"
	DiagFileNameMismatch  DiagnosticID = "FILE_NAME_MISMATCH"
	DiagFileMissing       DiagnosticID = "FILE_MISSING"
	DiagFileDuplicate     DiagnosticID = "FILE_DUPLICATE"
	DiagHeadMismatch      DiagnosticID = "HEAD_MISMATCH"
)

// Diagnostic IDs for stream failures.
const (
	DiagReadFailed DiagnosticID = "READ_FAILED"
)

// DiagnosticTemplate defines the structure for a diagnostic message.
type DiagnosticTemplate struct {
	ID       DiagnosticID
	Severity IssueSeverity
	Code     IssueCode
	Template string
}

// diagnosticTemplates maps diagnostic IDs to their templates.
// Templates use {placeholder} syntax for variable substitution. The row and
// cell messages keep the wording the format's reference tooling emits.
var diagnosticTemplates = map[DiagnosticID]DiagnosticTemplate{
	DiagEmptyRecord: {
		Severity: SeverityError,
		Code:     CodeEmptyRecord,
		Template: "It is not permissible to include empty Records.",
	},
	DiagUnknownRowType: {
		Severity: SeverityError,
		Code:     CodeUnknownRowType,
		Template: "Row type {row_type} does not exist in the schema. Valid row types are: {valid_types}.",
	},
	DiagBadBlockID: {
		Severity: SeverityError,
		Code:     CodeBadBlockID,
		Template: "The block id \"{value}\" in line number {row_number} was expected to be an integer.",
	},

	DiagCellInvalid: {
		Severity: SeverityError,
		Code:     CodeCellInvalid,
		Template: "The cell \"{cell_name}\" in line number {row_number} contains the invalid value \"{value}\". Value should be a valid {cell_type}.",
	},
	DiagCellRequired: {
		Severity: SeverityError,
		Code:     CodeCellInvalid,
		Template: "The cell \"{cell_name}\" in line number {row_number} is mandatory and cannot be empty.",
	},
	DiagCellPattern: {
		Severity: SeverityError,
		Code:     CodeCellInvalid,
		Template: "The value \"{value}\" of cell \"{cell_name}\" in line number {row_number} does not match the pattern {pattern}.",
	},
	DiagCellNotInValueSet: {
		Severity: SeverityError,
		Code:     CodeCellInvalid,
		Template: "The value \"{value}\" of cell \"{cell_name}\" in line number {row_number} is not part of the allowed value set {value_set}.",
	},

	DiagFileNameFormat: {
		Severity: SeverityError,
		Code:     CodeFileNameInvalid,
		Template: "The file name \"{file_name}\" does not match the expected format {format}.",
	},
	DiagFileNamePart: {
		Severity: SeverityError,
		Code:     CodeFileNameInvalid,
		Template: "The file name component {part} has the invalid value \"{value}\" in file \"{file_name}\".",
	},
	DiagFileNameExtension: {
		Severity: SeverityError,
		Code:     CodeFileNameInvalid,
		Template: "The file \"{file_name}\" has an unsupported extension. Supported extensions are: {supported}.",
	},
	DiagFileNameMismatch: {
		Severity: SeverityError,
		Code:     CodeFileNameMismatch,
		Template: "The file name component {part} is expected to match across all files of the report (\"{expected}\" != \"{actual}\" in file \"{file_name}\").",
	},
	DiagFileMissing: {
		Severity: SeverityError,
		Code:     CodeFileSetIncomplete,
		Template: "The report declares {total} files, but file number {number} is missing.",
	},
	DiagFileDuplicate: {
		Severity: SeverityError,
		Code:     CodeFileSetIncomplete,
		Template: "File number {number} appears more than once in the report.",
	},
	DiagHeadMismatch: {
		Severity: SeverityWarning,
		Code:     CodeHeadMismatch,
		Template: "The HEAD cell {cell_name} value \"{cell_value}\" does not match the file name component {part} (\"{part_value}\").",
	},

	DiagReadFailed: {
		Severity: SeverityFatal,
		Code:     CodeReadFailed,
		Template: "Failed reading file \"{file_name}\": {error}",
	},
}

// FormatDiagnostic formats a diagnostic message with the given parameters.
func FormatDiagnostic(id DiagnosticID, params map[string]any) string {
	tmpl, ok := diagnosticTemplates[id]
	if !ok {
		return string(id)
	}
	return formatTemplate(tmpl.Template, params)
}

// GetDiagnosticTemplate returns the template for a diagnostic ID.
func GetDiagnosticTemplate(id DiagnosticID) (DiagnosticTemplate, bool) {
	tmpl, ok := diagnosticTemplates[id]
	if ok {
		tmpl.ID = id
	}
	return tmpl, ok
}

// Diagnostic starts an IssueBuilder preloaded with the template's severity,
// code and formatted message. Context fields (file, row, cell) are chained by
// the caller.
func Diagnostic(id DiagnosticID, params map[string]any) *IssueBuilder {
	tmpl, ok := diagnosticTemplates[id]
	if !ok {
		return NewIssue(SeverityError, CodeCellInvalid).Diagnostics(string(id))
	}
	return NewIssue(tmpl.Severity, tmpl.Code).Diagnostics(formatTemplate(tmpl.Template, params))
}

// formatTemplate replaces {placeholder} with values from params.
func formatTemplate(template string, params map[string]any) string {
	result := template
	for key, value := range params {
		placeholder := "{" + key + "}"
		result = strings.ReplaceAll(result, placeholder, fmt.Sprint(value))
	}
	return result
}
