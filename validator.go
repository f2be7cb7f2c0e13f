package dsrf

// Format constants of the flat-file report format. Options can override the
// delimiters for non-standard inputs; the defaults match the DSRF standard.
const (
	// DefaultFieldDelimiter separates the cells of a physical line.
	DefaultFieldDelimiter = '\t'
	// DefaultRepeatDelimiter separates the values of a multi-valued cell.
	DefaultRepeatDelimiter = "|"
	// DefaultCommentPrefix marks a comment line when it starts the first
	// field.
	DefaultCommentPrefix = "#"
	// GzipSuffix marks a gzip-compressed report file.
	GzipSuffix = ".tsv.gz"
)

// CellContext carries the position a cell is validated at, for error
// reporting.
type CellContext struct {
	// RowNumber is the 1-based physical line number.
	RowNumber int
	// FileName is the base name of the file being parsed.
	FileName string
	// BlockID is the block number as text for body rows, or the row type
	// for head/foot rows.
	BlockID string
}

// CellValidator decides what is legal inside one column of one row type.
// Implementations are supplied per (row type, column) through a RowSchema.
//
// Validate returns the parsed, typed value for the raw field text: a scalar
// (string, int64, decimal.Decimal, bool) or a slice of one of those for
// multi-valued cells. The dynamic type must match Type. Returning nil or an
// empty string signals that the column carried no data; the column is then
// omitted from the row without error. A non-nil error rejects the whole row.
type CellValidator interface {
	// Name is the cell name used in diagnostics and output.
	Name() string
	// Type is the declared type of the cell's values.
	Type() CellType
	// Validate parses and checks one raw field.
	Validate(value string, ctx CellContext) (any, error)
}

// RowSchema supplies the parser's row-type knowledge: which row types exist,
// which are HEAD-class or FOOT-class, and the ordered cell validators for
// each. Implementations must be safe for concurrent readers.
type RowSchema interface {
	// Validators returns the ordered cell validators for a row type. A nil
	// entry means the column at that position is ignored. The second return
	// is false for unknown row types.
	Validators(rowType string) ([]CellValidator, bool)

	// HeadType reports whether the row type belongs to the HEAD block.
	HeadType(rowType string) bool

	// FootType reports whether the row type belongs to the FOOT block.
	FootType(rowType string) bool

	// RowTypes returns all known row types, sorted, for diagnostics.
	RowTypes() []string
}
