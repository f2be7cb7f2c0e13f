// Package parser turns one flat report file into a lazy sequence of blocks.
//
// A FileParser reads the file line by line, classifies every row against a
// dsrf.RowSchema, validates its cells, and groups the surviving rows into
// HEAD, BODY and FOOT blocks using the format's implicit framing rules.
// Blocks are delivered over a channel as soon as they close, so a consumer
// can process a multi-gigabyte file without ever holding more than one
// block in memory:
//
//	p := parser.New("DSR_...tsv.gz", 1, sch)
//	blocks, err := p.Parse(ctx)
//	if err != nil {
//		return err
//	}
//	for block := range blocks {
//		// use block
//	}
//	issues := p.Result().Issues
//
// Row-level defects never abort a file. A malformed row is reported on the
// parser's Result, logged, and skipped; the enclosing block keeps its state
// and parsing continues with the next physical line. Only stream failures
// (unreadable file, oversized line, broken gzip stream) are fatal.
//
// A FileParser consumes its input once and cannot be restarted. Cancel the
// context to abandon a parse early; the input is closed on every exit path.
package parser

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/godsrf/dsrf"
	"github.com/godsrf/dsrf/tsv"
)

// headRowType is the row type that opens a report and carries the version.
const headRowType = "HEAD"

// FileParser parses a single file of a report. Instances are single-use:
// one call to Parse (or ParseAll) consumes the input.
type FileParser struct {
	fileName   string
	fileNumber int
	schema     dsrf.RowSchema
	opts       *dsrf.Options
	result     *dsrf.Result

	open func() (*tsv.Reader, error)

	mu      sync.Mutex
	started bool
	err     error
}

func newFileParser(name string, fileNumber int, schema dsrf.RowSchema, opts []dsrf.Option) *FileParser {
	o := dsrf.Apply(opts...)
	result := dsrf.NewResult()
	result.FileName = name
	result.SetMaxIssues(o.MaxIssues)
	return &FileParser{
		fileName:   name,
		fileNumber: fileNumber,
		schema:     schema,
		opts:       o,
		result:     result,
	}
}

// New creates a parser for a report file on disk. Files ending in ".gz" are
// decompressed transparently. fileNumber is the file's position within its
// report (the x of "xofy" in the file name); it is stamped on every emitted
// block.
func New(path string, fileNumber int, schema dsrf.RowSchema, opts ...dsrf.Option) *FileParser {
	p := newFileParser(filepath.Base(path), fileNumber, schema, opts)
	p.open = func() (*tsv.Reader, error) {
		return tsv.Open(path, p.readerOptions()...)
	}
	return p
}

// NewReader creates a parser over an arbitrary stream. The name is used in
// diagnostics only; the stream is read as-is, without gzip detection.
func NewReader(r io.Reader, name string, fileNumber int, schema dsrf.RowSchema, opts ...dsrf.Option) *FileParser {
	p := newFileParser(name, fileNumber, schema, opts)
	p.open = func() (*tsv.Reader, error) {
		return tsv.New(r, name, p.readerOptions()...), nil
	}
	return p
}

func (p *FileParser) readerOptions() []tsv.Option {
	return []tsv.Option{
		tsv.WithDelimiter(p.opts.FieldDelimiter),
		tsv.WithMaxLineBytes(p.opts.MaxLineBytes),
	}
}

// FileName returns the base name of the file being parsed.
func (p *FileParser) FileName() string {
	return p.fileName
}

// FileNumber returns the file's position within its report.
func (p *FileParser) FileNumber() int {
	return p.fileNumber
}

// Result returns the parser's issue collection. Its methods are safe to
// call while the parse is running; read the Issues slice directly only once
// the block channel has closed.
func (p *FileParser) Result() *dsrf.Result {
	return p.result
}

// Err returns the error that stopped the parse, if any: a stream failure,
// a canceled context, or the first row error when fail-fast is on. Row
// errors skipped in normal operation are reported on Result, not here.
func (p *FileParser) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *FileParser) setErr(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err == nil {
		p.err = err
	}
}

// Parse opens the input and starts emitting blocks. The returned channel
// delivers every block in file order and is closed after the final flush;
// it must be drained (or the context canceled) to release the input. An
// error here means the input could not be opened at all.
func (p *FileParser) Parse(ctx context.Context) (<-chan *dsrf.Block, error) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return nil, errors.New("parser: input already consumed")
	}
	p.started = true
	p.mu.Unlock()

	reader, err := p.open()
	if err != nil {
		p.fatal(err)
		return nil, err
	}

	blocks := make(chan *dsrf.Block, p.opts.ChannelBuffer)
	go func() {
		defer close(blocks)
		defer reader.Close()
		p.run(ctx, reader, blocks)
	}()
	return blocks, nil
}

// ParseAll runs Parse and collects every block. The error is the parser's
// terminal error, so a file that was fully parsed with skipped rows returns
// all its blocks and a nil error; consult Result for the skipped rows.
func (p *FileParser) ParseAll(ctx context.Context) ([]*dsrf.Block, error) {
	blocks, err := p.Parse(ctx)
	if err != nil {
		return nil, err
	}
	var out []*dsrf.Block
	for b := range blocks {
		out = append(out, b)
	}
	return out, p.Err()
}

// run is the parsing loop: one pass over the physical lines, accumulating
// rows into the open block and flushing it whenever the boundary rules say
// it is complete. The last open block always flushes at end of input, even
// for an empty file.
func (p *FileParser) run(ctx context.Context, r *tsv.Reader, blocks chan<- *dsrf.Block) {
	start := time.Now()
	current := p.newBlock()
	p.opts.Logger.Info("Start parsing the HEAD block in file number %d.", p.fileNumber)

	for {
		// Blocks can span millions of lines, so cancellation is checked per
		// line, not just at emit time.
		if err := ctx.Err(); err != nil {
			p.setErr(err)
			return
		}

		fields, rowNumber, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			p.fatal(err)
			return
		}

		if len(fields) == 0 {
			if p.skipRow(rowNumber, dsrf.NewRowError(dsrf.CodeEmptyRecord, dsrf.DiagEmptyRecord, p.fileName, rowNumber, nil)) {
				return
			}
			continue
		}

		// Comment lines count toward line numbers but are never parsed.
		if strings.HasPrefix(fields[0], p.opts.CommentPrefix) {
			if p.opts.Metrics != nil {
				p.opts.Metrics.RecordComment()
			}
			continue
		}

		rowType := strings.ToUpper(fields[0])
		validators, known := p.schema.Validators(rowType)
		if !known {
			rerr := dsrf.NewRowError(dsrf.CodeUnknownRowType, dsrf.DiagUnknownRowType, p.fileName, rowNumber, map[string]any{
				"row_type":    rowType,
				"valid_types": strings.Join(p.schema.RowTypes(), ", "),
			})
			rerr.Value = fields[0]
			if p.skipRow(rowNumber, rerr) {
				return
			}
			continue
		}

		head := p.schema.HeadType(rowType)
		foot := p.schema.FootType(rowType)

		// Body rows carry their block number in the second field. A bad
		// number fails the row before it can touch block state.
		var number int64
		var hasNumber bool
		if !head && !foot {
			var raw string
			number, raw, hasNumber = blockNumberOf(fields)
			if !hasNumber {
				rerr := dsrf.NewRowError(dsrf.CodeBadBlockID, dsrf.DiagBadBlockID, p.fileName, rowNumber, map[string]any{
					"value":      raw,
					"row_number": rowNumber,
				})
				rerr.Value = raw
				if p.skipRow(rowNumber, rerr) {
					return
				}
				continue
			}
		}

		if endOfBlock(current, head, foot, number, hasNumber) {
			if !p.emit(ctx, blocks, current) {
				return
			}
			current = p.newBlock()
		}

		// The row is built before the block is touched, so a failing cell
		// leaves the open block exactly as it was.
		row, err := buildRow(rowType, rowNumber, fields, validators, p.cellContext(rowType, rowNumber, number, hasNumber))
		if err != nil {
			if p.skipRow(rowNumber, err) {
				return
			}
			continue
		}

		switch {
		case foot:
			if current.Type != dsrf.BlockFoot {
				p.opts.Logger.Info("Start parsing the FOOT block in file number %d.", p.fileNumber)
				current.Type = dsrf.BlockFoot
			}
		case head:
			if current.Type == dsrf.BlockUnset {
				current.Type = dsrf.BlockHead
			}
			if rowType == headRowType && len(fields) > 1 {
				current.Version = fields[1]
			}
		default:
			if current.Type == dsrf.BlockUnset {
				current.Type = dsrf.BlockBody
				current.Number = number
				p.opts.Logger.Info("Start parsing block number %d in file number %d.", number, p.fileNumber)
			}
		}

		current.Rows = append(current.Rows, row)
		if p.opts.Metrics != nil {
			p.opts.Metrics.RecordRow()
			p.opts.Metrics.RecordCells(len(row.Cells))
		}
	}

	if !p.emit(ctx, blocks, current) {
		return
	}
	if p.opts.Metrics != nil {
		p.opts.Metrics.RecordFile(time.Since(start))
	}
}

func (p *FileParser) newBlock() *dsrf.Block {
	return &dsrf.Block{FileNumber: p.fileNumber}
}

// cellContext builds the position a row's cells are validated at. Body rows
// are contextualized by their block number, head and foot rows by the row
// type itself.
func (p *FileParser) cellContext(rowType string, rowNumber int, number int64, hasNumber bool) dsrf.CellContext {
	blockID := rowType
	if hasNumber {
		blockID = strconv.FormatInt(number, 10)
	}
	return dsrf.CellContext{
		RowNumber: rowNumber,
		FileName:  p.fileName,
		BlockID:   blockID,
	}
}

// emit hands a finished block to the consumer. It reports false when the
// context was canceled instead.
func (p *FileParser) emit(ctx context.Context, out chan<- *dsrf.Block, b *dsrf.Block) bool {
	select {
	case out <- b:
		if p.opts.Metrics != nil {
			p.opts.Metrics.RecordBlock(b.Type)
		}
		p.opts.Logger.Debug("Emitted %s.", b)
		return true
	case <-ctx.Done():
		p.setErr(ctx.Err())
		return false
	}
}

// skipRow reports a failed row and decides whether the parse goes on. It
// returns true when fail-fast is on, telling the loop to stop.
func (p *FileParser) skipRow(rowNumber int, err error) bool {
	p.opts.Logger.Error("%v", err)
	p.recordIssue(p.issueOf(rowNumber, err))
	if p.opts.Metrics != nil {
		p.opts.Metrics.RecordSkippedRow()
	}
	if p.opts.FailFast {
		p.setErr(err)
		return true
	}
	return false
}

// issueOf converts a row-level failure into its reportable issue. Custom
// validators may return plain errors; those are reported as generic cell
// issues at the failing row.
func (p *FileParser) issueOf(rowNumber int, err error) dsrf.Issue {
	var rowErr *dsrf.RowError
	if errors.As(err, &rowErr) {
		return rowErr.Issue()
	}
	var cellErr *dsrf.CellError
	if errors.As(err, &cellErr) {
		return cellErr.Issue()
	}
	return dsrf.Error(dsrf.CodeCellInvalid).
		Diagnostics(err.Error()).
		File(p.fileName).
		Row(rowNumber).
		Build()
}

// fatal records a stream failure. Stream failures stop the parse without a
// final flush.
func (p *FileParser) fatal(err error) {
	p.opts.Logger.Error("Failed reading file %q: %v", p.fileName, err)
	p.recordIssue(dsrf.Diagnostic(dsrf.DiagReadFailed, map[string]any{
		"file_name": p.fileName,
		"error":     err,
	}).File(p.fileName).Build())
	p.setErr(err)
}

func (p *FileParser) recordIssue(issue dsrf.Issue) {
	p.result.AddIssue(issue)
	if p.opts.Metrics != nil {
		p.opts.Metrics.RecordIssue(issue.Severity)
	}
}

// blockNumberOf extracts the block number from a body row's second field.
// The raw text is returned for error reporting; ok is false for a missing
// or non-integer field.
func blockNumberOf(fields []string) (number int64, raw string, ok bool) {
	if len(fields) < 2 {
		return 0, "", false
	}
	n, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return 0, fields[1], false
	}
	return n, fields[1], true
}
