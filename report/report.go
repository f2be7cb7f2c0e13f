package report

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/godsrf/dsrf"
	"github.com/godsrf/dsrf/parser"
	"github.com/godsrf/dsrf/worker"
)

// matchParts are the file name components that must agree across every file
// of a report. The y component is the declared total file count.
var matchParts = []string{"MessageRecipient", "MessageSender", "ServiceDescription", "y"}

// Manager parses complete multi-file reports. A Manager is safe for
// concurrent use; each ParseReport call is an independent run.
type Manager struct {
	schema  dsrf.RowSchema
	opts    []dsrf.Option
	applied *dsrf.Options
}

// NewManager creates a Manager that parses every file of a report against
// rowSchema. The options are applied to the run and to each file parser, so
// a Metrics collector given here aggregates across all files.
func NewManager(rowSchema dsrf.RowSchema, opts ...dsrf.Option) *Manager {
	return &Manager{
		schema:  rowSchema,
		opts:    opts,
		applied: dsrf.Apply(opts...),
	}
}

// ValidationError is returned by ParseReport when the file set fails
// validation before any parsing starts. Result carries one issue per
// defective file name, cross-file mismatch, or completeness gap.
type ValidationError struct {
	Result *dsrf.Result
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("report validation failed with %d issues", e.Result.ErrorCount())
}

// Run is a single report parse in progress. Blocks delivers every block of
// the report in file order; blocks of file N+1 appear only after the last
// block of file N, regardless of how many files parse concurrently.
type Run struct {
	// ID identifies the run in logs and downstream systems.
	ID string

	// Files holds the parsed file names, ordered by file number.
	Files []*FileName

	// Blocks is closed once every file has been drained.
	Blocks <-chan *dsrf.Block

	result *dsrf.Result

	mu  sync.Mutex
	err error
}

// Result returns the aggregate result across all files. It is complete once
// Blocks has been closed.
func (r *Run) Result() *dsrf.Result { return r.result }

// Err returns the first fatal error of the run, usually a context
// cancellation. Recoverable issues appear in Result instead.
func (r *Run) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *Run) setErr(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err == nil {
		r.err = err
	}
}

type fileEntry struct {
	path   string
	name   *FileName
	parser *parser.FileParser
	stream chan *dsrf.Block
}

// ParseReport validates the file set named by paths and parses it as one
// report. Validation covers every file name, the components that must agree
// across files, and completeness of the numbered set; failures are reported
// together as a *ValidationError and nothing is parsed. On success the files
// parse concurrently, up to the Workers option at a time, and the returned
// Run streams their blocks in file order. Cancel ctx to abandon the run.
func (m *Manager) ParseReport(ctx context.Context, paths []string) (*Run, error) {
	if len(paths) == 0 {
		return nil, errors.New("report: no files given")
	}

	aggregate := dsrf.NewResult()
	aggregate.SetMaxIssues(m.applied.MaxIssues)

	entries := make([]*fileEntry, 0, len(paths))
	for _, path := range paths {
		fn, err := ParseFileName(path)
		if err != nil {
			var ne *NameError
			if errors.As(err, &ne) {
				aggregate.AddIssues(ne.Issues)
				continue
			}
			return nil, err
		}
		entries = append(entries, &fileEntry{path: path, name: fn})
	}
	if len(entries) == len(paths) {
		m.checkConsistency(aggregate, entries)
		m.checkCompleteness(aggregate, entries)
	}
	if aggregate.HasErrors() {
		return nil, &ValidationError{Result: aggregate}
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].name.FileNumber < entries[j].name.FileNumber
	})

	files := make([]*FileName, len(entries))
	for i, e := range entries {
		files[i] = e.name
		e.parser = parser.New(e.path, e.name.FileNumber, m.schema, m.opts...)
		e.stream = make(chan *dsrf.Block, m.applied.ChannelBuffer)
	}

	workers := m.applied.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(entries) {
		workers = len(entries)
	}

	out := make(chan *dsrf.Block, m.applied.ChannelBuffer)
	run := &Run{
		ID:     uuid.NewString(),
		Files:  files,
		Blocks: out,
		result: aggregate,
	}
	m.applied.Logger.Info("Starting report run %s: %d files, %d workers.", run.ID, len(entries), workers)

	pool := worker.NewPool(workers)
	go func() {
		defer pool.Close()
		for _, e := range entries {
			e := e
			if !pool.Submit(ctx, func() { m.parseFile(ctx, run, e) }) {
				return
			}
		}
	}()

	go func() {
		defer close(out)
		for _, e := range entries {
			for b := range e.stream {
				select {
				case out <- b:
				case <-ctx.Done():
					run.setErr(ctx.Err())
					return
				}
			}
			aggregate.Merge(e.parser.Result())
		}
		m.applied.Logger.Info("Finished report run %s.", run.ID)
	}()

	return run, nil
}

// ParseReportAll runs ParseReport and drains the block channel. On a
// validation failure the aggregate result is still returned alongside the
// *ValidationError.
func (m *Manager) ParseReportAll(ctx context.Context, paths []string) ([]*dsrf.Block, *dsrf.Result, error) {
	run, err := m.ParseReport(ctx, paths)
	if err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			return nil, ve.Result, err
		}
		return nil, nil, err
	}
	var blocks []*dsrf.Block
	for b := range run.Blocks {
		blocks = append(blocks, b)
	}
	return blocks, run.Result(), run.Err()
}

// parseFile parses one file and forwards its blocks to the entry's stream.
// The HEAD block is cross-checked against the file name on the way through.
func (m *Manager) parseFile(ctx context.Context, run *Run, e *fileEntry) {
	defer close(e.stream)

	blocks, err := e.parser.Parse(ctx)
	if err != nil {
		// The parser has already recorded the failure as a fatal issue;
		// the emitter picks it up when it merges this file's result.
		return
	}
	checked := false
	for b := range blocks {
		if !checked && b.Type == dsrf.BlockHead {
			crossCheckHead(e.parser.Result(), e.parser.FileName(), e.name, b)
			checked = true
		}
		select {
		case e.stream <- b:
		case <-ctx.Done():
			for range blocks {
			}
			run.setErr(ctx.Err())
			return
		}
	}
}

// checkConsistency flags file name components that change across the set.
// The first listed file is the reference.
func (m *Manager) checkConsistency(res *dsrf.Result, entries []*fileEntry) {
	ref := entries[0].name
	want := map[string]string{
		"MessageRecipient":   ref.Recipient,
		"MessageSender":      ref.Sender,
		"ServiceDescription": ref.ServiceDescription,
		"y":                  strconv.Itoa(ref.TotalFiles),
	}
	for _, e := range entries[1:] {
		got := map[string]string{
			"MessageRecipient":   e.name.Recipient,
			"MessageSender":      e.name.Sender,
			"ServiceDescription": e.name.ServiceDescription,
			"y":                  strconv.Itoa(e.name.TotalFiles),
		}
		for _, part := range matchParts {
			if got[part] == want[part] {
				continue
			}
			base := filepath.Base(e.path)
			res.AddIssue(dsrf.Diagnostic(dsrf.DiagFileNameMismatch, map[string]any{
				"part":      part,
				"expected":  want[part],
				"actual":    got[part],
				"file_name": base,
			}).File(base).Build())
		}
	}
}

// checkCompleteness flags duplicate and missing file numbers against the
// declared total of the reference file.
func (m *Manager) checkCompleteness(res *dsrf.Result, entries []*fileEntry) {
	seen := make(map[int]bool, len(entries))
	for _, e := range entries {
		n := e.name.FileNumber
		if seen[n] {
			res.AddIssue(dsrf.Diagnostic(dsrf.DiagFileDuplicate, map[string]any{
				"number": n,
			}).File(filepath.Base(e.path)).Build())
			continue
		}
		seen[n] = true
	}
	total := entries[0].name.TotalFiles
	for n := 1; n <= total; n++ {
		if !seen[n] {
			res.AddIssue(dsrf.Diagnostic(dsrf.DiagFileMissing, map[string]any{
				"total":  total,
				"number": n,
			}).Build())
		}
	}
}

// crossCheckHead warns when HEAD cells disagree with the file name. Absent
// cells are not checked; the schema's requiredness rules govern presence.
func crossCheckHead(res *dsrf.Result, fileName string, fn *FileName, b *dsrf.Block) {
	var head *dsrf.Row
	for _, r := range b.Rows {
		if r.Type == "HEAD" {
			head = r
			break
		}
	}
	if head == nil {
		return
	}

	warn := func(cellName, cellValue, part, partValue string) {
		res.AddIssue(dsrf.Diagnostic(dsrf.DiagHeadMismatch, map[string]any{
			"cell_name":  cellName,
			"cell_value": cellValue,
			"part":       part,
			"part_value": partValue,
		}).File(fileName).Row(head.Number).Build())
	}
	check := func(cellName, part, want string) {
		c := head.Cell(cellName)
		if c == nil {
			return
		}
		if got := c.First(); got != want {
			warn(cellName, got, part, want)
		}
	}
	// Any one of the candidate cells may carry the matching value.
	checkAny := func(cellNames []string, part, want string) {
		var names, values []string
		for _, n := range cellNames {
			c := head.Cell(n)
			if c == nil {
				continue
			}
			if c.First() == want {
				return
			}
			names = append(names, n)
			values = append(values, c.First())
		}
		if len(names) == 0 {
			return
		}
		warn(strings.Join(names, "/"), strings.Join(values, "/"), part, want)
	}

	check("FileNumber", "x", strconv.Itoa(fn.FileNumber))
	check("NumberOfFiles", "y", strconv.Itoa(fn.TotalFiles))
	check("ServiceDescription", "ServiceDescription", fn.ServiceDescription)
	checkAny([]string{"RecipientPartyId", "RecipientName"}, "MessageRecipient", fn.Recipient)
	checkAny([]string{"SenderPartyId", "SenderName"}, "MessageSender", fn.Sender)
}
