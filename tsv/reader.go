// Package tsv reads tab-separated flat files one physical line at a time.
package tsv

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	// DefaultDelimiter separates cells within a line.
	DefaultDelimiter = '\t'

	// DefaultMaxLineBytes bounds the length of a single physical line.
	DefaultMaxLineBytes = 1 << 20
)

// Option configures a Reader.
type Option func(*Reader)

// WithDelimiter sets the cell delimiter. The default is a tab.
func WithDelimiter(d byte) Option {
	return func(r *Reader) {
		r.delimiter = d
	}
}

// WithMaxLineBytes bounds the length of a single line. A longer line fails
// the read with bufio.ErrTooLong.
func WithMaxLineBytes(n int) Option {
	return func(r *Reader) {
		if n > 0 {
			r.maxLine = n
		}
	}
}

// Reader yields the cells of one physical line at a time. Line numbers are
// 1-based and count every line, including comments and lines the caller
// later rejects.
type Reader struct {
	name      string
	scanner   *bufio.Scanner
	delimiter byte
	maxLine   int
	line      int
	fields    []string

	closers   []io.Closer
	closeOnce sync.Once
	closeErr  error
}

// New wraps an arbitrary stream. The name is only used in diagnostics.
func New(r io.Reader, name string, opts ...Option) *Reader {
	reader := &Reader{
		name:      name,
		delimiter: DefaultDelimiter,
		maxLine:   DefaultMaxLineBytes,
	}
	for _, opt := range opts {
		opt(reader)
	}
	reader.scanner = bufio.NewScanner(r)
	reader.scanner.Buffer(make([]byte, 0, min(64<<10, reader.maxLine)), reader.maxLine)
	return reader
}

// Open opens a flat file for reading, transparently decompressing files
// whose name carries the ".gz" suffix. Detection is by name only; a ".gz"
// file without a gzip header fails here.
func Open(path string, opts ...Option) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	var src io.Reader = f
	closers := []io.Closer{f}
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		src = gz
		closers = []io.Closer{gz, f}
	}

	r := New(src, filepath.Base(path), opts...)
	r.closers = closers
	return r, nil
}

// Read returns the cells of the next line and its 1-based line number.
// The returned slice is reused; it is valid only until the next call.
// An empty line yields zero cells. io.EOF signals the end of the input.
func (r *Reader) Read() ([]string, int, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return nil, r.line, err
		}
		return nil, r.line, io.EOF
	}
	r.line++

	text := r.scanner.Text()
	r.fields = r.fields[:0]
	if len(text) == 0 {
		return r.fields, r.line, nil
	}

	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] == r.delimiter {
			r.fields = append(r.fields, text[start:i])
			start = i + 1
		}
	}
	r.fields = append(r.fields, text[start:])
	return r.fields, r.line, nil
}

// Name returns the file name used in diagnostics.
func (r *Reader) Name() string {
	return r.name
}

// LineNumber returns the number of the last line read.
func (r *Reader) LineNumber() int {
	return r.line
}

// Close releases the underlying file handles. It is safe to call more than
// once, and a no-op for Readers created with New.
func (r *Reader) Close() error {
	r.closeOnce.Do(func() {
		for _, c := range r.closers {
			if err := c.Close(); err != nil && r.closeErr == nil {
				r.closeErr = err
			}
		}
	})
	return r.closeErr
}
