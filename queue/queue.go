// Package queue frames parsed blocks for a downstream consumer: one JSON
// document per frame, frames separated by a fixed delimiter line. The format
// is append-only and stream-friendly, so a consumer can follow a report
// parse as it happens.
package queue

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/godsrf/dsrf"
)

// Delimiter is the line separating frames on the stream.
const Delimiter = "==PIPE_BLOCK_DELIMITER=="

// Header opens every stream and describes the run that produced it.
type Header struct {
	// RunID is the report run identifier.
	RunID string `json:"run_id"`

	// Version and Profile name the schema the blocks were parsed against.
	Version string `json:"version"`
	Profile string `json:"profile"`

	// FileCount is the number of files in the report.
	FileCount int `json:"file_count"`

	// Created is when the stream was opened.
	Created time.Time `json:"created"`
}

// Writer serializes a header and a sequence of blocks onto a stream.
// Writers are not safe for concurrent use.
type Writer struct {
	w          *bufio.Writer
	headerDone bool
	err        error
}

// NewWriter wraps w. Call WriteHeader before the first Write, and Flush once
// the last block has been written.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// WriteHeader writes the stream header. It must be called exactly once,
// before any blocks.
func (w *Writer) WriteHeader(h Header) error {
	if w.err != nil {
		return w.err
	}
	if w.headerDone {
		return errors.New("queue: header already written")
	}
	if err := w.writeFrame(h); err != nil {
		return err
	}
	w.headerDone = true
	return nil
}

// Write appends one block frame to the stream.
func (w *Writer) Write(b *dsrf.Block) error {
	if w.err != nil {
		return w.err
	}
	if !w.headerDone {
		return errors.New("queue: header not written")
	}
	return w.writeFrame(b)
}

// Flush forces buffered frames onto the underlying writer.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	if err := w.w.Flush(); err != nil {
		w.err = err
		return err
	}
	return nil
}

func (w *Writer) writeFrame(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		w.err = fmt.Errorf("queue: encoding frame: %w", err)
		return w.err
	}
	w.w.Write(data)
	w.w.WriteByte('\n')
	w.w.WriteString(Delimiter)
	if err := w.w.WriteByte('\n'); err != nil {
		w.err = err
		return err
	}
	return nil
}

// Reader decodes a stream produced by Writer. Readers are not safe for
// concurrent use.
type Reader struct {
	r          *bufio.Reader
	headerDone bool
}

// NewReader wraps r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// ReadHeader reads the stream header. It must be called exactly once, before
// any blocks.
func (r *Reader) ReadHeader() (*Header, error) {
	if r.headerDone {
		return nil, errors.New("queue: header already read")
	}
	frame, err := r.readFrame()
	if err != nil {
		return nil, err
	}
	var h Header
	if err := json.Unmarshal(frame, &h); err != nil {
		return nil, fmt.Errorf("queue: decoding header: %w", err)
	}
	r.headerDone = true
	return &h, nil
}

// Read returns the next block, or io.EOF once the stream is exhausted.
func (r *Reader) Read() (*dsrf.Block, error) {
	if !r.headerDone {
		return nil, errors.New("queue: header not read")
	}
	frame, err := r.readFrame()
	if err != nil {
		return nil, err
	}
	var b dsrf.Block
	if err := json.Unmarshal(frame, &b); err != nil {
		return nil, fmt.Errorf("queue: decoding block: %w", err)
	}
	return &b, nil
}

// readFrame accumulates lines up to the next delimiter. A frame cut off
// without its delimiter is reported as io.ErrUnexpectedEOF.
func (r *Reader) readFrame() ([]byte, error) {
	var buf bytes.Buffer
	for {
		line, err := r.r.ReadString('\n')
		if strings.TrimRight(line, "\r\n") == Delimiter {
			return buf.Bytes(), nil
		}
		buf.WriteString(line)
		if err != nil {
			if errors.Is(err, io.EOF) {
				if buf.Len() == 0 {
					return nil, io.EOF
				}
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
	}
}
