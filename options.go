package dsrf

import (
	"runtime"

	"github.com/godsrf/dsrf/pkg/logger"
)

// Option configures parsing.
type Option func(*Options)

// Options holds all configuration for the file parser and the report
// manager.
type Options struct {
	// Format
	FieldDelimiter byte
	CommentPrefix  string

	// Recovery
	FailFast  bool
	MaxIssues int

	// I/O
	MaxLineBytes  int
	ChannelBuffer int

	// Parallelism (report-level; a single file always parses serially)
	Workers int

	// Observability
	Logger  *logger.Logger
	Metrics *Metrics
}

// DefaultOptions returns the default configuration.
func DefaultOptions() *Options {
	return &Options{
		FieldDelimiter: DefaultFieldDelimiter,
		CommentPrefix:  DefaultCommentPrefix,

		FailFast:  false,
		MaxIssues: 0, // unlimited

		MaxLineBytes:  1 << 20, // 1 MiB per physical line
		ChannelBuffer: 0,       // unbuffered: fully lazy emission

		Workers: runtime.NumCPU(),

		Logger:  logger.Nop(),
		Metrics: nil,
	}
}

// Apply builds an Options from the defaults plus the given setters.
func Apply(opts ...Option) *Options {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// --- Format Options ---

// WithFieldDelimiter sets the cell delimiter. The default is a tab.
func WithFieldDelimiter(d byte) Option {
	return func(o *Options) {
		o.FieldDelimiter = d
	}
}

// WithCommentPrefix sets the prefix marking comment lines.
func WithCommentPrefix(p string) Option {
	return func(o *Options) {
		if p != "" {
			o.CommentPrefix = p
		}
	}
}

// --- Recovery Options ---

// WithFailFast stops a parse at the first error-severity issue instead of
// skipping the row and continuing.
func WithFailFast(enable bool) Option {
	return func(o *Options) {
		o.FailFast = enable
	}
}

// WithMaxIssues caps the number of issues kept per result.
// Use 0 for unlimited.
func WithMaxIssues(n int) Option {
	return func(o *Options) {
		if n >= 0 {
			o.MaxIssues = n
		}
	}
}

// --- I/O Options ---

// WithMaxLineBytes bounds the length of a physical line.
func WithMaxLineBytes(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.MaxLineBytes = n
		}
	}
}

// WithChannelBuffer sets the block channel's buffer. The default of 0 keeps
// emission fully lazy; a small buffer lets the parser run ahead of a slow
// consumer.
func WithChannelBuffer(n int) Option {
	return func(o *Options) {
		if n >= 0 {
			o.ChannelBuffer = n
		}
	}
}

// --- Parallelism Options ---

// WithWorkers sets how many files of a report parse concurrently.
// Defaults to runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.Workers = n
		}
	}
}

// --- Observability Options ---

// WithLogger sets the logger. The default logger discards everything.
func WithLogger(l *logger.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

// WithMetrics attaches a metrics collector. The same collector may be shared
// by several parsers.
func WithMetrics(m *Metrics) Option {
	return func(o *Options) {
		o.Metrics = m
	}
}

// --- Presets ---

// FastOptions returns options tuned for throughput over diagnostics detail.
func FastOptions() []Option {
	return []Option{
		WithMaxIssues(100),
		WithChannelBuffer(16),
		WithMaxLineBytes(4 << 20),
	}
}

// StrictOptions returns options for gatekeeping: the first bad row fails the
// file.
func StrictOptions() []Option {
	return []Option{
		WithFailFast(true),
	}
}
