package dsrf

import (
	"sync/atomic"
	"time"
)

// Metrics tracks parsing throughput using lock-free atomic operations.
// All methods are safe for concurrent use; one Metrics instance may be
// shared by every parser of a report.
type Metrics struct {
	// File counts
	filesTotal atomic.Uint64

	// Row counts
	rowsParsed   atomic.Uint64
	rowsSkipped  atomic.Uint64
	commentsSeen atomic.Uint64

	// Block counts by type
	headBlocks  atomic.Uint64
	bodyBlocks  atomic.Uint64
	footBlocks  atomic.Uint64
	unsetBlocks atomic.Uint64

	// Cell count
	cellsBuilt atomic.Uint64

	// Per-file timing (stored as nanoseconds)
	parseTimeTotal atomic.Uint64
	parseTimeMin   atomic.Uint64
	parseTimeMax   atomic.Uint64

	// Issue counts by severity
	errorsTotal   atomic.Uint64
	warningsTotal atomic.Uint64
	infosTotal    atomic.Uint64
}

// NewMetrics creates a new Metrics instance.
func NewMetrics() *Metrics {
	m := &Metrics{}
	// First recorded duration becomes the minimum
	m.parseTimeMin.Store(^uint64(0))
	return m
}

// --- Recording Methods ---

// RecordFile records a completed file parse.
func (m *Metrics) RecordFile(duration time.Duration) {
	m.filesTotal.Add(1)

	ns := uint64(duration.Nanoseconds())
	m.parseTimeTotal.Add(ns)

	// Update min (CAS loop)
	for {
		old := m.parseTimeMin.Load()
		if ns >= old {
			break
		}
		if m.parseTimeMin.CompareAndSwap(old, ns) {
			break
		}
	}

	// Update max (CAS loop)
	for {
		old := m.parseTimeMax.Load()
		if ns <= old {
			break
		}
		if m.parseTimeMax.CompareAndSwap(old, ns) {
			break
		}
	}
}

// RecordRow records a successfully parsed row.
func (m *Metrics) RecordRow() {
	m.rowsParsed.Add(1)
}

// RecordSkippedRow records a row dropped by validation.
func (m *Metrics) RecordSkippedRow() {
	m.rowsSkipped.Add(1)
}

// RecordComment records a skipped comment line.
func (m *Metrics) RecordComment() {
	m.commentsSeen.Add(1)
}

// RecordCells records cells built for one row.
func (m *Metrics) RecordCells(n int) {
	if n > 0 {
		m.cellsBuilt.Add(uint64(n))
	}
}

// RecordBlock records an emitted block.
func (m *Metrics) RecordBlock(t BlockType) {
	switch t {
	case BlockHead:
		m.headBlocks.Add(1)
	case BlockBody:
		m.bodyBlocks.Add(1)
	case BlockFoot:
		m.footBlocks.Add(1)
	default:
		m.unsetBlocks.Add(1)
	}
}

// RecordIssue records an issue by severity.
func (m *Metrics) RecordIssue(severity IssueSeverity) {
	switch severity {
	case SeverityError, SeverityFatal:
		m.errorsTotal.Add(1)
	case SeverityWarning:
		m.warningsTotal.Add(1)
	case SeverityInformation:
		m.infosTotal.Add(1)
	}
}

// --- Query Methods ---

// FilesTotal returns the number of files parsed.
func (m *Metrics) FilesTotal() uint64 {
	return m.filesTotal.Load()
}

// RowsParsed returns the number of rows that survived validation.
func (m *Metrics) RowsParsed() uint64 {
	return m.rowsParsed.Load()
}

// RowsSkipped returns the number of rows dropped by validation.
func (m *Metrics) RowsSkipped() uint64 {
	return m.rowsSkipped.Load()
}

// CommentsSeen returns the number of comment lines skipped.
func (m *Metrics) CommentsSeen() uint64 {
	return m.commentsSeen.Load()
}

// CellsBuilt returns the number of cells assembled.
func (m *Metrics) CellsBuilt() uint64 {
	return m.cellsBuilt.Load()
}

// BlocksTotal returns the number of blocks emitted.
func (m *Metrics) BlocksTotal() uint64 {
	return m.headBlocks.Load() + m.bodyBlocks.Load() +
		m.footBlocks.Load() + m.unsetBlocks.Load()
}

// BodyBlocks returns the number of BODY blocks emitted.
func (m *Metrics) BodyBlocks() uint64 {
	return m.bodyBlocks.Load()
}

// ErrorsTotal returns the total error issues recorded.
func (m *Metrics) ErrorsTotal() uint64 {
	return m.errorsTotal.Load()
}

// WarningsTotal returns the total warning issues recorded.
func (m *Metrics) WarningsTotal() uint64 {
	return m.warningsTotal.Load()
}

// AverageParseTime returns the average per-file parse duration.
func (m *Metrics) AverageParseTime() time.Duration {
	total := m.filesTotal.Load()
	if total == 0 {
		return 0
	}
	return time.Duration(m.parseTimeTotal.Load() / total)
}

// MinParseTime returns the fastest file parse.
func (m *Metrics) MinParseTime() time.Duration {
	minVal := m.parseTimeMin.Load()
	if minVal == ^uint64(0) {
		return 0
	}
	return time.Duration(minVal)
}

// MaxParseTime returns the slowest file parse.
func (m *Metrics) MaxParseTime() time.Duration {
	return time.Duration(m.parseTimeMax.Load())
}

// --- Export Methods ---

// Snapshot represents a point-in-time snapshot of all metrics.
type Snapshot struct {
	// Timestamp when the snapshot was taken
	Timestamp time.Time `json:"timestamp"`

	FilesTotal   uint64 `json:"files_total"`
	RowsParsed   uint64 `json:"rows_parsed"`
	RowsSkipped  uint64 `json:"rows_skipped"`
	CommentsSeen uint64 `json:"comments_seen"`
	CellsBuilt   uint64 `json:"cells_built"`

	HeadBlocks  uint64 `json:"head_blocks"`
	BodyBlocks  uint64 `json:"body_blocks"`
	FootBlocks  uint64 `json:"foot_blocks"`
	UnsetBlocks uint64 `json:"unset_blocks"`

	// Timing metrics (in nanoseconds for precision)
	AvgParseTimeNs uint64 `json:"avg_parse_time_ns"`
	MinParseTimeNs uint64 `json:"min_parse_time_ns"`
	MaxParseTimeNs uint64 `json:"max_parse_time_ns"`

	ErrorsTotal   uint64 `json:"errors_total"`
	WarningsTotal uint64 `json:"warnings_total"`
	InfosTotal    uint64 `json:"infos_total"`
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (m *Metrics) Snapshot() Snapshot {
	total := m.filesTotal.Load()

	var avg uint64
	if total > 0 {
		avg = m.parseTimeTotal.Load() / total
	}

	minTime := m.parseTimeMin.Load()
	if minTime == ^uint64(0) {
		minTime = 0
	}

	return Snapshot{
		Timestamp:      time.Now(),
		FilesTotal:     total,
		RowsParsed:     m.rowsParsed.Load(),
		RowsSkipped:    m.rowsSkipped.Load(),
		CommentsSeen:   m.commentsSeen.Load(),
		CellsBuilt:     m.cellsBuilt.Load(),
		HeadBlocks:     m.headBlocks.Load(),
		BodyBlocks:     m.bodyBlocks.Load(),
		FootBlocks:     m.footBlocks.Load(),
		UnsetBlocks:    m.unsetBlocks.Load(),
		AvgParseTimeNs: avg,
		MinParseTimeNs: minTime,
		MaxParseTimeNs: m.parseTimeMax.Load(),
		ErrorsTotal:    m.errorsTotal.Load(),
		WarningsTotal:  m.warningsTotal.Load(),
		InfosTotal:     m.infosTotal.Load(),
	}
}

// Export returns metrics as a map suitable for external systems.
func (m *Metrics) Export() map[string]interface{} {
	s := m.Snapshot()
	return map[string]interface{}{
		"files_total":       s.FilesTotal,
		"rows_parsed":       s.RowsParsed,
		"rows_skipped":      s.RowsSkipped,
		"comments_seen":     s.CommentsSeen,
		"cells_built":       s.CellsBuilt,
		"head_blocks":       s.HeadBlocks,
		"body_blocks":       s.BodyBlocks,
		"foot_blocks":       s.FootBlocks,
		"unset_blocks":      s.UnsetBlocks,
		"avg_parse_time_ns": s.AvgParseTimeNs,
		"min_parse_time_ns": s.MinParseTimeNs,
		"max_parse_time_ns": s.MaxParseTimeNs,
		"errors_total":      s.ErrorsTotal,
		"warnings_total":    s.WarningsTotal,
		"infos_total":       s.InfosTotal,
	}
}

// Reset clears all metrics.
func (m *Metrics) Reset() {
	m.filesTotal.Store(0)
	m.rowsParsed.Store(0)
	m.rowsSkipped.Store(0)
	m.commentsSeen.Store(0)
	m.cellsBuilt.Store(0)
	m.headBlocks.Store(0)
	m.bodyBlocks.Store(0)
	m.footBlocks.Store(0)
	m.unsetBlocks.Store(0)
	m.parseTimeTotal.Store(0)
	m.parseTimeMin.Store(^uint64(0))
	m.parseTimeMax.Store(0)
	m.errorsTotal.Store(0)
	m.warningsTotal.Store(0)
	m.infosTotal.Store(0)
}
