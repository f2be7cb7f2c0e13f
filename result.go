package dsrf

import (
	"sync"
)

// Result is the issue collection of one parse: one per file, merged into one
// per report. Writers and readers may overlap while a parse runs; read the
// Issues slice directly only once parsing is done. Pooled results go back via
// Release.
type Result struct {
	// Valid is false once any error or fatal issue was reported, whether or
	// not the issue itself was kept.
	Valid bool `json:"valid"`

	// Issues holds the kept issues in reporting order.
	Issues []Issue `json:"issues,omitempty"`

	// FileName correlates a per-file result with its source file.
	FileName string `json:"file_name,omitempty"`

	mu sync.Mutex

	// Severity tallies of the kept issues. errors counts fatal issues too.
	errors   int
	warnings int
	fatals   int

	// maxIssues caps how many issues are kept (0 = no cap); dropped counts
	// the overflow.
	maxIssues int
	dropped   int
}

// NewResult creates an unpooled result. Prefer AcquireResult for short-lived
// results on hot paths.
func NewResult() *Result {
	return &Result{
		Valid:  true,
		Issues: make([]Issue, 0, 8),
	}
}

var resultPool = sync.Pool{
	New: func() any {
		return &Result{
			Issues: make([]Issue, 0, 16),
		}
	},
}

// AcquireResult returns a clean result from the pool.
func AcquireResult() *Result {
	r := resultPool.Get().(*Result)
	r.Reset()
	return r
}

// Release puts the result back in the pool. The result must not be touched
// afterwards. Results that grew a large issue slice are left for the GC
// instead of pinning the memory in the pool.
func (r *Result) Release() {
	if r == nil {
		return
	}
	if cap(r.Issues) <= 1024 {
		resultPool.Put(r)
	}
}

// Reset returns the result to its initial valid, empty state.
func (r *Result) Reset() {
	r.Valid = true
	r.Issues = r.Issues[:0]
	r.FileName = ""
	r.errors = 0
	r.warnings = 0
	r.fatals = 0
	r.maxIssues = 0
	r.dropped = 0
}

// SetMaxIssues caps the number of kept issues. Issues past the cap still
// invalidate the result but are dropped rather than stored.
func (r *Result) SetMaxIssues(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.maxIssues = n
}

// Dropped reports how many issues the cap discarded.
func (r *Result) Dropped() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}

// AddIssue records one issue. Safe for concurrent use.
func (r *Result) AddIssue(issue Issue) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.add(issue)
}

// AddIssues records a batch of issues under a single lock. Safe for
// concurrent use.
func (r *Result) AddIssues(issues []Issue) {
	if len(issues) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, issue := range issues {
		r.add(issue)
	}
}

// add is the unlocked insert. Validity tracks every reported issue; the
// severity tallies track only the kept ones, so counts and the Issues slice
// always agree.
func (r *Result) add(issue Issue) {
	if issue.IsError() {
		r.Valid = false
	}
	if r.maxIssues > 0 && len(r.Issues) >= r.maxIssues {
		r.dropped++
		return
	}
	r.Issues = append(r.Issues, issue)
	switch {
	case issue.Severity == SeverityFatal:
		r.fatals++
		r.errors++
	case issue.IsError():
		r.errors++
	case issue.IsWarning():
		r.warnings++
	}
}

// HasErrors reports whether any error or fatal issue was recorded.
func (r *Result) HasErrors() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.Valid
}

// HasFatal reports whether a fatal issue was kept.
func (r *Result) HasFatal() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fatals > 0
}

// HasWarnings reports whether a warning issue was kept.
func (r *Result) HasWarnings() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.warnings > 0
}

// ErrorCount returns the number of kept error and fatal issues.
func (r *Result) ErrorCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.errors
}

// WarningCount returns the number of kept warning issues.
func (r *Result) WarningCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.warnings
}

// Errors returns the kept error and fatal issues, in reporting order.
func (r *Result) Errors() []Issue {
	return r.filter(Issue.IsError)
}

// Warnings returns the kept warning issues, in reporting order.
func (r *Result) Warnings() []Issue {
	return r.filter(Issue.IsWarning)
}

func (r *Result) filter(keep func(Issue) bool) []Issue {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Issue
	for _, issue := range r.Issues {
		if keep(issue) {
			out = append(out, issue)
		}
	}
	return out
}

// Merge appends a snapshot of another result's issues to this one. The other
// result may still be receiving issues; whatever it holds at the moment of
// the call is taken.
func (r *Result) Merge(other *Result) {
	if other == nil {
		return
	}

	other.mu.Lock()
	issues := make([]Issue, len(other.Issues))
	copy(issues, other.Issues)
	other.mu.Unlock()

	r.AddIssues(issues)
}

// Clone returns an independent, unpooled copy.
func (r *Result) Clone() *Result {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := &Result{
		Valid:     r.Valid,
		Issues:    make([]Issue, len(r.Issues)),
		FileName:  r.FileName,
		errors:    r.errors,
		warnings:  r.warnings,
		fatals:    r.fatals,
		maxIssues: r.maxIssues,
		dropped:   r.dropped,
	}
	copy(clone.Issues, r.Issues)
	return clone
}
