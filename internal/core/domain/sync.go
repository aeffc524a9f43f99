package domain

import "time"

// SyncPhase is a stage of a catalog sync run.
type SyncPhase string

// Sync phases in execution order.
const (
	SyncPhaseIdle        SyncPhase = "idle"
	SyncPhaseParsing     SyncPhase = "parsing"
	SyncPhaseLinking     SyncPhase = "linking"
	SyncPhaseVectorizing SyncPhase = "vectorizing"
	SyncPhaseReconciling SyncPhase = "reconciling"
	SyncPhaseDone        SyncPhase = "done"
)

var phaseOrder = []SyncPhase{
	SyncPhaseIdle,
	SyncPhaseParsing,
	SyncPhaseLinking,
	SyncPhaseVectorizing,
	SyncPhaseReconciling,
	SyncPhaseDone,
}

// index returns the position of the phase, or -1 if unknown.
func (p SyncPhase) index() int {
	for i, q := range phaseOrder {
		if q == p {
			return i
		}
	}
	return -1
}

// IsValid returns true if the phase is recognised.
func (p SyncPhase) IsValid() bool {
	return p.index() >= 0
}

// CanAdvanceTo reports whether next immediately follows p.
// Phases only move forward, one step at a time.
func (p SyncPhase) CanAdvanceTo(next SyncPhase) bool {
	i, j := p.index(), next.index()
	return i >= 0 && j == i+1
}

// String returns the string representation.
func (p SyncPhase) String() string {
	return string(p)
}

// SyncOptions controls a sync run.
type SyncOptions struct {
	// Limit caps the number of catalog URLs processed. Zero means no limit.
	Limit int

	// Force re-embeds every product and skips reconciliation.
	Force bool

	// FromCache reads pages from the local HTML cache instead of the website.
	FromCache bool
}

// SyncStats is the audit trail of a sync run.
type SyncStats struct {
	Phase SyncPhase `json:"phase"`

	// Processed is the number of URLs visited during parsing.
	Processed int `json:"processed"`

	// Total is the number of URLs scheduled for parsing.
	Total int `json:"total"`

	MainProducts int `json:"main_products"`
	Samples      int `json:"samples"`
	Linked       int `json:"linked"`
	NotLinked    int `json:"not_linked"`

	Added   int `json:"added"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Deleted int `json:"deleted"`
	Errors  int `json:"errors"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
}

// Running reports whether the run has started and not yet finished.
func (s *SyncStats) Running() bool {
	return s.Phase != SyncPhaseIdle && s.Phase != SyncPhaseDone
}

// Duration returns the elapsed run time.
func (s *SyncStats) Duration() time.Duration {
	if s.StartedAt.IsZero() {
		return 0
	}
	if s.FinishedAt.IsZero() {
		return time.Since(s.StartedAt)
	}
	return s.FinishedAt.Sub(s.StartedAt)
}
