package domain

import "time"

// RunStatus is the final outcome of one collection run.
type RunStatus string

const (
	RunComplete RunStatus = "complete"
	RunPartial  RunStatus = "partial"
	RunAborted  RunStatus = "aborted"
)

// ResourceReport summarises the fetch of one resource kind.
type ResourceReport struct {
	Kind     ResourceKind `json:"kind"`
	Pages    int          `json:"pages"`
	Records  int          `json:"records"`
	Skipped  int          `json:"skipped"`
	Complete bool         `json:"complete"`
	Reason   Reason       `json:"reason"`
	Error    string       `json:"error,omitempty"`
}

// RunReport is recorded after every run so operators can tell quota
// exhaustion apart from an outage.
type RunReport struct {
	ID         string           `json:"id"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Status     RunStatus        `json:"status"`
	Reason     Reason           `json:"reason"`
	Resources  []ResourceReport `json:"resources"`
	Enriched   int              `json:"enriched"`
	Unresolved int              `json:"unresolved"`
}

// Resource returns the report for a kind, or a zero report.
func (r RunReport) Resource(kind ResourceKind) ResourceReport {
	for _, res := range r.Resources {
		if res.Kind == kind {
			return res
		}
	}
	return ResourceReport{Kind: kind}
}

// IncompleteKinds lists the resource kinds whose fetch stopped early.
func (r RunReport) IncompleteKinds() []ResourceKind {
	var kinds []ResourceKind
	for _, res := range r.Resources {
		if !res.Complete {
			kinds = append(kinds, res.Kind)
		}
	}
	return kinds
}
