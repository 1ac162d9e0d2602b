package mpi

// EventKind labels the observability signals the matcher emits.
type EventKind string

const (
	// EventAmbiguousMatch fires when more than one candidate survives the
	// pipeline for a single subject.
	EventAmbiguousMatch EventKind = "ambiguous_match"
	// EventRuleVeto fires when a business rule rejects a candidate pair.
	EventRuleVeto EventKind = "rule_veto"
)

// Event carries the audit payload for a matcher signal. CandidateIdx and
// ChosenIdx refer to positions in the candidate slice the caller supplied.
type Event struct {
	Kind           EventKind `json:"kind"`
	SubjectSummary string    `json:"subject_summary"`
	CandidateIdx   []int     `json:"candidate_idx"`
	ChosenIdx      int       `json:"chosen_idx,omitempty"`
	Rule           string    `json:"rule,omitempty"`
}

// EventSink receives matcher events. Implementations must be safe for
// concurrent use and must not block.
type EventSink interface {
	Notify(Event)
}

// NopSink discards every event. The matcher functions identically with
// telemetry absent.
type NopSink struct{}

func (NopSink) Notify(Event) {}
