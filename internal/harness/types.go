package harness

import "github.com/roach88/listsync/internal/model"

// Outcome of a successful step.
const OutcomeOK = "ok"

// TraceEvent records one executed step.
type TraceEvent struct {
	// Seq is the 1-based step number.
	Seq int64 `json:"seq"`

	Op   string         `json:"op"`
	Args map[string]any `json:"args"`

	// Outcome is OutcomeOK or the error kind the step failed with.
	Outcome string `json:"outcome"`

	// Result is the canonical form of the returned entity or entities.
	// Nil when the step failed.
	Result any `json:"result,omitempty"`

	// Events are the events published by this step, in order.
	Events []model.Event `json:"events"`
}

// FinalState is the store content after the last step.
type FinalState struct {
	Lists []model.List `json:"lists"`
	Items []model.Item `json:"items"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace holds one entry per step.
	Trace []TraceEvent `json:"trace"`

	// Errors describes every failed expectation or assertion.
	Errors []string `json:"errors,omitempty"`

	// State is the final store content.
	State FinalState `json:"state"`
}

// NewResult creates a passing result with no trace.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Events returns every published event across the trace, in order.
func (r *Result) Events() []model.Event {
	var out []model.Event
	for _, te := range r.Trace {
		out = append(out, te.Events...)
	}
	return out
}
