package harness

import (
	"time"

	"github.com/roach88/jarchive/internal/message"
)

// Error classes recorded in traces and matched by expect clauses.
const (
	ErrClassInvalidArgument = "invalid_argument"
	ErrClassMalformedRecord = "malformed_record"
	ErrClassStorage         = "storage"
)

// TraceEvent is the observable outcome of one step.
type TraceEvent struct {
	Step     int            `json:"step"`
	Op       string         `json:"op"`
	Pair     string         `json:"pair,omitempty"`
	Accepted int            `json:"accepted,omitempty"`
	Messages []TraceMessage `json:"messages,omitempty"`
	Count    *int           `json:"count,omitempty"`
	Logging  *bool          `json:"logging,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// TraceMessage is an archived message as it appears in a trace.
type TraceMessage struct {
	ID         int64  `json:"id"`
	From       string `json:"from"`
	To         string `json:"to"`
	Body       string `json:"body,omitempty"`
	Subject    string `json:"subject,omitempty"`
	Thread     string `json:"thread,omitempty"`
	ArchivedAt string `json:"archived_at"`
}

// newTraceMessage converts an archive read result.
func newTraceMessage(m *message.Message) TraceMessage {
	return TraceMessage{
		ID:         m.ArchiveID,
		From:       m.From.String(),
		To:         m.To.String(),
		Body:       m.Body,
		Subject:    m.Subject,
		Thread:     m.Thread,
		ArchivedAt: m.ArchivedAt.Format(time.RFC3339Nano),
	}
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expect clause matched and no step failed
	// unexpectedly.
	Pass bool `json:"pass"`

	// Trace holds one event per executed step.
	Trace []TraceEvent `json:"trace"`

	// Errors contains expectation failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddEvent appends a step outcome to the trace.
func (r *Result) AddEvent(e TraceEvent) {
	r.Trace = append(r.Trace, e)
}
