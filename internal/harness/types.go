package harness

import "fmt"

// TraceEvent is one executed step.
type TraceEvent struct {
	Seq   int64  `json:"seq"`
	Op    string `json:"op"`
	Text  string `json:"text,omitempty"`
	Error string `json:"error,omitempty"`
}

func (e TraceEvent) String() string {
	s := fmt.Sprintf("[%d] %s", e.Seq, e.Op)
	if e.Text != "" {
		s += " " + e.Text
	}
	if e.Error != "" {
		s += " error=" + e.Error
	}
	return s
}

// Result is the outcome of a scenario run.
type Result struct {
	Name string `json:"name"`

	// Pass is true when every step met its expectations.
	Pass bool `json:"pass"`

	// Trace lists the executed steps in order. It names nodes by their
	// scenario bindings, so it is stable across kernel changes that
	// renumber nodes.
	Trace []TraceEvent `json:"trace"`

	// Errors holds one message per unmet expectation.
	Errors []string `json:"errors,omitempty"`

	// Nodes is the final node count and Fingerprint the final graph
	// fingerprint.
	Nodes       int    `json:"nodes"`
	Fingerprint string `json:"fingerprint"`
}

// NewResult creates a passing result with an empty trace.
func NewResult(name string) *Result {
	return &Result{
		Name:   name,
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records an unmet expectation and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddErrorf is AddError with formatting.
func (r *Result) AddErrorf(format string, args ...any) {
	r.AddError(fmt.Sprintf(format, args...))
}
