package harness

// TraceEvent records one call and its outcome.
type TraceEvent struct {
	Seq        int64          `json:"seq"`
	Action     string         `json:"action"`
	Caller     string         `json:"caller"`
	Args       map[string]any `json:"args"`
	OutputCase string         `json:"output_case"`
	Result     map[string]any `json:"result,omitempty"`
}

// RecordState is a record of the final store, with the owner rendered as a
// wallet name.
type RecordState struct {
	Link  string `json:"link"`
	Owner string `json:"owner"`
	Vote  int32  `json:"vote"`
}

// FinalState is the decoded store after the flow.
type FinalState struct {
	Count   uint64        `json:"count"`
	Records []RecordState `json:"records"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all expect clauses and assertions match.
	Pass bool `json:"pass"`

	// Trace contains every call in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// State is the final store, or nil if the board never decoded.
	State *FinalState `json:"state,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a call to the trace.
func (r *Result) AddTrace(event TraceEvent) {
	r.Trace = append(r.Trace, event)
}
