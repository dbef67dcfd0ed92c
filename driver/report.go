package driver

import "github.com/pipeline-foundation/sct"

// OperationCounts snapshots the operation table at the end of one
// iteration.
type OperationCounts struct {
	Enabled   int `json:"enabled"`
	Blocked   int `json:"blocked"`
	Completed int `json:"completed"`
}

// Report is the JSON-serializable summary of one [Engine.Explore] run:
// iterations run, the bug found (if any), and counts of enabled/blocked/
// completed operations. It holds no list of uncontrolled invocations.
type Report struct {
	IterationsRun int `json:"iterations_run"`
	MaxIterations int `json:"max_iterations"`

	BugFound   bool   `json:"bug_found"`
	BugKind    string `json:"bug_kind,omitempty"`
	BugMessage string `json:"bug_message,omitempty"`

	FinalOperationCounts OperationCounts `json:"final_operation_counts"`

	// Trace holds the failing iteration's decisions when BugFound is true
	// and the engine was not configured with NoBugTraceRepro, for
	// reproduction via [governor.WithReplayStrategy].
	Trace *governor.ScheduleTrace `json:"trace,omitempty"`
}
