package harness

import (
	"github.com/roach88/testbench/internal/crosscheck"
)

// Workflow names reported in Result.
const (
	WorkflowRun    = "run"
	WorkflowRecord = "record"
)

// CommandResult records one executed command.
type CommandResult struct {
	Argv       []string `json:"argv"`
	ExitCode   int      `json:"exit_code"`
	DurationMS int64    `json:"duration_ms"`
}

// Result is the outcome of a workflow.
//
// It is returned even when the workflow fails, filled in up to the phase
// that failed.
type Result struct {
	RunID    string `json:"run_id"`
	Workflow string `json:"workflow"`

	// Removed lists the logs that existed and were deleted during cleanup.
	Removed []string `json:"removed"`

	Commands []CommandResult `json:"commands"`

	// Reports holds one cross-check per verified log (Run) or per adjacent
	// pair of logs (Record), in evaluation order.
	Reports []*crosscheck.Report `json:"reports"`

	// Captured is the number of baseline transactions written by Record.
	Captured int `json:"captured,omitempty"`
}

// NewResult creates an empty result for the given workflow.
func NewResult(workflow, runID string) *Result {
	return &Result{
		RunID:    runID,
		Workflow: workflow,
		Removed:  []string{},
		Commands: []CommandResult{},
		Reports:  []*crosscheck.Report{},
	}
}

// OK reports whether every cross-check in the result passed.
func (r *Result) OK() bool {
	for _, rep := range r.Reports {
		if !rep.OK() {
			return false
		}
	}
	return true
}
