// Package harness orchestrates equivalence tests between backend processes.
//
// A Sequence is a declarative test case: the commands to execute, the
// transaction logs those commands are expected to produce, and the accepted
// baseline of transactions.
//
// # Sequence Format
//
// Sequences are stored as YAML:
//
//	commands:
//	  - [autoschematic, apply]
//	  - [autoschematic, plan]
//	tx_stores:
//	  - testbench/equivalence/tarpc/scoreboard.redb
//	  - testbench/equivalence/grpc/scoreboard.redb
//	expected_txs:
//	  - kind: init
//	    params: []
//	  - kind: filter
//	    params:
//	      - scoreboard/resource.ron
//
// A decoded Sequence is validated against an embedded CUE schema.
//
// # Workflows
//
// Runner.Run is the regression check:
//
//	Cleanup → Execute → Verify
//
// Runner.Record captures a new baseline:
//
//	Cleanup → Execute → MutualCrossCheck → CaptureBaseline
//
// Cleanup deletes every configured log (absent logs are skipped). Execute
// runs each command to completion, strictly in order; exit codes are
// logged, never judged. Verify compares every log with the baseline;
// MutualCrossCheck compares each adjacent pair of logs so a baseline is
// never taken from backends that disagree. Every log or pair is evaluated
// before a mismatch fails the workflow. I/O and spawn errors abort at once.
//
// # Determinism
//
// Commands never overlap and logs are only read after their writer has
// exited. Each workflow gets a run ID that is passed to child processes in
// the environment (TESTBENCH_RUN_ID by default).
package harness
