package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/testbench/internal/harness"
	"github.com/roach88/testbench/internal/tx"
)

// appendCommand is a backend command that records one transaction in log.
func appendCommand(log, kind string, params ...string) harness.Command {
	cmd := harness.Command{os.Args[0], "testbench", "append", "--log", log, "--kind", kind}
	return append(cmd, params...)
}

// writeSequence saves a sequence whose commands write the given logs.
func writeSequence(t *testing.T, seq *harness.Sequence) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sequence.yaml")
	require.NoError(t, seq.Save(path))
	return path
}

func twoBackendSequence(t *testing.T, secondParam string) (*harness.Sequence, string, string) {
	t.Helper()
	dir := t.TempDir()
	a := filepath.Join(dir, "tarpc.redb")
	b := filepath.Join(dir, "grpc.pebble")

	seq := harness.NewSequence()
	seq.Commands = []harness.Command{
		appendCommand(a, "init"),
		appendCommand(a, "filter", "scoreboard/resource.ron"),
		appendCommand(b, "init"),
		appendCommand(b, "filter", secondParam),
	}
	seq.TxStores = []string{a, b}
	return seq, a, b
}

func TestRecordThenRun(t *testing.T) {
	seq, _, _ := twoBackendSequence(t, "scoreboard/resource.ron")
	path := writeSequence(t, seq)

	stdout, stderr, code := execute(t, "record", "-s", path, "--quiet")
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Contains(t, stdout, "Recorded 2 transactions into "+path)

	recorded, err := harness.LoadSequence(path)
	require.NoError(t, err)
	assert.Equal(t, []tx.Transaction{
		tx.New("init"),
		tx.New("filter", "scoreboard/resource.ron"),
	}, recorded.ExpectedTxs)

	stdout, stderr, code = execute(t, "run", "-s", path)
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Contains(t, stdout, "All 2 logs match 2 baseline transactions")
	assert.Contains(t, stderr, "Same #1: filter(\"scoreboard/resource.ron\")")
}

func TestRecord_BackendsDisagree(t *testing.T) {
	seq, _, _ := twoBackendSequence(t, "scoreboard/other.ron")
	seq.ExpectedTxs = []tx.Transaction{tx.New("previous")}
	path := writeSequence(t, seq)

	_, stderr, code := execute(t, "record", "-s", path)
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stderr, "Diff #1")
	assert.Contains(t, stderr, `params[0]: "scoreboard/resource.ron" != "scoreboard/other.ron"`)

	unchanged, err := harness.LoadSequence(path)
	require.NoError(t, err)
	assert.Equal(t, []tx.Transaction{tx.New("previous")}, unchanged.ExpectedTxs)
}

func TestRun_MismatchJSON(t *testing.T) {
	log := filepath.Join(t.TempDir(), "a.redb")
	seq := harness.NewSequence()
	seq.Commands = []harness.Command{appendCommand(log, "init", "x")}
	seq.TxStores = []string{log}
	seq.ExpectedTxs = []tx.Transaction{tx.New("init")}
	path := writeSequence(t, seq)

	stdout, _, code := execute(t, "--format", "json", "run", "-s", path)
	assert.Equal(t, ExitFailure, code)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeMismatch, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "mismatch detected")

	details, ok := resp.Error.Details.(map[string]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, resp.RunID)
	assert.Equal(t, resp.RunID, details["run_id"])
}

func TestRun_StrictLengthFromEnvironment(t *testing.T) {
	log := filepath.Join(t.TempDir(), "a.redb")
	seq := harness.NewSequence()
	seq.Commands = []harness.Command{
		appendCommand(log, "init"),
		appendCommand(log, "extra"),
	}
	seq.TxStores = []string{log}
	seq.ExpectedTxs = []tx.Transaction{tx.New("init")}
	path := writeSequence(t, seq)

	_, stderr, code := execute(t, "run", "-s", path, "-q")
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Contains(t, stderr, "trailing transactions not compared")

	t.Setenv("TESTBENCH_STRICT_LENGTH", "true")
	_, _, code = execute(t, "run", "-s", path, "-q")
	assert.Equal(t, ExitFailure, code)

	_, _, code = execute(t, "run", "-s", path, "-q", "--strict-length=false")
	assert.Equal(t, ExitSuccess, code, "flag overrides environment")
}

func TestRun_EmptySequence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sequence.yaml")
	_, _, code := execute(t, "init", "-s", path)
	require.Equal(t, ExitSuccess, code)

	_, _, code = execute(t, "run", "-s", path)
	assert.Equal(t, ExitSuccess, code)

	_, _, code = execute(t, "record", "-s", path)
	assert.Equal(t, ExitSuccess, code)
}

func TestRun_MissingSequenceFile(t *testing.T) {
	stdout, _, code := execute(t, "--format", "json", "run", "-s", filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Equal(t, ExitCommandError, code)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
}

func TestRun_InvalidSequence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sequence.yaml")
	require.NoError(t, os.WriteFile(path, []byte("commands:\n  - []\n"), 0644))

	stdout, _, code := execute(t, "--format", "json", "run", "-s", path)
	assert.Equal(t, ExitCommandError, code)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, ErrCodeInvalid, resp.Error.Code)
}

func TestRun_SpawnFailure(t *testing.T) {
	seq := harness.NewSequence()
	seq.Commands = []harness.Command{{filepath.Join(t.TempDir(), "no-such-backend")}}
	path := writeSequence(t, seq)

	_, _, code := execute(t, "run", "-s", path)
	assert.Equal(t, ExitCommandError, code)
}

func TestRun_LogNeverWritten(t *testing.T) {
	seq := harness.NewSequence()
	seq.TxStores = []string{filepath.Join(t.TempDir(), "a.redb")}
	path := writeSequence(t, seq)

	stdout, _, code := execute(t, "--format", "json", "run", "-s", path)
	assert.Equal(t, ExitCommandError, code)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
}

func TestRun_JSONResult(t *testing.T) {
	log := filepath.Join(t.TempDir(), "a.redb")
	seq := harness.NewSequence()
	seq.Commands = []harness.Command{appendCommand(log, "init")}
	seq.TxStores = []string{log}
	seq.ExpectedTxs = []tx.Transaction{tx.New("init")}
	path := writeSequence(t, seq)

	stdout, stderr, code := execute(t, "--format", "json", "run", "-s", path)
	require.Equal(t, ExitSuccess, code, stderr)

	var resp struct {
		Status string         `json:"status"`
		Data   harness.Result `json:"data"`
		RunID  string         `json:"run_id"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, harness.WorkflowRun, resp.Data.Workflow)
	assert.NotEmpty(t, resp.Data.RunID)
	assert.Equal(t, resp.Data.RunID, resp.RunID)
	require.Len(t, resp.Data.Commands, 1)
	assert.Equal(t, 0, resp.Data.Commands[0].ExitCode)
	require.Len(t, resp.Data.Reports, 1)
	assert.True(t, resp.Data.Reports[0].OK())
}

func TestRun_VerboseReportsSequence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sequence.yaml")
	_, _, code := execute(t, "init", "-s", path)
	require.Equal(t, ExitSuccess, code)

	_, stderr, code := execute(t, "run", "-s", path, "--verbose")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, stderr, "Loaded "+path+": 0 commands, 0 logs, 0 baseline transactions")
	assert.Contains(t, stderr, "name=verify")
}
