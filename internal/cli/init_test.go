package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/testbench/internal/harness"
)

func TestInit_WritesEmptySequence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sequence.yaml")

	stdout, _, code := execute(t, "init", "--sequence", path)
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, "Created sequence file: "+path+"\n", stdout)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "init_sequence", data)

	seq, err := harness.LoadSequence(path)
	require.NoError(t, err)
	assert.Equal(t, harness.NewSequence(), seq)
}

func TestInit_ReplacesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sequence.yaml")
	require.NoError(t, os.WriteFile(path, []byte("commands: [[old]]\n"), 0644))

	_, _, code := execute(t, "init", "-s", path)
	require.Equal(t, ExitSuccess, code)

	seq, err := harness.LoadSequence(path)
	require.NoError(t, err)
	assert.Empty(t, seq.Commands)
}

func TestInit_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sequence.yaml")

	stdout, _, code := execute(t, "--format", "json", "init", "-s", path)
	require.Equal(t, ExitSuccess, code)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, map[string]interface{}{"sequence": path}, resp.Data)
}

func TestInit_UnwritablePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "sequence.yaml")

	stdout, _, code := execute(t, "--format", "json", "init", "-s", path)
	assert.Equal(t, ExitCommandError, code)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeWriteFailed, resp.Error.Code)
}
