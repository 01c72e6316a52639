package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// ErrEmptyCommand is returned when asked to execute an empty argv.
var ErrEmptyCommand = errors.New("empty command")

// Executor runs one command to completion.
//
// A non-zero exit status is reported through the returned code with a nil
// error. The error is reserved for commands that could not be run at all.
type Executor interface {
	Execute(ctx context.Context, argv []string, env []string) (int, error)
}

// ProcessExecutor runs commands as child processes.
//
// Children inherit the parent environment plus env. Nil writers discard
// the corresponding output.
type ProcessExecutor struct {
	Stdout io.Writer
	Stderr io.Writer
	Dir    string
}

// Execute implements Executor.
func (e *ProcessExecutor) Execute(ctx context.Context, argv []string, env []string) (int, error) {
	if len(argv) == 0 || argv[0] == "" {
		return -1, ErrEmptyCommand
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Env = append(os.Environ(), env...)
	cmd.Stdout = e.Stdout
	cmd.Stderr = e.Stderr
	cmd.Dir = e.Dir

	err := cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	if err != nil {
		return -1, fmt.Errorf("spawn %s: %w", argv[0], err)
	}
	return 0, nil
}
