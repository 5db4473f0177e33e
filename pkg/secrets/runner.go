package secrets

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
)

// RunResult is the outcome of a command that was started successfully.
type RunResult struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Runner executes an external command and waits for it to exit.
// It returns an error only when the command could not be run at all;
// a non-zero exit is reported through RunResult.ExitCode.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (RunResult, error)
}

// ExecRunner runs commands with os/exec, inheriting the current environment.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) (RunResult, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := RunResult{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err == nil {
		return res, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		// -1 when the process was killed by a signal
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	if ctx.Err() != nil {
		return res, ctx.Err()
	}
	return res, err
}
