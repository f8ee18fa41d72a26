package database

import (
	"bytes"
	"context"
	"os/exec"
	"time"

	"github.com/semmidev/phylax-mongo/internal/domain"
)

// Runner executes an external command and captures both output streams.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (domain.ExportOutput, error)
}

type CommandRunner struct {
	// WaitDelay bounds how long Run waits for the process to exit after
	// the context is cancelled.
	WaitDelay time.Duration
}

func NewCommandRunner() *CommandRunner {
	return &CommandRunner{WaitDelay: 10 * time.Second}
}

func (r *CommandRunner) Run(ctx context.Context, name string, args ...string) (domain.ExportOutput, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = r.WaitDelay

	err := cmd.Run()
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}

	return domain.ExportOutput{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}, err
}
