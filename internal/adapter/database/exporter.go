package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/semmidev/phylax-mongo/internal/domain"
)

// outputArgs returns the arguments that direct a dump tool into dir.
type outputArgs func(dir string) []string

var engines = map[string]outputArgs{
	"mongodb":    mongoOutput,
	"postgresql": postgresOutput,
	"mysql":      mysqlOutput,
}

// DumpExporter runs an external dump tool against the staging directory.
// The option string is split with shell quoting rules on every export and
// forwarded untouched. No shell runs, so $VAR references and globs are passed
// literally and must be expanded before they reach the config.
type DumpExporter struct {
	engine  string
	command string
	options string
	output  outputArgs
	runner  Runner
}

func New(engine, command, options string, runner Runner) (*DumpExporter, error) {
	output, ok := engines[engine]
	if !ok {
		return nil, fmt.Errorf("unsupported database engine: %s", engine)
	}
	if command == "" {
		return nil, fmt.Errorf("dump command is required")
	}

	if runner == nil {
		runner = NewCommandRunner()
	}

	return &DumpExporter{
		engine:  engine,
		command: command,
		options: options,
		output:  output,
		runner:  runner,
	}, nil
}

func (e *DumpExporter) Export(ctx context.Context, dir string) (domain.ExportOutput, error) {
	args, err := e.Args(dir)
	if err != nil {
		return domain.ExportOutput{}, err
	}

	out, err := e.runner.Run(ctx, e.command, args...)
	if err != nil {
		if stderr := strings.TrimSpace(out.Stderr); stderr != "" {
			return out, fmt.Errorf("%s command failed: %w: %s", e.command, err, stderr)
		}
		return out, fmt.Errorf("%s command failed: %w", e.command, err)
	}

	return out, nil
}

func (e *DumpExporter) Engine() string {
	return e.engine
}

// Args returns the full argument list for dir.
func (e *DumpExporter) Args(dir string) ([]string, error) {
	args, err := shellquote.Split(e.options)
	if err != nil {
		return nil, fmt.Errorf("failed to parse dump options: %w", err)
	}
	return append(args, e.output(dir)...), nil
}
