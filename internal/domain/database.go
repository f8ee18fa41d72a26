package domain

import "context"

// ExportOutput holds the captured streams of the dump tool.
type ExportOutput struct {
	Stdout string
	Stderr string
}

type Exporter interface {
	Export(ctx context.Context, dir string) (ExportOutput, error)
	Engine() string
}
