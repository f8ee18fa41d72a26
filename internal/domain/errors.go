package domain

import (
	"errors"
	"fmt"
)

type Stage string

const (
	StageStaging   Stage = "staging"
	StageExport    Stage = "export"
	StageArchive   Stage = "archive"
	StageUpload    Stage = "upload"
	StageRetention Stage = "retention"
)

var (
	ErrStaging   = errors.New("staging error")
	ErrExport    = errors.New("export error")
	ErrArchive   = errors.New("archive error")
	ErrUpload    = errors.New("upload error")
	ErrRetention = errors.New("retention error")
)

var stageSentinels = map[Stage]error{
	StageStaging:   ErrStaging,
	StageExport:    ErrExport,
	StageArchive:   ErrArchive,
	StageUpload:    ErrUpload,
	StageRetention: ErrRetention,
}

var stageDescriptions = map[Stage]string{
	StageStaging:   "staging directory creation",
	StageExport:    "database export",
	StageArchive:   "archive creation",
	StageUpload:    "upload",
	StageRetention: "retention enforcement",
}

// StageError reports the pipeline stage that failed together with the
// underlying failure. errors.Is matches it against the stage sentinel.
type StageError struct {
	Stage Stage
	Err   error
}

func NewStageError(stage Stage, err error) *StageError {
	return &StageError{Stage: stage, Err: err}
}

func (e *StageError) Error() string {
	desc, ok := stageDescriptions[e.Stage]
	if !ok {
		desc = string(e.Stage)
	}
	return fmt.Sprintf("%s failed: %v", desc, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func (e *StageError) Is(target error) bool {
	sentinel, ok := stageSentinels[e.Stage]
	return ok && target == sentinel
}
