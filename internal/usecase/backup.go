package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/semmidev/phylax-mongo/internal/domain"
	"github.com/semmidev/phylax-mongo/internal/infrastructure/scheduler"
)

type Logger interface {
	Infof(template string, args ...interface{})
	Errorf(template string, args ...interface{})
	Warnf(template string, args ...interface{})
}

type StagingArea interface {
	Prepare(runID string) (string, error)
	Populated(dir string) (bool, error)
	Cleanup(dir string) error
}

// Components are the collaborators of one backup run. Notifier may be nil,
// which disables notifications.
type Components struct {
	Staging   StagingArea
	Exporter  domain.Exporter
	Archiver  domain.Archiver
	Store     domain.ObjectStore
	Retention *Retention
	Notifier  domain.Notifier
	Logger    Logger
}

type Options struct {
	Label                string
	Destination          string
	Prefix               string
	Filename             string
	DateFormat           string
	StorageClass         string
	ServerSideEncryption string
	UniqueSuffix         bool
	CleanupStaging       bool
	NotifyTimeout        time.Duration
	Schedule             scheduler.Schedule
}

// Report describes how far a run got.
type Report struct {
	RunID       string
	StagingDir  string
	Key         string
	ArchiveSize int
	Deleted     []string
	State       State
	FailedStage domain.Stage
	Duration    time.Duration
}

// Backup runs export, archive, upload and retention strictly in sequence.
// The first failing stage aborts the run; earlier side effects are kept.
type Backup struct {
	Components
	opts   Options
	now    func() time.Time
	suffix func() string
}

func NewBackup(c Components, opts Options) *Backup {
	return &Backup{
		Components: c,
		opts:       opts,
		now:        time.Now,
		suffix:     RandomSuffix,
	}
}

// Execute performs one run and sends exactly one notification, for success
// or for the failure that ended it.
func (uc *Backup) Execute(ctx context.Context) (*Report, error) {
	start := uc.now()
	report := &Report{State: StateInit}

	uc.Logger.Infof("%s backup to %s is starting", uc.Exporter.Engine(), uc.opts.Destination)

	err := uc.run(ctx, report, start)
	report.Duration = uc.now().Sub(start)

	if err != nil {
		report.State = StateFailed

		var stageErr *domain.StageError
		if errors.As(err, &stageErr) {
			report.FailedStage = stageErr.Stage
		}

		uc.Logger.Errorf("Backup %s failed in %s stage after %s: %v",
			report.RunID, report.FailedStage, report.Duration.Round(time.Millisecond), err)
		uc.notify(ctx, err.Error())
		return report, err
	}

	report.State = StateComplete
	uc.Logger.Infof("Backup completed successfully in %s: %s",
		report.Duration.Round(time.Second), report.Key)
	uc.notify(ctx, uc.successMessage(report, start))

	return report, nil
}

func (uc *Backup) run(ctx context.Context, report *Report, start time.Time) error {
	suffix := ""
	if uc.opts.UniqueSuffix {
		suffix = uc.suffix()
	}
	report.RunID = NewRunID(uc.opts.Filename, uc.opts.DateFormat, start, suffix)

	uc.Logger.Infof("Creating staging directory for %s", report.RunID)
	dir, err := uc.Staging.Prepare(report.RunID)
	if err != nil {
		return domain.NewStageError(domain.StageStaging, err)
	}
	report.StagingDir = dir
	report.State = StateDirectoryReady

	if uc.opts.CleanupStaging {
		defer func() {
			if err := uc.Staging.Cleanup(dir); err != nil {
				uc.Logger.Warnf("Failed to clean up staging directory: %v", err)
			}
		}()
	}

	if err := uc.export(ctx, dir); err != nil {
		return domain.NewStageError(domain.StageExport, err)
	}
	report.State = StateExported

	uc.Logger.Infof("Creating %s archive from folder: %s", uc.Archiver.Extension(), dir)
	data, err := uc.Archiver.Archive(ctx, dir)
	if err != nil {
		return domain.NewStageError(domain.StageArchive, err)
	}
	report.ArchiveSize = len(data)
	uc.Logger.Infof("Archive created, size: %s", humanize.Bytes(uint64(len(data))))
	report.State = StateArchived

	report.Key = domain.ObjectKey(uc.opts.Prefix, report.RunID, uc.Archiver.Extension())
	uc.Logger.Infof("Uploading archive to %s, key: %s", uc.opts.Destination, report.Key)
	err = uc.Store.Put(ctx, report.Key, data, domain.PutOptions{
		ContentType:          uc.Archiver.ContentType(),
		StorageClass:         uc.opts.StorageClass,
		ServerSideEncryption: uc.opts.ServerSideEncryption,
	})
	if err != nil {
		return domain.NewStageError(domain.StageUpload, err)
	}
	report.State = StateUploaded

	deleted, err := uc.Retention.Enforce(ctx, domain.ListPrefix(uc.opts.Prefix))
	if err != nil {
		return domain.NewStageError(domain.StageRetention, err)
	}
	report.Deleted = deleted
	report.State = StateRetentionEnforced

	return nil
}

// export runs the dump tool and refuses an export that left no files
// behind, which would otherwise be archived as an empty backup.
func (uc *Backup) export(ctx context.Context, dir string) error {
	uc.Logger.Infof("Executing %s export into %s", uc.Exporter.Engine(), dir)

	out, err := uc.Exporter.Export(ctx, dir)
	if stdout := strings.TrimSpace(out.Stdout); stdout != "" {
		uc.Logger.Infof("%s stdout: %s", uc.Exporter.Engine(), stdout)
	}
	if stderr := strings.TrimSpace(out.Stderr); stderr != "" {
		if err != nil {
			uc.Logger.Errorf("%s stderr: %s", uc.Exporter.Engine(), stderr)
		} else {
			uc.Logger.Infof("%s stderr: %s", uc.Exporter.Engine(), stderr)
		}
	}
	if err != nil {
		return err
	}

	populated, err := uc.Staging.Populated(dir)
	if err != nil {
		return err
	}
	if !populated {
		return fmt.Errorf("export produced no files in %s", dir)
	}

	return nil
}

// notify delivers message on a context detached from the run deadline, so a
// timed out run still reports its failure. Errors are logged and dropped.
func (uc *Backup) notify(ctx context.Context, message string) {
	if uc.Notifier == nil {
		return
	}

	nctx := context.WithoutCancel(ctx)
	if uc.opts.NotifyTimeout > 0 {
		var cancel context.CancelFunc
		nctx, cancel = context.WithTimeout(nctx, uc.opts.NotifyTimeout)
		defer cancel()
	}

	if err := uc.Notifier.Notify(nctx, fmt.Sprintf("[%s] %s", uc.opts.Label, message)); err != nil {
		uc.Logger.Errorf("Failed to send notification: %v", err)
	}
}

func (uc *Backup) successMessage(report *Report, start time.Time) string {
	msg := fmt.Sprintf("Backup completed successfully: %s (%s), %d old backup(s) deleted",
		report.Key, humanize.Bytes(uint64(report.ArchiveSize)), len(report.Deleted))

	if uc.opts.Schedule != nil {
		next := uc.opts.Schedule.Next(start)
		msg += fmt.Sprintf(". Next run due %s", next.Format(time.RFC3339))
	}

	return msg
}
