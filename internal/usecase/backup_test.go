package usecase

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/semmidev/phylax-mongo/internal/domain"
	"github.com/semmidev/phylax-mongo/internal/infrastructure/scheduler"
)

type harness struct {
	rec      *recorder
	staging  *fakeStaging
	exporter *fakeExporter
	archiver *fakeArchiver
	store    *memoryStore
	notifier *fakeNotifier
	logger   *fakeLogger
	opts     Options
	keep     int
}

func newHarness(base string) *harness {
	rec := &recorder{}
	return &harness{
		rec:      rec,
		staging:  &fakeStaging{rec: rec, base: base},
		exporter: &fakeExporter{rec: rec, files: map[string]string{"users.bson": "data"}},
		archiver: &fakeArchiver{rec: rec},
		store:    newMemoryStore(rec),
		notifier: &fakeNotifier{},
		logger:   &fakeLogger{},
		keep:     2,
		opts: Options{
			Label:                "PROD",
			Destination:          "S3 bucket 'backups'",
			Prefix:               "mongodb_backups",
			Filename:             "mongodb_backup",
			DateFormat:           "YYYYMMDD_HHmmss",
			StorageClass:         "STANDARD",
			ServerSideEncryption: "AES256",
			UniqueSuffix:         true,
			CleanupStaging:       true,
			NotifyTimeout:        time.Second,
		},
	}
}

func (h *harness) build(withNotifier bool) *Backup {
	var n domain.Notifier
	if withNotifier {
		n = h.notifier
	}
	uc := NewBackup(Components{
		Staging:   h.staging,
		Exporter:  h.exporter,
		Archiver:  h.archiver,
		Store:     h.store,
		Retention: NewRetention(h.store, h.logger, h.keep),
		Notifier:  n,
		Logger:    h.logger,
	}, h.opts)
	uc.now = func() time.Time { return time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC) }
	uc.suffix = func() string { return "abcd1234" }
	return uc
}

func TestBackupExecute(t *testing.T) {
	Convey("Given a backup pipeline", t, func() {
		base, err := os.MkdirTemp("", "backup_usecase_test")
		So(err, ShouldBeNil)
		defer os.RemoveAll(base)

		h := newHarness(base)
		at := func(hour int) time.Time { return time.Date(2026, 1, 1, hour, 0, 0, 0, time.UTC) }
		h.store.seed("mongodb_backups/k1.zip", at(10))
		h.store.seed("mongodb_backups/k2.zip", at(9))
		h.store.seed("mongodb_backups/k3.zip", at(8))
		ctx := context.Background()

		Convey("When every stage succeeds", func() {
			report, err := h.build(true).Execute(ctx)

			Convey("It should run the stages in order", func() {
				So(err, ShouldBeNil)
				So(h.rec.names(), ShouldResemble, []string{"prepare", "export", "archive", "put", "list", "delete"})
			})

			Convey("It should upload under the deterministic key with object parameters", func() {
				So(report.RunID, ShouldEqual, "mongodb_backup_20260101_120000_abcd1234")
				So(report.Key, ShouldEqual, "mongodb_backups/mongodb_backup_20260101_120000_abcd1234.zip")
				So(string(h.store.bodies[report.Key]), ShouldEqual, "users.bson")
				So(h.store.lastPut, ShouldResemble, domain.PutOptions{
					ContentType:          "application/zip",
					StorageClass:         "STANDARD",
					ServerSideEncryption: "AES256",
				})
			})

			Convey("It should retain the new upload and the newest existing backup", func() {
				So(report.Deleted, ShouldResemble, []string{"mongodb_backups/k2.zip", "mongodb_backups/k3.zip"})
				So(h.store.keys(), ShouldResemble, []string{
					"mongodb_backups/k1.zip",
					"mongodb_backups/mongodb_backup_20260101_120000_abcd1234.zip",
				})
			})

			Convey("It should finish complete with one success notification", func() {
				So(report.State, ShouldEqual, StateComplete)
				So(len(h.notifier.messages), ShouldEqual, 1)
				So(h.notifier.messages[0], ShouldStartWith, "[PROD] Backup completed successfully")
				So(h.notifier.messages[0], ShouldContainSubstring, "2 old backup(s) deleted")
			})

			Convey("It should remove the staging directory", func() {
				So(h.staging.cleaned, ShouldResemble, []string{report.StagingDir})
				_, err := os.Stat(report.StagingDir)
				So(os.IsNotExist(err), ShouldBeTrue)
			})
		})

		Convey("When the retained count covers the whole set", func() {
			h.keep = 10

			report, err := h.build(true).Execute(ctx)

			Convey("It should not issue a delete", func() {
				So(err, ShouldBeNil)
				So(report.Deleted, ShouldBeEmpty)
				So(h.rec.names(), ShouldResemble, []string{"prepare", "export", "archive", "put", "list"})
			})
		})

		Convey("When the staging directory cannot be created", func() {
			h.staging.err = errors.New("mkdir /tmp/x: permission denied")

			report, err := h.build(true).Execute(ctx)

			Convey("It should fail with a staging error and stop", func() {
				So(errors.Is(err, domain.ErrStaging), ShouldBeTrue)
				So(report.State, ShouldEqual, StateFailed)
				So(report.FailedStage, ShouldEqual, domain.StageStaging)
				So(h.rec.names(), ShouldResemble, []string{"prepare"})
				So(h.notifier.messages, ShouldResemble, []string{
					"[PROD] staging directory creation failed: mkdir /tmp/x: permission denied",
				})
			})
		})

		Convey("When the export subprocess exits non-zero", func() {
			h.exporter.err = errors.New("mongodump command failed: exit status 1")
			h.exporter.out = domain.ExportOutput{Stderr: "Failed: connection refused"}

			report, err := h.build(true).Execute(ctx)

			Convey("It should report an export error without archive, upload or retention", func() {
				So(errors.Is(err, domain.ErrExport), ShouldBeTrue)
				So(errors.Is(err, domain.ErrUpload), ShouldBeFalse)
				So(report.FailedStage, ShouldEqual, domain.StageExport)
				So(h.rec.names(), ShouldResemble, []string{"prepare", "export"})
				So(len(h.store.deletes), ShouldEqual, 0)
			})

			Convey("It should send one failure notification and log stderr", func() {
				So(len(h.notifier.messages), ShouldEqual, 1)
				So(h.notifier.messages[0], ShouldEqual,
					"[PROD] database export failed: mongodump command failed: exit status 1")
				So(h.logger.errs, ShouldContain, "mongodb stderr: Failed: connection refused")
			})

			Convey("It should still clean up the staging directory", func() {
				So(len(h.staging.cleaned), ShouldEqual, 1)
			})
		})

		Convey("When the export leaves the staging directory empty", func() {
			h.exporter.files = nil

			_, err := h.build(true).Execute(ctx)

			Convey("It should refuse to archive it", func() {
				So(errors.Is(err, domain.ErrExport), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "export produced no files")
				So(h.rec.names(), ShouldResemble, []string{"prepare", "export"})
			})
		})

		Convey("When archiving fails", func() {
			h.archiver.err = errors.New("read users.bson: input/output error")

			_, err := h.build(true).Execute(ctx)

			So(errors.Is(err, domain.ErrArchive), ShouldBeTrue)
			So(h.rec.names(), ShouldResemble, []string{"prepare", "export", "archive"})
			So(len(h.notifier.messages), ShouldEqual, 1)
		})

		Convey("When the upload fails", func() {
			h.store.putErr = errors.New("AccessDenied")

			_, err := h.build(true).Execute(ctx)

			So(errors.Is(err, domain.ErrUpload), ShouldBeTrue)
			So(h.rec.names(), ShouldResemble, []string{"prepare", "export", "archive", "put"})
			So(h.notifier.messages, ShouldResemble, []string{"[PROD] upload failed: AccessDenied"})
		})

		Convey("When retention fails after a successful upload", func() {
			h.store.deleteErr = errors.New("SlowDown")

			report, err := h.build(true).Execute(ctx)

			Convey("It should fail but leave the new backup in place", func() {
				So(errors.Is(err, domain.ErrRetention), ShouldBeTrue)
				So(report.State, ShouldEqual, StateFailed)
				So(h.store.keys(), ShouldContain, report.Key)
				So(len(h.notifier.messages), ShouldEqual, 1)
				So(h.notifier.messages[0], ShouldContainSubstring, "retention enforcement failed")
			})
		})

		Convey("When no notification channel is configured", func() {
			Convey("A successful run sends nothing", func() {
				report, err := h.build(false).Execute(ctx)
				So(err, ShouldBeNil)
				So(report.State, ShouldEqual, StateComplete)
				So(h.notifier.messages, ShouldBeEmpty)
			})

			Convey("A failed run still fails and sends nothing", func() {
				h.exporter.err = errors.New("boom")
				_, err := h.build(false).Execute(ctx)
				So(errors.Is(err, domain.ErrExport), ShouldBeTrue)
				So(h.notifier.messages, ShouldBeEmpty)
			})
		})

		Convey("When the notification channel fails", func() {
			h.notifier.err = errors.New("webhook returned 500")

			report, err := h.build(true).Execute(ctx)

			Convey("The run outcome is unaffected and the failure is logged", func() {
				So(err, ShouldBeNil)
				So(report.State, ShouldEqual, StateComplete)
				So(h.logger.errs, ShouldContain, "Failed to send notification: webhook returned 500")
			})
		})

		Convey("When the run context is already cancelled", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()
			h.exporter.err = context.Canceled

			_, err := h.build(true).Execute(cancelled)

			Convey("The failure notification is still delivered on a live context", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
				So(len(h.notifier.ctxErrs), ShouldEqual, 1)
				So(h.notifier.ctxErrs[0], ShouldBeNil)
			})
		})

		Convey("When a schedule is configured", func() {
			sched, err := scheduler.Parse("0 3 * * *")
			So(err, ShouldBeNil)
			h.opts.Schedule = sched

			_, err = h.build(true).Execute(ctx)

			So(err, ShouldBeNil)
			So(h.notifier.messages[0], ShouldContainSubstring, "Next run due 2026-01-02T03:00:00Z")
		})

		Convey("When the unique suffix is disabled and cleanup is off", func() {
			h.opts.UniqueSuffix = false
			h.opts.CleanupStaging = false

			report, err := h.build(true).Execute(ctx)

			So(err, ShouldBeNil)
			So(report.RunID, ShouldEqual, "mongodb_backup_20260101_120000")
			So(h.staging.cleaned, ShouldBeEmpty)
			_, statErr := os.Stat(report.StagingDir)
			So(statErr, ShouldBeNil)
		})
	})
}
