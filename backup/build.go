package backup

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/stratts/vaultbak/scanner"
	"github.com/stratts/vaultbak/telemetry"
	"github.com/stratts/vaultbak/telemetry/metrics"
)

// Build scans src, diffs it against the newest committed version, and
// stages the result as the in-memory working version. It does not touch
// the archive on disk; call Save to commit it.
//
// include/exclude override the archive's stored filters when non-nil; a nil
// slice falls back to the filters recorded in info.json (or, for a brand
// new archive, to no filtering at all).
func (b *Backup) Build(ctx context.Context, src string, include, exclude []string) error {
	start := time.Now()
	var err error
	defer func() { b.emitOperationMetric(metrics.OpBuild, time.Since(start), err) }()

	if include == nil {
		include = b.Include
	}
	if exclude == nil {
		exclude = b.Exclude
	}

	now := time.Now()
	curver := newVersion()
	curver.Time = b.newVersionTime(now)
	curver.ID = versionID(curver.Time)

	sc := scanner.New(zap.NewNop())
	candidates, scanErr := sc.Scan(ctx, src, include, exclude)
	if scanErr != nil {
		err = newError(ErrCodeIoError, "build", src, scanErr, "scan failed: %v", scanErr)
		return err
	}

	diff(curver, b.lastver.Files, candidates)

	b.Src = src
	b.Include = include
	b.Exclude = exclude
	b.curver = curver
	return nil
}

// emitOperationMetric reports a build/restore/trim/info invocation on the
// process-wide telemetry system installed via telemetry.SetGlobalSystem; it
// is a silent no-op when none has been installed.
func (b *Backup) emitOperationMetric(op string, duration time.Duration, err error) {
	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusError
	}
	tags := map[string]string{metrics.TagOperation: op, metrics.TagStatus: status}

	switch op {
	case metrics.OpBuild:
		telemetry.EmitCounter(metrics.BackupBuildOperationsTotal, 1, tags)
		telemetry.EmitHistogram(metrics.BackupBuildDurationMs, duration, tags)
	case metrics.OpRestore:
		telemetry.EmitCounter(metrics.BackupRestoreOperationsTotal, 1, tags)
		telemetry.EmitHistogram(metrics.BackupRestoreDurationMs, duration, tags)
	case metrics.OpTrim:
		telemetry.EmitCounter(metrics.BackupTrimOperationsTotal, 1, tags)
	case metrics.OpInfo:
		telemetry.EmitCounter(metrics.BackupInfoOperationsTotal, 1, tags)
	}
	if err != nil {
		telemetry.EmitCounter(metrics.BackupErrorsTotal, 1, tags)
	}
}
