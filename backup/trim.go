package backup

import (
	"os"
	"sort"
	"time"

	"github.com/stratts/vaultbak/container"
	"github.com/stratts/vaultbak/manifest"
	"github.com/stratts/vaultbak/telemetry"
	"github.com/stratts/vaultbak/telemetry/metrics"
)

// Trim collapses every version up to and including pivot into a single
// version: pivot's manifest is rewritten so it owns every file it
// references (sizedelta becomes its full size), and any version newer than
// pivot that referenced a file located in a version older than pivot is
// rewritten to reference pivot instead. Versions strictly older than pivot
// are dropped.
//
// The result is written to out (b.Path if out is empty), assembled first
// at out+".tempfile" and only installed once fully written, so a failure
// partway through leaves both the original archive and any prior file at
// out untouched. When out differs from b.Path, the source archive is left
// exactly as it was and b's in-memory state keeps describing it; when out
// equals b.Path (the common case), b's in-memory state is updated to
// reflect the now-trimmed archive.
func (b *Backup) Trim(sel Selector, out string) error {
	start := time.Now()
	var err error
	defer func() { b.emitOperationMetric(metrics.OpTrim, time.Since(start), err) }()

	if out == "" {
		out = b.Path
	}

	pivot, resolveErr := b.resolve(sel)
	if pivot == nil {
		err = resolveErr
		return err
	}

	working := out + ".tempfile"
	if trimErr := b.writeTrimmedArchive(working, pivot); trimErr != nil {
		_ = os.Remove(working)
		err = newError(ErrCodeIoError, "trim", b.Path, trimErr, "trim failed: %v", trimErr)
		return err
	}

	if replaceErr := container.ReplaceAtomically(working, out); replaceErr != nil {
		err = newError(ErrCodeIoError, "trim", b.Path, replaceErr, "failed to install trimmed archive: %v", replaceErr)
		return err
	}

	var dropped int
	if out == b.Path {
		dropped = b.collapseVersions(pivot)
	} else {
		dropped = len(b.sortedVersionsOlderThan(pivot))
	}
	telemetry.EmitCounter(metrics.BackupTrimVersionsDropped, float64(dropped), nil)
	return nil
}

// sortedVersionsOlderThan returns the versions strictly older than pivot.
func (b *Backup) sortedVersionsOlderThan(pivot *Version) []*Version {
	var out []*Version
	for _, v := range b.Versions {
		if v.Time < pivot.Time {
			out = append(out, v)
		}
	}
	return out
}

// TrimToRecent trims the archive so that only the n most recent versions
// remain, collapsing everything older into the (n)th newest version,
// writing the result to out (b.Path if out is empty). A no-op if the
// archive already has n or fewer versions.
func (b *Backup) TrimToRecent(n int, out string) error {
	sorted := b.sortedVersions()
	if n >= len(sorted) {
		return nil
	}
	pivot := sorted[len(sorted)-n]
	return b.Trim(Selector{ID: pivot.ID}, out)
}

func (b *Backup) writeTrimmedArchive(working string, pivot *Version) error {
	w, err := container.OpenAppend(working)
	if err != nil {
		return err
	}

	now := time.Unix(pivot.Time, 0)

	bundlePath, bundleSize, err := b.renderPivotBundle(pivot)
	if err != nil {
		_ = w.Close()
		return err
	}
	defer func() { _ = os.Remove(bundlePath) }()

	bundleFile, err := os.Open(bundlePath)
	if err != nil {
		_ = w.Close()
		return err
	}
	defer func() { _ = bundleFile.Close() }()

	if err := w.WriteStream(pivot.dataMember(), bundleFile, bundleSize, now); err != nil {
		_ = w.Close()
		return err
	}

	pivotManifest := toManifestVersion(pivot)
	pivotManifest.SizeDelta = pivotManifest.Size
	for name, fr := range pivotManifest.Files {
		fr.Location = pivot.ID
		pivotManifest.Files[name] = fr
	}
	pivotJSON, err := manifest.EncodeVersion(pivotManifest)
	if err != nil {
		_ = w.Close()
		return err
	}
	if err := w.WriteBytes(pivot.infoMember(), pivotJSON, now); err != nil {
		_ = w.Close()
		return err
	}

	r, err := container.OpenRead(b.Path)
	if err != nil {
		_ = w.Close()
		return err
	}
	defer func() { _ = r.Close() }()

	infoData, err := r.Extract("info.json")
	if err != nil {
		_ = w.Close()
		return err
	}
	if err := w.WriteBytes("info.json", infoData, now); err != nil {
		_ = w.Close()
		return err
	}

	for _, v := range b.newerThan(pivot) {
		if err := b.copyRewrittenVersion(w, r, v, pivot); err != nil {
			_ = w.Close()
			return err
		}
	}

	return w.Close()
}

// renderPivotBundle materializes pivot's full file set (every file it
// references, regardless of which version currently owns the bytes) as a
// fresh data bundle, via the same extraction path Restore uses.
func (b *Backup) renderPivotBundle(pivot *Version) (path string, size int64, err error) {
	tmp, err := os.CreateTemp("", "vaultbak-trim-bundle-*.zip")
	if err != nil {
		return "", 0, err
	}
	name := tmp.Name()
	_ = tmp.Close()

	if err := b.RestoreToZip(name, Selector{ID: pivot.ID}); err != nil {
		if berr, ok := err.(*Error); !ok || berr.Code != ErrCodeSelectorStale {
			_ = os.Remove(name)
			return "", 0, err
		}
	}

	info, err := os.Stat(name)
	if err != nil {
		_ = os.Remove(name)
		return "", 0, err
	}
	return name, info.Size(), nil
}

// newerThan returns versions whose Time is strictly greater than pivot's,
// oldest first.
func (b *Backup) newerThan(pivot *Version) []*Version {
	var out []*Version
	for _, v := range b.Versions {
		if v.Time > pivot.Time {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out
}

// copyRewrittenVersion copies v's data bundle verbatim and rewrites its
// manifest so that any file entry located in a version older than pivot
// now points at pivot instead.
func (b *Backup) copyRewrittenVersion(w *container.Writer, r *container.Reader, v, pivot *Version) error {
	now := time.Unix(v.Time, 0)

	bundle, err := r.ExtractSeekable(v.dataMember())
	if err != nil {
		return err
	}
	defer func() { _ = bundle.Close() }()
	info, err := bundle.Stat()
	if err != nil {
		return err
	}
	if err := w.WriteStream(v.dataMember(), bundle, info.Size(), now); err != nil {
		return err
	}

	vm := toManifestVersion(v)
	for name, fr := range vm.Files {
		if owner, ok := b.Versions[fr.Location]; ok && owner.Time < pivot.Time {
			fr.Location = pivot.ID
			vm.Files[name] = fr
		}
	}
	data, err := manifest.EncodeVersion(vm)
	if err != nil {
		return err
	}
	return w.WriteBytes(v.infoMember(), data, now)
}

// collapseVersions updates in-memory state to match a completed trim:
// versions older than pivot are dropped, pivot is rewritten to own its
// full file set, and remaining versions' stale location references are
// updated to match what was just written to disk.
func (b *Backup) collapseVersions(pivot *Version) int {
	dropped := 0
	for id, v := range b.Versions {
		if v.Time < pivot.Time {
			delete(b.Versions, id)
			dropped++
		}
	}

	for name, f := range pivot.Files {
		f.Location = pivot.ID
		pivot.Files[name] = f
	}
	pivot.SizeDelta = pivot.Size

	for _, v := range b.Versions {
		if v.ID == pivot.ID {
			continue
		}
		for name, f := range v.Files {
			if owner, ok := b.Versions[f.Location]; !ok || owner.Time < pivot.Time {
				f.Location = pivot.ID
				v.Files[name] = f
			}
		}
	}

	b.assignOrdinals()
	return dropped
}
