package backup

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/stratts/vaultbak/container"
	"github.com/stratts/vaultbak/manifest"
	"github.com/stratts/vaultbak/telemetry"
	"github.com/stratts/vaultbak/telemetry/metrics"
)

// storedUncompressed holds the file extensions written into a data bundle
// without deflate compression, because they are already compressed formats
// and re-compressing them only costs CPU.
var storedUncompressed = map[string]bool{
	".png": true,
	".jpg": true,
	".zip": true,
}

// Save commits the version staged by Build to the archive on disk. If no
// file in the staged version is owned by it (every file was reused from an
// earlier version, including the degenerate case of an unchanged source
// tree), Save leaves the archive untouched and returns an EmptyBuild error.
func (b *Backup) Save() error {
	start := time.Now()
	var err error
	defer func() { b.emitOperationMetric(metrics.OpBuild, time.Since(start), err) }()

	if b.curver == nil {
		err = newError(ErrCodeEmptyBuild, "save", b.Path, nil, "Build was not called")
		return err
	}
	curver := b.curver

	owned := ownedEntries(curver)
	if len(owned) == 0 {
		err = newError(ErrCodeEmptyBuild, "save", b.Path, nil, "no new or changed files to store")
		return err
	}

	bundlePath, bundleSize, bundleErr := writeDataBundle(owned)
	if bundleErr != nil {
		err = newError(ErrCodeIoError, "save", b.Path, bundleErr, "failed to build data bundle: %v", bundleErr)
		return err
	}
	defer func() { _ = os.Remove(bundlePath) }()

	versionJSON, encErr := manifest.EncodeVersion(toManifestVersion(curver))
	if encErr != nil {
		err = newError(ErrCodeIoError, "save", b.Path, encErr, "failed to encode version manifest: %v", encErr)
		return err
	}

	var infoJSON []byte
	writeInfo := b.ID == nil
	if writeInfo {
		id := curver.ID
		b.ID = &id
		infoJSON, err = manifest.EncodeInfo(manifest.Info{ID: b.ID, Src: b.Src, Include: b.Include, Exclude: b.Exclude})
		if err != nil {
			err = newError(ErrCodeIoError, "save", b.Path, err, "failed to encode info record: %v", err)
			return err
		}
	}

	w, openErr := container.OpenAppend(b.Path)
	if openErr != nil {
		err = newError(ErrCodeIoError, "save", b.Path, openErr, "failed to open archive for append: %v", openErr)
		return err
	}

	now := time.Unix(curver.Time, 0)
	bundleFile, openBundleErr := os.Open(bundlePath)
	if openBundleErr != nil {
		_ = w.Close()
		err = newError(ErrCodeIoError, "save", b.Path, openBundleErr, "failed to reopen data bundle: %v", openBundleErr)
		return err
	}
	defer func() { _ = bundleFile.Close() }()

	if err = w.WriteStream(curver.dataMember(), bundleFile, bundleSize, now); err != nil {
		_ = w.Close()
		err = newError(ErrCodeIoError, "save", b.Path, err, "failed to write data bundle: %v", err)
		return err
	}

	// info.json is only ever written once, by the first save of a new
	// archive; subsequent builds with different include/exclude filters
	// do not update it.
	if writeInfo {
		if err = w.WriteBytes("info.json", infoJSON, now); err != nil {
			_ = w.Close()
			err = newError(ErrCodeIoError, "save", b.Path, err, "failed to write info record: %v", err)
			return err
		}
	}

	if err = w.WriteBytes(curver.infoMember(), versionJSON, now); err != nil {
		_ = w.Close()
		err = newError(ErrCodeIoError, "save", b.Path, err, "failed to write version manifest: %v", err)
		return err
	}

	if err = w.Close(); err != nil {
		err = newError(ErrCodeIoError, "save", b.Path, err, "failed to finalize archive: %v", err)
		return err
	}

	curver.Num = b.lastver.Num + 1
	b.Versions[curver.ID] = curver
	b.lastver = curver
	b.curver = nil

	telemetry.EmitCounter(metrics.BackupBuildFilesOwnedTotal, float64(len(owned)), nil)
	telemetry.EmitCounter(metrics.BackupBuildFilesSharedTotal, float64(len(curver.Files)-len(owned)), nil)
	telemetry.EmitCounter(metrics.BackupBuildBytesWrittenTotal, float64(bundleSize), nil)
	return nil
}

// ownedEntries returns the file entries that curver itself owns, i.e. the
// files physically stored in curver's own data bundle.
func ownedEntries(curver *Version) []FileEntry {
	var owned []FileEntry
	for _, f := range curver.Files {
		if f.Location == curver.ID {
			owned = append(owned, f)
		}
	}
	return owned
}

func toManifestVersion(v *Version) manifest.Version {
	files := make(map[string]manifest.FileRecord, len(v.Files))
	for name, f := range v.Files {
		files[name] = manifest.FileRecord{Mod: f.Mod, Size: f.Size, Location: f.Location}
	}
	return manifest.Version{ID: v.ID, Time: v.Time, Size: v.Size, SizeDelta: v.SizeDelta, Files: files}
}

// writeDataBundle streams owned into a deflate-compressed zip archive
// spooled to a temporary file (rather than memory, since a version's owned
// set can be arbitrarily large), returning its path and final size. The
// caller is responsible for removing the file.
func writeDataBundle(owned []FileEntry) (path string, size int64, err error) {
	tmp, err := os.CreateTemp("", "vaultbak-bundle-*.zip")
	if err != nil {
		return "", 0, err
	}
	defer func() { _ = tmp.Close() }()

	zw := zip.NewWriter(tmp)
	for _, f := range owned {
		if werr := addBundleEntry(zw, f); werr != nil {
			_ = zw.Close()
			_ = os.Remove(tmp.Name())
			return "", 0, fmt.Errorf("adding %s: %w", f.Name, werr)
		}
	}
	if err := zw.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", 0, err
	}

	info, err := tmp.Stat()
	if err != nil {
		_ = os.Remove(tmp.Name())
		return "", 0, err
	}
	return tmp.Name(), info.Size(), nil
}

func addBundleEntry(zw *zip.Writer, f FileEntry) error {
	src, err := os.Open(f.SourcePath)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	hdr := &zip.FileHeader{
		Name:   f.Name,
		Method: zip.Deflate,
	}
	hdr.Modified = time.Unix(int64(f.Mod), 0)
	if storedUncompressed[strings.ToLower(filepath.Ext(f.Name))] {
		hdr.Method = zip.Store
	}

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}
