// Package backup implements the incremental versioning core: a Backup
// archive holds a sequence of BackupVersions, each of which records, per
// file, which version's data bundle physically stores that file's bytes.
// Unchanged files are never re-stored; they are simply referenced from
// whichever earlier version still owns them.
package backup

import (
	"time"

	"github.com/stratts/vaultbak/container"
)

// idLayout is the Go reference-time layout for version identifiers:
// YYYY-MM-DD-HHMMSS in local time.
const idLayout = "2006-01-02-150405"

// FileEntry is one file tracked by a version, either newly stored by that
// version or carried forward (reused) from an earlier one.
type FileEntry struct {
	// Name is the archive-relative, forward-slash path.
	Name string
	// Size in bytes.
	Size int64
	// Mod is the modification time as fractional Unix seconds.
	Mod float64
	// Location is the id of the version whose data bundle holds this
	// file's bytes.
	Location string
	// SourcePath is the absolute filesystem path this entry was scanned
	// from. Only populated for entries belonging to the in-memory
	// working version; never persisted.
	SourcePath string
}

// Version is one snapshot of the source tree.
type Version struct {
	ID   string
	Time int64
	// Num is the 1-based ordinal by ascending Time, assigned on load.
	Num       int
	Size      int64
	SizeDelta int64
	Files     map[string]FileEntry
	// NewFiles counts entries first introduced by this version. Only
	// meaningful for the in-memory working version during build.
	NewFiles int
}

func newVersion() *Version {
	return &Version{Files: make(map[string]FileEntry)}
}

// infoMember returns the archive member name of this version's manifest.
func (v *Version) infoMember() string {
	return "versions/" + v.ID + "/version.json"
}

// dataMember returns the archive member name of this version's data bundle.
func (v *Version) dataMember() string {
	return "versions/" + v.ID + "/data.zip"
}

// Backup is the archive root: its persistent identity, source location,
// traversal filters, and the set of committed versions.
type Backup struct {
	ID      *string
	Src     string
	Include []string
	Exclude []string

	// Path is the archive's location on disk.
	Path string

	// Versions is keyed by version id.
	Versions map[string]*Version

	// lastver is the newest committed version, or a zero-value
	// placeholder (Time == 0) when the archive is empty.
	lastver *Version

	// curver is the in-memory working version populated by Build and
	// committed by Save. Nil until Build is called.
	curver *Version
}

// Open loads an existing archive at path, or returns an empty Backup ready
// for its first Build+Save if no file exists yet there.
func Open(path string) (*Backup, error) {
	b := &Backup{
		Path:     path,
		Versions: make(map[string]*Version),
		lastver:  newVersion(),
	}
	if !container.Exists(path) {
		return b, nil
	}
	if err := b.load(); err != nil {
		return nil, err
	}
	return b, nil
}

// newVersionTime returns a build timestamp strictly greater than the
// current newest version's, bumping by one second when the wall clock
// has not advanced since the last build (the monotonic fallback that
// keeps version ids distinct and ordering strict).
func (b *Backup) newVersionTime(now time.Time) int64 {
	t := now.Unix()
	if t <= b.lastver.Time {
		t = b.lastver.Time + 1
	}
	return t
}

func versionID(t int64) string {
	return time.Unix(t, 0).Local().Format(idLayout)
}
