package backup

import (
	"sort"
	"strings"

	"github.com/stratts/vaultbak/container"
	"github.com/stratts/vaultbak/manifest"
)

// load populates b from the archive at b.Path, which must already exist.
func (b *Backup) load() error {
	r, err := container.OpenRead(b.Path)
	if err != nil {
		return newError(ErrCodeIoError, "load", b.Path, err, "failed to open archive: %v", err)
	}
	defer func() { _ = r.Close() }()

	names, err := r.Names()
	if err != nil {
		return newError(ErrCodeCorruptArchive, "load", b.Path, err, "failed to list archive members: %v", err)
	}

	for _, name := range names {
		if !strings.HasPrefix(name, "versions/") || !strings.HasSuffix(name, "/version.json") {
			continue
		}
		data, err := r.Extract(name)
		if err != nil {
			return newError(ErrCodeCorruptArchive, "load", b.Path, err, "failed to read %s: %v", name, err)
		}
		vm, err := manifest.DecodeVersion(data)
		if err != nil {
			return newError(ErrCodeCorruptArchive, "load", b.Path, err, "malformed manifest %s: %v", name, err)
		}

		v := newVersion()
		v.ID = vm.ID
		v.Time = vm.Time
		v.Size = vm.Size
		v.SizeDelta = vm.SizeDelta
		for n, fr := range vm.Files {
			v.Files[n] = FileEntry{Name: n, Size: fr.Size, Mod: fr.Mod, Location: fr.Location}
		}
		b.Versions[v.ID] = v
	}

	infoData, err := r.Extract("info.json")
	if err != nil {
		return newError(ErrCodeCorruptArchive, "load", b.Path, err, "missing info.json: %v", err)
	}
	info, err := manifest.DecodeInfo(infoData)
	if err != nil {
		return newError(ErrCodeCorruptArchive, "load", b.Path, err, "malformed info.json: %v", err)
	}
	b.ID = info.ID
	b.Src = info.Src
	b.Include = info.Include
	b.Exclude = info.Exclude

	if err := b.validateLocations(); err != nil {
		return err
	}

	b.assignOrdinals()
	return nil
}

// validateLocations enforces invariant 1: every file entry's location must
// name a version present in the archive.
func (b *Backup) validateLocations() error {
	for _, v := range b.Versions {
		for _, f := range v.Files {
			if _, ok := b.Versions[f.Location]; !ok {
				return newError(ErrCodeCorruptArchive, "load", b.Path, nil,
					"version %s entry %s references unknown location %s", v.ID, f.Name, f.Location)
			}
		}
	}
	return nil
}

func (b *Backup) assignOrdinals() {
	sorted := b.sortedVersions()
	for i, v := range sorted {
		v.Num = i + 1
	}
	if len(sorted) > 0 {
		b.lastver = sorted[len(sorted)-1]
	} else {
		b.lastver = newVersion()
	}
}

// sortedVersions returns versions ordered oldest to newest by Time (which,
// per the archive's monotonicity invariant, agrees with sorting by id).
func (b *Backup) sortedVersions() []*Version {
	out := make([]*Version, 0, len(b.Versions))
	for _, v := range b.Versions {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out
}
