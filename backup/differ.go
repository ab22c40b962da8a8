package backup

import "github.com/stratts/vaultbak/scanner"

// diff compares the scanned candidates against the previous version's file
// set, reusing an entry unchanged (same size and modification time) and
// otherwise recording it as new, owned by curver.
//
// A reused entry keeps its original Location, so its bytes are never
// re-stored; a changed or brand-new entry is located at curver and counted
// toward both Size and SizeDelta.
func diff(curver *Version, previous map[string]FileEntry, candidates []scanner.Candidate) {
	for _, c := range candidates {
		mod := float64(c.ModTime.UnixNano()) / 1e9

		if prev, ok := previous[c.ArchiveName]; ok && prev.Size == c.Size && prev.Mod == mod {
			entry := prev
			entry.SourcePath = c.AbsPath
			curver.Files[c.ArchiveName] = entry
			curver.Size += entry.Size
			continue
		}

		entry := FileEntry{
			Name:       c.ArchiveName,
			Size:       c.Size,
			Mod:        mod,
			Location:   curver.ID,
			SourcePath: c.AbsPath,
		}
		curver.Files[c.ArchiveName] = entry
		curver.Size += entry.Size
		curver.SizeDelta += entry.Size
		curver.NewFiles++
	}
}
