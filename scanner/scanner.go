// Package scanner walks a source directory tree, applies include/exclude
// glob filters, and reports the candidate files a backup version should
// consider archiving.
package scanner

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/stratts/vaultbak/telemetry"
	"github.com/stratts/vaultbak/telemetry/metrics"
)

// Candidate is one file discovered under the source root.
type Candidate struct {
	// ArchiveName is the forward-slash, archive-relative path.
	ArchiveName string
	// AbsPath is the file's path on the local filesystem.
	AbsPath string
	Size     int64
	ModTime  time.Time
}

// Scanner walks a source tree, applying the fnmatch-style include/exclude
// filters described by Match.
type Scanner struct {
	logger          *zap.Logger
	telemetrySystem *telemetry.System
}

// New creates a Scanner. A nil logger disables warning logs; telemetry is
// initialized best-effort and silently disabled if unavailable.
func New(logger *zap.Logger) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := telemetry.DefaultConfig()
	cfg.Enabled = true
	telSys, _ := telemetry.NewSystem(cfg)

	return &Scanner{logger: logger, telemetrySystem: telSys}
}

// Scan walks root depth-first, normalizing include/exclude patterns to the
// host path separator, and returns every file that passes the filters.
// Unreadable entries are logged and skipped; a fully unreadable root is
// reported as an error.
func (s *Scanner) Scan(ctx context.Context, root string, include, exclude []string) ([]Candidate, error) {
	start := time.Now()
	var files int
	var pruned int
	var err error
	defer func() {
		s.emitMetrics(time.Since(start), files, pruned, err)
	}()

	includeN := normalizePatterns(include)
	excludeN := normalizePatterns(exclude)

	if _, statErr := os.Stat(root); statErr != nil {
		err = statErr
		return nil, err
	}

	var candidates []Candidate
	walkErr := s.walk(ctx, root, root, ".", includeN, excludeN, &candidates, &files, &pruned)
	if walkErr != nil {
		err = walkErr
		return nil, err
	}
	return candidates, nil
}

func normalizePatterns(patterns []string) []string {
	if len(patterns) == 0 {
		return nil
	}
	out := make([]string, len(patterns))
	for i, p := range patterns {
		out[i] = filepath.Clean(filepath.FromSlash(p))
	}
	return out
}

// walk visits dir (absolute path, with relative path rel from root),
// emitting file candidates and recursing into subdirectories that survive
// pruning. Subdirectory names are read into a slice up front and the
// prune set is computed before any recursion, rather than mutating the
// listing while iterating it.
func (s *Scanner) walk(ctx context.Context, root, dir, rel string, include, exclude []string, out *[]Candidate, files, pruned *int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	var subdirs []os.DirEntry
	var regularFiles []os.DirEntry
	for _, e := range entries {
		if e.IsDir() {
			subdirs = append(subdirs, e)
		} else {
			regularFiles = append(regularFiles, e)
		}
	}

	prune := make(map[string]bool, len(subdirs))
	for _, d := range subdirs {
		drel := filepath.Clean(filepath.Join(rel, d.Name()))
		if shouldPruneDir(drel, include, exclude) {
			prune[d.Name()] = true
		}
	}

	for _, f := range regularFiles {
		frel := filepath.Clean(filepath.Join(rel, f.Name()))
		info, infoErr := f.Info()
		if infoErr != nil {
			s.logger.Warn("skipping unreadable file", zap.String("path", filepath.Join(dir, f.Name())), zap.Error(infoErr))
			continue
		}
		if !shouldIncludeFile(frel, include, exclude) {
			continue
		}
		*files++
		// Archive-relative names are stored NFC-normalized so that the
		// same file reached via differently-decomposed Unicode paths
		// (common on macOS filesystems) still compares equal to the
		// previous version's manifest entry.
		*out = append(*out, Candidate{
			ArchiveName: norm.NFC.String(filepath.ToSlash(frel)),
			AbsPath:     filepath.Join(dir, f.Name()),
			Size:        info.Size(),
			ModTime:     info.ModTime(),
		})
	}

	for _, d := range subdirs {
		if prune[d.Name()] {
			*pruned++
			continue
		}
		childRel := filepath.Join(rel, d.Name())
		childDir := filepath.Join(dir, d.Name())
		if err := s.walk(ctx, root, childDir, childRel, include, exclude, out, files, pruned); err != nil {
			s.logger.Warn("skipping unreadable directory", zap.String("path", childDir), zap.Error(err))
		}
	}

	return nil
}

// shouldPruneDir decides whether to skip descending into the directory at
// drel (relative to the scan root, host separator).
func shouldPruneDir(drel string, include, exclude []string) bool {
	if len(include) > 0 {
		kept := false
		for _, pattern := range include {
			parentGlob := filepath.Join(filepath.Dir(pattern), "*")
			if strings.HasPrefix(pattern, drel) ||
				Match(parentGlob, drel) ||
				!strings.Contains(pattern, string(os.PathSeparator)) {
				kept = true
				break
			}
		}
		if !kept {
			return true
		}
	}
	if len(exclude) > 0 && anyMatch(exclude, drel) {
		return true
	}
	return false
}

// shouldIncludeFile decides whether the file at frel (relative to the scan
// root, host separator) passes the include/exclude filters.
func shouldIncludeFile(frel string, include, exclude []string) bool {
	if len(include) > 0 && !anyMatch(include, frel) {
		return false
	}
	if len(exclude) > 0 && anyMatch(exclude, frel) {
		return false
	}
	return true
}

func (s *Scanner) emitMetrics(duration time.Duration, files, pruned int, err error) {
	if s.telemetrySystem == nil {
		return
	}
	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusError
	}
	tags := map[string]string{metrics.TagStatus: status}
	_ = s.telemetrySystem.Histogram(metrics.ScannerWalkMs, duration, tags)
	_ = s.telemetrySystem.Counter(metrics.ScannerFilesVisited, float64(files), tags)
	_ = s.telemetrySystem.Counter(metrics.ScannerDirsPruned, float64(pruned), tags)
}
