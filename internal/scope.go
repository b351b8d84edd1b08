package internal

import (
	"context"
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/mholt/archives"
	"github.com/sirupsen/logrus"
)

const maxArchiveFiles = 10000 // zip-bomb protection

var errArchiveLimit = errors.New("archive file limit reached")

// IsArchive by extension. O(1) map lookup
var archiveExt = map[string]struct{}{
	".zip": {}, ".tar": {}, ".gz": {}, ".bz2": {}, ".xz": {},
	".rar": {}, ".br": {}, ".lz4": {}, ".lz": {}, ".mz": {},
	".sz": {}, ".s2": {}, ".zz": {}, ".zst": {}, ".7z": {},
}

func IsArchive(path string) bool {
	_, ok := archiveExt[strings.ToLower(filepath.Ext(path))]
	return ok
}

// FileSet is the default scope: directory roots filtered by doublestar
// include/exclude globs (matched against root-relative slash paths), an
// optional depth limit, and optional archive expansion.
type FileSet struct {
	Roots    []string
	Include  []string
	Exclude  []string
	Depth    int // 0 - unlimited
	Archives bool
}

// Validate checks the glob patterns up front.
func (s *FileSet) Validate() error {
	for _, p := range append(append([]string{}, s.Include...), s.Exclude...) {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid glob pattern %q", p)
		}
	}
	if len(s.Roots) == 0 {
		return errors.New("at least one root is required")
	}
	return nil
}

// Resolve walks the roots and returns the files in scope. Walk failures are
// collected as warnings and never abort resolution.
func (s *FileSet) Resolve(ctx context.Context) ([]*File, []FileError) {
	var files []*File
	var errs []FileError
	for _, root := range s.Roots {
		if ctx.Err() != nil {
			break
		}
		err := walkWithDepth(ctx, root, s.Depth, func(path string, d os.DirEntry, err error) error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err != nil {
				errs = append(errs, FileError{Severity: SeverityWarning, Path: path, Message: "cannot walk", Err: err})
				return nil
			}
			if d.IsDir() {
				return nil
			}
			rel := relSlash(root, path)
			if !s.selects(rel) {
				return nil
			}
			if s.Archives && IsArchive(path) {
				members, merrs := s.resolveArchive(ctx, path)
				files = append(files, members...)
				errs = append(errs, merrs...)
				return nil
			}
			files = append(files, &File{Path: path})
			return nil
		})
		if err != nil && ctx.Err() == nil {
			errs = append(errs, FileError{Severity: SeverityWarning, Path: root, Message: "cannot walk", Err: err})
		}
	}
	return files, errs
}

func (s *FileSet) selects(rel string) bool {
	if len(s.Include) > 0 {
		included := false
		for _, p := range s.Include {
			if doublestar.MatchUnvalidated(p, rel) {
				included = true
				break
			}
		}
		if !included {
			return false
		}
	}
	for _, p := range s.Exclude {
		if doublestar.MatchUnvalidated(p, rel) {
			return false
		}
	}
	return true
}

// resolveArchive lists an archive's members as searchable files.
func (s *FileSet) resolveArchive(ctx context.Context, path string) ([]*File, []FileError) {
	fsys, err := archives.FileSystem(ctx, path, nil)
	if err != nil {
		return nil, []FileError{{Severity: SeverityWarning, Path: path, Message: "cannot open archive", Err: err}}
	}
	if closer, ok := fsys.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	var members []*File
	count := 0
	walkErr := iofs.WalkDir(fsys, ".", func(inner string, d iofs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil || d.IsDir() {
			return nil
		}
		if count >= maxArchiveFiles {
			return errArchiveLimit
		}
		if !s.selects(inner) {
			return nil
		}
		members = append(members, &File{Path: path, Archive: path, Inner: inner})
		count++
		return nil
	})
	if errors.Is(walkErr, errArchiveLimit) {
		logrus.Warnf("Archive %s truncated: too many files (>= %d)", path, maxArchiveFiles)
		return members, []FileError{{
			Severity: SeverityWarning,
			Path:     path,
			Message:  "archive truncated",
			Err:      walkErr,
		}}
	}
	return members, nil
}

// walkWithDepth uses WalkDir and cuts branches by depth.
func walkWithDepth(ctx context.Context, root string, maxDepth int, fn func(path string, d os.DirEntry, err error) error) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			return fn(path, d, err)
		}
		if maxDepth > 0 {
			rel, _ := filepath.Rel(root, path)
			if rel != "." && depthCount(rel) > maxDepth {
				return filepath.SkipDir
			}
		}
		return fn(path, d, nil)
	})
}

func depthCount(rel string) int {
	if rel == "" {
		return 0
	}
	return strings.Count(rel, string(os.PathSeparator)) + 1
}

func relSlash(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	return filepath.ToSlash(rel)
}
