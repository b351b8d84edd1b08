package internal

import (
	"path"
	"path/filepath"
	"sort"
	"sync"
)

// File is one searchable unit handed to the engine. Plain disk files carry
// only Path; members of an archive additionally carry the archive path and
// the member path inside it.
type File struct {
	Path    string
	Archive string
	Inner   string

	locOnce sync.Once
	loc     string
}

// Name returns the display name: the base name of the member for archive
// entries, otherwise the base name of the path.
func (f *File) Name() string {
	if f.Inner != "" {
		return path.Base(f.Inner)
	}
	return filepath.Base(f.Path)
}

func (f *File) String() string {
	if f.Inner != "" {
		return f.Archive + "!" + f.Inner
	}
	return f.Path
}

// Location returns the canonical on-disk location the file refers to, or ""
// when it cannot be resolved. Resolution goes through the OS (absolute path
// plus symlink evaluation), so the result is computed once and cached for
// the duration of the search. Two handles with equal non-empty locations
// point at the same content.
func (f *File) Location() string {
	f.locOnce.Do(func() {
		p := f.Path
		if f.Archive != "" {
			p = f.Archive
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return
		}
		resolved, err := filepath.EvalSymlinks(abs)
		if err != nil {
			return
		}
		if f.Inner != "" {
			f.loc = resolved + "::" + f.Inner
		} else {
			f.loc = resolved
		}
	})
	return f.loc
}

// sortFilesByLocation returns a copy of files ordered by resolved location,
// unresolvable (empty) locations first. Files sharing a location end up
// adjacent, which is what makes the per-worker result reuse effective.
func sortFilesByLocation(files []*File) []*File {
	sorted := make([]*File, len(files))
	copy(sorted, files)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Location() < sorted[j].Location()
	})
	return sorted
}
