package internal

import (
	"path/filepath"
	"strings"
)

// ContentTypeDetector classifies a file's declared content type. Files known
// to be text skip the byte-probe binary heuristic.
type ContentTypeDetector interface {
	IsText(f *File) bool
}

// Well-known text extensions. Anything else falls through to the probe.
var textExt = map[string]struct{}{
	".txt": {}, ".md": {}, ".log": {}, ".csv": {}, ".tsv": {},
	".json": {}, ".yaml": {}, ".yml": {}, ".toml": {}, ".xml": {},
	".html": {}, ".htm": {}, ".css": {}, ".js": {}, ".ts": {},
	".go": {}, ".py": {}, ".rb": {}, ".java": {}, ".c": {}, ".h": {},
	".cpp": {}, ".hpp": {}, ".rs": {}, ".sh": {}, ".sql": {},
	".ini": {}, ".cfg": {}, ".conf": {}, ".properties": {},
}

// ExtensionDetector classifies by file extension.
type ExtensionDetector struct{}

func (ExtensionDetector) IsText(f *File) bool {
	name := f.Path
	if f.Inner != "" {
		name = f.Inner
	}
	_, ok := textExt[strings.ToLower(filepath.Ext(name))]
	return ok
}
