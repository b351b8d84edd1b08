package internal

import "fmt"

// StatusCode is the overall disposition of one search run.
type StatusCode int

const (
	StatusOK StatusCode = iota
	StatusError
	StatusCanceled
)

func (c StatusCode) String() string {
	switch c {
	case StatusOK:
		return "ok"
	case StatusError:
		return "error"
	case StatusCanceled:
		return "canceled"
	}
	return fmt.Sprintf("StatusCode(%d)", int(c))
}

// Severity of a single per-file record.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

// FileError is one file's recorded failure. Files that scan cleanly leave no
// record at all.
type FileError struct {
	Severity Severity
	Path     string
	Message  string
	Err      error // optional cause
}

func (e *FileError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return e.Message + ": " + e.Path
}

func (e *FileError) Unwrap() error { return e.Err }

// Status aggregates per-file failures plus the overall outcome of a search.
// Matches are not carried here, they went to the Requestor as they were
// found. Once returned by the engine a Status is not modified.
type Status struct {
	Code    StatusCode
	Entries []FileError
}

func (s *Status) add(e FileError) {
	s.Entries = append(s.Entries, e)
}

// OK reports a clean, uncanceled run with no recorded failures.
func (s *Status) OK() bool {
	return s.Code == StatusOK && len(s.Entries) == 0
}

func (s *Status) hasErrors() bool {
	for i := range s.Entries {
		if s.Entries[i].Severity == SeverityError {
			return true
		}
	}
	return false
}
