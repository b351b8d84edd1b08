package internal

import (
	"errors"
	"runtime"
)

const (
	defaultFilesPerJob = 50
	defaultMaxJobs     = 100
)

// SearchOptions tunes one search run.
type SearchOptions struct {
	// Threads caps parallel workers. Used only when the Requestor declares
	// itself parallel-safe; 0 means one worker per logical CPU.
	Threads int
	// FilesPerJob is the target slice size when partitioning the sorted
	// file list. 0 means 50.
	FilesPerJob int
	// MaxJobs bounds the number of work units regardless of file count, to
	// keep scheduling overhead flat for huge file sets. 0 means 100. When
	// the cap bites, each unit's slice grows proportionally.
	MaxJobs int
	// IgnoreMissing treats files that vanished between scope resolution and
	// scanning as benign instead of recording a failure.
	IgnoreMissing bool
	// TraceTiming logs files/jobs/threads/duration at debug level when the
	// search completes.
	TraceTiming bool
}

// Validate checks invariants.
func (o *SearchOptions) Validate() error {
	if o.Threads < 0 {
		return errors.New("threads must not be negative")
	}
	if o.FilesPerJob < 0 || o.MaxJobs < 0 {
		return errors.New("partitioning limits must not be negative")
	}
	return nil
}

// Prepare fills in defaults.
func (o *SearchOptions) Prepare() {
	if o.Threads <= 0 {
		o.Threads = runtime.NumCPU()
	}
	if o.FilesPerJob <= 0 {
		o.FilesPerJob = defaultFilesPerJob
	}
	if o.MaxJobs <= 0 {
		o.MaxJobs = defaultMaxJobs
	}
}
