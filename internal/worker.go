package internal

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// searchJob processes one contiguous slice of the sorted file list. It owns
// a reusable match accessor and the previous-location cache; neither is ever
// shared with another job.
type searchJob struct {
	engine    *Engine
	files     []*File
	overrides map[string]string

	matchAccess MatchAccess

	// Cache of the immediately preceding file's results. At most one char
	// sequence is held open at a time; it is released before being replaced
	// and when the slice finishes.
	prevLocation string
	prevSeq      CharSequence
	prevMatches  []span
}

func newSearchJob(e *Engine, files []*File, overrides map[string]string) *searchJob {
	return &searchJob{engine: e, files: files, overrides: overrides}
}

// run works through the slice. One file's failure never stops the slice;
// only the fatal flag or cancellation does, and both are only observed at
// file boundaries.
func (j *searchJob) run(ctx context.Context) *Status {
	st := &Status{}
	defer j.releasePrevious()
	for _, f := range j.files {
		if j.engine.fatal.Load() || ctx.Err() != nil {
			break
		}
		if ferr := j.processFile(ctx, f); ferr != nil {
			st.add(*ferr)
		}
	}
	return st
}

// processFile runs the per-file algorithm: sink acceptance, override-buffer
// scan, location-based replay, or acquire + binary check + scan. The
// progress pair is updated whatever the outcome.
func (j *searchJob) processFile(ctx context.Context, f *File) (ferr *FileError) {
	defer func() {
		if r := recover(); r != nil {
			// Pattern evaluation blew up; rescanning other files would
			// likely hit the same fault, so everything stops.
			j.engine.fatal.Store(true)
			ferr = &FileError{
				Severity: SeverityError,
				Path:     f.String(),
				Message:  "pattern too complex to evaluate",
				Err:      recoveredError(r),
			}
		}
		j.engine.progress.update(f)
	}()

	if !j.engine.requestor.AcceptFile(f) || j.engine.pattern.Empty() {
		return nil
	}

	if content, ok := j.overrides[f.Path]; ok && f.Archive == "" {
		// Live buffer content is unique per file, never cached or reused.
		_, err := j.locateMatches(ctx, f, NewStringSequence(content))
		return j.toFileError(f, err)
	}

	location := f.Location()
	if location != "" && location == j.prevLocation && len(j.prevMatches) > 0 {
		// Same on-disk location as the file just processed: replay its
		// matches against the cached sequence instead of rescanning.
		for _, s := range j.prevMatches {
			j.matchAccess.initialize(f, s.offset, s.length, j.prevSeq)
			if !j.engine.requestor.AcceptMatch(&j.matchAccess) {
				break
			}
		}
		return nil
	}

	j.releasePrevious()
	seq, err := j.engine.Provider.NewCharSequence(f)
	if err != nil {
		return j.toFileError(f, err)
	}
	j.prevSeq = seq
	j.prevLocation = ""
	j.prevMatches = nil

	binary, err := j.engine.hasBinaryContent(seq, f)
	if err != nil {
		return j.toFileError(f, err)
	}
	if binary && !j.engine.requestor.ReportBinaryFile(f) {
		j.prevLocation = location
		j.prevMatches = []span{}
		return nil
	}

	matches, err := j.locateMatches(ctx, f, seq)
	j.prevLocation = location
	j.prevMatches = matches
	return j.toFileError(f, err)
}

func (j *searchJob) releasePrevious() {
	if j.prevSeq == nil {
		return
	}
	if err := j.engine.Provider.Release(j.prevSeq); err != nil {
		logrus.WithError(err).Warn("release char sequence")
	}
	j.prevSeq = nil
	j.prevLocation = ""
	j.prevMatches = nil
}

// toFileError maps a per-file error to its recorded form, or to nil for the
// benign cases.
func (j *searchJob) toFileError(f *File, err error) *FileError {
	if err == nil {
		return nil
	}
	var unsupported *UnsupportedCharsetError
	if errors.As(err, &unsupported) {
		return &FileError{
			Severity: SeverityError,
			Path:     f.String(),
			Message:  unsupported.Error(),
			Err:      err,
		}
	}
	var conversion *CharConversionError
	if errors.As(err, &conversion) {
		return &FileError{
			Severity: SeverityError,
			Path:     f.String(),
			Message:  conversion.Error(),
			Err:      err,
		}
	}
	if benignlyMissing(err) && j.engine.opts.IgnoreMissing {
		// The file legitimately disappeared while the search was running.
		return nil
	}
	return &FileError{
		Severity: SeverityError,
		Path:     f.String(),
		Message:  "could not read file",
		Err:      err,
	}
}

func recoveredError(r interface{}) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("%v", r)
}
