package internal

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	// Content below this length is materialized into one string before
	// matching; most source files fit, and it is small enough to keep
	// per-worker memory bounded. Longer content is scanned in overlapping
	// windows of this size.
	maxBufferLength = 999_999

	// Overlap between consecutive scan windows. A match longer than this
	// may be missed when it straddles a window boundary.
	windowOverlap = 64 * 1024

	// Bounded prefix inspected by the binary heuristic.
	binaryProbeSize = 4096

	// Cancellation is polled every this many finds inside one file.
	cancelCheckEvery = 20
)

// span is one recorded match, kept per worker so a follow-up file at the
// same location can replay results without rescanning.
type span struct {
	offset int
	length int
}

// hasBinaryContent applies the binary heuristic: a declared text content
// type wins outright, otherwise only the probe window is inspected. A NUL
// byte or a conversion failure inside it means binary. Content shorter than
// the window is fine; the probe never forces bytes beyond the window.
func (e *Engine) hasBinaryContent(seq CharSequence, f *File) (bool, error) {
	if e.Detector != nil && e.Detector.IsText(f) {
		return false, nil
	}
	limit := seq.Len()
	if limit > binaryProbeSize {
		limit = binaryProbeSize
	}
	probe, err := seq.Sub(0, limit)
	if err != nil {
		var conv *CharConversionError
		if errors.As(err, &conv) {
			return true, nil
		}
		return false, err
	}
	return strings.IndexByte(probe, 0) >= 0, nil
}

// locateMatches finds all pattern occurrences in seq, reporting each one to
// the requestor through the worker's reusable accessor as it is found.
// Matches come back in ascending offset order; zero-length matches are
// dropped. The returned slice is never nil, so "scanned and found nothing"
// is distinguishable from "never scanned".
func (j *searchJob) locateMatches(ctx context.Context, f *File, seq CharSequence) ([]span, error) {
	spans := []span{}
	n := seq.Len()

	if n < maxBufferLength {
		content, err := seq.Sub(0, n)
		if err != nil {
			return spans, err
		}
		if len(content) != n {
			return spans, fmt.Errorf("%w: declared %d, materialized %d", ErrBrokenSequence, n, len(content))
		}
		finds := 0
		_, err = j.scanChunk(ctx, f, seq, content, 0, n, n, &finds, &spans)
		return spans, err
	}

	// Bounded-buffer scan: fixed-size windows that overlap so matches near
	// a boundary are picked up by the next window.
	finds := 0
	base := 0
	for {
		end := base + maxBufferLength
		if end > n {
			end = n
		}
		chunk, err := seq.Sub(base, end)
		if err != nil {
			return spans, err
		}
		cut := n
		if end < n {
			cut = end - windowOverlap
		}
		goOn, err := j.scanChunk(ctx, f, seq, chunk, base, cut, n, &finds, &spans)
		if err != nil || !goOn {
			return spans, err
		}
		if end == n {
			return spans, nil
		}
		base = cut
	}
}

// scanChunk matches inside one loaded window. Occurrences starting at or
// past cut belong to the next window and are left for it. Returns false when
// the requestor asked to stop or the search was cancelled mid-file.
func (j *searchJob) scanChunk(ctx context.Context, f *File, seq CharSequence, chunk string, base, cut, total int, finds *int, spans *[]span) (bool, error) {
	at := 0
	for {
		begin, end, ok := j.engine.pattern.FindNext(chunk, at)
		if !ok {
			return true, nil
		}
		abs := base + begin
		if abs >= cut && cut < total {
			return true, nil
		}
		if end > begin { // don't report 0-length matches
			j.matchAccess.initialize(f, abs, end-begin, seq)
			*spans = append(*spans, span{offset: abs, length: end - begin})
			if !j.engine.requestor.AcceptMatch(&j.matchAccess) {
				return false, nil // no further reporting requested
			}
		}
		at = end
		if end == begin {
			at++
		}
		*finds++
		if *finds%cancelCheckEvery == 0 && ctx.Err() != nil {
			return false, nil
		}
	}
}
