package internal

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/sirupsen/logrus"
)

// Engine drives one pattern search across a set of files: it sorts by
// resolved location, partitions into slices, runs them on a bounded worker
// pool and aggregates per-file failures. Matches go to the Requestor as they
// are found; the returned Status only carries dispositions.
type Engine struct {
	// Collaborators, replaceable before Search is called.
	Provider CharSequenceProvider
	Detector ContentTypeDetector
	Buffers  BufferProvider

	pattern   Pattern
	requestor Requestor
	opts      SearchOptions

	progress scanProgress
	fatal    atomic.Bool
}

func NewEngine(pattern Pattern, requestor Requestor, opts SearchOptions) *Engine {
	opts.Prepare()
	return &Engine{
		Provider:  NewFileSequenceProvider(),
		Detector:  ExtensionDetector{},
		pattern:   pattern,
		requestor: requestor,
		opts:      opts,
	}
}

// SearchScope resolves the scope and searches the resulting files.
// Resolution failures come first in the returned entries.
func (e *Engine) SearchScope(ctx context.Context, scope *FileSet, monitor ProgressMonitor) *Status {
	files, resolveErrs := scope.Resolve(ctx)
	st := e.Search(ctx, files, monitor)
	if len(resolveErrs) > 0 {
		st.Entries = append(resolveErrs, st.Entries...)
		if st.Code == StatusOK && st.hasErrors() {
			st.Code = StatusError
		}
	}
	return st
}

// Search scans files for the engine's pattern and blocks until every worker
// has finished or the group was torn down. A single file's failure never
// stops the group; only caller cancellation (ctx or monitor) and the fatal
// flag do. The status code distinguishes cancellation from failure.
func (e *Engine) Search(ctx context.Context, files []*File, monitor ProgressMonitor) *Status {
	status := &Status{}
	if len(files) == 0 {
		return status
	}
	if monitor == nil {
		monitor = NullMonitor{}
	}
	e.fatal.Store(false)
	e.progress.reset()
	start := time.Now()

	n := len(files)
	maxThreads := 1
	if e.requestor.CanRunInParallel() {
		maxThreads = e.opts.Threads
	}
	jobCount := 1
	if maxThreads > 1 {
		jobCount = (n + e.opts.FilesPerJob - 1) / e.opts.FilesPerJob
	}
	// Too many slice references for huge file sets cost more than they
	// parallelize; past the cap each slice just grows.
	if jobCount > e.opts.MaxJobs {
		jobCount = e.opts.MaxJobs
	}

	monitor.BeginTask(e.taskName(), n)
	defer monitor.Done()
	e.requestor.BeginReporting()
	defer e.requestor.EndReporting()

	var overrides map[string]string
	if e.Buffers != nil {
		overrides = e.Buffers.OpenBuffers()
	}

	// Sorting by location lands same-location files next to each other,
	// inside one slice, where the worker's replay cache can catch them.
	sorted := sortFilesByLocation(files)
	filesPerJob := n / jobCount
	if filesPerJob < 1 {
		filesPerJob = 1
	}

	groupCtx, cancelGroup := context.WithCancel(ctx)
	defer cancelGroup()

	stop := make(chan struct{})
	reporterDone := make(chan struct{})
	go e.reportProgress(stop, reporterDone, cancelGroup, monitor, n)

	pool, err := ants.NewPool(maxThreads)
	if err != nil {
		close(stop)
		<-reporterDone
		status.Code = StatusError
		status.add(FileError{Severity: SeverityError, Message: "worker pool", Err: err})
		return status
	}
	defer pool.Release()

	var jobs []*searchJob
	for first := 0; first < n; first += filesPerJob {
		end := first + filesPerJob
		if end > n {
			end = n
		}
		jobs = append(jobs, newSearchJob(e, sorted[first:end], overrides))
	}

	partial := make([]*Status, len(jobs))
	var wg sync.WaitGroup
	for i, job := range jobs {
		i, job := i, job
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			partial[i] = job.run(groupCtx)
		}); err != nil {
			wg.Done()
			partial[i] = &Status{Entries: []FileError{{
				Severity: SeverityError,
				Message:  "submit work unit",
				Err:      err,
			}}}
		}
	}
	wg.Wait()
	close(stop)
	<-reporterDone

	// Merge in scheduling order. Units ran concurrently, so this is not
	// strict file order.
	for _, p := range partial {
		if p != nil {
			status.Entries = append(status.Entries, p.Entries...)
		}
	}
	switch {
	case ctx.Err() != nil || monitor.IsCanceled():
		status.Code = StatusCanceled
	case status.hasErrors():
		status.Code = StatusError
	}

	if e.opts.TraceTiming {
		_, scanned := e.progress.snapshot()
		logrus.Debugf("search: %d files in %d jobs using %d threads: %s",
			scanned, len(jobs), maxThreads, time.Since(start))
	}
	return status
}

func (e *Engine) taskName() string {
	if e.pattern.Empty() {
		return "file search"
	}
	return fmt.Sprintf("searching for %s", e.pattern.Desc())
}
