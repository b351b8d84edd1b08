package internal

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-runewidth"
)

const progressInterval = 100 * time.Millisecond

// ProgressMonitor receives the progress contract of one search: a monotonic
// worked-units signal (one unit per fully processed file) and a textual
// status line. IsCanceled lets the caller request cancellation; the engine
// polls it once per tick.
type ProgressMonitor interface {
	BeginTask(name string, totalUnits int)
	Worked(units int)
	SubTask(message string)
	IsCanceled() bool
	Done()
}

// NullMonitor ignores everything.
type NullMonitor struct{}

func (NullMonitor) BeginTask(string, int) {}
func (NullMonitor) Worked(int)            {}
func (NullMonitor) SubTask(string)        {}
func (NullMonitor) IsCanceled() bool      { return false }
func (NullMonitor) Done()                 {}

// scanProgress is the shared scan bookkeeping. Both fields are guarded by
// one mutex so a reader sees a consistent pair; the current file is a
// display hint only and may lag behind concurrent writers.
type scanProgress struct {
	mu      sync.Mutex
	current *File
	scanned int
}

func (p *scanProgress) reset() {
	p.mu.Lock()
	p.current = nil
	p.scanned = 0
	p.mu.Unlock()
}

func (p *scanProgress) update(f *File) {
	p.mu.Lock()
	p.current = f
	p.scanned++
	p.mu.Unlock()
}

func (p *scanProgress) snapshot() (*File, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current, p.scanned
}

// reportProgress is the engine's one background reporter. Every tick it
// either propagates monitor cancellation into the worker group or turns the
// scanned-count delta into worked units plus a status line. The stop channel
// belongs to the engine run; closing it is not a search cancellation, and
// the final delta is still flushed on the way out.
func (e *Engine) reportProgress(stop <-chan struct{}, done chan<- struct{}, cancelGroup context.CancelFunc, monitor ProgressMonitor, total int) {
	defer close(done)
	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	last := 0
	flush := func() {
		f, scanned := e.progress.snapshot()
		if f != nil {
			monitor.SubTask(fmt.Sprintf("scanning %s (%d/%d)", f.Name(), scanned, total))
		}
		if d := scanned - last; d > 0 {
			monitor.Worked(d)
			last = scanned
		}
	}

	for {
		select {
		case <-stop:
			flush()
			return
		case <-ticker.C:
			if monitor.IsCanceled() {
				cancelGroup()
				return
			}
			flush()
		}
	}
}

// TerminalMonitor renders progress as a single rewritten line. Lines are
// truncated to Width terminal cells.
type TerminalMonitor struct {
	Out   io.Writer
	Width int

	total  int
	worked int
}

func NewTerminalMonitor() *TerminalMonitor {
	return &TerminalMonitor{Out: os.Stderr, Width: 100}
}

func (m *TerminalMonitor) BeginTask(name string, totalUnits int) {
	m.total = totalUnits
	fmt.Fprintf(m.Out, "%s: %d files\n", name, totalUnits)
}

func (m *TerminalMonitor) Worked(units int) { m.worked += units }

func (m *TerminalMonitor) SubTask(message string) {
	fmt.Fprintf(m.Out, "\r\033[K%s", runewidth.Truncate(message, m.Width, "…"))
}

func (m *TerminalMonitor) IsCanceled() bool { return false }

func (m *TerminalMonitor) Done() {
	fmt.Fprint(m.Out, "\r\033[K")
}

// ShowProgress reports whether a rewritten progress line makes sense for the
// attached stdout/stderr.
func ShowProgress() bool {
	return isTTY(os.Stdout) && isTTY(os.Stderr)
}

func isTTY(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
