package internal

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// recordedMatch is a copied-out match; the live accessor must not be kept.
type recordedMatch struct {
	file   *File
	offset int
	length int
	text   string
}

// recordingSink collects everything the engine reports.
type recordingSink struct {
	BaseRequestor

	parallel      bool
	includeBinary bool
	stopAfter     int            // stop a file after this many matches (0 = never)
	rejectFiles   map[string]bool // paths AcceptFile refuses
	onMatch       func(*MatchAccess)

	mu          sync.Mutex
	matches     []recordedMatch
	accepted    []*File
	binaryCalls []*File
	began       int
	ended       int
}

func (s *recordingSink) AcceptFile(f *File) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rejectFiles[f.Path] {
		return false
	}
	s.accepted = append(s.accepted, f)
	return true
}

func (s *recordingSink) AcceptMatch(m *MatchAccess) bool {
	text, _ := m.Text()
	s.mu.Lock()
	s.matches = append(s.matches, recordedMatch{file: m.File(), offset: m.Offset(), length: m.Length(), text: text})
	n := 0
	for _, rm := range s.matches {
		if rm.file == m.File() {
			n++
		}
	}
	s.mu.Unlock()
	if s.onMatch != nil {
		s.onMatch(m)
	}
	return s.stopAfter == 0 || n < s.stopAfter
}

func (s *recordingSink) ReportBinaryFile(f *File) bool {
	s.mu.Lock()
	s.binaryCalls = append(s.binaryCalls, f)
	s.mu.Unlock()
	return s.includeBinary
}

func (s *recordingSink) CanRunInParallel() bool { return s.parallel }
func (s *recordingSink) BeginReporting()        { s.mu.Lock(); s.began++; s.mu.Unlock() }
func (s *recordingSink) EndReporting()          { s.mu.Lock(); s.ended++; s.mu.Unlock() }

func (s *recordingSink) matchesFor(f *File) []recordedMatch {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []recordedMatch
	for _, m := range s.matches {
		if m.file == f {
			out = append(out, m)
		}
	}
	return out
}

// countingProvider wraps another provider and counts acquisitions/releases.
type countingProvider struct {
	inner CharSequenceProvider

	mu       sync.Mutex
	acquired int
	released int
}

func (p *countingProvider) NewCharSequence(f *File) (CharSequence, error) {
	p.mu.Lock()
	p.acquired++
	p.mu.Unlock()
	return p.inner.NewCharSequence(f)
}

func (p *countingProvider) Release(seq CharSequence) error {
	p.mu.Lock()
	p.released++
	p.mu.Unlock()
	return p.inner.Release(seq)
}

// panicPattern blows up as soon as the content contains its trigger.
type panicPattern struct {
	inner   Pattern
	trigger string
}

func (p *panicPattern) FindNext(content string, start int) (int, int, bool) {
	for i := start; i+len(p.trigger) <= len(content); i++ {
		if content[i:i+len(p.trigger)] == p.trigger {
			panic("catastrophic backtracking")
		}
	}
	return p.inner.FindNext(content, start)
}

func (p *panicPattern) Empty() bool  { return false }
func (p *panicPattern) Desc() string { return "panic:" + p.trigger }

// lyingSequence declares a length its content does not have.
type lyingSequence struct {
	s           string
	declaredLen int
}

func (q *lyingSequence) Len() int { return q.declaredLen }
func (q *lyingSequence) Sub(start, end int) (string, error) {
	if end > len(q.s) {
		end = len(q.s)
	}
	if start > end {
		start = end
	}
	return q.s[start:end], nil
}

// recordingMonitor captures the progress contract.
type recordingMonitor struct {
	mu       sync.Mutex
	canceled bool
	task     string
	total    int
	worked   int
	subtasks []string
	done     int
}

func (m *recordingMonitor) BeginTask(name string, total int) {
	m.mu.Lock()
	m.task = name
	m.total = total
	m.mu.Unlock()
}

func (m *recordingMonitor) Worked(units int) {
	m.mu.Lock()
	m.worked += units
	m.mu.Unlock()
}

func (m *recordingMonitor) SubTask(msg string) {
	m.mu.Lock()
	m.subtasks = append(m.subtasks, msg)
	m.mu.Unlock()
}

func (m *recordingMonitor) IsCanceled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.canceled
}

func (m *recordingMonitor) Done() {
	m.mu.Lock()
	m.done++
	m.mu.Unlock()
}

func (m *recordingMonitor) cancel() {
	m.mu.Lock()
	m.canceled = true
	m.mu.Unlock()
}

func (m *recordingMonitor) totalWorked() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.worked
}

func mustPattern(t *testing.T, spec string) Pattern {
	t.Helper()
	p, err := CompilePattern(spec)
	if err != nil {
		t.Fatalf("compile pattern %q: %v", spec, err)
	}
	return p
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}
