package internal

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Requestor is the result sink driving a search. AcceptMatch receives a
// reused accessor; copy out anything to be retained.
type Requestor interface {
	// AcceptFile is asked before a file is opened; false skips the file
	// entirely.
	AcceptFile(f *File) bool
	// AcceptMatch reports one located match; false stops scanning the
	// current file.
	AcceptMatch(m *MatchAccess) bool
	// ReportBinaryFile is asked once for a file classified as binary; true
	// scans it anyway.
	ReportBinaryFile(f *File) bool
	// CanRunInParallel permits concurrent AcceptMatch calls from multiple
	// workers.
	CanRunInParallel() bool
	BeginReporting()
	EndReporting()
}

// BaseRequestor carries the default sink behavior: accept every file and
// match, skip binary content, run sequentially. Embed it and override what
// you need.
type BaseRequestor struct{}

func (BaseRequestor) AcceptFile(*File) bool         { return true }
func (BaseRequestor) AcceptMatch(*MatchAccess) bool { return true }
func (BaseRequestor) ReportBinaryFile(*File) bool   { return false }
func (BaseRequestor) CanRunInParallel() bool        { return false }
func (BaseRequestor) BeginReporting()               {}
func (BaseRequestor) EndReporting()                 {}

// LogRequestor is the CLI sink: logs every match, counts totals and
// optionally appends matched text to a single output file.
type LogRequestor struct {
	BaseRequestor

	Stats         *AppStats
	IncludeBinary bool
	SaveMatchesTo string

	mu sync.Mutex
}

func NewLogRequestor(stats *AppStats) *LogRequestor {
	return &LogRequestor{Stats: stats}
}

func (r *LogRequestor) BeginReporting() { r.Stats.Start() }

func (r *LogRequestor) AcceptMatch(m *MatchAccess) bool {
	r.Stats.Matches.Add(1)
	text, err := m.Text()
	if err != nil {
		logrus.WithError(err).WithField("file", m.File().String()).Warn("read match text")
		text = ""
	}
	logrus.WithFields(logrus.Fields{
		"file":   m.File().String(),
		"offset": m.Offset(),
		"length": m.Length(),
	}).Info("Match found")

	if r.SaveMatchesTo != "" && text != "" {
		r.mu.Lock()
		if f, err := os.OpenFile(r.SaveMatchesTo, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err == nil {
			if !strings.HasSuffix(text, "\n") {
				_, _ = io.WriteString(f, text+"\n")
			} else {
				_, _ = io.WriteString(f, text)
			}
			_ = f.Close()
		}
		r.mu.Unlock()
	}
	return true
}

func (r *LogRequestor) ReportBinaryFile(f *File) bool {
	r.Stats.BinaryFiles.Add(1)
	logrus.WithField("file", f.String()).Debug("binary file")
	return r.IncludeBinary
}

func (r *LogRequestor) CanRunInParallel() bool { return true }
