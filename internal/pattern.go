package internal

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
)

// Pattern locates occurrences inside already-loaded content. Implementations
// may panic on pathologically expensive input; the scanner recovers from
// that and aborts the whole search (see fatal flag handling in worker.go).
type Pattern interface {
	// FindNext reports the next occurrence at or after start, as half-open
	// [begin, end) offsets into content.
	FindNext(content string, start int) (begin, end int, ok bool)
	// Empty reports a pattern that matches nothing. The engine still asks
	// file acceptance for empty patterns but never reads content.
	Empty() bool
	Desc() string // for logs and task labels
}

// RegexPattern wraps a compiled regexp.
type RegexPattern struct{ re *regexp.Regexp }

func NewRegexPattern(re *regexp.Regexp) *RegexPattern { return &RegexPattern{re: re} }

func (p *RegexPattern) FindNext(content string, start int) (int, int, bool) {
	if start > len(content) {
		return 0, 0, false
	}
	loc := p.re.FindStringIndex(content[start:])
	if loc == nil {
		return 0, 0, false
	}
	return start + loc[0], start + loc[1], true
}

func (p *RegexPattern) Empty() bool  { return p.re.String() == "" }
func (p *RegexPattern) Desc() string { return p.re.String() }

// CompilePattern builds a Pattern from one spec line:
//
//	foo            plain substring
//	plain:i:bar    case-insensitive substring
//	re:^user=\w+$  regular expression
func CompilePattern(spec string) (Pattern, error) {
	var expr string
	switch {
	case strings.HasPrefix(spec, "re:"):
		expr = spec[3:]
	case strings.HasPrefix(spec, "plain:i:"):
		expr = "(?i)" + regexp.QuoteMeta(spec[8:])
	default:
		expr = regexp.QuoteMeta(spec)
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", spec, err)
	}
	return NewRegexPattern(re), nil
}

// LoadPatternFile reads pattern specs (one per line, # comments allowed) and
// combines them into a single alternation. An empty file yields an empty
// pattern.
func LoadPatternFile(path string) (Pattern, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var exprs []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		switch {
		case strings.HasPrefix(line, "re:"):
			if _, err := regexp.Compile(line[3:]); err != nil {
				return nil, fmt.Errorf("invalid regex %q: %w", line, err)
			}
			exprs = append(exprs, "(?:"+line[3:]+")")
		case strings.HasPrefix(line, "plain:i:"):
			exprs = append(exprs, "(?i:"+regexp.QuoteMeta(line[8:])+")")
		default:
			exprs = append(exprs, regexp.QuoteMeta(line))
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	logrus.Debugf("Loaded %d patterns", len(exprs))
	re, err := regexp.Compile(strings.Join(exprs, "|"))
	if err != nil {
		return nil, fmt.Errorf("combining patterns: %w", err)
	}
	return NewRegexPattern(re), nil
}
