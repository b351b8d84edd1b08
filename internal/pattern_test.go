package internal

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCompilePattern_Plain(t *testing.T) {
	p := mustPattern(t, "abc")
	begin, end, ok := p.FindNext("123abc456", 0)
	if !ok || begin != 3 || end != 6 {
		t.Errorf("expected match [3,6), got [%d,%d) ok=%v", begin, end, ok)
	}
	if _, _, ok := p.FindNext("ABC", 0); ok {
		t.Error("plain pattern incorrectly matched different case")
	}
}

func TestCompilePattern_PlainEscapesMeta(t *testing.T) {
	p := mustPattern(t, "a.b")
	if _, _, ok := p.FindNext("aXb", 0); ok {
		t.Error("plain pattern dot must be literal")
	}
	if _, _, ok := p.FindNext("a.b", 0); !ok {
		t.Error("plain pattern failed to match literal dot")
	}
}

func TestCompilePattern_CaseInsensitive(t *testing.T) {
	p := mustPattern(t, "plain:i:bar")
	if _, _, ok := p.FindNext("XXXaBaRYYY", 0); !ok {
		t.Error("insensitive pattern failed to match different case")
	}
}

func TestCompilePattern_Regex(t *testing.T) {
	p := mustPattern(t, "re:foo.*bar")
	begin, end, ok := p.FindNext("xxxfooqwertybarzzz", 0)
	if !ok || begin != 3 || end != 15 {
		t.Errorf("expected match [3,15), got [%d,%d) ok=%v", begin, end, ok)
	}
}

func TestCompilePattern_InvalidRegex(t *testing.T) {
	if _, err := CompilePattern("re:["); err == nil {
		t.Error("expected error for invalid regex")
	}
}

func TestFindNext_AdvancesFromStart(t *testing.T) {
	p := mustPattern(t, "aa")
	begin, end, ok := p.FindNext("aa..aa", 2)
	if !ok || begin != 4 || end != 6 {
		t.Errorf("expected match [4,6), got [%d,%d) ok=%v", begin, end, ok)
	}
	if _, _, ok := p.FindNext("aa", 3); ok {
		t.Error("start past content must not match")
	}
}

func TestPattern_Empty(t *testing.T) {
	p := mustPattern(t, "")
	if !p.Empty() {
		t.Error("empty spec must yield an empty pattern")
	}
	if mustPattern(t, "x").Empty() {
		t.Error("non-empty spec must not be empty")
	}
}

func TestLoadPatternFile(t *testing.T) {
	content := "# comment\nre:abc[0-9]+\nfoo\nplain:i:BAR\n\n"
	path := filepath.Join(t.TempDir(), "patterns")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	p, err := LoadPatternFile(path)
	if err != nil {
		t.Fatalf("LoadPatternFile returned error: %v", err)
	}
	for _, s := range []string{"abc42", "xfoox", "some bAr here"} {
		if _, _, ok := p.FindNext(s, 0); !ok {
			t.Errorf("combined pattern did not match %q", s)
		}
	}
	if _, _, ok := p.FindNext("nothing here", 0); ok {
		t.Error("combined pattern matched unrelated content")
	}
}

func TestLoadPatternFile_FileNotExist(t *testing.T) {
	if _, err := LoadPatternFile("doesnotexist_12345.txt"); err == nil {
		t.Error("expected error for missing file, got nil")
	}
}

func TestLoadPatternFile_InvalidRegex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patterns")
	if err := os.WriteFile(path, []byte("re:[\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadPatternFile(path); err == nil {
		t.Error("expected error for invalid regex line")
	}
}
