package internal

import "testing"

func TestMatchAccess(t *testing.T) {
	f := &File{Path: "a.txt"}
	var m MatchAccess
	m.initialize(f, 4, 6, NewStringSequence("one needle two"))

	if m.File() != f || m.Offset() != 4 || m.Length() != 6 {
		t.Errorf("accessor state: %v %d %d", m.File(), m.Offset(), m.Length())
	}
	if m.ContentLength() != 14 {
		t.Errorf("ContentLength = %d", m.ContentLength())
	}
	if text, err := m.Text(); err != nil || text != "needle" {
		t.Errorf("Text = %q, %v", text, err)
	}
	if c, err := m.ContentChar(0); err != nil || c != 'o' {
		t.Errorf("ContentChar(0) = %q, %v", c, err)
	}
	if s, err := m.Content(11, 3); err != nil || s != "two" {
		t.Errorf("Content(11,3) = %q, %v", s, err)
	}
	if _, err := m.Content(12, 10); err == nil {
		t.Error("out-of-bounds Content must fail")
	}

	// Reinitialization points the same accessor at another match.
	g := &File{Path: "b.txt"}
	m.initialize(g, 0, 3, NewStringSequence("foo bar"))
	if m.File() != g || m.Offset() != 0 {
		t.Error("reinitialized accessor kept stale state")
	}
	if text, _ := m.Text(); text != "foo" {
		t.Errorf("Text after reinit = %q", text)
	}
}
