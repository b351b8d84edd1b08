package internal

// MatchAccess is a reusable view of one located match. The engine owns one
// instance per worker and reinitializes it for every reported match, so a
// Requestor that wants to keep anything past the AcceptMatch call must copy
// the values out; the accessor itself is invalid once the callback returns.
type MatchAccess struct {
	file    *File
	offset  int
	length  int
	content CharSequence
}

func (m *MatchAccess) initialize(file *File, offset, length int, content CharSequence) {
	m.file = file
	m.offset = offset
	m.length = length
	m.content = content
}

// File returns the file owning the match.
func (m *MatchAccess) File() *File { return m.file }

// Offset is the byte offset of the match in the file's character content.
func (m *MatchAccess) Offset() int { return m.offset }

// Length is the match length in bytes.
func (m *MatchAccess) Length() int { return m.length }

// ContentLength is the total length of the file's character content.
func (m *MatchAccess) ContentLength() int { return m.content.Len() }

// ContentChar returns the single byte at offset in the file content.
func (m *MatchAccess) ContentChar(offset int) (byte, error) {
	s, err := m.content.Sub(offset, offset+1)
	if err != nil {
		return 0, err
	}
	return s[0], nil
}

// Content returns a copy of the file content slice [offset, offset+length).
func (m *MatchAccess) Content(offset, length int) (string, error) {
	return m.content.Sub(offset, offset+length)
}

// Text returns a copy of the matched text itself.
func (m *MatchAccess) Text() (string, error) {
	return m.content.Sub(m.offset, m.offset+m.length)
}
