package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"os"
	"strings"

	"github.com/mholt/archives"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
)

// CharSequence is a character-addressable view of one file's content. Len
// must not force reading the whole content for plain files; Sub returns a
// copy of the half-open range [start, end).
type CharSequence interface {
	Len() int
	Sub(start, end int) (string, error)
}

// CharSequenceProvider acquires and releases content views. Release must be
// called for every sequence handed out by NewCharSequence.
type CharSequenceProvider interface {
	NewCharSequence(f *File) (CharSequence, error)
	Release(seq CharSequence) error
}

// UnsupportedCharsetError reports a declared encoding the provider cannot
// resolve.
type UnsupportedCharsetError struct {
	Name string
	Err  error
}

func (e *UnsupportedCharsetError) Error() string {
	return fmt.Sprintf("unsupported character set %q", e.Name)
}

func (e *UnsupportedCharsetError) Unwrap() error { return e.Err }

// CharConversionError reports content that cannot be decoded with its
// declared encoding. The binary heuristic treats a conversion failure inside
// the probe window as binary content.
type CharConversionError struct {
	Name string
	Err  error
}

func (e *CharConversionError) Error() string {
	return fmt.Sprintf("cannot decode content as %q", e.Name)
}

func (e *CharConversionError) Unwrap() error { return e.Err }

// ErrBrokenSequence flags a CharSequence whose materialized content does not
// match its declared length.
var ErrBrokenSequence = errors.New("char sequence length mismatch")

const providerPageSize = 64 * 1024

// FileSequenceProvider is the default provider: plain files are served as
// page-cached byte sequences without loading the whole file, files with a
// declared non-UTF-8 encoding are decoded through x/text, and archive
// members are read out of their archive into memory.
type FileSequenceProvider struct {
	// EncodingFor reports the declared encoding name for a file; "" means
	// UTF-8/unspecified. Optional.
	EncodingFor func(f *File) string
}

func NewFileSequenceProvider() *FileSequenceProvider { return &FileSequenceProvider{} }

func (p *FileSequenceProvider) NewCharSequence(f *File) (CharSequence, error) {
	if f.Archive != "" {
		return p.newArchiveSequence(f)
	}

	name := ""
	if p.EncodingFor != nil {
		name = p.EncodingFor(f)
	}
	if isNativeEncoding(name) {
		return newFileSequence(f.Path)
	}

	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return nil, &UnsupportedCharsetError{Name: name, Err: err}
	}
	h, err := os.Open(f.Path)
	if err != nil {
		return nil, err
	}
	return &decodedSequence{f: h, enc: enc, name: name}, nil
}

func (p *FileSequenceProvider) Release(seq CharSequence) error {
	if c, ok := seq.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (p *FileSequenceProvider) newArchiveSequence(f *File) (CharSequence, error) {
	fsys, err := archives.FileSystem(context.Background(), f.Archive, nil)
	if err != nil {
		return nil, err
	}
	if closer, ok := fsys.(io.Closer); ok {
		defer closer.Close()
	}
	member, err := fsys.Open(f.Inner)
	if err != nil {
		return nil, err
	}
	defer member.Close()
	data, err := io.ReadAll(member)
	if err != nil {
		return nil, err
	}
	return NewStringSequence(string(data)), nil
}

func isNativeEncoding(name string) bool {
	switch strings.ToLower(name) {
	case "", "utf-8", "utf8", "us-ascii", "ascii":
		return true
	}
	return false
}

// stringSequence serves fully materialized content: override buffers,
// archive members and decoded files.
type stringSequence struct{ s string }

// NewStringSequence wraps in-memory content as a CharSequence.
func NewStringSequence(s string) CharSequence { return &stringSequence{s: s} }

func (q *stringSequence) Len() int { return len(q.s) }

func (q *stringSequence) Sub(start, end int) (string, error) {
	if start < 0 || end < start || end > len(q.s) {
		return "", fmt.Errorf("sub range [%d, %d) out of bounds (len %d)", start, end, len(q.s))
	}
	return q.s[start:end], nil
}

// fileSequence is a byte sequence over an open file. One page is cached;
// ranges larger than a page are read straight from the file. Len comes from
// Stat, so acquiring the sequence never reads content.
type fileSequence struct {
	f       *os.File
	size    int
	page    []byte
	pageOff int
}

func newFileSequence(path string) (*fileSequence, error) {
	h, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	st, err := h.Stat()
	if err != nil {
		h.Close()
		return nil, err
	}
	return &fileSequence{f: h, size: int(st.Size()), pageOff: -1}, nil
}

func (q *fileSequence) Len() int { return q.size }

func (q *fileSequence) Sub(start, end int) (string, error) {
	if start < 0 || end < start || end > q.size {
		return "", fmt.Errorf("sub range [%d, %d) out of bounds (len %d)", start, end, q.size)
	}
	if start == end {
		return "", nil
	}
	if end-start > providerPageSize {
		buf := make([]byte, end-start)
		if err := q.readAt(buf, start); err != nil {
			return "", err
		}
		return string(buf), nil
	}
	if q.pageOff < 0 || start < q.pageOff || end > q.pageOff+len(q.page) {
		off := start
		n := providerPageSize
		if off+n > q.size {
			n = q.size - off
		}
		page := make([]byte, n)
		if err := q.readAt(page, off); err != nil {
			return "", err
		}
		q.page = page
		q.pageOff = off
	}
	return string(q.page[start-q.pageOff : end-q.pageOff]), nil
}

func (q *fileSequence) readAt(buf []byte, off int) error {
	_, err := q.f.ReadAt(buf, int64(off))
	if err != nil && err != io.EOF {
		return err
	}
	return nil
}

func (q *fileSequence) Close() error { return q.f.Close() }

// decodedSequence decodes a non-UTF-8 file lazily on first access. Decoding
// materializes the whole content; that is the price of random character
// access into a variable-width encoding.
type decodedSequence struct {
	f    *os.File
	enc  encoding.Encoding
	name string

	done    bool
	decoded string
	err     error
}

func (q *decodedSequence) decode() error {
	if q.done {
		return q.err
	}
	q.done = true
	raw, err := io.ReadAll(q.f)
	if err != nil {
		q.err = err
		return q.err
	}
	out, err := q.enc.NewDecoder().Bytes(raw)
	if err != nil {
		q.err = &CharConversionError{Name: q.name, Err: err}
		return q.err
	}
	q.decoded = string(out)
	return nil
}

func (q *decodedSequence) Len() int {
	if q.decode() != nil {
		return 0
	}
	return len(q.decoded)
}

func (q *decodedSequence) Sub(start, end int) (string, error) {
	if err := q.decode(); err != nil {
		return "", err
	}
	if start < 0 || end < start || end > len(q.decoded) {
		return "", fmt.Errorf("sub range [%d, %d) out of bounds (len %d)", start, end, len(q.decoded))
	}
	return q.decoded[start:end], nil
}

func (q *decodedSequence) Close() error { return q.f.Close() }

// benignlyMissing reports a file that vanished between scope resolution and
// scanning.
func benignlyMissing(err error) bool {
	return errors.Is(err, iofs.ErrNotExist)
}
