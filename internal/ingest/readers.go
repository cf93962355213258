package ingest

// readers.go provides streaming readers applied to text input before parsing:
//
//   - bomSkippingReader: drops a leading UTF-8 BOM (0xEF 0xBB 0xBF)
//   - legacyFallbackReader: passes valid UTF-8 through and reads every
//     invalid byte as Windows-1252
//   - countingReader: tracks bytes consumed
//
// Use wrapText to apply all three in the correct order.

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// bomSkippingReader removes the UTF-8 byte order mark on the first read.
type bomSkippingReader struct {
	r       *bufio.Reader
	checked bool
}

func newBOMSkippingReader(r io.Reader) *bomSkippingReader {
	return &bomSkippingReader{r: bufio.NewReader(r)}
}

func (b *bomSkippingReader) Read(p []byte) (int, error) {
	if !b.checked {
		b.checked = true
		if head, err := b.r.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
			if _, err := b.r.Discard(len(utf8BOM)); err != nil {
				return 0, err
			}
		}
	}
	return b.r.Read(p)
}

// legacyFallbackReader repairs text that mixes UTF-8 with single-byte
// Windows-1252, which is what spreadsheet exports on Windows usually produce.
// Multi-byte sequences split across reads are held back until complete.
type legacyFallbackReader struct {
	src     io.Reader
	scratch []byte
	pending []byte // undecoded input tail
	out     []byte // decoded output
	outPos  int
	err     error

	// Substituted is the number of bytes decoded as Windows-1252.
	Substituted int
}

func newLegacyFallbackReader(r io.Reader) *legacyFallbackReader {
	return &legacyFallbackReader{
		src:     r,
		scratch: make([]byte, 32*1024),
		pending: make([]byte, 0, utf8.UTFMax),
	}
}

func (l *legacyFallbackReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for l.outPos == len(l.out) {
		if l.err != nil && len(l.pending) == 0 {
			return 0, l.err
		}
		l.fill()
	}
	n := copy(p, l.out[l.outPos:])
	l.outPos += n
	return n, nil
}

func (l *legacyFallbackReader) fill() {
	l.out = l.out[:0]
	l.outPos = 0

	if l.err == nil {
		n, err := l.src.Read(l.scratch)
		l.pending = append(l.pending, l.scratch[:n]...)
		l.err = err
	}
	atEOF := l.err != nil

	data := l.pending
	i := 0
	for i < len(data) {
		c := data[i]
		if c < utf8.RuneSelf {
			l.out = append(l.out, c)
			i++
			continue
		}
		if !atEOF && !utf8.FullRune(data[i:]) {
			break
		}
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size == 1 {
			l.out = utf8.AppendRune(l.out, charmap.Windows1252.DecodeByte(c))
			l.Substituted++
			i++
			continue
		}
		l.out = append(l.out, data[i:i+size]...)
		i += size
	}
	l.pending = append(l.pending[:0], data[i:]...)
}

// countingReader tracks the number of bytes read from the source.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// wrapText counts raw bytes, strips the BOM, then repairs the encoding.
func wrapText(r io.Reader) (*legacyFallbackReader, *countingReader) {
	counter := &countingReader{r: r}
	return newLegacyFallbackReader(newBOMSkippingReader(counter)), counter
}

// toUTF8 converts a single cell from Windows-1252 when it is not valid UTF-8.
func toUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	decoded, err := charmap.Windows1252.NewDecoder().String(s)
	if err != nil {
		return string(bytes.ToValidUTF8([]byte(s), []byte("\uFFFD")))
	}
	return decoded
}
