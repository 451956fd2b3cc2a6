package font

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	ErrHeader    = errors.New("mcm: missing MAX7456 header")
	ErrShortFile = errors.New("mcm: file ends before the last glyph")
)

// Encode writes t as an MCM file, byte-identical to what Download sends.
func Encode(w io.Writer, t *Table) error {
	bw := bufio.NewWriter(w)
	out := &writerSender{w: bw}
	if err := Download(out, t); err != nil {
		return err
	}
	if out.err != nil {
		return out.err
	}
	return bw.Flush()
}

// Decode parses an MCM file. Unlike Upload it validates every line and
// accepts LF as well as CRLF line endings, so files edited on any host can
// be normalized with Encode before they are sent to a device.
func Decode(r io.Reader) (*Table, error) {
	sc := bufio.NewScanner(r)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return nil, ErrHeader
	}
	if strings.TrimRight(sc.Text(), "\r") != strings.TrimRight(Header, "\r\n") {
		return nil, ErrHeader
	}

	var t Table
	line := 1
	for c := 0; c < GlyphCount; c++ {
		for i := 0; i < GlyphSize; i++ {
			if !sc.Scan() {
				if err := sc.Err(); err != nil {
					return nil, err
				}
				return nil, ErrShortFile
			}
			line++
			b, err := parseBits(strings.TrimRight(sc.Text(), "\r"))
			if err != nil {
				return nil, fmt.Errorf("mcm line %d: %w", line, err)
			}
			t[c][i] = b
		}
	}
	return &t, nil
}

func parseBits(s string) (byte, error) {
	if len(s) != 8 {
		return 0, fmt.Errorf("want 8 bits, got %q", s)
	}
	var b byte
	for i := 0; i < 8; i++ {
		switch s[i] {
		case '0':
			b <<= 1
		case '1':
			b = b<<1 | 1
		default:
			return 0, fmt.Errorf("bad bit %q", s[i])
		}
	}
	return b, nil
}

type writerSender struct {
	w   *bufio.Writer
	err error
}

func (s *writerSender) Send(b byte) {
	if s.err == nil {
		s.err = s.w.WriteByte(b)
	}
}
