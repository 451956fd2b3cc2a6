// Package backup stores EEPROM images on the host as zlib streams made of
// stored (uncompressed) DEFLATE blocks. Any zlib tool can unpack them, and
// the Adler-32 trailer catches a damaged file before it is written back to
// a device.
package backup

import (
	"bufio"
	"errors"
	"fmt"
	"hash"
	"hash/adler32"
	"io"
	"os"
)

const maxBlock = 0xffff // stored block payload limit

var (
	ErrHeader   = errors.New("backup: bad zlib header")
	ErrBlock    = errors.New("backup: unsupported or damaged block")
	ErrChecksum = errors.New("backup: checksum mismatch")
	ErrClosed   = errors.New("backup: write after close")
)

// Writer collects the image and emits the stream on Close.
type Writer struct {
	output io.Writer
	input  []byte
	closed bool
}

// NewWriter creates a Writer that emits to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{output: w}
}

func (w *Writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, ErrClosed
	}
	w.input = append(w.input, p...)
	return len(p), nil
}

// Close writes the header, the blocks and the checksum. It does not close
// the underlying writer.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	bw := bufio.NewWriter(w.output)
	// CMF 0x78: deflate, 32K window. FLG 0x01 makes the pair a multiple of 31.
	bw.Write([]byte{0x78, 0x01})

	data := w.input
	for {
		n := min(len(data), maxBlock)
		final := n == len(data)

		var hdr [5]byte
		if final {
			hdr[0] = 0x01
		}
		length := uint16(n)
		nlength := ^length
		hdr[1], hdr[2] = byte(length), byte(length>>8)
		hdr[3], hdr[4] = byte(nlength), byte(nlength>>8)
		bw.Write(hdr[:])
		bw.Write(data[:n])
		data = data[n:]
		if final {
			break
		}
	}

	sum := adler32.Checksum(w.input)
	bw.Write([]byte{byte(sum >> 24), byte(sum >> 16), byte(sum >> 8), byte(sum)})
	return bw.Flush()
}

// Reader unpacks a stream written by Writer. Only stored blocks are
// accepted.
type Reader struct {
	input *bufio.Reader
	adler hash.Hash32
	left  int // bytes left in the current block
	final bool
	done  bool
	err   error
}

// NewReader checks the stream header and returns a Reader for the image.
func NewReader(r io.Reader) (*Reader, error) {
	br := bufio.NewReader(r)
	var hdr [2]byte
	if _, err := io.ReadFull(br, hdr[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHeader, err)
	}
	cmf, flg := hdr[0], hdr[1]
	if cmf&0x0f != 8 || (uint16(cmf)<<8|uint16(flg))%31 != 0 || flg&0x20 != 0 {
		return nil, ErrHeader
	}
	return &Reader{input: br, adler: adler32.New()}, nil
}

func (r *Reader) Read(p []byte) (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	for r.left == 0 {
		if r.final {
			r.err = r.verify()
			return 0, r.err
		}
		if err := r.nextBlock(); err != nil {
			r.err = err
			return 0, err
		}
	}

	n, err := r.input.Read(p[:min(len(p), r.left)])
	r.adler.Write(p[:n])
	r.left -= n
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	if err != nil {
		r.err = err
	}
	return n, err
}

func (r *Reader) nextBlock() error {
	var hdr [5]byte
	if _, err := io.ReadFull(r.input, hdr[:]); err != nil {
		return fmt.Errorf("%w: %v", ErrBlock, err)
	}
	if hdr[0]&^0x01 != 0 {
		// compressed block, or stray bits in a stored block header
		return ErrBlock
	}
	length := uint16(hdr[1]) | uint16(hdr[2])<<8
	nlength := uint16(hdr[3]) | uint16(hdr[4])<<8
	if length != ^nlength {
		return ErrBlock
	}
	r.final = hdr[0] == 0x01
	r.left = int(length)
	return nil
}

func (r *Reader) verify() error {
	var sum [4]byte
	if _, err := io.ReadFull(r.input, sum[:]); err != nil {
		return fmt.Errorf("%w: %v", ErrChecksum, err)
	}
	want := uint32(sum[0])<<24 | uint32(sum[1])<<16 | uint32(sum[2])<<8 | uint32(sum[3])
	if r.adler.Sum32() != want {
		return ErrChecksum
	}
	return io.EOF
}

// Save writes data to path as a backup stream.
func Save(path string, data []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := NewWriter(f)
	w.Write(data)
	if err := w.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Load reads back a file written by Save and verifies it.
func Load(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := NewReader(f)
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}
