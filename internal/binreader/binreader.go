// Package binreader provides the little-endian primitive decoders the
// manifest wire format is built from: a cursor over an owned byte buffer
// with seek support and length-prefixed string/array reads.
package binreader

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"golang.org/x/text/encoding/unicode"
)

// ErrUnsupportedEncoding is returned when an FString's UTF-16LE bytes
// cannot be decoded.
var ErrUnsupportedEncoding = errors.New("binreader: unsupported string encoding")

// ErrCorrupt is returned for values that can never appear in a valid
// manifest, such as an FString length of i32.MinInt32.
var ErrCorrupt = errors.New("binreader: corrupt data")

// Reader is a cursor over an in-memory buffer. It is not safe for
// concurrent use.
type Reader struct {
	r   *bytes.Reader
	buf []byte
}

// New wraps data in a Reader. The buffer is not copied; callers must not
// mutate data afterwards.
func New(data []byte) *Reader {
	return &Reader{r: bytes.NewReader(data), buf: data}
}

// Len returns the number of bytes of the underlying buffer not yet read.
func (r *Reader) Len() int { return r.r.Len() }

// Pos returns the current absolute offset into the buffer.
func (r *Reader) Pos() int64 {
	pos, _ := r.r.Seek(0, io.SeekCurrent)
	return pos
}

// SeekAbs seeks to an absolute offset from the start of the buffer.
func (r *Reader) SeekAbs(offset int64) error {
	_, err := r.r.Seek(offset, io.SeekStart)
	return err
}

// SeekRel seeks by a relative number of bytes from the current position.
func (r *Reader) SeekRel(delta int64) error {
	_, err := r.r.Seek(delta, io.SeekCurrent)
	return err
}

func (r *Reader) readN(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r.r, buf); err != nil {
		return nil, fmt.Errorf("binreader: read %d bytes: %w", n, err)
	}
	return buf, nil
}

// Bytes reads n raw bytes from the buffer.
func (r *Reader) Bytes(n int) ([]byte, error) {
	return r.readN(n)
}

// U8 reads a single byte.
func (r *Reader) U8() (uint8, error) {
	b, err := r.r.ReadByte()
	if err != nil {
		return 0, fmt.Errorf("binreader: read u8: %w", err)
	}
	return b, nil
}

// U32 reads a little-endian uint32.
func (r *Reader) U32() (uint32, error) {
	b, err := r.readN(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// U32BE reads a big-endian uint32. Only the manifest's "feature level"
// field uses this byte order.
func (r *Reader) U32BE() (uint32, error) {
	b, err := r.readN(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// U64 reads a little-endian uint64.
func (r *Reader) U64() (uint64, error) {
	b, err := r.readN(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// I32 reads a little-endian int32.
func (r *Reader) I32() (int32, error) {
	v, err := r.U32()
	if err != nil {
		return 0, err
	}
	return int32(v), nil
}

// I64 reads a little-endian int64.
func (r *Reader) I64() (int64, error) {
	v, err := r.U64()
	if err != nil {
		return 0, err
	}
	return int64(v), nil
}

// FString reads a length-prefixed string. A zero length yields "". A
// positive length reads that many bytes and drops the trailing NUL
// terminator the length includes. A negative length reads 2*|length|
// bytes as UTF-16LE, including a trailing NUL-NUL terminator, and decodes
// it to UTF-8. math.MinInt32 is corruption.
func (r *Reader) FString() (string, error) {
	length, err := r.I32()
	if err != nil {
		return "", err
	}

	switch {
	case length == math.MinInt32:
		return "", fmt.Errorf("binreader: fstring length: %w", ErrCorrupt)
	case length == 0:
		return "", nil
	case length > 0:
		b, err := r.readN(int(length))
		if err != nil {
			return "", err
		}
		return string(b[:len(b)-1]), nil
	default:
		n := int(-length) * 2
		b, err := r.readN(n)
		if err != nil {
			return "", err
		}
		return decodeUTF16LE(b)
	}
}

func decodeUTF16LE(b []byte) (string, error) {
	if len(b) >= 2 {
		b = b[:len(b)-2] // drop trailing NUL-NUL terminator
	}
	decoder := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	out, err := decoder.Bytes(b)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedEncoding, err)
	}
	return string(out), nil
}

// GUID reads four little-endian uint32 lanes.
func (r *Reader) GUID() (a, b, c, d uint32, err error) {
	if a, err = r.U32(); err != nil {
		return
	}
	if b, err = r.U32(); err != nil {
		return
	}
	if c, err = r.U32(); err != nil {
		return
	}
	if d, err = r.U32(); err != nil {
		return
	}
	return
}

// SHA1 reads a 20-byte digest.
func (r *Reader) SHA1() ([20]byte, error) {
	var out [20]byte
	b, err := r.readN(20)
	if err != nil {
		return out, err
	}
	copy(out[:], b)
	return out, nil
}

// Array reads an i32 count then invokes decode that many times.
func Array[T any](r *Reader, decode func(*Reader) (T, error)) ([]T, error) {
	count, err := r.I32()
	if err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, fmt.Errorf("binreader: negative array count %d: %w", count, ErrCorrupt)
	}
	return SizedArray(r, decode, int(count))
}

// SizedArray invokes decode n times without reading a count prefix.
func SizedArray[T any](r *Reader, decode func(*Reader) (T, error), n int) ([]T, error) {
	out := make([]T, n)
	for i := 0; i < n; i++ {
		v, err := decode(r)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
