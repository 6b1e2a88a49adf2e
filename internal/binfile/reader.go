// Package binfile provides a sequential cursor over the legacy quiz files.
//
// All multi-byte integers are big-endian. Running out of data is never an
// error: reads report it through their boolean result or by zero padding.
package binfile

import (
	"bufio"
	"encoding/binary"
	stderrors "errors"
	"io"
)

// The 2-byte length prefix allows strings up to 65535 bytes, and a string is
// peeked in full before it is consumed.
const bufferSize = 1<<16 + 16

type Reader struct {
	r   *bufio.Reader
	off int64
	err error
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReaderSize(r, bufferSize)}
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int64 {
	return r.off
}

// Err returns the first error of the underlying source other than io.EOF.
func (r *Reader) Err() error {
	return r.err
}

// AtEnd reports whether the stream is exhausted.
func (r *Reader) AtEnd() bool {
	_, err := r.r.Peek(1)
	if err != nil {
		r.record(err)
		return true
	}
	return false
}

// ReadString8 reads a string prefixed with a single length byte.
// On failure only the length byte is consumed.
func (r *Reader) ReadString8() ([]byte, bool) {
	l, ok := r.readByte()
	if !ok {
		return nil, false
	}
	return r.readPrefixed(int(l))
}

// ReadString16 reads a string prefixed with a 2-byte big-endian length.
// On failure only the length bytes are consumed.
func (r *Reader) ReadString16() ([]byte, bool) {
	l, ok := r.ReadU16()
	if !ok {
		return nil, false
	}
	return r.readPrefixed(int(l))
}

func (r *Reader) readPrefixed(n int) ([]byte, bool) {
	if n == 0 {
		return nil, false
	}

	p, err := r.r.Peek(n)
	if err != nil {
		r.record(err)
		return nil, false
	}

	b := make([]byte, n)
	copy(b, p)
	r.discard(n)
	return b, true
}

// ReadBlock reads exactly n bytes. Unlike the prefixed strings, n == 0 is a
// valid empty block. A short stream consumes nothing and fails.
func (r *Reader) ReadBlock(n int) ([]byte, bool) {
	if n == 0 {
		return []byte{}, true
	}
	return r.readPrefixed(n)
}

// ReadFixed reads n bytes, zero padding whatever the stream cannot supply.
func (r *Reader) ReadFixed(n int) []byte {
	b := make([]byte, n)
	m, err := io.ReadFull(r.r, b)
	r.off += int64(m)
	r.record(err)
	return b
}

// ReadU16 reads a big-endian 16-bit integer.
func (r *Reader) ReadU16() (uint16, bool) {
	p, err := r.r.Peek(2)
	if err != nil {
		r.record(err)
		// consume the lone trailing byte so AtEnd holds afterwards
		r.discard(len(p))
		return 0, false
	}

	v := binary.BigEndian.Uint16(p)
	r.discard(2)
	return v, true
}

// ReadU32 reads a big-endian 32-bit integer, zero padded when short.
func (r *Reader) ReadU32() uint32 {
	return binary.BigEndian.Uint32(r.ReadFixed(4))
}

// Skip discards up to n bytes.
func (r *Reader) Skip(n int) {
	r.discard(n)
}

func (r *Reader) readByte() (byte, bool) {
	c, err := r.r.ReadByte()
	if err != nil {
		r.record(err)
		return 0, false
	}
	r.off++
	return c, true
}

func (r *Reader) discard(n int) {
	m, err := r.r.Discard(n)
	r.off += int64(m)
	r.record(err)
}

func (r *Reader) record(err error) {
	if err == nil || r.err != nil {
		return
	}
	if stderrors.Is(err, io.EOF) || stderrors.Is(err, io.ErrUnexpectedEOF) || stderrors.Is(err, bufio.ErrBufferFull) {
		return
	}
	r.err = err
}
