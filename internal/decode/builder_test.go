package decode_test

import (
	"bytes"
	"encoding/binary"
)

// quizFile assembles legacy quiz files for tests.
type quizFile struct {
	buf bytes.Buffer
}

func (f *quizFile) str8(s string) *quizFile {
	f.buf.WriteByte(byte(len(s)))
	f.buf.WriteString(s)
	return f
}

func (f *quizFile) str16(s string) *quizFile {
	f.buf.Write(binary.BigEndian.AppendUint16(nil, uint16(len(s))))
	f.buf.WriteString(s)
	return f
}

func (f *quizFile) raw(p ...byte) *quizFile {
	f.buf.Write(p)
	return f
}

func (f *quizFile) topic(id uint16, name string) *quizFile {
	f.raw(0, 0, 0, 0)
	f.buf.Write(binary.BigEndian.AppendUint16(nil, id))
	return f.str8(name)
}

func (f *quizFile) question(r record) *quizFile {
	var h [23]byte
	binary.BigEndian.PutUint16(h[2:4], r.number)
	copy(h[4:8], r.category[:])
	binary.BigEndian.PutUint16(h[10:12], r.followup)
	h[15] = r.points
	h[18] = r.mask

	f.raw(h[:]...)
	f.str16(r.text)
	for _, a := range r.answers {
		f.str16(a)
	}
	f.buf.Write(binary.BigEndian.AppendUint32(nil, r.terminator))
	return f
}

func (f *quizFile) bytes() []byte {
	return f.buf.Bytes()
}

func topicFile() *quizFile {
	f := &quizFile{}
	return f.str8("MMM Themen  \r\n").str8("Datei-Version 2.0\r\n")
}

func questionFile() *quizFile {
	f := &quizFile{}
	return f.str8("MMM Fragen\t").str8("Datei-Version 3.0 ").raw(0xAB, 0xCD)
}

type record struct {
	number     uint16
	category   [4]byte
	followup   uint16
	points     byte
	mask       byte
	text       string
	answers    [4]string
	terminator uint32
}

// cat returns category bytes holding id in their low half.
func cat(id uint16) [4]byte {
	return [4]byte{0, 0, byte(id >> 8), byte(id)}
}
