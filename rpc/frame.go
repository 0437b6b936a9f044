package unitconvrpc

import (
	"bytes"
	"encoding/binary"
	"errors"
)

// MaxFrameSize bounds a single frame; it fits a UDP datagram.
const MaxFrameSize = 64 * 1024

var ErrFrameTooLarge = errors.New("unitconvrpc: frame too large")

// Frame prefixes data with its little-endian uint32 length.
func Frame(data []byte) ([]byte, error) {
	if len(data)+4 > MaxFrameSize {
		return nil, ErrFrameTooLarge
	}
	var buf bytes.Buffer
	buf.Grow(4 + len(data))
	binary.Write(&buf, binary.LittleEndian, uint32(len(data)))
	buf.Write(data)
	return buf.Bytes(), nil
}

// FrameBuffer splits a byte stream into length-prefixed frames.
type FrameBuffer struct {
	buf bytes.Buffer
}

func (f *FrameBuffer) Feed(data []byte) ([][]byte, error) {
	f.buf.Write(data)
	var messages [][]byte

	for {
		if f.buf.Len() < 4 {
			break
		}
		length := binary.LittleEndian.Uint32(f.buf.Bytes()[:4])
		if int(length) > MaxFrameSize-4 {
			f.buf.Reset()
			return messages, ErrFrameTooLarge
		}
		if f.buf.Len() < int(4+length) {
			break
		}
		full := make([]byte, length)
		copy(full, f.buf.Bytes()[4:4+length])
		f.buf.Next(4 + int(length))
		messages = append(messages, full)
	}
	return messages, nil
}

// Buffered returns the number of bytes waiting for the rest of a frame.
func (f *FrameBuffer) Buffered() int { return f.buf.Len() }
