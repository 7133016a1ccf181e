package pushback

import (
	"errors"
	"io"
)

// ErrNoReader is returned when the ByteSource was created without a reader.
var ErrNoReader = errors.New("byte source has no reader")

// ByteSource is a source of bytes with pushback.  The frame scanner
// sometimes reads past the end of what it wants (for example when a sync
// word turns out to be part of some other data) and needs to put bytes back
// so that they are scanned again.
type ByteSource struct {
	// pushBackBuffer contains any bytes that have been pushed back, in the
	// order in which they will be returned.
	pushBackBuffer []byte
	// reader is the source of the bytes.
	reader io.ByteReader
}

// New creates a ByteSource reading from the given reader.
func New(reader io.ByteReader) *ByteSource {
	bs := ByteSource{reader: reader}
	return &bs
}

// GetNextByte gets the next byte.  If bytes have been pushed back, it
// returns the first of them instead of reading.  Read errors, including
// io.EOF, are returned unchanged so that the caller can tell the end of the
// input from a failure.
func (bs *ByteSource) GetNextByte() (byte, error) {
	if len(bs.pushBackBuffer) > 0 {
		b := bs.pushBackBuffer[0]
		bs.pushBackBuffer = bs.pushBackBuffer[1:]
		return b, nil
	}

	if bs.reader == nil {
		return 0, ErrNoReader
	}

	return bs.reader.ReadByte()
}

// PushBack pushes back the given bytes.  The next calls of GetNextByte
// return them in the order given, before any bytes pushed back earlier.
func (bs *ByteSource) PushBack(b ...byte) {
	if len(b) == 0 {
		return
	}
	buffer := make([]byte, 0, len(b)+len(bs.pushBackBuffer))
	buffer = append(buffer, b...)
	buffer = append(buffer, bs.pushBackBuffer...)
	bs.pushBackBuffer = buffer
}

// Buffered returns the number of pushed back bytes waiting to be read.
func (bs *ByteSource) Buffered() int {
	return len(bs.pushBackBuffer)
}
