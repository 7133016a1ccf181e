package pushback

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"testing"
)

// TestGetNextByte checks that GetNextByte gets the bytes from the reader and
// then reports EOF.
func TestGetNextByte(t *testing.T) {

	const want = 'x'

	bs := New(bufio.NewReader(bytes.NewReader([]byte{want})))

	got1, err := bs.GetNextByte()
	if err != nil {
		t.Error(err)
	}

	if want != got1 {
		t.Errorf("want %c got %c", want, got1)
	}

	// GetNextByte should produce EOF.
	got2, gotError := bs.GetNextByte()
	if gotError == nil {
		t.Fatal("expected an error")
	}

	if got2 != 0 {
		t.Errorf("want 0 byte, got %c", got2)
	}

	if !errors.Is(gotError, io.EOF) {
		t.Errorf("want EOF got %v", gotError)
	}
}

// TestGetNextByteWithNoReader checks the error from a ByteSource that has
// no reader.
func TestGetNextByteWithNoReader(t *testing.T) {
	bs := New(nil)
	_, err := bs.GetNextByte()
	if !errors.Is(err, ErrNoReader) {
		t.Errorf("want ErrNoReader, got %v", err)
	}
}

// TestPushBack checks that pushed back bytes are returned before the
// remaining input and in the right order.
func TestPushBack(t *testing.T) {

	bs := New(bufio.NewReader(bytes.NewReader([]byte("de"))))

	bs.PushBack('b', 'c')
	bs.PushBack('a')

	if bs.Buffered() != 3 {
		t.Errorf("want 3 buffered bytes, got %d", bs.Buffered())
	}

	got := make([]byte, 0)
	for {
		b, err := bs.GetNextByte()
		if err != nil {
			break
		}
		got = append(got, b)
	}

	if string(got) != "abcde" {
		t.Errorf("want abcde got %s", string(got))
	}
}

// TestPushBackNothing checks that an empty push back is harmless.
func TestPushBackNothing(t *testing.T) {
	bs := New(bufio.NewReader(bytes.NewReader([]byte("z"))))
	bs.PushBack()
	b, err := bs.GetNextByte()
	if err != nil || b != 'z' {
		t.Errorf("want z, got %c %v", b, err)
	}
}
