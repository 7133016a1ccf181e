package filehandler

import (
	"io"
	"time"

	"github.com/goblimey/go-tools/clock"
)

// Reader wraps the input of the MDP handler.  The input may be a file that
// is complete or one that a receiver is still writing.  In the second case
// an EOF just means that there is no data to read just now, so Reader
// retries for a while before passing the EOF on.
type Reader struct {
	reader             io.Reader
	clock              clock.Clock
	RetryIntervalOnEOF time.Duration // The time to wait between retries on EOF.
	EOFTimeout         time.Duration // Give up retrying after this time has elapsed.

	// timeOfFirstEOF is set when the read has returned EOF one or more
	// times in a row.  It's the time that we saw the first of a stream of
	// EOFs.  If the last read was successful it's nil.
	timeOfFirstEOF *time.Time
}

// New creates a Reader.  If eofTimeout is zero, EOF is passed on at once.
func New(reader io.Reader, clk clock.Clock, retryIntervalOnEOF, eofTimeout time.Duration) *Reader {
	r := Reader{
		reader:             reader,
		clock:              clk,
		RetryIntervalOnEOF: retryIntervalOnEOF,
		EOFTimeout:         eofTimeout,
	}
	return &r
}

// Read reads from the underlying reader.  On EOF it pauses and tries again
// until some data arrives or the timeout elapses.  Any other error is
// returned at once.
func (r *Reader) Read(buf []byte) (int, error) {
	for {
		n, err := r.reader.Read(buf)
		if n > 0 {
			// We have some data.  Reset the timeout mechanism.  If the
			// read also gave EOF, we will see it again next time.
			r.timeOfFirstEOF = nil
			if err == io.EOF {
				err = nil
			}
			return n, err
		}

		// A serial port returns no data and no error when the read times
		// out.  That means the same as EOF.
		if err == nil {
			err = io.EOF
		}

		if err != io.EOF || r.EOFTimeout == 0 {
			return 0, err
		}

		now := r.clock.Now()
		if r.timeOfFirstEOF == nil {
			// The last read was successful, this one produced EOF.
			r.timeOfFirstEOF = &now
		} else if now.Sub(*r.timeOfFirstEOF) > r.EOFTimeout {
			// We've seen EOF for too long.  Give up.
			return 0, err
		}

		time.Sleep(r.RetryIntervalOnEOF)
	}
}
