// The handler package reads a stream of MDP records produced by a GNSS
// receiver and breaks it up into messages.
//
//	h := handler.New(reader, slog.LevelInfo)
//
// creates a handler reading from the given reader.  Each call of
//
//	message, err := h.ReadNextMessage()
//
// returns the next message: an MDP record or some non-MDP data that sits
// between records.  When the input is exhausted ReadNextMessage returns
// io.EOF.  Any other read error is returned unchanged so that the caller
// can tell a clean finish from a failure.
//
// An MDP record is a 16-byte header starting with the sync word 0x9c9c, a
// variable-length body and a 3-byte CRC-24Q.  The length field in the header
// gives the length of the whole record.  Finding the sync word doesn't
// guarantee the start of a record - it may just be part of some other data.
// We only know that we have a record when the length is sensible and the
// CRC check passes.  If not, the first byte is returned as non-MDP data and
// scanning starts again from the next byte.
package handler

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/goblimey/go-crc24q/crc24q"

	"github.com/goblimey/go-mdp/mdp/header"
	"github.com/goblimey/go-mdp/mdp/navsubframe"
	"github.com/goblimey/go-mdp/mdp/obsepoch"
	"github.com/goblimey/go-mdp/mdp/pushback"
	"github.com/goblimey/go-mdp/mdp/utils"
	"github.com/goblimey/go-mdp/nav/subframe"
)

// ErrIncompleteFrame is reported when the input ends part way through a
// record.
var ErrIncompleteFrame = errors.New("incomplete MDP record")

// Handler is the object used to fetch and analyse MDP records.
type Handler struct {
	source *pushback.ByteSource

	// readError is the error from the reader, held back while the data
	// read before it is returned.
	readError error

	// logLevel controls the data that the String method of each message
	// produces.
	logLevel slog.Level
}

// New creates a handler reading from the given reader.
func New(reader io.Reader, logLevel slog.Level) *Handler {
	byteReader, ok := reader.(io.ByteReader)
	if !ok {
		byteReader = bufio.NewReader(reader)
	}
	handler := Handler{
		source:   pushback.New(byteReader),
		logLevel: logLevel,
	}
	return &handler
}

// ReadNextMessage gets the next message from the input.
func (mdpHandler *Handler) ReadNextMessage() (*Message, error) {

	if mdpHandler.readError != nil {
		return nil, mdpHandler.readError
	}

	// Phase 1: eat bytes until we see the sync word.
	stuff, eatError := mdpHandler.eatUntilSync()
	if eatError != nil {
		mdpHandler.readError = eatError
		if len(stuff) == 0 {
			return nil, eatError
		}
		// Return what we have.  The error is returned next time.
		return NewNonMDP(stuff, mdpHandler.logLevel), nil
	}

	if len(stuff) > 2 {
		// Some junk followed by the sync word.  Push the sync word back so
		// that we see it next time.
		mdpHandler.source.PushBack(utils.SyncByte, utils.SyncByte)
		return NewNonMDP(stuff[:len(stuff)-2], mdpHandler.logLevel), nil
	}

	// Phase 2: the frame buffer contains the sync word, which may or may
	// not be the start of a record.  Read the rest of the header.
	frame := stuff
	frame, readError := mdpHandler.readUntil(frame, utils.HeaderLengthBytes)
	if readError != nil {
		return mdpHandler.incomplete(frame, readError), nil
	}

	h, _ := header.Parse(frame)
	if checkError := h.Check(); checkError != nil {
		// Not the start of a record.
		return mdpHandler.rejectCandidate(frame, checkError), nil
	}

	// Phase 3: get the rest of the record.
	frame, readError = mdpHandler.readUntil(frame, h.Length)
	if readError != nil {
		return mdpHandler.incomplete(frame, readError), nil
	}

	// Phase 4: check the CRC and decode.
	if crcError := CheckCRC(frame); crcError != nil {
		return mdpHandler.rejectCandidate(frame, crcError), nil
	}

	return GetMessage(frame, mdpHandler.logLevel)
}

// eatUntilSync reads bytes until it has read the two bytes of the sync
// word or the read fails.  It returns what it has eaten.
func (mdpHandler *Handler) eatUntilSync() ([]byte, error) {
	stuff := make([]byte, 0)
	for {
		b, err := mdpHandler.source.GetNextByte()
		if err != nil {
			return stuff, err
		}
		stuff = append(stuff, b)

		n := len(stuff)
		if n >= 2 && stuff[n-1] == utils.SyncByte && stuff[n-2] == utils.SyncByte {
			return stuff, nil
		}
	}
}

// readUntil reads bytes onto the end of the frame until it's the given
// length.
func (mdpHandler *Handler) readUntil(frame []byte, length int) ([]byte, error) {
	for len(frame) < length {
		b, err := mdpHandler.source.GetNextByte()
		if err != nil {
			return frame, err
		}
		frame = append(frame, b)
	}
	return frame, nil
}

// incomplete handles a read error part way through a record.  The data is
// returned as a non-MDP message and the error is held back.
func (mdpHandler *Handler) incomplete(frame []byte, readError error) *Message {
	mdpHandler.readError = readError
	message := NewNonMDP(frame, mdpHandler.logLevel)
	message.ErrorMessage = ErrIncompleteFrame.Error()
	return message
}

// rejectCandidate handles a sync word that turned out not to start a
// record.  The first byte is returned as non-MDP data and the rest is
// pushed back to be scanned again.
func (mdpHandler *Handler) rejectCandidate(frame []byte, reason error) *Message {
	mdpHandler.source.PushBack(frame[1:]...)
	message := NewNonMDP(frame[:1], mdpHandler.logLevel)
	message.ErrorMessage = reason.Error()
	return message
}

// CheckCRC checks the CRC-24Q at the end of a record.
func CheckCRC(frame []byte) error {
	if len(frame) < utils.HeaderLengthBytes+utils.CRCLengthBytes {
		return errors.New("cannot check CRC - frame is too short")
	}
	// The CRC is the last three bytes of the frame.  The rest of the frame
	// should produce the same CRC.
	startOfCRC := len(frame) - utils.CRCLengthBytes
	crcHiByte := frame[startOfCRC]
	crcMiByte := frame[startOfCRC+1]
	crcLoByte := frame[startOfCRC+2]

	newCRC := crc24q.Hash(frame[:startOfCRC])

	if crc24q.HiByte(newCRC) != crcHiByte ||
		crc24q.MiByte(newCRC) != crcMiByte ||
		crc24q.LoByte(newCRC) != crcLoByte {

		return fmt.Errorf(
			"CRC check failed on record length %d - given %02x %02x %02x, calculated %02x %02x %02x",
			len(frame),
			crcHiByte, crcMiByte, crcLoByte,
			crc24q.HiByte(newCRC), crc24q.MiByte(newCRC), crc24q.LoByte(newCRC),
		)
	}

	return nil
}

// GetMessage creates a message from a complete record, checking the CRC
// and decoding the body.  If the data is not a valid record it returns a
// non-MDP message.  An error is returned only for an empty frame.
func GetMessage(frame []byte, logLevel slog.Level) (*Message, error) {

	if len(frame) == 0 {
		return nil, errors.New("zero length message frame")
	}

	h, parseError := header.Parse(frame)
	if parseError != nil {
		message := NewNonMDP(frame, logLevel)
		message.ErrorMessage = parseError.Error()
		return message, nil
	}

	if h.Length != len(frame) {
		message := NewNonMDP(frame, logLevel)
		message.ErrorMessage = fmt.Sprintf("record length %d, frame length %d", h.Length, len(frame))
		return message, nil
	}

	if crcError := CheckCRC(frame); crcError != nil {
		message := NewNonMDP(frame, logLevel)
		message.ErrorMessage = crcError.Error()
		return message, nil
	}

	message := Message{
		Kind:     KindUnknown,
		ID:       h.ID,
		RawData:  frame,
		Header:   h,
		LogLevel: logLevel,
	}

	body := frame[utils.HeaderLengthBytes : len(frame)-utils.CRCLengthBytes]

	switch h.ID {
	case utils.RecordTypeNavSubframe:
		nav, err := navsubframe.Parse(body)
		if err != nil {
			message.Kind = KindUndecodable
			message.ErrorMessage = err.Error()
			break
		}
		message.Kind = KindNavSubframe
		message.NavSubframe = nav

	case utils.RecordTypeObsEpoch:
		epoch, err := obsepoch.Parse(body)
		if err != nil {
			message.Kind = KindUndecodable
			message.ErrorMessage = err.Error()
			break
		}
		message.Kind = KindObsEpoch
		message.ObsEpoch = epoch
	}

	return &message, nil
}

// Encode creates a record from a header and a body.  The length in the
// header is set to match the body, and the CRC is added.
func Encode(h *header.Header, body []byte) []byte {
	h.Length = utils.HeaderLengthBytes + len(body) + utils.CRCLengthBytes
	frame := make([]byte, 0, h.Length)
	frame = append(frame, h.Encode()...)
	frame = append(frame, body...)
	crc := crc24q.Hash(frame)
	frame = append(frame, crc24q.HiByte(crc), crc24q.MiByte(crc), crc24q.LoByte(crc))
	return frame
}

// EncodeNavSubframe creates a navigation subframe record carrying the given
// subframe, timestamped with the subframe's receive time.
func EncodeNavSubframe(sf *subframe.Subframe, freshness uint16) []byte {
	h := header.New(utils.RecordTypeNavSubframe, 0, sf.Week, sf.MillisOfWeek, freshness, 0)
	return Encode(h, navsubframe.FromSubframe(sf).Encode())
}

// EncodeObsEpoch creates an observation epoch record.
func EncodeObsEpoch(week int, millisOfWeek uint32, freshness uint16, epoch *obsepoch.Epoch) []byte {
	h := header.New(utils.RecordTypeObsEpoch, 0, week, millisOfWeek, freshness, 0)
	return Encode(h, epoch.Encode())
}
