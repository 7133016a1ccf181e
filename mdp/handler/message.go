package handler

import (
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/goblimey/go-mdp/mdp/header"
	"github.com/goblimey/go-mdp/mdp/navsubframe"
	"github.com/goblimey/go-mdp/mdp/obsepoch"
	"github.com/goblimey/go-mdp/mdp/utils"
	"github.com/goblimey/go-mdp/nav/subframe"
)

// Kind says what a Message contains.
type Kind int

const (
	// KindNonMDP is data that is not a valid MDP record - junk between
	// records, a record with a bad CRC or the truncated last record of the
	// input.
	KindNonMDP Kind = iota
	// KindNavSubframe is a navigation subframe record.
	KindNavSubframe
	// KindObsEpoch is an observation epoch record.
	KindObsEpoch
	// KindUnknown is a valid record of a type that isn't decoded.
	KindUnknown
	// KindUndecodable is a record that passed the CRC check but whose
	// body could not be decoded.
	KindUndecodable
)

func (k Kind) String() string {
	switch k {
	case KindNonMDP:
		return "non-MDP data"
	case KindNavSubframe:
		return "navigation subframe"
	case KindObsEpoch:
		return "observation epoch"
	case KindUnknown:
		return "unknown record"
	case KindUndecodable:
		return "undecodable record"
	default:
		return fmt.Sprintf("kind %d", int(k))
	}
}

// Message contains an MDP record, broken out into readable form, or a
// stream of non-MDP data.
type Message struct {
	Kind Kind

	// ID is the record id from the header, or utils.NonMDPRecord.
	ID int

	// RawData is the record in its original binary form including the
	// header and the CRC.
	RawData []byte

	// Header is the broken out header.  It's nil for non-MDP data.
	Header *header.Header

	// NavSubframe is set for a navigation subframe record.
	NavSubframe *navsubframe.Body

	// ObsEpoch is set for an observation epoch record.
	ObsEpoch *obsepoch.Epoch

	// ErrorMessage contains any error found while fetching or decoding the
	// record.
	ErrorMessage string

	// LogLevel controls the detail that String produces.
	LogLevel slog.Level
}

// NewNonMDP creates a non-MDP message.
func NewNonMDP(bitStream []byte, logLevel slog.Level) *Message {
	message := Message{
		Kind:     KindNonMDP,
		ID:       utils.NonMDPRecord,
		RawData:  bitStream,
		LogLevel: logLevel,
	}
	return &message
}

// Subframe returns the navigation subframe carried by the message, or nil
// if it doesn't carry one.
func (message *Message) Subframe() *subframe.Subframe {
	if message.Kind != KindNavSubframe || message.NavSubframe == nil || message.Header == nil {
		return nil
	}
	return message.NavSubframe.Subframe(message.Header)
}

// String returns the message as a readable string.  At debug level the
// raw data is included as a hex dump.
func (message *Message) String() string {

	display := fmt.Sprintf("%s, frame length %d\n", message.Kind.String(), len(message.RawData))

	if message.Header != nil {
		display += message.Header.String()
	}

	if message.LogLevel == slog.LevelDebug || message.Kind == KindNonMDP {
		display += hex.Dump(message.RawData) + "\n"
	}

	if len(message.ErrorMessage) > 0 {
		display += message.ErrorMessage + "\n"
	}

	switch message.Kind {
	case KindNavSubframe:
		if message.NavSubframe != nil {
			display += message.NavSubframe.String()
		}
		if sf := message.Subframe(); sf != nil {
			display += fmt.Sprintf("subframe %d, HOW %d\n", sf.SFID(), sf.HOWTime())
		}
	case KindObsEpoch:
		if message.ObsEpoch != nil {
			display += message.ObsEpoch.String()
		}
	case KindUnknown:
		display += fmt.Sprintf("record id %d (%s) is not decoded\n",
			message.ID, utils.RecordTypeName(message.ID))
	}

	return display
}
