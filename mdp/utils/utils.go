// the utils package contains general-purpose functions and constants for
// the MDP software.
package utils

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/goblimey/go-tools/dailylogger"
)

// Framing.  An MDP record is a 16-byte header, a variable-length body and a
// 3-byte CRC.  The header starts with the two-byte sync word 0x9c9c.

// SyncByte is the value of each of the two bytes that start a frame.
const SyncByte byte = 0x9c

// SyncWord is the 16-bit value that starts a frame.
const SyncWord = 0x9c9c

// HeaderLengthBytes is the length of the MDP header including the sync word.
const HeaderLengthBytes = 16

// HeaderLengthBits is the length of the header in bits.
const HeaderLengthBits = HeaderLengthBytes * 8

// CRCLengthBytes is the length of the CRC-24Q that ends each frame.
const CRCLengthBytes = 3

// CRCLengthBits is the length of the CRC in bits.
const CRCLengthBits = CRCLengthBytes * 8

// MaxFrameLength is the largest frame we are prepared to collect.  The
// length field is 16 bits but real records are a few hundred bytes, so a
// larger value means we have blundered into the middle of some other data.
const MaxFrameLength = 4096

// NonMDPRecord indicates a message that does not contain an MDP record.
// Junk between two frames is presented as a single non-MDP message.
const NonMDPRecord = -1

// MDP record ids.
const RecordTypeObsEpoch = 300
const RecordTypeNavSubframe = 310
const RecordTypeSelfTest = 400

// GPS time.

// SecondsPerWeek is the length of the GPS week.
const SecondsPerWeek = 604800

// MillisPerWeek is the length of the GPS week in milliseconds.
const MillisPerWeek = SecondsPerWeek * 1000

// WeekRollover is the modulus of the 10-bit week number broadcast in
// subframe 1.
const WeekRollover = 1024

// GPSEpoch is the start of GPS week 0.  GPS time does not have leap seconds,
// so times produced by GPSTime are in the GPS time scale, not UTC.
var GPSEpoch = time.Date(1980, time.January, 6, 0, 0, 0, 0, time.UTC)

// DateLayout defines the layout of dates when they are displayed.
const DateLayout = "2006-01-02 15:04:05.999"

// Scale factors for navigation message fields (IS-GPS-200 table 20-III).
const (
	P2_5   = 0.03125
	P2_11  = 4.882812500000000e-04
	P2_17  = 7.629394531250000e-06
	P2_19  = 1.907348632812500e-06
	P2_20  = 9.536743164062500e-07
	P2_21  = 4.768371582031250e-07
	P2_23  = 1.192092895507810e-07
	P2_29  = 1.862645149230957e-09
	P2_31  = 4.656612873077393e-10
	P2_33  = 1.164153218269348e-10
	P2_38  = 3.637978807091713e-12
	P2_43  = 1.136868377216160e-13
	P2_55  = 2.775557561562891e-17
	SC2RAD = 3.1415926535898 // semi-circle to radian (IS-GPS)
)

// GPSTime returns the time given by a GPS week and seconds of week.
func GPSTime(week int, secondsOfWeek float64) time.Time {
	whole := math.Floor(secondsOfWeek)
	nanos := int64((secondsOfWeek - whole) * 1e9)
	d := time.Duration(week)*7*24*time.Hour +
		time.Duration(whole)*time.Second + time.Duration(nanos)
	return GPSEpoch.Add(d)
}

// WeekAndSeconds is the inverse of GPSTime.
func WeekAndSeconds(t time.Time) (int, float64) {
	d := t.Sub(GPSEpoch)
	week := int(d / (7 * 24 * time.Hour))
	rest := d - time.Duration(week)*7*24*time.Hour
	return week, rest.Seconds()
}

// FullWeek resolves a 10-bit broadcast week number against a reference full
// week (typically the week in the MDP header), choosing the candidate closest
// to the reference.
func FullWeek(week10, referenceWeek int) int {
	week := referenceWeek - (referenceWeek % WeekRollover) + (week10 % WeekRollover)
	if week-referenceWeek > WeekRollover/2 {
		week -= WeekRollover
	} else if referenceWeek-week > WeekRollover/2 {
		week += WeekRollover
	}
	return week
}

// GetBitsAsUint64 extracts len bits from a slice of  bytes, starting
// at bit position pos and returns them as a uint.  See RTKLIB's getbitu.
func GetBitsAsUint64(buff []byte, pos uint, len uint) uint64 {
	const u64One uint64 = 1
	var result uint64 = 0
	for i := pos; i < pos+len; i++ {
		byteNumber := i / 8
		// Work on a 64-bit copy of the byte contents.
		var byteContents uint64 = uint64(buff[byteNumber])
		var shiftBy uint = 7 - i%8
		// Shift the contents down to put the desired bit at the bottom.
		b := byteContents >> shiftBy
		// Glue the bottom bit onto the result.
		result = (result << 1) | (b & u64One)
	}
	return result
}

// GetBitsAsInt64 extracts len bits from a slice of bytes, starting at bit
// position pos, interprets the bits as a twos-complement integer and returns
// the resulting as a 64-bit signed int.  See RTKLIB's getbits() function.
func GetBitsAsInt64(buff []byte, pos uint, len uint) int64 {
	negative := GetBitsAsUint64(buff, pos, 1) == 1
	uval := GetBitsAsUint64(buff, pos, len)
	if negative {
		// -(top bit weight) + (weight of the rest).
		var mask uint64 = 2 << (len - 2)
		weightOfTopBit := int64(uval & mask)
		weightOfLowerBits := int64(uval & ^mask)
		return (-1 * weightOfTopBit) + weightOfLowerBits
	}

	return int64(uval)
}

// GetSplitBitsAsUint64 extracts a field which the navigation message splits
// across two words, for example the 32-bit M0 which is 8 bits at the end of
// one word and 24 bits in the next.
func GetSplitBitsAsUint64(buff []byte, pos1, len1, pos2, len2 uint) uint64 {
	return (GetBitsAsUint64(buff, pos1, len1) << len2) | GetBitsAsUint64(buff, pos2, len2)
}

// GetSplitBitsAsInt64 is the signed version of GetSplitBitsAsUint64.
func GetSplitBitsAsInt64(buff []byte, pos1, len1, pos2, len2 uint) int64 {
	top := GetBitsAsInt64(buff, pos1, len1)
	return (top << len2) | int64(GetBitsAsUint64(buff, pos2, len2))
}

// EqualWithin return true if the given float64 values are equal
// within (precision) decimal places after rounding.  (This can fail if
// either of the numbers or the difference between them are too large.)
func EqualWithin(precision uint, f1, f2 float64) bool {

	var scaleFactor float64 = math.Pow(10, float64(precision))

	f1 = math.Round(f1 * scaleFactor)
	f2 = math.Round(f2 * scaleFactor)

	return math.Abs(f1-f2) <= 0.1
}

// GetDailyLogger gets a structured logger that writes to a log file in the
// given directory.  The file is rolled over each day and has a datestamped
// name, for example "mdp2fic.2024-08-31.log".
func GetDailyLogger(directory, appName string, level slog.Level) *slog.Logger {
	dailyLog := dailylogger.New(directory, appName+".", ".log")
	opts := slog.HandlerOptions{Level: level}
	return slog.New(slog.NewTextHandler(dailyLog, &opts))
}

// RecordTypeName returns a readable name for an MDP record id.
func RecordTypeName(id int) string {
	switch id {
	case RecordTypeObsEpoch:
		return "observation epoch"
	case RecordTypeNavSubframe:
		return "navigation subframe"
	case RecordTypeSelfTest:
		return "self test"
	case NonMDPRecord:
		return "non-MDP data"
	default:
		return fmt.Sprintf("unknown record id %d", id)
	}
}
