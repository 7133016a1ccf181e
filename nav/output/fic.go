package output

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/goblimey/go-tools/clock"

	"github.com/goblimey/go-mdp/mdp/utils"
	"github.com/goblimey/go-mdp/nav/almanac"
	"github.com/goblimey/go-mdp/nav/ephemeris"
)

// FIC block numbers.
const (
	BlockEngineeringEphemeris = 9
	BlockAlmanacSubframe      = 62
	BlockEphemerisSubframes   = 109
)

// ficHeaderLength is the length of the FIC header text.
const ficHeaderLength = 40

// floatsPerLine and intsPerLine set the layout of the block values.
const (
	floatsPerLine = 4
	intsPerLine   = 6
)

// FIC writes the legacy FIC ASCII format.  The file starts with a header
// line.  Each block is a line giving the block number and the number of
// float, integer and character values, followed by the floats four to a
// line and the integers six to a line.
//
// Each new ephemeris is written as block 109, holding the raw pages, and
// then block 9, holding the decoded values.  Each almanac is written as one
// block 62 per page.
type FIC struct {
	w      *bufio.Writer
	closer io.Closer
	clock  clock.Clock
}

// NewFIC creates a FIC encoder.  The clock gives the time in the header.
// If w is an io.Closer, Close closes it.
func NewFIC(w io.Writer, clk clock.Clock) *FIC {
	fic := FIC{w: bufio.NewWriter(w), clock: clk}
	if closer, ok := w.(io.Closer); ok {
		fic.closer = closer
	}
	return &fic
}

// WriteHeader writes the header line, for example
// "Generated by mdp2fic on 14:05, 03/12/23".
func (fic *FIC) WriteHeader() error {
	text := "Generated by mdp2fic on " + fic.clock.Now().Format("15:04, 01/02/06")
	_, err := fmt.Fprintf(fic.w, "%-*s\n", ficHeaderLength, text)
	return err
}

// WriteEphemeris writes blocks 109 and 9.
func (fic *FIC) WriteEphemeris(eph *ephemeris.Ephemeris, pages ephemeris.PageSet) error {
	if err := fic.writeBlock(BlockEphemerisSubframes, nil, block109(eph, pages)); err != nil {
		return err
	}
	return fic.writeBlock(BlockEngineeringEphemeris, block9(eph, pages), nil)
}

// WriteAlmanac writes a block 62 for each page of the almanac.
func (fic *FIC) WriteAlmanac(rec *almanac.Record) error {
	for _, sf := range rec.Pages {
		if sf == nil {
			continue
		}
		values := []int64{
			int64(rec.Week), int64(sf.PRN), int64(sf.SFID()), int64(sf.AlmanacPage()),
		}
		for _, w := range sf.Words {
			values = append(values, int64(w))
		}
		if err := fic.writeBlock(BlockAlmanacSubframe, nil, values); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes the output and closes it.
func (fic *FIC) Close() error {
	err := fic.w.Flush()
	if fic.closer != nil {
		if closeError := fic.closer.Close(); err == nil {
			err = closeError
		}
	}
	return err
}

// writeBlock writes one block.
func (fic *FIC) writeBlock(number int, floats []float64, ints []int64) error {
	var b strings.Builder
	fmt.Fprintf(&b, "BLK %4d  F %4d  I %4d  C %4d\n", number, len(floats), len(ints), 0)
	for i, f := range floats {
		fmt.Fprintf(&b, "%26.18E", f)
		if (i+1)%floatsPerLine == 0 || i == len(floats)-1 {
			b.WriteString("\n")
		}
	}
	for i, v := range ints {
		fmt.Fprintf(&b, "%12d", v)
		if (i+1)%intsPerLine == 0 || i == len(ints)-1 {
			b.WriteString("\n")
		}
	}
	_, err := fic.w.WriteString(b.String())
	return err
}

// transmitWeek returns the full week in which subframe 1 was sent.
func transmitWeek(eph *ephemeris.Ephemeris) int {
	week, _ := utils.WeekAndSeconds(eph.TransmitTime)
	return week
}

// block109 returns the integers of block 109: the transmit week, the PRN
// and the thirty words of subframes 1-3.
func block109(eph *ephemeris.Ephemeris, pages ephemeris.PageSet) []int64 {
	values := []int64{int64(transmitWeek(eph)), int64(eph.PRN)}
	for _, w := range pages.Words() {
		values = append(values, int64(w))
	}
	return values
}

// asAlert returns the alert and antispoof flags from the HOW of a page.
func asAlert(pages ephemeris.PageSet, sfid int) float64 {
	sf := pages.Get(sfid)
	if sf == nil {
		return 0
	}
	buf := sf.DataBits()
	return float64(utils.GetBitsAsUint64(buf[:], 41, 2))
}

// block9 returns the sixty floats of block 9, twenty for each subframe.
// Each group starts with the HOW time, the alert and antispoof flags and
// the subframe id.  Unused positions are zero.
func block9(eph *ephemeris.Ephemeris, pages ephemeris.PageSet) []float64 {
	f := make([]float64, 60)

	f[0] = float64(eph.HOWTime)
	f[1] = asAlert(pages, 1)
	f[2] = 1
	f[3] = float64(transmitWeek(eph))
	f[4] = float64(eph.CodeOnL2)
	f[5] = float64(eph.URA)
	f[6] = float64(eph.Health)
	f[7] = float64(eph.IODC)
	f[8] = float64(eph.L2PFlag)
	f[9] = eph.Tgd
	f[10] = float64(eph.Toc)
	f[11] = eph.Af2
	f[12] = eph.Af1
	f[13] = eph.Af0
	f[14] = float64(eph.TocWeek)
	f[15] = float64(eph.Week)
	f[16] = float64(eph.PRN)

	f[20] = float64(eph.HOWTime + 6)
	f[21] = asAlert(pages, 2)
	f[22] = 2
	f[23] = float64(eph.IODE)
	f[24] = eph.Crs
	f[25] = eph.DeltaN
	f[26] = eph.M0
	f[27] = eph.Cuc
	f[28] = eph.E
	f[29] = eph.Cus
	f[30] = eph.SqrtA
	f[31] = float64(eph.Toe)
	f[32] = float64(eph.FitInterval)

	f[40] = float64(eph.HOWTime + 12)
	f[41] = asAlert(pages, 3)
	f[42] = 3
	f[43] = eph.Cic
	f[44] = eph.Omega0
	f[45] = eph.Cis
	f[46] = eph.I0
	f[47] = eph.Crc
	f[48] = eph.Omega
	f[49] = eph.OmegaDot
	f[50] = float64(eph.IODE)
	f[51] = eph.IDot

	return f
}
