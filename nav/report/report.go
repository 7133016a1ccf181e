// Package report writes the summary log at the end of a conversion: the
// span of transmit times seen, the parity statistics and, for each
// satellite, the table of distinct ephemerides in order of transmission.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/de-bkg/gognss/pkg/gnss"
	"github.com/dustin/go-humanize"

	"github.com/goblimey/go-mdp/mdp/utils"
	"github.com/goblimey/go-mdp/nav/driver"
	"github.com/goblimey/go-mdp/nav/ephlog"
)

// Title is the first line of the summary.
const Title = "Output log from mdp2fic."

// EntryHeader heads the table of ephemerides for each satellite.  The
// columns line up with the lines produced by Entry.
var EntryHeader = fmt.Sprintf("%-3s  %-33s  %-33s  %-33s  %-5s  %-4s  %5s",
	"PRN", "Transmit Time", "Time of Ephemeris", "Clock Reference Time", "IODC", "Hlth", "Count")

// FormatTime gives a GPS time as date, day of year, time of day, week and
// second of week, for example "01/18/04 018 00:09:54, GPS Week 1254, SOW    594".
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return "none"
	}
	week, sow := utils.WeekAndSeconds(t)
	return fmt.Sprintf("%s %03d %s, GPS Week %d, SOW %6.0f",
		t.Format("01/02/06"), t.YearDay(), t.Format("15:04:05"), week, sow)
}

// shortTime gives a GPS time as date, day of year and time of day.
func shortTime(t time.Time) string {
	return fmt.Sprintf("%s %03d %s", t.Format("01/02/06"), t.YearDay(), t.Format("15:04:05"))
}

// PRN gives the satellite name, for example "G05".
func PRN(prn int) string {
	return fmt.Sprintf("%s%02d", gnss.SysGPS.Abbr(), prn)
}

// count gives a number with thousands separators, right aligned.
func count(n int) string {
	return fmt.Sprintf("%9s", humanize.Comma(int64(n)))
}

// Write writes the summary.
func Write(w io.Writer, stats *driver.Stats, log *ephlog.Log) error {
	var b strings.Builder

	fmt.Fprintln(&b, Title)
	fmt.Fprintf(&b, "Earliest Transmit Time: %s\n", FormatTime(stats.Earliest))
	fmt.Fprintf(&b, "Latest Transmit Time  : %s\n", FormatTime(stats.Latest))

	fmt.Fprintln(&b, "Statistics on parity checks")
	fmt.Fprintf(&b, "Total number of subframes processed: %s\n", count(stats.SubframesProcessed))
	fmt.Fprintf(&b, "Number of successful parity checks : %s\n", count(stats.ParitySuccesses))
	fmt.Fprintf(&b, "Number of failed parity checks     : %s\n", count(stats.ParityFailures))
	fmt.Fprintf(&b, "Percent of subframes failing parity: %9.2f\n", stats.PercentFailing())

	fmt.Fprintln(&b, "Other records")
	fmt.Fprintf(&b, "Observation epochs                 : %s\n", count(stats.ObsEpochs))
	fmt.Fprintf(&b, "Non-MDP data                       : %s\n", count(stats.NonMDP))
	fmt.Fprintf(&b, "Unknown or undecodable records     : %s\n", count(stats.UnknownRecords+stats.Undecodable))
	fmt.Fprintf(&b, "Subframes from other signals       : %s\n", count(stats.WrongSignal))
	fmt.Fprintf(&b, "Subframes with an invalid id       : %s\n", count(stats.InvalidID))

	fmt.Fprintln(&b, "Products")
	fmt.Fprintf(&b, "Ephemerides decoded                : %s\n", count(stats.EphemeridesDecoded))
	fmt.Fprintf(&b, "Ephemerides written                : %s\n", count(stats.EphemeridesEmitted))
	fmt.Fprintf(&b, "Ephemerides repeated               : %s\n", count(stats.EphemeridesSuppressed))
	fmt.Fprintf(&b, "Page sets not decoded              : %s\n", count(stats.EphemeridesRejected))
	fmt.Fprintf(&b, "Almanacs written                   : %s\n", count(stats.AlmanacFlushes))

	for _, prn := range log.PRNs() {
		sl, _ := log.Satellite(prn)
		fmt.Fprintf(&b, "\nSummary of Broadcast Ephemerides for PRN %02d\n", prn)
		fmt.Fprintf(&b, "%d unique ephemerides found.\n", sl.Len())
		fmt.Fprintln(&b, EntryHeader)
		for _, entry := range sl.ByTime() {
			fmt.Fprintln(&b, Entry(entry))
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// Entry gives one line of a satellite's table.
func Entry(entry *ephlog.Entry) string {
	eph := entry.Ephemeris
	return fmt.Sprintf("%s  %s, HOW %6d  %s, Toe %6d  %s, Toc %6d  0x%03X  0x%02X  %5d",
		PRN(eph.PRN),
		shortTime(eph.TransmitTime), eph.HOWTime,
		shortTime(eph.ToeTime()), eph.Toe,
		shortTime(eph.TocTime()), eph.Toc,
		eph.IODC, eph.Health, entry.Count)
}
