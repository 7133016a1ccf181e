package output

import (
	"bufio"
	"io"
	"time"

	"github.com/goblimey/go-tools/clock"
	jsoniter "github.com/json-iterator/go"

	"github.com/goblimey/go-mdp/nav/almanac"
	"github.com/goblimey/go-mdp/nav/ephemeris"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// HeaderJSON is the first line of the NDJSON output.
type HeaderJSON struct {
	Type        string    `json:"type"`
	GeneratedBy string    `json:"generated_by"`
	GeneratedAt time.Time `json:"generated_at"`
}

// EphemerisJSON is the NDJSON form of an ephemeris.
type EphemerisJSON struct {
	Type         string    `json:"type"`
	Satellite    string    `json:"satellite"`
	PRN          int       `json:"prn"`
	Signal       string    `json:"signal"`
	TransmitTime time.Time `json:"transmit_time"`
	HOWTime      int       `json:"how_time"`
	Week         int       `json:"week"`
	Toe          int       `json:"toe"`
	TocWeek      int       `json:"toc_week"`
	Toc          int       `json:"toc"`
	IODC         int       `json:"iodc"`
	IODE         int       `json:"iode"`
	Health       int       `json:"health"`
	URA          int       `json:"ura"`
	CodeOnL2     int       `json:"code_on_l2"`
	L2PFlag      int       `json:"l2p_flag"`
	FitInterval  int       `json:"fit_interval"`
	Fingerprint  uint64    `json:"fingerprint"`
	Tgd          float64   `json:"tgd"`
	Af0          float64   `json:"af0"`
	Af1          float64   `json:"af1"`
	Af2          float64   `json:"af2"`
	Crs          float64   `json:"crs"`
	DeltaN       float64   `json:"delta_n"`
	M0           float64   `json:"m0"`
	Cuc          float64   `json:"cuc"`
	E            float64   `json:"e"`
	Cus          float64   `json:"cus"`
	SqrtA        float64   `json:"sqrt_a"`
	Cic          float64   `json:"cic"`
	Omega0       float64   `json:"omega0"`
	Cis          float64   `json:"cis"`
	I0           float64   `json:"i0"`
	Crc          float64   `json:"crc"`
	Omega        float64   `json:"omega"`
	OmegaDot     float64   `json:"omega_dot"`
	IDot         float64   `json:"i_dot"`
	Words        []string  `json:"words"`
	Digest       string    `json:"digest"`
}

// AlmanacSatelliteJSON is the NDJSON form of one satellite's almanac.
type AlmanacSatelliteJSON struct {
	Satellite string  `json:"satellite"`
	Health    int     `json:"health"`
	Toa       int     `json:"toa"`
	E         float64 `json:"e"`
	I0        float64 `json:"i0"`
	OmegaDot  float64 `json:"omega_dot"`
	SqrtA     float64 `json:"sqrt_a"`
	Omega0    float64 `json:"omega0"`
	Omega     float64 `json:"omega"`
	M0        float64 `json:"m0"`
	Af0       float64 `json:"af0"`
	Af1       float64 `json:"af1"`
}

// AlmanacJSON is the NDJSON form of an almanac.
type AlmanacJSON struct {
	Type       string                 `json:"type"`
	Satellite  string                 `json:"satellite"`
	Signal     string                 `json:"signal"`
	Week       int                    `json:"week"`
	Toa        int                    `json:"toa"`
	Health     []int                  `json:"health"`
	Satellites []AlmanacSatelliteJSON `json:"satellites"`
	Digest     string                 `json:"digest"`
}

// NDJSON writes one JSON object per line.
type NDJSON struct {
	w       *bufio.Writer
	closer  io.Closer
	clock   clock.Clock
	encoder *jsoniter.Encoder
}

// NewNDJSON creates an NDJSON encoder.  If w is an io.Closer, Close closes
// it.
func NewNDJSON(w io.Writer, clk clock.Clock) *NDJSON {
	buffered := bufio.NewWriter(w)
	nd := NDJSON{
		w:       buffered,
		clock:   clk,
		encoder: json.NewEncoder(buffered),
	}
	if closer, ok := w.(io.Closer); ok {
		nd.closer = closer
	}
	return &nd
}

// WriteHeader writes the header object.
func (nd *NDJSON) WriteHeader() error {
	return nd.encoder.Encode(HeaderJSON{
		Type:        "header",
		GeneratedBy: "mdp2fic",
		GeneratedAt: nd.clock.Now().UTC(),
	})
}

// WriteEphemeris writes an ephemeris object.
func (nd *NDJSON) WriteEphemeris(eph *ephemeris.Ephemeris, pages ephemeris.PageSet) error {
	words := pageSetWords(pages)
	return nd.encoder.Encode(EphemerisJSON{
		Type:         "ephemeris",
		Satellite:    satelliteName(eph.PRN),
		PRN:          eph.PRN,
		Signal:       eph.Signal.String(),
		TransmitTime: eph.TransmitTime,
		HOWTime:      eph.HOWTime,
		Week:         eph.Week,
		Toe:          eph.Toe,
		TocWeek:      eph.TocWeek,
		Toc:          eph.Toc,
		IODC:         eph.IODC,
		IODE:         eph.IODE,
		Health:       eph.Health,
		URA:          eph.URA,
		CodeOnL2:     eph.CodeOnL2,
		L2PFlag:      eph.L2PFlag,
		FitInterval:  eph.FitInterval,
		Fingerprint:  uint64(eph.Fingerprint()),
		Tgd:          eph.Tgd,
		Af0:          eph.Af0,
		Af1:          eph.Af1,
		Af2:          eph.Af2,
		Crs:          eph.Crs,
		DeltaN:       eph.DeltaN,
		M0:           eph.M0,
		Cuc:          eph.Cuc,
		E:            eph.E,
		Cus:          eph.Cus,
		SqrtA:        eph.SqrtA,
		Cic:          eph.Cic,
		Omega0:       eph.Omega0,
		Cis:          eph.Cis,
		I0:           eph.I0,
		Crc:          eph.Crc,
		Omega:        eph.Omega,
		OmegaDot:     eph.OmegaDot,
		IDot:         eph.IDot,
		Words:        hexWords(words),
		Digest:       Digest(words),
	})
}

// WriteAlmanac writes an almanac object.
func (nd *NDJSON) WriteAlmanac(rec *almanac.Record) error {
	var words []uint32
	for _, sf := range rec.Pages {
		words = append(words, subframeWords(sf)...)
	}

	out := AlmanacJSON{
		Type:      "almanac",
		Satellite: satelliteName(rec.Index.PRN),
		Signal:    rec.Index.Signal.String(),
		Week:      rec.Week,
		Toa:       rec.Toa,
		Health:    rec.Health[:],
		Digest:    Digest(words),
	}
	for _, sat := range rec.Satellites {
		out.Satellites = append(out.Satellites, AlmanacSatelliteJSON{
			Satellite: satelliteName(sat.SVID),
			Health:    sat.Health,
			Toa:       sat.Toa,
			E:         sat.E,
			I0:        sat.I0,
			OmegaDot:  sat.OmegaDot,
			SqrtA:     sat.SqrtA,
			Omega0:    sat.Omega0,
			Omega:     sat.Omega,
			M0:        sat.M0,
			Af0:       sat.Af0,
			Af1:       sat.Af1,
		})
	}
	return nd.encoder.Encode(out)
}

// Close flushes the output and closes it.
func (nd *NDJSON) Close() error {
	err := nd.w.Flush()
	if nd.closer != nil {
		if closeError := nd.closer.Close(); err == nil {
			err = closeError
		}
	}
	return err
}
