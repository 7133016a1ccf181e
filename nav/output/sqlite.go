package output

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/goblimey/go-mdp/nav/almanac"
	"github.com/goblimey/go-mdp/nav/ephemeris"
)

// SQLite writes an archive database.  Each new ephemeris is a row of the
// ephemeris table.  Each almanac flush adds one row per page to the
// almanac_page table, numbered by flush.
type SQLite struct {
	db      *sql.DB
	flushes int
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS ephemeris (
    prn INTEGER NOT NULL,
    signal TEXT NOT NULL,
    fingerprint INTEGER NOT NULL,
    transmit_time INTEGER NOT NULL,
    how_time INTEGER,
    week INTEGER,
    toe INTEGER,
    toc_week INTEGER,
    toc INTEGER,
    iodc INTEGER,
    iode INTEGER,
    health INTEGER,
    ura INTEGER,
    fit_interval INTEGER,
    tgd REAL,
    af0 REAL,
    af1 REAL,
    af2 REAL,
    crs REAL,
    delta_n REAL,
    m0 REAL,
    cuc REAL,
    e REAL,
    cus REAL,
    sqrt_a REAL,
    cic REAL,
    omega0 REAL,
    cis REAL,
    i0 REAL,
    crc REAL,
    omega REAL,
    omega_dot REAL,
    i_dot REAL,
    words TEXT,
    digest TEXT,
    PRIMARY KEY (prn, signal, fingerprint)
);
CREATE TABLE IF NOT EXISTS almanac_page (
    flush INTEGER NOT NULL,
    prn INTEGER NOT NULL,
    signal TEXT NOT NULL,
    week INTEGER,
    toa INTEGER,
    sfid INTEGER NOT NULL,
    page INTEGER NOT NULL,
    svid INTEGER,
    words TEXT,
    digest TEXT
);`

// OpenSQLite opens or creates the database at the given path.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cannot open archive %s - %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	return &SQLite{db: db}, nil
}

// WriteHeader creates the tables if they don't exist.  Earlier runs'
// rows are kept.
func (s *SQLite) WriteHeader() error {
	if _, err := s.db.Exec(sqliteSchema); err != nil {
		return fmt.Errorf("cannot create archive tables - %w", err)
	}
	var flushes sql.NullInt64
	if err := s.db.QueryRow(`SELECT MAX(flush) FROM almanac_page`).Scan(&flushes); err != nil {
		return err
	}
	s.flushes = int(flushes.Int64)
	return nil
}

// WriteEphemeris adds an ephemeris.  An ephemeris already in the archive
// from an earlier run is left alone.
func (s *SQLite) WriteEphemeris(eph *ephemeris.Ephemeris, pages ephemeris.PageSet) error {
	words := pageSetWords(pages)
	_, err := s.db.Exec(`
INSERT OR IGNORE INTO ephemeris (
    prn, signal, fingerprint, transmit_time, how_time, week, toe, toc_week, toc,
    iodc, iode, health, ura, fit_interval,
    tgd, af0, af1, af2, crs, delta_n, m0, cuc, e, cus, sqrt_a,
    cic, omega0, cis, i0, crc, omega, omega_dot, i_dot, words, digest
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		eph.PRN, eph.Signal.String(), int64(eph.Fingerprint()), eph.TransmitTime.Unix(),
		eph.HOWTime, eph.Week, eph.Toe, eph.TocWeek, eph.Toc,
		eph.IODC, eph.IODE, eph.Health, eph.URA, eph.FitInterval,
		eph.Tgd, eph.Af0, eph.Af1, eph.Af2, eph.Crs, eph.DeltaN, eph.M0, eph.Cuc, eph.E, eph.Cus, eph.SqrtA,
		eph.Cic, eph.Omega0, eph.Cis, eph.I0, eph.Crc, eph.Omega, eph.OmegaDot, eph.IDot,
		joinWords(words), Digest(words),
	)
	return err
}

// WriteAlmanac adds the pages of an almanac in one transaction.
func (s *SQLite) WriteAlmanac(rec *almanac.Record) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	flush := s.flushes + 1
	for _, sf := range rec.Pages {
		if sf == nil {
			continue
		}
		words := subframeWords(sf)
		_, err := tx.Exec(`
INSERT INTO almanac_page (flush, prn, signal, week, toa, sfid, page, svid, words, digest)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			flush, sf.PRN, sf.Signal.String(), rec.Week, rec.Toa,
			sf.SFID(), sf.AlmanacPage(), sf.SVID(), joinWords(words), Digest(words))
		if err != nil {
			tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.flushes = flush
	return nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// joinWords gives the words as space separated hex.
func joinWords(words []uint32) string {
	display := ""
	for i, w := range hexWords(words) {
		if i > 0 {
			display += " "
		}
		display += w
	}
	return display
}
