// Package userdict implements the User Dictionary: a persistent,
// transactional store of phrase and bigram frequencies learned from
// committed input, backed by SQLite instead of a flat file so that
// individual learn operations are cheap, atomic mutations rather than
// whole-dataset rewrites.
package userdict

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	charmlog "github.com/charmbracelet/log"
	"github.com/hanzi-ime/imecore/internal/logger"
	"github.com/hanzi-ime/imecore/pkg/imeerr"
	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS phrase_freq (
	phrase TEXT PRIMARY KEY,
	freq   INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS bigram_freq (
	pair_key TEXT PRIMARY KEY,
	freq     INTEGER NOT NULL
);
`

// pairKey joins two phrases with a NUL byte so a prefix range scan over
// bigram_freq finds every w2 that ever followed w1.
func pairKey(w1, w2 string) string {
	return w1 + "\x00" + w2
}

// Store is the User Dictionary. The zero value is not usable; construct
// one with Open.
type Store struct {
	db  *sql.DB
	log *charmlog.Logger
}

// Open creates or opens the SQLite database at path and ensures the
// schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, imeerr.UserDict("userdict.Open", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, imeerr.UserDict("userdict.Open", fmt.Errorf("migrate: %w", err))
	}
	return &Store{db: db, log: logger.New("userdict")}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func normalize(phrase string) string {
	return norm.NFC.String(phrase)
}

// Frequency returns the learned frequency for phrase, or 0 if it has never
// been learned. Read-path errors are logged and degrade to 0 rather than
// surfaced; User Dictionary unavailability never blocks candidate generation.
func (s *Store) Frequency(phrase string) uint64 {
	phrase = normalize(phrase)
	var freq uint64
	err := s.db.QueryRow(`SELECT freq FROM phrase_freq WHERE phrase = ?`, phrase).Scan(&freq)
	if err != nil {
		if err != sql.ErrNoRows {
			s.log.Warnf("userdict: read phrase_freq(%q) failed: %v", phrase, err)
		}
		return 0
	}
	return freq
}

// Learn increments phrase's frequency by 1, creating the row if absent.
func (s *Store) Learn(phrase string) error {
	return s.LearnWithCount(phrase, 1)
}

// LearnWithCount increments phrase's frequency by delta inside a single
// transaction so a mid-write failure leaves no partial update visible.
func (s *Store) LearnWithCount(phrase string, delta uint64) error {
	phrase = normalize(phrase)
	return s.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO phrase_freq (phrase, freq) VALUES (?, ?)
			ON CONFLICT(phrase) DO UPDATE SET freq = freq + excluded.freq
		`, phrase, delta)
		return err
	})
}

// LearnBigram records that w2 followed w1 once, for predictive chaining.
func (s *Store) LearnBigram(w1, w2 string) error {
	key := pairKey(normalize(w1), normalize(w2))
	return s.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO bigram_freq (pair_key, freq) VALUES (?, 1)
			ON CONFLICT(pair_key) DO UPDATE SET freq = freq + 1
		`, key)
		return err
	})
}

// BigramsAfter returns every w2 ever learned as following w1, with its
// learned frequency, via a prefix range scan over pair_key.
func (s *Store) BigramsAfter(w1 string) map[string]uint64 {
	w1 = normalize(w1)
	lo := w1 + "\x00"
	hi := w1 + "\x01"
	rows, err := s.db.Query(`SELECT pair_key, freq FROM bigram_freq WHERE pair_key >= ? AND pair_key < ?`, lo, hi)
	if err != nil {
		s.log.Warnf("userdict: read bigram_freq prefix(%q) failed: %v", w1, err)
		return map[string]uint64{}
	}
	defer rows.Close()

	out := map[string]uint64{}
	for rows.Next() {
		var key string
		var freq uint64
		if err := rows.Scan(&key, &freq); err != nil {
			s.log.Warnf("userdict: scan bigram_freq row failed: %v", err)
			continue
		}
		parts := strings.SplitN(key, "\x00", 2)
		if len(parts) != 2 {
			continue
		}
		out[parts[1]] = freq
	}
	return out
}

// Entry is one row of the phrase table, exposed for management commands.
type Entry struct {
	Phrase    string
	Frequency uint64
}

// ListAll returns every learned phrase, unordered.
func (s *Store) ListAll() ([]Entry, error) {
	rows, err := s.db.Query(`SELECT phrase, freq FROM phrase_freq`)
	if err != nil {
		return nil, imeerr.UserDict("userdict.ListAll", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// SearchByPrefix returns every learned phrase beginning with prefix.
func (s *Store) SearchByPrefix(prefix string) ([]Entry, error) {
	prefix = normalize(prefix)
	hi := prefix + "￿"
	rows, err := s.db.Query(`SELECT phrase, freq FROM phrase_freq WHERE phrase >= ? AND phrase < ?`, prefix, hi)
	if err != nil {
		return nil, imeerr.UserDict("userdict.SearchByPrefix", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Phrase, &e.Frequency); err != nil {
			return nil, imeerr.UserDict("userdict.scan", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// AddPhrase inserts or overwrites phrase's frequency directly, for
// management tooling rather than learning-from-input.
func (s *Store) AddPhrase(phrase string, freq uint64) error {
	phrase = normalize(phrase)
	return s.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO phrase_freq (phrase, freq) VALUES (?, ?)
			ON CONFLICT(phrase) DO UPDATE SET freq = excluded.freq
		`, phrase, freq)
		return err
	})
}

// DeletePhrase removes phrase from the User Dictionary entirely.
func (s *Store) DeletePhrase(phrase string) error {
	phrase = normalize(phrase)
	return s.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`DELETE FROM phrase_freq WHERE phrase = ?`, phrase)
		return err
	})
}

// UpdateFrequency overwrites phrase's stored frequency without touching
// bigram data, failing if the phrase has never been learned.
func (s *Store) UpdateFrequency(phrase string, freq uint64) error {
	phrase = normalize(phrase)
	return s.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`UPDATE phrase_freq SET freq = ? WHERE phrase = ?`, freq, phrase)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("phrase %q is not in the user dictionary", phrase)
		}
		return nil
	})
}

// withTx runs fn inside a BEGIN/COMMIT transaction, rolling back and
// wrapping the error on any failure. Write-path errors are surfaced to
// the caller, unlike the degrade-to-zero read path.
func (s *Store) withTx(fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return imeerr.UserDict("userdict.withTx", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return imeerr.UserDict("userdict.withTx", err)
	}
	if err := tx.Commit(); err != nil {
		return imeerr.UserDict("userdict.withTx", err)
	}
	return nil
}
