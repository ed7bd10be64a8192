// Package positionstore persists per-track last-played positions in a
// small sqlite database — one store for music, a separate one for podcast
// episodes (spec.md §4.6: "Music positions live in a music database;
// podcast positions in a podcast database").
package positionstore

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite" // sqlite driver

	"github.com/llehouerou/wavesd/internal/db"
)

const appName = "waves"

const schema = `
CREATE TABLE IF NOT EXISTS positions (
	uri TEXT PRIMARY KEY,
	position_ms INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);`

// Store is a generalplayer.PositionStore backed by a sqlite file.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) a position store at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	sqldb, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := sqldb.Exec(p); err != nil {
			sqldb.Close()
			return nil, err
		}
	}

	if _, err := sqldb.Exec(schema); err != nil {
		sqldb.Close()
		return nil, err
	}

	return &Store{db: sqldb}, nil
}

// OpenMusicStore opens the default music position database under the XDG
// data directory.
func OpenMusicStore() (*Store, error) {
	path, err := xdg.DataFile(filepath.Join(appName, "music-positions.db"))
	if err != nil {
		return nil, err
	}
	return Open(path)
}

// OpenPodcastStore opens the default podcast position database under the
// XDG data directory.
func OpenPodcastStore() (*Store, error) {
	path, err := xdg.DataFile(filepath.Join(appName, "podcast-positions.db"))
	if err != nil {
		return nil, err
	}
	return Open(path)
}

// Close closes the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Load returns the saved position for uri, or (0, false) if none is
// recorded or the lookup failed.
func (s *Store) Load(uri string) (time.Duration, bool) {
	var ms int64
	if err := s.db.QueryRow(`SELECT position_ms FROM positions WHERE uri = ?`, uri).Scan(&ms); err != nil {
		return 0, false
	}
	return time.Duration(ms) * time.Millisecond, true
}

// Save upserts uri's position. A failure here is swallowed — a lost
// position-cache write must never interrupt playback.
func (s *Store) Save(uri string, pos time.Duration) {
	_ = db.WithTx(s.db, func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO positions (uri, position_ms, updated_at)
			VALUES (?, ?, ?)
			ON CONFLICT(uri) DO UPDATE SET
				position_ms = excluded.position_ms,
				updated_at = excluded.updated_at
		`, uri, pos.Milliseconds(), time.Now().Unix())
		return err
	})
}

// Reset clears uri's saved position so the next play starts fresh.
func (s *Store) Reset(uri string) {
	_, _ = s.db.Exec(`DELETE FROM positions WHERE uri = ?`, uri)
}
