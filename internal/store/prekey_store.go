package store

import (
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"qiyas/internal/domain"
)

// SQLitePreKeyStore persists signed and one-time pre-keys in a SQLite
// database so that one-time pre-key consumption is a durable,
// crash-safe compare-and-remove (§4.2, §5): the delete and the return of the
// secret happen inside a single committed transaction, so a process crash
// between "consumed" and "reported to caller" cannot leave a key usable
// twice after restart.
type SQLitePreKeyStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLitePreKeyStore opens (creating if needed) the database at path and
// ensures its schema exists.
func NewSQLitePreKeyStore(path string) (*SQLitePreKeyStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("prekey store: open: %w", err)
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite serializes writers anyway

	s := &SQLitePreKeyStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLitePreKeyStore) Close() error { return s.db.Close() }

func (s *SQLitePreKeyStore) migrate() error {
	const schema = `
CREATE TABLE IF NOT EXISTS signed_prekeys (
	id   INTEGER PRIMARY KEY,
	priv BLOB NOT NULL,
	pub  BLOB NOT NULL,
	sig  BLOB NOT NULL
);
CREATE TABLE IF NOT EXISTS one_time_prekeys (
	id   INTEGER PRIMARY KEY,
	priv BLOB NOT NULL,
	pub  BLOB NOT NULL
);
CREATE TABLE IF NOT EXISTS prekey_meta (
	key   TEXT PRIMARY KEY,
	value INTEGER NOT NULL
);
`
	_, err := s.db.Exec(schema)
	return err
}

// SaveSignedPreKey stores a signed pre-key by id, replacing any prior entry
// with the same id.
func (s *SQLitePreKeyStore) SaveSignedPreKey(
	id domain.SignedPreKeyID,
	priv domain.X25519Private,
	pub domain.X25519Public,
	sig []byte,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO signed_prekeys (id, priv, pub, sig) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET priv = excluded.priv, pub = excluded.pub, sig = excluded.sig`,
		int64(id), priv.Slice(), pub.Slice(), sig,
	)
	return err
}

// LoadSignedPreKey retrieves a signed pre-key by id.
func (s *SQLitePreKeyStore) LoadSignedPreKey(
	id domain.SignedPreKeyID,
) (priv domain.X25519Private, pub domain.X25519Public, sig []byte, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var privB, pubB []byte
	row := s.db.QueryRow(`SELECT priv, pub, sig FROM signed_prekeys WHERE id = ?`, int64(id))
	if err = row.Scan(&privB, &pubB, &sig); err != nil {
		if err == sql.ErrNoRows {
			return priv, pub, nil, false, nil
		}
		return priv, pub, nil, false, err
	}
	copy(priv[:], privB)
	copy(pub[:], pubB)
	return priv, pub, sig, true, nil
}

// ReserveOneTimePreKeyIDs atomically allocates count consecutive one-time
// pre-key IDs from a persisted counter, starting at 1 and never reused
// across calls even if the previous batch is fully consumed or never
// saved (§3, §9: wrap-around into domain.NoOneTimePreKeyID is disallowed).
func (s *SQLitePreKeyStore) ReserveOneTimePreKeyIDs(count int) ([]domain.OneTimePreKeyID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if count <= 0 {
		return nil, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var next int64 = 1
	row := tx.QueryRow(`SELECT value FROM prekey_meta WHERE key = 'next_otk_id'`)
	if err := row.Scan(&next); err != nil {
		if err != sql.ErrNoRows {
			return nil, err
		}
		next = 1
	}

	last := next + int64(count) - 1
	if last >= int64(domain.NoOneTimePreKeyID) {
		return nil, fmt.Errorf("prekey store: one-time pre-key id space exhausted")
	}

	ids := make([]domain.OneTimePreKeyID, count)
	for i := 0; i < count; i++ {
		ids[i] = domain.OneTimePreKeyID(next + int64(i))
	}

	if _, err := tx.Exec(
		`INSERT INTO prekey_meta (key, value) VALUES ('next_otk_id', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		last+1,
	); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return ids, nil
}

// SaveOneTimePreKeys inserts a batch of freshly generated one-time pre-keys.
func (s *SQLitePreKeyStore) SaveOneTimePreKeys(pairs []domain.OneTimePreKeyPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO one_time_prekeys (id, priv, pub) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range pairs {
		if _, err := stmt.Exec(int64(p.ID), p.Priv.Slice(), p.Pub.Slice()); err != nil {
			return fmt.Errorf("prekey store: insert one-time prekey %d: %w", p.ID, err)
		}
	}
	return tx.Commit()
}

// ConsumeOneTimePreKey atomically removes and returns the one-time pre-key
// secret for id. A second call for the same id returns ok=false, enforcing
// single use (§4.2, §8).
func (s *SQLitePreKeyStore) ConsumeOneTimePreKey(
	id domain.OneTimePreKeyID,
) (priv domain.X25519Private, pub domain.X25519Public, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return priv, pub, false, err
	}
	defer tx.Rollback()

	var privB, pubB []byte
	row := tx.QueryRow(`SELECT priv, pub FROM one_time_prekeys WHERE id = ?`, int64(id))
	if err = row.Scan(&privB, &pubB); err != nil {
		if err == sql.ErrNoRows {
			return priv, pub, false, nil
		}
		return priv, pub, false, err
	}
	if _, err = tx.Exec(`DELETE FROM one_time_prekeys WHERE id = ?`, int64(id)); err != nil {
		return priv, pub, false, err
	}
	if err = tx.Commit(); err != nil {
		return priv, pub, false, err
	}
	copy(priv[:], privB)
	copy(pub[:], pubB)
	return priv, pub, true, nil
}

// ListOneTimePreKeyPublics exposes only the public halves for bundling.
func (s *SQLitePreKeyStore) ListOneTimePreKeyPublics() ([]domain.OneTimePreKeyPublic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT id, pub FROM one_time_prekeys ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.OneTimePreKeyPublic
	for rows.Next() {
		var id int64
		var pubB []byte
		if err := rows.Scan(&id, &pubB); err != nil {
			return nil, err
		}
		var pub domain.X25519Public
		copy(pub[:], pubB)
		out = append(out, domain.OneTimePreKeyPublic{ID: domain.OneTimePreKeyID(id), Pub: pub})
	}
	return out, rows.Err()
}

// SetCurrentSignedPreKeyID records which signed pre-key id is current.
func (s *SQLitePreKeyStore) SetCurrentSignedPreKeyID(id domain.SignedPreKeyID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO prekey_meta (key, value) VALUES ('current_spk_id', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		int64(id),
	)
	return err
}

// CurrentSignedPreKeyID returns the recorded current signed pre-key id.
func (s *SQLitePreKeyStore) CurrentSignedPreKeyID() (domain.SignedPreKeyID, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var v int64
	row := s.db.QueryRow(`SELECT value FROM prekey_meta WHERE key = 'current_spk_id'`)
	if err := row.Scan(&v); err != nil {
		if err == sql.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, err
	}
	return domain.SignedPreKeyID(v), true, nil
}

var _ domain.PreKeyStore = (*SQLitePreKeyStore)(nil)
