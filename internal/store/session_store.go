package store

import (
	"path/filepath"
	"sync"

	"qiyas/internal/domain"
)

const sessionFile = "sessions.json"

// SessionFileStore persists per-peer X3DH session records as JSON on disk.
type SessionFileStore struct {
	dir string
	mu  sync.Mutex
}

// NewSessionFileStore returns a SessionFileStore rooted at dir.
func NewSessionFileStore(dir string) *SessionFileStore { return &SessionFileStore{dir: dir} }

// SaveSession persists session, replacing any prior record for peer.
func (s *SessionFileStore) SaveSession(peer domain.Username, session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, sessionFile)
	m := make(map[domain.Username]domain.Session)
	_ = readJSON(path, &m)
	m[peer] = session
	return writeJSON(path, m, 0o600)
}

// LoadSession returns the persisted session for peer, if any.
func (s *SessionFileStore) LoadSession(peer domain.Username) (domain.Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, sessionFile)
	m := make(map[domain.Username]domain.Session)
	if err := readJSON(path, &m); err != nil {
		return domain.Session{}, false, err
	}
	sess, ok := m[peer]
	return sess, ok, nil
}

var _ domain.SessionStore = (*SessionFileStore)(nil)
