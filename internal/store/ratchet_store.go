package store

import (
	"path/filepath"
	"sync"

	"qiyas/internal/domain"
)

const convFile = "conversations.json"

// RatchetFileStore persists per-peer Double Ratchet conversation state as
// JSON on disk. Ratchet state updates are not required to be atomic across
// process restarts the way one-time pre-key consumption is (§5), so the
// teacher's temp-file-then-rename JSON pattern is sufficient here.
type RatchetFileStore struct {
	dir string
	mu  sync.Mutex
}

// NewRatchetFileStore returns a RatchetFileStore rooted at dir.
func NewRatchetFileStore(dir string) *RatchetFileStore { return &RatchetFileStore{dir: dir} }

// SaveConversation persists conv, replacing any prior state for its peer.
func (s *RatchetFileStore) SaveConversation(peer domain.ConversationID, conv domain.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, convFile)
	m := make(map[domain.ConversationID]domain.Conversation)
	_ = readJSON(path, &m)
	m[peer] = conv
	return writeJSON(path, m, 0o600)
}

// LoadConversation returns the persisted state for peer, if any.
func (s *RatchetFileStore) LoadConversation(peer domain.ConversationID) (domain.Conversation, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, convFile)
	m := make(map[domain.ConversationID]domain.Conversation)
	if err := readJSON(path, &m); err != nil {
		return domain.Conversation{}, false, err
	}
	c, ok := m[peer]
	return c, ok, nil
}

var _ domain.RatchetStore = (*RatchetFileStore)(nil)
