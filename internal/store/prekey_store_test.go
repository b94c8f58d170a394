package store_test

import (
	"path/filepath"
	"testing"

	"qiyas/internal/domain"
	"qiyas/internal/store"
)

func openPreKeyStore(t *testing.T) *store.SQLitePreKeyStore {
	t.Helper()
	s, err := store.NewSQLitePreKeyStore(filepath.Join(t.TempDir(), "prekeys.db"))
	if err != nil {
		t.Fatalf("NewSQLitePreKeyStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPreKeyStore_ReserveOneTimePreKeyIDs_StartsAtOne(t *testing.T) {
	s := openPreKeyStore(t)

	ids, err := s.ReserveOneTimePreKeyIDs(3)
	if err != nil {
		t.Fatalf("ReserveOneTimePreKeyIDs: %v", err)
	}
	want := []domain.OneTimePreKeyID{1, 2, 3}
	if len(ids) != len(want) {
		t.Fatalf("got %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("got %v, want %v", ids, want)
		}
	}
}

// TestPreKeyStore_ReserveOneTimePreKeyIDs_NeverReissues models the
// register -> rotate-spk -> rotate-spk sequence a maintainer flagged: a
// second and third reservation must continue from where the last one left
// off even if none of the previously reserved keys were ever consumed.
func TestPreKeyStore_ReserveOneTimePreKeyIDs_NeverReissues(t *testing.T) {
	s := openPreKeyStore(t)

	first, err := s.ReserveOneTimePreKeyIDs(5)
	if err != nil {
		t.Fatalf("reserve #1: %v", err)
	}
	second, err := s.ReserveOneTimePreKeyIDs(5)
	if err != nil {
		t.Fatalf("reserve #2: %v", err)
	}
	third, err := s.ReserveOneTimePreKeyIDs(2)
	if err != nil {
		t.Fatalf("reserve #3: %v", err)
	}

	seen := make(map[domain.OneTimePreKeyID]bool)
	for _, batch := range [][]domain.OneTimePreKeyID{first, second, third} {
		for _, id := range batch {
			if seen[id] {
				t.Fatalf("id %d reissued across reservations", id)
			}
			seen[id] = true
		}
	}
	if len(second) != 5 || second[0] != 6 {
		t.Fatalf("reserve #2 = %v, want starting at 6", second)
	}
	if len(third) != 2 || third[0] != 11 {
		t.Fatalf("reserve #3 = %v, want starting at 11", third)
	}
}

// TestPreKeyStore_SaveOneTimePreKeys_AfterReserve_NoCollision simulates the
// reported failure mode directly: generate-and-store, then rotate without
// consuming the first batch, and verify the second save never collides on
// the one_time_prekeys primary key.
func TestPreKeyStore_SaveOneTimePreKeys_AfterReserve_NoCollision(t *testing.T) {
	s := openPreKeyStore(t)

	saveBatch := func(n int) {
		ids, err := s.ReserveOneTimePreKeyIDs(n)
		if err != nil {
			t.Fatalf("reserve: %v", err)
		}
		pairs := make([]domain.OneTimePreKeyPair, n)
		for i, id := range ids {
			pairs[i] = domain.OneTimePreKeyPair{ID: id}
		}
		if err := s.SaveOneTimePreKeys(pairs); err != nil {
			t.Fatalf("SaveOneTimePreKeys: %v", err)
		}
	}

	saveBatch(4) // register
	saveBatch(4) // rotate-spk, none of the first batch consumed
	saveBatch(4) // rotate-spk again

	publics, err := s.ListOneTimePreKeyPublics()
	if err != nil {
		t.Fatalf("ListOneTimePreKeyPublics: %v", err)
	}
	if len(publics) != 12 {
		t.Fatalf("got %d one-time pre-keys, want 12", len(publics))
	}
}
