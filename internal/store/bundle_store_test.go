package store_test

import (
	"testing"

	"qiyas/internal/domain"
	"qiyas/internal/store"
)

func TestBundleFileStore_SaveLoad_OK(t *testing.T) {
	s := store.NewBundleFileStore(t.TempDir())

	bundle := domain.PreKeyBundle{Username: "alice", SignedPreKeyID: 1}
	if err := s.SavePreKeyBundle(bundle); err != nil {
		t.Fatalf("SavePreKeyBundle: %v", err)
	}

	got, ok, err := s.LoadPreKeyBundle("alice")
	if err != nil {
		t.Fatalf("LoadPreKeyBundle: %v", err)
	}
	if !ok {
		t.Fatal("expected bundle to be found")
	}
	if got.Username != bundle.Username || got.SignedPreKeyID != bundle.SignedPreKeyID {
		t.Fatalf("got %+v, want %+v", got, bundle)
	}
}

func TestBundleFileStore_SavePreKeyBundle_RejectsMissingUsername(t *testing.T) {
	s := store.NewBundleFileStore(t.TempDir())

	if err := s.SavePreKeyBundle(domain.PreKeyBundle{}); err != store.ErrMissingUsername {
		t.Fatalf("got %v, want ErrMissingUsername", err)
	}
}
