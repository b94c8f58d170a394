package store_test

import (
	"testing"

	"qiyas/internal/domain"
	"qiyas/internal/store"
)

func TestAccountFileStore_SaveLoad_OK(t *testing.T) {
	dir := t.TempDir()
	s := store.NewAccountFileStore(dir)

	profile := domain.AccountProfile{ServerURL: "https://relay.example", Username: "alice", Canary: "c-1"}
	if err := s.SaveAccountProfile(profile); err != nil {
		t.Fatalf("SaveAccountProfile: %v", err)
	}

	got, ok, err := s.LoadAccountProfile("https://relay.example", "alice")
	if err != nil {
		t.Fatalf("LoadAccountProfile: %v", err)
	}
	if !ok {
		t.Fatal("expected profile to be found")
	}
	if got != profile {
		t.Fatalf("got %+v, want %+v", got, profile)
	}
}

func TestAccountFileStore_SaveAccountProfile_RejectsMissingCanary(t *testing.T) {
	s := store.NewAccountFileStore(t.TempDir())

	profile := domain.AccountProfile{ServerURL: "https://relay.example", Username: "alice"}
	if err := s.SaveAccountProfile(profile); err != store.ErrMissingCanary {
		t.Fatalf("got %v, want ErrMissingCanary", err)
	}
}
