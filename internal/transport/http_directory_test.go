package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"qiyas/internal/domain"
)

func TestHTTPDirectory_FetchBundle(t *testing.T) {
	want := domain.PreKeyBundle{
		Username:       "alice",
		SignedPreKeyID: 7,
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/directory/deadbeef" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(want)
	}))
	defer srv.Close()

	dir := NewHTTPDirectory(srv.URL, srv.Client())
	got, err := dir.FetchBundle(context.Background(), domain.Fingerprint("deadbeef"))
	if err != nil {
		t.Fatalf("FetchBundle: %v", err)
	}
	if got.Username != want.Username || got.SignedPreKeyID != want.SignedPreKeyID {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestHTTPDirectory_FetchBundle_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	dir := NewHTTPDirectory(srv.URL, srv.Client())
	if _, err := dir.FetchBundle(context.Background(), domain.Fingerprint("unknown")); err == nil {
		t.Fatal("expected an error for a non-200 directory response")
	}
}

func TestNewHTTPDirectory_DefaultsClient(t *testing.T) {
	dir := NewHTTPDirectory("http://example.invalid", nil)
	if dir.client != http.DefaultClient {
		t.Fatal("expected a nil client to default to http.DefaultClient")
	}
}
