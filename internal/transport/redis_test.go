package transport

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// newTestRedisClient connects to a local Redis instance the way the rest of
// the pack's Redis-backed tests do. CI environments without Redis skip
// rather than fail.
func newTestRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 1})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("skipping: no local redis reachable: %v", err)
	}
	return client
}

func TestRedisTransport_PutGetRoundTrip(t *testing.T) {
	client := newTestRedisClient(t)
	defer client.Close()

	transport := NewRedisTransport(client, "qiyas-test")
	ctx := context.Background()

	var fragmentID [32]byte
	fragmentID[0] = 0x01
	payload := []byte("fragment payload")

	if err := transport.Put(ctx, fragmentID, payload, time.Now().Add(time.Minute).Unix()); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok, err := transport.Get(ctx, fragmentID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("expected the fragment to be found")
	}
	if string(got) != string(payload) {
		t.Fatalf("got %q, want %q", got, payload)
	}

	client.Del(ctx, transport.key(fragmentID))
}

func TestRedisTransport_GetMissing(t *testing.T) {
	client := newTestRedisClient(t)
	defer client.Close()

	transport := NewRedisTransport(client, "qiyas-test")
	var fragmentID [32]byte
	fragmentID[0] = 0xFF

	_, ok, err := transport.Get(context.Background(), fragmentID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatal("expected a missing fragment to report ok=false")
	}
}

func TestRedisTransport_PutExpiredTTLStillWritesWithMinimumTTL(t *testing.T) {
	client := newTestRedisClient(t)
	defer client.Close()

	transport := NewRedisTransport(client, "qiyas-test")
	ctx := context.Background()

	var fragmentID [32]byte
	fragmentID[0] = 0x02

	if err := transport.Put(ctx, fragmentID, []byte("x"), time.Now().Add(-time.Hour).Unix()); err != nil {
		t.Fatalf("Put: %v", err)
	}
	defer client.Del(ctx, transport.key(fragmentID))

	_, ok, err := transport.Get(ctx, fragmentID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("expected an already-expired-looking TTL to still be written with a minimum TTL")
	}
}
