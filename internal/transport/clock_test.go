package transport

import (
	"testing"
	"time"
)

func TestSystemClock_NowMatchesWallClock(t *testing.T) {
	before := time.Now().Unix()
	got := SystemClock{}.Now()
	after := time.Now().Unix()

	if got < before || got > after {
		t.Fatalf("SystemClock.Now() = %d, want between %d and %d", got, before, after)
	}
}
