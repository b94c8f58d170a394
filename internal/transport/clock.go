package transport

import (
	"time"

	"qiyas/internal/domain"
)

// SystemClock implements domain.Clock against the real wall clock.
type SystemClock struct{}

// Now returns the current Unix timestamp in seconds.
func (SystemClock) Now() int64 { return time.Now().Unix() }

var _ domain.Clock = SystemClock{}
