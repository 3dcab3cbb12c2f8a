// Package lockstore holds quoted swap previews under short-lived rate
// locks. A lock is redeemable at most once and never after its expiry,
// even if no sweep has run yet.
package lockstore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/obohaghogho/fxwallet/pkg/domain"
)

// Clock abstracts wall-clock reads so expiry is testable.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the real wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// Store maps lock ids to locked previews.
//
// Take is linearizable per key: of any number of concurrent takers of the
// same id, exactly one observes the preview and the rest observe nil.
// Peek never consumes and both Peek and Take re-check expiry against the
// wall clock on every read.
type Store interface {
	// Put stores the preview under its lock id until the preview's
	// ExpiresAt timestamp.
	Put(ctx context.Context, preview *domain.SwapPreview) error

	// Peek returns the preview without consuming it, or nil when the id is
	// unknown or expired.
	Peek(ctx context.Context, lockID uuid.UUID) (*domain.SwapPreview, error)

	// Take atomically removes and returns the preview, or nil when the id
	// is unknown, already consumed, or expired.
	Take(ctx context.Context, lockID uuid.UUID) (*domain.SwapPreview, error)
}
