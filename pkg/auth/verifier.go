package auth

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
)

// Verifier runs password derivation and verification under a bounded
// concurrency limit. PBKDF2 at 100k iterations is CPU-bound; an unbounded
// burst of login attempts would starve the request-serving goroutines.
type Verifier struct {
	sem *semaphore.Weighted
}

// NewVerifier creates a Verifier allowing at most maxConcurrent hash
// computations at a time.
func NewVerifier(maxConcurrent int64) *Verifier {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Verifier{sem: semaphore.NewWeighted(maxConcurrent)}
}

// Derive waits for a slot and derives a new (salt, hash) pair.
func (v *Verifier) Derive(ctx context.Context, password string) (salt, hash []byte, err error) {
	if err := v.sem.Acquire(ctx, 1); err != nil {
		return nil, nil, fmt.Errorf("acquire hashing slot: %w", err)
	}
	defer v.sem.Release(1)
	return Derive(password)
}

// Verify waits for a slot and checks password against the stored pair.
// Context cancellation reads as a failed verification together with the
// returned error.
func (v *Verifier) Verify(ctx context.Context, password string, salt, expected []byte) (bool, error) {
	if err := v.sem.Acquire(ctx, 1); err != nil {
		return false, fmt.Errorf("acquire hashing slot: %w", err)
	}
	defer v.sem.Release(1)
	return Verify(password, salt, expected), nil
}
