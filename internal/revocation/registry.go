// Package revocation tracks tokens that must be rejected before their natural
// expiry. Entries only need to live until the token itself would lapse.
package revocation

import (
	"context"
	"fmt"
	"time"

	"github.com/cemlevent54/FileMate/internal/clock"
)

// Store persists revoked tokens keyed by their raw string.
type Store interface {
	Put(ctx context.Context, token string, expiresAt time.Time) error
	Contains(ctx context.Context, token string) (bool, error)
	// Sweep evicts entries that expired strictly before now.
	Sweep(ctx context.Context, now time.Time) (int, error)
}

// Sizer is implemented by stores that can report how many entries they hold.
type Sizer interface {
	Len() int
}

// ExpiryDecoder extracts the expiry claim of a token without requiring it to
// still be valid.
type ExpiryDecoder interface {
	ExpiresAt(token string) (time.Time, error)
}

type Registry struct {
	store   Store
	decoder ExpiryDecoder
	clock   clock.Clock
}

func NewRegistry(store Store, decoder ExpiryDecoder, clk clock.Clock) *Registry {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Registry{store: store, decoder: decoder, clock: clk}
}

// Revoke records token until its own expiry. Decoding errors are returned
// unwrapped so callers can match the codec's error kinds.
func (r *Registry) Revoke(ctx context.Context, token string) error {
	expiresAt, err := r.decoder.ExpiresAt(token)
	if err != nil {
		return err
	}
	if err := r.store.Put(ctx, token, expiresAt); err != nil {
		return fmt.Errorf("store revocation: %w", err)
	}
	return nil
}

func (r *Registry) IsRevoked(ctx context.Context, token string) (bool, error) {
	revoked, err := r.store.Contains(ctx, token)
	if err != nil {
		return false, fmt.Errorf("lookup revocation: %w", err)
	}
	return revoked, nil
}

func (r *Registry) Sweep(ctx context.Context) (int, error) {
	return r.store.Sweep(ctx, r.clock.Now())
}

// Len reports the entry count, or -1 when the store cannot tell.
func (r *Registry) Len() int {
	if s, ok := r.store.(Sizer); ok {
		return s.Len()
	}
	return -1
}
