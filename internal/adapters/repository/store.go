// Package repository defines the result store interface and errors.
package repository

import (
	"context"

	"github.com/steadilab/steadi/internal/domain/model"
)

// Store provides read/write access to completed session results.
type Store interface {
	// Put records the immutable result of a finished session. Writing
	// the same session id twice overwrites the earlier record.
	Put(ctx context.Context, res model.Result) error

	// Get returns the result for a session.
	// Returns ErrNotFound if the session is unknown or unfinished.
	Get(ctx context.Context, sessionID string) (model.Result, error)

	// Recent returns up to n results, most recently completed first.
	Recent(ctx context.Context, n int) ([]model.Result, error)

	// Count returns the number of results stored.
	Count(ctx context.Context) int
}
