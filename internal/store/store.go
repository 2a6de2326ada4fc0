// Package store persists events.
package store

import (
	"context"
	"errors"

	"github.com/tartampluch/go-eventtracker/internal/config"
	"github.com/tartampluch/go-eventtracker/internal/engine"
)

// ErrNotFound is returned when no event has the requested identifier.
var ErrNotFound = errors.New(config.ErrStoreNotFound)

// Store is the persistence boundary of the application.
// Implementations must be safe for concurrent use.
type Store interface {
	// List returns every event. The order is unspecified.
	List(ctx context.Context) ([]engine.Event, error)
	Get(ctx context.Context, id int64) (engine.Event, error)
	// Insert ignores ev.ID and returns the event with its assigned identifier.
	Insert(ctx context.Context, ev engine.Event) (engine.Event, error)
	Update(ctx context.Context, ev engine.Event) error
	Delete(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) error
	Close() error
}
