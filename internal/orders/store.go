package orders

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("order not found")
	// ErrConflict means an insert collided on something other than the session id.
	ErrConflict = errors.New("order conflicts with an existing record")
)

// Store persists orders. CreateOrder is find-or-create keyed on SessionID:
// when an order for the session already exists it is returned with
// created=false and nothing is written.
type Store interface {
	CreateOrder(ctx context.Context, o Order) (out Order, created bool, err error)
	GetBySession(ctx context.Context, sessionID string) (Order, error)
	GetByNumber(ctx context.Context, number string) (Order, error)
}
