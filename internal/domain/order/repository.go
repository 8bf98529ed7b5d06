package order

import (
	"context"

	"github.com/google/uuid"

	"github.com/oms/backend/internal/domain/shared"
)

// Repository provides persistence for the order aggregate
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindByNumber(ctx context.Context, number string) (*Order, error)
	FindAll(ctx context.Context, filter Filter) (*shared.Paginated[Order], error)
	Save(ctx context.Context, o *Order) error
	// SaveWithLock persists the aggregate only if its version still matches
	// the stored row, bumping the version on success. A stale version
	// returns shared.ErrConcurrencyConflict.
	SaveWithLock(ctx context.Context, o *Order) error
	NextNumber(ctx context.Context) (string, error)
	CountByState(ctx context.Context, state State) (int64, error)
}

// Filter describes the queryable attributes of order listings
type Filter struct {
	shared.Filter
	State  *State
	Number string
}
