package returns

import (
	"context"

	"github.com/google/uuid"

	"github.com/oms/backend/internal/domain/shared"
)

// Repository provides persistence for the customer return aggregate
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*CustomerReturn, error)
	FindByNumber(ctx context.Context, number string) (*CustomerReturn, error)
	FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]CustomerReturn, error)
	FindAll(ctx context.Context, filter Filter) (*shared.Paginated[CustomerReturn], error)
	Save(ctx context.Context, r *CustomerReturn) error
	SaveWithLock(ctx context.Context, r *CustomerReturn) error
	NextNumber(ctx context.Context) (string, error)
	// HasOpenItemForUnit reports whether any not-canceled return line
	// already claims the inventory unit, across all returns.
	HasOpenItemForUnit(ctx context.Context, unitID uuid.UUID) (bool, error)
}

// Filter describes the queryable attributes of return listings
type Filter struct {
	shared.Filter
	OrderID *uuid.UUID
	Number  string
}
