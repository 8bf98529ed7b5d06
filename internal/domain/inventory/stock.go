package inventory

import (
	"context"

	"github.com/google/uuid"
)

// Reservation is the result of asking the stock ledger for quantity at a
// location: how many physical units were actually reserved, and whether the
// remainder may be promised as backorders.
type Reservation struct {
	Reserved      int
	Backorderable bool
}

// StockLedger tracks available quantity per variant per location. Reserve
// decrements availability (up to the requested count); Restock puts
// released or returned units back.
type StockLedger interface {
	Reserve(ctx context.Context, locationID, variantID uuid.UUID, count int) (Reservation, error)
	Restock(ctx context.Context, locationID, variantID uuid.UUID, count int) error
}

// StockLocationResolver picks the stock location a new shipment dispatches
// from. Location selection strategy lives outside this system.
type StockLocationResolver interface {
	DefaultOrSelectedLocation(ctx context.Context, orderID uuid.UUID) (uuid.UUID, error)
}
