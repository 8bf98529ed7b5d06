package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oms/backend/internal/domain/inventory"
	"github.com/oms/backend/internal/domain/shared"
)

// StockLocation is a warehouse or fulfillment point shipments dispatch from
type StockLocation struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"not null"`
	Code      string    `gorm:"uniqueIndex;not null"`
	IsDefault bool      `gorm:"not null;default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName returns the table name for GORM
func (StockLocation) TableName() string {
	return "stock_locations"
}

// StockLevel is the on-hand count of one variant at one location
type StockLevel struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	LocationID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_stock_levels_location_variant"`
	VariantID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_stock_levels_location_variant"`
	OnHand        int       `gorm:"not null;default:0"`
	Backorderable bool      `gorm:"not null;default:false"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName returns the table name for GORM
func (StockLevel) TableName() string {
	return "stock_levels"
}

// GormStockLedger implements inventory.StockLedger against the stock_levels
// table
type GormStockLedger struct {
	db *gorm.DB
}

// NewGormStockLedger creates a new GormStockLedger
func NewGormStockLedger(db *gorm.DB) *GormStockLedger {
	return &GormStockLedger{db: db}
}

// Reserve decrements availability by up to count units. A missing level row
// counts as zero on hand and not backorderable. The decrement is guarded by
// the on-hand value read in the same transaction, so concurrent reservations
// of the last units cannot both win.
func (l *GormStockLedger) Reserve(ctx context.Context, locationID, variantID uuid.UUID, count int) (inventory.Reservation, error) {
	if count <= 0 {
		return inventory.Reservation{}, shared.NewValidationError("INVALID_QUANTITY", "Reservation count must be positive")
	}

	var out inventory.Reservation
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var level StockLevel
		if err := tx.Where("location_id = ? AND variant_id = ?", locationID, variantID).
			First(&level).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				out = inventory.Reservation{Reserved: 0, Backorderable: false}
				return nil
			}
			return err
		}

		reserved := count
		if level.OnHand < reserved {
			reserved = level.OnHand
		}

		if reserved > 0 {
			result := tx.Model(&StockLevel{}).
				Where("id = ? AND on_hand >= ?", level.ID, reserved).
				Updates(map[string]interface{}{
					"on_hand":    gorm.Expr("on_hand - ?", reserved),
					"updated_at": time.Now(),
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return shared.ErrConcurrencyConflict
			}
		}

		out = inventory.Reservation{Reserved: reserved, Backorderable: level.Backorderable}
		return nil
	})
	return out, err
}

// Restock puts released or returned units back on hand, creating the level
// row if the variant was never stocked at the location
func (l *GormStockLedger) Restock(ctx context.Context, locationID, variantID uuid.UUID, count int) error {
	if count <= 0 {
		return shared.NewValidationError("INVALID_QUANTITY", "Restock count must be positive")
	}

	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&StockLevel{}).
			Where("location_id = ? AND variant_id = ?", locationID, variantID).
			Updates(map[string]interface{}{
				"on_hand":    gorm.Expr("on_hand + ?", count),
				"updated_at": time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			return nil
		}

		level := StockLevel{
			ID:         uuid.New(),
			LocationID: locationID,
			VariantID:  variantID,
			OnHand:     count,
			CreatedAt:  time.Now(),
			UpdatedAt:  time.Now(),
		}
		return tx.Create(&level).Error
	})
}

// Ensure GormStockLedger implements inventory.StockLedger
var _ inventory.StockLedger = (*GormStockLedger)(nil)

// GormStockLocationResolver implements inventory.StockLocationResolver by
// picking the default stock location. Per-order location selection lives
// outside this system.
type GormStockLocationResolver struct {
	db *gorm.DB
}

// NewGormStockLocationResolver creates a new GormStockLocationResolver
func NewGormStockLocationResolver(db *gorm.DB) *GormStockLocationResolver {
	return &GormStockLocationResolver{db: db}
}

// DefaultOrSelectedLocation returns the default stock location, falling back
// to the oldest one when no default is flagged
func (r *GormStockLocationResolver) DefaultOrSelectedLocation(ctx context.Context, orderID uuid.UUID) (uuid.UUID, error) {
	var loc StockLocation
	err := r.db.WithContext(ctx).
		Where("is_default = ?", true).
		Order("created_at ASC").
		First(&loc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = r.db.WithContext(ctx).Order("created_at ASC").First(&loc).Error
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, shared.NewFailureError("NO_STOCK_LOCATION", "No stock location is configured")
		}
		return uuid.Nil, err
	}
	return loc.ID, nil
}

// Ensure GormStockLocationResolver implements inventory.StockLocationResolver
var _ inventory.StockLocationResolver = (*GormStockLocationResolver)(nil)
