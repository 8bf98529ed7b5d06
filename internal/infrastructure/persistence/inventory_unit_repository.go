package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oms/backend/internal/domain/inventory"
	"github.com/oms/backend/internal/domain/shared"
)

// GormUnitRepository implements inventory.UnitRepository using GORM
type GormUnitRepository struct {
	db          *gorm.DB
	outboxSaver shared.OutboxEventSaver // optional, for transactional outbox pattern
}

// NewGormUnitRepository creates a new GormUnitRepository
func NewGormUnitRepository(db *gorm.DB) *GormUnitRepository {
	return &GormUnitRepository{db: db}
}

// SetOutboxEventSaver sets the outbox event saver for transactional event publishing
func (r *GormUnitRepository) SetOutboxEventSaver(saver shared.OutboxEventSaver) {
	r.outboxSaver = saver
}

// FindByID finds an inventory unit by its ID
func (r *GormUnitRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.InventoryUnit, error) {
	var u inventory.InventoryUnit
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("INVENTORY_UNIT_NOT_FOUND", "Inventory unit not found")
		}
		return nil, err
	}
	return &u, nil
}

// FindByOrderID finds all inventory units belonging to an order
func (r *GormUnitRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]inventory.InventoryUnit, error) {
	var units []inventory.InventoryUnit
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&units).Error; err != nil {
		return nil, err
	}
	return units, nil
}

// FindByLineItemID finds all inventory units created for a line item
func (r *GormUnitRepository) FindByLineItemID(ctx context.Context, lineItemID uuid.UUID) ([]inventory.InventoryUnit, error) {
	var units []inventory.InventoryUnit
	if err := r.db.WithContext(ctx).
		Where("line_item_id = ?", lineItemID).
		Order("created_at ASC").
		Find(&units).Error; err != nil {
		return nil, err
	}
	return units, nil
}

// FindByShipmentID finds all inventory units attached to a shipment
func (r *GormUnitRepository) FindByShipmentID(ctx context.Context, shipmentID uuid.UUID) ([]inventory.InventoryUnit, error) {
	var units []inventory.InventoryUnit
	if err := r.db.WithContext(ctx).
		Where("shipment_id = ?", shipmentID).
		Order("created_at ASC").
		Find(&units).Error; err != nil {
		return nil, err
	}
	return units, nil
}

// Save persists the inventory unit, writing pending domain events to the
// outbox in the same transaction
func (r *GormUnitRepository) Save(ctx context.Context, u *inventory.InventoryUnit) error {
	events := u.GetDomainEvents()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u.UpdatedAt = time.Now()
		if err := tx.Save(u).Error; err != nil {
			return err
		}
		return r.saveEvents(ctx, tx, events)
	})
	if err != nil {
		return err
	}

	u.ClearDomainEvents()
	return nil
}

// SaveWithLock persists the unit only if its version still matches the
// stored row
func (r *GormUnitRepository) SaveWithLock(ctx context.Context, u *inventory.InventoryUnit) error {
	events := u.GetDomainEvents()
	currentVersion := u.Version

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u.UpdatedAt = time.Now()

		result := tx.Model(&inventory.InventoryUnit{}).
			Where("id = ? AND version = ?", u.ID, currentVersion).
			Updates(map[string]interface{}{
				"shipment_id":             u.ShipmentID,
				"state":                   u.State,
				"original_return_item_id": u.OriginalReturnItemID,
				"version":                 currentVersion + 1,
				"updated_at":              u.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		return r.saveEvents(ctx, tx, events)
	})
	if err != nil {
		return err
	}

	u.Version = currentVersion + 1
	u.ClearDomainEvents()
	return nil
}

func (r *GormUnitRepository) saveEvents(ctx context.Context, tx *gorm.DB, events []shared.DomainEvent) error {
	if r.outboxSaver == nil || len(events) == 0 {
		return nil
	}
	if err := r.outboxSaver.SaveEvents(ctx, tx, events...); err != nil {
		return fmt.Errorf("failed to save events to outbox: %w", err)
	}
	return nil
}

// CountByState counts inventory units in the given state
func (r *GormUnitRepository) CountByState(ctx context.Context, state inventory.UnitState) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&inventory.InventoryUnit{}).
		Where("state = ?", state).
		Count(&count).Error
	return count, err
}

// Ensure GormUnitRepository implements inventory.UnitRepository
var _ inventory.UnitRepository = (*GormUnitRepository)(nil)
