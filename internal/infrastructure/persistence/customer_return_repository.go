package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oms/backend/internal/domain/returns"
	"github.com/oms/backend/internal/domain/shared"
)

// ReturnSortFields contains allowed sort fields for return listings
var ReturnSortFields = map[string]bool{
	"id":         true,
	"number":     true,
	"created_at": true,
	"updated_at": true,
}

// GormCustomerReturnRepository implements returns.Repository using GORM
type GormCustomerReturnRepository struct {
	db          *gorm.DB
	outboxSaver shared.OutboxEventSaver // optional, for transactional outbox pattern
}

// NewGormCustomerReturnRepository creates a new GormCustomerReturnRepository
func NewGormCustomerReturnRepository(db *gorm.DB) *GormCustomerReturnRepository {
	return &GormCustomerReturnRepository{db: db}
}

// SetOutboxEventSaver sets the outbox event saver for transactional event publishing
func (r *GormCustomerReturnRepository) SetOutboxEventSaver(saver shared.OutboxEventSaver) {
	r.outboxSaver = saver
}

// FindByID finds a customer return by its ID
func (r *GormCustomerReturnRepository) FindByID(ctx context.Context, id uuid.UUID) (*returns.CustomerReturn, error) {
	var cr returns.CustomerReturn
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&cr, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("RETURN_NOT_FOUND", "Customer return not found")
		}
		return nil, err
	}
	return &cr, nil
}

// FindByNumber finds a customer return by its number
func (r *GormCustomerReturnRepository) FindByNumber(ctx context.Context, number string) (*returns.CustomerReturn, error) {
	var cr returns.CustomerReturn
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&cr, "number = ?", number).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("RETURN_NOT_FOUND", "Customer return not found")
		}
		return nil, err
	}
	return &cr, nil
}

// FindByOrderID finds all customer returns raised against an order
func (r *GormCustomerReturnRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]returns.CustomerReturn, error) {
	var crs []returns.CustomerReturn
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&crs).Error; err != nil {
		return nil, err
	}
	return crs, nil
}

// FindAll finds customer returns matching the filter with pagination
func (r *GormCustomerReturnRepository) FindAll(ctx context.Context, filter returns.Filter) (*shared.Paginated[returns.CustomerReturn], error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	query := r.db.WithContext(ctx).Model(&returns.CustomerReturn{})
	if filter.OrderID != nil {
		query = query.Where("order_id = ?", *filter.OrderID)
	}
	if filter.Number != "" {
		query = query.Where("number = ?", filter.Number)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	query = applySort(query, filter.Filter, ReturnSortFields)
	query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)

	var crs []returns.CustomerReturn
	if err := query.Preload("Items").Find(&crs).Error; err != nil {
		return nil, err
	}

	result := shared.NewPaginated(crs, total, filter.Page, filter.PageSize)
	return &result, nil
}

// Save persists the customer return and its items, writing pending domain
// events to the outbox in the same transaction
func (r *GormCustomerReturnRepository) Save(ctx context.Context, cr *returns.CustomerReturn) error {
	events := cr.GetDomainEvents()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cr.UpdatedAt = time.Now()
		if err := tx.Omit("Items").Save(cr).Error; err != nil {
			return err
		}
		if err := saveReturnItems(tx, cr); err != nil {
			return err
		}
		return r.saveEvents(ctx, tx, events)
	})
	if err != nil {
		return err
	}

	cr.ClearDomainEvents()
	return nil
}

// SaveWithLock persists the customer return only if its version still
// matches the stored row
func (r *GormCustomerReturnRepository) SaveWithLock(ctx context.Context, cr *returns.CustomerReturn) error {
	events := cr.GetDomainEvents()
	currentVersion := cr.Version

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cr.UpdatedAt = time.Now()

		result := tx.Model(&returns.CustomerReturn{}).
			Where("id = ? AND version = ?", cr.ID, currentVersion).
			Updates(map[string]interface{}{
				"memo":       cr.Memo,
				"version":    currentVersion + 1,
				"updated_at": cr.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		if err := saveReturnItems(tx, cr); err != nil {
			return err
		}
		return r.saveEvents(ctx, tx, events)
	})
	if err != nil {
		return err
	}

	cr.Version = currentVersion + 1
	cr.ClearDomainEvents()
	return nil
}

// saveReturnItems persists the return's items. Lines are never deleted;
// canceling a line flips its reception status instead.
func saveReturnItems(tx *gorm.DB, cr *returns.CustomerReturn) error {
	for i := range cr.Items {
		cr.Items[i].CustomerReturnID = cr.ID
		if err := tx.Save(&cr.Items[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *GormCustomerReturnRepository) saveEvents(ctx context.Context, tx *gorm.DB, events []shared.DomainEvent) error {
	if r.outboxSaver == nil || len(events) == 0 {
		return nil
	}
	if err := r.outboxSaver.SaveEvents(ctx, tx, events...); err != nil {
		return fmt.Errorf("failed to save events to outbox: %w", err)
	}
	return nil
}

// NextNumber generates the next return number.
// Format: RMA-YYYY-NNNNN (e.g., RMA-2026-00001)
func (r *GormCustomerReturnRepository) NextNumber(ctx context.Context) (string, error) {
	return nextSequenceNumber(ctx, r.db, &returns.CustomerReturn{}, "number", "RMA")
}

// HasOpenItemForUnit reports whether any not-canceled return line already
// claims the inventory unit, across all returns
func (r *GormCustomerReturnRepository) HasOpenItemForUnit(ctx context.Context, unitID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&returns.ReturnItem{}).
		Where("inventory_unit_id = ? AND reception_status <> ?", unitID, returns.ReceptionStatusCanceled).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Ensure GormCustomerReturnRepository implements returns.Repository
var _ returns.Repository = (*GormCustomerReturnRepository)(nil)
