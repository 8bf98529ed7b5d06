package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oms/backend/internal/domain/order"
	"github.com/oms/backend/internal/domain/shared"
)

// OrderSortFields contains allowed sort fields for order listings
var OrderSortFields = map[string]bool{
	"id":          true,
	"number":      true,
	"state":       true,
	"total_cents": true,
	"created_at":  true,
	"updated_at":  true,
}

// GormOrderRepository implements order.Repository using GORM
type GormOrderRepository struct {
	db          *gorm.DB
	outboxSaver shared.OutboxEventSaver // optional, for transactional outbox pattern
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// SetOutboxEventSaver sets the outbox event saver for transactional event publishing
func (r *GormOrderRepository) SetOutboxEventSaver(saver shared.OutboxEventSaver) {
	r.outboxSaver = saver
}

// FindByID finds an order by its ID
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var o order.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&o, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("ORDER_NOT_FOUND", "Order not found")
		}
		return nil, err
	}
	return &o, nil
}

// FindByNumber finds an order by its human-facing number
func (r *GormOrderRepository) FindByNumber(ctx context.Context, number string) (*order.Order, error) {
	var o order.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&o, "number = ?", number).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("ORDER_NOT_FOUND", "Order not found")
		}
		return nil, err
	}
	return &o, nil
}

// FindAll finds orders matching the filter with pagination
func (r *GormOrderRepository) FindAll(ctx context.Context, filter order.Filter) (*shared.Paginated[order.Order], error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	query := r.db.WithContext(ctx).Model(&order.Order{})
	if filter.State != nil {
		query = query.Where("state = ?", *filter.State)
	}
	if filter.Number != "" {
		query = query.Where("number = ?", filter.Number)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	query = applySort(query, filter.Filter, OrderSortFields)
	query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)

	var orders []order.Order
	if err := query.Preload("Items").Find(&orders).Error; err != nil {
		return nil, err
	}

	result := shared.NewPaginated(orders, total, filter.Page, filter.PageSize)
	return &result, nil
}

// Save persists the order and its line items, writing pending domain events
// to the outbox in the same transaction
func (r *GormOrderRepository) Save(ctx context.Context, o *order.Order) error {
	events := o.GetDomainEvents()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o.UpdatedAt = time.Now()
		if err := tx.Omit("Items").Save(o).Error; err != nil {
			return err
		}
		if err := saveOrderItems(tx, o); err != nil {
			return err
		}
		return r.saveEvents(ctx, tx, events)
	})
	if err != nil {
		return err
	}

	o.ClearDomainEvents()
	return nil
}

// SaveWithLock persists the order only if its version still matches the
// stored row. A stale version returns shared.ErrConcurrencyConflict without
// writing anything, including events.
func (r *GormOrderRepository) SaveWithLock(ctx context.Context, o *order.Order) error {
	events := o.GetDomainEvents()
	currentVersion := o.Version

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o.UpdatedAt = time.Now()

		result := tx.Model(&order.Order{}).
			Where("id = ? AND version = ?", o.ID, currentVersion).
			Updates(map[string]interface{}{
				"number":                 o.Number,
				"currency_code":          o.CurrencyCode,
				"state":                  o.State,
				"ship_address_id":        o.ShipAddressID,
				"bill_address_id":        o.BillAddressID,
				"shipping_method_id":     o.ShippingMethodID,
				"item_total_cents":       o.ItemTotalCents,
				"shipment_total_cents":   o.ShipmentTotalCents,
				"adjustment_total_cents": o.AdjustmentTotalCents,
				"total_cents":            o.TotalCents,
				"completed_at":           o.CompletedAt,
				"canceled_at":            o.CanceledAt,
				"cancel_reason":          o.CancelReason,
				"version":                currentVersion + 1,
				"updated_at":             o.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		if err := saveOrderItems(tx, o); err != nil {
			return err
		}
		return r.saveEvents(ctx, tx, events)
	})
	if err != nil {
		return err
	}

	o.Version = currentVersion + 1
	o.ClearDomainEvents()
	return nil
}

// saveOrderItems replaces the persisted line items with the aggregate's
// current set
func saveOrderItems(tx *gorm.DB, o *order.Order) error {
	currentItemIDs := make([]uuid.UUID, len(o.Items))
	for i, item := range o.Items {
		currentItemIDs[i] = item.ID
	}

	if len(currentItemIDs) > 0 {
		if err := tx.Where("order_id = ? AND id NOT IN ?", o.ID, currentItemIDs).
			Delete(&order.LineItem{}).Error; err != nil {
			return err
		}
	} else {
		if err := tx.Where("order_id = ?", o.ID).
			Delete(&order.LineItem{}).Error; err != nil {
			return err
		}
	}

	for i := range o.Items {
		o.Items[i].OrderID = o.ID
		if err := tx.Save(&o.Items[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *GormOrderRepository) saveEvents(ctx context.Context, tx *gorm.DB, events []shared.DomainEvent) error {
	if r.outboxSaver == nil || len(events) == 0 {
		return nil
	}
	if err := r.outboxSaver.SaveEvents(ctx, tx, events...); err != nil {
		return fmt.Errorf("failed to save events to outbox: %w", err)
	}
	return nil
}

// NextNumber generates the next order number.
// Format: R-YYYY-NNNNN (e.g., R-2026-00001)
func (r *GormOrderRepository) NextNumber(ctx context.Context) (string, error) {
	return nextSequenceNumber(ctx, r.db, &order.Order{}, "number", "R")
}

// CountByState counts orders in the given state
func (r *GormOrderRepository) CountByState(ctx context.Context, state order.State) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&order.Order{}).
		Where("state = ?", state).
		Count(&count).Error
	return count, err
}

// applySort applies whitelisted ordering from the filter
func applySort(query *gorm.DB, filter shared.Filter, allowed map[string]bool) *gorm.DB {
	orderBy := filter.OrderBy
	if orderBy == "" || !allowed[orderBy] {
		orderBy = "created_at"
	}
	dir := "DESC"
	if strings.EqualFold(filter.OrderDir, "asc") {
		dir = "ASC"
	}
	return query.Order(fmt.Sprintf("%s %s", orderBy, dir))
}

// nextSequenceNumber generates the next number in a yearly sequence for the
// given model's number column.
// Format: PREFIX-YYYY-NNNNN
func nextSequenceNumber(ctx context.Context, db *gorm.DB, model interface{}, column, prefix string) (string, error) {
	year := time.Now().Year()
	yearPrefix := fmt.Sprintf("%s-%d-", prefix, year)

	var last string
	err := db.WithContext(ctx).Model(model).
		Select(column).
		Where(column+" LIKE ?", yearPrefix+"%").
		Order(column + " DESC").
		Limit(1).
		Scan(&last).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	var nextNum int64 = 1
	if last != "" {
		parts := strings.Split(last, "-")
		if len(parts) == 3 {
			var num int64
			if _, parseErr := fmt.Sscanf(parts[2], "%d", &num); parseErr == nil {
				nextNum = num + 1
			}
		}
	}

	return fmt.Sprintf("%s%05d", yearPrefix, nextNum), nil
}

// Ensure GormOrderRepository implements order.Repository
var _ order.Repository = (*GormOrderRepository)(nil)
