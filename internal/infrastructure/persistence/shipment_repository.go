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

// ShipmentSortFields contains allowed sort fields for shipment listings
var ShipmentSortFields = map[string]bool{
	"id":         true,
	"number":     true,
	"state":      true,
	"created_at": true,
	"updated_at": true,
}

// GormShipmentRepository implements inventory.ShipmentRepository using GORM
type GormShipmentRepository struct {
	db          *gorm.DB
	outboxSaver shared.OutboxEventSaver // optional, for transactional outbox pattern
}

// NewGormShipmentRepository creates a new GormShipmentRepository
func NewGormShipmentRepository(db *gorm.DB) *GormShipmentRepository {
	return &GormShipmentRepository{db: db}
}

// SetOutboxEventSaver sets the outbox event saver for transactional event publishing
func (r *GormShipmentRepository) SetOutboxEventSaver(saver shared.OutboxEventSaver) {
	r.outboxSaver = saver
}

// FindByID finds a shipment by its ID
func (r *GormShipmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Shipment, error) {
	var s inventory.Shipment
	if err := r.db.WithContext(ctx).
		Preload("Units").
		First(&s, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("SHIPMENT_NOT_FOUND", "Shipment not found")
		}
		return nil, err
	}
	return &s, nil
}

// FindByNumber finds a shipment by its number
func (r *GormShipmentRepository) FindByNumber(ctx context.Context, number string) (*inventory.Shipment, error) {
	var s inventory.Shipment
	if err := r.db.WithContext(ctx).
		Preload("Units").
		First(&s, "number = ?", number).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("SHIPMENT_NOT_FOUND", "Shipment not found")
		}
		return nil, err
	}
	return &s, nil
}

// FindByOrderID finds all shipments belonging to an order
func (r *GormShipmentRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]inventory.Shipment, error) {
	var shipments []inventory.Shipment
	if err := r.db.WithContext(ctx).
		Preload("Units").
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&shipments).Error; err != nil {
		return nil, err
	}
	return shipments, nil
}

// FindAll finds shipments matching the filter with pagination
func (r *GormShipmentRepository) FindAll(ctx context.Context, filter inventory.ShipmentFilter) (*shared.Paginated[inventory.Shipment], error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	query := r.db.WithContext(ctx).Model(&inventory.Shipment{})
	if filter.OrderID != nil {
		query = query.Where("order_id = ?", *filter.OrderID)
	}
	if filter.State != nil {
		query = query.Where("state = ?", *filter.State)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	query = applySort(query, filter.Filter, ShipmentSortFields)
	query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)

	var shipments []inventory.Shipment
	if err := query.Preload("Units").Find(&shipments).Error; err != nil {
		return nil, err
	}

	result := shared.NewPaginated(shipments, total, filter.Page, filter.PageSize)
	return &result, nil
}

// Save persists the shipment and its units, writing pending domain events to
// the outbox in the same transaction
func (r *GormShipmentRepository) Save(ctx context.Context, s *inventory.Shipment) error {
	events := s.GetDomainEvents()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		s.UpdatedAt = time.Now()
		if err := tx.Omit("Units").Save(s).Error; err != nil {
			return err
		}
		if err := saveShipmentUnits(tx, s); err != nil {
			return err
		}
		return r.saveEvents(ctx, tx, events)
	})
	if err != nil {
		return err
	}

	s.ClearDomainEvents()
	return nil
}

// SaveWithLock persists the shipment only if its version still matches the
// stored row
func (r *GormShipmentRepository) SaveWithLock(ctx context.Context, s *inventory.Shipment) error {
	events := s.GetDomainEvents()
	currentVersion := s.Version

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		s.UpdatedAt = time.Now()

		result := tx.Model(&inventory.Shipment{}).
			Where("id = ? AND version = ?", s.ID, currentVersion).
			Updates(map[string]interface{}{
				"state":           s.State,
				"tracking_number": s.TrackingNumber,
				"shipped_at":      s.ShippedAt,
				"delivered_at":    s.DeliveredAt,
				"version":         currentVersion + 1,
				"updated_at":      s.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		if err := saveShipmentUnits(tx, s); err != nil {
			return err
		}
		return r.saveEvents(ctx, tx, events)
	})
	if err != nil {
		return err
	}

	s.Version = currentVersion + 1
	s.ClearDomainEvents()
	return nil
}

// saveShipmentUnits persists the shipment's units. Units are never deleted
// here; releasing a unit detaches it instead.
func saveShipmentUnits(tx *gorm.DB, s *inventory.Shipment) error {
	for i := range s.Units {
		s.Units[i].ShipmentID = &s.ID
		if err := tx.Save(&s.Units[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *GormShipmentRepository) saveEvents(ctx context.Context, tx *gorm.DB, events []shared.DomainEvent) error {
	if r.outboxSaver == nil || len(events) == 0 {
		return nil
	}
	if err := r.outboxSaver.SaveEvents(ctx, tx, events...); err != nil {
		return fmt.Errorf("failed to save events to outbox: %w", err)
	}
	return nil
}

// NextNumber generates the next shipment number.
// Format: H-YYYY-NNNNN (e.g., H-2026-00001)
func (r *GormShipmentRepository) NextNumber(ctx context.Context) (string, error) {
	return nextSequenceNumber(ctx, r.db, &inventory.Shipment{}, "number", "H")
}

// Ensure GormShipmentRepository implements inventory.ShipmentRepository
var _ inventory.ShipmentRepository = (*GormShipmentRepository)(nil)
