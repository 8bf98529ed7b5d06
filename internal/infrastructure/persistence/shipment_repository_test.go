package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oms/backend/internal/domain/inventory"
	"github.com/oms/backend/internal/domain/shared"
)

// setupShipmentTestDB creates an in-memory SQLite database for testing
func setupShipmentTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&inventory.Shipment{}, &inventory.InventoryUnit{})
	require.NoError(t, err)

	return db
}

func newPersistedShipment(t *testing.T, repo *GormShipmentRepository, orderID uuid.UUID) *inventory.Shipment {
	s, err := inventory.NewShipment(orderID, "H-2026-00001", uuid.New())
	require.NoError(t, err)

	unit, err := inventory.NewInventoryUnit(orderID, uuid.New(), uuid.New(), "WID-1", inventory.UnitStateOnHand)
	require.NoError(t, err)
	require.NoError(t, s.AddUnit(unit))

	require.NoError(t, repo.Save(context.Background(), s))
	return s
}

func TestGormShipmentRepository_SaveAndFind(t *testing.T) {
	db := setupShipmentTestDB(t)
	repo := NewGormShipmentRepository(db)
	orderID := uuid.New()

	s := newPersistedShipment(t, repo, orderID)

	t.Run("FindByID loads the shipment with units", func(t *testing.T) {
		found, err := repo.FindByID(context.Background(), s.ID)
		require.NoError(t, err)
		assert.Equal(t, "H-2026-00001", found.Number)
		assert.Equal(t, inventory.ShipmentStatePending, found.State)
		require.Len(t, found.Units, 1)
		assert.Equal(t, inventory.UnitStateOnHand, found.Units[0].State)
	})

	t.Run("FindByOrderID finds the order's shipments", func(t *testing.T) {
		found, err := repo.FindByOrderID(context.Background(), orderID)
		require.NoError(t, err)
		assert.Len(t, found, 1)
	})

	t.Run("missing shipment maps to NotFound", func(t *testing.T) {
		_, err := repo.FindByNumber(context.Background(), "H-2026-99999")
		require.Error(t, err)
		assert.True(t, shared.IsNotFound(err))
	})
}

func TestGormShipmentRepository_SaveWithLock(t *testing.T) {
	db := setupShipmentTestDB(t)
	repo := NewGormShipmentRepository(db)
	orderID := uuid.New()

	s := newPersistedShipment(t, repo, orderID)

	outcome, err := s.MarkReady()
	require.NoError(t, err)
	assert.Equal(t, shared.OutcomeApplied, outcome)
	require.NoError(t, repo.SaveWithLock(context.Background(), s))
	assert.Equal(t, 2, s.Version)

	outcome, err = s.Ship("1Z999")
	require.NoError(t, err)
	assert.Equal(t, shared.OutcomeApplied, outcome)
	require.NoError(t, repo.SaveWithLock(context.Background(), s))

	found, err := repo.FindByID(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, inventory.ShipmentStateShipped, found.State)
	assert.Equal(t, "1Z999", found.TrackingNumber)
	assert.Equal(t, inventory.UnitStateShipped, found.Units[0].State)
	assert.NotNil(t, found.ShippedAt)

	t.Run("stale version returns concurrency conflict", func(t *testing.T) {
		stale, err := repo.FindByID(context.Background(), s.ID)
		require.NoError(t, err)
		stale.Version = 1

		_, err = stale.Deliver()
		require.NoError(t, err)
		err = repo.SaveWithLock(context.Background(), stale)
		require.Error(t, err)
		assert.True(t, shared.IsConflict(err))
	})
}

func TestGormShipmentRepository_FindAll(t *testing.T) {
	db := setupShipmentTestDB(t)
	repo := NewGormShipmentRepository(db)
	orderID := uuid.New()

	newPersistedShipment(t, repo, orderID)

	state := inventory.ShipmentStatePending
	page, err := repo.FindAll(context.Background(), inventory.ShipmentFilter{
		OrderID: &orderID,
		State:   &state,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	assert.Len(t, page.Items, 1)
}

func TestGormShipmentRepository_NextNumber(t *testing.T) {
	db := setupShipmentTestDB(t)
	repo := NewGormShipmentRepository(db)

	first, err := repo.NextNumber(context.Background())
	require.NoError(t, err)
	assert.Regexp(t, `^H-\d{4}-00001$`, first)
}
