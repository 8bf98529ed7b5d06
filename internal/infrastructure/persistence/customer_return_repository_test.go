package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oms/backend/internal/domain/returns"
	"github.com/oms/backend/internal/domain/shared"
)

// setupReturnTestDB creates an in-memory SQLite database for testing
func setupReturnTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&returns.CustomerReturn{}, &returns.ReturnItem{})
	require.NoError(t, err)

	return db
}

func TestGormCustomerReturnRepository_SaveAndFind(t *testing.T) {
	db := setupReturnTestDB(t)
	repo := NewGormCustomerReturnRepository(db)

	cr, err := returns.NewCustomerReturn("RMA-2026-00001", uuid.New(), uuid.New(), "damaged box")
	require.NoError(t, err)
	unitID := uuid.New()
	_, err = cr.AddItem(unitID, uuid.New(), nil)
	require.NoError(t, err)

	require.NoError(t, repo.Save(context.Background(), cr))

	t.Run("FindByID loads the return with items", func(t *testing.T) {
		found, err := repo.FindByID(context.Background(), cr.ID)
		require.NoError(t, err)
		assert.Equal(t, "RMA-2026-00001", found.Number)
		assert.Equal(t, "damaged box", found.Memo)
		require.Len(t, found.Items, 1)
		assert.Equal(t, unitID, found.Items[0].InventoryUnitID)
		assert.Equal(t, returns.ReceptionStatusAwaiting, found.Items[0].ReceptionStatus)
	})

	t.Run("FindByOrderID finds returns for the order", func(t *testing.T) {
		found, err := repo.FindByOrderID(context.Background(), cr.OrderID)
		require.NoError(t, err)
		assert.Len(t, found, 1)
	})

	t.Run("missing return maps to NotFound", func(t *testing.T) {
		_, err := repo.FindByNumber(context.Background(), "RMA-2026-99999")
		require.Error(t, err)
		assert.True(t, shared.IsNotFound(err))
	})
}

func TestGormCustomerReturnRepository_SaveWithLock(t *testing.T) {
	db := setupReturnTestDB(t)
	repo := NewGormCustomerReturnRepository(db)

	cr, err := returns.NewCustomerReturn("RMA-2026-00002", uuid.New(), uuid.New(), "")
	require.NoError(t, err)
	item, err := cr.AddItem(uuid.New(), uuid.New(), nil)
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), cr))

	_, err = cr.ReceiveItem(item.ID)
	require.NoError(t, err)
	require.NoError(t, repo.SaveWithLock(context.Background(), cr))
	assert.Equal(t, 2, cr.Version)

	found, err := repo.FindByID(context.Background(), cr.ID)
	require.NoError(t, err)
	assert.Equal(t, returns.ReceptionStatusReceived, found.Items[0].ReceptionStatus)

	// Stale write loses
	stale, err := returns.NewCustomerReturn("RMA-2026-00002", cr.OrderID, cr.StockLocationID, "")
	require.NoError(t, err)
	stale.ID = cr.ID
	stale.Version = 1
	err = repo.SaveWithLock(context.Background(), stale)
	require.Error(t, err)
	assert.True(t, shared.IsConflict(err))
}

func TestGormCustomerReturnRepository_HasOpenItemForUnit(t *testing.T) {
	db := setupReturnTestDB(t)
	repo := NewGormCustomerReturnRepository(db)
	unitID := uuid.New()

	t.Run("no claim when nothing references the unit", func(t *testing.T) {
		open, err := repo.HasOpenItemForUnit(context.Background(), unitID)
		require.NoError(t, err)
		assert.False(t, open)
	})

	cr, err := returns.NewCustomerReturn("RMA-2026-00003", uuid.New(), uuid.New(), "")
	require.NoError(t, err)
	_, err = cr.AddItem(unitID, uuid.New(), nil)
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), cr))

	t.Run("awaiting line claims the unit", func(t *testing.T) {
		open, err := repo.HasOpenItemForUnit(context.Background(), unitID)
		require.NoError(t, err)
		assert.True(t, open)
	})

	t.Run("canceled return releases the claim", func(t *testing.T) {
		outcome, err := cr.Cancel()
		require.NoError(t, err)
		assert.Equal(t, shared.OutcomeApplied, outcome)
		require.NoError(t, repo.SaveWithLock(context.Background(), cr))

		open, err := repo.HasOpenItemForUnit(context.Background(), unitID)
		require.NoError(t, err)
		assert.False(t, open)
	})
}

func TestGormCustomerReturnRepository_NextNumber(t *testing.T) {
	db := setupReturnTestDB(t)
	repo := NewGormCustomerReturnRepository(db)

	first, err := repo.NextNumber(context.Background())
	require.NoError(t, err)
	assert.Regexp(t, `^RMA-\d{4}-00001$`, first)
}
