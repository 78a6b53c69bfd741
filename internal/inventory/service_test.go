package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/clearstock/supplychain-backend/pkg/config"
	"github.com/clearstock/supplychain-backend/pkg/db"
	"github.com/clearstock/supplychain-backend/pkg/db/models"
	pkgerrors "github.com/clearstock/supplychain-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:inventory_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&models.Supplier{},
		&models.Product{},
		&models.Warehouse{},
		&models.InventoryItem{},
	))
	return conn
}

func newTestService(t *testing.T, conn *gorm.DB, cfg config.InventoryConfig) Service {
	t.Helper()
	svc, err := NewService(NewRepository(conn), db.NewFromGorm(conn), cfg, nil, nil)
	require.NoError(t, err)
	return svc
}

func seedCatalog(t *testing.T, conn *gorm.DB, reorderLevel int) (productID, warehouseID int64) {
	t.Helper()
	supplier := models.Supplier{CompanyName: "Acme Logistics", Rating: decimal.NewFromInt(5)}
	require.NoError(t, conn.Create(&supplier).Error)

	product := models.Product{
		Name:         "Pallet Jack",
		SKU:          "PJ-" + uuid.NewString()[:8],
		UnitPrice:    decimal.RequireFromString("149.99"),
		ReorderLevel: reorderLevel,
		SupplierID:   supplier.ID,
		IsActive:     true,
	}
	require.NoError(t, conn.Create(&product).Error)

	warehouse := models.Warehouse{
		Name:     "Central",
		Code:     "WH-" + uuid.NewString()[:8],
		Capacity: 1000,
		IsActive: true,
	}
	require.NoError(t, conn.Create(&warehouse).Error)
	return product.ID, warehouse.ID
}

func seedInventory(t *testing.T, conn *gorm.DB, productID, warehouseID int64, onHand, reserved int) models.InventoryItem {
	t.Helper()
	item := models.InventoryItem{
		ProductID:        productID,
		WarehouseID:      warehouseID,
		QuantityOnHand:   onHand,
		QuantityReserved: reserved,
		LastRestocked:    time.Now().UTC(),
		UpdatedAt:        time.Now().UTC(),
	}
	require.NoError(t, conn.Create(&item).Error)
	return item
}

func reloadItem(t *testing.T, conn *gorm.DB, id int64) models.InventoryItem {
	t.Helper()
	var item models.InventoryItem
	require.NoError(t, conn.First(&item, "id = ?", id).Error)
	return item
}

func TestReserveReleaseRoundTrip(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn, config.InventoryConfig{})
	ctx := context.Background()

	productID, warehouseID := seedCatalog(t, conn, 5)
	item := seedInventory(t, conn, productID, warehouseID, 100, 20)

	require.NoError(t, svc.ReserveStock(ctx, productID, warehouseID, 30))
	reserved := reloadItem(t, conn, item.ID)
	assert.Equal(t, 50, reserved.QuantityReserved)
	assert.Equal(t, 50, reserved.QuantityAvailable())

	require.NoError(t, svc.ReleaseStock(ctx, productID, warehouseID, 30))
	released := reloadItem(t, conn, item.ID)
	assert.Equal(t, 20, released.QuantityReserved)
	assert.Equal(t, 100, released.QuantityOnHand)
}

func TestReserveBeyondAvailableLeavesStateUnchanged(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn, config.InventoryConfig{})
	ctx := context.Background()

	productID, warehouseID := seedCatalog(t, conn, 5)
	item := seedInventory(t, conn, productID, warehouseID, 100, 20)

	require.NoError(t, svc.ReserveStock(ctx, productID, warehouseID, 50))
	after := reloadItem(t, conn, item.ID)
	assert.Equal(t, 70, after.QuantityReserved)
	assert.Equal(t, 30, after.QuantityAvailable())

	err := svc.ReserveStock(ctx, productID, warehouseID, 40)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock))

	unchanged := reloadItem(t, conn, item.ID)
	assert.Equal(t, 70, unchanged.QuantityReserved)
	assert.Equal(t, 100, unchanged.QuantityOnHand)
}

func TestReserveLastUnitSingleWinner(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn, config.InventoryConfig{})
	ctx := context.Background()

	productID, warehouseID := seedCatalog(t, conn, 5)
	item := seedInventory(t, conn, productID, warehouseID, 1, 0)

	// The guarded UPDATE admits exactly one reservation of the last unit;
	// the loser observes insufficient stock regardless of interleaving.
	first := svc.ReserveStock(ctx, productID, warehouseID, 1)
	second := svc.ReserveStock(ctx, productID, warehouseID, 1)

	require.NoError(t, first)
	require.Error(t, second)
	assert.True(t, pkgerrors.IsCode(second, pkgerrors.CodeInsufficientStock))

	final := reloadItem(t, conn, item.ID)
	assert.Equal(t, 1, final.QuantityReserved)
	assert.Equal(t, 0, final.QuantityAvailable())
}

func TestReleaseBeyondReservedLeavesStateUnchanged(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn, config.InventoryConfig{})
	ctx := context.Background()

	productID, warehouseID := seedCatalog(t, conn, 5)
	item := seedInventory(t, conn, productID, warehouseID, 50, 10)

	err := svc.ReleaseStock(ctx, productID, warehouseID, 25)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidRelease))

	unchanged := reloadItem(t, conn, item.ID)
	assert.Equal(t, 10, unchanged.QuantityReserved)
	assert.Equal(t, 50, unchanged.QuantityOnHand)
}

func TestReserveMissingPairNotFound(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn, config.InventoryConfig{})

	err := svc.ReserveStock(context.Background(), 999, 999, 1)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestReserveRejectsNonPositiveQuantity(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn, config.InventoryConfig{})

	err := svc.ReserveStock(context.Background(), 1, 1, 0)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestAdjustStockStampsLastRestocked(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn, config.InventoryConfig{})
	ctx := context.Background()

	productID, warehouseID := seedCatalog(t, conn, 5)
	item := seedInventory(t, conn, productID, warehouseID, 10, 0)
	stale := time.Now().UTC().Add(-48 * time.Hour)
	require.NoError(t, conn.Model(&models.InventoryItem{}).
		Where("id = ?", item.ID).
		Update("last_restocked", stale).Error)

	adjusted, err := svc.AdjustStock(ctx, item.ID, 15)
	require.NoError(t, err)
	assert.Equal(t, 25, adjusted.QuantityOnHand)
	assert.True(t, adjusted.LastRestocked.After(stale))

	// Negative delta must not touch last_restocked.
	before := adjusted.LastRestocked
	adjusted, err = svc.AdjustStock(ctx, item.ID, -5)
	require.NoError(t, err)
	assert.Equal(t, 20, adjusted.QuantityOnHand)
	assert.True(t, adjusted.LastRestocked.Equal(before))
}

func TestAdjustStockMissingRowNotFound(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn, config.InventoryConfig{})

	_, err := svc.AdjustStock(context.Background(), 12345, 5)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestAdjustStockPermissiveAllowsBelowReserved(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn, config.InventoryConfig{StrictAdjust: false})
	ctx := context.Background()

	productID, warehouseID := seedCatalog(t, conn, 5)
	item := seedInventory(t, conn, productID, warehouseID, 10, 8)

	adjusted, err := svc.AdjustStock(ctx, item.ID, -5)
	require.NoError(t, err)
	assert.Equal(t, 5, adjusted.QuantityOnHand)
	assert.Equal(t, 8, adjusted.QuantityReserved)
}

func TestAdjustStockStrictRefusesBelowReserved(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn, config.InventoryConfig{StrictAdjust: true})
	ctx := context.Background()

	productID, warehouseID := seedCatalog(t, conn, 5)
	item := seedInventory(t, conn, productID, warehouseID, 10, 8)

	_, err := svc.AdjustStock(ctx, item.ID, -5)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	unchanged := reloadItem(t, conn, item.ID)
	assert.Equal(t, 10, unchanged.QuantityOnHand)
}

func TestAddInventoryDuplicatePairConflict(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn, config.InventoryConfig{})
	ctx := context.Background()

	productID, warehouseID := seedCatalog(t, conn, 5)

	first, err := svc.AddInventory(ctx, AddInventoryInput{
		ProductID:      productID,
		WarehouseID:    warehouseID,
		QuantityOnHand: 40,
	})
	require.NoError(t, err)
	assert.False(t, first.LastRestocked.IsZero())

	_, err = svc.AddInventory(ctx, AddInventoryInput{
		ProductID:      productID,
		WarehouseID:    warehouseID,
		QuantityOnHand: 10,
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestLowStockItems(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn, config.InventoryConfig{})
	ctx := context.Background()

	lowProduct, warehouseID := seedCatalog(t, conn, 20)
	seedInventory(t, conn, lowProduct, warehouseID, 15, 0)

	healthyProduct, _ := seedCatalog(t, conn, 5)
	seedInventory(t, conn, healthyProduct, warehouseID, 500, 0)

	rows, err := svc.LowStockItems(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, lowProduct, rows[0].ProductID)
	assert.Equal(t, 20, rows[0].ReorderLevel)
	assert.Equal(t, 15, rows[0].QuantityAvailable)
}

func TestInventoryByWarehouse(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn, config.InventoryConfig{})
	ctx := context.Background()

	productA, warehouseA := seedCatalog(t, conn, 5)
	seedInventory(t, conn, productA, warehouseA, 10, 2)

	productB, warehouseB := seedCatalog(t, conn, 5)
	seedInventory(t, conn, productB, warehouseB, 30, 0)

	rows, err := svc.InventoryByWarehouse(ctx, warehouseA)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, warehouseA, rows[0].WarehouseID)
	assert.Equal(t, 8, rows[0].QuantityAvailable)

	all, err := svc.AllInventory(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
