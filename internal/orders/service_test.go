package orders

import (
	"context"
	"fmt"
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
	"github.com/clearstock/supplychain-backend/pkg/enums"
	pkgerrors "github.com/clearstock/supplychain-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&models.Supplier{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.Shipment{},
		&models.OrderSequence{},
	))
	return conn
}

func newTestService(t *testing.T, conn *gorm.DB, cfg config.OrdersConfig) Service {
	t.Helper()
	svc, err := NewService(NewRepository(conn), db.NewFromGorm(conn), cfg)
	require.NoError(t, err)
	return svc
}

func seedSupplierAndProduct(t *testing.T, conn *gorm.DB) (supplierID, productID int64) {
	t.Helper()
	supplier := models.Supplier{CompanyName: "Northline Freight", Rating: decimal.NewFromInt(4)}
	require.NoError(t, conn.Create(&supplier).Error)

	product := models.Product{
		Name:         "Stretch Wrap",
		SKU:          "SW-" + uuid.NewString()[:8],
		UnitPrice:    decimal.RequireFromString("10.50"),
		ReorderLevel: 5,
		SupplierID:   supplier.ID,
		IsActive:     true,
	}
	require.NoError(t, conn.Create(&product).Error)
	return supplier.ID, product.ID
}

func createTestOrder(t *testing.T, svc Service, supplierID, productID int64) *models.Order {
	t.Helper()
	order, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		SupplierID: supplierID,
		Items: []OrderItemInput{
			{ProductID: productID, Quantity: 2, UnitPrice: decimal.RequireFromString("10.50")},
			{ProductID: productID, Quantity: 1, UnitPrice: decimal.RequireFromString("5.00")},
		},
	})
	require.NoError(t, err)
	return order
}

func setOrderStatus(t *testing.T, conn *gorm.DB, id int64, status enums.OrderStatus) {
	t.Helper()
	require.NoError(t, conn.Model(&models.Order{}).
		Where("id = ?", id).
		Update("status", status).Error)
}

func TestCreateOrderComputesTotals(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn, config.OrdersConfig{})

	supplierID, productID := seedSupplierAndProduct(t, conn)
	order := createTestOrder(t, svc, supplierID, productID)

	assert.Equal(t, enums.OrderStatusPending, order.Status)
	assert.False(t, order.OrderDate.IsZero())
	require.Len(t, order.Items, 2)
	assert.True(t, order.Items[0].Subtotal.Equal(decimal.RequireFromString("21.00")))
	assert.True(t, order.Items[1].Subtotal.Equal(decimal.RequireFromString("5.00")))
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("26.00")))

	day := time.Now().UTC().Format("20060102")
	assert.Equal(t, fmt.Sprintf("ORD-%s-0001", day), order.OrderNumber)
}

func TestCreateOrderSequencesAreDistinct(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn, config.OrdersConfig{})

	supplierID, productID := seedSupplierAndProduct(t, conn)

	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		order := createTestOrder(t, svc, supplierID, productID)
		assert.False(t, seen[order.OrderNumber], "duplicate order number %s", order.OrderNumber)
		seen[order.OrderNumber] = true
	}
	day := time.Now().UTC().Format("20060102")
	assert.True(t, seen[fmt.Sprintf("ORD-%s-0005", day)])
}

func TestCreateOrderValidation(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn, config.OrdersConfig{})
	ctx := context.Background()

	_, err := svc.CreateOrder(ctx, CreateOrderInput{SupplierID: 1})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.CreateOrder(ctx, CreateOrderInput{
		SupplierID: 1,
		Items:      []OrderItemInput{{ProductID: 1, Quantity: 0, UnitPrice: decimal.NewFromInt(1)}},
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.CreateOrder(ctx, CreateOrderInput{
		SupplierID: 1,
		Items:      []OrderItemInput{{ProductID: 1, Quantity: 1, UnitPrice: decimal.NewFromInt(-3)}},
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestCreateOrderZeroUnitPrice(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn, config.OrdersConfig{})
	supplierID, productID := seedSupplierAndProduct(t, conn)

	order, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		SupplierID: supplierID,
		Items: []OrderItemInput{
			{ProductID: productID, Quantity: 4, UnitPrice: decimal.Zero},
		},
	})
	require.NoError(t, err)
	assert.True(t, order.TotalAmount.IsZero())
	require.Len(t, order.Items, 1)
	assert.True(t, order.Items[0].Subtotal.IsZero())
}

func TestUpdateOrderStatusWalksLifecycle(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn, config.OrdersConfig{})
	ctx := context.Background()

	supplierID, productID := seedSupplierAndProduct(t, conn)
	order := createTestOrder(t, svc, supplierID, productID)

	for _, next := range []enums.OrderStatus{
		enums.OrderStatusConfirmed,
		enums.OrderStatusProcessing,
		enums.OrderStatusShipped,
	} {
		updated, err := svc.UpdateOrderStatus(ctx, order.ID, next)
		require.NoError(t, err)
		assert.Equal(t, next, updated.Status)
		assert.Nil(t, updated.ActualDeliveryDate)
	}

	delivered, err := svc.UpdateOrderStatus(ctx, order.ID, enums.OrderStatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusDelivered, delivered.Status)
	require.NotNil(t, delivered.ActualDeliveryDate)
}

func TestUpdateOrderStatusRejectsSkips(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn, config.OrdersConfig{})
	ctx := context.Background()

	supplierID, productID := seedSupplierAndProduct(t, conn)
	order := createTestOrder(t, svc, supplierID, productID)

	_, err := svc.UpdateOrderStatus(ctx, order.ID, enums.OrderStatusShipped)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestUpdateOrderStatusBackwardPolicy(t *testing.T) {
	conn := newTestDB(t)
	supplierID, productID := seedSupplierAndProduct(t, conn)

	strict := newTestService(t, conn, config.OrdersConfig{})
	lenient := newTestService(t, conn, config.OrdersConfig{AllowBackwardTransitions: true})
	ctx := context.Background()

	order := createTestOrder(t, strict, supplierID, productID)
	setOrderStatus(t, conn, order.ID, enums.OrderStatusConfirmed)

	_, err := strict.UpdateOrderStatus(ctx, order.ID, enums.OrderStatusPending)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	updated, err := lenient.UpdateOrderStatus(ctx, order.ID, enums.OrderStatusPending)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPending, updated.Status)
}

func TestUpdateOrderStatusUnknownStatus(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn, config.OrdersConfig{})

	_, err := svc.UpdateOrderStatus(context.Background(), 1, enums.OrderStatus("misplaced"))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestUpdateOrderStatusMissingOrder(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn, config.OrdersConfig{})

	_, err := svc.UpdateOrderStatus(context.Background(), 9999, enums.OrderStatusConfirmed)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestCancelOrder(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn, config.OrdersConfig{})
	ctx := context.Background()

	supplierID, productID := seedSupplierAndProduct(t, conn)
	order := createTestOrder(t, svc, supplierID, productID)

	cancelled, err := svc.CancelOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, cancelled.Status)

	// Cancelling twice is a no-op, not an error.
	again, err := svc.CancelOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, again.Status)
}

func TestCancelDeliveredOrderFails(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn, config.OrdersConfig{})
	ctx := context.Background()

	supplierID, productID := seedSupplierAndProduct(t, conn)
	order := createTestOrder(t, svc, supplierID, productID)
	setOrderStatus(t, conn, order.ID, enums.OrderStatusDelivered)

	_, err := svc.CancelOrder(ctx, order.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestCalculateOrderTotal(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn, config.OrdersConfig{})
	ctx := context.Background()

	supplierID, productID := seedSupplierAndProduct(t, conn)
	order := createTestOrder(t, svc, supplierID, productID)

	total, err := svc.CalculateOrderTotal(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.RequireFromString("26.00")))

	_, err = svc.CalculateOrderTotal(ctx, 9999)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestQueryListings(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn, config.OrdersConfig{})
	ctx := context.Background()

	supplierID, productID := seedSupplierAndProduct(t, conn)
	otherSupplierID, otherProductID := seedSupplierAndProduct(t, conn)

	first := createTestOrder(t, svc, supplierID, productID)
	second := createTestOrder(t, svc, otherSupplierID, otherProductID)
	setOrderStatus(t, conn, second.ID, enums.OrderStatusShipped)

	bySupplier, err := svc.OrdersBySupplier(ctx, supplierID)
	require.NoError(t, err)
	require.Len(t, bySupplier, 1)
	assert.Equal(t, first.ID, bySupplier[0].ID)
	assert.NotEmpty(t, bySupplier[0].Items)

	pending, err := svc.PendingOrders(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, first.ID, pending[0].ID)

	detail, err := svc.GetOrder(ctx, first.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Items, 2)
}

func TestCreateShipment(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn, config.OrdersConfig{})
	ctx := context.Background()

	supplierID, productID := seedSupplierAndProduct(t, conn)
	order := createTestOrder(t, svc, supplierID, productID)

	// Shipments require a processing or shipped order.
	_, err := svc.CreateShipment(ctx, order.ID, CreateShipmentInput{ShippingCost: decimal.NewFromInt(12)})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	setOrderStatus(t, conn, order.ID, enums.OrderStatusProcessing)

	shipment, err := svc.CreateShipment(ctx, order.ID, CreateShipmentInput{ShippingCost: decimal.NewFromInt(12)})
	require.NoError(t, err)
	assert.Equal(t, enums.ShipmentStatusPreparing, shipment.Status)
	assert.Contains(t, shipment.TrackingNumber, "TRK-")

	_, err = svc.CreateShipment(ctx, order.ID, CreateShipmentInput{ShippingCost: decimal.NewFromInt(12)})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestUpdateShipmentStatusDeliveredCompletesOrder(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn, config.OrdersConfig{})
	ctx := context.Background()

	supplierID, productID := seedSupplierAndProduct(t, conn)
	order := createTestOrder(t, svc, supplierID, productID)
	setOrderStatus(t, conn, order.ID, enums.OrderStatusProcessing)

	shipment, err := svc.CreateShipment(ctx, order.ID, CreateShipmentInput{ShippingCost: decimal.NewFromInt(9)})
	require.NoError(t, err)

	setOrderStatus(t, conn, order.ID, enums.OrderStatusShipped)

	updated, err := svc.UpdateShipmentStatus(ctx, shipment.ID, enums.ShipmentStatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, enums.ShipmentStatusDelivered, updated.Status)
	require.NotNil(t, updated.ActualDeliveryDate)

	var reloaded models.Order
	require.NoError(t, conn.First(&reloaded, "id = ?", order.ID).Error)
	assert.Equal(t, enums.OrderStatusDelivered, reloaded.Status)
	require.NotNil(t, reloaded.ActualDeliveryDate)
}
