package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/clearstock/supplychain-backend/internal/inventory"
	"github.com/clearstock/supplychain-backend/internal/orders"
	"github.com/clearstock/supplychain-backend/internal/products"
	"github.com/clearstock/supplychain-backend/internal/suppliers"
	"github.com/clearstock/supplychain-backend/internal/warehouses"
	"github.com/clearstock/supplychain-backend/pkg/config"
	"github.com/clearstock/supplychain-backend/pkg/db"
	"github.com/clearstock/supplychain-backend/pkg/db/models"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	dsn := "file:routes_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&models.Supplier{},
		&models.Product{},
		&models.Warehouse{},
		&models.InventoryItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.Shipment{},
		&models.OrderSequence{},
	))

	runner := db.NewFromGorm(conn)

	productSvc, err := products.NewService(products.NewRepository(conn), runner)
	require.NoError(t, err)
	supplierSvc, err := suppliers.NewService(suppliers.NewRepository(conn), runner)
	require.NoError(t, err)
	warehouseSvc, err := warehouses.NewService(warehouses.NewRepository(conn), runner)
	require.NoError(t, err)
	inventorySvc, err := inventory.NewService(inventory.NewRepository(conn), runner, config.InventoryConfig{}, nil, nil)
	require.NoError(t, err)
	orderSvc, err := orders.NewService(orders.NewRepository(conn), runner, config.OrdersConfig{})
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.App.Env = "test"

	return NewRouter(cfg, nil, stubPinger{}, nil, Services{
		Products:   productSvc,
		Suppliers:  supplierSvc,
		Warehouses: warehouseSvc,
		Inventory:  inventorySvc,
		Orders:     orderSvc,
	})
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope.Data
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSupplyChainFlowOverHTTP(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/suppliers", map[string]any{
		"company_name":   "Crossdock Partners",
		"lead_time_days": 5,
		"rating":         4.5,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	supplierID := int64(decodeData(t, rec)["id"].(float64))

	rec = doJSON(t, router, http.MethodPost, "/api/v1/products", map[string]any{
		"name":          "Ratchet Strap",
		"sku":           "RS-0001",
		"unit_price":    "10.50",
		"reorder_level": 5,
		"supplier_id":   supplierID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	productID := int64(decodeData(t, rec)["id"].(float64))

	rec = doJSON(t, router, http.MethodPost, "/api/v1/warehouses", map[string]any{
		"name":     "North Hub",
		"code":     "WH-NORTH",
		"capacity": 1000,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	warehouseID := int64(decodeData(t, rec)["id"].(float64))

	rec = doJSON(t, router, http.MethodPost, "/api/v1/inventory", map[string]any{
		"product_id":       productID,
		"warehouse_id":     warehouseID,
		"quantity_on_hand": 100,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodPost, "/api/v1/inventory/reserve", map[string]any{
		"product_id":   productID,
		"warehouse_id": warehouseID,
		"quantity":     30,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Over-reserving surfaces the stock shortfall as a 409 with details.
	rec = doJSON(t, router, http.MethodPost, "/api/v1/inventory/reserve", map[string]any{
		"product_id":   productID,
		"warehouse_id": warehouseID,
		"quantity":     80,
	})
	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "INSUFFICIENT_STOCK")

	rec = doJSON(t, router, http.MethodPost, "/api/v1/orders", map[string]any{
		"supplier_id": supplierID,
		"items": []map[string]any{
			{"product_id": productID, "quantity": 2, "unit_price": "10.50"},
			{"product_id": productID, "quantity": 1, "unit_price": "5.00"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	orderData := decodeData(t, rec)
	orderID := int64(orderData["id"].(float64))
	assert.Equal(t, "26", fmt.Sprintf("%v", orderData["total_amount"]))

	rec = doJSON(t, router, http.MethodPatch, fmt.Sprintf("/api/v1/orders/%d/status", orderID), map[string]any{
		"status": "confirmed",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Skipping straight to shipped is rejected by the transition table.
	rec = doJSON(t, router, http.MethodPatch, fmt.Sprintf("/api/v1/orders/%d/status", orderID), map[string]any{
		"status": "delivered",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/v1/warehouses/%d/stats", warehouseID), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	stats := decodeData(t, rec)
	assert.Equal(t, float64(100), stats["total_on_hand"])
	assert.Equal(t, float64(30), stats["total_reserved"])
	assert.Equal(t, float64(900), stats["capacity_remaining"])
}

func TestCreateOrderWithFreeLineItem(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/suppliers", map[string]any{
		"company_name":   "Sample Goods Co",
		"lead_time_days": 3,
		"rating":         4,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	supplierID := int64(decodeData(t, rec)["id"].(float64))

	// Zero-priced products are legal; only negative prices are rejected.
	rec = doJSON(t, router, http.MethodPost, "/api/v1/products", map[string]any{
		"name":          "Promo Sticker",
		"sku":           "PS-0001",
		"unit_price":    "0",
		"reorder_level": 0,
		"supplier_id":   supplierID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	productID := int64(decodeData(t, rec)["id"].(float64))

	rec = doJSON(t, router, http.MethodPost, "/api/v1/orders", map[string]any{
		"supplier_id": supplierID,
		"items": []map[string]any{
			{"product_id": productID, "quantity": 3, "unit_price": "0"},
			{"product_id": productID, "quantity": 1, "unit_price": "2.50"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "2.5", fmt.Sprintf("%v", decodeData(t, rec)["total_amount"]))
}

func TestUnknownIDsReturnNotFound(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/orders/424242", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/products/424242", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
