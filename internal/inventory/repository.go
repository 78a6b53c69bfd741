package inventory

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/clearstock/supplychain-backend/pkg/db/models"
)

// Repository owns inventory_items persistence. All quantity mutations go
// through guarded UPDATEs so the reserved-quantity invariant cannot be
// violated by interleaved writers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByID loads an inventory row by primary key.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.InventoryItem, error) {
	var item models.InventoryItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// FindByPair loads the unique inventory row for a (product, warehouse) pair.
func (r *Repository) FindByPair(ctx context.Context, productID, warehouseID int64) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := r.db.WithContext(ctx).
		First(&item, "product_id = ? AND warehouse_id = ?", productID, warehouseID).
		Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Create inserts a new inventory row. A duplicate (product, warehouse) pair
// surfaces as a unique violation from the storage layer.
func (r *Repository) Create(ctx context.Context, item *models.InventoryItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// ReserveQuantity atomically moves qty units from available to reserved.
// The guard clause makes concurrent over-reservation impossible: the UPDATE
// only applies while on-hand minus reserved covers the request. Returns the
// number of affected rows.
func (r *Repository) ReserveQuantity(ctx context.Context, productID, warehouseID int64, qty int, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.InventoryItem{}).
		Where("product_id = ? AND warehouse_id = ?", productID, warehouseID).
		Where("quantity_on_hand - quantity_reserved >= ?", qty).
		Updates(map[string]any{
			"quantity_reserved": gorm.Expr("quantity_reserved + ?", qty),
			"updated_at":        now,
		})
	return res.RowsAffected, res.Error
}

// ReleaseQuantity atomically returns qty reserved units to available. The
// guard refuses a release beyond the currently reserved quantity.
func (r *Repository) ReleaseQuantity(ctx context.Context, productID, warehouseID int64, qty int, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.InventoryItem{}).
		Where("product_id = ? AND warehouse_id = ?", productID, warehouseID).
		Where("quantity_reserved >= ?", qty).
		Updates(map[string]any{
			"quantity_reserved": gorm.Expr("quantity_reserved - ?", qty),
			"updated_at":        now,
		})
	return res.RowsAffected, res.Error
}

// ApplyAdjustment applies a signed on-hand delta. When strict is set the
// UPDATE is guarded so the resulting on-hand cannot drop below the reserved
// quantity. Positive deltas stamp last_restocked.
func (r *Repository) ApplyAdjustment(ctx context.Context, id int64, delta int, strict bool, now time.Time) (int64, error) {
	updates := map[string]any{
		"quantity_on_hand": gorm.Expr("quantity_on_hand + ?", delta),
		"updated_at":       now,
	}
	if delta > 0 {
		updates["last_restocked"] = now
	}

	qb := r.db.WithContext(ctx).
		Model(&models.InventoryItem{}).
		Where("id = ?", id)
	if strict {
		qb = qb.Where("quantity_on_hand + ? >= quantity_reserved", delta)
	}

	res := qb.Updates(updates)
	return res.RowsAffected, res.Error
}

const itemColumns = `i.id,
i.product_id,
p.name AS product_name,
p.sku AS product_sku,
p.reorder_level,
i.warehouse_id,
w.code AS warehouse_code,
i.quantity_on_hand,
i.quantity_reserved,
i.quantity_on_hand - i.quantity_reserved AS quantity_available,
i.location,
i.last_restocked,
i.updated_at`

// Item is an inventory row joined with product and warehouse identity.
type Item struct {
	ID                int64     `json:"id"`
	ProductID         int64     `json:"product_id"`
	ProductName       string    `json:"product_name"`
	ProductSKU        string    `json:"product_sku"`
	ReorderLevel      int       `json:"reorder_level"`
	WarehouseID       int64     `json:"warehouse_id"`
	WarehouseCode     string    `json:"warehouse_code"`
	QuantityOnHand    int       `json:"quantity_on_hand"`
	QuantityReserved  int       `json:"quantity_reserved"`
	QuantityAvailable int       `json:"quantity_available"`
	Location          *string   `json:"location,omitempty"`
	LastRestocked     time.Time `json:"last_restocked"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (r *Repository) listQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("inventory_items i").
		Select(itemColumns).
		Joins("JOIN products p ON p.id = i.product_id").
		Joins("JOIN warehouses w ON w.id = i.warehouse_id")
}

// List returns every inventory row with product/warehouse identity.
func (r *Repository) List(ctx context.Context) ([]Item, error) {
	var rows []Item
	err := r.listQuery(ctx).
		Order("i.id ASC").
		Scan(&rows).
		Error
	return rows, err
}

// ListByWarehouse filters the listing to one warehouse.
func (r *Repository) ListByWarehouse(ctx context.Context, warehouseID int64) ([]Item, error) {
	var rows []Item
	err := r.listQuery(ctx).
		Where("i.warehouse_id = ?", warehouseID).
		Order("i.id ASC").
		Scan(&rows).
		Error
	return rows, err
}

// ListLowStock returns rows whose on-hand quantity has fallen to or below the
// product's reorder level.
func (r *Repository) ListLowStock(ctx context.Context) ([]Item, error) {
	var rows []Item
	err := r.listQuery(ctx).
		Where("i.quantity_on_hand <= p.reorder_level").
		Order("i.id ASC").
		Scan(&rows).
		Error
	return rows, err
}
