package warehouses

import (
	"context"

	"gorm.io/gorm"

	"github.com/clearstock/supplychain-backend/pkg/db/models"
)

// Repository owns warehouse rows and the aggregated stock view.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, warehouse *models.Warehouse) error {
	return r.db.WithContext(ctx).Create(warehouse).Error
}

func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Warehouse, error) {
	var warehouse models.Warehouse
	if err := r.db.WithContext(ctx).First(&warehouse, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &warehouse, nil
}

func (r *Repository) Update(ctx context.Context, warehouse *models.Warehouse) error {
	return r.db.WithContext(ctx).Save(warehouse).Error
}

// Deactivate soft-deletes a warehouse. Returns affected rows so the caller
// can tell a missing row from an already inactive one.
func (r *Repository) Deactivate(ctx context.Context, id int64) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Warehouse{}).
		Where("id = ? AND is_active", id).
		Update("is_active", false)
	return res.RowsAffected, res.Error
}

// ListActive returns active warehouses ordered by code.
func (r *Repository) ListActive(ctx context.Context) ([]models.Warehouse, error) {
	var rows []models.Warehouse
	err := r.db.WithContext(ctx).
		Where("is_active").
		Order("code ASC").
		Find(&rows).
		Error
	return rows, err
}

// stockTotals is the aggregate of a warehouse's inventory rows.
type stockTotals struct {
	DistinctProducts int64
	TotalOnHand      int64
	TotalReserved    int64
}

// StockTotals sums a warehouse's inventory. COALESCE keeps empty warehouses
// at zero instead of NULL.
func (r *Repository) StockTotals(ctx context.Context, warehouseID int64) (stockTotals, error) {
	var totals stockTotals
	err := r.db.WithContext(ctx).
		Model(&models.InventoryItem{}).
		Select(
			"COUNT(DISTINCT product_id) AS distinct_products",
			"COALESCE(SUM(quantity_on_hand), 0) AS total_on_hand",
			"COALESCE(SUM(quantity_reserved), 0) AS total_reserved",
		).
		Where("warehouse_id = ?", warehouseID).
		Scan(&totals).
		Error
	return totals, err
}
