package products

import (
	"context"

	"gorm.io/gorm"

	"github.com/clearstock/supplychain-backend/pkg/db/models"
)

// Repository owns catalog product rows.
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

func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *Repository) FindBySKU(ctx context.Context, sku string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "sku = ?", sku).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *Repository) Update(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

// Deactivate soft-deletes a product. Returns affected rows so the caller can
// tell a missing row from an already inactive one.
func (r *Repository) Deactivate(ctx context.Context, id int64) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND is_active", id).
		Update("is_active", false)
	return res.RowsAffected, res.Error
}

// ListActive returns active products ordered by name.
func (r *Repository) ListActive(ctx context.Context) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Where("is_active").
		Order("name ASC").
		Find(&rows).
		Error
	return rows, err
}

// ListBySupplier returns a supplier's active products ordered by name.
func (r *Repository) ListBySupplier(ctx context.Context, supplierID int64) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Where("supplier_id = ? AND is_active", supplierID).
		Order("name ASC").
		Find(&rows).
		Error
	return rows, err
}
