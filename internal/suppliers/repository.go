package suppliers

import (
	"context"

	"gorm.io/gorm"

	"github.com/clearstock/supplychain-backend/pkg/db/models"
)

// Repository owns supplier rows.
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

func (r *Repository) Create(ctx context.Context, supplier *models.Supplier) error {
	return r.db.WithContext(ctx).Create(supplier).Error
}

func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Supplier, error) {
	var supplier models.Supplier
	if err := r.db.WithContext(ctx).First(&supplier, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (r *Repository) Update(ctx context.Context, supplier *models.Supplier) error {
	return r.db.WithContext(ctx).Save(supplier).Error
}

// Deactivate soft-deletes a supplier. Returns affected rows so the caller can
// tell a missing row from an already inactive one.
func (r *Repository) Deactivate(ctx context.Context, id int64) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Supplier{}).
		Where("id = ? AND is_active", id).
		Update("is_active", false)
	return res.RowsAffected, res.Error
}

// ListActive returns active suppliers ordered by company name.
func (r *Repository) ListActive(ctx context.Context) ([]models.Supplier, error) {
	var rows []models.Supplier
	err := r.db.WithContext(ctx).
		Where("is_active").
		Order("company_name ASC").
		Find(&rows).
		Error
	return rows, err
}
