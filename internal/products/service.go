package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/clearstock/supplychain-backend/pkg/db"
	"github.com/clearstock/supplychain-backend/pkg/db/models"
	pkgerrors "github.com/clearstock/supplychain-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages the product catalog. Deletes are soft so inventory rows and
// order history keep valid product references.
type Service interface {
	CreateProduct(ctx context.Context, input ProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, id int64, input ProductInput) (*models.Product, error)
	DeactivateProduct(ctx context.Context, id int64) error

	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	GetProductBySKU(ctx context.Context, sku string) (*models.Product, error)
	ActiveProducts(ctx context.Context) ([]models.Product, error)
	ProductsBySupplier(ctx context.Context, supplierID int64) ([]models.Product, error)
}

// ProductInput carries the writable product fields.
type ProductInput struct {
	Name         string
	SKU          string
	Description  *string
	UnitPrice    decimal.Decimal
	ReorderLevel int
	SupplierID   int64
}

type service struct {
	repo *Repository
	tx   txRunner
}

func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func validateInput(input ProductInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product name required")
	}
	if strings.TrimSpace(input.SKU) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product sku required")
	}
	if input.UnitPrice.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unit price cannot be negative")
	}
	if input.ReorderLevel < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "reorder level cannot be negative")
	}
	if input.SupplierID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "supplier id required")
	}
	return nil
}

func (s *service) CreateProduct(ctx context.Context, input ProductInput) (*models.Product, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	product := &models.Product{
		Name:         input.Name,
		SKU:          input.SKU,
		Description:  input.Description,
		UnitPrice:    input.UnitPrice,
		ReorderLevel: input.ReorderLevel,
		SupplierID:   input.SupplierID,
		IsActive:     true,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, product); err != nil {
			if db.IsUniqueViolation(err, "idx_products_sku") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "sku already exists").
					WithDetails(map[string]any{"sku": input.SKU})
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert product")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (s *service) UpdateProduct(ctx context.Context, id int64, input ProductInput) (*models.Product, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	var updated *models.Product
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		product, err := repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}

		product.Name = input.Name
		product.SKU = input.SKU
		product.Description = input.Description
		product.UnitPrice = input.UnitPrice
		product.ReorderLevel = input.ReorderLevel
		product.SupplierID = input.SupplierID

		if err := repo.Update(ctx, product); err != nil {
			if db.IsUniqueViolation(err, "idx_products_sku") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "sku already exists").
					WithDetails(map[string]any{"sku": input.SKU})
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
		}
		updated = product
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) DeactivateProduct(ctx context.Context, id int64) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		rows, err := repo.Deactivate(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate product")
		}
		if rows == 0 {
			if _, err := repo.FindByID(ctx, id); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload product")
			}
			// Already inactive; deactivation is idempotent.
		}
		return nil
	})
}

func (s *service) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) GetProductBySKU(ctx context.Context, sku string) (*models.Product, error) {
	product, err := s.repo.FindBySKU(ctx, sku)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) ActiveProducts(ctx context.Context) ([]models.Product, error) {
	rows, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return rows, nil
}

func (s *service) ProductsBySupplier(ctx context.Context, supplierID int64) ([]models.Product, error) {
	rows, err := s.repo.ListBySupplier(ctx, supplierID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products by supplier")
	}
	return rows, nil
}
