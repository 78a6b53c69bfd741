package suppliers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/clearstock/supplychain-backend/pkg/db/models"
	pkgerrors "github.com/clearstock/supplychain-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages vendors. Deletes are soft so products and order history
// keep valid supplier references.
type Service interface {
	CreateSupplier(ctx context.Context, input SupplierInput) (*models.Supplier, error)
	UpdateSupplier(ctx context.Context, id int64, input SupplierInput) (*models.Supplier, error)
	DeactivateSupplier(ctx context.Context, id int64) error

	GetSupplier(ctx context.Context, id int64) (*models.Supplier, error)
	ActiveSuppliers(ctx context.Context) ([]models.Supplier, error)
}

// SupplierInput carries the writable supplier fields.
type SupplierInput struct {
	CompanyName  string
	ContactName  *string
	Email        *string
	Phone        *string
	Address      *string
	City         *string
	Country      *string
	PostalCode   *string
	LeadTimeDays int
	Rating       decimal.Decimal
}

type service struct {
	repo *Repository
	tx   txRunner
}

func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("suppliers repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

var ratingMax = decimal.NewFromInt(5)

func validateInput(input SupplierInput) error {
	if strings.TrimSpace(input.CompanyName) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "company name required")
	}
	if input.LeadTimeDays < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "lead time cannot be negative")
	}
	if input.Rating.IsNegative() || input.Rating.GreaterThan(ratingMax) {
		return pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 0 and 5")
	}
	return nil
}

func (s *service) CreateSupplier(ctx context.Context, input SupplierInput) (*models.Supplier, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	supplier := &models.Supplier{
		CompanyName:  input.CompanyName,
		ContactName:  input.ContactName,
		Email:        input.Email,
		Phone:        input.Phone,
		Address:      input.Address,
		City:         input.City,
		Country:      input.Country,
		PostalCode:   input.PostalCode,
		LeadTimeDays: input.LeadTimeDays,
		Rating:       input.Rating,
		IsActive:     true,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, supplier); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert supplier")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return supplier, nil
}

func (s *service) UpdateSupplier(ctx context.Context, id int64, input SupplierInput) (*models.Supplier, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	var updated *models.Supplier
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		supplier, err := repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load supplier")
		}

		supplier.CompanyName = input.CompanyName
		supplier.ContactName = input.ContactName
		supplier.Email = input.Email
		supplier.Phone = input.Phone
		supplier.Address = input.Address
		supplier.City = input.City
		supplier.Country = input.Country
		supplier.PostalCode = input.PostalCode
		supplier.LeadTimeDays = input.LeadTimeDays
		supplier.Rating = input.Rating

		if err := repo.Update(ctx, supplier); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update supplier")
		}
		updated = supplier
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) DeactivateSupplier(ctx context.Context, id int64) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		rows, err := repo.Deactivate(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate supplier")
		}
		if rows == 0 {
			if _, err := repo.FindByID(ctx, id); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload supplier")
			}
		}
		return nil
	})
}

func (s *service) GetSupplier(ctx context.Context, id int64) (*models.Supplier, error) {
	supplier, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load supplier")
	}
	return supplier, nil
}

func (s *service) ActiveSuppliers(ctx context.Context) ([]models.Supplier, error) {
	rows, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list suppliers")
	}
	return rows, nil
}
