package warehouses

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/clearstock/supplychain-backend/pkg/db"
	"github.com/clearstock/supplychain-backend/pkg/db/models"
	pkgerrors "github.com/clearstock/supplychain-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages stock locations and their utilization statistics.
type Service interface {
	CreateWarehouse(ctx context.Context, input WarehouseInput) (*models.Warehouse, error)
	UpdateWarehouse(ctx context.Context, id int64, input WarehouseInput) (*models.Warehouse, error)
	DeactivateWarehouse(ctx context.Context, id int64) error

	GetWarehouse(ctx context.Context, id int64) (*models.Warehouse, error)
	ActiveWarehouses(ctx context.Context) ([]models.Warehouse, error)
	WarehouseStats(ctx context.Context, id int64) (*Stats, error)
}

// WarehouseInput carries the writable warehouse fields.
type WarehouseInput struct {
	Name     string
	Code     string
	Address  *string
	City     *string
	Country  *string
	Capacity int64
}

// Stats aggregates a warehouse's stock position. UtilizationPct is on-hand
// over capacity; zero-capacity warehouses report zero rather than dividing.
type Stats struct {
	WarehouseID       int64   `json:"warehouse_id"`
	Code              string  `json:"code"`
	DistinctProducts  int64   `json:"distinct_products"`
	TotalOnHand       int64   `json:"total_on_hand"`
	TotalReserved     int64   `json:"total_reserved"`
	TotalAvailable    int64   `json:"total_available"`
	Capacity          int64   `json:"capacity"`
	CapacityRemaining int64   `json:"capacity_remaining"`
	UtilizationPct    float64 `json:"utilization_pct"`
}

type service struct {
	repo *Repository
	tx   txRunner
}

func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("warehouses repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func validateInput(input WarehouseInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "warehouse name required")
	}
	if strings.TrimSpace(input.Code) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "warehouse code required")
	}
	if input.Capacity < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "capacity cannot be negative")
	}
	return nil
}

func (s *service) CreateWarehouse(ctx context.Context, input WarehouseInput) (*models.Warehouse, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	warehouse := &models.Warehouse{
		Name:     input.Name,
		Code:     input.Code,
		Address:  input.Address,
		City:     input.City,
		Country:  input.Country,
		Capacity: input.Capacity,
		IsActive: true,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, warehouse); err != nil {
			if db.IsUniqueViolation(err, "idx_warehouses_code") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "warehouse code already exists").
					WithDetails(map[string]any{"code": input.Code})
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert warehouse")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return warehouse, nil
}

func (s *service) UpdateWarehouse(ctx context.Context, id int64, input WarehouseInput) (*models.Warehouse, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	var updated *models.Warehouse
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		warehouse, err := repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "warehouse not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load warehouse")
		}

		warehouse.Name = input.Name
		warehouse.Code = input.Code
		warehouse.Address = input.Address
		warehouse.City = input.City
		warehouse.Country = input.Country
		warehouse.Capacity = input.Capacity

		if err := repo.Update(ctx, warehouse); err != nil {
			if db.IsUniqueViolation(err, "idx_warehouses_code") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "warehouse code already exists").
					WithDetails(map[string]any{"code": input.Code})
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update warehouse")
		}
		updated = warehouse
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) DeactivateWarehouse(ctx context.Context, id int64) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		rows, err := repo.Deactivate(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate warehouse")
		}
		if rows == 0 {
			if _, err := repo.FindByID(ctx, id); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "warehouse not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload warehouse")
			}
		}
		return nil
	})
}

func (s *service) GetWarehouse(ctx context.Context, id int64) (*models.Warehouse, error) {
	warehouse, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "warehouse not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load warehouse")
	}
	return warehouse, nil
}

func (s *service) ActiveWarehouses(ctx context.Context) ([]models.Warehouse, error) {
	rows, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list warehouses")
	}
	return rows, nil
}

func (s *service) WarehouseStats(ctx context.Context, id int64) (*Stats, error) {
	warehouse, err := s.GetWarehouse(ctx, id)
	if err != nil {
		return nil, err
	}

	totals, err := s.repo.StockTotals(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate warehouse stock")
	}

	stats := &Stats{
		WarehouseID:       warehouse.ID,
		Code:              warehouse.Code,
		DistinctProducts:  totals.DistinctProducts,
		TotalOnHand:       totals.TotalOnHand,
		TotalReserved:     totals.TotalReserved,
		TotalAvailable:    totals.TotalOnHand - totals.TotalReserved,
		Capacity:          warehouse.Capacity,
		CapacityRemaining: warehouse.Capacity - totals.TotalOnHand,
	}
	if warehouse.Capacity > 0 {
		stats.UtilizationPct = float64(totals.TotalOnHand) / float64(warehouse.Capacity) * 100
	}
	return stats, nil
}
