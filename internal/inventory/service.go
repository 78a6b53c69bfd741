package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/clearstock/supplychain-backend/pkg/config"
	"github.com/clearstock/supplychain-backend/pkg/db"
	"github.com/clearstock/supplychain-backend/pkg/db/models"
	pkgerrors "github.com/clearstock/supplychain-backend/pkg/errors"
	"github.com/clearstock/supplychain-backend/pkg/logger"
	"github.com/clearstock/supplychain-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service is the stock ledger: it owns inventory rows and mediates
// reservation and release against order demand.
type Service interface {
	AddInventory(ctx context.Context, input AddInventoryInput) (*models.InventoryItem, error)
	AdjustStock(ctx context.Context, inventoryID int64, delta int) (*models.InventoryItem, error)
	ReserveStock(ctx context.Context, productID, warehouseID int64, qty int) error
	ReleaseStock(ctx context.Context, productID, warehouseID int64, qty int) error

	GetByID(ctx context.Context, id int64) (*models.InventoryItem, error)
	AllInventory(ctx context.Context) ([]Item, error)
	InventoryByWarehouse(ctx context.Context, warehouseID int64) ([]Item, error)
	LowStockItems(ctx context.Context) ([]Item, error)
}

// AddInventoryInput carries the fields for a first stock entry of a
// (product, warehouse) pair.
type AddInventoryInput struct {
	ProductID      int64
	WarehouseID    int64
	QuantityOnHand int
	Location       *string
}

type service struct {
	repo        *Repository
	tx          txRunner
	cfg         config.InventoryConfig
	logg        *logger.Logger
	reservation *metrics.ReservationMetrics
}

// NewService builds the inventory service with the required dependencies.
func NewService(repo *Repository, tx txRunner, cfg config.InventoryConfig, logg *logger.Logger, reservation *metrics.ReservationMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:        repo,
		tx:          tx,
		cfg:         cfg,
		logg:        logg,
		reservation: reservation,
	}, nil
}

func (s *service) AddInventory(ctx context.Context, input AddInventoryInput) (*models.InventoryItem, error) {
	if input.ProductID <= 0 || input.WarehouseID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id and warehouse id required")
	}
	if input.QuantityOnHand < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity on hand cannot be negative")
	}

	now := time.Now().UTC()
	item := &models.InventoryItem{
		ProductID:      input.ProductID,
		WarehouseID:    input.WarehouseID,
		QuantityOnHand: input.QuantityOnHand,
		Location:       input.Location,
		LastRestocked:  now,
		UpdatedAt:      now,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, item); err != nil {
			if db.IsUniqueViolation(err, "idx_inventory_product_warehouse") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "inventory row already exists for product and warehouse")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert inventory row")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *service) AdjustStock(ctx context.Context, inventoryID int64, delta int) (*models.InventoryItem, error) {
	if delta == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delta must be non-zero")
	}

	var adjusted *models.InventoryItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		now := time.Now().UTC()

		rows, err := repo.ApplyAdjustment(ctx, inventoryID, delta, s.cfg.StrictAdjust, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adjust stock")
		}
		if rows == 0 {
			if _, err := repo.FindByID(ctx, inventoryID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "inventory row not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload inventory row")
			}
			return pkgerrors.New(pkgerrors.CodeStateConflict, "adjustment would drop on-hand below reserved").
				WithDetails(map[string]any{"inventory_id": inventoryID, "delta": delta})
		}

		item, err := repo.FindByID(ctx, inventoryID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload inventory row")
		}
		if item.QuantityOnHand < item.QuantityReserved && s.logg != nil {
			lctx := s.logg.WithFields(ctx, map[string]any{
				"inventory_id":      item.ID,
				"quantity_on_hand":  item.QuantityOnHand,
				"quantity_reserved": item.QuantityReserved,
				"delta":             delta,
			})
			s.logg.Warn(lctx, "stock adjustment drove on-hand below reserved")
		}
		adjusted = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return adjusted, nil
}

func (s *service) ReserveStock(ctx context.Context, productID, warehouseID int64, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		rows, err := repo.ReserveQuantity(ctx, productID, warehouseID, qty, time.Now().UTC())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve stock")
		}
		if rows > 0 {
			s.reservation.IncReserved("reserve")
			return nil
		}

		// Zero rows: either the row is missing or available stock fell short.
		item, err := repo.FindByPair(ctx, productID, warehouseID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				s.reservation.IncRejected("reserve", "not_found")
				return pkgerrors.New(pkgerrors.CodeNotFound, "inventory row not found for product and warehouse")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload inventory row")
		}
		s.reservation.IncRejected("reserve", "insufficient_stock")
		return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock available").
			WithDetails(map[string]any{
				"requested": qty,
				"available": item.QuantityAvailable(),
			})
	})
}

func (s *service) ReleaseStock(ctx context.Context, productID, warehouseID int64, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		rows, err := repo.ReleaseQuantity(ctx, productID, warehouseID, qty, time.Now().UTC())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release stock")
		}
		if rows > 0 {
			s.reservation.IncReserved("release")
			return nil
		}

		item, err := repo.FindByPair(ctx, productID, warehouseID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				s.reservation.IncRejected("release", "not_found")
				return pkgerrors.New(pkgerrors.CodeNotFound, "inventory row not found for product and warehouse")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload inventory row")
		}
		s.reservation.IncRejected("release", "invalid_release")
		return pkgerrors.New(pkgerrors.CodeInvalidRelease, "release exceeds reserved quantity").
			WithDetails(map[string]any{
				"requested": qty,
				"reserved":  item.QuantityReserved,
			})
	})
}

func (s *service) GetByID(ctx context.Context, id int64) (*models.InventoryItem, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory row not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory row")
	}
	return item, nil
}

func (s *service) AllInventory(ctx context.Context) ([]Item, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list inventory")
	}
	return rows, nil
}

func (s *service) InventoryByWarehouse(ctx context.Context, warehouseID int64) ([]Item, error) {
	rows, err := s.repo.ListByWarehouse(ctx, warehouseID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list inventory by warehouse")
	}
	return rows, nil
}

func (s *service) LowStockItems(ctx context.Context) ([]Item, error) {
	rows, err := s.repo.ListLowStock(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list low stock items")
	}
	return rows, nil
}
