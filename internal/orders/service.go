package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/clearstock/supplychain-backend/pkg/config"
	"github.com/clearstock/supplychain-backend/pkg/db"
	"github.com/clearstock/supplychain-backend/pkg/db/models"
	"github.com/clearstock/supplychain-backend/pkg/enums"
	pkgerrors "github.com/clearstock/supplychain-backend/pkg/errors"
	"github.com/clearstock/supplychain-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service drives the order state machine: creation with number assignment and
// total computation, guarded status transitions, cancellation and the
// one-to-one shipment.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, newStatus enums.OrderStatus) (*models.Order, error)
	CancelOrder(ctx context.Context, orderID int64) (*models.Order, error)
	CalculateOrderTotal(ctx context.Context, orderID int64) (decimal.Decimal, error)

	GetOrder(ctx context.Context, orderID int64) (*models.Order, error)
	ListOrders(ctx context.Context, params pagination.Params) ([]models.Order, string, error)
	OrdersBySupplier(ctx context.Context, supplierID int64) ([]models.Order, error)
	PendingOrders(ctx context.Context) ([]models.Order, error)

	CreateShipment(ctx context.Context, orderID int64, input CreateShipmentInput) (*models.Shipment, error)
	UpdateShipmentStatus(ctx context.Context, shipmentID int64, status enums.ShipmentStatus) (*models.Shipment, error)
}

// CreateOrderInput carries the payload for a new purchase order.
type CreateOrderInput struct {
	SupplierID           int64
	ExpectedDeliveryDate *time.Time
	Notes                *string
	Items                []OrderItemInput
}

// OrderItemInput is one requested product line.
type OrderItemInput struct {
	ProductID int64
	Quantity  int
	UnitPrice decimal.Decimal
}

// CreateShipmentInput carries the payload for an order's shipment.
type CreateShipmentInput struct {
	TrackingNumber        *string
	Carrier               *string
	EstimatedDeliveryDate *time.Time
	ShippingCost          decimal.Decimal
	Notes                 *string
}

type service struct {
	repo *Repository
	tx   txRunner
	cfg  config.OrdersConfig
}

// NewService builds an order service with the required dependencies.
func NewService(repo *Repository, tx txRunner, cfg config.OrdersConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, cfg: cfg}, nil
}

func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if input.SupplierID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier id required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order requires at least one item")
	}
	for _, item := range input.Items {
		if item.ProductID <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item product id required")
		}
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
		if item.UnitPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item unit price cannot be negative")
		}
	}

	now := time.Now().UTC()
	order := &models.Order{
		SupplierID:           input.SupplierID,
		OrderDate:            now,
		ExpectedDeliveryDate: input.ExpectedDeliveryDate,
		Status:               enums.OrderStatusPending,
		Notes:                input.Notes,
		CreatedAt:            now,
	}

	total := decimal.Zero
	for _, item := range input.Items {
		subtotal := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		order.Items = append(order.Items, models.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Subtotal:  subtotal,
		})
		total = total.Add(subtotal)
	}
	order.TotalAmount = total

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		seq, err := repo.NextSequence(ctx, now.Format("20060102"))
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "advance order number sequence")
		}
		order.OrderNumber = fmt.Sprintf("ORD-%s-%04d", now.Format("20060102"), seq)

		if err := repo.Create(ctx, order); err != nil {
			if db.IsUniqueViolation(err, "idx_orders_order_number") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order number already exists")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) UpdateOrderStatus(ctx context.Context, orderID int64, newStatus enums.OrderStatus) (*models.Order, error) {
	if !newStatus.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status").
			WithDetails(map[string]any{"status": newStatus})
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		if !CanTransition(order.Status, newStatus, s.cfg.AllowBackwardTransitions) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "status transition disallowed").
				WithDetails(map[string]any{"from": order.Status, "to": newStatus})
		}

		extra := map[string]any{}
		if newStatus == enums.OrderStatusDelivered {
			extra["actual_delivery_date"] = time.Now().UTC()
		}

		rows, err := repo.UpdateStatusFrom(ctx, order.ID, order.Status, newStatus, extra)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if rows == 0 {
			// Another writer moved the order between our read and write.
			if _, rerr := repo.FindByID(ctx, orderID); rerr != nil {
				if errors.Is(rerr, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, rerr, "reload order")
			}
			return pkgerrors.New(pkgerrors.CodeConcurrency, "order modified concurrently")
		}

		updated, err = repo.FindByID(ctx, orderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) CancelOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	var cancelled *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		if order.Status == enums.OrderStatusDelivered {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "delivered orders cannot be cancelled")
		}
		if order.Status == enums.OrderStatusCancelled {
			cancelled = order
			return nil
		}

		rows, err := repo.UpdateStatusFrom(ctx, order.ID, order.Status, enums.OrderStatusCancelled, nil)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeConcurrency, "order modified concurrently")
		}

		cancelled, err = repo.FindByID(ctx, orderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

// CalculateOrderTotal recomputes the sum of persisted item subtotals,
// independent of the stored total fixed at creation.
func (s *service) CalculateOrderTotal(ctx context.Context, orderID int64) (decimal.Decimal, error) {
	if _, err := s.repo.FindByID(ctx, orderID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	items, err := s.repo.ListItems(ctx, orderID)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order items")
	}

	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal)
	}
	return total, nil
}

func (s *service) GetOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	order, err := s.repo.FindDetail(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) ListOrders(ctx context.Context, params pagination.Params) ([]models.Order, string, error) {
	rows, next, err := s.repo.ListPage(ctx, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return rows, next, nil
}

func (s *service) OrdersBySupplier(ctx context.Context, supplierID int64) ([]models.Order, error) {
	rows, err := s.repo.ListBySupplier(ctx, supplierID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders by supplier")
	}
	return rows, nil
}

func (s *service) PendingOrders(ctx context.Context) ([]models.Order, error) {
	rows, err := s.repo.ListPending(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending orders")
	}
	return rows, nil
}

func (s *service) CreateShipment(ctx context.Context, orderID int64, input CreateShipmentInput) (*models.Shipment, error) {
	if input.ShippingCost.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping cost cannot be negative")
	}

	now := time.Now().UTC()
	shipment := &models.Shipment{
		OrderID:               orderID,
		Carrier:               input.Carrier,
		ShipmentDate:          now,
		EstimatedDeliveryDate: input.EstimatedDeliveryDate,
		Status:                enums.ShipmentStatusPreparing,
		ShippingCost:          input.ShippingCost,
		Notes:                 input.Notes,
	}
	if input.TrackingNumber != nil && *input.TrackingNumber != "" {
		shipment.TrackingNumber = *input.TrackingNumber
	} else {
		shipment.TrackingNumber = generateTrackingNumber()
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.Status != enums.OrderStatusProcessing && order.Status != enums.OrderStatusShipped {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "shipment requires a processing or shipped order").
				WithDetails(map[string]any{"status": order.Status})
		}

		if err := repo.CreateShipment(ctx, shipment); err != nil {
			if db.IsUniqueViolation(err, "idx_shipments_order") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order already has a shipment")
			}
			if db.IsUniqueViolation(err, "idx_shipments_tracking_number") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "tracking number already exists")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert shipment")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return shipment, nil
}

func (s *service) UpdateShipmentStatus(ctx context.Context, shipmentID int64, status enums.ShipmentStatus) (*models.Shipment, error) {
	if !status.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown shipment status").
			WithDetails(map[string]any{"status": status})
	}

	var updated *models.Shipment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		shipment, err := repo.FindShipment(ctx, shipmentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment")
		}

		now := time.Now().UTC()
		shipment.Status = status
		shipment.UpdatedAt = now
		if status == enums.ShipmentStatusDelivered {
			shipment.ActualDeliveryDate = &now

			// A delivered shipment completes a shipped order. Zero rows just
			// means the order was not in shipped state; that is fine.
			if _, err := repo.UpdateStatusFrom(ctx, shipment.OrderID, enums.OrderStatusShipped, enums.OrderStatusDelivered,
				map[string]any{"actual_delivery_date": now}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order delivered")
			}
		}

		if err := repo.UpdateShipment(ctx, shipment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update shipment")
		}
		updated = shipment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func generateTrackingNumber() string {
	return "TRK-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}
