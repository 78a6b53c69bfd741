package orders

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/clearstock/supplychain-backend/pkg/db/models"
	"github.com/clearstock/supplychain-backend/pkg/enums"
	"github.com/clearstock/supplychain-backend/pkg/pagination"
)

// Repository owns orders, order_items, shipments and the order number
// sequence.
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

// NextSequence increments and returns the order number counter for the given
// day. The upsert runs inside the caller's transaction, so concurrent order
// creation serializes on the counter row and every caller observes a distinct
// value.
func (r *Repository) NextSequence(ctx context.Context, day string) (int64, error) {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "day"}},
			DoUpdates: clause.Assignments(map[string]any{"last_seq": gorm.Expr("order_sequences.last_seq + 1")}),
		}).
		Create(&models.OrderSequence{Day: day, LastSeq: 1}).
		Error
	if err != nil {
		return 0, err
	}

	var seq models.OrderSequence
	if err := r.db.WithContext(ctx).First(&seq, "day = ?", day).Error; err != nil {
		return 0, err
	}
	return seq.LastSeq, nil
}

// Create inserts the order and its items in one statement graph.
func (r *Repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// FindByID loads an order without associations.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindDetail loads an order with its items and shipment.
func (r *Repository) FindDetail(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Shipment").
		First(&order, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateStatusFrom applies a status change guarded on the previously observed
// status. Zero affected rows means the order vanished or another writer moved
// it first; the caller disambiguates.
func (r *Repository) UpdateStatusFrom(ctx context.Context, id int64, from, to enums.OrderStatus, extra map[string]any) (int64, error) {
	updates := map[string]any{
		"status":     to,
		"updated_at": time.Now().UTC(),
	}
	for k, v := range extra {
		updates[k] = v
	}

	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	return res.RowsAffected, res.Error
}

// ListItems returns the persisted items for an order.
func (r *Repository) ListItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&items).
		Error
	return items, err
}

// ListBySupplier returns a supplier's orders with items, newest first.
func (r *Repository) ListBySupplier(ctx context.Context, supplierID int64) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("supplier_id = ?", supplierID).
		Order("order_date DESC").
		Find(&rows).
		Error
	return rows, err
}

// ListPending returns open orders (pending or confirmed), oldest first.
func (r *Repository) ListPending(ctx context.Context) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("status IN ?", []enums.OrderStatus{enums.OrderStatusPending, enums.OrderStatusConfirmed}).
		Order("order_date ASC").
		Find(&rows).
		Error
	return rows, err
}

// ListPage returns a cursor page of orders, newest first.
func (r *Repository) ListPage(ctx context.Context, params pagination.Params) ([]models.Order, string, error) {
	pageSize := pagination.NormalizeLimit(params.Limit)
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}

	qb := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))
	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Order
	if err := qb.Find(&rows).Error; err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(rows) > pageSize {
		rows = rows[:pageSize]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, nextCursor, nil
}

// CreateShipment inserts the one-to-one shipment row for an order.
func (r *Repository) CreateShipment(ctx context.Context, shipment *models.Shipment) error {
	return r.db.WithContext(ctx).Create(shipment).Error
}

// FindShipment loads a shipment by primary key.
func (r *Repository) FindShipment(ctx context.Context, id int64) (*models.Shipment, error) {
	var shipment models.Shipment
	if err := r.db.WithContext(ctx).First(&shipment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &shipment, nil
}

// UpdateShipment saves the mutated shipment row.
func (r *Repository) UpdateShipment(ctx context.Context, shipment *models.Shipment) error {
	return r.db.WithContext(ctx).Save(shipment).Error
}
