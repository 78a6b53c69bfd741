package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/clearstock/supplychain-backend/pkg/enums"
)

// Order is a purchase order placed against a supplier. It exclusively owns
// its items (cascade delete) and at most one shipment. TotalAmount is fixed
// at creation from the item subtotals.
type Order struct {
	ID                   int64             `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	OrderNumber          string            `gorm:"column:order_number;uniqueIndex:idx_orders_order_number;not null" json:"order_number"`
	SupplierID           int64             `gorm:"column:supplier_id;not null" json:"supplier_id"`
	OrderDate            time.Time         `gorm:"column:order_date;not null" json:"order_date"`
	ExpectedDeliveryDate *time.Time        `gorm:"column:expected_delivery_date" json:"expected_delivery_date,omitempty"`
	ActualDeliveryDate   *time.Time        `gorm:"column:actual_delivery_date" json:"actual_delivery_date,omitempty"`
	Status               enums.OrderStatus `gorm:"column:status;not null" json:"status"`
	TotalAmount          decimal.Decimal   `gorm:"column:total_amount;type:numeric(18,2);not null" json:"total_amount"`
	Notes                *string           `gorm:"column:notes" json:"notes,omitempty"`
	CreatedAt            time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	Items    []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	Shipment *Shipment   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"shipment,omitempty"`
}
