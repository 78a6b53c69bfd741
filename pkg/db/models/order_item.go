package models

import "github.com/shopspring/decimal"

// OrderItem is one product line on an order. Subtotal is quantity times unit
// price, computed once at order creation and immutable afterwards.
type OrderItem struct {
	ID        int64           `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	OrderID   int64           `gorm:"column:order_id;not null" json:"order_id"`
	ProductID int64           `gorm:"column:product_id;not null" json:"product_id"`
	Quantity  int             `gorm:"column:quantity;not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(18,2);not null" json:"unit_price"`
	Subtotal  decimal.Decimal `gorm:"column:subtotal;type:numeric(18,2);not null" json:"subtotal"`
}
