package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry sourced from a supplier. Rows are soft-deleted
// via IsActive so inventory and order history keep valid references.
type Product struct {
	ID           int64           `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name         string          `gorm:"column:name;not null" json:"name"`
	SKU          string          `gorm:"column:sku;uniqueIndex:idx_products_sku;not null" json:"sku"`
	Description  *string         `gorm:"column:description" json:"description,omitempty"`
	UnitPrice    decimal.Decimal `gorm:"column:unit_price;type:numeric(18,2);not null" json:"unit_price"`
	ReorderLevel int             `gorm:"column:reorder_level;not null;default:0" json:"reorder_level"`
	SupplierID   int64           `gorm:"column:supplier_id;not null" json:"supplier_id"`
	IsActive     bool            `gorm:"column:is_active;not null;default:true" json:"is_active"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
