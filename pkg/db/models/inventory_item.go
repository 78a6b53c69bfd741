package models

import "time"

// InventoryItem tracks on-hand and reserved counts for one product in one
// warehouse. The (product, warehouse) pair is unique; available quantity is
// always derived, never stored.
type InventoryItem struct {
	ID               int64      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ProductID        int64      `gorm:"column:product_id;not null;uniqueIndex:idx_inventory_product_warehouse" json:"product_id"`
	WarehouseID      int64      `gorm:"column:warehouse_id;not null;uniqueIndex:idx_inventory_product_warehouse" json:"warehouse_id"`
	QuantityOnHand   int        `gorm:"column:quantity_on_hand;not null;default:0" json:"quantity_on_hand"`
	QuantityReserved int        `gorm:"column:quantity_reserved;not null;default:0" json:"quantity_reserved"`
	Location         *string    `gorm:"column:location" json:"location,omitempty"`
	LastRestocked    time.Time  `gorm:"column:last_restocked" json:"last_restocked"`
	LastCountDate    *time.Time `gorm:"column:last_count_date" json:"last_count_date,omitempty"`
	UpdatedAt        time.Time  `gorm:"column:updated_at" json:"updated_at"`
}

// QuantityAvailable is on-hand minus reserved: the allocatable quantity.
func (i InventoryItem) QuantityAvailable() int {
	return i.QuantityOnHand - i.QuantityReserved
}
