package models

import "time"

// Warehouse is a physical stock location identified by a unique code.
type Warehouse struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	Code      string    `gorm:"column:code;uniqueIndex:idx_warehouses_code;not null" json:"code"`
	Address   *string   `gorm:"column:address" json:"address,omitempty"`
	City      *string   `gorm:"column:city" json:"city,omitempty"`
	Country   *string   `gorm:"column:country" json:"country,omitempty"`
	Capacity  int64     `gorm:"column:capacity;not null;default:0" json:"capacity"`
	IsActive  bool      `gorm:"column:is_active;not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
