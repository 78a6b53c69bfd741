package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Supplier is a vendor that products and purchase orders reference.
type Supplier struct {
	ID           int64           `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	CompanyName  string          `gorm:"column:company_name;not null" json:"company_name"`
	ContactName  *string         `gorm:"column:contact_name" json:"contact_name,omitempty"`
	Email        *string         `gorm:"column:email" json:"email,omitempty"`
	Phone        *string         `gorm:"column:phone" json:"phone,omitempty"`
	Address      *string         `gorm:"column:address" json:"address,omitempty"`
	City         *string         `gorm:"column:city" json:"city,omitempty"`
	Country      *string         `gorm:"column:country" json:"country,omitempty"`
	PostalCode   *string         `gorm:"column:postal_code" json:"postal_code,omitempty"`
	LeadTimeDays int             `gorm:"column:lead_time_days;not null;default:0" json:"lead_time_days"`
	Rating       decimal.Decimal `gorm:"column:rating;type:numeric(3,1);not null;default:5.0" json:"rating"`
	IsActive     bool            `gorm:"column:is_active;not null;default:true" json:"is_active"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
