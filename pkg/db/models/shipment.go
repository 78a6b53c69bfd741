package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/clearstock/supplychain-backend/pkg/enums"
)

// Shipment is the one-to-one delivery record for an order.
type Shipment struct {
	ID                    int64                `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	OrderID               int64                `gorm:"column:order_id;uniqueIndex:idx_shipments_order;not null" json:"order_id"`
	TrackingNumber        string               `gorm:"column:tracking_number;uniqueIndex:idx_shipments_tracking_number;not null" json:"tracking_number"`
	Carrier               *string              `gorm:"column:carrier" json:"carrier,omitempty"`
	ShipmentDate          time.Time            `gorm:"column:shipment_date;not null" json:"shipment_date"`
	EstimatedDeliveryDate *time.Time           `gorm:"column:estimated_delivery_date" json:"estimated_delivery_date,omitempty"`
	ActualDeliveryDate    *time.Time           `gorm:"column:actual_delivery_date" json:"actual_delivery_date,omitempty"`
	Status                enums.ShipmentStatus `gorm:"column:status;not null" json:"status"`
	ShippingCost          decimal.Decimal      `gorm:"column:shipping_cost;type:numeric(18,2);not null" json:"shipping_cost"`
	Notes                 *string              `gorm:"column:notes" json:"notes,omitempty"`
	CreatedAt             time.Time            `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time            `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
