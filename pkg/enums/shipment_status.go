package enums

// ShipmentStatus tracks a shipment from packing to delivery.
type ShipmentStatus string

const (
	ShipmentStatusPreparing ShipmentStatus = "preparing"
	ShipmentStatusInTransit ShipmentStatus = "in_transit"
	ShipmentStatusDelivered ShipmentStatus = "delivered"
	ShipmentStatusDelayed   ShipmentStatus = "delayed"
	ShipmentStatusCancelled ShipmentStatus = "cancelled"
)

// Valid reports whether the value is a known shipment status.
func (s ShipmentStatus) Valid() bool {
	switch s {
	case ShipmentStatusPreparing, ShipmentStatusInTransit, ShipmentStatusDelivered,
		ShipmentStatusDelayed, ShipmentStatusCancelled:
		return true
	}
	return false
}
