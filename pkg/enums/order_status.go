package enums

import "fmt"

// OrderStatus is the overall state of a customer order. Values are stored in
// the plant's own vocabulary.
type OrderStatus string

const (
	OrderStatusInProcess OrderStatus = "En Proceso"
	OrderStatusScheduled OrderStatus = "Programado"
	OrderStatusCancelled OrderStatus = "Anulado"
	OrderStatusDelivered OrderStatus = "Entregado"
	OrderStatusInvoiced  OrderStatus = "Facturado"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusInProcess,
	OrderStatusScheduled,
	OrderStatusCancelled,
	OrderStatusDelivered,
	OrderStatusInvoiced,
}

// OrderStatuses returns every known order status in display order.
func OrderStatuses() []OrderStatus {
	out := make([]OrderStatus, len(validOrderStatuses))
	copy(out, validOrderStatuses)
	return out
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
