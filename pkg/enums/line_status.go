package enums

import "fmt"

// LineStatus tracks a single order line. Lines start pending and then follow
// the order status when it changes.
type LineStatus string

const LineStatusPending LineStatus = "Pendiente"

// LineStatusFromOrder maps an order status onto the equivalent line status.
func LineStatusFromOrder(status OrderStatus) LineStatus {
	return LineStatus(status)
}

func (s LineStatus) String() string {
	return string(s)
}

func (s LineStatus) IsValid() bool {
	if s == LineStatusPending {
		return true
	}
	return OrderStatus(s).IsValid()
}

func ParseLineStatus(value string) (LineStatus, error) {
	status := LineStatus(value)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid line status %q", value)
	}
	return status, nil
}
