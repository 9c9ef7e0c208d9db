package orders

import (
	"time"

	"github.com/florezcook/orders-backend/pkg/types"
)

// DefaultMinDeliveryBusinessDays is the lead time applied to new lines.
const DefaultMinDeliveryBusinessDays = 2

// MinimumDeliveryDate adds days business days to base. The plant works
// Monday through Saturday, so only Sundays are skipped.
func MinimumDeliveryDate(base time.Time, days int) types.Date {
	date := types.NewDate(base).Time
	for added := 0; added < days; {
		date = date.AddDate(0, 0, 1)
		if date.Weekday() != time.Sunday {
			added++
		}
	}
	return types.NewDate(date)
}
