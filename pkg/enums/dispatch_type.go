package enums

import "fmt"

// DispatchType is how an order leaves the plant.
type DispatchType string

const (
	DispatchTypeHomeDelivery DispatchType = "DOMICILIO"
	DispatchTypePlantPickup  DispatchType = "RECOGER EN PLANTA"
	DispatchTypeFleet        DispatchType = "FLOTA"
)

var validDispatchTypes = []DispatchType{
	DispatchTypeHomeDelivery,
	DispatchTypePlantPickup,
	DispatchTypeFleet,
}

// DispatchTypes returns every known dispatch type.
func DispatchTypes() []DispatchType {
	out := make([]DispatchType, len(validDispatchTypes))
	copy(out, validDispatchTypes)
	return out
}

func (d DispatchType) String() string {
	return string(d)
}

func (d DispatchType) IsValid() bool {
	for _, candidate := range validDispatchTypes {
		if candidate == d {
			return true
		}
	}
	return false
}

// RequiresAddress reports whether the dispatch needs a delivery address.
func (d DispatchType) RequiresAddress() bool {
	return d == DispatchTypeHomeDelivery
}

func ParseDispatchType(value string) (DispatchType, error) {
	for _, candidate := range validDispatchTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid dispatch type %q", value)
}
