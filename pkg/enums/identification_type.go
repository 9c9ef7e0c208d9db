package enums

import "fmt"

// IdentificationType is the kind of tax/identity document a customer uses.
type IdentificationType string

const (
	IdentificationTypeNIT         IdentificationType = "NIT"
	IdentificationTypeCitizenID   IdentificationType = "Cedula Ciudadania"
	IdentificationTypeForeignerID IdentificationType = "Cedula Extranjeria"
)

var validIdentificationTypes = []IdentificationType{
	IdentificationTypeNIT,
	IdentificationTypeCitizenID,
	IdentificationTypeForeignerID,
}

// IdentificationTypes returns every known identification type.
func IdentificationTypes() []IdentificationType {
	out := make([]IdentificationType, len(validIdentificationTypes))
	copy(out, validIdentificationTypes)
	return out
}

func (i IdentificationType) String() string {
	return string(i)
}

func (i IdentificationType) IsValid() bool {
	for _, candidate := range validIdentificationTypes {
		if candidate == i {
			return true
		}
	}
	return false
}

func ParseIdentificationType(value string) (IdentificationType, error) {
	for _, candidate := range validIdentificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid identification type %q", value)
}
