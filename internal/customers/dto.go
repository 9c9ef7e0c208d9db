package customers

import (
	"strings"
	"time"

	"github.com/florezcook/orders-backend/pkg/db/models"
	"github.com/florezcook/orders-backend/pkg/enums"
)

// Input carries the writable customer fields.
type Input struct {
	TradeName            string
	LegalName            string
	IdentificationType   enums.IdentificationType
	IdentificationNumber string
	Email                string
	Phone                string
	AddressLine1         string
	AddressLine2         *string
	City                 string
	Department           string
	PostalCode           *string
	Country              string
	Latitude             *float64
	Longitude            *float64
}

// Normalize trims every text field and drops blank optional ones.
func (in Input) Normalize() Input {
	in.TradeName = strings.TrimSpace(in.TradeName)
	in.LegalName = strings.TrimSpace(in.LegalName)
	in.IdentificationType = enums.IdentificationType(strings.TrimSpace(string(in.IdentificationType)))
	in.IdentificationNumber = strings.TrimSpace(in.IdentificationNumber)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.AddressLine1 = strings.TrimSpace(in.AddressLine1)
	in.AddressLine2 = trimOptional(in.AddressLine2)
	in.City = strings.TrimSpace(in.City)
	in.Department = strings.TrimSpace(in.Department)
	in.PostalCode = trimOptional(in.PostalCode)
	in.Country = strings.TrimSpace(in.Country)
	return in
}

// Apply copies the input onto a customer row.
func (in Input) Apply(c *models.Customer) {
	c.TradeName = in.TradeName
	c.LegalName = in.LegalName
	c.IdentificationType = in.IdentificationType
	c.IdentificationNumber = in.IdentificationNumber
	c.Email = in.Email
	c.Phone = in.Phone
	c.AddressLine1 = in.AddressLine1
	c.AddressLine2 = in.AddressLine2
	c.City = in.City
	c.Department = in.Department
	c.PostalCode = in.PostalCode
	c.Country = in.Country
	c.Latitude = in.Latitude
	c.Longitude = in.Longitude
}

// Model builds a new customer row from the input.
func (in Input) Model() *models.Customer {
	c := &models.Customer{}
	in.Apply(c)
	return c
}

func trimOptional(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// CustomerDTO is the API shape of a customer.
type CustomerDTO struct {
	ID                   uint64                   `json:"id"`
	TradeName            string                   `json:"trade_name"`
	LegalName            string                   `json:"legal_name"`
	IdentificationType   enums.IdentificationType `json:"identification_type"`
	IdentificationNumber string                   `json:"identification_number"`
	Email                string                   `json:"email"`
	Phone                string                   `json:"phone"`
	AddressLine1         string                   `json:"address_line1"`
	AddressLine2         *string                  `json:"address_line2,omitempty"`
	City                 string                   `json:"city"`
	Department           string                   `json:"department"`
	PostalCode           *string                  `json:"postal_code,omitempty"`
	Country              string                   `json:"country"`
	Latitude             *float64                 `json:"latitude,omitempty"`
	Longitude            *float64                 `json:"longitude,omitempty"`
	CreatedAt            time.Time                `json:"created_at"`
	UpdatedAt            time.Time                `json:"updated_at"`
}

func NewCustomerDTO(c *models.Customer) CustomerDTO {
	return CustomerDTO{
		ID:                   c.ID,
		TradeName:            c.TradeName,
		LegalName:            c.LegalName,
		IdentificationType:   c.IdentificationType,
		IdentificationNumber: c.IdentificationNumber,
		Email:                c.Email,
		Phone:                c.Phone,
		AddressLine1:         c.AddressLine1,
		AddressLine2:         c.AddressLine2,
		City:                 c.City,
		Department:           c.Department,
		PostalCode:           c.PostalCode,
		Country:              c.Country,
		Latitude:             c.Latitude,
		Longitude:            c.Longitude,
		CreatedAt:            c.CreatedAt,
		UpdatedAt:            c.UpdatedAt,
	}
}
