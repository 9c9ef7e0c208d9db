package models

import (
	"time"

	"github.com/florezcook/orders-backend/pkg/enums"
)

// Customer is a registered buyer, keyed by its unique identification number.
type Customer struct {
	ID                   uint64                   `gorm:"column:id;primaryKey;autoIncrement"`
	TradeName            string                   `gorm:"column:trade_name;not null"`
	LegalName            string                   `gorm:"column:legal_name;not null"`
	IdentificationType   enums.IdentificationType `gorm:"column:identification_type;not null"`
	IdentificationNumber string                   `gorm:"column:identification_number;not null;uniqueIndex"`
	Email                string                   `gorm:"column:email;not null;default:''"`
	Phone                string                   `gorm:"column:phone;not null;default:''"`
	AddressLine1         string                   `gorm:"column:address_line1;not null;default:''"`
	AddressLine2         *string                  `gorm:"column:address_line2"`
	City                 string                   `gorm:"column:city;not null;default:''"`
	Department           string                   `gorm:"column:department;not null;default:''"`
	PostalCode           *string                  `gorm:"column:postal_code"`
	Country              string                   `gorm:"column:country;not null;default:''"`
	Latitude             *float64                 `gorm:"column:latitude"`
	Longitude            *float64                 `gorm:"column:longitude"`
	CreatedAt            time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

func (Customer) TableName() string { return "customers" }
