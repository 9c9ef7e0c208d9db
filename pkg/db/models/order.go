package models

import (
	"time"

	"github.com/florezcook/orders-backend/pkg/enums"
)

// Order is the header of a customer order. The entered identification and
// name are kept as typed even when a customer is linked.
type Order struct {
	ID                    uint64             `gorm:"column:id;primaryKey;autoIncrement"`
	EnteredIdentification string             `gorm:"column:entered_identification;not null"`
	EnteredCustomerName   string             `gorm:"column:entered_customer_name;not null;default:''"`
	CustomerID            *uint64            `gorm:"column:customer_id"`
	Customer              *Customer          `gorm:"foreignKey:CustomerID"`
	Alert                 *string            `gorm:"column:alert"`
	DispatchType          enums.DispatchType `gorm:"column:dispatch_type;not null"`
	DispatchSite          string             `gorm:"column:dispatch_site;not null;default:''"`
	DeliveryAddress       string             `gorm:"column:delivery_address;not null;default:''"`
	DeliveryCity          string             `gorm:"column:delivery_city;not null;default:''"`
	DeliveryDepartment    string             `gorm:"column:delivery_department;not null;default:''"`
	DispatchHours         string             `gorm:"column:dispatch_hours;not null;default:''"`
	DispatchNotes         string             `gorm:"column:dispatch_notes;not null;default:''"`
	Status                enums.OrderStatus  `gorm:"column:status;not null;default:'En Proceso'"`
	Lines                 []OrderLine        `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt             time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (Order) TableName() string { return "orders" }
