package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog item. Unit weight is grams per unit.
type Product struct {
	ID               uint64              `gorm:"column:id;primaryKey;autoIncrement"`
	Code             string              `gorm:"column:code;not null;uniqueIndex"`
	Reference        string              `gorm:"column:reference;not null"`
	UnitWeightGrams  decimal.Decimal     `gorm:"column:unit_weight_grams;type:numeric(12,3);not null"`
	FormulationGroup string              `gorm:"column:formulation_group;not null;default:''"`
	CategoryLine     string              `gorm:"column:category_line;not null;default:''"`
	UnitOfMeasure    *string             `gorm:"column:unit_of_measure"`
	Price            decimal.NullDecimal `gorm:"column:price;type:numeric(14,2)"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string { return "products" }
