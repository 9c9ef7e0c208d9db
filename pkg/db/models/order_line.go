package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/florezcook/orders-backend/pkg/enums"
)

// OrderLine is one product on an order. Weight, group and line are copied
// from the product when the line is recorded; TotalWeightGrams may be null
// on rows captured before totals were stored.
type OrderLine struct {
	ID               uint64              `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID          uint64              `gorm:"column:order_id;not null;index"`
	ProductID        uint64              `gorm:"column:product_id;not null;index"`
	Product          *Product            `gorm:"foreignKey:ProductID"`
	OrderedOn        time.Time           `gorm:"column:ordered_on;type:date;not null"`
	Quantity         int                 `gorm:"column:quantity;not null"`
	UnitWeightGrams  decimal.NullDecimal `gorm:"column:unit_weight_grams;type:numeric(12,3)"`
	TotalWeightGrams decimal.NullDecimal `gorm:"column:total_weight_grams;type:numeric(14,3)"`
	FormulationGroup string              `gorm:"column:formulation_group;not null;default:''"`
	CategoryLine     string              `gorm:"column:category_line;not null;default:''"`
	Comments         string              `gorm:"column:comments;not null;default:''"`
	DeliveryDate     *time.Time          `gorm:"column:delivery_date;type:date"`
	Status           enums.LineStatus    `gorm:"column:status;not null;default:'Pendiente'"`
}

func (OrderLine) TableName() string { return "order_lines" }

// EffectiveTotalWeight returns the stored total, or quantity times the given
// unit weight when the total was never recorded.
func (l OrderLine) EffectiveTotalWeight(fallbackUnitWeight decimal.Decimal) decimal.Decimal {
	if l.TotalWeightGrams.Valid {
		return l.TotalWeightGrams.Decimal
	}
	return fallbackUnitWeight.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
