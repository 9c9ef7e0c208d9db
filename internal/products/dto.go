package products

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/florezcook/orders-backend/pkg/db/models"
)

// ProductDTO is the API shape of a product.
type ProductDTO struct {
	ID               uint64              `json:"id"`
	Code             string              `json:"code"`
	Reference        string              `json:"reference"`
	UnitWeightGrams  decimal.Decimal     `json:"unit_weight_grams"`
	FormulationGroup string              `json:"formulation_group"`
	CategoryLine     string              `json:"category_line"`
	UnitOfMeasure    *string             `json:"unit_of_measure,omitempty"`
	Price            decimal.NullDecimal `json:"price"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

func NewProductDTO(p *models.Product) ProductDTO {
	return ProductDTO{
		ID:               p.ID,
		Code:             p.Code,
		Reference:        p.Reference,
		UnitWeightGrams:  p.UnitWeightGrams,
		FormulationGroup: p.FormulationGroup,
		CategoryLine:     p.CategoryLine,
		UnitOfMeasure:    p.UnitOfMeasure,
		Price:            p.Price,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

// ImportResult summarizes a spreadsheet import. Rows listed in Errors were
// skipped; every other row was committed.
type ImportResult struct {
	Imported int      `json:"imported"`
	Updated  int      `json:"updated"`
	Errors   []string `json:"errors"`
}
