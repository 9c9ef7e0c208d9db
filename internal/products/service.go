package products

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/florezcook/orders-backend/pkg/db"
	"github.com/florezcook/orders-backend/pkg/db/models"
	pkgerrors "github.com/florezcook/orders-backend/pkg/errors"
	"github.com/florezcook/orders-backend/pkg/logger"
)

// Service exposes product management and the cached catalog.
type Service interface {
	List(ctx context.Context) ([]ProductDTO, error)
	Get(ctx context.Context, id uint64) (*ProductDTO, error)
	Create(ctx context.Context, input ProductInput) (*ProductDTO, error)
	Update(ctx context.Context, id uint64, input ProductInput) (*ProductDTO, error)
	Delete(ctx context.Context, id uint64) error
	Import(ctx context.Context, r io.Reader) (*ImportResult, error)
	Catalog(ctx context.Context) ([]CatalogEntry, error)
}

// ProductInput carries the writable product fields.
type ProductInput struct {
	Code             string
	Reference        string
	UnitWeightGrams  decimal.Decimal
	FormulationGroup string
	CategoryLine     string
	UnitOfMeasure    *string
	Price            decimal.NullDecimal
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams wires the product service.
type ServiceParams struct {
	Repo     Repository
	TxRunner txRunner
	Catalog  *Catalog
	Logger   *logger.Logger
}

type service struct {
	repo    Repository
	tx      txRunner
	catalog *Catalog
	logg    *logger.Logger
}

// NewService constructs a product service instance.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("product catalog required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:    params.Repo,
		tx:      params.TxRunner,
		catalog: params.Catalog,
		logg:    logg,
	}, nil
}

func (s *service) List(ctx context.Context) ([]ProductDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, NewProductDTO(&rows[i]))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, id uint64) (*ProductDTO, error) {
	product, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	dto := NewProductDTO(product)
	return &dto, nil
}

func (s *service) Create(ctx context.Context, input ProductInput) (*ProductDTO, error) {
	input = normalizeInput(input)
	if err := validateInput(input); err != nil {
		return nil, err
	}

	product := &models.Product{}
	applyInput(product, input)
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, mapWriteError(err, input.Code, "insert product")
	}

	s.invalidate(ctx, "create")
	dto := NewProductDTO(product)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, id uint64, input ProductInput) (*ProductDTO, error) {
	input = normalizeInput(input)
	if err := validateInput(input); err != nil {
		return nil, err
	}

	var updated *models.Product
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		product, err := s.load(ctx, txRepo, id)
		if err != nil {
			return err
		}
		applyInput(product, input)
		if err := txRepo.Save(ctx, product); err != nil {
			return mapWriteError(err, input.Code, "update product")
		}
		updated = product
		return nil
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}

	s.invalidate(ctx, "update")
	dto := NewProductDTO(updated)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, id uint64) error {
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if _, err := s.load(ctx, txRepo, id); err != nil {
			return err
		}
		count, err := txRepo.CountOrderLines(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count order lines")
		}
		if count > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "product is referenced by existing orders").
				WithDetails(map[string]any{"order_lines": count})
		}
		if err := txRepo.Delete(ctx, id); err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
		}
		return nil
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return err
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}

	s.invalidate(ctx, "delete")
	return nil
}

func (s *service) Import(ctx context.Context, r io.Reader) (*ImportResult, error) {
	sheet, err := readImportSheet(r)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{}
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.applyImport(ctx, s.repo.WithTx(tx), sheet, result)
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "import products")
	}

	if result.Imported+result.Updated > 0 {
		s.invalidate(ctx, "import")
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"imported": result.Imported,
		"updated":  result.Updated,
		"errors":   len(result.Errors),
	}), "products.import_complete")
	return result, nil
}

func (s *service) Catalog(ctx context.Context) ([]CatalogEntry, error) {
	entries, err := s.catalog.Entries(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product catalog")
	}
	return entries, nil
}

func (s *service) load(ctx context.Context, repo Repository, id uint64) (*models.Product, error) {
	product, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) invalidate(ctx context.Context, reason string) {
	if err := s.catalog.Invalidate(ctx); err != nil {
		s.logg.WarnErr(s.logg.WithField(ctx, "reason", reason), "catalog.invalidate_failed", err)
	}
}

func normalizeInput(input ProductInput) ProductInput {
	input.Code = strings.TrimSpace(input.Code)
	input.Reference = strings.TrimSpace(input.Reference)
	input.FormulationGroup = strings.TrimSpace(input.FormulationGroup)
	input.CategoryLine = strings.TrimSpace(input.CategoryLine)
	if input.UnitOfMeasure != nil {
		unit := strings.TrimSpace(*input.UnitOfMeasure)
		if unit == "" {
			input.UnitOfMeasure = nil
		} else {
			input.UnitOfMeasure = &unit
		}
	}
	return input
}

func validateInput(input ProductInput) error {
	details := map[string]string{}
	if input.Code == "" {
		details["code"] = "is required"
	}
	if input.Reference == "" {
		details["reference"] = "is required"
	}
	if !input.UnitWeightGrams.IsPositive() {
		details["unit_weight_grams"] = "must be greater than zero"
	}
	if input.Price.Valid && input.Price.Decimal.IsNegative() {
		details["price"] = "must not be negative"
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}
	return nil
}

func applyInput(product *models.Product, input ProductInput) {
	product.Code = input.Code
	product.Reference = input.Reference
	product.UnitWeightGrams = input.UnitWeightGrams
	product.FormulationGroup = input.FormulationGroup
	product.CategoryLine = input.CategoryLine
	product.UnitOfMeasure = input.UnitOfMeasure
	product.Price = input.Price
}

func mapWriteError(err error, code, op string) error {
	if db.IsUniqueViolation(err, "code") {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, fmt.Sprintf("a product with code %s already exists", code))
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}
