package reports

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/florezcook/orders-backend/internal/repo"
	"github.com/florezcook/orders-backend/pkg/db/models"
	"github.com/florezcook/orders-backend/pkg/pagination"
)

// Repository runs the read-only report queries.
type Repository interface {
	CountOrders(ctx context.Context, filter OrderFilter) (int64, error)
	ListOrders(ctx context.Context, filter OrderFilter, params pagination.Params) ([]models.Order, error)
	ExportOrders(ctx context.Context, filter OrderFilter) ([]models.Order, error)
	ConsolidatedLines(ctx context.Context, filter ConsolidatedFilter) ([]LineRow, error)
	Statuses(ctx context.Context) ([]string, error)
	Customers(ctx context.Context) ([]CustomerOption, error)
	ProductCategories(ctx context.Context) ([]string, error)
	ProductFormulations(ctx context.Context) ([]string, error)
}

type repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) CountOrders(ctx context.Context, filter OrderFilter) (int64, error) {
	var total int64
	err := r.DB(ctx).Model(&models.Order{}).Scopes(orderFilter(filter)).Count(&total).Error
	return total, err
}

func (r *repository) ListOrders(ctx context.Context, filter OrderFilter, params pagination.Params) ([]models.Order, error) {
	var rows []models.Order
	err := r.DB(ctx).
		Scopes(orderFilter(filter), repo.Paginate(params)).
		Preload("Customer").
		Preload("Lines.Product").
		Order("orders.created_at DESC").
		Order("orders.id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ExportOrders returns every matching order that has at least one line.
func (r *repository) ExportOrders(ctx context.Context, filter OrderFilter) ([]models.Order, error) {
	var rows []models.Order
	err := r.DB(ctx).
		Scopes(orderFilter(filter)).
		Where("EXISTS (SELECT 1 FROM order_lines ol WHERE ol.order_id = orders.id)").
		Preload("Customer").
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("order_lines.id ASC") }).
		Preload("Lines.Product").
		Order("orders.created_at DESC").
		Order("orders.id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ConsolidatedLines(ctx context.Context, filter ConsolidatedFilter) ([]LineRow, error) {
	q := r.DB(ctx).
		Table("order_lines").
		Select(`orders.id AS order_id,
			order_lines.quantity AS quantity,
			order_lines.total_weight_grams AS total_weight_grams,
			order_lines.comments AS comments,
			products.reference AS reference,
			products.formulation_group AS formulation_group,
			products.category_line AS category_line,
			products.unit_weight_grams AS unit_weight_grams`).
		Joins("JOIN products ON products.id = order_lines.product_id").
		Joins("JOIN orders ON orders.id = order_lines.order_id").
		Scopes(dateRange("orders.created_at", filter.DateRange))

	if filter.Status != "" {
		q = q.Where("orders.status = ?", filter.Status)
	}
	if v := strings.TrimSpace(filter.Category); v != "" {
		q = q.Where("LOWER(products.category_line) LIKE ? ESCAPE '\\'", containsPattern(v))
	}
	if v := strings.TrimSpace(filter.Formulation); v != "" {
		q = q.Where("LOWER(products.formulation_group) LIKE ? ESCAPE '\\'", containsPattern(v))
	}

	var rows []LineRow
	err := q.Order("products.category_line").
		Order("products.formulation_group").
		Order("products.reference").
		Order("orders.id").
		Order("order_lines.id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Statuses(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, &models.Order{}, "status")
}

func (r *repository) ProductCategories(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, &models.Product{}, "category_line")
}

func (r *repository) ProductFormulations(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, &models.Product{}, "formulation_group")
}

func (r *repository) Customers(ctx context.Context) ([]CustomerOption, error) {
	var out []CustomerOption
	err := r.DB(ctx).Model(&models.Customer{}).
		Select("id, trade_name").
		Order("trade_name ASC").
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) distinct(ctx context.Context, model any, column string) ([]string, error) {
	var values []string
	err := r.DB(ctx).Model(model).
		Distinct().
		Where(column+" IS NOT NULL AND "+column+" <> ''").
		Order(column).
		Pluck(column, &values).Error
	if err != nil {
		return nil, err
	}
	return values, nil
}

func orderFilter(filter OrderFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Scopes(dateRange("orders.created_at", filter.DateRange))
		if filter.Status != "" {
			db = db.Where("orders.status = ?", filter.Status)
		}
		if filter.CustomerID != nil {
			db = db.Where("orders.customer_id = ?", *filter.CustomerID)
		}
		return db
	}
}

// dateRange compares against UTC day boundaries so the same query works on
// Postgres timestamps and SQLite text timestamps.
func dateRange(column string, r DateRange) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if !r.From.IsZero() {
			db = db.Where(column+" >= ?", r.From.Time)
		}
		if !r.To.IsZero() {
			db = db.Where(column+" < ?", r.To.AddDate(0, 0, 1))
		}
		return db
	}
}

func containsPattern(value string) string {
	value = strings.ToLower(value)
	value = strings.NewReplacer(`%`, `\%`, `_`, `\_`).Replace(value)
	return "%" + value + "%"
}
