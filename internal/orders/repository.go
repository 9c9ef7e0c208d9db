package orders

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/florezcook/orders-backend/internal/repo"
	"github.com/florezcook/orders-backend/pkg/db/models"
	"github.com/florezcook/orders-backend/pkg/enums"
)

// Repository persists order headers and their lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) error
	CreateLines(ctx context.Context, lines []models.OrderLine) error
	FindByID(ctx context.Context, id uint64) (*models.Order, error)
	ListRecent(ctx context.Context, limit int) ([]models.Order, error)
	UpdateHeader(ctx context.Context, order *models.Order) error
	DeleteLines(ctx context.Context, orderID uint64) error
	Delete(ctx context.Context, id uint64) error
	UpdateStatus(ctx context.Context, id uint64, status enums.OrderStatus, at time.Time) error
	UpdateLineStatuses(ctx context.Context, orderID uint64, status enums.LineStatus) error
}

type repository struct {
	repo.Base
}

// NewRepository builds an order repository bound to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Base.WithTx(tx)}
}

// CreateOrder inserts the header only; lines go through CreateLines.
func (r *repository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.DB(ctx).Omit("Lines", "Customer").Create(order).Error
}

func (r *repository) CreateLines(ctx context.Context, lines []models.OrderLine) error {
	if len(lines) == 0 {
		return nil
	}
	return r.DB(ctx).Omit("Product").Create(&lines).Error
}

// FindByID loads the order with its customer and lines (with products).
func (r *repository) FindByID(ctx context.Context, id uint64) (*models.Order, error) {
	var order models.Order
	err := r.DB(ctx).
		Preload("Customer").
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("order_lines.id ASC") }).
		Preload("Lines.Product").
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListRecent returns the newest orders with their customer and lines.
func (r *repository) ListRecent(ctx context.Context, limit int) ([]models.Order, error) {
	var rows []models.Order
	err := r.DB(ctx).
		Preload("Customer").
		Preload("Lines.Product").
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) UpdateHeader(ctx context.Context, order *models.Order) error {
	return r.DB(ctx).Omit("Lines", "Customer").Save(order).Error
}

func (r *repository) DeleteLines(ctx context.Context, orderID uint64) error {
	return r.DB(ctx).Where("order_id = ?", orderID).Delete(&models.OrderLine{}).Error
}

// Delete removes the order; its lines go with it through ON DELETE CASCADE.
func (r *repository) Delete(ctx context.Context, id uint64) error {
	res := r.DB(ctx).Delete(&models.Order{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uint64, status enums.OrderStatus, at time.Time) error {
	res := r.DB(ctx).Model(&models.Order{}).Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": at})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) UpdateLineStatuses(ctx context.Context, orderID uint64, status enums.LineStatus) error {
	return r.DB(ctx).Model(&models.OrderLine{}).Where("order_id = ?", orderID).Update("status", status).Error
}
