package customers

import (
	"context"

	"gorm.io/gorm"

	"github.com/florezcook/orders-backend/internal/repo"
	"github.com/florezcook/orders-backend/pkg/db/models"
)

// Repository persists customers.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	List(ctx context.Context) ([]models.Customer, error)
	FindByID(ctx context.Context, id uint64) (*models.Customer, error)
	FindByIdentification(ctx context.Context, number string) (*models.Customer, error)
	Create(ctx context.Context, customer *models.Customer) error
	Save(ctx context.Context, customer *models.Customer) error
	Delete(ctx context.Context, id uint64) error
}

type repository struct {
	repo.Base
}

// NewRepository builds a customer repository bound to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Base.WithTx(tx)}
}

// List returns customers ordered by trade name.
func (r *repository) List(ctx context.Context) ([]models.Customer, error) {
	var rows []models.Customer
	if err := r.DB(ctx).Order("trade_name ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) FindByID(ctx context.Context, id uint64) (*models.Customer, error) {
	var customer models.Customer
	if err := r.DB(ctx).First(&customer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

// FindByIdentification matches the identification number exactly.
func (r *repository) FindByIdentification(ctx context.Context, number string) (*models.Customer, error) {
	var customer models.Customer
	if err := r.DB(ctx).First(&customer, "identification_number = ?", number).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *repository) Create(ctx context.Context, customer *models.Customer) error {
	return r.DB(ctx).Create(customer).Error
}

func (r *repository) Save(ctx context.Context, customer *models.Customer) error {
	return r.DB(ctx).Save(customer).Error
}

func (r *repository) Delete(ctx context.Context, id uint64) error {
	res := r.DB(ctx).Delete(&models.Customer{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
