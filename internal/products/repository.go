package products

import (
	"context"

	"gorm.io/gorm"

	"github.com/florezcook/orders-backend/internal/repo"
	"github.com/florezcook/orders-backend/pkg/db/models"
)

// Repository persists catalog products.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	List(ctx context.Context) ([]models.Product, error)
	FindByID(ctx context.Context, id uint64) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []uint64) (map[uint64]models.Product, error)
	FindByCode(ctx context.Context, code string) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Save(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id uint64) error
	CountOrderLines(ctx context.Context, productID uint64) (int64, error)
}

type repository struct {
	repo.Base
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Base.WithTx(tx)}
}

// List returns every product ordered by reference, then code.
func (r *repository) List(ctx context.Context) ([]models.Product, error) {
	var rows []models.Product
	if err := r.DB(ctx).Order("reference ASC").Order("code ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) FindByID(ctx context.Context, id uint64) (*models.Product, error) {
	var product models.Product
	if err := r.DB(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) FindByIDs(ctx context.Context, ids []uint64) (map[uint64]models.Product, error) {
	out := make(map[uint64]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Product
	if err := r.DB(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

func (r *repository) FindByCode(ctx context.Context, code string) (*models.Product, error) {
	var product models.Product
	if err := r.DB(ctx).First(&product, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) Create(ctx context.Context, product *models.Product) error {
	return r.DB(ctx).Create(product).Error
}

func (r *repository) Save(ctx context.Context, product *models.Product) error {
	return r.DB(ctx).Save(product).Error
}

func (r *repository) Delete(ctx context.Context, id uint64) error {
	res := r.DB(ctx).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) CountOrderLines(ctx context.Context, productID uint64) (int64, error) {
	var count int64
	err := r.DB(ctx).Model(&models.OrderLine{}).Where("product_id = ?", productID).Count(&count).Error
	return count, err
}
