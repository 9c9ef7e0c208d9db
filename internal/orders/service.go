package orders

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/florezcook/orders-backend/internal/customers"
	"github.com/florezcook/orders-backend/internal/products"
	"github.com/florezcook/orders-backend/pkg/config"
	"github.com/florezcook/orders-backend/pkg/db/models"
	"github.com/florezcook/orders-backend/pkg/logger"
	"github.com/florezcook/orders-backend/pkg/metrics"
)

// DefaultRecentLimit caps the recent orders list when no limit is given.
const DefaultRecentLimit = 50

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productReader interface {
	WithTx(tx *gorm.DB) products.Repository
	FindByIDs(ctx context.Context, ids []uint64) (map[uint64]models.Product, error)
}

type catalogLookup interface {
	Lookup(ctx context.Context, id uint64) (*products.CatalogEntry, error)
}

// Service runs the order intake workflow and order maintenance.
type Service interface {
	InitialState() Intake
	ResolveCustomer(ctx context.Context, identification string) (*Resolution, error)
	RecomputeLine(ctx context.Context, input RecomputeLineInput) ([]LineItem, error)
	MinimumDeliveryDate() time.Time
	Validate(intake Intake) []string
	Submit(ctx context.Context, intake Intake) Result
	Get(ctx context.Context, id uint64) (*OrderDTO, error)
	List(ctx context.Context, limit int) ([]OrderSummary, error)
	Update(ctx context.Context, id uint64, input UpdateInput) (*OrderDTO, error)
	Delete(ctx context.Context, id uint64) error
	ChangeStatus(ctx context.Context, id uint64, status string) (*OrderDTO, error)
}

// ServiceParams wires the order service.
type ServiceParams struct {
	Repo         Repository
	Customers    customers.Repository
	Products     productReader
	Catalog      catalogLookup
	TxRunner     txRunner
	Metrics      *metrics.OrderMetrics
	Logger       *logger.Logger
	CommitMode   string
	BusinessDays int
	RecentLimit  int
	Now          func() time.Time
}

type service struct {
	repo         Repository
	customers    customers.Repository
	products     productReader
	catalog      catalogLookup
	tx           txRunner
	metrics      *metrics.OrderMetrics
	logg         *logger.Logger
	commitMode   string
	businessDays int
	recentLimit  int
	now          func() time.Time
}

// NewService builds the order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Customers == nil {
		return nil, fmt.Errorf("customers repository required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("product catalog required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}

	mode := params.CommitMode
	switch mode {
	case "":
		mode = config.CommitModeAtomic
	case config.CommitModeAtomic, config.CommitModeTwoPhase:
	default:
		return nil, fmt.Errorf("unsupported commit mode %q", mode)
	}

	svc := &service{
		repo:         params.Repo,
		customers:    params.Customers,
		products:     params.Products,
		catalog:      params.Catalog,
		tx:           params.TxRunner,
		metrics:      params.Metrics,
		logg:         params.Logger,
		commitMode:   mode,
		businessDays: params.BusinessDays,
		recentLimit:  params.RecentLimit,
		now:          params.Now,
	}
	if svc.logg == nil {
		svc.logg = logger.Nop()
	}
	if svc.businessDays <= 0 {
		svc.businessDays = DefaultMinDeliveryBusinessDays
	}
	if svc.recentLimit <= 0 {
		svc.recentLimit = DefaultRecentLimit
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	return svc, nil
}

func (s *service) Validate(intake Intake) []string {
	return Validate(intake)
}

// MinimumDeliveryDate is the earliest default delivery date for a line
// entered today.
func (s *service) MinimumDeliveryDate() time.Time {
	return MinimumDeliveryDate(s.now(), s.businessDays).Time
}
