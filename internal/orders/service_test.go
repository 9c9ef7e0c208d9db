package orders

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/florezcook/orders-backend/internal/customers"
	"github.com/florezcook/orders-backend/internal/products"
	"github.com/florezcook/orders-backend/pkg/config"
	"github.com/florezcook/orders-backend/pkg/db"
	"github.com/florezcook/orders-backend/pkg/db/dbtest"
	"github.com/florezcook/orders-backend/pkg/db/models"
	"github.com/florezcook/orders-backend/pkg/enums"
	pkgerrors "github.com/florezcook/orders-backend/pkg/errors"
	"github.com/florezcook/orders-backend/pkg/metrics"
)

// friday is the fixed clock used by every fixture: 2026-01-02 is a Friday.
var friday = time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)

type fixture struct {
	client    *db.Client
	repo      Repository
	customers customers.Repository
	products  products.Repository
	catalog   *products.Catalog
	registry  *prometheus.Registry
	svc       Service
}

type fixtureOption func(*ServiceParams)

func withCommitMode(mode string) fixtureOption {
	return func(p *ServiceParams) { p.CommitMode = mode }
}

func withRepo(wrap func(Repository) Repository) fixtureOption {
	return func(p *ServiceParams) { p.Repo = wrap(p.Repo) }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	client := dbtest.New(t)
	f := &fixture{
		client:    client,
		repo:      NewRepository(client.DB()),
		customers: customers.NewRepository(client.DB()),
		products:  products.NewRepository(client.DB()),
		registry:  prometheus.NewRegistry(),
	}
	catalog, err := products.NewCatalog(products.CatalogParams{Source: f.products, TTL: time.Hour})
	require.NoError(t, err)
	f.catalog = catalog

	params := ServiceParams{
		Repo:      f.repo,
		Customers: f.customers,
		Products:  f.products,
		Catalog:   catalog,
		TxRunner:  client,
		Metrics:   metrics.NewOrderMetrics(f.registry),
		Now:       func() time.Time { return friday },
	}
	for _, opt := range opts {
		opt(&params)
	}
	svc, err := NewService(params)
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f *fixture) seedProduct(t *testing.T, code string, grams int64) models.Product {
	t.Helper()
	product := models.Product{
		Code:             code,
		Reference:        "Referencia " + code,
		UnitWeightGrams:  decimal.NewFromInt(grams),
		FormulationGroup: "F-" + code,
		CategoryLine:     "Carnicos",
	}
	require.NoError(t, f.products.Create(context.Background(), &product))
	return product
}

func (f *fixture) seedCustomer(t *testing.T, identification string) models.Customer {
	t.Helper()
	customer := registration(identification).CustomerInput(identification).Model()
	require.NoError(t, f.customers.Create(context.Background(), customer))
	return *customer
}

func (f *fixture) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.client.DB().Model(model).Count(&n).Error)
	return n
}

func registration(identification string) Registration {
	return Registration{
		TradeName:            "Carnes del Valle",
		LegalName:            "Carnes del Valle SAS",
		IdentificationType:   enums.IdentificationTypeNIT,
		IdentificationNumber: identification,
		Email:                "compras@carnesdelvalle.co",
		Phone:                "3001234567",
		AddressLine1:         "Calle 10 # 20-30",
		City:                 "Cali",
		Department:           "Valle del Cauca",
		Country:              "Colombia",
	}
}

func newCustomerIntake(identification string, lines ...LineInput) Intake {
	return Intake{
		IdentificationNumber: identification,
		CustomerName:         "Carnes del Valle",
		Register:             true,
		Registration:         registration(identification),
		Dispatch: Dispatch{
			Type:       enums.DispatchTypeHomeDelivery,
			Address:    "Calle 10 # 20-30",
			City:       "Cali",
			Department: "Valle del Cauca",
		},
		Lines: lines,
	}
}

func line(productID uint64, qty Quantity) LineInput {
	return LineInput{ProductID: &productID, Quantity: qty, DeliveryDate: "2026-01-05"}
}

// failingLines makes CreateLines fail after the order header was inserted.
type failingLines struct {
	Repository
}

func (r failingLines) WithTx(tx *gorm.DB) Repository {
	return failingLines{Repository: r.Repository.WithTx(tx)}
}

func (r failingLines) CreateLines(context.Context, []models.OrderLine) error {
	return errors.New("disk full")
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)

	client := dbtest.New(t)
	catalog, err := products.NewCatalog(products.CatalogParams{Source: products.NewRepository(client.DB())})
	require.NoError(t, err)
	_, err = NewService(ServiceParams{
		Repo:       NewRepository(client.DB()),
		Customers:  customers.NewRepository(client.DB()),
		Products:   products.NewRepository(client.DB()),
		Catalog:    catalog,
		TxRunner:   client,
		CommitMode: "eventually",
	})
	require.Error(t, err)
}

func TestInitialState(t *testing.T) {
	f := newFixture(t)
	state := f.svc.InitialState()
	assert.Equal(t, enums.OrderStatusInProcess, state.Status)
	assert.Empty(t, state.Lines)
	assert.Empty(t, state.IdentificationNumber)
	assert.Equal(t, "2026-01-05", f.svc.MinimumDeliveryDate().Format("2006-01-02"))
}

func TestResolveCustomer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedCustomer(t, "900123456-1")

	t.Run("known", func(t *testing.T) {
		res, err := f.svc.ResolveCustomer(ctx, " 900123456-1 ")
		require.NoError(t, err)
		require.NotNil(t, res.Customer)
		assert.Equal(t, "Carnes del Valle", res.CustomerName)
		assert.Empty(t, res.Alert)
		assert.True(t, res.ShowCustomerName)
		assert.False(t, res.ShowRegistration)
		assert.True(t, res.ShowDispatch)
		assert.True(t, res.ShowLines)
	})

	t.Run("unknown", func(t *testing.T) {
		res, err := f.svc.ResolveCustomer(ctx, "111")
		require.NoError(t, err)
		assert.Nil(t, res.Customer)
		assert.Equal(t, MsgRegisterCustomer, res.Alert)
		assert.True(t, res.ShowRegistration)
		assert.False(t, res.ShowCustomerName)
		assert.Equal(t, "111", res.Registration.IdentificationNumber)
	})

	t.Run("blank", func(t *testing.T) {
		res, err := f.svc.ResolveCustomer(ctx, "   ")
		require.NoError(t, err)
		assert.Equal(t, Resolution{}, *res)
	})

	assert.EqualValues(t, 1, f.count(t, &models.Customer{}))
}

func TestRecomputeLineIsCopyOnWrite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := f.seedProduct(t, "P-1", 250)

	original := []LineItem{{Comments: "primera"}, {Comments: "segunda"}}
	qty := 4
	out, err := f.svc.RecomputeLine(ctx, RecomputeLineInput{
		ProductID: &product.ID,
		Quantity:  &qty,
		Index:     1,
		Lines:     original,
	})
	require.NoError(t, err)

	require.Len(t, out, 2)
	assert.Nil(t, original[1].ProductID)
	assert.Empty(t, original[1].ProductCode)

	got := out[1]
	require.NotNil(t, got.ProductID)
	assert.Equal(t, product.ID, *got.ProductID)
	assert.Equal(t, "P-1", got.ProductCode)
	assert.Equal(t, "segunda", got.Comments)
	assert.True(t, got.TotalWeightGrams.Decimal.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, "2026-01-05", got.DeliveryDate.String())
	assert.Equal(t, "F-P-1", got.FormulationGroup)
	assert.Equal(t, original[0], out[0])

	qty = 9
	assert.Equal(t, 4, *got.Quantity)
}

func TestRecomputeLineWithoutQuantityOrProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := f.seedProduct(t, "P-1", 250)

	out, err := f.svc.RecomputeLine(ctx, RecomputeLineInput{ProductID: &product.ID, Lines: []LineItem{{}}})
	require.NoError(t, err)
	assert.True(t, out[0].TotalWeightGrams.Valid)
	assert.True(t, out[0].TotalWeightGrams.Decimal.IsZero())

	missing := uint64(9999)
	cleared, err := f.svc.RecomputeLine(ctx, RecomputeLineInput{ProductID: &missing, Lines: out})
	require.NoError(t, err)
	assert.Nil(t, cleared[0].ProductID)
	assert.False(t, cleared[0].UnitWeightGrams.Valid)
	assert.True(t, cleared[0].DeliveryDate.IsZero())

	same, err := f.svc.RecomputeLine(ctx, RecomputeLineInput{ProductID: &product.ID, Index: 5, Lines: out})
	require.NoError(t, err)
	assert.Equal(t, out, same)
}

func TestSubmitRejectsInvalidIntake(t *testing.T) {
	f := newFixture(t)
	res := f.svc.Submit(context.Background(), Intake{})
	assert.False(t, res.Success)
	assert.Equal(t, Validate(Intake{}), res.Errors)
	assert.Zero(t, f.count(t, &models.Order{}))
}

func TestSubmitUnknownCustomerWithoutRegistration(t *testing.T) {
	f := newFixture(t)
	product := f.seedProduct(t, "P-1", 250)
	intake := newCustomerIntake("555", line(product.ID, "1"))
	intake.Register = false

	res := f.svc.Submit(context.Background(), intake)
	assert.False(t, res.Success)
	assert.Equal(t, []string{MsgUnknownCustomer}, res.Errors)
	assert.Zero(t, f.count(t, &models.Order{}))
}

func TestSubmitRegistersCustomerAndStoresOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p1 := f.seedProduct(t, "P-1", 250)
	p2 := f.seedProduct(t, "P-2", 500)

	intake := newCustomerIntake("900555000-2", line(p1.ID, "3"), line(p2.ID, "2.0"))
	intake.Lines[1].FormulationGroup = "Especial"
	res := f.svc.Submit(ctx, intake)
	require.True(t, res.Success, res.Errors)
	require.NotZero(t, res.OrderID)

	assert.EqualValues(t, 1, f.count(t, &models.Customer{}))
	assert.EqualValues(t, 1, f.count(t, &models.Order{}))
	assert.EqualValues(t, 2, f.count(t, &models.OrderLine{}))

	order, err := f.svc.Get(ctx, res.OrderID)
	require.NoError(t, err)
	require.NotNil(t, order.CustomerID)
	assert.Equal(t, "900555000-2", order.EnteredIdentification)
	assert.Equal(t, enums.OrderStatusInProcess, order.Status)
	assert.Equal(t, enums.DispatchTypeHomeDelivery, order.Dispatch.Type)
	assert.Equal(t, 5, order.TotalQuantity)
	assert.True(t, order.TotalWeightGrams.Equal(decimal.NewFromInt(1750)), order.TotalWeightGrams.String())

	require.Len(t, order.Lines, 2)
	assert.Equal(t, "P-1", order.Lines[0].ProductCode)
	assert.Equal(t, 3, order.Lines[0].Quantity)
	assert.Equal(t, "F-P-1", order.Lines[0].FormulationGroup)
	assert.Equal(t, "Especial", order.Lines[1].FormulationGroup)
	assert.Equal(t, enums.LineStatusPending, order.Lines[0].Status)
	assert.Equal(t, "2026-01-02", order.Lines[0].OrderedOn.String())
	assert.Equal(t, "2026-01-05", order.Lines[0].DeliveryDate.String())

	mfs, err := f.registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, mfs)
}

func TestSubmitExistingCustomerUsesTradeName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.seedCustomer(t, "900123456-1")
	product := f.seedProduct(t, "P-1", 100)

	res := f.svc.Submit(ctx, Intake{
		IdentificationNumber: "900123456-1",
		CustomerID:           &customer.ID,
		Dispatch:             Dispatch{Type: enums.DispatchTypePlantPickup},
		Lines:                []LineInput{line(product.ID, "1")},
	})
	require.True(t, res.Success, res.Errors)

	order, err := f.svc.Get(ctx, res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, "Carnes del Valle", order.CustomerName)
	assert.Equal(t, customer.ID, *order.CustomerID)
	assert.EqualValues(t, 1, f.count(t, &models.Customer{}))
}

func TestSubmitUnknownProductFails(t *testing.T) {
	f := newFixture(t)
	res := f.svc.Submit(context.Background(), newCustomerIntake("123", line(4242, "1")))
	assert.False(t, res.Success)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "order save failed: ")
	assert.Zero(t, f.count(t, &models.Order{}))
	assert.Zero(t, f.count(t, &models.Customer{}))
}

func TestSubmitAtomicRollsBackCustomerWhenLinesFail(t *testing.T) {
	f := newFixture(t, withRepo(func(r Repository) Repository { return failingLines{Repository: r} }))
	product := f.seedProduct(t, "P-1", 250)

	res := f.svc.Submit(context.Background(), newCustomerIntake("777", line(product.ID, "1")))
	assert.False(t, res.Success)
	assert.Equal(t, []string{"order save failed: disk full"}, res.Errors)
	assert.Zero(t, f.count(t, &models.Order{}))
	assert.Zero(t, f.count(t, &models.OrderLine{}))
	assert.Zero(t, f.count(t, &models.Customer{}))
}

func TestSubmitTwoPhaseKeepsCustomerWhenLinesFail(t *testing.T) {
	f := newFixture(t,
		withCommitMode(config.CommitModeTwoPhase),
		withRepo(func(r Repository) Repository { return failingLines{Repository: r} }),
	)
	product := f.seedProduct(t, "P-1", 250)

	res := f.svc.Submit(context.Background(), newCustomerIntake("777", line(product.ID, "1")))
	assert.False(t, res.Success)
	assert.Zero(t, f.count(t, &models.Order{}))
	assert.EqualValues(t, 1, f.count(t, &models.Customer{}))
}

func TestSubmitDuplicateIdentificationInRegistration(t *testing.T) {
	f := newFixture(t)
	f.seedCustomer(t, "900123456-1")
	product := f.seedProduct(t, "P-1", 250)

	// The header number is new but the registration reuses an existing one.
	intake := newCustomerIntake("800000000-0", line(product.ID, "1"))
	intake.Registration.IdentificationNumber = "900123456-1"

	res := f.svc.Submit(context.Background(), intake)
	assert.False(t, res.Success)
	assert.Equal(t, []string{customers.DuplicateIdentificationMessage("900123456-1")}, res.Errors)
	assert.Zero(t, f.count(t, &models.Order{}))
	assert.EqualValues(t, 1, f.count(t, &models.Customer{}))
}

func TestSubmitConcurrentRegistrationOfSameCustomer(t *testing.T) {
	for _, mode := range []string{config.CommitModeAtomic, config.CommitModeTwoPhase} {
		t.Run(mode, func(t *testing.T) {
			f := newFixture(t, withCommitMode(mode))
			product := f.seedProduct(t, "P-1", 250)
			const identification = "999999999-9"

			var (
				wg      sync.WaitGroup
				start   = make(chan struct{})
				results [2]Result
			)
			for i := range results {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					<-start
					results[i] = f.svc.Submit(context.Background(), newCustomerIntake(identification, line(product.ID, "1")))
				}(i)
			}
			close(start)
			wg.Wait()

			succeeded := 0
			for _, res := range results {
				if res.Success {
					succeeded++
					assert.NotZero(t, res.OrderID)
					continue
				}
				assert.Equal(t, []string{customers.DuplicateIdentificationMessage(identification)}, res.Errors)
			}
			assert.GreaterOrEqual(t, succeeded, 1)
			assert.EqualValues(t, 1, f.count(t, &models.Customer{}))
			assert.EqualValues(t, succeeded, f.count(t, &models.Order{}))
		})
	}
}

func TestChangeStatusCascadesToLines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := f.seedProduct(t, "P-1", 250)
	res := f.svc.Submit(ctx, newCustomerIntake("321", line(product.ID, "2"), line(product.ID, "1")))
	require.True(t, res.Success, res.Errors)

	order, err := f.svc.ChangeStatus(ctx, res.OrderID, "Entregado")
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusDelivered, order.Status)
	for _, l := range order.Lines {
		assert.Equal(t, enums.LineStatus("Entregado"), l.Status)
	}

	_, err = f.svc.ChangeStatus(ctx, res.OrderID, "Perdido")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.ChangeStatus(ctx, 9999, "Anulado")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestUpdateReplacesLines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p1 := f.seedProduct(t, "P-1", 250)
	p2 := f.seedProduct(t, "P-2", 100)
	res := f.svc.Submit(ctx, newCustomerIntake("321", line(p1.ID, "2"), line(p1.ID, "1")))
	require.True(t, res.Success, res.Errors)

	updated, err := f.svc.Update(ctx, res.OrderID, UpdateInput{
		Alert:    "llamar antes",
		Dispatch: Dispatch{Type: enums.DispatchTypeFleet},
		Status:   enums.OrderStatusScheduled,
		Lines:    []LineInput{line(p2.ID, "7")},
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusScheduled, updated.Status)
	assert.Equal(t, enums.DispatchTypeFleet, updated.Dispatch.Type)
	require.NotNil(t, updated.Alert)
	assert.Equal(t, "llamar antes", *updated.Alert)
	assert.Equal(t, "Carnes del Valle", updated.CustomerName)
	require.Len(t, updated.Lines, 1)
	assert.Equal(t, "P-2", updated.Lines[0].ProductCode)
	assert.True(t, updated.TotalWeightGrams.Equal(decimal.NewFromInt(700)))
	assert.EqualValues(t, 1, f.count(t, &models.OrderLine{}))

	_, err = f.svc.Update(ctx, res.OrderID, UpdateInput{Dispatch: Dispatch{Type: enums.DispatchTypeFleet}})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	_, err = f.svc.Update(ctx, res.OrderID, UpdateInput{
		Dispatch: Dispatch{Type: enums.DispatchTypeFleet},
		Lines:    []LineInput{line(4242, "1")},
	})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
	assert.EqualValues(t, 1, f.count(t, &models.OrderLine{}))

	_, err = f.svc.Update(ctx, 9999, UpdateInput{
		Dispatch: Dispatch{Type: enums.DispatchTypeFleet},
		Lines:    []LineInput{line(p2.ID, "1")},
	})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestListAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := f.seedProduct(t, "P-1", 250)
	first := f.svc.Submit(ctx, newCustomerIntake("321", line(product.ID, "2")))
	require.True(t, first.Success, first.Errors)
	second := f.svc.Submit(ctx, newCustomerIntake("322", line(product.ID, "1")))
	require.True(t, second.Success, second.Errors)

	list, err := f.svc.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	ids := []uint64{list[0].ID, list[1].ID}
	assert.ElementsMatch(t, []uint64{first.OrderID, second.OrderID}, ids)

	require.NoError(t, f.svc.Delete(ctx, first.OrderID))
	_, err = f.svc.Get(ctx, first.OrderID)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
	assert.EqualValues(t, 1, f.count(t, &models.OrderLine{}))

	err = f.svc.Delete(ctx, first.OrderID)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestLineTotalFallsBackToProductWeight(t *testing.T) {
	product := &models.Product{UnitWeightGrams: decimal.NewFromInt(40)}
	stored := models.OrderLine{Quantity: 3, TotalWeightGrams: decimal.NewNullDecimal(decimal.NewFromInt(99))}
	legacy := models.OrderLine{Quantity: 3, Product: product}
	snapshot := models.OrderLine{Quantity: 2, UnitWeightGrams: decimal.NewNullDecimal(decimal.NewFromInt(10))}

	assert.True(t, LineTotal(stored).Equal(decimal.NewFromInt(99)))
	assert.True(t, LineTotal(legacy).Equal(decimal.NewFromInt(120)))
	assert.True(t, LineTotal(snapshot).Equal(decimal.NewFromInt(20)))
	assert.True(t, LineTotal(models.OrderLine{Quantity: 5}).IsZero())
}
