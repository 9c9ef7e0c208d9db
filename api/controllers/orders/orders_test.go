package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalorders "github.com/florezcook/orders-backend/internal/orders"
	productsvc "github.com/florezcook/orders-backend/internal/products"
	"github.com/florezcook/orders-backend/pkg/enums"
	pkgerrors "github.com/florezcook/orders-backend/pkg/errors"
	"github.com/florezcook/orders-backend/pkg/logger"
)

type stubService struct {
	submitted *internalorders.Intake
	result    internalorders.Result
	status    string
	limit     int
	recompute internalorders.RecomputeLineInput
}

func (s *stubService) InitialState() internalorders.Intake {
	return internalorders.Intake{Status: enums.OrderStatusInProcess, Lines: []internalorders.LineInput{}}
}

func (s *stubService) ResolveCustomer(_ context.Context, identification string) (*internalorders.Resolution, error) {
	return &internalorders.Resolution{
		IdentificationNumber: identification,
		Alert:                internalorders.MsgRegisterCustomer,
		ShowRegistration:     true,
	}, nil
}

func (s *stubService) RecomputeLine(_ context.Context, input internalorders.RecomputeLineInput) ([]internalorders.LineItem, error) {
	s.recompute = input
	return input.Lines, nil
}

func (s *stubService) MinimumDeliveryDate() time.Time {
	return time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
}

func (s *stubService) Validate(intake internalorders.Intake) []string {
	return internalorders.Validate(intake)
}

func (s *stubService) Submit(_ context.Context, intake internalorders.Intake) internalorders.Result {
	s.submitted = &intake
	return s.result
}

func (s *stubService) Get(_ context.Context, id uint64) (*internalorders.OrderDTO, error) {
	if id != 7 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return &internalorders.OrderDTO{ID: 7, Status: enums.OrderStatusInProcess}, nil
}

func (s *stubService) List(_ context.Context, limit int) ([]internalorders.OrderSummary, error) {
	s.limit = limit
	return nil, nil
}

func (s *stubService) Update(_ context.Context, id uint64, input internalorders.UpdateInput) (*internalorders.OrderDTO, error) {
	return &internalorders.OrderDTO{ID: id, Status: input.Status}, nil
}

func (s *stubService) Delete(context.Context, uint64) error { return nil }

func (s *stubService) ChangeStatus(_ context.Context, id uint64, status string) (*internalorders.OrderDTO, error) {
	s.status = status
	if _, err := enums.ParseOrderStatus(status); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status")
	}
	return &internalorders.OrderDTO{ID: id, Status: enums.OrderStatus(status)}, nil
}

type stubCatalog struct{}

func (stubCatalog) Catalog(context.Context) ([]productsvc.CatalogEntry, error) {
	return []productsvc.CatalogEntry{{ID: 1, Code: "CH-250", Reference: "Chorizo"}}, nil
}

func newRouter(svc internalorders.Service) http.Handler {
	logg := logger.Nop()
	r := chi.NewRouter()
	r.Get("/orders", List(svc, logg))
	r.Post("/orders", Submit(svc, logg))
	r.Get("/orders/form", Form(svc, stubCatalog{}, logg))
	r.Post("/orders/resolve-customer", ResolveCustomer(svc, logg))
	r.Post("/orders/lines/recompute", RecomputeLine(svc, logg))
	r.Post("/orders/validate", Validate(svc, logg))
	r.Get("/orders/{orderId}", Detail(svc, logg))
	r.Put("/orders/{orderId}", Update(svc, logg))
	r.Delete("/orders/{orderId}", Delete(svc, logg))
	r.Patch("/orders/{orderId}/status", ChangeStatus(svc, logg))
	return r
}

func do(h http.Handler, method, target, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSubmitJSONSuccess(t *testing.T) {
	svc := &stubService{result: internalorders.Result{Success: true, OrderID: 12}}
	body := `{"identification_number":"900123","dispatch":{"type":"RECOGER EN PLANTA"},"lines":[{"product_id":1,"quantity":"3.0","delivery_date":"2026-01-05"}]}`

	rec := do(newRouter(svc), http.MethodPost, "/orders", "application/json", body)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"data":{"success":true,"order_id":12}}`, rec.Body.String())
	require.NotNil(t, svc.submitted)
	require.Len(t, svc.submitted.Lines, 1)
	assert.Equal(t, internalorders.Quantity("3.0"), svc.submitted.Lines[0].Quantity)
}

func TestSubmitRejectedIntake(t *testing.T) {
	svc := &stubService{result: internalorders.Result{Errors: []string{"identification number is required"}}}

	rec := do(newRouter(svc), http.MethodPost, "/orders", "application/json", `{}`)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t, `{"data":{"success":false,"errors":["identification number is required"]}}`, rec.Body.String())
}

func TestSubmitMalformedJSON(t *testing.T) {
	svc := &stubService{}
	rec := do(newRouter(svc), http.MethodPost, "/orders", "application/json", `{"lines":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, svc.submitted)
}

func TestSubmitForm(t *testing.T) {
	svc := &stubService{result: internalorders.Result{Success: true, OrderID: 3}}
	form := url.Values{
		"identification_number": {"900123"},
		"register":              {"on"},
		"trade_name":            {"Alimentos Andinos"},
		"identification_type":   {"NIT"},
		"dispatch_type":         {"DOMICILIO"},
		"dispatch_address":      {"Calle 1"},
		"dispatch_city":         {"Medellin"},
		"dispatch_department":   {"Antioquia"},
		"status":                {"En Proceso"},
		"product_id_0":          {"5"},
		"quantity_0":            {"2"},
		"delivery_date_0":       {"2026-01-05"},
		"group_0":               {"Especial"},
		"unit_weight_0":         {"999"},
		"product_id_1":          {""},
		"product_id_2":          {"abc"},
		"quantity_2":            {"1"},
		"product_id_4":          {"8"},
	}

	rec := do(newRouter(svc), http.MethodPost, "/orders", "application/x-www-form-urlencoded", form.Encode())

	require.Equal(t, http.StatusCreated, rec.Code)
	intake := svc.submitted
	require.NotNil(t, intake)
	assert.Equal(t, "900123", intake.IdentificationNumber)
	assert.True(t, intake.Register)
	assert.Equal(t, enums.IdentificationTypeNIT, intake.Registration.IdentificationType)
	assert.Equal(t, enums.DispatchTypeHomeDelivery, intake.Dispatch.Type)
	assert.Equal(t, "Medellin", intake.Dispatch.City)
	assert.Equal(t, enums.OrderStatusInProcess, intake.Status)

	require.Len(t, intake.Lines, 2)
	require.NotNil(t, intake.Lines[0].ProductID)
	assert.Equal(t, uint64(5), *intake.Lines[0].ProductID)
	assert.Equal(t, internalorders.Quantity("2"), intake.Lines[0].Quantity)
	assert.Equal(t, "Especial", intake.Lines[0].FormulationGroup)
	assert.Nil(t, intake.Lines[1].ProductID)
	assert.Equal(t, internalorders.Quantity("1"), intake.Lines[1].Quantity)
}

func TestValidateEndpoint(t *testing.T) {
	rec := do(newRouter(&stubService{}), http.MethodPost, "/orders/validate", "application/json", `{}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.False(t, envelope.Data.Valid)
	assert.Equal(t, internalorders.Validate(internalorders.Intake{}), envelope.Data.Errors)
}

func TestFormState(t *testing.T) {
	rec := do(newRouter(&stubService{}), http.MethodGet, "/orders/form", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data FormState `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "2026-01-05", envelope.Data.MinimumDeliveryDate)
	assert.Equal(t, enums.OrderStatusInProcess, envelope.Data.Intake.Status)
	require.Len(t, envelope.Data.Products, 1)
	assert.Equal(t, "CH-250", envelope.Data.Products[0].Code)
	assert.Equal(t, enums.DispatchTypes(), envelope.Data.DispatchTypes)
}

func TestResolveCustomerEndpoint(t *testing.T) {
	rec := do(newRouter(&stubService{}), http.MethodPost, "/orders/resolve-customer", "application/json", `{"identification_number":"123"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), internalorders.MsgRegisterCustomer)
	assert.Contains(t, rec.Body.String(), `"show_registration":true`)
}

func TestRecomputeEndpoint(t *testing.T) {
	svc := &stubService{}
	body := `{"product_id":1,"quantity":4,"index":0,"lines":[{"product_id":null,"quantity":null}]}`
	rec := do(newRouter(svc), http.MethodPost, "/orders/lines/recompute", "application/json", body)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.recompute.ProductID)
	assert.Equal(t, uint64(1), *svc.recompute.ProductID)
	require.NotNil(t, svc.recompute.Quantity)
	assert.Equal(t, 4, *svc.recompute.Quantity)
	assert.Len(t, svc.recompute.Lines, 1)
}

func TestListPassesLimit(t *testing.T) {
	svc := &stubService{}
	h := newRouter(svc)

	rec := do(h, http.MethodGet, "/orders?limit=10", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 10, svc.limit)
	assert.JSONEq(t, `{"data":[]}`, rec.Body.String())

	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodGet, "/orders?limit=0", "", "").Code)
}

func TestDetailAndDelete(t *testing.T) {
	h := newRouter(&stubService{})

	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/orders/7", "", "").Code)
	assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/orders/8", "", "").Code)
	assert.Equal(t, http.StatusNoContent, do(h, http.MethodDelete, "/orders/7", "", "").Code)
}

func TestChangeStatusEndpoint(t *testing.T) {
	svc := &stubService{}
	h := newRouter(svc)

	rec := do(h, http.MethodPatch, "/orders/7/status", "application/json", `{"status":"Programado"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Programado", svc.status)

	rec = do(h, http.MethodPatch, "/orders/7/status", "application/json", `{"status":"Perdido"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h, http.MethodPatch, "/orders/7/status", "application/json", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateEndpoint(t *testing.T) {
	rec := do(newRouter(&stubService{}), http.MethodPut, "/orders/7", "application/json", `{"status":"Entregado","lines":[]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"Entregado"`)
}
