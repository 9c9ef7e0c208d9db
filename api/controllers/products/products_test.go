package products

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	productsvc "github.com/florezcook/orders-backend/internal/products"
	pkgerrors "github.com/florezcook/orders-backend/pkg/errors"
	"github.com/florezcook/orders-backend/pkg/logger"
)

type stubService struct {
	input    productsvc.ProductInput
	imported []byte
	deleteFn func(uint64) error
}

func (s *stubService) List(context.Context) ([]productsvc.ProductDTO, error) {
	return []productsvc.ProductDTO{{ID: 1, Code: "P-1"}}, nil
}

func (s *stubService) Get(_ context.Context, id uint64) (*productsvc.ProductDTO, error) {
	return &productsvc.ProductDTO{ID: id, Code: "P-1"}, nil
}

func (s *stubService) Create(_ context.Context, input productsvc.ProductInput) (*productsvc.ProductDTO, error) {
	s.input = input
	return &productsvc.ProductDTO{ID: 9, Code: input.Code}, nil
}

func (s *stubService) Update(_ context.Context, id uint64, input productsvc.ProductInput) (*productsvc.ProductDTO, error) {
	s.input = input
	return &productsvc.ProductDTO{ID: id, Code: input.Code}, nil
}

func (s *stubService) Delete(_ context.Context, id uint64) error {
	if s.deleteFn != nil {
		return s.deleteFn(id)
	}
	return nil
}

func (s *stubService) Import(_ context.Context, r io.Reader) (*productsvc.ImportResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	s.imported = data
	return &productsvc.ImportResult{Imported: 2, Errors: []string{}}, nil
}

func (s *stubService) Catalog(context.Context) ([]productsvc.CatalogEntry, error) {
	return nil, nil
}

func newRouter(svc productsvc.Service) http.Handler {
	logg := logger.Nop()
	r := chi.NewRouter()
	r.Get("/products", List(svc, logg))
	r.Post("/products", Create(svc, logg))
	r.Get("/products/catalog", Catalog(svc, logg))
	r.Post("/products/import", Import(svc, logg))
	r.Get("/products/{productId}", Get(svc, logg))
	r.Put("/products/{productId}", Update(svc, logg))
	r.Delete("/products/{productId}", Delete(svc, logg))
	return r
}

func TestCreateProduct(t *testing.T) {
	svc := &stubService{}
	body := `{"code":" CH-250 ","reference":"Chorizo","unit_weight_grams":"250.5","formulation_group":"F-01","category_line":"Carnicos","price":null}`
	rec := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "CH-250", svc.input.Code)
	assert.True(t, decimal.RequireFromString("250.5").Equal(svc.input.UnitWeightGrams))
	assert.False(t, svc.input.Price.Valid)
}

func TestCreateProductRequiresCode(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(&stubService{}).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(`{"reference":"x","unit_weight_grams":1}`)))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"is required"`)
}

func TestCatalogNeverNull(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(&stubService{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/catalog", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[]}`, rec.Body.String())
}

func TestDeleteProductInUse(t *testing.T) {
	svc := &stubService{deleteFn: func(uint64) error {
		return pkgerrors.New(pkgerrors.CodeConflict, "product is referenced by existing orders")
	}}
	rec := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/products/4", nil))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "product is referenced by existing orders")
}

func TestImportProducts(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "productos.xlsx")
	require.NoError(t, err)
	_, err = part.Write([]byte("workbook-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	svc := &stubService{}
	req := httptest.NewRequest(http.MethodPost, "/products/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "workbook-bytes", string(svc.imported))
	assert.JSONEq(t, `{"data":{"imported":2,"updated":0,"errors":[]}}`, rec.Body.String())
}

func TestImportRequiresFile(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("other", "x"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/products/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	newRouter(&stubService{}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
