package reports

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/florezcook/orders-backend/internal/orders"
	"github.com/florezcook/orders-backend/pkg/db/models"
	pkgerrors "github.com/florezcook/orders-backend/pkg/errors"
	"github.com/florezcook/orders-backend/pkg/logger"
	"github.com/florezcook/orders-backend/pkg/pagination"
)

// Service builds the order and consolidated product reports.
type Service interface {
	Orders(ctx context.Context, filter OrderFilter, params pagination.Params) (*OrderReport, error)
	Consolidated(ctx context.Context, filter ConsolidatedFilter) (*Consolidated, error)
	ExportOrders(ctx context.Context, filter OrderFilter, w io.Writer) error
	ExportConsolidated(ctx context.Context, filter ConsolidatedFilter, w io.Writer) error
}

type service struct {
	repo     Repository
	pageSize int
	logg     *logger.Logger
}

// NewService wires the report service. pageSize falls back to
// pagination.DefaultPerPage.
func NewService(repo Repository, pageSize int, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reports repository required")
	}
	if pageSize <= 0 {
		pageSize = pagination.DefaultPerPage
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, pageSize: pageSize, logg: logg}, nil
}

func (s *service) Orders(ctx context.Context, filter OrderFilter, params pagination.Params) (*OrderReport, error) {
	if err := filter.validate(); err != nil {
		return nil, err
	}
	params = params.Normalize(s.pageSize)

	total, err := s.repo.CountOrders(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count orders")
	}
	rows, err := s.repo.ListOrders(ctx, filter, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	statuses, err := s.repo.Statuses(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list order statuses")
	}
	customers, err := s.repo.Customers(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customers")
	}

	report := &OrderReport{
		Orders:    make([]OrderRow, 0, len(rows)),
		Page:      pagination.NewPage(params, total),
		Statuses:  nonNil(statuses),
		Customers: customers,
	}
	if report.Customers == nil {
		report.Customers = []CustomerOption{}
	}
	for i := range rows {
		report.Orders = append(report.Orders, newOrderRow(&rows[i]))
	}
	return report, nil
}

func (s *service) Consolidated(ctx context.Context, filter ConsolidatedFilter) (*Consolidated, error) {
	if err := filter.DateRange.validate(); err != nil {
		return nil, err
	}
	rows, err := s.repo.ConsolidatedLines(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order lines")
	}

	report := Consolidate(rows)
	if report.Statuses, err = s.repo.Statuses(ctx); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list order statuses")
	}
	if report.CategoryList, err = s.repo.ProductCategories(ctx); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list product categories")
	}
	if report.Formulations, err = s.repo.ProductFormulations(ctx); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list product formulations")
	}
	report.Statuses = nonNil(report.Statuses)
	report.CategoryList = nonNil(report.CategoryList)
	report.Formulations = nonNil(report.Formulations)
	return report, nil
}

// Consolidate groups rows by category, formulation and reference in the order
// they first appear, summing quantity and weight at every level.
func Consolidate(rows []LineRow) *Consolidated {
	report := &Consolidated{
		Categories: []CategoryGroup{},
		Totals:     Totals{WeightGrams: decimal.Zero},
	}
	categoryIdx := map[string]int{}
	formulationIdx := map[string]int{}
	referenceIdx := map[string]int{}

	for _, row := range rows {
		category := labelOr(row.CategoryLine, NoCategory)
		formulation := labelOr(row.FormulationGroup, NoFormulation)
		reference := labelOr(row.Reference, NoReference)
		weight := row.weight()

		ci, ok := categoryIdx[category]
		if !ok {
			ci = len(report.Categories)
			categoryIdx[category] = ci
			report.Categories = append(report.Categories, CategoryGroup{
				Name:         category,
				Formulations: []FormulationGroup{},
				Totals:       Totals{WeightGrams: decimal.Zero},
			})
		}
		cat := &report.Categories[ci]

		fKey := category + "|" + formulation
		fi, ok := formulationIdx[fKey]
		if !ok {
			fi = len(cat.Formulations)
			formulationIdx[fKey] = fi
			cat.Formulations = append(cat.Formulations, FormulationGroup{
				Name:       formulation,
				References: []ReferenceGroup{},
				Totals:     Totals{WeightGrams: decimal.Zero},
			})
		}
		form := &cat.Formulations[fi]

		rKey := fKey + "|" + reference
		ri, ok := referenceIdx[rKey]
		if !ok {
			ri = len(form.References)
			referenceIdx[rKey] = ri
			form.References = append(form.References, ReferenceGroup{
				Name:   reference,
				Items:  []ConsolidatedItem{},
				Totals: Totals{WeightGrams: decimal.Zero},
			})
		}
		ref := &form.References[ri]

		ref.Items = append(ref.Items, ConsolidatedItem{
			OrderID:     row.OrderID,
			Formulation: row.FormulationGroup,
			Reference:   row.Reference,
			Comments:    row.Comments,
			Quantity:    row.Quantity,
			WeightGrams: weight,
		})
		ref.Totals.add(row.Quantity, weight)
		form.Totals.add(row.Quantity, weight)
		cat.Totals.add(row.Quantity, weight)
		report.Totals.add(row.Quantity, weight)
	}
	return report
}

func newOrderRow(order *models.Order) OrderRow {
	row := OrderRow{
		ID:                    order.ID,
		CreatedAt:             order.CreatedAt,
		EnteredIdentification: order.EnteredIdentification,
		CustomerID:            order.CustomerID,
		CustomerName:          customerLabel(order),
		DispatchType:          order.DispatchType,
		Status:                order.Status,
		LineCount:             len(order.Lines),
		TotalWeightGrams:      decimal.Zero,
	}
	for _, line := range order.Lines {
		row.TotalQuantity += line.Quantity
		row.TotalWeightGrams = row.TotalWeightGrams.Add(orders.LineTotal(line))
	}
	return row
}

// customerLabel prefers the registered trade name over the entered name.
func customerLabel(order *models.Order) string {
	if order.Customer != nil && strings.TrimSpace(order.Customer.TradeName) != "" {
		return order.Customer.TradeName
	}
	if name := strings.TrimSpace(order.EnteredCustomerName); name != "" {
		return name
	}
	return unregisteredCustomer
}

func (f OrderFilter) validate() error {
	return f.DateRange.validate()
}

func (r DateRange) validate() error {
	if !r.From.IsZero() && !r.To.IsZero() && r.To.Before(r.From.Time) {
		return pkgerrors.New(pkgerrors.CodeValidation, "to date must not be before from date")
	}
	return nil
}

func labelOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
