package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/florezcook/orders-backend/internal/customers"
	"github.com/florezcook/orders-backend/pkg/config"
	"github.com/florezcook/orders-backend/pkg/db/models"
	"github.com/florezcook/orders-backend/pkg/enums"
	"github.com/florezcook/orders-backend/pkg/metrics"
	"github.com/florezcook/orders-backend/pkg/types"
)

// MsgUnknownCustomer is returned when the identification number matches no
// customer and no registration was filled in.
const MsgUnknownCustomer = "unable to determine the customer for the order, check the identification number"

var errUnknownProduct = errors.New("product not found")

type submitState string

const (
	stateValidating         submitState = "validating"
	stateResolvingCustomer  submitState = "resolving-customer"
	statePersistingCustomer submitState = "persisting-customer"
	statePersistingOrder    submitState = "persisting-order"
	stateCommitted          submitState = "committed"
	stateRejected           submitState = "rejected"
)

// stageError tags a transactional failure with the step that raised it.
type stageError struct {
	stage submitState
	err   error
}

func (e *stageError) Error() string { return e.err.Error() }
func (e *stageError) Unwrap() error { return e.err }

// Submit validates and stores an order, registering the customer first when
// needed. Every failure is reported through Result; nothing is retried.
func (s *service) Submit(ctx context.Context, intake Intake) Result {
	started := time.Now()
	identification := strings.TrimSpace(intake.IdentificationNumber)
	ctx = s.logg.WithFields(ctx, map[string]any{
		"identification_number": identification,
		"commit_mode":           s.commitMode,
	})

	s.transition(ctx, stateValidating)
	if errs := Validate(intake); len(errs) > 0 {
		return s.reject(ctx, started, metrics.OutcomeInvalid, errs...)
	}

	s.transition(ctx, stateResolvingCustomer)
	existing, err := s.customers.FindByIdentification(ctx, identification)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		existing = nil
	case err != nil:
		s.logg.Error(ctx, "orders.customer_lookup_failed", err)
		return s.reject(ctx, started, metrics.OutcomeCustomerFailed, "customer lookup failed: "+err.Error())
	}

	var registration *customers.Input
	if existing == nil {
		if !intake.Register {
			return s.reject(ctx, started, metrics.OutcomeUnknownCustomer, MsgUnknownCustomer)
		}
		input := intake.Registration.CustomerInput(identification)
		registration = &input
	}

	today := types.NewDate(s.now())

	if registration != nil && s.commitMode == config.CommitModeTwoPhase {
		var created *models.Customer
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			customer, err := s.createCustomer(ctx, tx, *registration)
			created = customer
			return err
		})
		if err != nil {
			return s.customerFailure(ctx, started, registration.IdentificationNumber, err)
		}
		existing, registration = created, nil
	}

	var order *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		customer := existing
		if registration != nil {
			created, err := s.createCustomer(ctx, tx, *registration)
			if err != nil {
				return &stageError{stage: statePersistingCustomer, err: err}
			}
			customer = created
		}
		saved, err := s.persistOrder(ctx, tx, intake, customer, today)
		if err != nil {
			return &stageError{stage: statePersistingOrder, err: err}
		}
		order = saved
		return nil
	})
	if err != nil {
		var staged *stageError
		if errors.As(err, &staged) && staged.stage == statePersistingCustomer {
			return s.customerFailure(ctx, started, registration.IdentificationNumber, staged.err)
		}
		s.logg.Error(ctx, "orders.order_save_failed", err)
		return s.reject(ctx, started, metrics.OutcomeOrderFailed, "order save failed: "+err.Error())
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"order_id":    order.ID,
		"customer_id": order.CustomerID,
		"lines":       len(order.Lines),
	})
	s.transition(ctx, stateCommitted)
	s.metrics.ObserveSubmission(metrics.OutcomeCommitted, time.Since(started))
	s.metrics.ObserveLines(len(order.Lines))
	return Result{Success: true, OrderID: order.ID}
}

func (s *service) createCustomer(ctx context.Context, tx *gorm.DB, input customers.Input) (*models.Customer, error) {
	s.transition(ctx, statePersistingCustomer)
	repo := s.customers.WithTx(tx)
	customer := input.Model()
	if err := repo.Create(ctx, customer); err != nil {
		return nil, err
	}
	stored, err := repo.FindByID(ctx, customer.ID)
	if err != nil {
		return nil, fmt.Errorf("customer %d was created but could not be read back: %w", customer.ID, err)
	}
	s.logg.Info(s.logg.WithCustomerID(ctx, stored.ID), "orders.customer_registered")
	return stored, nil
}

func (s *service) persistOrder(ctx context.Context, tx *gorm.DB, intake Intake, customer *models.Customer, today types.Date) (*models.Order, error) {
	s.transition(ctx, statePersistingOrder)

	name := strings.TrimSpace(intake.CustomerName)
	if name == "" {
		name = customer.TradeName
	}
	status := intake.Status
	if status == "" {
		status = enums.OrderStatusInProcess
	}
	customerID := customer.ID
	order := &models.Order{
		EnteredIdentification: strings.TrimSpace(intake.IdentificationNumber),
		EnteredCustomerName:   name,
		CustomerID:            &customerID,
		Alert:                 optional(intake.Alert),
		Status:                status,
	}
	applyDispatch(order, intake.Dispatch)

	repo := s.repo.WithTx(tx)
	if err := repo.CreateOrder(ctx, order); err != nil {
		return nil, err
	}
	lines, err := s.buildLines(ctx, tx, order.ID, intake.Lines, today)
	if err != nil {
		return nil, err
	}
	if err := repo.CreateLines(ctx, lines); err != nil {
		return nil, err
	}
	order.Lines = lines
	return order, nil
}

// buildLines turns validated inputs into rows. Unit weight is re-read from
// the product so totals never trust client-side values.
func (s *service) buildLines(ctx context.Context, tx *gorm.DB, orderID uint64, inputs []LineInput, today types.Date) ([]models.OrderLine, error) {
	ids := make([]uint64, 0, len(inputs))
	for _, in := range inputs {
		ids = append(ids, *in.ProductID)
	}
	catalog, err := s.products.WithTx(tx).FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	lines := make([]models.OrderLine, 0, len(inputs))
	for i, in := range inputs {
		product, ok := catalog[*in.ProductID]
		if !ok {
			return nil, fmt.Errorf("item %d: product %d: %w", i+1, *in.ProductID, errUnknownProduct)
		}
		qty, _ := in.Quantity.Int()
		delivery, err := types.ParseDate(in.DeliveryDate)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i+1, err)
		}
		status := enums.LineStatusPending
		if !blank(in.Status) {
			if status, err = enums.ParseLineStatus(strings.TrimSpace(in.Status)); err != nil {
				return nil, fmt.Errorf("item %d: %w", i+1, err)
			}
		}

		lines = append(lines, models.OrderLine{
			OrderID:          orderID,
			ProductID:        product.ID,
			OrderedOn:        today.Time,
			Quantity:         qty,
			UnitWeightGrams:  decimal.NewNullDecimal(product.UnitWeightGrams),
			TotalWeightGrams: decimal.NewNullDecimal(product.UnitWeightGrams.Mul(decimal.NewFromInt(int64(qty)))),
			FormulationGroup: firstNonBlank(in.FormulationGroup, product.FormulationGroup),
			CategoryLine:     firstNonBlank(in.CategoryLine, product.CategoryLine),
			Comments:         strings.TrimSpace(in.Comments),
			DeliveryDate:     delivery.Ptr(),
			Status:           status,
		})
	}
	return lines, nil
}

func applyDispatch(order *models.Order, d Dispatch) {
	order.DispatchType = d.Type
	order.DispatchSite = strings.TrimSpace(d.Site)
	order.DeliveryAddress = strings.TrimSpace(d.Address)
	order.DeliveryCity = strings.TrimSpace(d.City)
	order.DeliveryDepartment = strings.TrimSpace(d.Department)
	order.DispatchHours = strings.TrimSpace(d.Hours)
	order.DispatchNotes = strings.TrimSpace(d.Notes)
}

func (s *service) customerFailure(ctx context.Context, started time.Time, identification string, err error) Result {
	if customers.IsDuplicateIdentification(err) {
		return s.reject(ctx, started, metrics.OutcomeDuplicateCustomer, customers.DuplicateIdentificationMessage(identification))
	}
	s.logg.Error(ctx, "orders.customer_create_failed", err)
	return s.reject(ctx, started, metrics.OutcomeCustomerFailed, "customer creation failed: "+err.Error())
}

func (s *service) reject(ctx context.Context, started time.Time, outcome string, errs ...string) Result {
	ctx = s.logg.WithFields(ctx, map[string]any{
		"outcome": outcome,
		"errors":  errs,
	})
	s.transition(ctx, stateRejected)
	s.metrics.ObserveSubmission(outcome, time.Since(started))
	return failed(errs...)
}

func (s *service) transition(ctx context.Context, state submitState) {
	s.logg.Info(s.logg.WithField(ctx, "state", string(state)), "orders.submit")
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
