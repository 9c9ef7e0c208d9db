package orders

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/florezcook/orders-backend/internal/customers"
	"github.com/florezcook/orders-backend/pkg/enums"
	pkgerrors "github.com/florezcook/orders-backend/pkg/errors"
	"github.com/florezcook/orders-backend/pkg/types"
)

// MsgRegisterCustomer is the advisory shown when an identification number
// has no registered customer.
const MsgRegisterCustomer = "please register as a customer"

// InitialState returns a blank order form.
func (s *service) InitialState() Intake {
	return Intake{
		Status: enums.OrderStatusInProcess,
		Lines:  []LineInput{},
	}
}

// ResolveCustomer derives the form state for an entered identification
// number. It only reads from the store.
func (s *service) ResolveCustomer(ctx context.Context, identification string) (*Resolution, error) {
	identification = strings.TrimSpace(identification)
	if identification == "" {
		return &Resolution{}, nil
	}

	customer, err := s.customers.FindByIdentification(ctx, identification)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup customer")
	}

	if err == nil {
		dto := customers.NewCustomerDTO(customer)
		return &Resolution{
			IdentificationNumber: identification,
			Customer:             &dto,
			CustomerName:         customer.TradeName,
			ShowCustomerName:     true,
			ShowDispatch:         true,
			ShowLines:            true,
		}, nil
	}

	return &Resolution{
		IdentificationNumber: identification,
		Alert:                MsgRegisterCustomer,
		ShowRegistration:     true,
		ShowDispatch:         true,
		ShowLines:            true,
		Registration:         Registration{IdentificationNumber: identification},
	}, nil
}

// RecomputeLine fills the derived fields of the line at input.Index from the
// cached catalog. The input slice is never modified; an out of range index
// returns an unchanged copy.
func (s *service) RecomputeLine(ctx context.Context, input RecomputeLineInput) ([]LineItem, error) {
	lines := make([]LineItem, len(input.Lines))
	copy(lines, input.Lines)
	for i := range lines {
		lines[i].ProductID = copyUint(lines[i].ProductID)
		lines[i].Quantity = copyInt(lines[i].Quantity)
	}
	if input.Index < 0 || input.Index >= len(lines) {
		return lines, nil
	}

	line := &lines[input.Index]
	line.Quantity = copyInt(input.Quantity)

	if input.ProductID == nil {
		clearProduct(line)
		return lines, nil
	}
	entry, err := s.catalog.Lookup(ctx, *input.ProductID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup product")
	}
	if entry == nil {
		clearProduct(line)
		return lines, nil
	}

	id := entry.ID
	line.ProductID = &id
	line.ProductCode = entry.Code
	line.ProductReference = entry.Reference
	line.UnitWeightGrams = decimal.NewNullDecimal(entry.UnitWeightGrams)
	line.FormulationGroup = entry.FormulationGroup
	line.CategoryLine = entry.CategoryLine
	total := decimal.Zero
	if input.Quantity != nil {
		total = entry.UnitWeightGrams.Mul(decimal.NewFromInt(int64(*input.Quantity)))
	}
	line.TotalWeightGrams = decimal.NewNullDecimal(total)
	line.DeliveryDate = MinimumDeliveryDate(s.now(), s.businessDays)
	return lines, nil
}

func clearProduct(line *LineItem) {
	line.ProductID = nil
	line.ProductCode = ""
	line.ProductReference = ""
	line.UnitWeightGrams = decimal.NullDecimal{}
	line.TotalWeightGrams = decimal.NullDecimal{}
	line.FormulationGroup = ""
	line.CategoryLine = ""
	line.DeliveryDate = types.Date{}
}

func copyUint(v *uint64) *uint64 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
