package orders

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"github.com/florezcook/orders-backend/pkg/enums"
	"github.com/florezcook/orders-backend/pkg/types"
)

// Validation messages for the order header.
const (
	MsgIdentificationRequired = "identification number is required"
	MsgCustomerNameRequired   = "customer name is required"
	MsgDispatchTypeRequired   = "dispatch type is required"
	MsgDispatchTypeInvalid    = "dispatch type is invalid"
	MsgStatusInvalid          = "order status is invalid"
	MsgLinesRequired          = "at least one product must be added to the order"
)

// Validate checks an assembled order form and returns every problem found,
// in a stable order. It never touches storage; an empty result means the
// form can be submitted.
func Validate(intake Intake) []string {
	var errs error
	add := func(msg string) { errs = multierr.Append(errs, errors.New(msg)) }

	if blank(intake.IdentificationNumber) {
		add(MsgIdentificationRequired)
	}
	if intake.CustomerID == nil && blank(intake.CustomerName) {
		add(MsgCustomerNameRequired)
	}

	if intake.Register {
		errs = multierr.Append(errs, validateRegistration(intake.Registration))
	}

	errs = multierr.Append(errs, validateDispatch(intake.Dispatch))

	if intake.Status != "" && !intake.Status.IsValid() {
		add(MsgStatusInvalid)
	}

	if len(intake.Lines) == 0 {
		add(MsgLinesRequired)
	}
	errs = multierr.Append(errs, validateLines(intake.Lines))

	return messages(errs)
}

func validateRegistration(r Registration) error {
	required := []struct {
		value string
		label string
	}{
		{r.TradeName, "trade name"},
		{r.LegalName, "legal name"},
		{string(r.IdentificationType), "identification type"},
		{r.Email, "email"},
		{r.Phone, "phone"},
		{r.AddressLine1, "address"},
		{r.City, "city"},
		{r.Department, "department"},
		{r.Country, "country"},
	}
	var errs error
	for _, field := range required {
		if blank(field.value) {
			errs = multierr.Append(errs, fmt.Errorf("%s is required for new customers", field.label))
		}
	}
	if !blank(string(r.IdentificationType)) && !r.IdentificationType.IsValid() {
		errs = multierr.Append(errs, errors.New("identification type is invalid"))
	}
	return errs
}

func validateDispatch(d Dispatch) error {
	if blank(string(d.Type)) {
		return errors.New(MsgDispatchTypeRequired)
	}
	if !d.Type.IsValid() {
		return errors.New(MsgDispatchTypeInvalid)
	}
	if !d.Type.RequiresAddress() {
		return nil
	}
	var errs error
	if blank(d.Address) {
		errs = multierr.Append(errs, errors.New("delivery address is required for home delivery"))
	}
	if blank(d.City) {
		errs = multierr.Append(errs, errors.New("delivery city is required for home delivery"))
	}
	if blank(d.Department) {
		errs = multierr.Append(errs, errors.New("delivery department is required for home delivery"))
	}
	return errs
}

// validateLines applies the per-line rules used by both submission and edit.
func validateLines(lines []LineInput) error {
	var errs error
	for i, line := range lines {
		item := i + 1
		if line.ProductID == nil || *line.ProductID == 0 {
			errs = multierr.Append(errs, fmt.Errorf("item %d: a product must be selected", item))
		}
		if line.Quantity.TooLarge() {
			errs = multierr.Append(errs, fmt.Errorf("item %d: quantity must not exceed %d", item, MaxQuantity))
		} else if qty, ok := line.Quantity.Int(); !ok || qty <= 0 {
			errs = multierr.Append(errs, fmt.Errorf("item %d: quantity must be greater than zero", item))
		}
		if blank(line.DeliveryDate) {
			errs = multierr.Append(errs, fmt.Errorf("item %d: delivery date is required", item))
		} else if _, err := types.ParseDate(line.DeliveryDate); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("item %d: invalid delivery date format, use YYYY-MM-DD", item))
		}
		if !blank(line.Status) {
			if _, err := enums.ParseLineStatus(strings.TrimSpace(line.Status)); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("item %d: line status is invalid", item))
			}
		}
	}
	return errs
}

func messages(err error) []string {
	out := []string{}
	for _, e := range multierr.Errors(err) {
		out = append(out, e.Error())
	}
	return out
}

func blank(value string) bool {
	return strings.TrimSpace(value) == ""
}
