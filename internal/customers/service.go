package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/florezcook/orders-backend/pkg/db"
	"github.com/florezcook/orders-backend/pkg/db/models"
	pkgerrors "github.com/florezcook/orders-backend/pkg/errors"
	"github.com/florezcook/orders-backend/pkg/logger"
)

// Service exposes customer management.
type Service interface {
	List(ctx context.Context) ([]CustomerDTO, error)
	Get(ctx context.Context, id uint64) (*CustomerDTO, error)
	Lookup(ctx context.Context, identification string) (*CustomerDTO, error)
	Create(ctx context.Context, input Input) (*CustomerDTO, error)
	Update(ctx context.Context, id uint64, input Input) (*CustomerDTO, error)
	Delete(ctx context.Context, id uint64) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo Repository
	tx   txRunner
	logg *logger.Logger
}

// NewService constructs a customer service instance.
func NewService(repo Repository, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("customer repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, tx: tx, logg: logg}, nil
}

// DuplicateIdentificationMessage is the conflict message reported when an
// identification number is already registered.
func DuplicateIdentificationMessage(number string) string {
	return fmt.Sprintf("a customer with identification number %s already exists", number)
}

// IsDuplicateIdentification reports whether err is the unique violation on
// customers.identification_number.
func IsDuplicateIdentification(err error) bool {
	return db.IsUniqueViolation(err, "identification_number")
}

func (s *service) List(ctx context.Context) ([]CustomerDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customers")
	}
	out := make([]CustomerDTO, 0, len(rows))
	for i := range rows {
		out = append(out, NewCustomerDTO(&rows[i]))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, id uint64) (*CustomerDTO, error) {
	customer, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	dto := NewCustomerDTO(customer)
	return &dto, nil
}

func (s *service) Lookup(ctx context.Context, identification string) (*CustomerDTO, error) {
	identification = strings.TrimSpace(identification)
	if identification == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "identification number is required")
	}
	customer, err := s.repo.FindByIdentification(ctx, identification)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup customer")
	}
	dto := NewCustomerDTO(customer)
	return &dto, nil
}

func (s *service) Create(ctx context.Context, input Input) (*CustomerDTO, error) {
	input = input.Normalize()
	if err := validate(input); err != nil {
		return nil, err
	}

	customer := input.Model()
	if err := s.repo.Create(ctx, customer); err != nil {
		return nil, mapWriteError(err, input.IdentificationNumber, "insert customer")
	}
	s.logg.Info(s.logg.WithCustomerID(ctx, customer.ID), "customers.created")

	dto := NewCustomerDTO(customer)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, id uint64, input Input) (*CustomerDTO, error) {
	input = input.Normalize()
	if err := validate(input); err != nil {
		return nil, err
	}

	var updated *models.Customer
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		customer, err := s.load(ctx, txRepo, id)
		if err != nil {
			return err
		}
		input.Apply(customer)
		if err := txRepo.Save(ctx, customer); err != nil {
			return mapWriteError(err, input.IdentificationNumber, "update customer")
		}
		updated = customer
		return nil
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update customer")
	}

	dto := NewCustomerDTO(updated)
	return &dto, nil
}

// Delete removes the customer. Orders keep their entered identification and
// lose the link.
func (s *service) Delete(ctx context.Context, id uint64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete customer")
	}
	return nil
}

func (s *service) load(ctx context.Context, repo Repository, id uint64) (*models.Customer, error) {
	customer, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	return customer, nil
}

func validate(in Input) error {
	details := map[string]string{}
	required := map[string]string{
		"trade_name":            in.TradeName,
		"legal_name":            in.LegalName,
		"identification_number": in.IdentificationNumber,
		"email":                 in.Email,
		"phone":                 in.Phone,
		"address_line1":         in.AddressLine1,
		"city":                  in.City,
		"department":            in.Department,
		"country":               in.Country,
	}
	for field, value := range required {
		if value == "" {
			details[field] = "is required"
		}
	}
	if in.IdentificationType == "" {
		details["identification_type"] = "is required"
	} else if !in.IdentificationType.IsValid() {
		details["identification_type"] = "is invalid"
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}
	return nil
}

func mapWriteError(err error, identification, op string) error {
	if IsDuplicateIdentification(err) {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, DuplicateIdentificationMessage(identification))
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}
