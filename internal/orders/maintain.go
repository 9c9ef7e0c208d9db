package orders

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/florezcook/orders-backend/pkg/enums"
	pkgerrors "github.com/florezcook/orders-backend/pkg/errors"
	"github.com/florezcook/orders-backend/pkg/types"
)

func (s *service) Get(ctx context.Context, id uint64) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLoadError(err)
	}
	return NewOrderDTO(order), nil
}

func (s *service) List(ctx context.Context, limit int) ([]OrderSummary, error) {
	if limit <= 0 || limit > s.recentLimit {
		limit = s.recentLimit
	}
	rows, err := s.repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	out := make([]OrderSummary, 0, len(rows))
	for i := range rows {
		out = append(out, newOrderSummary(&rows[i]))
	}
	return out, nil
}

// Update replaces the dispatch details, status, alert and every line of an
// order in one transaction.
func (s *service) Update(ctx context.Context, id uint64, input UpdateInput) (*OrderDTO, error) {
	var errs error
	errs = multierr.Append(errs, validateDispatch(input.Dispatch))
	if input.Status != "" && !input.Status.IsValid() {
		errs = multierr.Append(errs, errors.New(MsgStatusInvalid))
	}
	if len(input.Lines) == 0 {
		errs = multierr.Append(errs, errors.New(MsgLinesRequired))
	}
	errs = multierr.Append(errs, validateLines(input.Lines))
	if msgs := messages(errs); len(msgs) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order is invalid").
			WithDetails(map[string]any{"errors": msgs})
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, id)
		if err != nil {
			return mapLoadError(err)
		}

		if name := strings.TrimSpace(input.CustomerName); name != "" {
			order.EnteredCustomerName = name
		}
		order.Alert = optional(input.Alert)
		if input.Status != "" {
			order.Status = input.Status
		}
		applyDispatch(order, input.Dispatch)
		order.UpdatedAt = s.now()

		if err := repo.UpdateHeader(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
		}
		if err := repo.DeleteLines(ctx, order.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order lines")
		}
		lines, err := s.buildLines(ctx, tx, order.ID, input.Lines, types.NewDate(order.CreatedAt))
		if errors.Is(err, errUnknownProduct) {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "order lines are invalid").
				WithDetails(map[string]any{"errors": []string{err.Error()}})
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order products")
		}
		if err := repo.CreateLines(ctx, lines); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert order lines")
		}
		return nil
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
	}

	s.logg.Info(s.logg.WithOrderID(ctx, id), "orders.updated")
	return s.Get(ctx, id)
}

// Delete removes an order and its lines.
func (s *service) Delete(ctx context.Context, id uint64) error {
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.DeleteLines(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order lines")
		}
		if err := repo.Delete(ctx, id); err != nil {
			return mapLoadError(err)
		}
		return nil
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return err
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order")
	}
	s.logg.Info(s.logg.WithOrderID(ctx, id), "orders.deleted")
	return nil
}

// ChangeStatus sets the order status and copies it onto every line.
func (s *service) ChangeStatus(ctx context.Context, id uint64, status string) (*OrderDTO, error) {
	parsed, err := enums.ParseOrderStatus(strings.TrimSpace(status))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, MsgStatusInvalid).
			WithDetails(map[string]any{"allowed": enums.OrderStatuses()})
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateStatus(ctx, id, parsed, s.now()); err != nil {
			return mapLoadError(err)
		}
		if err := repo.UpdateLineStatuses(ctx, id, enums.LineStatusFromOrder(parsed)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update line statuses")
		}
		return nil
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "change order status")
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"order_id": id,
		"status":   parsed.String(),
	}), "orders.status_changed")
	return s.Get(ctx, id)
}

func mapLoadError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
}
