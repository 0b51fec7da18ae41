package services

import (
	"context"
	"errors"

	"fast-food-fast/models"
)

// OrderNotifier is told about new orders and status changes after they
// are persisted.
type OrderNotifier interface {
	OrderPlaced(ctx context.Context, o models.Order) error
	StatusChanged(ctx context.Context, o models.Order) error
}

// Notifiers fans out to every configured notifier and joins their errors.
type Notifiers []OrderNotifier

func (ns Notifiers) OrderPlaced(ctx context.Context, o models.Order) error {
	var errs []error
	for _, n := range ns {
		if err := n.OrderPlaced(ctx, o); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (ns Notifiers) StatusChanged(ctx context.Context, o models.Order) error {
	var errs []error
	for _, n := range ns {
		if err := n.StatusChanged(ctx, o); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
