package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fast-food-fast/logger"
	"fast-food-fast/models"
	"fast-food-fast/validation"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	publicIDLen      = 12
	publicIDAttempts = 5
	notifyTimeout    = 5 * time.Second
)

type OrderStore interface {
	InsertOrder(ctx context.Context, o models.Order) (models.Order, error)
	OrdersByCustomer(ctx context.Context, customer string) ([]models.Order, error)
	AllOrders(ctx context.Context) ([]models.Order, error)
	OrderByPublicID(ctx context.Context, publicID string) (models.Order, error)
	UpdateOrderStatus(ctx context.Context, publicID string, status models.OrderStatus) error
}

type Orders struct {
	store    OrderStore
	users    *Users
	notifier OrderNotifier
	log      *logger.Logger
	newID    func() string
}

// NewOrders wires the order operations. notifier may be nil.
func NewOrders(store OrderStore, users *Users, notifier OrderNotifier, log *logger.Logger) *Orders {
	return &Orders{store: store, users: users, notifier: notifier, log: log, newID: newPublicID}
}

// newPublicID returns the first 12 hex digits of a random UUID.
func newPublicID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:publicIDLen]
}

// OrderTotal sums the item costs exactly in decimal and converts once.
func OrderTotal(items []models.OrderItem) float64 {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(decimal.NewFromFloat(it.Cost))
	}
	return total.InexactFloat64()
}

// CreateOrder validates the payload and stores a new order for customer.
// Any status, total-cost or order-id in the payload is ignored: the
// order always starts as new, the total is recomputed and the public id
// is generated here.
func (s *Orders) CreateOrder(ctx context.Context, body []byte, customer string) (models.Order, error) {
	req, err := validation.ParseOrder(body)
	if err != nil {
		return models.Order{}, err
	}

	order := models.Order{
		Customer:  customer,
		Status:    models.OrderStatusNew,
		TotalCost: OrderTotal(req.Items),
		Items:     req.Items,
	}

	var saved models.Order
	for attempt := 1; ; attempt++ {
		order.PublicID = s.newID()
		saved, err = s.store.InsertOrder(ctx, order)
		if err == nil {
			break
		}
		err = storeErr(err, "order id")
		if !errors.Is(err, ErrConflict) || attempt == publicIDAttempts {
			return models.Order{}, err
		}
		s.log.Warn("order_id_collision", logger.RequestID(ctx), "public order id already used, regenerating")
	}

	s.notify(ctx, "order_placed", func(ctx context.Context) error {
		return s.notifier.OrderPlaced(ctx, saved)
	})
	return saved, nil
}

// OrderHistory returns the customer's orders with their items, oldest
// first. No orders is an empty slice.
func (s *Orders) OrderHistory(ctx context.Context, customer string) ([]models.Order, error) {
	orders, err := s.store.OrdersByCustomer(ctx, customer)
	if err != nil {
		return nil, storeErr(err, "orders")
	}
	return orders, nil
}

func (s *Orders) AllOrders(ctx context.Context) ([]models.Order, error) {
	orders, err := s.store.AllOrders(ctx)
	if err != nil {
		return nil, storeErr(err, "orders")
	}
	return orders, nil
}

func (s *Orders) Order(ctx context.Context, publicID string) (models.Order, error) {
	o, err := s.store.OrderByPublicID(ctx, publicID)
	if err != nil {
		return models.Order{}, storeErr(err, "order "+publicID)
	}
	return o, nil
}

// OrderFor returns the order if username placed it or is an admin.
func (s *Orders) OrderFor(ctx context.Context, publicID, username string) (models.Order, error) {
	o, err := s.Order(ctx, publicID)
	if err != nil {
		return models.Order{}, err
	}
	if o.Customer == username {
		return o, nil
	}
	admin, err := s.IsAdmin(ctx, username)
	if err != nil {
		return models.Order{}, err
	}
	if !admin {
		return models.Order{}, fmt.Errorf("%w: order %s belongs to another customer", ErrForbidden, publicID)
	}
	return o, nil
}

// UpdateStatus sets the status of an existing order. Total and items are
// never touched. An invalid payload leaves the order unchanged.
func (s *Orders) UpdateStatus(ctx context.Context, publicID string, body []byte) (models.Order, error) {
	o, err := s.Order(ctx, publicID)
	if err != nil {
		return models.Order{}, err
	}
	req, err := validation.ParseStatusUpdate(body)
	if err != nil {
		return models.Order{}, err
	}
	if err := s.store.UpdateOrderStatus(ctx, publicID, req.Status); err != nil {
		return models.Order{}, storeErr(err, "order "+publicID)
	}
	o.Status = req.Status

	s.notify(ctx, "status_changed", func(ctx context.Context) error {
		return s.notifier.StatusChanged(ctx, o)
	})
	return o, nil
}

func (s *Orders) IsAdmin(ctx context.Context, username string) (bool, error) {
	return s.users.IsAdmin(ctx, username)
}

// notify runs send with its own deadline. The order is already stored, so
// a failure is only logged.
func (s *Orders) notify(ctx context.Context, action string, send func(context.Context) error) {
	if s.notifier == nil {
		return
	}
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := send(nctx); err != nil {
		s.log.Error(action+"_notify_failed", logger.RequestID(ctx), "order notification failed", err)
	}
}
