package models

import "strings"

type OrderStatus string

const (
	OrderStatusNew        OrderStatus = "new"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusComplete   OrderStatus = "complete"
)

// OrderStatuses is the closed set of values an order status can take.
var OrderStatuses = []OrderStatus{
	OrderStatusNew,
	OrderStatusProcessing,
	OrderStatusCancelled,
	OrderStatusComplete,
}

// ParseOrderStatus trims and lower-cases s and reports whether it names a known status.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	st := OrderStatus(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range OrderStatuses {
		if st == known {
			return st, true
		}
	}
	return "", false
}

// Final reports whether s ends the order's life: complete or cancelled.
func (s OrderStatus) Final() bool {
	return s == OrderStatusComplete || s == OrderStatusCancelled
}

type OrderItem struct {
	Item     string  `json:"item"`
	Quantity float64 `json:"quantity"`
	Cost     float64 `json:"cost"` // line total, not unit price
}

// Order is a row from orders with its order_items attached.
// ID is the internal key and never leaves the server.
type Order struct {
	ID        int64       `json:"-"`
	PublicID  string      `json:"order-id"`
	Customer  string      `json:"customer"`
	Status    OrderStatus `json:"status"`
	TotalCost float64     `json:"total-cost"`
	Items     []OrderItem `json:"items"`
}
