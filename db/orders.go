package db

import (
	"context"
	"fmt"

	"fast-food-fast/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is satisfied by both a pooled connection and a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// InsertOrder writes the order header and its items in one transaction.
// The returned order carries the generated internal id.
func (s *Store) InsertOrder(ctx context.Context, o models.Order) (models.Order, error) {
	err := s.withConn(ctx, func(conn *pgxpool.Conn) error {
		tx, err := conn.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		defer tx.Rollback(ctx)

		err = tx.QueryRow(ctx, `
			INSERT INTO orders (public_id, customer, status, total_cost)
			VALUES ($1, $2, $3, $4)
			RETURNING id`,
			o.PublicID, o.Customer, string(o.Status), o.TotalCost,
		).Scan(&o.ID)
		if err != nil {
			return mapErr(err)
		}

		for _, it := range o.Items {
			_, err := tx.Exec(ctx, `
				INSERT INTO order_items (order_id, item, quantity, cost)
				VALUES ($1, $2, $3, $4)`,
				o.ID, it.Item, it.Quantity, it.Cost,
			)
			if err != nil {
				return fmt.Errorf("insert order item %q: %w", it.Item, err)
			}
		}
		return tx.Commit(ctx)
	})
	if err != nil {
		return models.Order{}, err
	}
	return o, nil
}

func (s *Store) OrdersByCustomer(ctx context.Context, customer string) ([]models.Order, error) {
	return s.listOrders(ctx, `
		SELECT id, public_id, customer, status, total_cost
		FROM orders WHERE customer = $1
		ORDER BY id`, customer)
}

func (s *Store) AllOrders(ctx context.Context) ([]models.Order, error) {
	return s.listOrders(ctx, `
		SELECT id, public_id, customer, status, total_cost
		FROM orders
		ORDER BY id`)
}

func (s *Store) OrderByPublicID(ctx context.Context, publicID string) (models.Order, error) {
	var o models.Order
	err := s.withConn(ctx, func(conn *pgxpool.Conn) error {
		var status string
		err := conn.QueryRow(ctx, `
			SELECT id, public_id, customer, status, total_cost
			FROM orders WHERE public_id = $1`,
			publicID,
		).Scan(&o.ID, &o.PublicID, &o.Customer, &status, &o.TotalCost)
		if err != nil {
			return err
		}
		o.Status = models.OrderStatus(status)

		items, err := loadItems(ctx, conn, []int64{o.ID})
		if err != nil {
			return err
		}
		o.Items = itemsOrEmpty(items[o.ID])
		return nil
	})
	if err != nil {
		return models.Order{}, mapErr(err)
	}
	return o, nil
}

// UpdateOrderStatus changes only the status column.
func (s *Store) UpdateOrderStatus(ctx context.Context, publicID string, status models.OrderStatus) error {
	return s.withConn(ctx, func(conn *pgxpool.Conn) error {
		tag, err := conn.Exec(ctx, `UPDATE orders SET status = $1 WHERE public_id = $2`, string(status), publicID)
		if err != nil {
			return mapErr(err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *Store) listOrders(ctx context.Context, sql string, args ...any) ([]models.Order, error) {
	orders := []models.Order{}
	err := s.withConn(ctx, func(conn *pgxpool.Conn) error {
		rows, err := conn.Query(ctx, sql, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		var ids []int64
		for rows.Next() {
			var o models.Order
			var status string
			if err := rows.Scan(&o.ID, &o.PublicID, &o.Customer, &status, &o.TotalCost); err != nil {
				return err
			}
			o.Status = models.OrderStatus(status)
			orders = append(orders, o)
			ids = append(ids, o.ID)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		rows.Close()

		if len(ids) == 0 {
			return nil
		}
		items, err := loadItems(ctx, conn, ids)
		if err != nil {
			return err
		}
		for i := range orders {
			orders[i].Items = itemsOrEmpty(items[orders[i].ID])
		}
		return nil
	})
	if err != nil {
		return nil, mapErr(err)
	}
	return orders, nil
}

// loadItems returns the items of the given orders keyed by order id, in insertion order.
func loadItems(ctx context.Context, q querier, orderIDs []int64) (map[int64][]models.OrderItem, error) {
	rows, err := q.Query(ctx, `
		SELECT order_id, item, quantity, cost
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY id`,
		orderIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]models.OrderItem, len(orderIDs))
	for rows.Next() {
		var orderID int64
		var it models.OrderItem
		if err := rows.Scan(&orderID, &it.Item, &it.Quantity, &it.Cost); err != nil {
			return nil, err
		}
		out[orderID] = append(out[orderID], it)
	}
	return out, rows.Err()
}

func itemsOrEmpty(items []models.OrderItem) []models.OrderItem {
	if items == nil {
		return []models.OrderItem{}
	}
	return items
}
