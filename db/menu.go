package db

import (
	"context"

	"fast-food-fast/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

func (s *Store) ListMenu(ctx context.Context) ([]models.MenuItem, error) {
	items := []models.MenuItem{}
	err := s.withConn(ctx, func(conn *pgxpool.Conn) error {
		rows, err := conn.Query(ctx, `SELECT id, item, unit, rate FROM menu ORDER BY id`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var m models.MenuItem
			if err := rows.Scan(&m.ID, &m.Item, &m.Unit, &m.Rate); err != nil {
				return err
			}
			items = append(items, m)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, mapErr(err)
	}
	return items, nil
}

func (s *Store) MenuItem(ctx context.Context, id int64) (models.MenuItem, error) {
	m := models.MenuItem{ID: id}
	err := s.withConn(ctx, func(conn *pgxpool.Conn) error {
		return conn.QueryRow(ctx, `SELECT item, unit, rate FROM menu WHERE id = $1`, id).
			Scan(&m.Item, &m.Unit, &m.Rate)
	})
	if err != nil {
		return models.MenuItem{}, mapErr(err)
	}
	return m, nil
}

func (s *Store) MenuItemByName(ctx context.Context, name string) (models.MenuItem, error) {
	m := models.MenuItem{Item: name}
	err := s.withConn(ctx, func(conn *pgxpool.Conn) error {
		return conn.QueryRow(ctx, `SELECT id, unit, rate FROM menu WHERE item = $1`, name).
			Scan(&m.ID, &m.Unit, &m.Rate)
	})
	if err != nil {
		return models.MenuItem{}, mapErr(err)
	}
	return m, nil
}

func (s *Store) InsertMenuItem(ctx context.Context, m models.MenuItem) (models.MenuItem, error) {
	err := s.withConn(ctx, func(conn *pgxpool.Conn) error {
		return conn.QueryRow(ctx, `
			INSERT INTO menu (item, unit, rate) VALUES ($1, $2, $3)
			RETURNING id`,
			m.Item, m.Unit, m.Rate,
		).Scan(&m.ID)
	})
	if err != nil {
		return models.MenuItem{}, mapErr(err)
	}
	return m, nil
}

func (s *Store) UpdateMenuItem(ctx context.Context, m models.MenuItem) error {
	return s.withConn(ctx, func(conn *pgxpool.Conn) error {
		tag, err := conn.Exec(ctx, `
			UPDATE menu SET item = $1, unit = $2, rate = $3
			WHERE id = $4`,
			m.Item, m.Unit, m.Rate, m.ID,
		)
		if err != nil {
			return mapErr(err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *Store) DeleteMenuItem(ctx context.Context, id int64) error {
	return s.withConn(ctx, func(conn *pgxpool.Conn) error {
		tag, err := conn.Exec(ctx, `DELETE FROM menu WHERE id = $1`, id)
		if err != nil {
			return mapErr(err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}
