package db

import (
	"context"

	"fast-food-fast/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

func (s *Store) CreateUser(ctx context.Context, u models.User) (models.User, error) {
	err := s.withConn(ctx, func(conn *pgxpool.Conn) error {
		return conn.QueryRow(ctx, `
			INSERT INTO users (username, password_hash, email, telephone, admin)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`,
			u.Username, u.PasswordHash, u.Email, u.Telephone, u.Admin,
		).Scan(&u.ID)
	})
	if err != nil {
		return models.User{}, mapErr(err)
	}
	return u, nil
}

func (s *Store) UserByName(ctx context.Context, username string) (models.User, error) {
	var u models.User
	err := s.withConn(ctx, func(conn *pgxpool.Conn) error {
		return conn.QueryRow(ctx, `
			SELECT id, username, password_hash, email, telephone, admin
			FROM users WHERE username = $1`,
			username,
		).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Email, &u.Telephone, &u.Admin)
	})
	if err != nil {
		return models.User{}, mapErr(err)
	}
	return u, nil
}

// SetAdmin sets the admin flag. ErrNotFound if the user does not exist.
func (s *Store) SetAdmin(ctx context.Context, username string, admin bool) error {
	return s.withConn(ctx, func(conn *pgxpool.Conn) error {
		tag, err := conn.Exec(ctx, `UPDATE users SET admin = $1 WHERE username = $2`, admin, username)
		if err != nil {
			return mapErr(err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}
