package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fast-food-fast/logger"
	"fast-food-fast/models"
	"fast-food-fast/validation"
)

// UserStore is the persistence the user operations need. *db.Store and
// *memdb.Store both satisfy it.
type UserStore interface {
	CreateUser(ctx context.Context, u models.User) (models.User, error)
	UserByName(ctx context.Context, username string) (models.User, error)
	SetAdmin(ctx context.Context, username string, admin bool) error
}

type Users struct {
	store    UserStore
	tokens   *Tokens
	throttle *LoginThrottle
	log      *logger.Logger
}

func NewUsers(store UserStore, tokens *Tokens, log *logger.Logger) *Users {
	return &Users{store: store, tokens: tokens, throttle: NewLoginThrottle(), log: log}
}

// Register validates a signup payload and stores the user with a bcrypt
// hash. New users are never admins.
func (u *Users) Register(ctx context.Context, body []byte) (models.User, error) {
	req, err := validation.ParseRegistration(body)
	if err != nil {
		return models.User{}, err
	}

	_, err = u.store.UserByName(ctx, req.Username)
	if err == nil {
		return models.User{}, fmt.Errorf("%w: username %s is taken", ErrConflict, req.Username)
	}
	if err := storeErr(err, "user"); !errors.Is(err, ErrNotFound) {
		return models.User{}, err
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return models.User{}, err
	}
	user, err := u.store.CreateUser(ctx, models.User{
		Username:     req.Username,
		PasswordHash: hash,
		Email:        req.Email,
		Telephone:    req.Telephone,
	})
	if err != nil {
		return models.User{}, storeErr(err, "username "+req.Username+" is taken")
	}
	return user, nil
}

// User returns the username and stored hash only.
func (u *Users) User(ctx context.Context, username string) (models.Credentials, error) {
	user, err := u.store.UserByName(ctx, username)
	if err != nil {
		return models.Credentials{}, storeErr(err, "user "+username)
	}
	return models.Credentials{Username: user.Username, PasswordHash: user.PasswordHash}, nil
}

func (u *Users) IsAdmin(ctx context.Context, username string) (bool, error) {
	user, err := u.store.UserByName(ctx, username)
	if err != nil {
		return false, storeErr(err, "user "+username)
	}
	return user.Admin, nil
}

// Login checks the credentials and returns a signed bearer token.
func (u *Users) Login(ctx context.Context, body []byte) (string, error) {
	req, err := validation.ParseLogin(body)
	if err != nil {
		return "", err
	}
	if wait := u.throttle.WaitSeconds(req.Username); wait > 0 {
		return "", fmt.Errorf("%w: try again in %d seconds", ErrTooManyAttempts, wait)
	}

	creds, err := u.User(ctx, req.Username)
	if err != nil {
		return "", err
	}
	ok, err := CheckPassword(creds.PasswordHash, req.Password)
	if err != nil {
		return "", err
	}
	if !ok {
		u.throttle.RecordFailed(creds.Username)
		u.log.Warn("login_failed", logger.RequestID(ctx), "wrong password", slog.String("username", creds.Username))
		return "", fmt.Errorf("%w: wrong password", ErrUnauthorized)
	}
	u.throttle.RecordSuccess(creds.Username)
	return u.tokens.Issue(creds.Username)
}

// Authenticate resolves a bearer token to a username that still exists.
func (u *Users) Authenticate(ctx context.Context, token string) (string, error) {
	username, err := u.tokens.Parse(token)
	if err != nil {
		return "", err
	}
	_, err = u.store.UserByName(ctx, username)
	err = storeErr(err, "user")
	if errors.Is(err, ErrNotFound) {
		return "", fmt.Errorf("%w: unknown user", ErrUnauthorized)
	}
	if err != nil {
		return "", err
	}
	return username, nil
}

// EnsureAdmin creates the configured admin account, or promotes it if a
// user with that name already exists. The password of an existing
// account is left alone.
func (u *Users) EnsureAdmin(ctx context.Context, username, password string) error {
	name, err := validation.NormalizeName(username)
	if err != nil {
		return fmt.Errorf("admin username: %w", err)
	}

	_, err = u.store.UserByName(ctx, name)
	switch err := storeErr(err, "user"); {
	case err == nil:
		if err := u.store.SetAdmin(ctx, name, true); err != nil {
			return storeErr(err, "user "+name)
		}
		u.log.Info("admin_promoted", "startup", "Existing user promoted to admin", slog.String("username", name))
		return nil
	case !errors.Is(err, ErrNotFound):
		return err
	}

	if !validation.IsValidPassword(password) {
		return &validation.Error{Reason: "admin password must be 6 to 12 characters with a lowercase letter, an uppercase letter and a digit"}
	}
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	if _, err := u.store.CreateUser(ctx, models.User{Username: name, PasswordHash: hash, Admin: true}); err != nil {
		return storeErr(err, "user "+name)
	}
	u.log.Info("admin_created", "startup", "Admin account created", slog.String("username", name))
	return nil
}
