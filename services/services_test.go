package services

import (
	"errors"
	"testing"
	"time"

	"fast-food-fast/db/memdb"
	"fast-food-fast/logger"
	"fast-food-fast/validation"
)

const testSecret = "test-secret"

type testEnv struct {
	store  *memdb.Store
	users  *Users
	menu   *Menu
	orders *Orders
}

func newTestEnv(t *testing.T, notifier OrderNotifier) *testEnv {
	t.Helper()
	store := memdb.New()
	log := logger.Nop()
	users := NewUsers(store, NewTokens(testSecret, time.Hour), log)
	return &testEnv{
		store:  store,
		users:  users,
		menu:   NewMenu(store),
		orders: NewOrders(store, users, notifier, log),
	}
}

func isValidationError(err error) bool {
	var vErr *validation.Error
	return errors.As(err, &vErr)
}
