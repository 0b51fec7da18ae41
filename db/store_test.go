package db

import (
	"context"
	"errors"
	"os"
	"testing"
	"testing/fstest"

	"fast-food-fast/config"
	"fast-food-fast/logger"
	"fast-food-fast/models"
)

// openTestStore connects to TEST_DATABASE_URL and applies the schema.
// Tests are skipped when it is not set.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("skipping db integration test: TEST_DATABASE_URL not set")
	}
	if testing.Short() {
		t.Skip("skipping db integration test in short mode")
	}
	ctx := context.Background()
	store, err := Open(ctx, config.DBConfig{URL: url}, logger.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(store.Close)

	schema, err := os.ReadFile("../migrations/001_init.sql")
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Migrate(ctx, fstest.MapFS{"001_init.sql": {Data: schema}}, logger.Nop()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if _, err := store.Pool().Exec(ctx, `TRUNCATE users, menu, orders, order_items RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return store
}

func TestStore_Users(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	u, err := store.CreateUser(ctx, models.User{Username: "Loki", PasswordHash: "hash", Email: "loki@asgard.io", Telephone: "+1-2-345"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.ID == 0 {
		t.Error("expected generated id")
	}
	if _, err := store.CreateUser(ctx, models.User{Username: "Loki", PasswordHash: "x"}); !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate user: err = %v, want ErrDuplicate", err)
	}
	if err := store.SetAdmin(ctx, "Loki", true); err != nil {
		t.Fatal(err)
	}
	got, err := store.UserByName(ctx, "Loki")
	if err != nil || !got.Admin || got.PasswordHash != "hash" {
		t.Errorf("UserByName = %+v, %v", got, err)
	}
	if _, err := store.UserByName(ctx, "Nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing user: err = %v, want ErrNotFound", err)
	}
	if err := store.SetAdmin(ctx, "Nobody", true); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetAdmin missing: err = %v, want ErrNotFound", err)
	}
}

func TestStore_Menu(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	empty, err := store.ListMenu(ctx)
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("ListMenu on empty table = %#v, %v", empty, err)
	}

	m, err := store.InsertMenuItem(ctx, models.MenuItem{Item: "Chicken", Unit: "piece", Rate: 5000})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.InsertMenuItem(ctx, models.MenuItem{Item: "Chicken", Unit: "plate", Rate: 1}); !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate item: err = %v, want ErrDuplicate", err)
	}
	m.Rate = 6000
	if err := store.UpdateMenuItem(ctx, m); err != nil {
		t.Fatal(err)
	}
	byName, err := store.MenuItemByName(ctx, "Chicken")
	if err != nil || byName != m {
		t.Errorf("MenuItemByName = %+v, %v; want %+v", byName, err, m)
	}
	if err := store.DeleteMenuItem(ctx, m.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := store.MenuItem(ctx, m.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted item: err = %v, want ErrNotFound", err)
	}
	if err := store.DeleteMenuItem(ctx, m.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: err = %v, want ErrNotFound", err)
	}
}

func TestStore_Orders(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	in := models.Order{
		PublicID:  "3f9a1c2b7d4e",
		Customer:  "Loki",
		Status:    models.OrderStatusNew,
		TotalCost: 25000,
		Items: []models.OrderItem{
			{Item: "pizza", Quantity: 1, Cost: 20000},
			{Item: "soda", Quantity: 2, Cost: 5000},
		},
	}
	saved, err := store.InsertOrder(ctx, in)
	if err != nil {
		t.Fatalf("InsertOrder: %v", err)
	}
	if _, err := store.InsertOrder(ctx, in); !errors.Is(err, ErrDuplicate) {
		t.Errorf("reused public id: err = %v, want ErrDuplicate", err)
	}

	got, err := store.OrderByPublicID(ctx, in.PublicID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != saved.ID || len(got.Items) != 2 || got.Items[1].Item != "soda" || got.TotalCost != 25000 {
		t.Errorf("OrderByPublicID = %+v", got)
	}

	if err := store.UpdateOrderStatus(ctx, in.PublicID, models.OrderStatusComplete); err != nil {
		t.Fatal(err)
	}
	if err := store.UpdateOrderStatus(ctx, "missing", models.OrderStatusComplete); !errors.Is(err, ErrNotFound) {
		t.Errorf("update missing: err = %v, want ErrNotFound", err)
	}

	history, err := store.OrdersByCustomer(ctx, "Loki")
	if err != nil || len(history) != 1 || history[0].Status != models.OrderStatusComplete {
		t.Errorf("OrdersByCustomer = %+v, %v", history, err)
	}
	none, err := store.OrdersByCustomer(ctx, "Thor")
	if err != nil || none == nil || len(none) != 0 {
		t.Errorf("OrdersByCustomer(Thor) = %#v, %v", none, err)
	}
	all, err := store.AllOrders(ctx)
	if err != nil || len(all) != 1 || len(all[0].Items) != 2 {
		t.Errorf("AllOrders = %+v, %v", all, err)
	}
}
