// Package memdb is a map-backed stand-in for the PostgreSQL store.
// It enforces the same uniqueness rules and returns the same sentinel
// errors as package db, so services and handlers can be tested without
// a database.
package memdb

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"fast-food-fast/db"
	"fast-food-fast/models"
)

type Store struct {
	mu sync.Mutex

	nextUserID  int64
	nextMenuID  int64
	nextOrderID int64

	users  map[string]models.User
	menu   map[int64]models.MenuItem
	orders map[int64]models.Order

	// FailWith, when set, is returned by every call. Lets tests simulate
	// an unreachable database.
	FailWith error
}

func New() *Store {
	return &Store{
		users:  make(map[string]models.User),
		menu:   make(map[int64]models.MenuItem),
		orders: make(map[int64]models.Order),
	}
}

func (s *Store) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.FailWith
}

func (s *Store) CreateUser(ctx context.Context, u models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return models.User{}, s.FailWith
	}
	if _, ok := s.users[u.Username]; ok {
		return models.User{}, fmt.Errorf("%w: users_username_key", db.ErrDuplicate)
	}
	s.nextUserID++
	u.ID = s.nextUserID
	s.users[u.Username] = u
	return u, nil
}

func (s *Store) UserByName(ctx context.Context, username string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return models.User{}, s.FailWith
	}
	u, ok := s.users[username]
	if !ok {
		return models.User{}, db.ErrNotFound
	}
	return u, nil
}

func (s *Store) SetAdmin(ctx context.Context, username string, admin bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return s.FailWith
	}
	u, ok := s.users[username]
	if !ok {
		return db.ErrNotFound
	}
	u.Admin = admin
	s.users[username] = u
	return nil
}

func (s *Store) ListMenu(ctx context.Context) ([]models.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	items := make([]models.MenuItem, 0, len(s.menu))
	for _, m := range s.menu {
		items = append(items, m)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (s *Store) MenuItem(ctx context.Context, id int64) (models.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return models.MenuItem{}, s.FailWith
	}
	m, ok := s.menu[id]
	if !ok {
		return models.MenuItem{}, db.ErrNotFound
	}
	return m, nil
}

func (s *Store) MenuItemByName(ctx context.Context, name string) (models.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return models.MenuItem{}, s.FailWith
	}
	for _, m := range s.menu {
		if m.Item == name {
			return m, nil
		}
	}
	return models.MenuItem{}, db.ErrNotFound
}

func (s *Store) InsertMenuItem(ctx context.Context, m models.MenuItem) (models.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return models.MenuItem{}, s.FailWith
	}
	if s.menuNameTaken(m.Item, 0) {
		return models.MenuItem{}, fmt.Errorf("%w: menu_item_key", db.ErrDuplicate)
	}
	s.nextMenuID++
	m.ID = s.nextMenuID
	s.menu[m.ID] = m
	return m, nil
}

func (s *Store) UpdateMenuItem(ctx context.Context, m models.MenuItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return s.FailWith
	}
	if _, ok := s.menu[m.ID]; !ok {
		return db.ErrNotFound
	}
	if s.menuNameTaken(m.Item, m.ID) {
		return fmt.Errorf("%w: menu_item_key", db.ErrDuplicate)
	}
	s.menu[m.ID] = m
	return nil
}

func (s *Store) DeleteMenuItem(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return s.FailWith
	}
	if _, ok := s.menu[id]; !ok {
		return db.ErrNotFound
	}
	delete(s.menu, id)
	return nil
}

func (s *Store) menuNameTaken(name string, exceptID int64) bool {
	for id, m := range s.menu {
		if id != exceptID && m.Item == name {
			return true
		}
	}
	return false
}

func (s *Store) InsertOrder(ctx context.Context, o models.Order) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return models.Order{}, s.FailWith
	}
	for _, existing := range s.orders {
		if existing.PublicID == o.PublicID {
			return models.Order{}, fmt.Errorf("%w: orders_public_id_key", db.ErrDuplicate)
		}
	}
	s.nextOrderID++
	o.ID = s.nextOrderID
	o.Items = append([]models.OrderItem(nil), o.Items...)
	s.orders[o.ID] = o
	return copyOrder(o), nil
}

func (s *Store) OrdersByCustomer(ctx context.Context, customer string) ([]models.Order, error) {
	return s.filterOrders(func(o models.Order) bool { return o.Customer == customer })
}

func (s *Store) AllOrders(ctx context.Context) ([]models.Order, error) {
	return s.filterOrders(func(models.Order) bool { return true })
}

func (s *Store) OrderByPublicID(ctx context.Context, publicID string) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return models.Order{}, s.FailWith
	}
	for _, o := range s.orders {
		if o.PublicID == publicID {
			return copyOrder(o), nil
		}
	}
	return models.Order{}, db.ErrNotFound
}

func (s *Store) UpdateOrderStatus(ctx context.Context, publicID string, status models.OrderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return s.FailWith
	}
	for id, o := range s.orders {
		if o.PublicID == publicID {
			o.Status = status
			s.orders[id] = o
			return nil
		}
	}
	return db.ErrNotFound
}

func (s *Store) filterOrders(keep func(models.Order) bool) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	out := []models.Order{}
	for _, o := range s.orders {
		if keep(o) {
			out = append(out, copyOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func copyOrder(o models.Order) models.Order {
	o.Items = append([]models.OrderItem{}, o.Items...)
	return o
}
