package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"fast-food-fast/models"
	"fast-food-fast/validation"
)

type MenuStore interface {
	ListMenu(ctx context.Context) ([]models.MenuItem, error)
	MenuItem(ctx context.Context, id int64) (models.MenuItem, error)
	MenuItemByName(ctx context.Context, name string) (models.MenuItem, error)
	InsertMenuItem(ctx context.Context, m models.MenuItem) (models.MenuItem, error)
	UpdateMenuItem(ctx context.Context, m models.MenuItem) error
	DeleteMenuItem(ctx context.Context, id int64) error
}

type Menu struct {
	store MenuStore
}

func NewMenu(store MenuStore) *Menu {
	return &Menu{store: store}
}

// FoodMenu returns every menu row ordered by id; an empty menu is an
// empty slice.
func (m *Menu) FoodMenu(ctx context.Context) ([]models.MenuItem, error) {
	items, err := m.store.ListMenu(ctx)
	if err != nil {
		return nil, storeErr(err, "menu")
	}
	return items, nil
}

func (m *Menu) MenuItem(ctx context.Context, id int64) (models.MenuItem, error) {
	item, err := m.store.MenuItem(ctx, id)
	if err != nil {
		return models.MenuItem{}, storeErr(err, menuItemRef(id))
	}
	return item, nil
}

// AddMenuItem validates and inserts a new item. A second item with the
// same trimmed name is a conflict.
func (m *Menu) AddMenuItem(ctx context.Context, body []byte) (models.MenuItem, error) {
	req, err := validation.ParseMenuItem(body)
	if err != nil {
		return models.MenuItem{}, err
	}
	if err := m.ensureNameFree(ctx, req.Item, 0); err != nil {
		return models.MenuItem{}, err
	}

	item, err := m.store.InsertMenuItem(ctx, models.MenuItem{Item: req.Item, Unit: req.Unit, Rate: req.Rate})
	if err != nil {
		return models.MenuItem{}, storeErr(err, "menu item "+req.Item)
	}
	return item, nil
}

// UpdateMenuItem overwrites item, unit and rate of an existing row.
func (m *Menu) UpdateMenuItem(ctx context.Context, id int64, body []byte) (models.MenuItem, error) {
	req, err := validation.ParseMenuItem(body)
	if err != nil {
		return models.MenuItem{}, err
	}
	existing, err := m.MenuItem(ctx, id)
	if err != nil {
		return models.MenuItem{}, err
	}
	if err := m.ensureNameFree(ctx, req.Item, id); err != nil {
		return models.MenuItem{}, err
	}

	existing.Item = req.Item
	existing.Unit = req.Unit
	existing.Rate = req.Rate
	if err := m.store.UpdateMenuItem(ctx, existing); err != nil {
		return models.MenuItem{}, storeErr(err, menuItemRef(id))
	}
	return existing, nil
}

func (m *Menu) DeleteMenuItem(ctx context.Context, id int64) error {
	if err := m.store.DeleteMenuItem(ctx, id); err != nil {
		return storeErr(err, menuItemRef(id))
	}
	return nil
}

// ensureNameFree fails with ErrConflict when another row (not exceptID)
// already uses name.
func (m *Menu) ensureNameFree(ctx context.Context, name string, exceptID int64) error {
	found, err := m.store.MenuItemByName(ctx, name)
	if err == nil {
		if found.ID == exceptID {
			return nil
		}
		return fmt.Errorf("%w: menu item %s", ErrConflict, name)
	}
	if err := storeErr(err, "menu item"); !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

func menuItemRef(id int64) string {
	return "menu item " + strconv.FormatInt(id, 10)
}
