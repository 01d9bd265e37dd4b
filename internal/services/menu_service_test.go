package services

import (
	"errors"
	"testing"

	"restro_backend/internal/models"
)

func newMenuService(t *testing.T) (MenuService, *fakeMenuStore) {
	t.Helper()
	menu := newFakeMenuStore()
	return NewMenuService(menu, newTestDB(t), newFakeClock()), menu
}

func TestMenuItemAvailability(t *testing.T) {
	t.Run("Given an available item When marking out of stock Then it no longer sells", func(t *testing.T) {
		svc, _ := newMenuService(t)

		item, err := svc.CreateMenuItem(CreateMenuItemRequest{Name: "Chicken Momo", Price: 100})
		if err != nil {
			t.Fatalf("CreateMenuItem: %v", err)
		}
		if item.AvailabilityStatus != models.MenuItemAvailable {
			t.Fatalf("new item status = %q, want %q", item.AvailabilityStatus, models.MenuItemAvailable)
		}

		updated, err := svc.SetMenuItemAvailability(item.ID, models.MenuItemOutOfStock)
		if err != nil {
			t.Fatalf("SetMenuItemAvailability: %v", err)
		}
		if updated.AvailabilityStatus != models.MenuItemOutOfStock {
			t.Errorf("status = %q, want %q", updated.AvailabilityStatus, models.MenuItemOutOfStock)
		}
	})

	t.Run("Given a bogus availability value Then it is rejected", func(t *testing.T) {
		svc, _ := newMenuService(t)

		item, err := svc.CreateMenuItem(CreateMenuItemRequest{Name: "Masala Tea", Price: 50})
		if err != nil {
			t.Fatalf("CreateMenuItem: %v", err)
		}
		if _, err := svc.SetMenuItemAvailability(item.ID, "SoldOut"); !errors.Is(err, ErrInvalidAvailabilityStatus) {
			t.Fatalf("err = %v, want ErrInvalidAvailabilityStatus", err)
		}
	})

	t.Run("Given an unknown item Then not found is returned", func(t *testing.T) {
		svc, _ := newMenuService(t)

		if _, err := svc.SetMenuItemAvailability(999, models.MenuItemOutOfStock); !errors.Is(err, ErrMenuItemNotFound) {
			t.Fatalf("err = %v, want ErrMenuItemNotFound", err)
		}
	})
}

func TestCreateMenuItem(t *testing.T) {
	t.Run("Given an unknown category Then creation fails", func(t *testing.T) {
		svc, _ := newMenuService(t)

		categoryID := int64(404)
		_, err := svc.CreateMenuItem(CreateMenuItemRequest{Name: "Thukpa", Price: 120, CategoryID: &categoryID})
		if !errors.Is(err, ErrCategoryNotFound) {
			t.Fatalf("err = %v, want ErrCategoryNotFound", err)
		}
	})

	t.Run("Given a negative price Then validation fails", func(t *testing.T) {
		svc, _ := newMenuService(t)

		_, err := svc.CreateMenuItem(CreateMenuItemRequest{Name: "Thukpa", Price: -1})
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("err = %v, want ErrValidation", err)
		}
	})
}

func TestUpdateMenuItem(t *testing.T) {
	t.Run("Given price and name patches Then only those fields change", func(t *testing.T) {
		svc, _ := newMenuService(t)

		item, err := svc.CreateMenuItem(CreateMenuItemRequest{Name: "Chicken Momo", Price: 100})
		if err != nil {
			t.Fatalf("CreateMenuItem: %v", err)
		}

		newName := "Buff Momo"
		newPrice := 110.0
		updated, err := svc.UpdateMenuItem(item.ID, UpdateMenuItemRequest{Name: &newName, Price: &newPrice})
		if err != nil {
			t.Fatalf("UpdateMenuItem: %v", err)
		}
		if updated.Name != "Buff Momo" || updated.Price != 110.0 {
			t.Errorf("item = %q %.2f, want Buff Momo 110.00", updated.Name, updated.Price)
		}
		if updated.AvailabilityStatus != models.MenuItemAvailable {
			t.Errorf("availability changed unexpectedly to %q", updated.AvailabilityStatus)
		}
	})
}
