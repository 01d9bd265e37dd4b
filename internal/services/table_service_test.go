package services

import (
	"errors"
	"testing"

	"restro_backend/internal/models"
)

type tableFixture struct {
	svc    TableService
	tables *fakeTableStore
	users  *fakeUserStore
}

func newTableFixture(t *testing.T) *tableFixture {
	t.Helper()
	tables := newFakeTableStore()
	users := newFakeUserStore()
	svc := NewTableService(tables, users, newTestDB(t), newFakeClock())
	return &tableFixture{svc: svc, tables: tables, users: users}
}

func TestCreateTable(t *testing.T) {
	t.Run("Given a valid request When creating a table Then it starts available", func(t *testing.T) {
		f := newTableFixture(t)

		table, err := f.svc.CreateTable(CreateTableRequest{TableNumber: 5, Capacity: 4})
		if err != nil {
			t.Fatalf("CreateTable: %v", err)
		}
		if table.Status != models.TableStatusAvailable {
			t.Errorf("status = %q, want %q", table.Status, models.TableStatusAvailable)
		}
		if table.TableNumber != 5 || table.Capacity != 4 {
			t.Errorf("table = number %d capacity %d, want 5/4", table.TableNumber, table.Capacity)
		}
		if table.CurrentOrderID != nil {
			t.Errorf("new table should have no current order")
		}
	})

	t.Run("Given an existing table number When creating a duplicate Then it is rejected", func(t *testing.T) {
		f := newTableFixture(t)

		if _, err := f.svc.CreateTable(CreateTableRequest{TableNumber: 5, Capacity: 4}); err != nil {
			t.Fatalf("first CreateTable: %v", err)
		}
		_, err := f.svc.CreateTable(CreateTableRequest{TableNumber: 5, Capacity: 2})
		if !errors.Is(err, ErrTableNumberInUse) {
			t.Fatalf("err = %v, want ErrTableNumberInUse", err)
		}
	})

	t.Run("Given a non-positive capacity When creating Then validation fails", func(t *testing.T) {
		f := newTableFixture(t)

		_, err := f.svc.CreateTable(CreateTableRequest{TableNumber: 5, Capacity: 0})
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("err = %v, want ErrValidation", err)
		}
	})
}

func TestDeleteTable(t *testing.T) {
	t.Run("Given a table with an active order When deleting Then it is refused", func(t *testing.T) {
		f := newTableFixture(t)

		table, err := f.svc.CreateTable(CreateTableRequest{TableNumber: 5, Capacity: 4})
		if err != nil {
			t.Fatalf("CreateTable: %v", err)
		}
		orderID := int64(42)
		f.tables.tables[table.ID].CurrentOrderID = &orderID
		f.tables.tables[table.ID].Status = models.TableStatusOccupied

		if err := f.svc.DeleteTable(table.ID); !errors.Is(err, ErrTableOccupied) {
			t.Fatalf("err = %v, want ErrTableOccupied", err)
		}
	})

	t.Run("Given a free table When deleting Then it is removed", func(t *testing.T) {
		f := newTableFixture(t)

		table, err := f.svc.CreateTable(CreateTableRequest{TableNumber: 5, Capacity: 4})
		if err != nil {
			t.Fatalf("CreateTable: %v", err)
		}
		if err := f.svc.DeleteTable(table.ID); err != nil {
			t.Fatalf("DeleteTable: %v", err)
		}
		if _, err := f.svc.GetTableByID(table.ID); !errors.Is(err, ErrTableNotFound) {
			t.Fatalf("err = %v, want ErrTableNotFound", err)
		}
	})
}

func TestAssignWaiter(t *testing.T) {
	t.Run("Given an existing waiter When assigning Then the table records them", func(t *testing.T) {
		f := newTableFixture(t)
		f.users.addWaiter(7, "nisha")

		table, err := f.svc.CreateTable(CreateTableRequest{TableNumber: 5, Capacity: 4})
		if err != nil {
			t.Fatalf("CreateTable: %v", err)
		}

		waiterID := int64(7)
		updated, err := f.svc.AssignWaiter(table.ID, &waiterID)
		if err != nil {
			t.Fatalf("AssignWaiter: %v", err)
		}
		if updated.AssignedWaiterID == nil || *updated.AssignedWaiterID != 7 {
			t.Errorf("assigned waiter = %v, want 7", updated.AssignedWaiterID)
		}
	})

	t.Run("Given an unknown waiter When assigning Then it fails", func(t *testing.T) {
		f := newTableFixture(t)

		table, err := f.svc.CreateTable(CreateTableRequest{TableNumber: 5, Capacity: 4})
		if err != nil {
			t.Fatalf("CreateTable: %v", err)
		}

		waiterID := int64(99)
		if _, err := f.svc.AssignWaiter(table.ID, &waiterID); !errors.Is(err, ErrUserNotFound) {
			t.Fatalf("err = %v, want ErrUserNotFound", err)
		}
	})

	t.Run("Given a nil waiter When assigning Then the assignment is removed", func(t *testing.T) {
		f := newTableFixture(t)
		f.users.addWaiter(7, "nisha")

		table, err := f.svc.CreateTable(CreateTableRequest{TableNumber: 5, Capacity: 4})
		if err != nil {
			t.Fatalf("CreateTable: %v", err)
		}
		waiterID := int64(7)
		if _, err := f.svc.AssignWaiter(table.ID, &waiterID); err != nil {
			t.Fatalf("AssignWaiter: %v", err)
		}

		updated, err := f.svc.AssignWaiter(table.ID, nil)
		if err != nil {
			t.Fatalf("AssignWaiter(nil): %v", err)
		}
		if updated.AssignedWaiterID != nil {
			t.Errorf("assigned waiter = %v, want nil", updated.AssignedWaiterID)
		}
	})
}

func TestClearTable(t *testing.T) {
	t.Run("Given a stuck occupied table When force clearing Then it becomes available", func(t *testing.T) {
		f := newTableFixture(t)

		table, err := f.svc.CreateTable(CreateTableRequest{TableNumber: 5, Capacity: 4})
		if err != nil {
			t.Fatalf("CreateTable: %v", err)
		}
		orderID := int64(42)
		f.tables.tables[table.ID].CurrentOrderID = &orderID
		f.tables.tables[table.ID].Status = models.TableStatusOccupied

		cleared, err := f.svc.ClearTable(table.ID)
		if err != nil {
			t.Fatalf("ClearTable: %v", err)
		}
		if cleared.Status != models.TableStatusAvailable {
			t.Errorf("status = %q, want %q", cleared.Status, models.TableStatusAvailable)
		}
		if cleared.CurrentOrderID != nil {
			t.Errorf("current order = %v, want nil", cleared.CurrentOrderID)
		}
	})
}

func TestGetOccupancy(t *testing.T) {
	t.Run("Given a mixed floor When reading occupancy Then counts match", func(t *testing.T) {
		f := newTableFixture(t)

		for n := 1; n <= 3; n++ {
			if _, err := f.svc.CreateTable(CreateTableRequest{TableNumber: n, Capacity: 4}); err != nil {
				t.Fatalf("CreateTable %d: %v", n, err)
			}
		}
		orderID := int64(42)
		f.tables.tables[1].Status = models.TableStatusOccupied
		f.tables.tables[1].CurrentOrderID = &orderID
		f.tables.tables[2].Status = models.TableStatusReserved

		occ, err := f.svc.GetOccupancy()
		if err != nil {
			t.Fatalf("GetOccupancy: %v", err)
		}
		if occ.Total != 3 || occ.Occupied != 1 || occ.Reserved != 1 || occ.Available != 1 {
			t.Errorf("occupancy = %+v, want total 3, occupied 1, reserved 1, available 1", occ)
		}
	})
}

func TestGetTables(t *testing.T) {
	t.Run("Given a bogus status filter When listing Then it is rejected", func(t *testing.T) {
		f := newTableFixture(t)

		status := "Busy"
		if _, err := f.svc.GetTables(&status); !errors.Is(err, ErrInvalidTableStatus) {
			t.Fatalf("err = %v, want ErrInvalidTableStatus", err)
		}
	})

	t.Run("Given a valid status filter When listing Then only matches return", func(t *testing.T) {
		f := newTableFixture(t)

		for n := 1; n <= 2; n++ {
			if _, err := f.svc.CreateTable(CreateTableRequest{TableNumber: n, Capacity: 4}); err != nil {
				t.Fatalf("CreateTable %d: %v", n, err)
			}
		}
		f.tables.tables[2].Status = models.TableStatusOccupied

		status := models.TableStatusOccupied
		tables, err := f.svc.GetTables(&status)
		if err != nil {
			t.Fatalf("GetTables: %v", err)
		}
		if len(tables) != 1 || tables[0].ID != 2 {
			t.Errorf("tables = %+v, want only table 2", tables)
		}
	})
}
