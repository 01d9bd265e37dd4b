package services

import (
	"errors"
	"strings"
	"testing"
	"time"

	"restro_backend/internal/events"
	"restro_backend/internal/models"
)

func TestCreateOrder(t *testing.T) {
	t.Run("Given a valid request When the order is placed Then totals and state are set server-side", func(t *testing.T) {
		f := newOrderFixture(t, DefaultOrderConfig())

		order := f.placeOrder(t, "Anita", 30)

		if order.TotalAmount != 250 {
			t.Errorf("total: got %.2f, want 250", order.TotalAmount)
		}
		if order.FinalAmount != 220 {
			t.Errorf("final: got %.2f, want 220", order.FinalAmount)
		}
		if order.Status != models.OrderStatusPending {
			t.Errorf("status: got %s, want %s", order.Status, models.OrderStatusPending)
		}
		if len(order.Items) != 2 {
			t.Fatalf("items: got %d, want 2", len(order.Items))
		}
		for _, item := range order.Items {
			if item.Status != models.ItemStatusPending {
				t.Errorf("item %q status: got %s, want %s", item.Name, item.Status, models.ItemStatusPending)
			}
			if item.Subtotal != item.Price*float64(item.Quantity) {
				t.Errorf("item %q subtotal %.2f does not match price*qty", item.Name, item.Subtotal)
			}
		}

		table, _ := f.tables.GetTableByID(testTableID)
		if table.Status != models.TableStatusOccupied {
			t.Errorf("table status: got %s, want %s", table.Status, models.TableStatusOccupied)
		}
		if table.CurrentOrderID == nil || *table.CurrentOrderID != order.ID {
			t.Errorf("table current order: got %v, want %d", table.CurrentOrderID, order.ID)
		}

		if active := f.sched.Active(); len(active) != 1 || active[0] != order.ID {
			t.Errorf("expected one armed timer for order %d, got %v", order.ID, active)
		}
		if !f.pub.has(events.OrderNew) {
			t.Errorf("expected %s event, got %v", events.OrderNew, f.pub.names())
		}
	})

	t.Run("Given an excessive discount When the order is placed Then the final amount clamps at zero", func(t *testing.T) {
		f := newOrderFixture(t, DefaultOrderConfig())

		order := f.placeOrder(t, "Anita", 500)
		if order.FinalAmount != 0 {
			t.Errorf("final: got %.2f, want 0", order.FinalAmount)
		}
	})

	t.Run("Given a recent active order When the same customer resubmits Then the duplicate is rejected", func(t *testing.T) {
		f := newOrderFixture(t, DefaultOrderConfig())

		f.placeOrder(t, "Anita", 0)
		f.clock.advance(4 * time.Minute)

		_, err := f.svc.CreateOrder(CreateOrderRequest{
			TableID:      testTableID,
			CustomerName: "Anita",
			Items:        []CreateOrderItemRequest{{MenuItemID: testMenuSideID, Quantity: 1}},
		})
		if !errors.Is(err, ErrDuplicateOrder) {
			t.Fatalf("expected ErrDuplicateOrder, got %v", err)
		}
	})

	t.Run("Given the duplicate window has passed When the same customer orders again Then it succeeds", func(t *testing.T) {
		f := newOrderFixture(t, DefaultOrderConfig())

		first := f.placeOrder(t, "Anita", 0)
		// Resolve the first order so FindRecentActiveOrder ignores it either way.
		if _, err := f.svc.CancelOrder(first.ID, "changed mind"); err != nil {
			t.Fatalf("cancelling first order: %v", err)
		}
		f.clock.advance(6 * time.Minute)

		if _, err := f.svc.CreateOrder(CreateOrderRequest{
			TableID:      testTableID,
			CustomerName: "Anita",
			Items:        []CreateOrderItemRequest{{MenuItemID: testMenuSideID, Quantity: 1}},
		}); err != nil {
			t.Fatalf("expected second order to succeed, got %v", err)
		}
	})

	t.Run("Given a full kitchen When an order is placed Then intake is paused with the load attached", func(t *testing.T) {
		cfg := DefaultOrderConfig()
		cfg.MaxKitchenOrders = 2
		f := newOrderFixture(t, cfg)

		f.placeOrder(t, "Anita", 0)
		f.placeOrder(t, "Bikash", 0)

		_, err := f.svc.CreateOrder(CreateOrderRequest{
			TableID:      testTableID,
			CustomerName: "Chandra",
			Items:        []CreateOrderItemRequest{{MenuItemID: testMenuSideID, Quantity: 1}},
		})
		var capErr *KitchenCapacityError
		if !errors.As(err, &capErr) {
			t.Fatalf("expected KitchenCapacityError, got %v", err)
		}
		if capErr.ActiveOrders != 2 || capErr.MaxCapacity != 2 {
			t.Errorf("capacity error: got %d/%d, want 2/2", capErr.ActiveOrders, capErr.MaxCapacity)
		}
	})

	t.Run("Given bad items When the order is placed Then every problem is reported", func(t *testing.T) {
		f := newOrderFixture(t, DefaultOrderConfig())

		_, err := f.svc.CreateOrder(CreateOrderRequest{
			TableID:      testTableID,
			CustomerName: "Anita",
			Items: []CreateOrderItemRequest{
				{MenuItemID: 999, Quantity: 1},
				{MenuItemID: testMenuMainID, Quantity: 0},
			},
		})
		var itemErr *ItemValidationError
		if !errors.As(err, &itemErr) {
			t.Fatalf("expected ItemValidationError, got %v", err)
		}
		if len(itemErr.Problems) != 2 {
			t.Errorf("expected 2 problems, got %v", itemErr.Problems)
		}
	})

	t.Run("Given an unknown table When the order is placed Then it is rejected", func(t *testing.T) {
		f := newOrderFixture(t, DefaultOrderConfig())

		_, err := f.svc.CreateOrder(CreateOrderRequest{
			TableID:      99,
			CustomerName: "Anita",
			Items:        []CreateOrderItemRequest{{MenuItemID: testMenuSideID, Quantity: 1}},
		})
		if !errors.Is(err, ErrTableNotFound) {
			t.Fatalf("expected ErrTableNotFound, got %v", err)
		}
	})
}

func TestWaiterAssignment(t *testing.T) {
	t.Run("Given a table with a standing waiter When an order is placed Then that waiter is assigned", func(t *testing.T) {
		f := newOrderFixture(t, DefaultOrderConfig())
		waiterID := int64(7)
		f.users.addWaiter(waiterID, "ram")
		f.tables.tables[testTableID].AssignedWaiterID = &waiterID

		order := f.placeOrder(t, "Anita", 0)
		if order.AssignedWaiterID == nil || *order.AssignedWaiterID != waiterID {
			t.Errorf("assigned waiter: got %v, want %d", order.AssignedWaiterID, waiterID)
		}
	})

	t.Run("Given no standing waiter When an order is placed Then the least-loaded waiter is assigned", func(t *testing.T) {
		f := newOrderFixture(t, DefaultOrderConfig())
		f.users.addWaiter(7, "ram")
		f.users.addWaiter(8, "sita")

		busy := int64(7)
		f.orders.orders[900] = &models.Order{
			ID:               900,
			TableID:          testTableID,
			CustomerName:     "earlier guest",
			Status:           models.OrderStatusInKitchen,
			AssignedWaiterID: &busy,
		}

		order := f.placeOrder(t, "Anita", 0)
		if order.AssignedWaiterID == nil || *order.AssignedWaiterID != 8 {
			t.Errorf("assigned waiter: got %v, want 8", order.AssignedWaiterID)
		}
	})

	t.Run("Given no eligible waiters When an order is placed Then it stays unassigned", func(t *testing.T) {
		f := newOrderFixture(t, DefaultOrderConfig())

		order := f.placeOrder(t, "Anita", 0)
		if order.AssignedWaiterID != nil {
			t.Errorf("expected unassigned order, got waiter %d", *order.AssignedWaiterID)
		}
	})
}

func TestUpdateOrderStatus(t *testing.T) {
	t.Run("Given known staff references When the order moves through the kitchen Then both are recorded", func(t *testing.T) {
		f := newOrderFixture(t, DefaultOrderConfig())
		f.users.addWaiter(7, "nisha")
		f.users.addWaiter(8, "kiran")
		order := f.placeOrder(t, "Anita", 0)

		cook := int64(7)
		updated, err := f.svc.UpdateOrderStatus(order.ID, UpdateOrderStatusRequest{Status: models.OrderStatusInKitchen, CookedBy: &cook})
		if err != nil {
			t.Fatalf("moving to kitchen: %v", err)
		}
		if updated.CookedByID == nil || *updated.CookedByID != cook {
			t.Errorf("cooked_by: got %v, want %d", updated.CookedByID, cook)
		}

		server := int64(8)
		updated, err = f.svc.UpdateOrderStatus(order.ID, UpdateOrderStatusRequest{Status: models.OrderStatusServed, ServedBy: &server})
		if err != nil {
			t.Fatalf("serving: %v", err)
		}
		if updated.ServedByID == nil || *updated.ServedByID != server {
			t.Errorf("served_by: got %v, want %d", updated.ServedByID, server)
		}
	})

	t.Run("Given an unknown cook ID When the status is updated Then it is rejected", func(t *testing.T) {
		f := newOrderFixture(t, DefaultOrderConfig())
		order := f.placeOrder(t, "Anita", 0)

		cook := int64(999)
		_, err := f.svc.UpdateOrderStatus(order.ID, UpdateOrderStatusRequest{Status: models.OrderStatusInKitchen, CookedBy: &cook})
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}
	})

	t.Run("Given an unknown server ID When the status is updated Then it is rejected", func(t *testing.T) {
		f := newOrderFixture(t, DefaultOrderConfig())
		order := f.placeOrder(t, "Anita", 0)

		server := int64(999)
		_, err := f.svc.UpdateOrderStatus(order.ID, UpdateOrderStatusRequest{Status: models.OrderStatusServed, ServedBy: &server})
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}
	})
}

func TestUpdateOrderItemStatus(t *testing.T) {
	t.Run("Given a pending order When the kitchen starts an item Then the order moves to InKitchen", func(t *testing.T) {
		f := newOrderFixture(t, DefaultOrderConfig())
		order := f.placeOrder(t, "Anita", 0)

		updated, err := f.svc.UpdateOrderItemStatus(order.ID, order.Items[0].ID, UpdateItemStatusRequest{Status: models.ItemStatusCooking})
		if err != nil {
			t.Fatalf("updating item status: %v", err)
		}
		if updated.Status != models.OrderStatusInKitchen {
			t.Errorf("order status: got %s, want %s", updated.Status, models.OrderStatusInKitchen)
		}
	})

	t.Run("Given one of two items served When nothing is cooking Then the order stays Pending", func(t *testing.T) {
		f := newOrderFixture(t, DefaultOrderConfig())
		order := f.placeOrder(t, "Anita", 0)

		updated, err := f.svc.UpdateOrderItemStatus(order.ID, order.Items[0].ID, UpdateItemStatusRequest{Status: models.ItemStatusServed})
		if err != nil {
			t.Fatalf("serving item: %v", err)
		}
		if updated.Status != models.OrderStatusPending {
			t.Errorf("order status: got %s, want %s", updated.Status, models.OrderStatusPending)
		}
	})

	t.Run("Given all items served When the last item is updated Then the order becomes Served", func(t *testing.T) {
		f := newOrderFixture(t, DefaultOrderConfig())
		order := f.placeOrder(t, "Anita", 0)

		var updated *models.Order
		var err error
		for _, item := range order.Items {
			updated, err = f.svc.UpdateOrderItemStatus(order.ID, item.ID, UpdateItemStatusRequest{Status: models.ItemStatusServed})
			if err != nil {
				t.Fatalf("serving item %d: %v", item.ID, err)
			}
		}
		if updated.Status != models.OrderStatusServed {
			t.Errorf("order status: got %s, want %s", updated.Status, models.OrderStatusServed)
		}
	})

	t.Run("Given a cancelled order When an item is updated Then the order is locked", func(t *testing.T) {
		f := newOrderFixture(t, DefaultOrderConfig())
		order := f.placeOrder(t, "Anita", 0)
		if _, err := f.svc.CancelOrder(order.ID, "guest left"); err != nil {
			t.Fatalf("cancelling: %v", err)
		}

		_, err := f.svc.UpdateOrderItemStatus(order.ID, order.Items[0].ID, UpdateItemStatusRequest{Status: models.ItemStatusCooking})
		if !errors.Is(err, ErrOrderLocked) {
			t.Fatalf("expected ErrOrderLocked, got %v", err)
		}
	})

	t.Run("Given a bogus status value When an item is updated Then it is rejected", func(t *testing.T) {
		f := newOrderFixture(t, DefaultOrderConfig())
		order := f.placeOrder(t, "Anita", 0)

		_, err := f.svc.UpdateOrderItemStatus(order.ID, order.Items[0].ID, UpdateItemStatusRequest{Status: "Flambeed"})
		if !errors.Is(err, ErrInvalidItemStatus) {
			t.Fatalf("expected ErrInvalidItemStatus, got %v", err)
		}
	})
}

func TestAddItemsToOrder(t *testing.T) {
	t.Run("Given an open order When items are added Then totals are recomputed with the original discount", func(t *testing.T) {
		f := newOrderFixture(t, DefaultOrderConfig())
		order := f.placeOrder(t, "Anita", 30) // total 250, final 220

		updated, err := f.svc.AddItemsToOrder(order.ID, []CreateOrderItemRequest{
			{MenuItemID: testMenuSideID, Quantity: 2},
		})
		if err != nil {
			t.Fatalf("adding items: %v", err)
		}
		if updated.TotalAmount != 350 {
			t.Errorf("total: got %.2f, want 350", updated.TotalAmount)
		}
		if updated.FinalAmount != 320 {
			t.Errorf("final: got %.2f, want 320", updated.FinalAmount)
		}
		if len(updated.Items) != 3 {
			t.Errorf("items: got %d, want 3", len(updated.Items))
		}
	})

	t.Run("Given a paid order When items are added Then the order is locked", func(t *testing.T) {
		f := newOrderFixture(t, DefaultOrderConfig())
		order := f.placeOrder(t, "Anita", 0)
		if _, err := f.svc.MarkOrderPaid(order.ID); err != nil {
			t.Fatalf("settling: %v", err)
		}

		_, err := f.svc.AddItemsToOrder(order.ID, []CreateOrderItemRequest{{MenuItemID: testMenuSideID, Quantity: 1}})
		if !errors.Is(err, ErrOrderLocked) {
			t.Fatalf("expected ErrOrderLocked, got %v", err)
		}
	})
}

func TestCancelOrder(t *testing.T) {
	t.Run("Given an open order When staff cancel it Then the note, table and timer are all handled", func(t *testing.T) {
		f := newOrderFixture(t, DefaultOrderConfig())
		order := f.placeOrder(t, "Anita", 0)

		cancelled, err := f.svc.CancelOrder(order.ID, "guest left")
		if err != nil {
			t.Fatalf("cancelling: %v", err)
		}
		if cancelled.Status != models.OrderStatusCancelled {
			t.Errorf("status: got %s, want %s", cancelled.Status, models.OrderStatusCancelled)
		}
		if !strings.Contains(cancelled.Note, "Cancelled: guest left") {
			t.Errorf("note: got %q", cancelled.Note)
		}
		table, _ := f.tables.GetTableByID(testTableID)
		if table.CurrentOrderID != nil {
			t.Errorf("table should be free, still holds order %d", *table.CurrentOrderID)
		}
		if len(f.sched.Active()) != 0 {
			t.Errorf("timer should be disarmed, active=%v", f.sched.Active())
		}
		if !f.pub.has(events.OrderCancelled) {
			t.Errorf("expected %s event, got %v", events.OrderCancelled, f.pub.names())
		}
	})

	t.Run("Given no reason When staff cancel Then the staff marker is recorded", func(t *testing.T) {
		f := newOrderFixture(t, DefaultOrderConfig())
		order := f.placeOrder(t, "Anita", 0)

		cancelled, err := f.svc.CancelOrder(order.ID, "")
		if err != nil {
			t.Fatalf("cancelling: %v", err)
		}
		if !strings.Contains(cancelled.Note, "[CANCELLED BY STAFF]") {
			t.Errorf("note: got %q", cancelled.Note)
		}
	})

	t.Run("Given a paid order When staff cancel Then it is refused", func(t *testing.T) {
		f := newOrderFixture(t, DefaultOrderConfig())
		order := f.placeOrder(t, "Anita", 0)
		if _, err := f.svc.MarkOrderPaid(order.ID); err != nil {
			t.Fatalf("settling: %v", err)
		}

		_, err := f.svc.CancelOrder(order.ID, "too late")
		if !errors.Is(err, ErrOrderNotCancellable) {
			t.Fatalf("expected ErrOrderNotCancellable, got %v", err)
		}
	})

	t.Run("Given a served order When staff cancel Then it is refused", func(t *testing.T) {
		f := newOrderFixture(t, DefaultOrderConfig())
		order := f.placeOrder(t, "Anita", 0)
		if _, err := f.svc.UpdateOrderStatus(order.ID, UpdateOrderStatusRequest{Status: models.OrderStatusServed}); err != nil {
			t.Fatalf("serving: %v", err)
		}

		_, err := f.svc.CancelOrder(order.ID, "too late")
		if !errors.Is(err, ErrOrderNotCancellable) {
			t.Fatalf("expected ErrOrderNotCancellable, got %v", err)
		}
	})

	t.Run("Given the table was reassigned When an older order is cancelled Then the newer occupancy survives", func(t *testing.T) {
		f := newOrderFixture(t, DefaultOrderConfig())
		order := f.placeOrder(t, "Anita", 0)

		newer := int64(777)
		f.tables.tables[testTableID].CurrentOrderID = &newer

		if _, err := f.svc.CancelOrder(order.ID, "guest left"); err != nil {
			t.Fatalf("cancelling: %v", err)
		}
		table, _ := f.tables.GetTableByID(testTableID)
		if table.CurrentOrderID == nil || *table.CurrentOrderID != newer {
			t.Errorf("newer occupancy was clobbered: %v", table.CurrentOrderID)
		}
	})
}

func TestOrderTimeout(t *testing.T) {
	t.Run("Given an untouched order When the deadline passes Then it is auto-cancelled and the table freed", func(t *testing.T) {
		f := newOrderFixture(t, DefaultOrderConfig())
		order := f.placeOrder(t, "Anita", 0)

		f.clock.advance(31 * time.Minute)

		timedOut, err := f.svc.GetOrderByID(order.ID)
		if err != nil {
			t.Fatalf("fetching order: %v", err)
		}
		if timedOut.Status != models.OrderStatusCancelled {
			t.Errorf("status: got %s, want %s", timedOut.Status, models.OrderStatusCancelled)
		}
		if !timedOut.IsTimedOut {
			t.Error("expected is_timed_out flag")
		}
		if !strings.Contains(timedOut.Note, autoCancelNote) {
			t.Errorf("note: got %q", timedOut.Note)
		}
		table, _ := f.tables.GetTableByID(testTableID)
		if table.Status != models.TableStatusAvailable {
			t.Errorf("table status: got %s, want %s", table.Status, models.TableStatusAvailable)
		}
	})

	t.Run("Given the order was served first When the timer fires late Then nothing changes", func(t *testing.T) {
		f := newOrderFixture(t, DefaultOrderConfig())
		order := f.placeOrder(t, "Anita", 0)

		// Staff resolve the order but, as in a race, the timer was never
		// disarmed and still fires.
		if _, err := f.svc.UpdateOrderStatus(order.ID, UpdateOrderStatusRequest{Status: models.OrderStatusServed}); err != nil {
			t.Fatalf("serving: %v", err)
		}
		f.clock.advance(31 * time.Minute)

		served, err := f.svc.GetOrderByID(order.ID)
		if err != nil {
			t.Fatalf("fetching order: %v", err)
		}
		if served.Status != models.OrderStatusServed {
			t.Errorf("status: got %s, want %s", served.Status, models.OrderStatusServed)
		}
		if served.IsTimedOut {
			t.Error("resolved order must not be flagged timed out")
		}
	})

	t.Run("Given a paid order When it was settled Then the timer is always disarmed", func(t *testing.T) {
		f := newOrderFixture(t, DefaultOrderConfig())
		order := f.placeOrder(t, "Anita", 0)

		if _, err := f.svc.MarkOrderPaid(order.ID); err != nil {
			t.Fatalf("settling: %v", err)
		}
		if len(f.sched.Active()) != 0 {
			t.Fatalf("timer still armed after settlement: %v", f.sched.Active())
		}
		table, _ := f.tables.GetTableByID(testTableID)
		if table.Status != models.TableStatusAvailable {
			t.Errorf("table status: got %s, want %s", table.Status, models.TableStatusAvailable)
		}
	})
}

func TestRestoreOrderTimeouts(t *testing.T) {
	t.Run("Given persisted deadlines When the service restarts Then past deadlines fire and future ones re-arm", func(t *testing.T) {
		f := newOrderFixture(t, DefaultOrderConfig())
		now := f.clock.Now()

		// Simulates rows left behind by a previous process: one order is 10
		// minutes past its deadline, the other has 20 minutes left.
		f.orders.orders[1] = &models.Order{
			ID: 1, TableID: testTableID, CustomerName: "expired guest",
			Status: models.OrderStatusPending, OrderTimeout: now.Add(-10 * time.Minute),
			CreatedAt: now.Add(-40 * time.Minute),
		}
		f.orders.orders[2] = &models.Order{
			ID: 2, TableID: testTableID, CustomerName: "recent guest",
			Status: models.OrderStatusInKitchen, OrderTimeout: now.Add(20 * time.Minute),
			CreatedAt: now.Add(-10 * time.Minute),
		}
		f.orders.nextOrderID = 10

		if err := f.svc.RestoreOrderTimeouts(); err != nil {
			t.Fatalf("restoring: %v", err)
		}

		expired, _ := f.svc.GetOrderByID(1)
		if expired.Status != models.OrderStatusCancelled || !expired.IsTimedOut {
			t.Errorf("expired order: status=%s timedOut=%v", expired.Status, expired.IsTimedOut)
		}

		recent, _ := f.svc.GetOrderByID(2)
		if recent.Status != models.OrderStatusInKitchen {
			t.Errorf("recent order should be untouched, got %s", recent.Status)
		}
		if active := f.sched.Active(); len(active) != 1 || active[0] != 2 {
			t.Errorf("expected a re-armed timer for order 2, got %v", active)
		}

		// The re-armed timer honors the remaining time, not a fresh window.
		f.clock.advance(21 * time.Minute)
		recent, _ = f.svc.GetOrderByID(2)
		if recent.Status != models.OrderStatusCancelled || !recent.IsTimedOut {
			t.Errorf("re-armed timer did not fire: status=%s timedOut=%v", recent.Status, recent.IsTimedOut)
		}
	})
}

func TestCompleteOrder(t *testing.T) {
	t.Run("Given a paid order When completed Then the lifecycle closes", func(t *testing.T) {
		f := newOrderFixture(t, DefaultOrderConfig())
		order := f.placeOrder(t, "Anita", 0)
		if _, err := f.svc.MarkOrderPaid(order.ID); err != nil {
			t.Fatalf("settling: %v", err)
		}

		completed, err := f.svc.CompleteOrder(order.ID)
		if err != nil {
			t.Fatalf("completing: %v", err)
		}
		if completed.Status != models.OrderStatusCompleted {
			t.Errorf("status: got %s, want %s", completed.Status, models.OrderStatusCompleted)
		}
	})

	t.Run("Given a paid order with a leftover timer and table When completed Then both are released", func(t *testing.T) {
		f := newOrderFixture(t, DefaultOrderConfig())
		order := f.placeOrder(t, "Anita", 0)
		// Settle outside MarkOrderPaid so the timer and table stay held.
		f.orders.orders[order.ID].Status = models.OrderStatusPaid

		if _, err := f.svc.CompleteOrder(order.ID); err != nil {
			t.Fatalf("completing: %v", err)
		}

		if active := f.sched.Active(); len(active) != 0 {
			t.Errorf("expected no armed timers, got %v", active)
		}
		table, _ := f.tables.GetTableByID(testTableID)
		if table.Status != models.TableStatusAvailable {
			t.Errorf("table status: got %s, want %s", table.Status, models.TableStatusAvailable)
		}
		if table.CurrentOrderID != nil {
			t.Errorf("table current order: got %v, want nil", *table.CurrentOrderID)
		}
	})

	t.Run("Given an unpaid order When completed Then it is refused", func(t *testing.T) {
		f := newOrderFixture(t, DefaultOrderConfig())
		order := f.placeOrder(t, "Anita", 0)

		_, err := f.svc.CompleteOrder(order.ID)
		if !errors.Is(err, ErrOrderNotCompletable) {
			t.Fatalf("expected ErrOrderNotCompletable, got %v", err)
		}
	})
}

func TestGetKitchenOrders(t *testing.T) {
	t.Run("Given active orders When the queue is fetched Then items are grouped by progress", func(t *testing.T) {
		f := newOrderFixture(t, DefaultOrderConfig())
		order := f.placeOrder(t, "Anita", 0)

		if _, err := f.svc.UpdateOrderItemStatus(order.ID, order.Items[0].ID, UpdateItemStatusRequest{Status: models.ItemStatusCooking}); err != nil {
			t.Fatalf("updating item: %v", err)
		}

		queue, err := f.svc.GetKitchenOrders()
		if err != nil {
			t.Fatalf("fetching queue: %v", err)
		}
		if len(queue) != 1 {
			t.Fatalf("queue length: got %d, want 1", len(queue))
		}
		ko := queue[0]
		if len(ko.ItemsByStatus.Cooking) != 1 || len(ko.ItemsByStatus.Pending) != 1 {
			t.Errorf("grouping: cooking=%d pending=%d, want 1/1",
				len(ko.ItemsByStatus.Cooking), len(ko.ItemsByStatus.Pending))
		}
	})
}
