package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"restro_backend/internal/events"
	"restro_backend/internal/models"
	"restro_backend/internal/repositories"
	"restro_backend/internal/scheduler"
	"restro_backend/pkg/utils"
)

var (
	ErrOrderNotFound       = errors.New("order not found")
	ErrMenuItemNotFound    = errors.New("menu item not found or not available")
	ErrInvalidOrderStatus  = errors.New("invalid order status")
	ErrInvalidItemStatus   = errors.New("invalid order item status")
	ErrDuplicateOrder      = errors.New("an active order for this customer and table was placed moments ago")
	ErrOrderLocked         = errors.New("order can no longer be modified")
	ErrOrderNotCancellable = errors.New("order cannot be cancelled in its current status")
	ErrOrderNotCompletable = errors.New("only paid orders can be completed")
)

const autoCancelNote = "[AUTO-CANCELLED: Order timed out]"

// OrderConfig carries the intake knobs read from the environment at startup.
type OrderConfig struct {
	MaxKitchenOrders int
	OrderTimeout     time.Duration
	DuplicateWindow  time.Duration
}

// DefaultOrderConfig returns the intake settings used when nothing is
// configured.
func DefaultOrderConfig() OrderConfig {
	return OrderConfig{
		MaxKitchenOrders: 20,
		OrderTimeout:     30 * time.Minute,
		DuplicateWindow:  5 * time.Minute,
	}
}

// --- Data Transfer Objects (DTOs) ---

// CreateOrderItemRequest is one requested line of a new order. Price and name
// come from the catalog, never from the client.
type CreateOrderItemRequest struct {
	MenuItemID int64  `json:"menu_item_id" binding:"required"`
	Quantity   int    `json:"quantity" binding:"required,gt=0"`
	Notes      string `json:"notes"`
}

// CreateOrderRequest is used for placing a new order.
type CreateOrderRequest struct {
	TableID      int64                    `json:"table_id" binding:"required"`
	CustomerName string                   `json:"customer_name" binding:"required"`
	Items        []CreateOrderItemRequest `json:"items" binding:"required,dive"`
	Discount     *float64                 `json:"discount"`
	Note         string                   `json:"note"`
}

// UpdateOrderStatusRequest is used for updating the status of an order. The
// optional staff references record who cooked and who served; each must point
// at an existing user.
type UpdateOrderStatusRequest struct {
	Status   string `json:"status" binding:"required"`
	CookedBy *int64 `json:"cooked_by"`
	ServedBy *int64 `json:"served_by"`
}

// UpdateItemStatusRequest is used for moving one order item through the
// kitchen statuses.
type UpdateItemStatusRequest struct {
	Status string  `json:"status" binding:"required"`
	Notes  *string `json:"notes"`
}

// CancelOrderRequest is used for staff-initiated cancellation.
type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

// --- OrderService Interface ---

type OrderService interface {
	CreateOrder(req CreateOrderRequest) (*models.Order, error)
	GetOrders(filters models.OrderFilters) ([]models.Order, int, *models.OrderStatistics, error)
	GetOrderByID(orderID int64) (*models.Order, error)
	GetOrdersByTable(tableID int64, status *string) ([]models.Order, error)
	GetKitchenOrders() ([]models.KitchenOrder, error)
	UpdateOrderStatus(orderID int64, req UpdateOrderStatusRequest) (*models.Order, error)
	UpdateOrderItemStatus(orderID, itemID int64, req UpdateItemStatusRequest) (*models.Order, error)
	AddItemsToOrder(orderID int64, items []CreateOrderItemRequest) (*models.Order, error)
	CancelOrder(orderID int64, reason string) (*models.Order, error)
	CompleteOrder(orderID int64) (*models.Order, error)

	// MarkOrderPaid is the single path by which an order becomes Paid. It
	// always disarms the auto-cancel timer and frees the table.
	MarkOrderPaid(orderID int64) (*models.Order, error)
	// RevertOrderToServed is called when a pending digital payment fails.
	RevertOrderToServed(orderID int64) (*models.Order, error)

	HandleOrderTimeout(orderID int64)
	RestoreOrderTimeouts() error
}

// --- orderService Implementation ---

type orderService struct {
	orderRepo repositories.OrderRepository
	tableRepo repositories.TableRepository
	menuRepo  repositories.MenuRepository
	userRepo  repositories.UserRepository
	db        *sql.DB
	sched     *scheduler.OrderTimeoutScheduler
	clock     scheduler.Clock
	publisher events.Publisher
	cfg       OrderConfig
}

// NewOrderService creates a new instance of OrderService. Callers must also
// Bind the returned service's HandleOrderTimeout to the scheduler.
func NewOrderService(
	or repositories.OrderRepository,
	tr repositories.TableRepository,
	mr repositories.MenuRepository,
	ur repositories.UserRepository,
	db *sql.DB,
	sched *scheduler.OrderTimeoutScheduler,
	clock scheduler.Clock,
	publisher events.Publisher,
	cfg OrderConfig,
) OrderService {
	return &orderService{
		orderRepo: or,
		tableRepo: tr,
		menuRepo:  mr,
		userRepo:  ur,
		db:        db,
		sched:     sched,
		clock:     clock,
		publisher: publisher,
		cfg:       cfg,
	}
}

// --- Method Implementations ---

func (s *orderService) CreateOrder(req CreateOrderRequest) (*models.Order, error) {
	if req.CustomerName == "" {
		return nil, fmt.Errorf("%w: customer name is required", ErrValidation)
	}
	if req.Discount != nil && *req.Discount < 0 {
		return nil, fmt.Errorf("%w: discount cannot be negative", ErrValidation)
	}

	table, err := s.tableRepo.GetTableByID(req.TableID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: ID %d", ErrTableNotFound, req.TableID)
		}
		return nil, fmt.Errorf("failed to fetch table %d: %w", req.TableID, err)
	}

	now := s.clock.Now()
	itemsToCreate, totalAmount, err := s.priceItems(req.Items, now)
	if err != nil {
		return nil, err
	}

	// Same customer on the same table inside the duplicate window means a
	// resubmitted form, not a second order.
	_, err = s.orderRepo.FindRecentActiveOrder(req.TableID, req.CustomerName, now.Add(-s.cfg.DuplicateWindow))
	if err == nil {
		return nil, ErrDuplicateOrder
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to check for duplicate order: %w", err)
	}

	activeOrders, err := s.orderRepo.CountActiveOrders()
	if err != nil {
		return nil, fmt.Errorf("failed to count active orders: %w", err)
	}
	if activeOrders >= s.cfg.MaxKitchenOrders {
		return nil, &KitchenCapacityError{ActiveOrders: activeOrders, MaxCapacity: s.cfg.MaxKitchenOrders}
	}

	discount := 0.0
	if req.Discount != nil {
		discount = *req.Discount
	}
	finalAmount := totalAmount - discount
	if finalAmount < 0 {
		finalAmount = 0
	}

	waiterID := s.pickWaiter(table)

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	order := models.Order{
		TableID:          req.TableID,
		CustomerName:     req.CustomerName,
		TotalAmount:      totalAmount,
		Discount:         discount,
		FinalAmount:      finalAmount,
		Status:           models.OrderStatusPending,
		Note:             req.Note,
		AssignedWaiterID: waiterID,
		OrderTimeout:     now.Add(s.cfg.OrderTimeout),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	orderID, err := s.orderRepo.CreateOrder(tx, &order)
	if err != nil {
		return nil, fmt.Errorf("failed to create order record: %w", err)
	}

	for i := range itemsToCreate {
		itemsToCreate[i].OrderID = orderID
		if _, err := s.orderRepo.CreateOrderItem(tx, &itemsToCreate[i]); err != nil {
			return nil, fmt.Errorf("failed to create order item (menu_item_id: %d): %w", itemsToCreate[i].MenuItemID, err)
		}
	}

	if err := s.tableRepo.SetTableOccupied(tx, req.TableID, orderID, waiterID, now); err != nil {
		return nil, fmt.Errorf("failed to occupy table %d: %w", req.TableID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit order transaction: %w", err)
	}

	s.sched.Arm(orderID, s.cfg.OrderTimeout)

	created, err := s.GetOrderByID(orderID)
	if err != nil {
		return nil, err
	}
	s.publisher.PublishOrderEvent(events.OrderNew, orderID, req.TableID, created)
	return created, nil
}

// priceItems validates the requested items against the catalog and prices each
// line server-side. Every problem is collected so the caller sees all of them.
func (s *orderService) priceItems(reqs []CreateOrderItemRequest, now time.Time) ([]models.OrderItem, float64, error) {
	if len(reqs) == 0 {
		return nil, 0, &ItemValidationError{Problems: []string{"order must contain at least one item"}}
	}

	var problems []string
	items := make([]models.OrderItem, 0, len(reqs))
	var totalAmount float64

	for _, itemReq := range reqs {
		if itemReq.Quantity <= 0 {
			problems = append(problems, fmt.Sprintf("quantity for menu item %d must be positive", itemReq.MenuItemID))
			continue
		}
		menuItem, err := s.menuRepo.GetMenuItemByID(itemReq.MenuItemID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				problems = append(problems, fmt.Sprintf("menu item %d does not exist", itemReq.MenuItemID))
				continue
			}
			return nil, 0, fmt.Errorf("failed to fetch menu item %d: %w", itemReq.MenuItemID, err)
		}
		if menuItem.AvailabilityStatus != models.MenuItemAvailable {
			problems = append(problems, fmt.Sprintf("menu item %q is not available", menuItem.Name))
			continue
		}

		subtotal := menuItem.Price * float64(itemReq.Quantity)
		totalAmount += subtotal
		items = append(items, models.OrderItem{
			MenuItemID: menuItem.ID,
			Name:       menuItem.Name,
			Quantity:   itemReq.Quantity,
			Price:      menuItem.Price,
			Subtotal:   subtotal,
			Status:     models.ItemStatusPending,
			Notes:      itemReq.Notes,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}

	if len(problems) > 0 {
		return nil, 0, &ItemValidationError{Problems: problems}
	}
	return items, totalAmount, nil
}

// pickWaiter prefers the table's standing waiter, then falls back to the
// least-loaded active waiter. Orders without a candidate stay unassigned.
func (s *orderService) pickWaiter(table *models.Table) *int64 {
	if table.AssignedWaiterID != nil {
		return table.AssignedWaiterID
	}

	waiters, err := s.userRepo.GetActiveWaiters()
	if err != nil {
		utils.LogError(err, "could not list waiters for auto-assignment")
		return nil
	}

	var best *int64
	bestLoad := -1
	for i := range waiters {
		load, err := s.orderRepo.CountActiveOrdersByWaiter(waiters[i].ID)
		if err != nil {
			utils.LogError(err, fmt.Sprintf("could not count active orders for waiter %d", waiters[i].ID))
			continue
		}
		if best == nil || load < bestLoad {
			best = &waiters[i].ID
			bestLoad = load
		}
	}
	return best
}

func (s *orderService) GetOrders(filters models.OrderFilters) ([]models.Order, int, *models.OrderStatistics, error) {
	orders, totalCount, err := s.orderRepo.GetOrders(filters)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("failed to get orders: %w", err)
	}
	stats, err := s.orderRepo.GetOrderStatistics()
	if err != nil {
		return nil, 0, nil, fmt.Errorf("failed to get order statistics: %w", err)
	}
	return orders, totalCount, stats, nil
}

func (s *orderService) GetOrderByID(orderID int64) (*models.Order, error) {
	order, err := s.orderRepo.GetOrderByID(orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order %d: %w", orderID, err)
	}

	items, err := s.orderRepo.GetOrderItemsByOrderID(orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get items for order %d: %w", orderID, err)
	}
	order.Items = items
	return order, nil
}

func (s *orderService) GetOrdersByTable(tableID int64, status *string) ([]models.Order, error) {
	if _, err := s.tableRepo.GetTableByID(tableID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: ID %d", ErrTableNotFound, tableID)
		}
		return nil, fmt.Errorf("failed to fetch table %d: %w", tableID, err)
	}
	orders, err := s.orderRepo.GetOrdersByTable(tableID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to get orders for table %d: %w", tableID, err)
	}
	return orders, nil
}

func (s *orderService) GetKitchenOrders() ([]models.KitchenOrder, error) {
	orders, err := s.orderRepo.GetKitchenOrders([]string{models.OrderStatusPending, models.OrderStatusInKitchen})
	if err != nil {
		return nil, fmt.Errorf("failed to get kitchen orders: %w", err)
	}

	kitchenOrders := make([]models.KitchenOrder, 0, len(orders))
	for _, order := range orders {
		ko := models.KitchenOrder{Order: order}
		for _, item := range order.Items {
			switch item.Status {
			case models.ItemStatusPending:
				ko.ItemsByStatus.Pending = append(ko.ItemsByStatus.Pending, item)
			case models.ItemStatusCooking:
				ko.ItemsByStatus.Cooking = append(ko.ItemsByStatus.Cooking, item)
			case models.ItemStatusReady:
				ko.ItemsByStatus.Ready = append(ko.ItemsByStatus.Ready, item)
			}
		}
		kitchenOrders = append(kitchenOrders, ko)
	}
	return kitchenOrders, nil
}

func (s *orderService) UpdateOrderStatus(orderID int64, req UpdateOrderStatusRequest) (*models.Order, error) {
	if !models.IsValidOrderStatus(req.Status) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidOrderStatus, req.Status)
	}

	// Paid and Cancelled have side effects (timer, table) owned by their
	// dedicated paths.
	switch req.Status {
	case models.OrderStatusPaid:
		return s.MarkOrderPaid(orderID)
	case models.OrderStatusCancelled:
		return s.CancelOrder(orderID, "")
	}

	order, err := s.GetOrderByID(orderID)
	if err != nil {
		return nil, err
	}

	// Staff references come from the client and must resolve before they
	// reach the orders table.
	if err := s.checkStaffRef(req.CookedBy, "cook"); err != nil {
		return nil, err
	}
	if err := s.checkStaffRef(req.ServedBy, "server"); err != nil {
		return nil, err
	}

	if err := s.orderRepo.UpdateOrderStatus(s.db, orderID, req.Status, req.CookedBy, req.ServedBy, s.clock.Now()); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to update status of order %d: %w", orderID, err)
	}

	updated, err := s.GetOrderByID(orderID)
	if err != nil {
		return nil, err
	}
	s.publisher.PublishOrderEvent(events.OrderStatusUpdated, orderID, order.TableID, updated)
	return updated, nil
}

func (s *orderService) UpdateOrderItemStatus(orderID, itemID int64, req UpdateItemStatusRequest) (*models.Order, error) {
	if !models.IsValidItemStatus(req.Status) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidItemStatus, req.Status)
	}

	order, err := s.GetOrderByID(orderID)
	if err != nil {
		return nil, err
	}
	switch order.Status {
	case models.OrderStatusCancelled, models.OrderStatusPaid, models.OrderStatusCompleted:
		return nil, fmt.Errorf("%w: order is %s", ErrOrderLocked, order.Status)
	}

	if _, err := s.orderRepo.GetOrderItemByID(orderID, itemID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: item %d on order %d", ErrOrderNotFound, itemID, orderID)
		}
		return nil, fmt.Errorf("failed to fetch item %d: %w", itemID, err)
	}

	now := s.clock.Now()
	if err := s.orderRepo.UpdateOrderItemStatus(s.db, itemID, req.Status, req.Notes, now); err != nil {
		return nil, fmt.Errorf("failed to update status of item %d: %w", itemID, err)
	}

	updated, err := s.GetOrderByID(orderID)
	if err != nil {
		return nil, err
	}
	s.publisher.PublishOrderEvent(events.OrderItemUpdated, orderID, order.TableID, updated)

	// Derive the order-level status from item progress. Derivation only moves
	// the order forward; it never undoes a later status.
	derived := deriveOrderStatus(updated)
	if derived != "" && derived != updated.Status {
		if err := s.orderRepo.UpdateOrderStatus(s.db, orderID, derived, nil, nil, now); err != nil {
			return nil, fmt.Errorf("failed to derive status of order %d: %w", orderID, err)
		}
		updated.Status = derived
		s.publisher.PublishOrderEvent(events.OrderStatusUpdated, orderID, order.TableID, updated)
	}
	return updated, nil
}

// checkStaffRef verifies an optional staff reference against the user store.
// A nil id is allowed; an unknown one is a validation failure.
func (s *orderService) checkStaffRef(userID *int64, role string) error {
	if userID == nil {
		return nil
	}
	if _, err := s.userRepo.GetUserByID(*userID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: invalid %s ID %d", ErrValidation, role, *userID)
		}
		return fmt.Errorf("failed to look up %s %d: %w", role, *userID, err)
	}
	return nil
}

// deriveOrderStatus maps item progress to an order status. Empty string means
// no derivation applies.
func deriveOrderStatus(order *models.Order) string {
	if len(order.Items) == 0 {
		return ""
	}
	allServed := true
	anyInKitchen := false
	for _, item := range order.Items {
		if item.Status != models.ItemStatusServed {
			allServed = false
		}
		// Only active kitchen work counts. A lone Served item on an otherwise
		// untouched order says nothing about the kitchen having started.
		if item.Status == models.ItemStatusCooking || item.Status == models.ItemStatusReady {
			anyInKitchen = true
		}
	}
	if allServed {
		return models.OrderStatusServed
	}
	if anyInKitchen && order.Status == models.OrderStatusPending {
		return models.OrderStatusInKitchen
	}
	return ""
}

func (s *orderService) AddItemsToOrder(orderID int64, itemReqs []CreateOrderItemRequest) (*models.Order, error) {
	order, err := s.GetOrderByID(orderID)
	if err != nil {
		return nil, err
	}
	switch order.Status {
	case models.OrderStatusCancelled, models.OrderStatusPaid:
		return nil, fmt.Errorf("%w: order is %s", ErrOrderLocked, order.Status)
	}

	now := s.clock.Now()
	itemsToCreate, addedAmount, err := s.priceItems(itemReqs, now)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	for i := range itemsToCreate {
		itemsToCreate[i].OrderID = orderID
		if _, err := s.orderRepo.CreateOrderItem(tx, &itemsToCreate[i]); err != nil {
			return nil, fmt.Errorf("failed to add order item (menu_item_id: %d): %w", itemsToCreate[i].MenuItemID, err)
		}
	}

	totalAmount := order.TotalAmount + addedAmount
	finalAmount := totalAmount - order.Discount
	if finalAmount < 0 {
		finalAmount = 0
	}
	if err := s.orderRepo.UpdateOrderTotals(tx, orderID, totalAmount, finalAmount, now); err != nil {
		return nil, fmt.Errorf("failed to update totals of order %d: %w", orderID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit added items: %w", err)
	}

	updated, err := s.GetOrderByID(orderID)
	if err != nil {
		return nil, err
	}
	s.publisher.PublishOrderEvent(events.OrderItemsAdded, orderID, order.TableID, updated)
	return updated, nil
}

func (s *orderService) CancelOrder(orderID int64, reason string) (*models.Order, error) {
	order, err := s.GetOrderByID(orderID)
	if err != nil {
		return nil, err
	}
	// Once food is on the table or money has changed hands, reversal goes
	// through the refund flow instead.
	switch order.Status {
	case models.OrderStatusServed, models.OrderStatusPaid, models.OrderStatusCompleted, models.OrderStatusCancelled:
		return nil, fmt.Errorf("%w: order is %s", ErrOrderNotCancellable, order.Status)
	}

	noteLine := "[CANCELLED BY STAFF]"
	if reason != "" {
		noteLine = "Cancelled: " + reason
	}

	now := s.clock.Now()
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.orderRepo.UpdateOrderStatus(tx, orderID, models.OrderStatusCancelled, nil, nil, now); err != nil {
		return nil, fmt.Errorf("failed to cancel order %d: %w", orderID, err)
	}
	if err := s.orderRepo.AppendOrderNote(tx, orderID, noteLine, now); err != nil {
		return nil, fmt.Errorf("failed to record cancellation note for order %d: %w", orderID, err)
	}
	// Free the table only while this order still holds it; a newer order may
	// have taken over.
	if _, err := s.tableRepo.ClearTableIfCurrentOrder(tx, order.TableID, orderID, now); err != nil {
		return nil, fmt.Errorf("failed to clear table %d: %w", order.TableID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit cancellation: %w", err)
	}

	s.sched.Disarm(orderID)

	updated, err := s.GetOrderByID(orderID)
	if err != nil {
		return nil, err
	}
	s.publisher.PublishOrderEvent(events.OrderCancelled, orderID, order.TableID, updated)
	return updated, nil
}

func (s *orderService) CompleteOrder(orderID int64) (*models.Order, error) {
	order, err := s.GetOrderByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderStatusPaid {
		return nil, fmt.Errorf("%w: order is %s", ErrOrderNotCompletable, order.Status)
	}

	now := s.clock.Now()
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.orderRepo.UpdateOrderStatus(tx, orderID, models.OrderStatusCompleted, nil, nil, now); err != nil {
		return nil, fmt.Errorf("failed to complete order %d: %w", orderID, err)
	}
	// The paid path already freed the table, but an order settled outside it
	// must still release its seat on completion.
	if _, err := s.tableRepo.ClearTableIfCurrentOrder(tx, order.TableID, orderID, now); err != nil {
		return nil, fmt.Errorf("failed to clear table %d: %w", order.TableID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit completed transition: %w", err)
	}

	s.sched.Disarm(orderID)

	updated, err := s.GetOrderByID(orderID)
	if err != nil {
		return nil, err
	}
	s.publisher.PublishOrderEvent(events.OrderCompleted, orderID, order.TableID, updated)
	return updated, nil
}

func (s *orderService) MarkOrderPaid(orderID int64) (*models.Order, error) {
	order, err := s.GetOrderByID(orderID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.orderRepo.UpdateOrderStatus(tx, orderID, models.OrderStatusPaid, nil, nil, now); err != nil {
		return nil, fmt.Errorf("failed to mark order %d paid: %w", orderID, err)
	}
	if _, err := s.tableRepo.ClearTableIfCurrentOrder(tx, order.TableID, orderID, now); err != nil {
		return nil, fmt.Errorf("failed to clear table %d: %w", order.TableID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit paid transition: %w", err)
	}

	// A settled order can never be auto-cancelled, whatever state the timer
	// was in.
	s.sched.Disarm(orderID)

	updated, err := s.GetOrderByID(orderID)
	if err != nil {
		return nil, err
	}
	s.publisher.PublishOrderEvent(events.OrderStatusUpdated, orderID, order.TableID, updated)
	return updated, nil
}

func (s *orderService) RevertOrderToServed(orderID int64) (*models.Order, error) {
	order, err := s.GetOrderByID(orderID)
	if err != nil {
		return nil, err
	}

	if err := s.orderRepo.UpdateOrderStatus(s.db, orderID, models.OrderStatusServed, nil, nil, s.clock.Now()); err != nil {
		return nil, fmt.Errorf("failed to revert order %d to served: %w", orderID, err)
	}

	updated, err := s.GetOrderByID(orderID)
	if err != nil {
		return nil, err
	}
	s.publisher.PublishOrderEvent(events.OrderStatusUpdated, orderID, order.TableID, updated)
	return updated, nil
}

// HandleOrderTimeout runs when an order's auto-cancel deadline fires. The
// status is re-checked against the database first, so a timer that lost the
// race against payment or staff cancellation becomes a no-op.
func (s *orderService) HandleOrderTimeout(orderID int64) {
	order, err := s.orderRepo.GetOrderByID(orderID)
	if err != nil {
		utils.LogError(err, fmt.Sprintf("timeout fired for unknown order %d", orderID))
		return
	}

	switch order.Status {
	case models.OrderStatusPending, models.OrderStatusInKitchen:
	default:
		utils.LogInfo(fmt.Sprintf("timeout for order %d ignored, order already %s", orderID, order.Status))
		return
	}

	now := s.clock.Now()
	tx, err := s.db.Begin()
	if err != nil {
		utils.LogError(err, fmt.Sprintf("could not start transaction for timeout of order %d", orderID))
		return
	}
	defer tx.Rollback()

	if err := s.orderRepo.MarkOrderTimedOut(tx, orderID, autoCancelNote, now); err != nil {
		utils.LogError(err, fmt.Sprintf("could not auto-cancel order %d", orderID))
		return
	}
	if _, err := s.tableRepo.ClearTableIfCurrentOrder(tx, order.TableID, orderID, now); err != nil {
		utils.LogError(err, fmt.Sprintf("could not clear table %d after timeout of order %d", order.TableID, orderID))
		return
	}
	if err := tx.Commit(); err != nil {
		utils.LogError(err, fmt.Sprintf("could not commit timeout of order %d", orderID))
		return
	}

	utils.LogInfo(fmt.Sprintf("order %d auto-cancelled after timeout", orderID))
	s.publisher.PublishOrderEvent(events.OrderCancelled, orderID, order.TableID, map[string]interface{}{
		"order_id":     orderID,
		"is_timed_out": true,
	})
}

// RestoreOrderTimeouts rebuilds the in-memory timer registry from persisted
// deadlines after a restart. Deadlines already in the past are fired
// synchronously before the server starts taking traffic.
func (s *orderService) RestoreOrderTimeouts() error {
	candidates, err := s.orderRepo.GetTimeoutCandidates()
	if err != nil {
		return fmt.Errorf("failed to load timeout candidates: %w", err)
	}

	now := s.clock.Now()
	rearmed, expired := 0, 0
	for _, order := range candidates {
		remaining := order.OrderTimeout.Sub(now)
		if remaining <= 0 {
			s.HandleOrderTimeout(order.ID)
			expired++
			continue
		}
		s.sched.Arm(order.ID, remaining)
		rearmed++
	}

	utils.LogInfo("order timeout timers restored", map[string]interface{}{
		"rearmed": rearmed,
		"expired": expired,
	})
	return nil
}
