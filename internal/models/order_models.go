package models

import "time"

// Order statuses. No transition graph is enforced on direct status updates;
// any legal value can follow any other (kitchen and payment flows narrow this
// in practice).
const (
	OrderStatusPending   = "Pending"
	OrderStatusInKitchen = "InKitchen"
	OrderStatusServed    = "Served"
	OrderStatusCancelled = "Cancelled"
	OrderStatusPaid      = "Paid"
	OrderStatusCompleted = "Completed"
)

// Order item statuses (kitchen progress per line item).
const (
	ItemStatusPending = "Pending"
	ItemStatusCooking = "Cooking"
	ItemStatusReady   = "Ready"
	ItemStatusServed  = "Served"
)

// IsValidOrderStatus checks the status against the known order status values.
func IsValidOrderStatus(status string) bool {
	switch status {
	case OrderStatusPending, OrderStatusInKitchen, OrderStatusServed,
		OrderStatusCancelled, OrderStatusPaid, OrderStatusCompleted:
		return true
	default:
		return false
	}
}

// IsValidItemStatus checks the status against the known item status values.
func IsValidItemStatus(status string) bool {
	switch status {
	case ItemStatusPending, ItemStatusCooking, ItemStatusReady, ItemStatusServed:
		return true
	default:
		return false
	}
}

// OrderItem is one menu item + quantity inside an order. Name and price are
// captured at order time so later catalog edits never change a historical
// subtotal.
type OrderItem struct {
	ID         int64     `json:"id" db:"id"`
	OrderID    int64     `json:"order_id" db:"order_id"`
	MenuItemID int64     `json:"menu_item_id" db:"menu_item_id"`
	Name       string    `json:"name" db:"name"`
	Quantity   int       `json:"quantity" db:"quantity"`
	Price      float64   `json:"price" db:"price"`
	Subtotal   float64   `json:"subtotal" db:"subtotal"`
	Status     string    `json:"status" db:"status"`
	Notes      string    `json:"notes" db:"notes"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// Order is the central aggregate: one customer's submitted items for one
// table visit.
type Order struct {
	ID               int64       `json:"id" db:"id"`
	TableID          int64       `json:"table_id" db:"table_id"`
	CustomerName     string      `json:"customer_name" db:"customer_name"`
	Items            []OrderItem `json:"items"`
	TotalAmount      float64     `json:"total_amount" db:"total_amount"`
	Discount         float64     `json:"discount" db:"discount"`
	FinalAmount      float64     `json:"final_amount" db:"final_amount"`
	Status           string      `json:"status" db:"status"`
	AssignedWaiterID *int64      `json:"assigned_waiter,omitempty" db:"assigned_waiter"`
	OrderTimeout     time.Time   `json:"order_timeout" db:"order_timeout"`
	IsTimedOut       bool        `json:"is_timed_out" db:"is_timed_out"`
	Note             string      `json:"note" db:"note"`
	CookedByID       *int64      `json:"cooked_by,omitempty" db:"cooked_by"`
	ServedByID       *int64      `json:"served_by,omitempty" db:"served_by"`
	CreatedAt        time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at" db:"updated_at"`

	Table          *Table `json:"table,omitempty"`
	AssignedWaiter *User  `json:"assigned_waiter_user,omitempty"`
	CookedBy       *User  `json:"cooked_by_user,omitempty"`
	ServedBy       *User  `json:"served_by_user,omitempty"`
}

// OrderStats summarizes item counts by kitchen status for display.
type OrderStats struct {
	TotalItems    int `json:"total_items"`
	TotalQuantity int `json:"total_quantity"`
	PendingItems  int `json:"pending_items"`
	CookingItems  int `json:"cooking_items"`
	ReadyItems    int `json:"ready_items"`
	ServedItems   int `json:"served_items"`
}

// Stats derives the per-status item counts for this order.
func (o *Order) Stats() OrderStats {
	stats := OrderStats{TotalItems: len(o.Items)}
	for _, item := range o.Items {
		stats.TotalQuantity += item.Quantity
		switch item.Status {
		case ItemStatusPending:
			stats.PendingItems++
		case ItemStatusCooking:
			stats.CookingItems++
		case ItemStatusReady:
			stats.ReadyItems++
		case ItemStatusServed:
			stats.ServedItems++
		}
	}
	return stats
}

// KitchenOrder is an order with its items grouped by kitchen sub-status for
// the queue display.
type KitchenOrder struct {
	Order
	ItemsByStatus KitchenItemGroups `json:"items_by_status"`
}

// KitchenItemGroups buckets items by their kitchen progress.
type KitchenItemGroups struct {
	Pending []OrderItem `json:"pending"`
	Cooking []OrderItem `json:"cooking"`
	Ready   []OrderItem `json:"ready"`
}

// OrderFilters defines the available filters for querying orders.
type OrderFilters struct {
	Status    *string `form:"status"`
	TableID   *int64  `form:"table_id"`
	StartDate *string `form:"start_date"` // YYYY-MM-DD
	EndDate   *string `form:"end_date"`   // YYYY-MM-DD
	SortBy    string  `form:"sort_by"`
	SortOrder string  `form:"sort_order"`
	Page      int     `form:"page"`
	PageSize  int     `form:"page_size"`
}

// OrderStatistics is the aggregate stats block returned with order listings.
type OrderStatistics struct {
	Total    int              `json:"total"`
	Today    int              `json:"today"`
	Revenue  RevenueBreakdown `json:"revenue"`
	ByStatus map[string]int   `json:"by_status"`
}

// RevenueBreakdown splits paid revenue into today's and all-time totals.
type RevenueBreakdown struct {
	Today float64 `json:"today"`
	Total float64 `json:"total"`
}
