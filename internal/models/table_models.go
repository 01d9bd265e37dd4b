package models

import "time"

// Table statuses.
const (
	TableStatusAvailable = "Available"
	TableStatusOccupied  = "Occupied"
	TableStatusReserved  = "Reserved"
)

// IsValidTableStatus checks the status against the known table status values.
func IsValidTableStatus(status string) bool {
	switch status {
	case TableStatusAvailable, TableStatusOccupied, TableStatusReserved:
		return true
	default:
		return false
	}
}

// Table is one physical restaurant table. CurrentOrderID points at the single
// active order while one exists; it is cleared when that order reaches
// Paid/Cancelled/Completed.
type Table struct {
	ID               int64     `json:"id" db:"id"`
	TableNumber      int       `json:"table_number" db:"table_number" binding:"required"`
	Capacity         int       `json:"capacity" db:"capacity" binding:"required,gte=1"`
	Status           string    `json:"status" db:"status"`
	CurrentOrderID   *int64    `json:"current_order,omitempty" db:"current_order"`
	AssignedWaiterID *int64    `json:"assigned_waiter,omitempty" db:"assigned_waiter"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`

	AssignedWaiter *User `json:"assigned_waiter_user,omitempty"`
}

// TableOccupancy counts tables per occupancy status for the dashboard.
type TableOccupancy struct {
	Total     int `json:"total"`
	Available int `json:"available"`
	Occupied  int `json:"occupied"`
	Reserved  int `json:"reserved"`
}
