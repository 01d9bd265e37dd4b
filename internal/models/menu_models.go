package models

import "time"

// Menu item availability.
const (
	MenuItemAvailable  = "Available"
	MenuItemOutOfStock = "OutOfStock"
)

// Category groups menu items for display.
type Category struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name" binding:"required"`
	Description *string   `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// MenuItem is one orderable catalog entry. The order flow reads price and
// availability from here at order time and denormalizes both onto the order
// line.
type MenuItem struct {
	ID                 int64     `json:"id" db:"id"`
	CategoryID         *int64    `json:"category_id,omitempty" db:"category_id"`
	Name               string    `json:"name" db:"name" binding:"required"`
	Description        *string   `json:"description,omitempty" db:"description"`
	Price              float64   `json:"price" db:"price" binding:"gte=0"`
	AvailabilityStatus string    `json:"availability_status" db:"availability_status"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`

	Category *Category `json:"category,omitempty"`
}
