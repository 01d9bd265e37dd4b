package services

import (
	"errors"
	"fmt"
	"strings"
)

// Errors shared across services. Domain-specific sentinels live at the top of
// the service file that owns them.
var (
	ErrValidation = errors.New("validation error")
)

// KitchenCapacityError is returned when order intake is paused because the
// kitchen already carries its maximum number of active orders. Handlers turn
// it into a 503 with the current load attached.
type KitchenCapacityError struct {
	ActiveOrders int
	MaxCapacity  int
}

func (e *KitchenCapacityError) Error() string {
	return fmt.Sprintf("kitchen at capacity: %d active orders (max %d)", e.ActiveOrders, e.MaxCapacity)
}

// ItemValidationError collects every problem found while validating an order's
// items so the caller sees the full list in one response.
type ItemValidationError struct {
	Problems []string
}

func (e *ItemValidationError) Error() string {
	return "invalid order items: " + strings.Join(e.Problems, "; ")
}
