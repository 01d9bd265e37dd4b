package models

import "time"

// Payment methods. Cash settles immediately; the digital methods are created
// Pending and confirmed by a later status update.
const (
	PaymentMethodCash     = "Cash"
	PaymentMethodCard     = "Card"
	PaymentMethodFonepay  = "Fonepay"
	PaymentMethodNepalPay = "NepalPay"
	PaymentMethodKhalti   = "Khalti"
)

// Payment statuses. Paid and Pending are the "active" statuses: at most one
// active payment may exist per order.
const (
	PaymentStatusPaid     = "Paid"
	PaymentStatusPending  = "Pending"
	PaymentStatusFailed   = "Failed"
	PaymentStatusRefunded = "Refunded"
)

// IsValidPaymentMethod checks the method against the known payment methods.
func IsValidPaymentMethod(method string) bool {
	switch method {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodFonepay,
		PaymentMethodNepalPay, PaymentMethodKhalti:
		return true
	default:
		return false
	}
}

// IsValidPaymentStatus checks the status against the known payment statuses.
func IsValidPaymentStatus(status string) bool {
	switch status {
	case PaymentStatusPaid, PaymentStatusPending, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	default:
		return false
	}
}

// Payment is one row of the append-only payment ledger. Refunds are recorded
// as new rows with a negative amount rather than mutating the original.
type Payment struct {
	ID            int64     `json:"id" db:"id"`
	OrderID       int64     `json:"order_id" db:"order_id"`
	TableID       *int64    `json:"table_id,omitempty" db:"table_id"`
	Amount        float64   `json:"amount" db:"amount"`
	PaymentMethod string    `json:"payment_method" db:"payment_method"`
	PaymentStatus string    `json:"payment_status" db:"payment_status"`
	HandledByID   *int64    `json:"handled_by,omitempty" db:"handled_by"`
	TransactionID *string   `json:"transaction_id,omitempty" db:"transaction_id"`
	PaymentTime   time.Time `json:"payment_time" db:"payment_time"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`

	Order     *Order `json:"order,omitempty"`
	Table     *Table `json:"table,omitempty"`
	HandledBy *User  `json:"handled_by_user,omitempty"`
}

// PaymentFilters defines the available filters for querying payments.
type PaymentFilters struct {
	PaymentStatus *string `form:"payment_status"`
	PaymentMethod *string `form:"payment_method"`
	StartDate     *string `form:"start_date"` // YYYY-MM-DD
	EndDate       *string `form:"end_date"`   // YYYY-MM-DD
	SortBy        string  `form:"sort_by"`
	SortOrder     string  `form:"sort_order"`
	Page          int     `form:"page"`
	PageSize      int     `form:"page_size"`
}

// PaymentMethodTotal is one row of the per-method sales breakdown.
type PaymentMethodTotal struct {
	Method string  `json:"method"`
	Count  int     `json:"count"`
	Total  float64 `json:"total"`
}

// HourlyTotal is one row of the hourly sales breakdown.
type HourlyTotal struct {
	Hour  int     `json:"hour"`
	Count int     `json:"count"`
	Total float64 `json:"total"`
}

// DailySalesSummary is the summary block of the daily sales report.
type DailySalesSummary struct {
	TotalSales         float64 `json:"total_sales"`
	TotalTransactions  int     `json:"total_transactions"`
	AverageTransaction float64 `json:"average_transaction"`
}

// DailySalesReport aggregates one day's settled payments.
type DailySalesReport struct {
	Date            string               `json:"date"`
	Summary         DailySalesSummary    `json:"summary"`
	PaymentMethods  []PaymentMethodTotal `json:"payment_methods"`
	HourlyBreakdown []HourlyTotal        `json:"hourly_breakdown"`
	Transactions    []Payment            `json:"transactions"`
}
