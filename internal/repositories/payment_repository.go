package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"restro_backend/internal/models"
)

// PaymentRepository defines the database operations of the payment ledger.
type PaymentRepository interface {
	CreatePayment(executor SQLExecutor, payment *models.Payment) (int64, error)
	GetPaymentByID(paymentID int64) (*models.Payment, error)
	GetPaymentByOrderID(orderID int64) (*models.Payment, error)
	FindActivePaymentByOrder(orderID int64) (*models.Payment, error)
	GetPayments(filters models.PaymentFilters) ([]models.Payment, int, error)
	UpdatePaymentStatus(executor SQLExecutor, paymentID int64, status string, transactionID *string, handledBy *int64, paymentTime time.Time) error
	MarkRefunded(executor SQLExecutor, paymentID int64, updatedAt time.Time) error

	GetPaidBetween(start, end time.Time) ([]models.Payment, error)
	GetDailySummary(start, end time.Time) (*models.DailySalesSummary, error)
	GetMethodBreakdown(start, end *time.Time) ([]models.PaymentMethodTotal, error)
	GetHourlyBreakdown(start, end time.Time) ([]models.HourlyTotal, error)
}

type paymentRepository struct {
	db *sql.DB
}

// NewPaymentRepository creates a new instance of PaymentRepository.
func NewPaymentRepository(db *sql.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

const paymentColumns = `id, order_id, table_id, amount, payment_method, payment_status,
	handled_by, transaction_id, payment_time, created_at, updated_at`

func scanPayment(row interface{ Scan(...interface{}) error }, p *models.Payment) error {
	return row.Scan(
		&p.ID, &p.OrderID, &p.TableID, &p.Amount, &p.PaymentMethod, &p.PaymentStatus,
		&p.HandledByID, &p.TransactionID, &p.PaymentTime, &p.CreatedAt, &p.UpdatedAt,
	)
}

func (r *paymentRepository) CreatePayment(executor SQLExecutor, payment *models.Payment) (int64, error) {
	query := `INSERT INTO payments
	            (order_id, table_id, amount, payment_method, payment_status, handled_by,
	             transaction_id, payment_time, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	          RETURNING id`
	if payment.PaymentTime.IsZero() {
		payment.PaymentTime = time.Now()
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now()
	}
	if payment.UpdatedAt.IsZero() {
		payment.UpdatedAt = time.Now()
	}

	err := executor.QueryRow(query,
		payment.OrderID, payment.TableID, payment.Amount, payment.PaymentMethod, payment.PaymentStatus,
		payment.HandledByID, payment.TransactionID, payment.PaymentTime,
		payment.CreatedAt, payment.UpdatedAt,
	).Scan(&payment.ID)

	if err != nil {
		return 0, fmt.Errorf("%w: creating payment: %v", ErrDatabaseError, err)
	}
	return payment.ID, nil
}

func (r *paymentRepository) GetPaymentByID(paymentID int64) (*models.Payment, error) {
	payment := &models.Payment{}
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	err := scanPayment(r.db.QueryRow(query, paymentID), payment)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting payment by ID %d: %v", ErrDatabaseError, paymentID, err)
	}
	return payment, nil
}

func (r *paymentRepository) GetPaymentByOrderID(orderID int64) (*models.Payment, error) {
	payment := &models.Payment{}
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE order_id = $1 ORDER BY payment_time DESC LIMIT 1`
	err := scanPayment(r.db.QueryRow(query, orderID), payment)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting payment for order %d: %v", ErrDatabaseError, orderID, err)
	}
	return payment, nil
}

// FindActivePaymentByOrder returns the order's payment in status Paid or
// Pending if one exists. At most one such payment may exist at a time.
func (r *paymentRepository) FindActivePaymentByOrder(orderID int64) (*models.Payment, error) {
	payment := &models.Payment{}
	query := `SELECT ` + paymentColumns + ` FROM payments
	          WHERE order_id = $1 AND payment_status IN ($2, $3)
	          LIMIT 1`
	err := scanPayment(r.db.QueryRow(query, orderID, models.PaymentStatusPaid, models.PaymentStatusPending), payment)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: finding active payment for order %d: %v", ErrDatabaseError, orderID, err)
	}
	return payment, nil
}

func (r *paymentRepository) GetPayments(filters models.PaymentFilters) ([]models.Payment, int, error) {
	payments := []models.Payment{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + paymentColumns + `, COUNT(*) OVER() AS total_count FROM payments`)

	var conditions []string
	var args []interface{}
	argCounter := 1

	if filters.PaymentStatus != nil && *filters.PaymentStatus != "" {
		conditions = append(conditions, fmt.Sprintf("payment_status = $%d", argCounter))
		args = append(args, *filters.PaymentStatus)
		argCounter++
	}
	if filters.PaymentMethod != nil && *filters.PaymentMethod != "" {
		conditions = append(conditions, fmt.Sprintf("payment_method = $%d", argCounter))
		args = append(args, *filters.PaymentMethod)
		argCounter++
	}
	if filters.StartDate != nil && *filters.StartDate != "" {
		if parsed, err := time.Parse("2006-01-02", *filters.StartDate); err == nil {
			conditions = append(conditions, fmt.Sprintf("payment_time >= $%d", argCounter))
			args = append(args, parsed)
			argCounter++
		}
	}
	if filters.EndDate != nil && *filters.EndDate != "" {
		if parsed, err := time.Parse("2006-01-02", *filters.EndDate); err == nil {
			endOfDay := parsed.AddDate(0, 0, 1).Add(-time.Nanosecond)
			conditions = append(conditions, fmt.Sprintf("payment_time <= $%d", argCounter))
			args = append(args, endOfDay)
			argCounter++
		}
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}

	sortBy := "payment_time"
	switch filters.SortBy {
	case "payment_time", "amount", "created_at", "updated_at":
		sortBy = filters.SortBy
	}
	sortOrder := "DESC"
	if filters.SortOrder == "asc" {
		sortOrder = "ASC"
	}
	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY %s %s", sortBy, sortOrder))

	if filters.PageSize > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", argCounter))
		args = append(args, filters.PageSize)
		argCounter++
		if filters.Page > 0 {
			offset := (filters.Page - 1) * filters.PageSize
			queryBuilder.WriteString(fmt.Sprintf(" OFFSET $%d", argCounter))
			args = append(args, offset)
		}
	}

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying payments: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Payment
		err := rows.Scan(
			&p.ID, &p.OrderID, &p.TableID, &p.Amount, &p.PaymentMethod, &p.PaymentStatus,
			&p.HandledByID, &p.TransactionID, &p.PaymentTime, &p.CreatedAt, &p.UpdatedAt,
			&totalCount,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning payment: %v", ErrDatabaseError, err)
		}
		payments = append(payments, p)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating payment rows: %v", ErrDatabaseError, err)
	}
	return payments, totalCount, nil
}

func (r *paymentRepository) UpdatePaymentStatus(executor SQLExecutor, paymentID int64, status string, transactionID *string, handledBy *int64, paymentTime time.Time) error {
	query := `UPDATE payments
	          SET payment_status = $1,
	              transaction_id = COALESCE($2, transaction_id),
	              handled_by = COALESCE($3, handled_by),
	              payment_time = $4,
	              updated_at = $4
	          WHERE id = $5`
	result, err := executor.Exec(query, status, transactionID, handledBy, paymentTime, paymentID)
	if err != nil {
		return fmt.Errorf("%w: updating payment status for ID %d: %v", ErrDatabaseError, paymentID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for payment status update ID %d: %v", ErrDatabaseError, paymentID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkRefunded flips the original payment record to Refunded after a full
// refund. Partial refunds leave the original untouched.
func (r *paymentRepository) MarkRefunded(executor SQLExecutor, paymentID int64, updatedAt time.Time) error {
	query := `UPDATE payments SET payment_status = $1, updated_at = $2 WHERE id = $3`
	result, err := executor.Exec(query, models.PaymentStatusRefunded, updatedAt, paymentID)
	if err != nil {
		return fmt.Errorf("%w: marking payment %d refunded: %v", ErrDatabaseError, paymentID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for refund mark ID %d: %v", ErrDatabaseError, paymentID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *paymentRepository) GetPaidBetween(start, end time.Time) ([]models.Payment, error) {
	payments := []models.Payment{}
	query := `SELECT ` + paymentColumns + ` FROM payments
	          WHERE payment_time BETWEEN $1 AND $2 AND payment_status = $3
	          ORDER BY payment_time ASC`

	rows, err := r.db.Query(query, start, end, models.PaymentStatusPaid)
	if err != nil {
		return nil, fmt.Errorf("%w: querying paid payments: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Payment
		if err := scanPayment(rows, &p); err != nil {
			return nil, fmt.Errorf("%w: scanning paid payment: %v", ErrDatabaseError, err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (r *paymentRepository) GetDailySummary(start, end time.Time) (*models.DailySalesSummary, error) {
	summary := &models.DailySalesSummary{}
	query := `SELECT COALESCE(SUM(amount), 0), COUNT(*), COALESCE(AVG(amount), 0)
	          FROM payments
	          WHERE payment_time BETWEEN $1 AND $2 AND payment_status = $3`
	err := r.db.QueryRow(query, start, end, models.PaymentStatusPaid).Scan(
		&summary.TotalSales, &summary.TotalTransactions, &summary.AverageTransaction,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: computing daily summary: %v", ErrDatabaseError, err)
	}
	return summary, nil
}

func (r *paymentRepository) GetMethodBreakdown(start, end *time.Time) ([]models.PaymentMethodTotal, error) {
	breakdown := []models.PaymentMethodTotal{}
	query := `SELECT payment_method, COUNT(*), COALESCE(SUM(amount), 0)
	          FROM payments
	          WHERE payment_status = $1`
	args := []interface{}{models.PaymentStatusPaid}
	if start != nil && end != nil {
		query += " AND payment_time BETWEEN $2 AND $3"
		args = append(args, *start, *end)
	}
	query += " GROUP BY payment_method ORDER BY payment_method"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying method breakdown: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var row models.PaymentMethodTotal
		if err := rows.Scan(&row.Method, &row.Count, &row.Total); err != nil {
			return nil, fmt.Errorf("%w: scanning method breakdown: %v", ErrDatabaseError, err)
		}
		breakdown = append(breakdown, row)
	}
	return breakdown, rows.Err()
}

func (r *paymentRepository) GetHourlyBreakdown(start, end time.Time) ([]models.HourlyTotal, error) {
	breakdown := []models.HourlyTotal{}
	query := `SELECT EXTRACT(HOUR FROM payment_time)::int AS hour, COUNT(*), COALESCE(SUM(amount), 0)
	          FROM payments
	          WHERE payment_time BETWEEN $1 AND $2 AND payment_status = $3
	          GROUP BY hour
	          ORDER BY hour`

	rows, err := r.db.Query(query, start, end, models.PaymentStatusPaid)
	if err != nil {
		return nil, fmt.Errorf("%w: querying hourly breakdown: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var row models.HourlyTotal
		if err := rows.Scan(&row.Hour, &row.Count, &row.Total); err != nil {
			return nil, fmt.Errorf("%w: scanning hourly breakdown: %v", ErrDatabaseError, err)
		}
		breakdown = append(breakdown, row)
	}
	return breakdown, rows.Err()
}
