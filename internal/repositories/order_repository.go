package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"restro_backend/internal/models"

	"github.com/lib/pq" // for pq.Error constraint details
)

// OrderRepository defines the database operations of the order store.
type OrderRepository interface {
	CreateOrder(executor SQLExecutor, order *models.Order) (int64, error)
	CreateOrderItem(executor SQLExecutor, item *models.OrderItem) (int64, error)
	GetOrderByID(orderID int64) (*models.Order, error)
	GetOrderItemsByOrderID(orderID int64) ([]models.OrderItem, error)
	GetOrderItemByID(orderID, itemID int64) (*models.OrderItem, error)
	GetOrders(filters models.OrderFilters) ([]models.Order, int, error)
	GetOrdersByTable(tableID int64, status *string) ([]models.Order, error)
	GetKitchenOrders(statuses []string) ([]models.Order, error)

	UpdateOrderStatus(executor SQLExecutor, orderID int64, status string, cookedBy, servedBy *int64, updatedAt time.Time) error
	UpdateOrderItemStatus(executor SQLExecutor, itemID int64, status string, notes *string, updatedAt time.Time) error
	UpdateOrderTotals(executor SQLExecutor, orderID int64, totalAmount, finalAmount float64, updatedAt time.Time) error
	AppendOrderNote(executor SQLExecutor, orderID int64, line string, updatedAt time.Time) error
	MarkOrderTimedOut(executor SQLExecutor, orderID int64, noteLine string, updatedAt time.Time) error

	CountActiveOrders() (int, error)
	CountActiveOrdersByWaiter(waiterID int64) (int, error)
	FindRecentActiveOrder(tableID int64, customerName string, since time.Time) (*models.Order, error)
	GetTimeoutCandidates() ([]models.Order, error)
	GetOrderStatistics() (*models.OrderStatistics, error)
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository.
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `id, table_id, customer_name, total_amount, discount, final_amount, status,
	assigned_waiter, order_timeout, is_timed_out, note, cooked_by, served_by, created_at, updated_at`

func scanOrder(row interface{ Scan(...interface{}) error }, o *models.Order) error {
	return row.Scan(
		&o.ID, &o.TableID, &o.CustomerName, &o.TotalAmount, &o.Discount, &o.FinalAmount, &o.Status,
		&o.AssignedWaiterID, &o.OrderTimeout, &o.IsTimedOut, &o.Note, &o.CookedByID, &o.ServedByID,
		&o.CreatedAt, &o.UpdatedAt,
	)
}

func (r *orderRepository) CreateOrder(executor SQLExecutor, order *models.Order) (int64, error) {
	query := `INSERT INTO orders
	            (table_id, customer_name, total_amount, discount, final_amount, status,
	             assigned_waiter, order_timeout, is_timed_out, note, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	          RETURNING id`

	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	if order.UpdatedAt.IsZero() {
		order.UpdatedAt = time.Now()
	}

	err := executor.QueryRow(query,
		order.TableID, order.CustomerName, order.TotalAmount, order.Discount, order.FinalAmount,
		order.Status, order.AssignedWaiterID, order.OrderTimeout, order.IsTimedOut, order.Note,
		order.CreatedAt, order.UpdatedAt,
	).Scan(&order.ID)

	if err != nil {
		return 0, fmt.Errorf("%w: creating order: %v", ErrDatabaseError, err)
	}
	return order.ID, nil
}

func (r *orderRepository) CreateOrderItem(executor SQLExecutor, item *models.OrderItem) (int64, error) {
	query := `INSERT INTO order_items
	            (order_id, menu_item_id, name, quantity, price, subtotal, status, notes, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	          RETURNING id`
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}
	if item.UpdatedAt.IsZero() {
		item.UpdatedAt = time.Now()
	}

	err := executor.QueryRow(query,
		item.OrderID, item.MenuItemID, item.Name, item.Quantity, item.Price, item.Subtotal,
		item.Status, item.Notes, item.CreatedAt, item.UpdatedAt,
	).Scan(&item.ID)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return 0, fmt.Errorf("%w: creating order item (constraint: %s): %v", ErrDatabaseError, pqErr.Constraint, err)
		}
		return 0, fmt.Errorf("%w: creating order item: %v", ErrDatabaseError, err)
	}
	return item.ID, nil
}

func (r *orderRepository) GetOrderByID(orderID int64) (*models.Order, error) {
	order := &models.Order{}
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	err := scanOrder(r.db.QueryRow(query, orderID), order)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting order by ID %d: %v", ErrDatabaseError, orderID, err)
	}

	// Attach the table header for display.
	table := &models.Table{}
	tblQuery := `SELECT id, table_number, capacity, status FROM restaurant_tables WHERE id = $1`
	err = r.db.QueryRow(tblQuery, order.TableID).Scan(&table.ID, &table.TableNumber, &table.Capacity, &table.Status)
	if err == nil {
		order.Table = table
	}

	return order, nil
}

func (r *orderRepository) GetOrderItemsByOrderID(orderID int64) ([]models.OrderItem, error) {
	items := []models.OrderItem{}
	query := `SELECT id, order_id, menu_item_id, name, quantity, price, subtotal, status, notes, created_at, updated_at
	          FROM order_items
	          WHERE order_id = $1
	          ORDER BY id`

	rows, err := r.db.Query(query, orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying order items for order ID %d: %v", ErrDatabaseError, orderID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		err := rows.Scan(
			&item.ID, &item.OrderID, &item.MenuItemID, &item.Name, &item.Quantity, &item.Price,
			&item.Subtotal, &item.Status, &item.Notes, &item.CreatedAt, &item.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning order item for order ID %d: %v", ErrDatabaseError, orderID, err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating order item rows for order ID %d: %v", ErrDatabaseError, orderID, err)
	}
	return items, nil
}

func (r *orderRepository) GetOrderItemByID(orderID, itemID int64) (*models.OrderItem, error) {
	item := &models.OrderItem{}
	query := `SELECT id, order_id, menu_item_id, name, quantity, price, subtotal, status, notes, created_at, updated_at
	          FROM order_items WHERE id = $1 AND order_id = $2`
	err := r.db.QueryRow(query, itemID, orderID).Scan(
		&item.ID, &item.OrderID, &item.MenuItemID, &item.Name, &item.Quantity, &item.Price,
		&item.Subtotal, &item.Status, &item.Notes, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting order item %d for order %d: %v", ErrDatabaseError, itemID, orderID, err)
	}
	return item, nil
}

func (r *orderRepository) GetOrders(filters models.OrderFilters) ([]models.Order, int, error) {
	orders := []models.Order{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + orderColumns + `, COUNT(*) OVER() AS total_count FROM orders`)

	var conditions []string
	var args []interface{}
	argCounter := 1

	if filters.Status != nil && *filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argCounter))
		args = append(args, *filters.Status)
		argCounter++
	}
	if filters.TableID != nil {
		conditions = append(conditions, fmt.Sprintf("table_id = $%d", argCounter))
		args = append(args, *filters.TableID)
		argCounter++
	}
	if filters.StartDate != nil && *filters.StartDate != "" {
		if parsed, err := time.Parse("2006-01-02", *filters.StartDate); err == nil {
			conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argCounter))
			args = append(args, parsed)
			argCounter++
		}
	}
	if filters.EndDate != nil && *filters.EndDate != "" {
		if parsed, err := time.Parse("2006-01-02", *filters.EndDate); err == nil {
			endOfDay := parsed.AddDate(0, 0, 1).Add(-time.Nanosecond)
			conditions = append(conditions, fmt.Sprintf("created_at <= $%d", argCounter))
			args = append(args, endOfDay)
			argCounter++
		}
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}

	sortBy := "created_at"
	switch filters.SortBy {
	case "created_at", "updated_at", "total_amount", "final_amount", "status":
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
		return nil, 0, fmt.Errorf("%w: querying orders: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var o models.Order
		err := rows.Scan(
			&o.ID, &o.TableID, &o.CustomerName, &o.TotalAmount, &o.Discount, &o.FinalAmount, &o.Status,
			&o.AssignedWaiterID, &o.OrderTimeout, &o.IsTimedOut, &o.Note, &o.CookedByID, &o.ServedByID,
			&o.CreatedAt, &o.UpdatedAt, &totalCount,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning order: %v", ErrDatabaseError, err)
		}
		orders = append(orders, o)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating order rows: %v", ErrDatabaseError, err)
	}
	return orders, totalCount, nil
}

func (r *orderRepository) GetOrdersByTable(tableID int64, status *string) ([]models.Order, error) {
	orders := []models.Order{}
	query := `SELECT ` + orderColumns + ` FROM orders WHERE table_id = $1`
	args := []interface{}{tableID}
	if status != nil && *status != "" {
		query += " AND status = $2"
		args = append(args, *status)
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying orders for table %d: %v", ErrDatabaseError, tableID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var o models.Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, fmt.Errorf("%w: scanning table order: %v", ErrDatabaseError, err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// GetKitchenOrders returns orders in the given statuses oldest-first (FIFO
// kitchen queue), with items loaded.
func (r *orderRepository) GetKitchenOrders(statuses []string) ([]models.Order, error) {
	orders := []models.Order{}
	query := `SELECT ` + orderColumns + ` FROM orders WHERE status = ANY($1) ORDER BY created_at ASC`

	rows, err := r.db.Query(query, pq.Array(statuses))
	if err != nil {
		return nil, fmt.Errorf("%w: querying kitchen orders: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var o models.Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, fmt.Errorf("%w: scanning kitchen order: %v", ErrDatabaseError, err)
		}
		orders = append(orders, o)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating kitchen order rows: %v", ErrDatabaseError, err)
	}

	for i := range orders {
		items, err := r.GetOrderItemsByOrderID(orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

func (r *orderRepository) UpdateOrderStatus(executor SQLExecutor, orderID int64, status string, cookedBy, servedBy *int64, updatedAt time.Time) error {
	query := `UPDATE orders
	          SET status = $1,
	              cooked_by = COALESCE($2, cooked_by),
	              served_by = COALESCE($3, served_by),
	              updated_at = $4
	          WHERE id = $5`
	result, err := executor.Exec(query, status, cookedBy, servedBy, updatedAt, orderID)
	if err != nil {
		return fmt.Errorf("%w: updating order status for ID %d: %v", ErrDatabaseError, orderID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for order status update ID %d: %v", ErrDatabaseError, orderID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *orderRepository) UpdateOrderItemStatus(executor SQLExecutor, itemID int64, status string, notes *string, updatedAt time.Time) error {
	query := `UPDATE order_items
	          SET status = $1, notes = COALESCE($2, notes), updated_at = $3
	          WHERE id = $4`
	result, err := executor.Exec(query, status, notes, updatedAt, itemID)
	if err != nil {
		return fmt.Errorf("%w: updating order item status for ID %d: %v", ErrDatabaseError, itemID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for item status update ID %d: %v", ErrDatabaseError, itemID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *orderRepository) UpdateOrderTotals(executor SQLExecutor, orderID int64, totalAmount, finalAmount float64, updatedAt time.Time) error {
	query := `UPDATE orders SET total_amount = $1, final_amount = $2, updated_at = $3 WHERE id = $4`
	result, err := executor.Exec(query, totalAmount, finalAmount, updatedAt, orderID)
	if err != nil {
		return fmt.Errorf("%w: updating order totals for ID %d: %v", ErrDatabaseError, orderID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for totals update ID %d: %v", ErrDatabaseError, orderID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendOrderNote adds a line to the order's note log without overwriting
// earlier entries.
func (r *orderRepository) AppendOrderNote(executor SQLExecutor, orderID int64, line string, updatedAt time.Time) error {
	query := `UPDATE orders
	          SET note = CASE WHEN note = '' THEN $1 ELSE note || E'\n' || $1 END,
	              updated_at = $2
	          WHERE id = $3`
	result, err := executor.Exec(query, line, updatedAt, orderID)
	if err != nil {
		return fmt.Errorf("%w: appending note to order ID %d: %v", ErrDatabaseError, orderID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for note append ID %d: %v", ErrDatabaseError, orderID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkOrderTimedOut cancels an order through the auto-timeout path: status
// Cancelled, is_timed_out set, note line appended. Only the timeout handler
// calls this.
func (r *orderRepository) MarkOrderTimedOut(executor SQLExecutor, orderID int64, noteLine string, updatedAt time.Time) error {
	query := `UPDATE orders
	          SET status = $1,
	              is_timed_out = TRUE,
	              note = CASE WHEN note = '' THEN $2 ELSE note || E'\n' || $2 END,
	              updated_at = $3
	          WHERE id = $4`
	result, err := executor.Exec(query, models.OrderStatusCancelled, noteLine, updatedAt, orderID)
	if err != nil {
		return fmt.Errorf("%w: marking order %d timed out: %v", ErrDatabaseError, orderID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for timeout of order %d: %v", ErrDatabaseError, orderID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountActiveOrders counts orders the kitchen is currently responsible for.
func (r *orderRepository) CountActiveOrders() (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM orders WHERE status IN ($1, $2)`
	err := r.db.QueryRow(query, models.OrderStatusPending, models.OrderStatusInKitchen).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: counting active orders: %v", ErrDatabaseError, err)
	}
	return count, nil
}

func (r *orderRepository) CountActiveOrdersByWaiter(waiterID int64) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM orders WHERE assigned_waiter = $1 AND status IN ($2, $3)`
	err := r.db.QueryRow(query, waiterID, models.OrderStatusPending, models.OrderStatusInKitchen).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: counting active orders for waiter %d: %v", ErrDatabaseError, waiterID, err)
	}
	return count, nil
}

// FindRecentActiveOrder looks for a non-terminal order by the same customer on
// the same table created after the given instant (duplicate-submission guard).
func (r *orderRepository) FindRecentActiveOrder(tableID int64, customerName string, since time.Time) (*models.Order, error) {
	order := &models.Order{}
	query := `SELECT ` + orderColumns + ` FROM orders
	          WHERE table_id = $1 AND customer_name = $2 AND created_at >= $3
	            AND status NOT IN ($4, $5)
	          ORDER BY created_at DESC
	          LIMIT 1`
	err := scanOrder(r.db.QueryRow(query, tableID, customerName, since,
		models.OrderStatusCancelled, models.OrderStatusCompleted), order)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: checking for duplicate order: %v", ErrDatabaseError, err)
	}
	return order, nil
}

// GetTimeoutCandidates returns unresolved, not-yet-timed-out orders whose
// timers must be reconstructed after a restart.
func (r *orderRepository) GetTimeoutCandidates() ([]models.Order, error) {
	orders := []models.Order{}
	query := `SELECT ` + orderColumns + ` FROM orders
	          WHERE status IN ($1, $2) AND is_timed_out = FALSE
	          ORDER BY order_timeout ASC`

	rows, err := r.db.Query(query, models.OrderStatusPending, models.OrderStatusInKitchen)
	if err != nil {
		return nil, fmt.Errorf("%w: querying timeout candidates: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var o models.Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, fmt.Errorf("%w: scanning timeout candidate: %v", ErrDatabaseError, err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *orderRepository) GetOrderStatistics() (*models.OrderStatistics, error) {
	stats := &models.OrderStatistics{ByStatus: map[string]int{}}

	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	if err := r.db.QueryRow(`SELECT COUNT(*) FROM orders`).Scan(&stats.Total); err != nil {
		return nil, fmt.Errorf("%w: counting orders: %v", ErrDatabaseError, err)
	}
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM orders WHERE created_at >= $1`, startOfDay).Scan(&stats.Today); err != nil {
		return nil, fmt.Errorf("%w: counting today's orders: %v", ErrDatabaseError, err)
	}

	rows, err := r.db.Query(`SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("%w: grouping orders by status: %v", ErrDatabaseError, err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("%w: scanning status group: %v", ErrDatabaseError, err)
		}
		stats.ByStatus[strings.ToLower(status)] = count
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating status groups: %v", ErrDatabaseError, err)
	}

	revQuery := `SELECT COALESCE(SUM(final_amount), 0) FROM orders WHERE status = $1`
	if err := r.db.QueryRow(revQuery+` AND created_at >= $2`, models.OrderStatusPaid, startOfDay).Scan(&stats.Revenue.Today); err != nil {
		return nil, fmt.Errorf("%w: summing today's revenue: %v", ErrDatabaseError, err)
	}
	if err := r.db.QueryRow(revQuery, models.OrderStatusPaid).Scan(&stats.Revenue.Total); err != nil {
		return nil, fmt.Errorf("%w: summing total revenue: %v", ErrDatabaseError, err)
	}

	return stats, nil
}
