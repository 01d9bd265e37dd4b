package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"restro_backend/internal/models"

	"github.com/lib/pq"
)

// TableRepository defines the database operations of the table registry.
type TableRepository interface {
	CreateTable(executor SQLExecutor, table *models.Table) (int64, error)
	GetTableByID(tableID int64) (*models.Table, error)
	GetTables(status *string) ([]models.Table, error)
	UpdateTable(executor SQLExecutor, table *models.Table) error
	DeleteTable(executor SQLExecutor, tableID int64) error
	AssignWaiter(executor SQLExecutor, tableID int64, waiterID *int64, updatedAt time.Time) error

	SetTableOccupied(executor SQLExecutor, tableID, orderID int64, waiterID *int64, updatedAt time.Time) error
	ClearTable(executor SQLExecutor, tableID int64, updatedAt time.Time) error
	ClearTableIfCurrentOrder(executor SQLExecutor, tableID, orderID int64, updatedAt time.Time) (bool, error)

	GetOccupancy() (*models.TableOccupancy, error)
}

type tableRepository struct {
	db *sql.DB
}

// NewTableRepository creates a new instance of TableRepository.
func NewTableRepository(db *sql.DB) TableRepository {
	return &tableRepository{db: db}
}

const tableColumns = `id, table_number, capacity, status, current_order, assigned_waiter, created_at, updated_at`

func scanTable(row interface{ Scan(...interface{}) error }, t *models.Table) error {
	return row.Scan(
		&t.ID, &t.TableNumber, &t.Capacity, &t.Status, &t.CurrentOrderID, &t.AssignedWaiterID,
		&t.CreatedAt, &t.UpdatedAt,
	)
}

func (r *tableRepository) CreateTable(executor SQLExecutor, table *models.Table) (int64, error) {
	query := `INSERT INTO restaurant_tables (table_number, capacity, status, assigned_waiter, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`
	if table.Status == "" {
		table.Status = models.TableStatusAvailable
	}
	if table.CreatedAt.IsZero() {
		table.CreatedAt = time.Now()
	}
	if table.UpdatedAt.IsZero() {
		table.UpdatedAt = time.Now()
	}

	err := executor.QueryRow(query,
		table.TableNumber, table.Capacity, table.Status, table.AssignedWaiterID,
		table.CreatedAt, table.UpdatedAt,
	).Scan(&table.ID)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return 0, fmt.Errorf("%w: table number %d", ErrDuplicateKey, table.TableNumber)
		}
		return 0, fmt.Errorf("%w: creating table: %v", ErrDatabaseError, err)
	}
	return table.ID, nil
}

func (r *tableRepository) GetTableByID(tableID int64) (*models.Table, error) {
	table := &models.Table{}
	query := `SELECT ` + tableColumns + ` FROM restaurant_tables WHERE id = $1`
	err := scanTable(r.db.QueryRow(query, tableID), table)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting table by ID %d: %v", ErrDatabaseError, tableID, err)
	}
	return table, nil
}

func (r *tableRepository) GetTables(status *string) ([]models.Table, error) {
	tables := []models.Table{}
	query := `SELECT ` + tableColumns + ` FROM restaurant_tables`
	var args []interface{}
	if status != nil && *status != "" {
		query += " WHERE status = $1"
		args = append(args, *status)
	}
	query += " ORDER BY table_number"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying tables: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var t models.Table
		if err := scanTable(rows, &t); err != nil {
			return nil, fmt.Errorf("%w: scanning table: %v", ErrDatabaseError, err)
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

func (r *tableRepository) UpdateTable(executor SQLExecutor, table *models.Table) error {
	query := `UPDATE restaurant_tables
	          SET table_number = $1, capacity = $2, status = $3, updated_at = $4
	          WHERE id = $5`
	result, err := executor.Exec(query, table.TableNumber, table.Capacity, table.Status, time.Now(), table.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("%w: table number %d", ErrDuplicateKey, table.TableNumber)
		}
		return fmt.Errorf("%w: updating table ID %d: %v", ErrDatabaseError, table.ID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for table update ID %d: %v", ErrDatabaseError, table.ID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *tableRepository) DeleteTable(executor SQLExecutor, tableID int64) error {
	result, err := executor.Exec(`DELETE FROM restaurant_tables WHERE id = $1`, tableID)
	if err != nil {
		return fmt.Errorf("%w: deleting table ID %d: %v", ErrDatabaseError, tableID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for table delete ID %d: %v", ErrDatabaseError, tableID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *tableRepository) AssignWaiter(executor SQLExecutor, tableID int64, waiterID *int64, updatedAt time.Time) error {
	result, err := executor.Exec(`UPDATE restaurant_tables SET assigned_waiter = $1, updated_at = $2 WHERE id = $3`,
		waiterID, updatedAt, tableID)
	if err != nil {
		return fmt.Errorf("%w: assigning waiter to table %d: %v", ErrDatabaseError, tableID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for waiter assignment table %d: %v", ErrDatabaseError, tableID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetTableOccupied marks the table occupied by the given order and records the
// waiter chosen during order creation.
func (r *tableRepository) SetTableOccupied(executor SQLExecutor, tableID, orderID int64, waiterID *int64, updatedAt time.Time) error {
	query := `UPDATE restaurant_tables
	          SET status = $1, current_order = $2, assigned_waiter = COALESCE($3, assigned_waiter), updated_at = $4
	          WHERE id = $5`
	result, err := executor.Exec(query, models.TableStatusOccupied, orderID, waiterID, updatedAt, tableID)
	if err != nil {
		return fmt.Errorf("%w: occupying table %d: %v", ErrDatabaseError, tableID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for occupying table %d: %v", ErrDatabaseError, tableID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearTable frees the table unconditionally: status Available, no current
// order.
func (r *tableRepository) ClearTable(executor SQLExecutor, tableID int64, updatedAt time.Time) error {
	query := `UPDATE restaurant_tables SET status = $1, current_order = NULL, updated_at = $2 WHERE id = $3`
	result, err := executor.Exec(query, models.TableStatusAvailable, updatedAt, tableID)
	if err != nil {
		return fmt.Errorf("%w: clearing table %d: %v", ErrDatabaseError, tableID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for clearing table %d: %v", ErrDatabaseError, tableID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearTableIfCurrentOrder frees the table only while its current_order still
// points at the given order. Cancellation paths use this so a cancel of an old
// order cannot blank a table that has since moved on to a newer one.
func (r *tableRepository) ClearTableIfCurrentOrder(executor SQLExecutor, tableID, orderID int64, updatedAt time.Time) (bool, error) {
	query := `UPDATE restaurant_tables
	          SET status = $1, current_order = NULL, updated_at = $2
	          WHERE id = $3 AND current_order = $4`
	result, err := executor.Exec(query, models.TableStatusAvailable, updatedAt, tableID, orderID)
	if err != nil {
		return false, fmt.Errorf("%w: conditionally clearing table %d: %v", ErrDatabaseError, tableID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: getting rows affected for conditional clear of table %d: %v", ErrDatabaseError, tableID, err)
	}
	return rowsAffected > 0, nil
}

func (r *tableRepository) GetOccupancy() (*models.TableOccupancy, error) {
	occupancy := &models.TableOccupancy{}
	query := `SELECT status, COUNT(*) FROM restaurant_tables GROUP BY status`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("%w: querying table occupancy: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("%w: scanning occupancy row: %v", ErrDatabaseError, err)
		}
		occupancy.Total += count
		switch status {
		case models.TableStatusAvailable:
			occupancy.Available = count
		case models.TableStatusOccupied:
			occupancy.Occupied = count
		case models.TableStatusReserved:
			occupancy.Reserved = count
		}
	}
	return occupancy, rows.Err()
}
