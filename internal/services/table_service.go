package services

import (
	"database/sql"
	"errors"
	"fmt"

	"restro_backend/internal/models"
	"restro_backend/internal/repositories"
	"restro_backend/internal/scheduler"
)

var (
	ErrTableNotFound      = errors.New("table not found")
	ErrTableNumberInUse   = errors.New("a table with this number already exists")
	ErrInvalidTableStatus = errors.New("invalid table status")
	ErrTableOccupied      = errors.New("table has an active order and cannot be deleted")
)

// --- DTOs ---

// CreateTableRequest is used for registering a physical table.
type CreateTableRequest struct {
	TableNumber      int    `json:"table_number" binding:"required"`
	Capacity         int    `json:"capacity" binding:"required,gte=1"`
	AssignedWaiterID *int64 `json:"assigned_waiter"`
}

// UpdateTableRequest is used for editing a table's base attributes.
type UpdateTableRequest struct {
	TableNumber *int    `json:"table_number"`
	Capacity    *int    `json:"capacity"`
	Status      *string `json:"status"`
}

// --- TableService Interface ---

type TableService interface {
	CreateTable(req CreateTableRequest) (*models.Table, error)
	GetTableByID(tableID int64) (*models.Table, error)
	GetTables(status *string) ([]models.Table, error)
	UpdateTable(tableID int64, req UpdateTableRequest) (*models.Table, error)
	DeleteTable(tableID int64) error
	AssignWaiter(tableID int64, waiterID *int64) (*models.Table, error)
	ClearTable(tableID int64) (*models.Table, error)
	GetOccupancy() (*models.TableOccupancy, error)
}

type tableService struct {
	tableRepo repositories.TableRepository
	userRepo  repositories.UserRepository
	db        *sql.DB
	clock     scheduler.Clock
}

// NewTableService creates a new instance of TableService.
func NewTableService(tr repositories.TableRepository, ur repositories.UserRepository, db *sql.DB, clock scheduler.Clock) TableService {
	return &tableService{tableRepo: tr, userRepo: ur, db: db, clock: clock}
}

// --- Method Implementations ---

func (s *tableService) CreateTable(req CreateTableRequest) (*models.Table, error) {
	if req.TableNumber <= 0 {
		return nil, fmt.Errorf("%w: table number must be positive", ErrValidation)
	}
	if req.Capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity must be positive", ErrValidation)
	}

	now := s.clock.Now()
	table := models.Table{
		TableNumber:      req.TableNumber,
		Capacity:         req.Capacity,
		Status:           models.TableStatusAvailable,
		AssignedWaiterID: req.AssignedWaiterID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	tableID, err := s.tableRepo.CreateTable(s.db, &table)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: number %d", ErrTableNumberInUse, req.TableNumber)
		}
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	return s.GetTableByID(tableID)
}

func (s *tableService) GetTableByID(tableID int64) (*models.Table, error) {
	table, err := s.tableRepo.GetTableByID(tableID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTableNotFound
		}
		return nil, fmt.Errorf("failed to get table %d: %w", tableID, err)
	}
	return table, nil
}

func (s *tableService) GetTables(status *string) ([]models.Table, error) {
	if status != nil && *status != "" && !models.IsValidTableStatus(*status) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTableStatus, *status)
	}
	tables, err := s.tableRepo.GetTables(status)
	if err != nil {
		return nil, fmt.Errorf("failed to get tables: %w", err)
	}
	return tables, nil
}

func (s *tableService) UpdateTable(tableID int64, req UpdateTableRequest) (*models.Table, error) {
	table, err := s.GetTableByID(tableID)
	if err != nil {
		return nil, err
	}

	if req.TableNumber != nil {
		table.TableNumber = *req.TableNumber
	}
	if req.Capacity != nil {
		if *req.Capacity <= 0 {
			return nil, fmt.Errorf("%w: capacity must be positive", ErrValidation)
		}
		table.Capacity = *req.Capacity
	}
	if req.Status != nil {
		if !models.IsValidTableStatus(*req.Status) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidTableStatus, *req.Status)
		}
		table.Status = *req.Status
	}
	table.UpdatedAt = s.clock.Now()

	if err := s.tableRepo.UpdateTable(s.db, table); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: number %d", ErrTableNumberInUse, table.TableNumber)
		}
		return nil, fmt.Errorf("failed to update table %d: %w", tableID, err)
	}
	return s.GetTableByID(tableID)
}

func (s *tableService) DeleteTable(tableID int64) error {
	table, err := s.GetTableByID(tableID)
	if err != nil {
		return err
	}
	if table.CurrentOrderID != nil {
		return ErrTableOccupied
	}
	if err := s.tableRepo.DeleteTable(s.db, tableID); err != nil {
		return fmt.Errorf("failed to delete table %d: %w", tableID, err)
	}
	return nil
}

func (s *tableService) AssignWaiter(tableID int64, waiterID *int64) (*models.Table, error) {
	if _, err := s.GetTableByID(tableID); err != nil {
		return nil, err
	}
	if waiterID != nil {
		if _, err := s.userRepo.GetUserByID(*waiterID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, fmt.Errorf("%w: ID %d", ErrUserNotFound, *waiterID)
			}
			return nil, fmt.Errorf("failed to fetch waiter %d: %w", *waiterID, err)
		}
	}

	if err := s.tableRepo.AssignWaiter(s.db, tableID, waiterID, s.clock.Now()); err != nil {
		return nil, fmt.Errorf("failed to assign waiter to table %d: %w", tableID, err)
	}
	return s.GetTableByID(tableID)
}

// ClearTable force-frees a table regardless of which order holds it. Staff use
// this to recover from stuck state; the lifecycle paths clear conditionally.
func (s *tableService) ClearTable(tableID int64) (*models.Table, error) {
	if _, err := s.GetTableByID(tableID); err != nil {
		return nil, err
	}
	if err := s.tableRepo.ClearTable(s.db, tableID, s.clock.Now()); err != nil {
		return nil, fmt.Errorf("failed to clear table %d: %w", tableID, err)
	}
	return s.GetTableByID(tableID)
}

func (s *tableService) GetOccupancy() (*models.TableOccupancy, error) {
	occupancy, err := s.tableRepo.GetOccupancy()
	if err != nil {
		return nil, fmt.Errorf("failed to get table occupancy: %w", err)
	}
	return occupancy, nil
}
