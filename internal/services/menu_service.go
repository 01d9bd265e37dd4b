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
	ErrCategoryNotFound          = errors.New("category not found")
	ErrInvalidAvailabilityStatus = errors.New("invalid availability status")
)

// --- DTOs ---

// CreateCategoryRequest is used for adding a menu category.
type CreateCategoryRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
}

// CreateMenuItemRequest is used for adding a catalog entry.
type CreateMenuItemRequest struct {
	CategoryID  *int64  `json:"category_id"`
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
	Price       float64 `json:"price" binding:"gte=0"`
}

// UpdateMenuItemRequest is used for editing a catalog entry. Price edits never
// touch items already captured on orders.
type UpdateMenuItemRequest struct {
	CategoryID  *int64   `json:"category_id"`
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
}

// --- MenuService Interface ---

type MenuService interface {
	CreateCategory(req CreateCategoryRequest) (*models.Category, error)
	GetCategories() ([]models.Category, error)
	UpdateCategory(categoryID int64, req CreateCategoryRequest) (*models.Category, error)
	DeleteCategory(categoryID int64) error

	CreateMenuItem(req CreateMenuItemRequest) (*models.MenuItem, error)
	GetMenuItemByID(itemID int64) (*models.MenuItem, error)
	GetMenuItems(categoryID *int64, availability *string) ([]models.MenuItem, error)
	UpdateMenuItem(itemID int64, req UpdateMenuItemRequest) (*models.MenuItem, error)
	SetMenuItemAvailability(itemID int64, availability string) (*models.MenuItem, error)
	DeleteMenuItem(itemID int64) error
}

type menuService struct {
	menuRepo repositories.MenuRepository
	db       *sql.DB
	clock    scheduler.Clock
}

// NewMenuService creates a new instance of MenuService.
func NewMenuService(mr repositories.MenuRepository, db *sql.DB, clock scheduler.Clock) MenuService {
	return &menuService{menuRepo: mr, db: db, clock: clock}
}

// --- Method Implementations ---

func (s *menuService) CreateCategory(req CreateCategoryRequest) (*models.Category, error) {
	now := s.clock.Now()
	category := models.Category{
		Name:        req.Name,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	categoryID, err := s.menuRepo.CreateCategory(s.db, &category)
	if err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return s.menuRepo.GetCategoryByID(categoryID)
}

func (s *menuService) GetCategories() ([]models.Category, error) {
	categories, err := s.menuRepo.GetCategories()
	if err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}
	return categories, nil
}

func (s *menuService) UpdateCategory(categoryID int64, req CreateCategoryRequest) (*models.Category, error) {
	category, err := s.menuRepo.GetCategoryByID(categoryID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category %d: %w", categoryID, err)
	}

	category.Name = req.Name
	category.Description = req.Description
	category.UpdatedAt = s.clock.Now()

	if err := s.menuRepo.UpdateCategory(s.db, category); err != nil {
		return nil, fmt.Errorf("failed to update category %d: %w", categoryID, err)
	}
	return s.menuRepo.GetCategoryByID(categoryID)
}

func (s *menuService) DeleteCategory(categoryID int64) error {
	if err := s.menuRepo.DeleteCategory(s.db, categoryID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("failed to delete category %d: %w", categoryID, err)
	}
	return nil
}

func (s *menuService) CreateMenuItem(req CreateMenuItemRequest) (*models.MenuItem, error) {
	if req.Price < 0 {
		return nil, fmt.Errorf("%w: price cannot be negative", ErrValidation)
	}
	if req.CategoryID != nil {
		if _, err := s.menuRepo.GetCategoryByID(*req.CategoryID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, fmt.Errorf("%w: ID %d", ErrCategoryNotFound, *req.CategoryID)
			}
			return nil, fmt.Errorf("failed to fetch category %d: %w", *req.CategoryID, err)
		}
	}

	now := s.clock.Now()
	item := models.MenuItem{
		CategoryID:         req.CategoryID,
		Name:               req.Name,
		Description:        req.Description,
		Price:              req.Price,
		AvailabilityStatus: models.MenuItemAvailable,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	itemID, err := s.menuRepo.CreateMenuItem(s.db, &item)
	if err != nil {
		return nil, fmt.Errorf("failed to create menu item: %w", err)
	}
	return s.GetMenuItemByID(itemID)
}

func (s *menuService) GetMenuItemByID(itemID int64) (*models.MenuItem, error) {
	item, err := s.menuRepo.GetMenuItemByID(itemID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMenuItemNotFound
		}
		return nil, fmt.Errorf("failed to get menu item %d: %w", itemID, err)
	}
	return item, nil
}

func (s *menuService) GetMenuItems(categoryID *int64, availability *string) ([]models.MenuItem, error) {
	items, err := s.menuRepo.GetMenuItems(categoryID, availability)
	if err != nil {
		return nil, fmt.Errorf("failed to get menu items: %w", err)
	}
	return items, nil
}

func (s *menuService) UpdateMenuItem(itemID int64, req UpdateMenuItemRequest) (*models.MenuItem, error) {
	item, err := s.GetMenuItemByID(itemID)
	if err != nil {
		return nil, err
	}

	if req.CategoryID != nil {
		item.CategoryID = req.CategoryID
	}
	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Description != nil {
		item.Description = req.Description
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return nil, fmt.Errorf("%w: price cannot be negative", ErrValidation)
		}
		item.Price = *req.Price
	}
	item.UpdatedAt = s.clock.Now()

	if err := s.menuRepo.UpdateMenuItem(s.db, item); err != nil {
		return nil, fmt.Errorf("failed to update menu item %d: %w", itemID, err)
	}
	return s.GetMenuItemByID(itemID)
}

func (s *menuService) SetMenuItemAvailability(itemID int64, availability string) (*models.MenuItem, error) {
	if availability != models.MenuItemAvailable && availability != models.MenuItemOutOfStock {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAvailabilityStatus, availability)
	}
	if _, err := s.GetMenuItemByID(itemID); err != nil {
		return nil, err
	}
	if err := s.menuRepo.SetMenuItemAvailability(s.db, itemID, availability, s.clock.Now()); err != nil {
		return nil, fmt.Errorf("failed to set availability of menu item %d: %w", itemID, err)
	}
	return s.GetMenuItemByID(itemID)
}

func (s *menuService) DeleteMenuItem(itemID int64) error {
	if err := s.menuRepo.DeleteMenuItem(s.db, itemID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrMenuItemNotFound
		}
		return fmt.Errorf("failed to delete menu item %d: %w", itemID, err)
	}
	return nil
}
