package services

import (
	"fmt"

	"restro_backend/internal/models"
	"restro_backend/internal/repositories"
)

// DashboardSummary is the single payload behind the operations dashboard.
type DashboardSummary struct {
	Orders        *models.OrderStatistics     `json:"orders"`
	Tables        *models.TableOccupancy      `json:"tables"`
	SalesByMethod []models.PaymentMethodTotal `json:"sales_by_method"`
}

type DashboardService interface {
	GetSummary() (*DashboardSummary, error)
}

type dashboardService struct {
	orderRepo   repositories.OrderRepository
	tableRepo   repositories.TableRepository
	paymentRepo repositories.PaymentRepository
}

// NewDashboardService creates a new instance of DashboardService.
func NewDashboardService(or repositories.OrderRepository, tr repositories.TableRepository, pr repositories.PaymentRepository) DashboardService {
	return &dashboardService{orderRepo: or, tableRepo: tr, paymentRepo: pr}
}

func (s *dashboardService) GetSummary() (*DashboardSummary, error) {
	orderStats, err := s.orderRepo.GetOrderStatistics()
	if err != nil {
		return nil, fmt.Errorf("failed to get order statistics: %w", err)
	}
	occupancy, err := s.tableRepo.GetOccupancy()
	if err != nil {
		return nil, fmt.Errorf("failed to get table occupancy: %w", err)
	}
	methods, err := s.paymentRepo.GetMethodBreakdown(nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get sales by method: %w", err)
	}

	return &DashboardSummary{
		Orders:        orderStats,
		Tables:        occupancy,
		SalesByMethod: methods,
	}, nil
}
