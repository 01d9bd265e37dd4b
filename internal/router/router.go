package router

import (
	"database/sql"

	"restro_backend/internal/events"
	"restro_backend/internal/handlers"
	"restro_backend/internal/middleware"
	"restro_backend/internal/repositories"
	"restro_backend/internal/scheduler"
	"restro_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// Deps bundles everything the routing layer needs that is constructed in main.
type Deps struct {
	DB        *sql.DB
	Scheduler *scheduler.OrderTimeoutScheduler
	Clock     scheduler.Clock
	Publisher events.Publisher
	OrderCfg  services.OrderConfig
}

// Setup wires repositories, services, and handlers, and registers all routes
// on the engine. It returns the order service so main can restore pending
// timeouts before the server starts listening.
func Setup(engine *gin.Engine, deps Deps) services.OrderService {
	// Repositories
	orderRepo := repositories.NewOrderRepository(deps.DB)
	tableRepo := repositories.NewTableRepository(deps.DB)
	menuRepo := repositories.NewMenuRepository(deps.DB)
	userRepo := repositories.NewUserRepository(deps.DB)
	paymentRepo := repositories.NewPaymentRepository(deps.DB)

	// Services
	orderService := services.NewOrderService(orderRepo, tableRepo, menuRepo, userRepo, deps.DB, deps.Scheduler, deps.Clock, deps.Publisher, deps.OrderCfg)
	deps.Scheduler.Bind(orderService.HandleOrderTimeout)
	paymentService := services.NewPaymentService(paymentRepo, orderService, deps.DB, deps.Clock, deps.Publisher)
	tableService := services.NewTableService(tableRepo, userRepo, deps.DB, deps.Clock)
	menuService := services.NewMenuService(menuRepo, deps.DB, deps.Clock)
	authService := services.NewAuthService(userRepo, deps.DB, deps.Clock)
	dashboardService := services.NewDashboardService(orderRepo, tableRepo, paymentRepo)

	// Handlers
	orderHandler := handlers.NewOrderHandler(orderService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	tableHandler := handlers.NewTableHandler(tableService)
	menuHandler := handlers.NewMenuHandler(menuService)
	authHandler := handlers.NewAuthHandler(authService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)

	apiV1 := engine.Group("/api/v1")

	SetupPublicRoutes(apiV1, authHandler, orderHandler, menuHandler)

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware())
	{
		SetupOrderRoutes(authenticated, orderHandler)
		SetupPaymentRoutes(authenticated, paymentHandler)
		SetupTableRoutes(authenticated, tableHandler)
		SetupMenuRoutes(authenticated, menuHandler)
		SetupUserRoutes(authenticated, authHandler)
		SetupDashboardRoutes(authenticated, dashboardHandler)
	}

	return orderService
}
