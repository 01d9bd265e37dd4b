package router

import (
	"restro_backend/internal/handlers"
	"restro_backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupPublicRoutes registers the routes that require no authentication:
// login and registration, the customer-facing menu, and guest order
// placement.
func SetupPublicRoutes(apiGroup *gin.RouterGroup, authHandler *handlers.AuthHandler, orderHandler *handlers.OrderHandler, menuHandler *handlers.MenuHandler) {
	authRoutes := apiGroup.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
	}

	// Guests browse the menu and place orders from the table QR code.
	apiGroup.GET("/menu/categories", menuHandler.GetCategories)
	apiGroup.GET("/menu/items", menuHandler.GetMenuItems)
	apiGroup.GET("/menu/items/:id", menuHandler.GetMenuItemByID)
	apiGroup.POST("/orders/public", orderHandler.CreateOrder)
}

// SetupOrderRoutes sets up the staff-facing order routes.
func SetupOrderRoutes(authenticatedGroup *gin.RouterGroup, orderHandler *handlers.OrderHandler) {
	orderRoutes := authenticatedGroup.Group("/orders")
	orderRoutes.Use(middleware.RoleAuthMiddleware("admin", "staff", "waiter"))
	{
		orderRoutes.POST("", orderHandler.CreateOrder)
		orderRoutes.GET("", orderHandler.GetOrders)
		orderRoutes.GET("/:id", orderHandler.GetOrderByID)
		orderRoutes.GET("/table/:tableId", orderHandler.GetOrdersByTable)
		orderRoutes.GET("/kitchen/queue", orderHandler.GetKitchenQueue)
		orderRoutes.PATCH("/:id/status", orderHandler.UpdateOrderStatus)
		orderRoutes.PATCH("/:id/items/:itemId/status", orderHandler.UpdateOrderItemStatus)
		orderRoutes.POST("/:id/items", orderHandler.AddItemsToOrder)
		orderRoutes.PATCH("/:id/cancel", orderHandler.CancelOrder)
		orderRoutes.PATCH("/:id/complete", orderHandler.CompleteOrder)
	}
}

// SetupPaymentRoutes sets up the payment and sales reporting routes.
func SetupPaymentRoutes(authenticatedGroup *gin.RouterGroup, paymentHandler *handlers.PaymentHandler) {
	paymentRoutes := authenticatedGroup.Group("/payments")
	paymentRoutes.Use(middleware.RoleAuthMiddleware("admin", "staff"))
	{
		paymentRoutes.POST("", paymentHandler.ProcessPayment)
		paymentRoutes.GET("", paymentHandler.GetPayments)
		paymentRoutes.GET("/reports/daily", paymentHandler.GetDailySalesReport)
		paymentRoutes.GET("/order/:orderId", paymentHandler.GetPaymentByOrder)
		paymentRoutes.GET("/:id", paymentHandler.GetPaymentByID)
		paymentRoutes.PATCH("/:id/status", paymentHandler.UpdatePaymentStatus)
		paymentRoutes.POST("/:id/refund", paymentHandler.ProcessRefund)
	}
}

// SetupTableRoutes sets up the dining table routes.
func SetupTableRoutes(authenticatedGroup *gin.RouterGroup, tableHandler *handlers.TableHandler) {
	tableRoutes := authenticatedGroup.Group("/tables")
	tableRoutes.Use(middleware.RoleAuthMiddleware("admin", "staff", "waiter"))
	{
		tableRoutes.GET("", tableHandler.GetTables)
		tableRoutes.GET("/occupancy", tableHandler.GetOccupancy)
		tableRoutes.GET("/:id", tableHandler.GetTableByID)
		tableRoutes.PATCH("/:id/assign-waiter", tableHandler.AssignWaiter)
		tableRoutes.PATCH("/:id/clear", tableHandler.ClearTable)
	}

	tableAdminRoutes := authenticatedGroup.Group("/tables")
	tableAdminRoutes.Use(middleware.RoleAuthMiddleware("admin", "staff"))
	{
		tableAdminRoutes.POST("", tableHandler.CreateTable)
		tableAdminRoutes.PATCH("/:id", tableHandler.UpdateTable)
		tableAdminRoutes.DELETE("/:id", tableHandler.DeleteTable)
	}
}

// SetupMenuRoutes sets up the menu management routes. Reads are public; only
// mutations live here.
func SetupMenuRoutes(authenticatedGroup *gin.RouterGroup, menuHandler *handlers.MenuHandler) {
	menuRoutes := authenticatedGroup.Group("/menu")
	menuRoutes.Use(middleware.RoleAuthMiddleware("admin", "staff"))
	{
		menuRoutes.POST("/categories", menuHandler.CreateCategory)
		menuRoutes.PATCH("/categories/:id", menuHandler.UpdateCategory)
		menuRoutes.DELETE("/categories/:id", menuHandler.DeleteCategory)

		menuRoutes.POST("/items", menuHandler.CreateMenuItem)
		menuRoutes.PATCH("/items/:id", menuHandler.UpdateMenuItem)
		menuRoutes.PATCH("/items/:id/availability", menuHandler.SetMenuItemAvailability)
		menuRoutes.DELETE("/items/:id", menuHandler.DeleteMenuItem)
	}
}

// SetupUserRoutes sets up the user administration and profile routes.
func SetupUserRoutes(authenticatedGroup *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	authenticatedGroup.GET("/auth/me", authHandler.GetProfile)

	userRoutes := authenticatedGroup.Group("/users")
	userRoutes.Use(middleware.RoleAuthMiddleware("admin"))
	{
		userRoutes.GET("", authHandler.GetUsers)
		userRoutes.PATCH("/:id/status", authHandler.SetUserStatus)
	}

	roleRoutes := authenticatedGroup.Group("/roles")
	roleRoutes.Use(middleware.RoleAuthMiddleware("admin"))
	{
		roleRoutes.GET("", authHandler.GetRoles)
	}
}

// SetupDashboardRoutes sets up the floor overview routes.
func SetupDashboardRoutes(authenticatedGroup *gin.RouterGroup, dashboardHandler *handlers.DashboardHandler) {
	dashboardRoutes := authenticatedGroup.Group("/dashboard")
	dashboardRoutes.Use(middleware.RoleAuthMiddleware("admin", "staff", "waiter"))
	{
		dashboardRoutes.GET("/summary", dashboardHandler.GetSummary)
	}
}
