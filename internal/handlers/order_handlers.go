package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"restro_backend/internal/models"
	"restro_backend/internal/services"
	"restro_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// OrderHandler handles HTTP requests related to orders.
type OrderHandler struct {
	orderService services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(os services.OrderService) *OrderHandler {
	return &OrderHandler{orderService: os}
}

// CreateOrder handles POST /api/v1/orders
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req services.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	order, err := h.orderService.CreateOrder(req)
	if err != nil {
		var capErr *services.KitchenCapacityError
		var itemErr *services.ItemValidationError
		switch {
		case errors.As(err, &capErr):
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error": gin.H{
					"code":          "KITCHEN_AT_CAPACITY",
					"message":       capErr.Error(),
					"active_orders": capErr.ActiveOrders,
					"max_capacity":  capErr.MaxCapacity,
				},
			})
		case errors.As(err, &itemErr):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": gin.H{
					"code":     utils.ErrCodeValidationFailed,
					"message":  "One or more order items are invalid",
					"problems": itemErr.Problems,
				},
			})
		case errors.Is(err, services.ErrDuplicateOrder):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "A similar order was placed for this table moments ago", err.Error()))
		case errors.Is(err, services.ErrTableNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Table not found", err.Error()))
		case errors.Is(err, services.ErrValidation):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), err.Error()))
		default:
			utils.LogError(err, "CreateOrder: service error")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to create order", err.Error()))
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"order": order, "stats": order.Stats()})
}

// GetOrders handles GET /api/v1/orders
func (h *OrderHandler) GetOrders(c *gin.Context) {
	var filters models.OrderFilters

	if status := c.Query("status"); status != "" {
		filters.Status = &status
	}
	if tableIDStr := c.Query("table_id"); tableIDStr != "" {
		tableID, err := strconv.ParseInt(tableIDStr, 10, 64)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid table_id query parameter", err.Error()))
			return
		}
		filters.TableID = &tableID
	}
	if startDate := c.Query("start_date"); startDate != "" {
		filters.StartDate = &startDate
	}
	if endDate := c.Query("end_date"); endDate != "" {
		filters.EndDate = &endDate
	}
	filters.SortBy = c.DefaultQuery("sort_by", "created_at")
	filters.SortOrder = c.DefaultQuery("sort_order", "desc")

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	if err != nil || pageSize < 1 {
		pageSize = 10
	}
	filters.Page = page
	filters.PageSize = pageSize

	orders, total, stats, err := h.orderService.GetOrders(filters)
	if err != nil {
		utils.LogError(err, "GetOrders: service error")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to retrieve orders", err.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       orders,
		"statistics": stats,
		"total":      total,
		"page":       page,
		"page_size":  pageSize,
	})
}

// GetOrderByID handles GET /api/v1/orders/:id
func (h *OrderHandler) GetOrderByID(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid order ID format", err.Error()))
		return
	}

	order, err := h.orderService.GetOrderByID(orderID)
	if err != nil {
		if errors.Is(err, services.ErrOrderNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Order not found", err.Error()))
		} else {
			utils.LogError(err, "GetOrderByID: service error")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to retrieve order", err.Error()))
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order, "stats": order.Stats()})
}

// GetOrdersByTable handles GET /api/v1/orders/table/:tableId
func (h *OrderHandler) GetOrdersByTable(c *gin.Context) {
	tableID, err := strconv.ParseInt(c.Param("tableId"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid table ID format", err.Error()))
		return
	}

	var status *string
	if s := c.Query("status"); s != "" {
		status = &s
	}

	orders, err := h.orderService.GetOrdersByTable(tableID, status)
	if err != nil {
		if errors.Is(err, services.ErrTableNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Table not found", err.Error()))
		} else {
			utils.LogError(err, "GetOrdersByTable: service error")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to retrieve orders for table", err.Error()))
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": orders, "total": len(orders)})
}

// GetKitchenQueue handles GET /api/v1/orders/kitchen/queue
func (h *OrderHandler) GetKitchenQueue(c *gin.Context) {
	orders, err := h.orderService.GetKitchenOrders()
	if err != nil {
		utils.LogError(err, "GetKitchenQueue: service error")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to retrieve kitchen queue", err.Error()))
		return
	}

	if status := c.Query("status"); status != "" {
		filtered := orders[:0]
		for _, o := range orders {
			if o.Status == status {
				filtered = append(filtered, o)
			}
		}
		orders = filtered
	}

	c.JSON(http.StatusOK, gin.H{"data": orders, "total": len(orders)})
}

// UpdateOrderStatus handles PATCH /api/v1/orders/:id/status
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid order ID format", err.Error()))
		return
	}

	var req services.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	order, err := h.orderService.UpdateOrderStatus(orderID, req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrOrderNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Order not found", err.Error()))
		case errors.Is(err, services.ErrInvalidOrderStatus):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid order status", err.Error()))
		case errors.Is(err, services.ErrValidation):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid staff reference", err.Error()))
		case errors.Is(err, services.ErrOrderNotCancellable), errors.Is(err, services.ErrOrderNotCompletable), errors.Is(err, services.ErrOrderLocked):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Order cannot transition to the requested status", err.Error()))
		default:
			utils.LogError(err, "UpdateOrderStatus: service error")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to update order status", err.Error()))
		}
		return
	}

	c.JSON(http.StatusOK, order)
}

// UpdateOrderItemStatus handles PATCH /api/v1/orders/:id/items/:itemId/status
func (h *OrderHandler) UpdateOrderItemStatus(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid order ID format", err.Error()))
		return
	}
	itemID, err := strconv.ParseInt(c.Param("itemId"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid item ID format", err.Error()))
		return
	}

	var req services.UpdateItemStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	order, err := h.orderService.UpdateOrderItemStatus(orderID, itemID, req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrOrderNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Order or order item not found", err.Error()))
		case errors.Is(err, services.ErrInvalidItemStatus):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid item status", err.Error()))
		case errors.Is(err, services.ErrOrderLocked):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Order is no longer editable", err.Error()))
		default:
			utils.LogError(err, "UpdateOrderItemStatus: service error")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to update item status", err.Error()))
		}
		return
	}

	c.JSON(http.StatusOK, order)
}

// AddItemsToOrder handles POST /api/v1/orders/:id/items
func (h *OrderHandler) AddItemsToOrder(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid order ID format", err.Error()))
		return
	}

	var req struct {
		Items []services.CreateOrderItemRequest `json:"items" binding:"required,dive"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	order, err := h.orderService.AddItemsToOrder(orderID, req.Items)
	if err != nil {
		var itemErr *services.ItemValidationError
		switch {
		case errors.As(err, &itemErr):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": gin.H{
					"code":     utils.ErrCodeValidationFailed,
					"message":  "One or more order items are invalid",
					"problems": itemErr.Problems,
				},
			})
		case errors.Is(err, services.ErrOrderNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Order not found", err.Error()))
		case errors.Is(err, services.ErrOrderLocked):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Order is no longer editable", err.Error()))
		case errors.Is(err, services.ErrValidation):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), err.Error()))
		default:
			utils.LogError(err, "AddItemsToOrder: service error")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to add items to order", err.Error()))
		}
		return
	}

	c.JSON(http.StatusOK, order)
}

// CancelOrder handles PATCH /api/v1/orders/:id/cancel
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid order ID format", err.Error()))
		return
	}

	// The body is optional. No reason produces the generic staff-cancel note.
	var req services.CancelOrderRequest
	_ = c.ShouldBindJSON(&req)

	order, err := h.orderService.CancelOrder(orderID, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrOrderNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Order not found", err.Error()))
		case errors.Is(err, services.ErrOrderNotCancellable):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Order can no longer be cancelled", err.Error()))
		default:
			utils.LogError(err, "CancelOrder: service error")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to cancel order", err.Error()))
		}
		return
	}

	c.JSON(http.StatusOK, order)
}

// CompleteOrder handles PATCH /api/v1/orders/:id/complete
func (h *OrderHandler) CompleteOrder(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid order ID format", err.Error()))
		return
	}

	order, err := h.orderService.CompleteOrder(orderID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrOrderNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Order not found", err.Error()))
		case errors.Is(err, services.ErrOrderNotCompletable):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Order must be paid before completion", err.Error()))
		default:
			utils.LogError(err, "CompleteOrder: service error")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to complete order", err.Error()))
		}
		return
	}

	c.JSON(http.StatusOK, order)
}
