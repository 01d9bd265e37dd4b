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

// PaymentHandler handles HTTP requests related to payments and sales reports.
type PaymentHandler struct {
	paymentService services.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(ps services.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: ps}
}

// ProcessPayment handles POST /api/v1/payments
func (h *PaymentHandler) ProcessPayment(c *gin.Context) {
	var req services.ProcessPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	payment, err := h.paymentService.ProcessPayment(req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrOrderNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Order not found", err.Error()))
		case errors.Is(err, services.ErrOrderNotPayable):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Order is not in a payable state", err.Error()))
		case errors.Is(err, services.ErrActivePaymentExists):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "An active payment already exists for this order", err.Error()))
		case errors.Is(err, services.ErrAmountMismatch):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Payment amount does not match the order total", err.Error()))
		case errors.Is(err, services.ErrInvalidPaymentMethod):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid payment method", err.Error()))
		default:
			utils.LogError(err, "ProcessPayment: service error")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to process payment", err.Error()))
		}
		return
	}

	c.JSON(http.StatusCreated, payment)
}

// GetPayments handles GET /api/v1/payments
func (h *PaymentHandler) GetPayments(c *gin.Context) {
	var filters models.PaymentFilters

	if status := c.Query("payment_status"); status != "" {
		filters.PaymentStatus = &status
	}
	if method := c.Query("payment_method"); method != "" {
		filters.PaymentMethod = &method
	}
	if startDate := c.Query("start_date"); startDate != "" {
		filters.StartDate = &startDate
	}
	if endDate := c.Query("end_date"); endDate != "" {
		filters.EndDate = &endDate
	}
	filters.SortBy = c.DefaultQuery("sort_by", "payment_date")
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

	payments, total, err := h.paymentService.GetPayments(filters)
	if err != nil {
		utils.LogError(err, "GetPayments: service error")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to retrieve payments", err.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":      payments,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetPaymentByID handles GET /api/v1/payments/:id
func (h *PaymentHandler) GetPaymentByID(c *gin.Context) {
	paymentID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid payment ID format", err.Error()))
		return
	}

	payment, err := h.paymentService.GetPaymentByID(paymentID)
	if err != nil {
		if errors.Is(err, services.ErrPaymentNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Payment not found", err.Error()))
		} else {
			utils.LogError(err, "GetPaymentByID: service error")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to retrieve payment", err.Error()))
		}
		return
	}

	c.JSON(http.StatusOK, payment)
}

// GetPaymentByOrder handles GET /api/v1/payments/order/:orderId
func (h *PaymentHandler) GetPaymentByOrder(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("orderId"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid order ID format", err.Error()))
		return
	}

	payment, err := h.paymentService.GetPaymentByOrder(orderID)
	if err != nil {
		if errors.Is(err, services.ErrPaymentNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "No payment found for this order", err.Error()))
		} else {
			utils.LogError(err, "GetPaymentByOrder: service error")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to retrieve payment", err.Error()))
		}
		return
	}

	c.JSON(http.StatusOK, payment)
}

// UpdatePaymentStatus handles PATCH /api/v1/payments/:id/status
func (h *PaymentHandler) UpdatePaymentStatus(c *gin.Context) {
	paymentID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid payment ID format", err.Error()))
		return
	}

	var req services.UpdatePaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	payment, err := h.paymentService.UpdatePaymentStatus(paymentID, req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPaymentNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Payment not found", err.Error()))
		case errors.Is(err, services.ErrInvalidPaymentStatus):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid payment status", err.Error()))
		default:
			utils.LogError(err, "UpdatePaymentStatus: service error")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to update payment status", err.Error()))
		}
		return
	}

	c.JSON(http.StatusOK, payment)
}

// ProcessRefund handles POST /api/v1/payments/:id/refund
func (h *PaymentHandler) ProcessRefund(c *gin.Context) {
	paymentID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid payment ID format", err.Error()))
		return
	}

	// The body is optional. No amount means a full refund.
	var req services.RefundRequest
	_ = c.ShouldBindJSON(&req)

	refund, err := h.paymentService.ProcessRefund(paymentID, req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPaymentNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Payment not found", err.Error()))
		case errors.Is(err, services.ErrRefundNotAllowed):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Only settled payments can be refunded", err.Error()))
		case errors.Is(err, services.ErrInvalidRefundAmount):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid refund amount", err.Error()))
		default:
			utils.LogError(err, "ProcessRefund: service error")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to process refund", err.Error()))
		}
		return
	}

	c.JSON(http.StatusCreated, refund)
}

// GetDailySalesReport handles GET /api/v1/payments/reports/daily
func (h *PaymentHandler) GetDailySalesReport(c *gin.Context) {
	date := c.Query("date")

	report, err := h.paymentService.GetDailySalesReport(date)
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid date, expected YYYY-MM-DD", err.Error()))
		} else {
			utils.LogError(err, "GetDailySalesReport: service error")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to build sales report", err.Error()))
		}
		return
	}

	c.JSON(http.StatusOK, report)
}
