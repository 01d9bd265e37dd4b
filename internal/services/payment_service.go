package services

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"restro_backend/internal/events"
	"restro_backend/internal/models"
	"restro_backend/internal/repositories"
	"restro_backend/internal/scheduler"

	"github.com/google/uuid"
)

var (
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrOrderNotPayable      = errors.New("order is not in a payable status")
	ErrActivePaymentExists  = errors.New("an active payment already exists for this order")
	ErrAmountMismatch       = errors.New("payment amount does not match the order's final amount")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrInvalidPaymentStatus = errors.New("invalid payment status")
	ErrRefundNotAllowed     = errors.New("only paid payments can be refunded")
	ErrInvalidRefundAmount  = errors.New("refund amount must be positive and not exceed the original payment")
)

// amountTolerance absorbs float rounding between the client's displayed total
// and the stored final amount.
const amountTolerance = 0.01

// --- DTOs ---

// ProcessPaymentRequest is used for settling an order.
type ProcessPaymentRequest struct {
	OrderID       int64   `json:"order_id" binding:"required"`
	Amount        float64 `json:"amount" binding:"required"`
	PaymentMethod string  `json:"payment_method" binding:"required"`
	HandledBy     *int64  `json:"handled_by"`
	TransactionID *string `json:"transaction_id"`
}

// UpdatePaymentStatusRequest confirms or fails a pending digital payment.
type UpdatePaymentStatusRequest struct {
	Status        string  `json:"status" binding:"required"`
	TransactionID *string `json:"transaction_id"`
	HandledBy     *int64  `json:"handled_by"`
}

// RefundRequest is used for refunding a settled payment. A nil Amount means a
// full refund.
type RefundRequest struct {
	Amount    *float64 `json:"amount"`
	HandledBy *int64   `json:"handled_by"`
	Reason    string   `json:"reason"`
}

// --- PaymentService Interface ---

type PaymentService interface {
	ProcessPayment(req ProcessPaymentRequest) (*models.Payment, error)
	UpdatePaymentStatus(paymentID int64, req UpdatePaymentStatusRequest) (*models.Payment, error)
	ProcessRefund(paymentID int64, req RefundRequest) (*models.Payment, error)
	GetPayments(filters models.PaymentFilters) ([]models.Payment, int, error)
	GetPaymentByID(paymentID int64) (*models.Payment, error)
	GetPaymentByOrder(orderID int64) (*models.Payment, error)
	GetDailySalesReport(date string) (*models.DailySalesReport, error)
}

type paymentService struct {
	paymentRepo repositories.PaymentRepository
	orderSvc    OrderService
	db          *sql.DB
	clock       scheduler.Clock
	publisher   events.Publisher
}

// NewPaymentService creates a new instance of PaymentService.
func NewPaymentService(
	pr repositories.PaymentRepository,
	orderSvc OrderService,
	db *sql.DB,
	clock scheduler.Clock,
	publisher events.Publisher,
) PaymentService {
	return &paymentService{
		paymentRepo: pr,
		orderSvc:    orderSvc,
		db:          db,
		clock:       clock,
		publisher:   publisher,
	}
}

// --- Method Implementations ---

func (s *paymentService) ProcessPayment(req ProcessPaymentRequest) (*models.Payment, error) {
	if !models.IsValidPaymentMethod(req.PaymentMethod) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPaymentMethod, req.PaymentMethod)
	}

	order, err := s.orderSvc.GetOrderByID(req.OrderID)
	if err != nil {
		return nil, err
	}

	switch order.Status {
	case models.OrderStatusServed, models.OrderStatusPending, models.OrderStatusInKitchen:
	default:
		return nil, fmt.Errorf("%w: order is %s", ErrOrderNotPayable, order.Status)
	}

	if math.Abs(req.Amount-order.FinalAmount) > amountTolerance {
		return nil, fmt.Errorf("%w: got %.2f, order total is %.2f", ErrAmountMismatch, req.Amount, order.FinalAmount)
	}

	_, err = s.paymentRepo.FindActivePaymentByOrder(req.OrderID)
	if err == nil {
		return nil, ErrActivePaymentExists
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to check for an active payment: %w", err)
	}

	// Cash settles on the spot; everything else waits for gateway
	// confirmation.
	status := models.PaymentStatusPending
	if req.PaymentMethod == models.PaymentMethodCash {
		status = models.PaymentStatusPaid
	}

	now := s.clock.Now()
	payment := models.Payment{
		OrderID:       req.OrderID,
		TableID:       &order.TableID,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		PaymentStatus: status,
		HandledByID:   req.HandledBy,
		TransactionID: req.TransactionID,
		PaymentTime:   now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	paymentID, err := s.paymentRepo.CreatePayment(s.db, &payment)
	if err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	if status == models.PaymentStatusPaid {
		if _, err := s.orderSvc.MarkOrderPaid(req.OrderID); err != nil {
			return nil, fmt.Errorf("payment %d recorded but order could not be settled: %w", paymentID, err)
		}
	}

	created, err := s.GetPaymentByID(paymentID)
	if err != nil {
		return nil, err
	}
	s.publisher.PublishPaymentEvent(events.PaymentProcessed, paymentID, req.OrderID, created)
	return created, nil
}

func (s *paymentService) UpdatePaymentStatus(paymentID int64, req UpdatePaymentStatusRequest) (*models.Payment, error) {
	if !models.IsValidPaymentStatus(req.Status) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPaymentStatus, req.Status)
	}

	payment, err := s.GetPaymentByID(paymentID)
	if err != nil {
		return nil, err
	}

	if err := s.paymentRepo.UpdatePaymentStatus(s.db, paymentID, req.Status, req.TransactionID, req.HandledBy, s.clock.Now()); err != nil {
		return nil, fmt.Errorf("failed to update status of payment %d: %w", paymentID, err)
	}

	switch req.Status {
	case models.PaymentStatusPaid:
		if _, err := s.orderSvc.MarkOrderPaid(payment.OrderID); err != nil {
			return nil, fmt.Errorf("payment %d confirmed but order could not be settled: %w", paymentID, err)
		}
	case models.PaymentStatusFailed:
		if _, err := s.orderSvc.RevertOrderToServed(payment.OrderID); err != nil {
			return nil, fmt.Errorf("payment %d failed but order could not be reverted: %w", paymentID, err)
		}
	}

	updated, err := s.GetPaymentByID(paymentID)
	if err != nil {
		return nil, err
	}
	s.publisher.PublishPaymentEvent(events.PaymentUpdated, paymentID, payment.OrderID, updated)
	return updated, nil
}

func (s *paymentService) ProcessRefund(paymentID int64, req RefundRequest) (*models.Payment, error) {
	original, err := s.GetPaymentByID(paymentID)
	if err != nil {
		return nil, err
	}
	if original.PaymentStatus != models.PaymentStatusPaid {
		return nil, fmt.Errorf("%w: payment is %s", ErrRefundNotAllowed, original.PaymentStatus)
	}

	refundAmount := original.Amount
	if req.Amount != nil {
		refundAmount = *req.Amount
	}
	if refundAmount <= 0 || refundAmount > original.Amount+amountTolerance {
		return nil, fmt.Errorf("%w: %.2f against original %.2f", ErrInvalidRefundAmount, refundAmount, original.Amount)
	}
	fullRefund := math.Abs(refundAmount-original.Amount) <= amountTolerance

	now := s.clock.Now()
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	// The ledger is append-only: a refund is a new negative row, never an
	// edit of the original amount.
	refundRef := "REFUND-" + strings.ToUpper(uuid.NewString()[:8])
	refund := models.Payment{
		OrderID:       original.OrderID,
		TableID:       original.TableID,
		Amount:        -refundAmount,
		PaymentMethod: original.PaymentMethod,
		PaymentStatus: models.PaymentStatusRefunded,
		HandledByID:   req.HandledBy,
		TransactionID: &refundRef,
		PaymentTime:   now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	refundID, err := s.paymentRepo.CreatePayment(tx, &refund)
	if err != nil {
		return nil, fmt.Errorf("failed to record refund: %w", err)
	}

	if fullRefund {
		if err := s.paymentRepo.MarkRefunded(tx, paymentID, now); err != nil {
			return nil, fmt.Errorf("failed to mark payment %d refunded: %w", paymentID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit refund: %w", err)
	}

	created, err := s.GetPaymentByID(refundID)
	if err != nil {
		return nil, err
	}
	s.publisher.PublishPaymentEvent(events.PaymentRefunded, refundID, original.OrderID, created)
	return created, nil
}

func (s *paymentService) GetPayments(filters models.PaymentFilters) ([]models.Payment, int, error) {
	payments, totalCount, err := s.paymentRepo.GetPayments(filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get payments: %w", err)
	}
	return payments, totalCount, nil
}

func (s *paymentService) GetPaymentByID(paymentID int64) (*models.Payment, error) {
	payment, err := s.paymentRepo.GetPaymentByID(paymentID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to get payment %d: %w", paymentID, err)
	}
	return payment, nil
}

func (s *paymentService) GetPaymentByOrder(orderID int64) (*models.Payment, error) {
	payment, err := s.paymentRepo.GetPaymentByOrderID(orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to get payment for order %d: %w", orderID, err)
	}
	return payment, nil
}

// GetDailySalesReport aggregates settled payments for one calendar day. An
// empty date means today.
func (s *paymentService) GetDailySalesReport(date string) (*models.DailySalesReport, error) {
	day := s.clock.Now()
	if date != "" {
		parsed, err := time.Parse("2006-01-02", date)
		if err != nil {
			return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
		}
		day = parsed
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	summary, err := s.paymentRepo.GetDailySummary(start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize daily sales: %w", err)
	}
	methods, err := s.paymentRepo.GetMethodBreakdown(&start, &end)
	if err != nil {
		return nil, fmt.Errorf("failed to break sales down by method: %w", err)
	}
	hourly, err := s.paymentRepo.GetHourlyBreakdown(start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to break sales down by hour: %w", err)
	}
	transactions, err := s.paymentRepo.GetPaidBetween(start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list the day's transactions: %w", err)
	}

	return &models.DailySalesReport{
		Date:            start.Format("2006-01-02"),
		Summary:         *summary,
		PaymentMethods:  methods,
		HourlyBreakdown: hourly,
		Transactions:    transactions,
	}, nil
}
