package payments

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/customslinks/customslinks/pkg/customslinks/models"
	"github.com/customslinks/customslinks/pkg/customslinks/notify"
)

// Handler handles payment-related requests
type Handler struct {
	db           *gorm.DB
	expiryWindow time.Duration
	notifier     *notify.Telegram
	logger       *zap.Logger
}

// NewHandler creates a new payments handler
func NewHandler(db *gorm.DB, expiryWindow time.Duration, notifier *notify.Telegram, logger *zap.Logger) *Handler {
	return &Handler{
		db:           db,
		expiryWindow: expiryWindow,
		notifier:     notifier,
		logger:       logger,
	}
}

// CreatePaymentRequest represents the request to start a payment
type CreatePaymentRequest struct {
	LinkID        uint    `json:"link_id" binding:"required"`
	Amount        float64 `json:"amount" binding:"required,gt=0"`
	Currency      string  `json:"currency" binding:"required"`
	WalletAddress string  `json:"wallet_address" binding:"required"`
}

// ConfirmPaymentRequest represents the manual confirmation of a
// payment by an operator
type ConfirmPaymentRequest struct {
	TransactionHash string `json:"transaction_hash" binding:"required"`
}

// UpdateStatusRequest represents an admin status override
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID              uint    `json:"id"`
	Reference       string  `json:"reference"`
	LinkID          uint    `json:"link_id"`
	Amount          float64 `json:"amount"`
	Currency        string  `json:"currency"`
	WalletAddress   string  `json:"wallet_address"`
	Status          string  `json:"status"`
	TransactionHash string  `json:"transaction_hash,omitempty"`
	ExpiresAt       string  `json:"expires_at"`
	CreatedAt       string  `json:"created_at"`
}

func paymentToResponse(p models.Payment) PaymentResponse {
	return PaymentResponse{
		ID:              p.ID,
		Reference:       p.Reference,
		LinkID:          p.LinkID,
		Amount:          p.Amount,
		Currency:        p.Currency,
		WalletAddress:   p.WalletAddress,
		Status:          string(p.Status),
		TransactionHash: p.TransactionHash,
		ExpiresAt:       p.ExpiresAt.Format(time.RFC3339),
		CreatedAt:       p.CreatedAt.Format(time.RFC3339),
	}
}

// Create opens a pending payment for a link. The payment carries a
// unique reference the payer must include, and expires after the
// configured window if never confirmed.
func (h *Handler) Create(c *gin.Context) {
	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var link models.Link
	if err := h.db.First(&link, req.LinkID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Link not found"})
		return
	}
	if link.Status != models.StatusPendingPayment {
		c.JSON(http.StatusConflict, gin.H{"error": "Link is not awaiting payment"})
		return
	}

	payment := models.Payment{
		Reference:     uuid.NewString(),
		LinkID:        link.ID,
		Amount:        req.Amount,
		Currency:      strings.ToUpper(req.Currency),
		WalletAddress: req.WalletAddress,
		Status:        models.PaymentPending,
		ExpiresAt:     time.Now().Add(h.expiryWindow),
	}

	if err := h.db.Create(&payment).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create payment"})
		return
	}

	c.JSON(http.StatusCreated, paymentToResponse(payment))
}

// Get returns a payment by its reference
func (h *Handler) Get(c *gin.Context) {
	var payment models.Payment
	if err := h.db.Where("reference = ?", c.Param("reference")).First(&payment).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Payment not found"})
		return
	}
	c.JSON(http.StatusOK, paymentToResponse(payment))
}

// List returns payments, newest first, optionally filtered by status
func (h *Handler) List(c *gin.Context) {
	query := h.db.Order("created_at DESC")

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if limitStr := c.Query("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			query = query.Limit(limit)
		}
	}

	var payments []models.Payment
	if err := query.Find(&payments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list payments"})
		return
	}

	responses := make([]PaymentResponse, 0, len(payments))
	for _, p := range payments {
		responses = append(responses, paymentToResponse(p))
	}
	c.JSON(http.StatusOK, gin.H{"payments": responses})
}

// Confirm marks a pending payment confirmed and activates its link.
// The transaction hash is recorded for the audit trail. Confirmation
// and activation commit together; the notification is best effort.
func (h *Handler) Confirm(c *gin.Context) {
	var req ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var payment models.Payment
	if err := h.db.Where("reference = ?", c.Param("reference")).First(&payment).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Payment not found"})
		return
	}
	if payment.Status != models.PaymentPending {
		c.JSON(http.StatusConflict, gin.H{"error": "Payment is not pending"})
		return
	}
	if time.Now().After(payment.ExpiresAt) {
		c.JSON(http.StatusConflict, gin.H{"error": "Payment window has expired"})
		return
	}

	var link models.Link
	err := h.db.Transaction(func(tx *gorm.DB) error {
		payment.Status = models.PaymentConfirmed
		payment.TransactionHash = req.TransactionHash
		if err := tx.Save(&payment).Error; err != nil {
			return err
		}
		if err := tx.First(&link, payment.LinkID).Error; err != nil {
			return err
		}
		link.Status = models.StatusActive
		return tx.Save(&link).Error
	})
	if err != nil {
		h.logger.Error("payments: confirmation failed", zap.String("reference", payment.Reference), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to confirm payment"})
		return
	}

	shortURL := link.CustomDomain + "/" + link.ShortCode
	h.notifier.PaymentConfirmed(payment.Reference, shortURL, payment.Amount, payment.Currency)
	h.logger.Info("payments: confirmed",
		zap.String("reference", payment.Reference),
		zap.Uint("link_id", link.ID),
	)

	c.JSON(http.StatusOK, paymentToResponse(payment))
}

// UpdateStatus lets an admin move a payment between pending and
// expired, e.g. to reopen a window after a late transfer. Confirmation
// must go through Confirm so the link activates with it.
func (h *Handler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status := models.PaymentStatus(req.Status)
	if status != models.PaymentPending && status != models.PaymentExpired {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Status must be pending or expired"})
		return
	}

	var payment models.Payment
	if err := h.db.Where("reference = ?", c.Param("reference")).First(&payment).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Payment not found"})
		return
	}
	if payment.Status == models.PaymentConfirmed {
		c.JSON(http.StatusConflict, gin.H{"error": "Confirmed payments cannot change status"})
		return
	}

	payment.Status = status
	if status == models.PaymentPending {
		// reopening restarts the expiry window
		payment.ExpiresAt = time.Now().Add(h.expiryWindow)
	}

	if err := h.db.Save(&payment).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update payment"})
		return
	}

	c.JSON(http.StatusOK, paymentToResponse(payment))
}

// RegisterRoutes registers public payment routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/payments", h.Create)
	rg.GET("/payments/:reference", h.Get)
}

// RegisterAdminRoutes registers admin-only payment routes
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/payments", h.List)
	rg.POST("/payments/:reference/confirm", h.Confirm)
	rg.PUT("/payments/:reference/status", h.UpdateStatus)
}
