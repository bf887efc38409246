package wallets

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/customslinks/customslinks/pkg/customslinks/models"
)

const minWalletAddressLength = 10

// Handler handles crypto wallet requests
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new wallets handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// WalletRequest represents the request to create or update a wallet
type WalletRequest struct {
	Currency      string `json:"currency" binding:"required"`
	WalletAddress string `json:"wallet_address" binding:"required"`
	IsActive      *bool  `json:"is_active"`
}

// ListActive returns the active wallets shown at checkout
func (h *Handler) ListActive(c *gin.Context) {
	var wallets []models.CryptoWallet
	if err := h.db.Where("is_active = ?", true).Order("currency").Find(&wallets).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list wallets"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"wallets": wallets})
}

// List returns all wallets, active or not
func (h *Handler) List(c *gin.Context) {
	var wallets []models.CryptoWallet
	if err := h.db.Order("currency").Find(&wallets).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list wallets"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"wallets": wallets})
}

// Create adds a receiving wallet
func (h *Handler) Create(c *gin.Context) {
	var req WalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.WalletAddress) < minWalletAddressLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Wallet address is too short"})
		return
	}

	wallet := models.CryptoWallet{
		Currency:      strings.ToUpper(req.Currency),
		WalletAddress: req.WalletAddress,
		IsActive:      true,
	}
	if req.IsActive != nil {
		wallet.IsActive = *req.IsActive
	}

	if err := h.db.Create(&wallet).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create wallet"})
		return
	}

	c.JSON(http.StatusCreated, wallet)
}

// Update modifies a wallet
func (h *Handler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid wallet ID"})
		return
	}

	var req WalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.WalletAddress) < minWalletAddressLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Wallet address is too short"})
		return
	}

	var wallet models.CryptoWallet
	if err := h.db.First(&wallet, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Wallet not found"})
		return
	}

	wallet.Currency = strings.ToUpper(req.Currency)
	wallet.WalletAddress = req.WalletAddress
	if req.IsActive != nil {
		wallet.IsActive = *req.IsActive
	}

	if err := h.db.Save(&wallet).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update wallet"})
		return
	}

	c.JSON(http.StatusOK, wallet)
}

// Delete removes a wallet
func (h *Handler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid wallet ID"})
		return
	}

	result := h.db.Delete(&models.CryptoWallet{}, id)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete wallet"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Wallet not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// RegisterRoutes registers public wallet routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/wallets", h.ListActive)
}

// RegisterAdminRoutes registers admin-only wallet routes
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/wallets", h.List)
	rg.POST("/wallets", h.Create)
	rg.PUT("/wallets/:id", h.Update)
	rg.DELETE("/wallets/:id", h.Delete)
}
