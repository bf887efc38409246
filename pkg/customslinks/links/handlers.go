package links

import (
	"errors"
	"math/rand"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/customslinks/customslinks/pkg/customslinks/middleware"
	"github.com/customslinks/customslinks/pkg/customslinks/models"
)

var codeRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// reserved short codes that collide with server routes
var reservedCodes = []string{"api", "health", "metrics", "auth", "admin"}

const generatedCodeLength = 6

// Handler handles link-related requests
type Handler struct {
	db            *gorm.DB
	defaultDomain string
}

// NewHandler creates a new links handler
func NewHandler(db *gorm.DB, defaultDomain string) *Handler {
	return &Handler{db: db, defaultDomain: defaultDomain}
}

// CreateLinkRequest represents the request to create a link
type CreateLinkRequest struct {
	OriginalURL  string `json:"original_url" binding:"required,url"`
	CustomCode   string `json:"custom_code" binding:"omitempty,min=1,max=50"`
	CustomDomain string `json:"custom_domain"`
	PlanType     string `json:"plan_type"`
}

// UpdateLinkRequest represents the request to update a link
type UpdateLinkRequest struct {
	OriginalURL  string `json:"original_url" binding:"omitempty,url"`
	CustomDomain string `json:"custom_domain"`
	Status       string `json:"status"`
}

// LinkResponse represents a link in API responses
type LinkResponse struct {
	ID           uint   `json:"id"`
	ShortCode    string `json:"short_code"`
	CustomDomain string `json:"custom_domain"`
	ShortURL     string `json:"short_url"`
	OriginalURL  string `json:"original_url"`
	PlanType     string `json:"plan_type"`
	Status       string `json:"status"`
	ClickCount   uint   `json:"click_count"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

func linkToResponse(link models.Link) LinkResponse {
	return LinkResponse{
		ID:           link.ID,
		ShortCode:    link.ShortCode,
		CustomDomain: link.CustomDomain,
		ShortURL:     link.CustomDomain + "/" + link.ShortCode,
		OriginalURL:  link.OriginalURL,
		PlanType:     string(link.PlanType),
		Status:       string(link.Status),
		ClickCount:   link.ClickCount,
		CreatedAt:    link.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:    link.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

// ValidationError represents a validation error
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// validateCode checks if a custom short code is valid and available
// within a domain
func (h *Handler) validateCode(code, domain string) error {
	if code == "" {
		return nil
	}

	if !codeRegex.MatchString(code) {
		return &ValidationError{"Short code must contain only letters, numbers, hyphens, and underscores"}
	}

	for _, r := range reservedCodes {
		if strings.EqualFold(code, r) {
			return &ValidationError{"This short code is reserved"}
		}
	}

	var existing models.Link
	if err := h.db.Where("custom_domain = ? AND short_code = ?", domain, code).First(&existing).Error; err == nil {
		return &ValidationError{"This short code is already taken"}
	}

	return nil
}

// generateRandomString creates a random string of given length
func generateRandomString(length int, charset string) string {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[r.Intn(len(charset))]
	}
	return string(b)
}

// generateCode creates a short code unique within a domain
func (h *Handler) generateCode(domain string) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	for attempts := 0; attempts < 10; attempts++ {
		code := generateRandomString(generatedCodeLength, charset)
		var existing models.Link
		if err := h.db.Where("custom_domain = ? AND short_code = ?", domain, code).First(&existing).Error; err != nil {
			return code, nil
		}
	}
	return "", errors.New("could not generate unique short code")
}

// Create handles link creation. Links start in pending_payment and
// only become resolvable once their payment is confirmed.
func (h *Handler) Create(c *gin.Context) {
	var req CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	domain := req.CustomDomain
	if domain == "" {
		domain = h.defaultDomain
	}

	plan := models.PlanBasic
	if req.PlanType != "" {
		plan = models.PlanType(req.PlanType)
		if plan != models.PlanBasic && plan != models.PlanPro {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid plan type"})
			return
		}
	}

	code := req.CustomCode
	if code != "" {
		if err := h.validateCode(code, domain); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	} else {
		var err error
		code, err = h.generateCode(domain)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not generate unique short code"})
			return
		}
	}

	link := models.Link{
		ShortCode:    code,
		CustomDomain: domain,
		OriginalURL:  req.OriginalURL,
		PlanType:     plan,
		Status:       models.StatusPendingPayment,
	}

	if err := h.db.Create(&link).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create link"})
		return
	}

	middleware.RecordLinkCreated()
	c.JSON(http.StatusCreated, linkToResponse(link))
}

// Get returns a single link by ID
func (h *Handler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid link ID"})
		return
	}

	var link models.Link
	if err := h.db.First(&link, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Link not found"})
		return
	}

	c.JSON(http.StatusOK, linkToResponse(link))
}

// List returns links, newest first, optionally filtered by status
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

	var links []models.Link
	if err := query.Find(&links).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list links"})
		return
	}

	responses := make([]LinkResponse, 0, len(links))
	for _, link := range links {
		responses = append(responses, linkToResponse(link))
	}
	c.JSON(http.StatusOK, gin.H{"links": responses})
}

// Update modifies a link. Editing the destination of an already
// active link is a pro plan feature.
func (h *Handler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid link ID"})
		return
	}

	var req UpdateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var link models.Link
	if err := h.db.First(&link, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Link not found"})
		return
	}

	if req.OriginalURL != "" && req.OriginalURL != link.OriginalURL {
		if link.Status == models.StatusActive && link.PlanType != models.PlanPro {
			c.JSON(http.StatusForbidden, gin.H{"error": "Editing an active link requires the pro plan"})
			return
		}
		link.OriginalURL = req.OriginalURL
	}
	if req.CustomDomain != "" {
		link.CustomDomain = req.CustomDomain
	}
	if req.Status != "" {
		status := models.LinkStatus(req.Status)
		switch status {
		case models.StatusPendingPayment, models.StatusActive, models.StatusExpired:
			link.Status = status
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
			return
		}
	}

	if err := h.db.Save(&link).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update link"})
		return
	}

	c.JSON(http.StatusOK, linkToResponse(link))
}

// Delete removes a link
func (h *Handler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid link ID"})
		return
	}

	result := h.db.Delete(&models.Link{}, id)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete link"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Link not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// Activate sets a link active without a payment (admin override)
func (h *Handler) Activate(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid link ID"})
		return
	}

	var link models.Link
	if err := h.db.First(&link, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Link not found"})
		return
	}

	link.Status = models.StatusActive
	if err := h.db.Save(&link).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to activate link"})
		return
	}

	c.JSON(http.StatusOK, linkToResponse(link))
}

// RegisterRoutes registers public link routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/links", h.Create)
	rg.GET("/links/:id", h.Get)
}

// RegisterAdminRoutes registers admin-only link routes
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/links", h.List)
	rg.PUT("/links/:id", h.Update)
	rg.DELETE("/links/:id", h.Delete)
	rg.POST("/links/:id/activate", h.Activate)
}
