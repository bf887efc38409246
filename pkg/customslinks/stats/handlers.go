package stats

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/customslinks/customslinks/pkg/customslinks/models"
)

// Handler serves operator dashboard aggregates
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new stats handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// DashboardResponse represents the dashboard summary
type DashboardResponse struct {
	TotalLinks        int64              `json:"total_links"`
	LinksByStatus     map[string]int64   `json:"links_by_status"`
	TotalClicks       int64              `json:"total_clicks"`
	ClicksLast7Days   int64              `json:"clicks_last_7_days"`
	TotalPayments     int64              `json:"total_payments"`
	PendingPayments   int64              `json:"pending_payments"`
	ActiveWallets     int64              `json:"active_wallets"`
	RevenueByCurrency map[string]float64 `json:"revenue_by_currency"`
}

// Dashboard returns the operator dashboard summary
func (h *Handler) Dashboard(c *gin.Context) {
	resp := DashboardResponse{
		LinksByStatus:     make(map[string]int64),
		RevenueByCurrency: make(map[string]float64),
	}

	if err := h.db.Model(&models.Link{}).Count(&resp.TotalLinks).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute stats"})
		return
	}

	type statusCount struct {
		Status string
		Count  int64
	}
	var statuses []statusCount
	if err := h.db.Model(&models.Link{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&statuses).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute stats"})
		return
	}
	for _, s := range statuses {
		resp.LinksByStatus[s.Status] = s.Count
	}

	h.db.Model(&models.LinkClick{}).Count(&resp.TotalClicks)
	weekAgo := time.Now().AddDate(0, 0, -7)
	h.db.Model(&models.LinkClick{}).Where("created_at > ?", weekAgo).Count(&resp.ClicksLast7Days)

	h.db.Model(&models.Payment{}).Count(&resp.TotalPayments)
	h.db.Model(&models.Payment{}).Where("status = ?", models.PaymentPending).Count(&resp.PendingPayments)
	h.db.Model(&models.CryptoWallet{}).Where("is_active = ?", true).Count(&resp.ActiveWallets)

	type revenueRow struct {
		Currency string
		Total    float64
	}
	var revenue []revenueRow
	h.db.Model(&models.Payment{}).
		Select("currency, sum(amount) as total").
		Where("status = ?", models.PaymentConfirmed).
		Group("currency").
		Scan(&revenue)
	for _, r := range revenue {
		resp.RevenueByCurrency[r.Currency] = r.Total
	}

	c.JSON(http.StatusOK, resp)
}

// TopLinkResponse represents one entry in the top links list
type TopLinkResponse struct {
	ID         uint   `json:"id"`
	ShortCode  string `json:"short_code"`
	Domain     string `json:"domain"`
	ClickCount uint   `json:"click_count"`
}

// TopLinks returns the most clicked links
func (h *Handler) TopLinks(c *gin.Context) {
	limit := 10
	if limitStr := c.Query("limit"); limitStr != "" {
		if n, err := strconv.Atoi(limitStr); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	var links []models.Link
	if err := h.db.Order("click_count DESC").Limit(limit).Find(&links).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list top links"})
		return
	}

	top := make([]TopLinkResponse, 0, len(links))
	for _, link := range links {
		top = append(top, TopLinkResponse{
			ID:         link.ID,
			ShortCode:  link.ShortCode,
			Domain:     link.CustomDomain,
			ClickCount: link.ClickCount,
		})
	}
	c.JSON(http.StatusOK, gin.H{"links": top})
}

// LinkClicks returns the click breakdown for one link
func (h *Handler) LinkClicks(c *gin.Context) {
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

	breakdown := gin.H{
		"link_id":     link.ID,
		"click_count": link.ClickCount,
		"devices":     h.groupClicks(link.ID, "device_type"),
		"browsers":    h.groupClicks(link.ID, "browser"),
		"countries":   h.groupClicks(link.ID, "country"),
	}
	c.JSON(http.StatusOK, breakdown)
}

func (h *Handler) groupClicks(linkID uint, column string) map[string]int64 {
	type row struct {
		Label string
		Count int64
	}
	var rows []row
	h.db.Model(&models.LinkClick{}).
		Select(column+" as label, count(*) as count").
		Where("link_id = ?", linkID).
		Group(column).
		Scan(&rows)

	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Label] = r.Count
	}
	return out
}

// RegisterRoutes registers stats routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/stats/dashboard", h.Dashboard)
	rg.GET("/stats/top-links", h.TopLinks)
	rg.GET("/stats/links/:id/clicks", h.LinkClicks)
}
