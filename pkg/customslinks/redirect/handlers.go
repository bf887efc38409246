package redirect

import (
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/customslinks/customslinks/pkg/customslinks/middleware"
	"github.com/customslinks/customslinks/pkg/customslinks/resolver"
)

// Handler handles short link resolution requests
type Handler struct {
	resolver *resolver.Resolver
}

// NewHandler creates a new redirect handler
func NewHandler(r *resolver.Resolver) *Handler {
	return &Handler{resolver: r}
}

// ResolveRequest is the JSON resolution request body
type ResolveRequest struct {
	ShortCode string `json:"shortCode" binding:"required"`
	Domain    string `json:"domain"`
	UserAgent string `json:"userAgent"`
	ClientIP  string `json:"clientIP"`
}

// ResolveResponse is the JSON resolution result
type ResolveResponse struct {
	Success        bool   `json:"success"`
	DestinationURL string `json:"destinationUrl,omitempty"`
	ClickCount     uint   `json:"clickCount,omitempty"`
	Error          string `json:"error,omitempty"`
}

// Redirect handles public short URL redirects.
// The request host scopes the lookup, so the same code can live under
// several custom domains.
func (h *Handler) Redirect(c *gin.Context) {
	req := resolver.Request{
		ShortCode: c.Param("code"),
		Domain:    requestDomain(c.Request.Host),
		UserAgent: c.Request.UserAgent(),
		ClientIP:  c.ClientIP(),
	}

	res, err := h.resolver.Resolve(c.Request.Context(), req)
	if err != nil {
		status, msg := errorStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	middleware.RecordRedirect(req.Domain)
	c.Redirect(http.StatusFound, res.DestinationURL)
}

// Resolve handles JSON resolution requests from frontends that render
// their own interstitial before redirecting.
func (h *Handler) Resolve(c *gin.Context) {
	var body ResolveRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ResolveResponse{Success: false, Error: "Short code is required"})
		return
	}

	userAgent := body.UserAgent
	if userAgent == "" {
		userAgent = c.Request.UserAgent()
	}
	clientIP := body.ClientIP
	if clientIP == "" {
		clientIP = c.ClientIP()
	}

	res, err := h.resolver.Resolve(c.Request.Context(), resolver.Request{
		ShortCode: body.ShortCode,
		Domain:    body.Domain,
		UserAgent: userAgent,
		ClientIP:  clientIP,
	})
	if err != nil {
		status, msg := errorStatus(err)
		c.JSON(status, ResolveResponse{Success: false, Error: msg})
		return
	}

	middleware.RecordRedirect(body.Domain)
	c.JSON(http.StatusOK, ResolveResponse{
		Success:        true,
		DestinationURL: res.DestinationURL,
		ClickCount:     res.ClickCount,
	})
}

// errorStatus maps resolver failures to HTTP statuses. Store errors
// deliberately collapse to a generic message so internals never leak.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, resolver.ErrInvalidRequest):
		return http.StatusBadRequest, "Short code is required"
	case errors.Is(err, resolver.ErrNotFound):
		return http.StatusNotFound, "Link not found or not active"
	default:
		return http.StatusServiceUnavailable, "Service temporarily unavailable"
	}
}

// requestDomain extracts the domain qualifier from a Host header.
// Local development hosts resolve without a domain scope.
func requestDomain(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.ToLower(host)
	if host == "" || host == "localhost" || host == "127.0.0.1" {
		return ""
	}
	return host
}

// RegisterRoutes registers the public redirect route on the root
// router. This should be called AFTER all other routes to avoid
// conflicts.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/:code", h.Redirect)
}

// RegisterAPIRoutes registers the JSON resolution endpoint
func (h *Handler) RegisterAPIRoutes(api *gin.RouterGroup) {
	api.POST("/resolve", h.Resolve)
}
