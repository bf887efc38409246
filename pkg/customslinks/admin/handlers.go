package admin

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/customslinks/customslinks/pkg/customslinks/auth"
	"github.com/customslinks/customslinks/pkg/customslinks/models"
)

// Handler handles admin user management requests
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new admin handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// UserResponse represents user data in admin responses
type UserResponse struct {
	ID         uint   `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	SystemRole string `json:"system_role"`
	CreatedAt  string `json:"created_at"`
	LinkCount  int64  `json:"link_count"`
}

// CreateUserRequest represents the request to create a user
type CreateUserRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=8"`
	Name       string `json:"name"`
	SystemRole string `json:"system_role"`
}

// UpdateUserRequest represents the request to update a user
type UpdateUserRequest struct {
	Name       *string `json:"name"`
	SystemRole *string `json:"system_role"`
}

func (h *Handler) userToResponse(user models.User) UserResponse {
	var linkCount int64
	h.db.Model(&models.Link{}).Where("created_by_id = ?", user.ID).Count(&linkCount)

	return UserResponse{
		ID:         user.ID,
		Email:      user.Email,
		Name:       user.Name,
		SystemRole: string(user.SystemRole),
		CreatedAt:  user.CreatedAt.Format("2006-01-02T15:04:05Z"),
		LinkCount:  linkCount,
	}
}

// ListUsers returns all users
func (h *Handler) ListUsers(c *gin.Context) {
	query := h.db.Order("created_at DESC")

	// Optional search by email or name
	if search := c.Query("q"); search != "" {
		query = query.Where("email LIKE ? OR name LIKE ?", "%"+search+"%", "%"+search+"%")
	}
	if role := c.Query("role"); role != "" {
		query = query.Where("system_role = ?", role)
	}

	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}

	responses := make([]UserResponse, len(users))
	for i, user := range users {
		responses[i] = h.userToResponse(user)
	}
	c.JSON(http.StatusOK, responses)
}

// GetUser returns a single user by ID
func (h *Handler) GetUser(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var user models.User
	if err := h.db.First(&user, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, h.userToResponse(user))
}

// CreateUser creates an operator account. There is no public
// registration; admins provision every account.
func (h *Handler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role := models.SystemRoleUser
	if req.SystemRole != "" {
		role = models.SystemRole(req.SystemRole)
		if role != models.SystemRoleAdmin && role != models.SystemRoleUser {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid system role"})
			return
		}
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	user := models.User{
		Email:        req.Email,
		PasswordHash: hash,
		Name:         req.Name,
		SystemRole:   role,
	}
	if err := h.db.Create(&user).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "A user with this email already exists"})
		return
	}

	c.JSON(http.StatusCreated, h.userToResponse(user))
}

// UpdateUser updates a user's profile
func (h *Handler) UpdateUser(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var user models.User
	if err := h.db.First(&user, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Prevent admin from demoting themselves
	currentUserID, _ := auth.GetUserID(c)
	if uint(id) == currentUserID && req.SystemRole != nil && *req.SystemRole != "admin" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot demote yourself"})
		return
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.SystemRole != nil {
		if *req.SystemRole != "admin" && *req.SystemRole != "user" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid system role"})
			return
		}
		updates["system_role"] = *req.SystemRole
	}

	if len(updates) > 0 {
		if err := h.db.Model(&user).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
			return
		}
	}

	h.db.First(&user, id)
	c.JSON(http.StatusOK, h.userToResponse(user))
}

// DeleteUser soft-deletes a user
func (h *Handler) DeleteUser(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	// Prevent admin from deleting themselves
	currentUserID, _ := auth.GetUserID(c)
	if uint(id) == currentUserID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot delete yourself"})
		return
	}

	var user models.User
	if err := h.db.First(&user, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if err := h.db.Delete(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

// RegisterRoutes registers admin user routes on the given router group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/users", h.ListUsers)
	rg.POST("/users", h.CreateUser)
	rg.GET("/users/:id", h.GetUser)
	rg.PUT("/users/:id", h.UpdateUser)
	rg.DELETE("/users/:id", h.DeleteUser)
}
