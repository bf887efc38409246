package admin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/customslinks/customslinks/pkg/customslinks/auth"
	"github.com/customslinks/customslinks/pkg/customslinks/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	return db
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func createTestUser(t *testing.T, db *gorm.DB, email, name string, role models.SystemRole) *models.User {
	hashedPassword, _ := auth.HashPassword("password123")
	user := &models.User{
		Email:        email,
		Name:         name,
		PasswordHash: hashedPassword,
		SystemRole:   role,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

func asAdmin(admin *models.User, handler gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(auth.ContextKeyUserID, admin.ID)
		c.Set(auth.ContextKeySystemRole, "admin")
		handler(c)
	}
}

func TestListUsers(t *testing.T) {
	db := setupTestDB(t)
	r := setupTestRouter()
	h := NewHandler(db)

	admin := createTestUser(t, db, "admin@test.com", "Admin User", models.SystemRoleAdmin)
	createTestUser(t, db, "user1@test.com", "User One", models.SystemRoleUser)
	createTestUser(t, db, "user2@test.com", "User Two", models.SystemRoleUser)

	r.GET("/admin/users", asAdmin(admin, h.ListUsers))

	req := httptest.NewRequest("GET", "/admin/users", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var users []UserResponse
	if err := json.Unmarshal(w.Body.Bytes(), &users); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if len(users) != 3 {
		t.Errorf("Expected 3 users, got %d", len(users))
	}
}

func TestListUsersWithSearch(t *testing.T) {
	db := setupTestDB(t)
	r := setupTestRouter()
	h := NewHandler(db)

	admin := createTestUser(t, db, "admin@test.com", "Admin User", models.SystemRoleAdmin)
	createTestUser(t, db, "john@test.com", "John Doe", models.SystemRoleUser)
	createTestUser(t, db, "jane@test.com", "Jane Doe", models.SystemRoleUser)

	r.GET("/admin/users", asAdmin(admin, h.ListUsers))

	req := httptest.NewRequest("GET", "/admin/users?q=john", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var users []UserResponse
	json.Unmarshal(w.Body.Bytes(), &users)

	if len(users) != 1 {
		t.Errorf("Expected 1 user matching search, got %d", len(users))
	}
}

func TestCreateUser(t *testing.T) {
	db := setupTestDB(t)
	r := setupTestRouter()
	h := NewHandler(db)

	admin := createTestUser(t, db, "admin@test.com", "Admin", models.SystemRoleAdmin)
	r.POST("/admin/users", asAdmin(admin, h.CreateUser))

	body, _ := json.Marshal(gin.H{
		"email":    "new@test.com",
		"password": "password123",
		"name":     "New User",
	})
	req := httptest.NewRequest("POST", "/admin/users", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var created models.User
	if err := db.Where("email = ?", "new@test.com").First(&created).Error; err != nil {
		t.Fatalf("Expected user to exist: %v", err)
	}
	if created.SystemRole != models.SystemRoleUser {
		t.Errorf("Expected default user role, got %q", created.SystemRole)
	}
	if !auth.CheckPassword("password123", created.PasswordHash) {
		t.Error("Expected stored hash to match password")
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	r := setupTestRouter()
	h := NewHandler(db)

	admin := createTestUser(t, db, "admin@test.com", "Admin", models.SystemRoleAdmin)
	createTestUser(t, db, "taken@test.com", "Existing", models.SystemRoleUser)
	r.POST("/admin/users", asAdmin(admin, h.CreateUser))

	body, _ := json.Marshal(gin.H{
		"email":    "taken@test.com",
		"password": "password123",
	})
	req := httptest.NewRequest("POST", "/admin/users", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", w.Code)
	}
}

func TestUpdateUserRole(t *testing.T) {
	db := setupTestDB(t)
	r := setupTestRouter()
	h := NewHandler(db)

	admin := createTestUser(t, db, "admin@test.com", "Admin", models.SystemRoleAdmin)
	user := createTestUser(t, db, "user@test.com", "User", models.SystemRoleUser)
	r.PUT("/admin/users/:id", asAdmin(admin, h.UpdateUser))

	body, _ := json.Marshal(gin.H{"system_role": "admin"})
	req := httptest.NewRequest("PUT", fmt.Sprintf("/admin/users/%d", user.ID), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var updated models.User
	db.First(&updated, user.ID)
	if updated.SystemRole != models.SystemRoleAdmin {
		t.Errorf("Expected admin role, got %q", updated.SystemRole)
	}
}

func TestUpdateUserCannotDemoteSelf(t *testing.T) {
	db := setupTestDB(t)
	r := setupTestRouter()
	h := NewHandler(db)

	admin := createTestUser(t, db, "admin@test.com", "Admin", models.SystemRoleAdmin)
	r.PUT("/admin/users/:id", asAdmin(admin, h.UpdateUser))

	body, _ := json.Marshal(gin.H{"system_role": "user"})
	req := httptest.NewRequest("PUT", fmt.Sprintf("/admin/users/%d", admin.ID), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestDeleteUserCannotDeleteSelf(t *testing.T) {
	db := setupTestDB(t)
	r := setupTestRouter()
	h := NewHandler(db)

	admin := createTestUser(t, db, "admin@test.com", "Admin", models.SystemRoleAdmin)
	r.DELETE("/admin/users/:id", asAdmin(admin, h.DeleteUser))

	req := httptest.NewRequest("DELETE", fmt.Sprintf("/admin/users/%d", admin.ID), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestDeleteUser(t *testing.T) {
	db := setupTestDB(t)
	r := setupTestRouter()
	h := NewHandler(db)

	admin := createTestUser(t, db, "admin@test.com", "Admin", models.SystemRoleAdmin)
	user := createTestUser(t, db, "user@test.com", "User", models.SystemRoleUser)
	r.DELETE("/admin/users/:id", asAdmin(admin, h.DeleteUser))

	req := httptest.NewRequest("DELETE", fmt.Sprintf("/admin/users/%d", user.ID), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var count int64
	db.Model(&models.User{}).Where("id = ?", user.ID).Count(&count)
	if count != 0 {
		t.Error("Expected user to be soft-deleted")
	}
}
