package stats

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/customslinks/customslinks/pkg/customslinks/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func setupRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(db).RegisterRoutes(r.Group("/api/admin"))
	return r
}

func doGET(r *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func seedData(t *testing.T, db *gorm.DB) (active models.Link) {
	active = models.Link{ShortCode: "top1", CustomDomain: "customslinks.com", OriginalURL: "https://a.example", Status: models.StatusActive, ClickCount: 10}
	pending := models.Link{ShortCode: "low1", CustomDomain: "customslinks.com", OriginalURL: "https://b.example", Status: models.StatusPendingPayment, ClickCount: 2}
	db.Create(&active)
	db.Create(&pending)

	db.Create(&models.LinkClick{LinkID: active.ID, DeviceType: "mobile", Browser: "Chrome", Country: "Germany"})
	db.Create(&models.LinkClick{LinkID: active.ID, DeviceType: "mobile", Browser: "Firefox", Country: "Germany"})
	db.Create(&models.LinkClick{LinkID: active.ID, DeviceType: "desktop", Browser: "Chrome", Country: "France"})

	// an old click outside the 7-day window
	old := models.LinkClick{LinkID: pending.ID, DeviceType: "desktop", Browser: "Safari", Country: "Spain"}
	db.Create(&old)
	db.Model(&models.LinkClick{}).Where("id = ?", old.ID).Update("created_at", time.Now().AddDate(0, 0, -30))

	db.Create(&models.Payment{Reference: "ref-s1", LinkID: active.ID, Amount: 9.99, Currency: "USDT", WalletAddress: "T1", Status: models.PaymentConfirmed, ExpiresAt: time.Now()})
	db.Create(&models.Payment{Reference: "ref-s2", LinkID: active.ID, Amount: 5.00, Currency: "USDT", WalletAddress: "T1", Status: models.PaymentConfirmed, ExpiresAt: time.Now()})
	db.Create(&models.Payment{Reference: "ref-s3", LinkID: pending.ID, Amount: 9.99, Currency: "BTC", WalletAddress: "T2", Status: models.PaymentPending, ExpiresAt: time.Now().Add(15 * time.Minute)})

	db.Create(&models.CryptoWallet{Currency: "USDT", WalletAddress: "TXYZabcdef1234567890", IsActive: true})
	db.Create(&models.CryptoWallet{Currency: "BTC", WalletAddress: "bc1qxyzabcdef123456", IsActive: false})
	return active
}

func TestDashboardAggregates(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouter(db)
	seedData(t, db)

	w := doGET(r, "/api/admin/stats/dashboard")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp DashboardResponse
	json.Unmarshal(w.Body.Bytes(), &resp)

	if resp.TotalLinks != 2 {
		t.Errorf("expected 2 links, got %d", resp.TotalLinks)
	}
	if resp.LinksByStatus["active"] != 1 || resp.LinksByStatus["pending_payment"] != 1 {
		t.Errorf("unexpected status breakdown: %v", resp.LinksByStatus)
	}
	if resp.TotalClicks != 4 {
		t.Errorf("expected 4 clicks, got %d", resp.TotalClicks)
	}
	if resp.ClicksLast7Days != 3 {
		t.Errorf("expected 3 recent clicks, got %d", resp.ClicksLast7Days)
	}
	if resp.PendingPayments != 1 {
		t.Errorf("expected 1 pending payment, got %d", resp.PendingPayments)
	}
	if resp.ActiveWallets != 1 {
		t.Errorf("expected 1 active wallet, got %d", resp.ActiveWallets)
	}
	if resp.RevenueByCurrency["USDT"] != 14.99 {
		t.Errorf("expected 14.99 USDT revenue, got %v", resp.RevenueByCurrency)
	}
	if _, ok := resp.RevenueByCurrency["BTC"]; ok {
		t.Error("pending payments must not count as revenue")
	}
}

func TestTopLinksOrdering(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouter(db)
	seedData(t, db)

	w := doGET(r, "/api/admin/stats/top-links?limit=1")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		Links []TopLinkResponse `json:"links"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Links) != 1 {
		t.Fatalf("expected 1 link, got %d", len(resp.Links))
	}
	if resp.Links[0].ShortCode != "top1" || resp.Links[0].ClickCount != 10 {
		t.Errorf("expected top1 with 10 clicks, got %+v", resp.Links[0])
	}
}

func TestLinkClicksBreakdown(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouter(db)
	active := seedData(t, db)

	w := doGET(r, fmt.Sprintf("/api/admin/stats/links/%d/clicks", active.ID))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		ClickCount uint             `json:"click_count"`
		Devices    map[string]int64 `json:"devices"`
		Browsers   map[string]int64 `json:"browsers"`
		Countries  map[string]int64 `json:"countries"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)

	if resp.ClickCount != 10 {
		t.Errorf("expected click_count 10, got %d", resp.ClickCount)
	}
	if resp.Devices["mobile"] != 2 || resp.Devices["desktop"] != 1 {
		t.Errorf("unexpected device breakdown: %v", resp.Devices)
	}
	if resp.Browsers["Chrome"] != 2 {
		t.Errorf("unexpected browser breakdown: %v", resp.Browsers)
	}
	if resp.Countries["Germany"] != 2 || resp.Countries["France"] != 1 {
		t.Errorf("unexpected country breakdown: %v", resp.Countries)
	}
}

func TestLinkClicksNotFound(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouter(db)

	w := doGET(r, "/api/admin/stats/links/999/clicks")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}
