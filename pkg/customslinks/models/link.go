package models

import (
	"time"

	"gorm.io/gorm"
)

// PlanType represents the paid tier a link was purchased under
type PlanType string

const (
	PlanBasic PlanType = "basic"
	PlanPro   PlanType = "pro"
)

// LinkStatus represents where a link is in its payment lifecycle.
// Only active links are eligible for public resolution.
type LinkStatus string

const (
	StatusPendingPayment LinkStatus = "pending_payment"
	StatusActive         LinkStatus = "active"
	StatusExpired        LinkStatus = "expired"
)

// Link represents a shortened URL
type Link struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	ShortCode    string         `gorm:"uniqueIndex:idx_links_domain_code;not null" json:"short_code"`
	CustomDomain string         `gorm:"uniqueIndex:idx_links_domain_code;not null" json:"custom_domain"`
	OriginalURL  string         `gorm:"not null" json:"original_url"`
	PlanType     PlanType       `gorm:"type:varchar(20);default:'basic'" json:"plan_type"`
	Status       LinkStatus     `gorm:"type:varchar(20);default:'pending_payment';index" json:"status"`
	ClickCount   uint           `gorm:"default:0" json:"click_count"`
	CreatedByID  *uint          `json:"created_by_id,omitempty"`

	// Relationships
	CreatedBy *User `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
}
