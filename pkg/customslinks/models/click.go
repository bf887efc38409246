package models

import "time"

// MaxUserAgentLength is the bound applied to stored user-agent strings
const MaxUserAgentLength = 500

// LinkClick represents one resolved visit to a link.
// Rows are append-only and never updated after creation.
type LinkClick struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	LinkID     uint      `gorm:"not null;index" json:"link_id"`
	IPAddress  string    `json:"ip_address"`
	UserAgent  string    `gorm:"size:500" json:"user_agent"`
	DeviceType string    `json:"device_type"`
	Browser    string    `json:"browser"`
	OS         string    `json:"os"`
	Country    string    `json:"country"`
	Region     string    `json:"region"`
	City       string    `json:"city"`

	// Relationships
	Link Link `gorm:"foreignKey:LinkID" json:"link,omitempty"`
}
