package models

import (
	"time"

	"gorm.io/gorm"
)

// PaymentStatus represents a payment's lifecycle state
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentConfirmed PaymentStatus = "confirmed"
	PaymentExpired   PaymentStatus = "expired"
)

// Payment represents one manually-confirmed crypto transfer for a link
type Payment struct {
	ID              uint           `gorm:"primarykey" json:"id"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
	Reference       string         `gorm:"uniqueIndex;not null" json:"reference"`
	LinkID          uint           `gorm:"not null;index" json:"link_id"`
	Amount          float64        `gorm:"not null" json:"amount"`
	Currency        string         `gorm:"not null" json:"currency"`
	WalletAddress   string         `gorm:"not null" json:"wallet_address"`
	Status          PaymentStatus  `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	TransactionHash string         `json:"transaction_hash,omitempty"`
	ExpiresAt       time.Time      `json:"expires_at"`

	// Relationships
	Link Link `gorm:"foreignKey:LinkID" json:"link,omitempty"`
}
