package models

import (
	"time"

	"gorm.io/gorm"
)

// CryptoWallet represents a receiving wallet shown to users at checkout
type CryptoWallet struct {
	ID            uint           `gorm:"primarykey" json:"id"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
	Currency      string         `gorm:"not null;index" json:"currency"`
	WalletAddress string         `gorm:"not null" json:"wallet_address"`
	IsActive      bool           `gorm:"default:true" json:"is_active"`
}
