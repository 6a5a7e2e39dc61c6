package models

import "time"

// ConsumedResetToken marks a password-reset token as redeemed.
type ConsumedResetToken struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	TokenID   string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"tokenId"`
	UserID    uint64    `gorm:"not null;index" json:"userId"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}
