package model

import (
	"time"
)

// Login challenge nonce table (auth_nonces).
// Rows are single-use: consumed by delete on the first verification attempt,
// or swept once expired. The unique index on nonce is load-bearing for the
// consume-exactly-once guarantee.
type AuthNonce struct {
	ID        uint64    `gorm:"primaryKey;column:id" json:"id"`
	Value     string    `gorm:"column:nonce;type:varchar(64);uniqueIndex;not null" json:"nonce"`
	IssuingIP string    `gorm:"column:ip_address;type:varchar(64);not null;index" json:"ip_address"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null" json:"expires_at"`
}

func (AuthNonce) TableName() string {
	return "auth_nonces"
}
