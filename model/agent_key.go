package model

import (
	"time"
)

const (
	KeyStatusActive  = "active"
	KeyStatusRevoked = "revoked"
)

// Bearer API key table (agent_keys). One row per wallet: re-registration
// overwrites the row in place, so the previous token dies with the upsert.
// RequestCount/LastRequestAt are bumped atomically on every authorized call.
type AgentKey struct {
	ID            uint64     `gorm:"primaryKey;column:id" json:"id"`
	WalletID      uint64     `gorm:"column:wallet_id;uniqueIndex;not null" json:"wallet_id"`
	APIKey        string     `gorm:"column:api_key;type:varchar(128);uniqueIndex;not null" json:"-"`
	Status        string     `gorm:"column:status;type:varchar(16);not null;default:active" json:"status"`
	RequestCount  uint64     `gorm:"column:request_count;not null;default:0" json:"request_count"`
	LastRequestAt *time.Time `gorm:"column:last_request_at" json:"last_request_at"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (AgentKey) TableName() string {
	return "agent_keys"
}
