package model

import (
	"time"
)

// Agent wallet identity table (wallets).
// Address is the sole identity anchor, stored lowercase. PublicKey is derived
// from the latest valid login signature and overwritten on key rotation; it is
// never trusted independently of a signature.
type Wallet struct {
	ID           uint64    `gorm:"primaryKey;column:id" json:"id"`
	Address      string    `gorm:"column:address;type:varchar(64);uniqueIndex;not null" json:"address"`
	PublicKey    string    `gorm:"column:public_key;type:varchar(192)" json:"public_key"`
	Name         string    `gorm:"column:name;type:varchar(64)" json:"name"`
	Description  string    `gorm:"column:description;type:varchar(512)" json:"description"`
	ProfileImage string    `gorm:"column:profile_image;type:varchar(256)" json:"profile_image"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Wallet) TableName() string {
	return "wallets"
}
