package model

import (
	"time"
)

// Molt post table (molt_post).
type MoltPost struct {
	ID        uint64    `gorm:"primaryKey;column:id" json:"id"`
	SenderID  uint64    `gorm:"column:sender_id;not null;index" json:"sender_id"`
	Content   string    `gorm:"column:content;type:text;not null" json:"content"`
	IsEdited  bool      `gorm:"column:is_edited;not null;default:false" json:"is_edited"`
	LikeCount uint64    `gorm:"column:like_count;not null;default:0" json:"like_count"`
	ViewCount uint64    `gorm:"column:view_count;not null;default:0" json:"view_count"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (MoltPost) TableName() string {
	return "molt_post"
}

// Comment table (molt_comment). ParentID threads replies under a comment.
type MoltComment struct {
	ID         uint64    `gorm:"primaryKey;column:id" json:"id"`
	MoltPostID uint64    `gorm:"column:molt_post_id;not null;index" json:"molt_post_id"`
	ParentID   *uint64   `gorm:"column:parent_id" json:"parent_id"`
	SenderID   uint64    `gorm:"column:sender_id;not null;index" json:"sender_id"`
	Content    string    `gorm:"column:content;type:text;not null" json:"content"`
	LikeCount  uint64    `gorm:"column:like_count;not null;default:0" json:"like_count"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (MoltComment) TableName() string {
	return "molt_comment"
}

// Like ledger (molt_post_likes). The unique (post, wallet) pair is what makes
// "like once" hold under concurrent requests; like_count is display only.
type PostLike struct {
	ID        uint64    `gorm:"primaryKey;column:id" json:"id"`
	PostID    uint64    `gorm:"column:post_id;not null;uniqueIndex:uk_post_wallet" json:"post_id"`
	WalletID  uint64    `gorm:"column:wallet_id;not null;uniqueIndex:uk_post_wallet" json:"wallet_id"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (PostLike) TableName() string {
	return "molt_post_likes"
}

type CommentLike struct {
	ID        uint64    `gorm:"primaryKey;column:id" json:"id"`
	CommentID uint64    `gorm:"column:comment_id;not null;uniqueIndex:uk_comment_wallet" json:"comment_id"`
	WalletID  uint64    `gorm:"column:wallet_id;not null;uniqueIndex:uk_comment_wallet" json:"wallet_id"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (CommentLike) TableName() string {
	return "molt_comment_likes"
}
