package repository

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/moltschat/moltschat/model"
	"github.com/moltschat/moltschat/pkg/apperrors"
)

type PostRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

// PostRow is a feed row: post columns plus the sender address and a live
// comment count.
type PostRow struct {
	ID           uint64    `json:"id"`
	Content      string    `json:"content"`
	IsEdited     bool      `json:"is_edited"`
	LikeCount    uint64    `json:"like_count"`
	ViewCount    uint64    `json:"view_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	SenderWallet string    `json:"sender_wallet"`
	CommentCount int64     `json:"comment_count"`
}

// Allowed sort expressions; keyed so a caller can never inject raw SQL.
var postSortOptions = map[string]string{
	"new": "p.created_at DESC",
	"hot": "comment_count DESC, p.created_at DESC",
	"top": "p.like_count DESC, p.created_at DESC",
}

func (r *PostRepository) List(ctx context.Context, sort, senderAddress string, page, limit int) ([]PostRow, error) {
	orderBy, ok := postSortOptions[sort]
	if !ok {
		orderBy = postSortOptions["new"]
	}
	if page < 1 {
		page = 1
	}

	q := r.db.WithContext(ctx).Table("molt_post AS p").
		Select("p.id, p.content, p.is_edited, p.like_count, p.view_count, p.created_at, p.updated_at, w.address AS sender_wallet, COUNT(c.id) AS comment_count").
		Joins("JOIN wallets w ON p.sender_id = w.id").
		Joins("LEFT JOIN molt_comment c ON c.molt_post_id = p.id").
		Group("p.id, p.content, p.is_edited, p.like_count, p.view_count, p.created_at, p.updated_at, w.address")

	if senderAddress != "" {
		q = q.Where("w.address = ?", senderAddress)
	}

	rows := make([]PostRow, 0, limit)
	err := q.Order(orderBy).Limit(limit).Offset((page - 1) * limit).Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "postRepo.List")
	}
	return rows, nil
}

func (r *PostRepository) CreateBatch(ctx context.Context, posts []*model.MoltPost) error {
	if len(posts) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(posts).Error; err != nil {
		return errors.Wrap(err, "postRepo.CreateBatch")
	}
	return nil
}

// GetByID returns the post and its comments, bumping view_count as a side
// effect. The view increment is a fire-and-forget column update, not a
// read-modify-write.
func (r *PostRepository) GetByID(ctx context.Context, id uint64) (*model.MoltPost, []model.MoltComment, error) {
	r.db.WithContext(ctx).Model(&model.MoltPost{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1"))

	var post model.MoltPost
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperrors.ErrPostNotFound
		}
		return nil, nil, errors.Wrap(err, "postRepo.GetByID")
	}

	var comments []model.MoltComment
	err := r.db.WithContext(ctx).
		Where("molt_post_id = ?", id).
		Order("created_at ASC").
		Find(&comments).Error
	if err != nil {
		return nil, nil, errors.Wrap(err, "postRepo.GetByID.Comments")
	}
	return &post, comments, nil
}

// LikePost records the like in the unique ledger and bumps the display
// counter in one transaction. A repeated like surfaces as ErrAlreadyLiked via
// the duplicate-key translation; callers never see driver error codes.
func (r *PostRepository) LikePost(ctx context.Context, postID, walletID uint64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&model.PostLike{PostID: postID, WalletID: walletID}).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperrors.ErrAlreadyLiked
			}
			return errors.Wrap(err, "postRepo.LikePost.Create")
		}
		res := tx.Model(&model.MoltPost{}).
			Where("id = ?", postID).
			UpdateColumn("like_count", gorm.Expr("like_count + 1"))
		if res.Error != nil {
			return errors.Wrap(res.Error, "postRepo.LikePost.Update")
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrPostNotFound
		}
		return nil
	})
	return err
}

func (r *PostRepository) CreateComment(ctx context.Context, comment *model.MoltComment) error {
	var exists int64
	if err := r.db.WithContext(ctx).Model(&model.MoltPost{}).Where("id = ?", comment.MoltPostID).Count(&exists).Error; err != nil {
		return errors.Wrap(err, "postRepo.CreateComment.Count")
	}
	if exists == 0 {
		return apperrors.ErrPostNotFound
	}
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return errors.Wrap(err, "postRepo.CreateComment")
	}
	return nil
}

func (r *PostRepository) LikeComment(ctx context.Context, commentID, walletID uint64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&model.CommentLike{CommentID: commentID, WalletID: walletID}).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperrors.ErrAlreadyLiked
			}
			return errors.Wrap(err, "postRepo.LikeComment.Create")
		}
		res := tx.Model(&model.MoltComment{}).
			Where("id = ?", commentID).
			UpdateColumn("like_count", gorm.Expr("like_count + 1"))
		if res.Error != nil {
			return errors.Wrap(res.Error, "postRepo.LikeComment.Update")
		}
		if res.RowsAffected == 0 {
			return apperrors.NotFound("comment not found")
		}
		return nil
	})
	return err
}

// Per-sender activity rollups for public profiles.

func (r *PostRepository) CountBySender(ctx context.Context, senderID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.MoltPost{}).Where("sender_id = ?", senderID).Count(&count).Error
	return count, errors.Wrap(err, "postRepo.CountBySender")
}

func (r *PostRepository) CountCommentsBySender(ctx context.Context, senderID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.MoltComment{}).Where("sender_id = ?", senderID).Count(&count).Error
	return count, errors.Wrap(err, "postRepo.CountCommentsBySender")
}

func (r *PostRepository) SumLikesBySender(ctx context.Context, senderID uint64) (int64, error) {
	var sum int64
	err := r.db.WithContext(ctx).Model(&model.MoltPost{}).
		Select("COALESCE(SUM(like_count), 0)").
		Where("sender_id = ?", senderID).
		Scan(&sum).Error
	return sum, errors.Wrap(err, "postRepo.SumLikesBySender")
}

func (r *PostRepository) RecentBySender(ctx context.Context, senderID uint64, limit int) ([]model.MoltPost, error) {
	var posts []model.MoltPost
	err := r.db.WithContext(ctx).
		Where("sender_id = ?", senderID).
		Order("created_at DESC").
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, errors.Wrap(err, "postRepo.RecentBySender")
	}
	return posts, nil
}
