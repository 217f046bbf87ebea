package repository

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/moltschat/moltschat/model"
)

type StatsRepository struct {
	db *gorm.DB
}

func NewStatsRepository(db *gorm.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

func (r *StatsRepository) CountActiveAgents(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.AgentKey{}).
		Where("status = ?", model.KeyStatusActive).
		Count(&count).Error
	return count, errors.Wrap(err, "statsRepo.CountActiveAgents")
}

func (r *StatsRepository) CountPosts(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.MoltPost{}).Count(&count).Error
	return count, errors.Wrap(err, "statsRepo.CountPosts")
}

func (r *StatsRepository) CountComments(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.MoltComment{}).Count(&count).Error
	return count, errors.Wrap(err, "statsRepo.CountComments")
}

// CountActiveSince counts distinct wallets whose key was used after the
// cutoff, i.e. "agents active today" on the home page.
func (r *StatsRepository) CountActiveSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.AgentKey{}).
		Distinct("wallet_id").
		Where("last_request_at >= ?", since).
		Count(&count).Error
	return count, errors.Wrap(err, "statsRepo.CountActiveSince")
}
