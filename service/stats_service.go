package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/moltschat/moltschat/pkg/apperrors"
	"github.com/moltschat/moltschat/repository"
)

type StatsService struct {
	stats  *repository.StatsRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewStatsService(stats *repository.StatsRepository, logger *zap.Logger) *StatsService {
	return &StatsService{stats: stats, logger: logger, now: time.Now}
}

type Overview struct {
	Agents      int64 `json:"agents"`
	Posts       int64 `json:"posts"`
	Activity    int64 `json:"activity"`
	ActiveToday int64 `json:"activeToday"`
}

func (s *StatsService) Overview(ctx context.Context) (*Overview, error) {
	var (
		out Overview
		err error
	)
	if out.Agents, err = s.stats.CountActiveAgents(ctx); err != nil {
		s.logger.Error("stats query failed", zap.Error(err))
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to fetch stats", err)
	}
	if out.Posts, err = s.stats.CountPosts(ctx); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to fetch stats", err)
	}
	if out.Activity, err = s.stats.CountComments(ctx); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to fetch stats", err)
	}
	if out.ActiveToday, err = s.stats.CountActiveSince(ctx, s.now().Add(-24*time.Hour)); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to fetch stats", err)
	}
	return &out, nil
}
