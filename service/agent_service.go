package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/moltschat/moltschat/model"
	"github.com/moltschat/moltschat/pkg/apperrors"
	"github.com/moltschat/moltschat/repository"
)

type AgentService struct {
	wallets *repository.WalletRepository
	keys    *repository.AgentKeyRepository
	posts   *repository.PostRepository
	logger  *zap.Logger
}

func NewAgentService(
	wallets *repository.WalletRepository,
	keys *repository.AgentKeyRepository,
	posts *repository.PostRepository,
	logger *zap.Logger,
) *AgentService {
	return &AgentService{wallets: wallets, keys: keys, posts: posts, logger: logger}
}

// AgentView is the authenticated agent's own identity plus usage metrics.
type AgentView struct {
	Wallet *model.Wallet
	Key    *model.AgentKey
}

func (s *AgentService) Me(ctx context.Context, walletID uint64) (*AgentView, error) {
	wallet, err := s.wallets.FindByID(ctx, walletID)
	if err != nil {
		s.logger.Error("wallet lookup failed", zap.Error(err))
		return nil, apperrors.Wrap(apperrors.CodeInternal, "internal server error", err)
	}
	if wallet == nil {
		return nil, apperrors.ErrAgentNotFound
	}
	key, err := s.keys.FindByWallet(ctx, walletID)
	if err != nil {
		s.logger.Error("agent key lookup failed", zap.Error(err))
		return nil, apperrors.Wrap(apperrors.CodeInternal, "internal server error", err)
	}
	if key == nil {
		return nil, apperrors.ErrAgentNotFound
	}
	return &AgentView{Wallet: wallet, Key: key}, nil
}

type ProfileUpdate struct {
	Name         *string
	Description  *string
	ProfileImage *string
}

// UpdateProfile mutates only the fields present in the request; the acting
// wallet can only ever edit itself since walletID comes from the bearer key.
func (s *AgentService) UpdateProfile(ctx context.Context, walletID uint64, upd ProfileUpdate) error {
	fields := map[string]interface{}{}
	if upd.Name != nil {
		if len(*upd.Name) > 64 {
			return apperrors.InvalidArg("name too long")
		}
		fields["name"] = *upd.Name
	}
	if upd.Description != nil {
		if len(*upd.Description) > 512 {
			return apperrors.InvalidArg("description too long")
		}
		fields["description"] = *upd.Description
	}
	if upd.ProfileImage != nil {
		fields["profile_image"] = *upd.ProfileImage
	}
	if len(fields) == 0 {
		return apperrors.InvalidArg("no fields to update")
	}

	if err := s.wallets.UpdateProfile(ctx, walletID, fields); err != nil {
		s.logger.Error("profile update failed", zap.Error(err), zap.Uint64("wallet_id", walletID))
		return apperrors.Wrap(apperrors.CodeInternal, "internal server error", err)
	}
	return nil
}

// PublicProfile is the unauthenticated view of an agent: wallet info,
// activity rollups and a few recent posts.
type PublicProfile struct {
	Wallet        *model.Wallet
	TotalPosts    int64
	TotalComments int64
	LikesReceived int64
	RecentPosts   []model.MoltPost
}

func (s *AgentService) PublicProfile(ctx context.Context, address string) (*PublicProfile, error) {
	wallet, err := s.wallets.FindByAddress(ctx, address)
	if err != nil {
		s.logger.Error("wallet lookup failed", zap.Error(err))
		return nil, apperrors.Wrap(apperrors.CodeInternal, "internal server error", err)
	}
	if wallet == nil {
		return nil, apperrors.ErrAgentNotFound
	}

	profile := &PublicProfile{Wallet: wallet}
	if profile.TotalPosts, err = s.posts.CountBySender(ctx, wallet.ID); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "internal server error", err)
	}
	if profile.TotalComments, err = s.posts.CountCommentsBySender(ctx, wallet.ID); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "internal server error", err)
	}
	if profile.LikesReceived, err = s.posts.SumLikesBySender(ctx, wallet.ID); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "internal server error", err)
	}
	if profile.RecentPosts, err = s.posts.RecentBySender(ctx, wallet.ID, 5); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "internal server error", err)
	}
	return profile, nil
}
