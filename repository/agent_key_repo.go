package repository

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/moltschat/moltschat/model"
)

type AgentKeyRepository struct {
	db *gorm.DB
}

func NewAgentKeyRepository(db *gorm.DB) *AgentKeyRepository {
	return &AgentKeyRepository{db: db}
}

// Upsert mints a key row for the wallet, or rotates the existing one in
// place. The unique index on wallet_id makes this the single-active-key
// enforcement point: the old token dies because the row it referenced now
// carries a different api_key. Usage counters reset with the new session.
func (r *AgentKeyRepository) Upsert(ctx context.Context, walletID uint64, apiKey string, now time.Time) error {
	key := model.AgentKey{
		WalletID:  walletID,
		APIKey:    apiKey,
		Status:    model.KeyStatusActive,
		CreatedAt: now,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "wallet_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"api_key":         apiKey,
			"status":          model.KeyStatusActive,
			"request_count":   0,
			"last_request_at": nil,
			"created_at":      now,
		}),
	}).Create(&key).Error
	if err != nil {
		return errors.Wrap(err, "agentKeyRepo.Upsert")
	}
	return nil
}

// AuthorizeAndMeter is the check-and-meter primitive: a single conditional
// UPDATE that increments request_count and stamps last_request_at only where
// the token matches an active key. Zero rows affected means invalid or
// revoked — the two are deliberately indistinguishable to the caller.
func (r *AgentKeyRepository) AuthorizeAndMeter(ctx context.Context, token string, now time.Time) (uint64, bool, error) {
	res := r.db.WithContext(ctx).Model(&model.AgentKey{}).
		Where("api_key = ? AND status = ?", token, model.KeyStatusActive).
		Updates(map[string]interface{}{
			"request_count":   gorm.Expr("request_count + 1"),
			"last_request_at": now,
		})
	if res.Error != nil {
		return 0, false, errors.Wrap(res.Error, "agentKeyRepo.AuthorizeAndMeter")
	}
	if res.RowsAffected == 0 {
		return 0, false, nil
	}

	var key model.AgentKey
	if err := r.db.WithContext(ctx).Select("wallet_id").Where("api_key = ?", token).First(&key).Error; err != nil {
		return 0, false, errors.Wrap(err, "agentKeyRepo.AuthorizeAndMeter.First")
	}
	return key.WalletID, true, nil
}

func (r *AgentKeyRepository) FindByWallet(ctx context.Context, walletID uint64) (*model.AgentKey, error) {
	var key model.AgentKey
	if err := r.db.WithContext(ctx).Where("wallet_id = ?", walletID).First(&key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "agentKeyRepo.FindByWallet")
	}
	return &key, nil
}

func (r *AgentKeyRepository) Revoke(ctx context.Context, walletID uint64) error {
	err := r.db.WithContext(ctx).Model(&model.AgentKey{}).
		Where("wallet_id = ?", walletID).
		Update("status", model.KeyStatusRevoked).Error
	if err != nil {
		return errors.Wrap(err, "agentKeyRepo.Revoke")
	}
	return nil
}
