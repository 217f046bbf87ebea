package repository

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/moltschat/moltschat/model"
)

type NonceRepository struct {
	db *gorm.DB
}

func NewNonceRepository(db *gorm.DB) *NonceRepository {
	return &NonceRepository{db: db}
}

func (r *NonceRepository) Create(ctx context.Context, nonce *model.AuthNonce) error {
	if err := r.db.WithContext(ctx).Create(nonce).Error; err != nil {
		return errors.Wrap(err, "nonceRepo.Create")
	}
	return nil
}

func (r *NonceRepository) CountIssuedSince(ctx context.Context, ip string, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.AuthNonce{}).
		Where("ip_address = ? AND created_at > ?", ip, since).
		Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "nonceRepo.CountIssuedSince")
	}
	return count, nil
}

// Consume removes the nonce row and returns it. The delete's affected-row
// count is the arbiter: of any number of concurrent callers presenting the
// same value, exactly one observes consumed == true. Expiry is not checked
// here — the caller rejects on the returned row, so an expired nonce is still
// burned by the attempt.
func (r *NonceRepository) Consume(ctx context.Context, value string) (*model.AuthNonce, bool, error) {
	var nonce model.AuthNonce
	if err := r.db.WithContext(ctx).Where("nonce = ?", value).First(&nonce).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, errors.Wrap(err, "nonceRepo.Consume.First")
	}

	res := r.db.WithContext(ctx).Where("nonce = ?", value).Delete(&model.AuthNonce{})
	if res.Error != nil {
		return nil, false, errors.Wrap(res.Error, "nonceRepo.Consume.Delete")
	}
	if res.RowsAffected == 0 {
		// another verification attempt got here first
		return nil, false, nil
	}
	return &nonce, true, nil
}

func (r *NonceRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at <= ?", before).Delete(&model.AuthNonce{})
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "nonceRepo.DeleteExpired")
	}
	return res.RowsAffected, nil
}
