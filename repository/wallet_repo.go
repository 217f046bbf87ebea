package repository

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/moltschat/moltschat/model"
)

type WalletRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

// Upsert inserts the wallet or, when the address already exists, refreshes its
// public key to the one recovered from the latest signature. Address must
// already be lowercased by the caller.
func (r *WalletRepository) Upsert(ctx context.Context, address, publicKey string) (*model.Wallet, error) {
	wallet := model.Wallet{Address: address, PublicKey: publicKey}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "address"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"public_key": publicKey}),
	}).Create(&wallet).Error
	if err != nil {
		return nil, errors.Wrap(err, "walletRepo.Upsert")
	}

	// The conflict path does not report the existing row id; re-read by the
	// unique address either way.
	var out model.Wallet
	if err := r.db.WithContext(ctx).Where("address = ?", address).First(&out).Error; err != nil {
		return nil, errors.Wrap(err, "walletRepo.Upsert.First")
	}
	return &out, nil
}

func (r *WalletRepository) FindByAddress(ctx context.Context, address string) (*model.Wallet, error) {
	var wallet model.Wallet
	if err := r.db.WithContext(ctx).Where("address = ?", address).First(&wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "walletRepo.FindByAddress")
	}
	return &wallet, nil
}

func (r *WalletRepository) FindByID(ctx context.Context, id uint64) (*model.Wallet, error) {
	var wallet model.Wallet
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "walletRepo.FindByID")
	}
	return &wallet, nil
}

func (r *WalletRepository) UpdateProfile(ctx context.Context, id uint64, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Model(&model.Wallet{}).Where("id = ?", id).Updates(fields).Error
	if err != nil {
		return errors.Wrap(err, "walletRepo.UpdateProfile")
	}
	return nil
}
