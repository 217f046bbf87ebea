package service

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/moltschat/moltschat/config"
	"github.com/moltschat/moltschat/model"
	"github.com/moltschat/moltschat/pkg/apperrors"
	"github.com/moltschat/moltschat/repository"
)

type authFixture struct {
	svc   *AuthService
	db    *gorm.DB
	clock *time.Time
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&model.AuthNonce{}, &model.Wallet{}, &model.AgentKey{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	now := time.Now()
	svc := NewAuthService(
		repository.NewNonceRepository(db),
		repository.NewWalletRepository(db),
		repository.NewAgentKeyRepository(db),
		config.DefaultAuth(),
		zap.NewNop(),
	)
	svc.WithClock(func() time.Time { return now })
	return &authFixture{svc: svc, db: db, clock: &now}
}

func (f *authFixture) advance(d time.Duration) {
	*f.clock = f.clock.Add(d)
}

func signChallenge(t *testing.T, key *ecdsa.PrivateKey, nonce string) string {
	t.Helper()
	sig, err := crypto.Sign(accounts.TextHash([]byte(ChallengePrefix+nonce)), key)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	sig[64] += 27
	return "0x" + hex.EncodeToString(sig)
}

func generateKey(t *testing.T) (*ecdsa.PrivateKey, string) {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	return key, strings.ToLower(crypto.PubkeyToAddress(key.PublicKey).Hex())
}

func TestIssueNonce_RateLimit(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		nonce, err := f.svc.IssueNonce(ctx, "203.0.113.5")
		if err != nil {
			t.Fatalf("request %d: %v", i+1, err)
		}
		if len(nonce) != 32 {
			t.Fatalf("nonce length %d, want 32 hex chars", len(nonce))
		}
	}

	_, err := f.svc.IssueNonce(ctx, "203.0.113.5")
	if apperrors.CodeOf(err) != apperrors.CodeRateLimited {
		t.Fatalf("6th request: expected rate limit, got %v", err)
	}

	// Another IP is unaffected.
	if _, err := f.svc.IssueNonce(ctx, "203.0.113.6"); err != nil {
		t.Fatalf("other IP: %v", err)
	}

	// Window rolls over.
	f.advance(61 * time.Second)
	if _, err := f.svc.IssueNonce(ctx, "203.0.113.5"); err != nil {
		t.Fatalf("after window: %v", err)
	}
}

func TestRegister_HappyPath(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	key, address := generateKey(t)

	nonce, err := f.svc.IssueNonce(ctx, "203.0.113.5")
	if err != nil {
		t.Fatalf("IssueNonce: %v", err)
	}

	res, err := f.svc.Register(ctx, address, signChallenge(t, key, nonce), nonce)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if res.Address != address {
		t.Fatalf("address %s, want %s", res.Address, address)
	}
	if len(res.Token) != 64 {
		t.Fatalf("token length %d, want 64 hex chars", len(res.Token))
	}
	if !strings.HasPrefix(res.PublicKey, "0x04") || len(res.PublicKey) != 132 {
		t.Fatalf("bad public key: %s", res.PublicKey)
	}

	var wallet model.Wallet
	if err := f.db.Where("address = ?", address).First(&wallet).Error; err != nil {
		t.Fatalf("wallet row: %v", err)
	}
	if wallet.PublicKey != res.PublicKey {
		t.Fatalf("stored key %s != returned %s", wallet.PublicKey, res.PublicKey)
	}
}

func TestRegister_ChecksumAddressAccepted(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	key, address := generateKey(t)

	nonce, _ := f.svc.IssueNonce(ctx, "203.0.113.5")
	checksummed := crypto.PubkeyToAddress(key.PublicKey).Hex() // EIP-55 mixed case

	res, err := f.svc.Register(ctx, checksummed, signChallenge(t, key, nonce), nonce)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if res.Address != address {
		t.Fatalf("address not lowercased: %s", res.Address)
	}
}

func TestRegister_NonceSingleUse(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	key, address := generateKey(t)

	nonce, _ := f.svc.IssueNonce(ctx, "203.0.113.5")
	sig := signChallenge(t, key, nonce)

	if _, err := f.svc.Register(ctx, address, sig, nonce); err != nil {
		t.Fatalf("first Register: %v", err)
	}

	// Replay with a perfectly valid signature still dies on the nonce.
	_, err := f.svc.Register(ctx, address, sig, nonce)
	if apperrors.CodeOf(err) != apperrors.CodePermissionDenied {
		t.Fatalf("replay: expected invalid nonce, got %v", err)
	}
}

func TestRegister_NonceConsumedOnFailure(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	key, address := generateKey(t)

	nonce, _ := f.svc.IssueNonce(ctx, "203.0.113.5")

	// A garbage signature burns the nonce anyway.
	if _, err := f.svc.Register(ctx, address, "0xdeadbeef", nonce); err == nil {
		t.Fatalf("expected failure")
	}
	_, err := f.svc.Register(ctx, address, signChallenge(t, key, nonce), nonce)
	if apperrors.CodeOf(err) != apperrors.CodePermissionDenied {
		t.Fatalf("expected consumed nonce, got %v", err)
	}
}

func TestRegister_ExpiredNonce(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	key, address := generateKey(t)

	nonce, _ := f.svc.IssueNonce(ctx, "203.0.113.5")
	f.advance(5*time.Minute + time.Second)

	_, err := f.svc.Register(ctx, address, signChallenge(t, key, nonce), nonce)
	if apperrors.CodeOf(err) != apperrors.CodePermissionDenied {
		t.Fatalf("expected expired nonce rejection, got %v", err)
	}
}

func TestRegister_AddressMismatch(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	key, _ := generateKey(t)
	_, otherAddress := generateKey(t)

	nonce, _ := f.svc.IssueNonce(ctx, "203.0.113.5")

	_, err := f.svc.Register(ctx, otherAddress, signChallenge(t, key, nonce), nonce)
	if apperrors.CodeOf(err) != apperrors.CodeUnauthenticated {
		t.Fatalf("expected signature mismatch, got %v", err)
	}
}

func TestRegister_MissingFields(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.svc.Register(context.Background(), "", "", "")
	if apperrors.CodeOf(err) != apperrors.CodeInvalidArgument {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

func TestRegister_KeyRotation(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	key, address := generateKey(t)

	var tokens []string
	for i := 0; i < 3; i++ {
		nonce, err := f.svc.IssueNonce(ctx, "203.0.113.5")
		if err != nil {
			t.Fatalf("IssueNonce: %v", err)
		}
		res, err := f.svc.Register(ctx, address, signChallenge(t, key, nonce), nonce)
		if err != nil {
			t.Fatalf("Register %d: %v", i+1, err)
		}
		tokens = append(tokens, res.Token)
	}

	var count int64
	f.db.Model(&model.AgentKey{}).Count(&count)
	if count != 1 {
		t.Fatalf("agent key rows = %d, want 1", count)
	}

	// Only the latest token authorizes.
	for _, old := range tokens[:2] {
		if _, err := f.svc.Authorize(ctx, old); apperrors.CodeOf(err) != apperrors.CodePermissionDenied {
			t.Fatalf("stale token accepted: %v", err)
		}
	}
	if _, err := f.svc.Authorize(ctx, tokens[2]); err != nil {
		t.Fatalf("current token rejected: %v", err)
	}
}

func TestAuthorize_Metering(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	key, address := generateKey(t)

	nonce, _ := f.svc.IssueNonce(ctx, "203.0.113.5")
	res, err := f.svc.Register(ctx, address, signChallenge(t, key, nonce), nonce)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	for i := 0; i < 3; i++ {
		walletID, err := f.svc.Authorize(ctx, res.Token)
		if err != nil {
			t.Fatalf("Authorize %d: %v", i+1, err)
		}
		if walletID != res.WalletID {
			t.Fatalf("wallet id %d, want %d", walletID, res.WalletID)
		}
	}

	var agentKey model.AgentKey
	if err := f.db.Where("wallet_id = ?", res.WalletID).First(&agentKey).Error; err != nil {
		t.Fatalf("key row: %v", err)
	}
	if agentKey.RequestCount != 3 {
		t.Fatalf("request count %d, want 3", agentKey.RequestCount)
	}
	if agentKey.LastRequestAt == nil {
		t.Fatalf("last_request_at not set")
	}

	// Rotation resets the meter.
	nonce2, _ := f.svc.IssueNonce(ctx, "203.0.113.5")
	if _, err := f.svc.Register(ctx, address, signChallenge(t, key, nonce2), nonce2); err != nil {
		t.Fatalf("re-register: %v", err)
	}
	f.db.Where("wallet_id = ?", res.WalletID).First(&agentKey)
	if agentKey.RequestCount != 0 {
		t.Fatalf("request count after rotation %d, want 0", agentKey.RequestCount)
	}
}

func TestAuthorize_RevokedKey(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	key, address := generateKey(t)

	nonce, _ := f.svc.IssueNonce(ctx, "203.0.113.5")
	res, err := f.svc.Register(ctx, address, signChallenge(t, key, nonce), nonce)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	f.db.Model(&model.AgentKey{}).
		Where("wallet_id = ?", res.WalletID).
		Update("status", model.KeyStatusRevoked)

	if _, err := f.svc.Authorize(ctx, res.Token); apperrors.CodeOf(err) != apperrors.CodePermissionDenied {
		t.Fatalf("revoked key accepted: %v", err)
	}

	// A denied call must not be metered.
	var agentKey model.AgentKey
	f.db.Where("wallet_id = ?", res.WalletID).First(&agentKey)
	if agentKey.RequestCount != 0 {
		t.Fatalf("revoked key was metered: count %d", agentKey.RequestCount)
	}
}

func TestAuthorize_EmptyToken(t *testing.T) {
	f := newAuthFixture(t)
	if _, err := f.svc.Authorize(context.Background(), ""); apperrors.CodeOf(err) != apperrors.CodeUnauthenticated {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
}

func TestPurgeExpired(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	if _, err := f.svc.IssueNonce(ctx, "203.0.113.5"); err != nil {
		t.Fatalf("IssueNonce: %v", err)
	}
	f.advance(6 * time.Minute)
	fresh, err := f.svc.IssueNonce(ctx, "203.0.113.5")
	if err != nil {
		t.Fatalf("IssueNonce: %v", err)
	}

	f.svc.PurgeExpired(ctx)

	var values []string
	f.db.Model(&model.AuthNonce{}).Pluck("nonce", &values)
	if len(values) != 1 || values[0] != fresh {
		t.Fatalf("purge kept %v, want only the fresh nonce", values)
	}
}
