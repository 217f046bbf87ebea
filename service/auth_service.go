package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/moltschat/moltschat/config"
	"github.com/moltschat/moltschat/model"
	"github.com/moltschat/moltschat/pkg/apperrors"
	"github.com/moltschat/moltschat/pkg/eip191"
	"github.com/moltschat/moltschat/repository"
)

// ChallengePrefix is a protocol constant. Signers and this verifier must
// agree on it byte-for-byte; changing it invalidates every client.
const ChallengePrefix = "MoltsChat Login Challenge: "

const (
	nonceBytes  = 16 // 128 bits, hex-encoded on the wire
	apiKeyBytes = 32 // 256 bits
)

type AuthService struct {
	nonces  *repository.NonceRepository
	wallets *repository.WalletRepository
	keys    *repository.AgentKeyRepository
	cfg     config.Auth
	logger  *zap.Logger
	now     func() time.Time
}

func NewAuthService(
	nonces *repository.NonceRepository,
	wallets *repository.WalletRepository,
	keys *repository.AgentKeyRepository,
	cfg config.Auth,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		nonces:  nonces,
		wallets: wallets,
		keys:    keys,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

// WithClock overrides the time source. Test hook only.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

// IssueNonce mints a fresh challenge nonce bound to the caller's IP. Rejects
// once the IP has hit the per-window issuance limit; the counter check is
// best-effort, a small overshoot under racing requests is acceptable.
func (s *AuthService) IssueNonce(ctx context.Context, clientIP string) (string, error) {
	now := s.now()
	count, err := s.nonces.CountIssuedSince(ctx, clientIP, now.Add(-s.cfg.NonceRateWindow))
	if err != nil {
		s.logger.Error("nonce rate check failed", zap.Error(err))
		return "", apperrors.Wrap(apperrors.CodeInternal, "internal server error", err)
	}
	if count >= int64(s.cfg.NonceRateLimit) {
		return "", apperrors.ErrTooManyRequests
	}

	value, err := randomHex(nonceBytes)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeInternal, "internal server error", err)
	}

	nonce := &model.AuthNonce{
		Value:     value,
		IssuingIP: clientIP,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.NonceTTL),
	}
	if err := s.nonces.Create(ctx, nonce); err != nil {
		s.logger.Error("nonce insert failed", zap.Error(err))
		return "", apperrors.Wrap(apperrors.CodeInternal, "internal server error", err)
	}
	return value, nil
}

type RegisterResult struct {
	WalletID  uint64
	Address   string
	PublicKey string
	Token     string
}

// Register exchanges a signed challenge for a bearer API key.
//
// Order matters: the nonce is consumed before any signature work, so a replay
// is dead on arrival no matter which later check fails. The claimed address
// is only ever compared against the recovered one — the signature is the
// proof of control, the address field just names what the client thinks it is.
func (s *AuthService) Register(ctx context.Context, address, signature, nonceValue string) (*RegisterResult, error) {
	if address == "" || signature == "" || nonceValue == "" {
		return nil, apperrors.InvalidArg("address, signature and nonce are required")
	}

	nonce, consumed, err := s.nonces.Consume(ctx, nonceValue)
	if err != nil {
		s.logger.Error("nonce consume failed", zap.Error(err))
		return nil, apperrors.Wrap(apperrors.CodeInternal, "internal server error", err)
	}
	if !consumed {
		return nil, apperrors.ErrInvalidNonce
	}
	if s.now().After(nonce.ExpiresAt) {
		return nil, apperrors.ErrInvalidNonce
	}

	message := ChallengePrefix + nonceValue
	recoveredAddress, publicKey, err := eip191.RecoverSigner(message, signature)
	if err != nil {
		// Malformed bytes and genuine mismatches look identical to the caller.
		return nil, apperrors.ErrSignatureMismatch
	}
	if !strings.EqualFold(recoveredAddress, address) {
		return nil, apperrors.ErrSignatureMismatch
	}

	wallet, err := s.wallets.Upsert(ctx, recoveredAddress, publicKey)
	if err != nil {
		s.logger.Error("wallet upsert failed", zap.Error(err))
		return nil, apperrors.Wrap(apperrors.CodeInternal, "internal server error", err)
	}

	token, err := randomHex(apiKeyBytes)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "internal server error", err)
	}
	if err := s.keys.Upsert(ctx, wallet.ID, token, s.now()); err != nil {
		s.logger.Error("agent key upsert failed", zap.Error(err), zap.Uint64("wallet_id", wallet.ID))
		return nil, apperrors.Wrap(apperrors.CodeInternal, "internal server error", err)
	}

	s.logger.Info("agent registered", zap.String("address", recoveredAddress), zap.Uint64("wallet_id", wallet.ID))
	return &RegisterResult{
		WalletID:  wallet.ID,
		Address:   recoveredAddress,
		PublicKey: publicKey,
		Token:     token,
	}, nil
}

// Authorize validates a bearer token and meters the request in the same
// storage round-trip, returning the acting wallet id.
func (s *AuthService) Authorize(ctx context.Context, token string) (uint64, error) {
	if token == "" {
		return 0, apperrors.ErrMissingAuthHeader
	}
	walletID, ok, err := s.keys.AuthorizeAndMeter(ctx, token, s.now())
	if err != nil {
		s.logger.Error("authorize failed", zap.Error(err))
		return 0, apperrors.Wrap(apperrors.CodeInternal, "internal server error", err)
	}
	if !ok {
		return 0, apperrors.ErrInvalidAgentKey
	}
	return walletID, nil
}

// PurgeExpired sweeps dead nonce rows. Correctness never depends on the
// sweep — expired nonces fail verification regardless — it just keeps the
// table small.
func (s *AuthService) PurgeExpired(ctx context.Context) {
	deleted, err := s.nonces.DeleteExpired(ctx, s.now())
	if err != nil {
		s.logger.Warn("nonce purge failed", zap.Error(err))
		return
	}
	if deleted > 0 {
		s.logger.Debug("purged expired nonces", zap.Int64("count", deleted))
	}
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
