package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/victoor832/ColdMailAI-sub001/internal/lib/jwt"
	sl "github.com/victoor832/ColdMailAI-sub001/internal/lib/logger"
	"github.com/victoor832/ColdMailAI-sub001/internal/lib/passhash"
	"github.com/victoor832/ColdMailAI-sub001/internal/lib/recovery"
	"github.com/victoor832/ColdMailAI-sub001/internal/models"
	"github.com/victoor832/ColdMailAI-sub001/internal/storage"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountExists      = errors.New("account already exists")
	ErrInvalidResetToken  = errors.New("invalid reset token")
	ErrPasswordTooShort   = errors.New("password too short")
)

// MinPasswordLen is the observed policy floor. Callers may tighten it,
// the core never goes below it.
const MinPasswordLen = 6

type Auth struct {
	log         *slog.Logger
	accSaver    AccountSaver
	accProvider AccountProvider
	tokenStore  ResetTokenStore
	notifier    recovery.Publisher
	baseURL     string
	sessionTTL  time.Duration
	resetTTL    time.Duration
	secret      string
}

type AccountSaver interface {
	SaveAccount(ctx context.Context, email string, credHash []byte) (id int64, err error)
	UpdateCredentialHash(ctx context.Context, accountID int64, credHash []byte) error
}

type AccountProvider interface {
	AccountByEmail(ctx context.Context, email string) (models.Account, error)
}

type ResetTokenStore interface {
	SaveResetToken(ctx context.Context, accountID int64, secretHash []byte, issuedAt, expiresAt time.Time) error
	ResetTokenBySecretHash(ctx context.Context, secretHash []byte) (models.ResetToken, error)

	// RedeemResetToken sets the account's credential hash and marks the
	// token consumed in one transaction. It must fail with
	// storage.ErrResetTokenNotFound when the token was consumed concurrently.
	RedeemResetToken(ctx context.Context, tokenID, accountID int64, credHash []byte, consumedAt time.Time) error
}

func New(
	log *slog.Logger,
	accountSaver AccountSaver,
	accountProvider AccountProvider,
	tokenStore ResetTokenStore,
	notifier recovery.Publisher,
	baseURL string,
	sessionTTL, resetTTL time.Duration,
	sessionSecret string,
) *Auth {
	return &Auth{
		log:         log,
		accSaver:    accountSaver,
		accProvider: accountProvider,
		tokenStore:  tokenStore,
		notifier:    notifier,
		baseURL:     baseURL,
		sessionTTL:  sessionTTL,
		resetTTL:    resetTTL,
		secret:      sessionSecret,
	}
}

// SignUp registers a new account. The storage layer's unique constraint is
// the authority on duplicates: a conflicting concurrent insert surfaces as
// ErrAccountExists, never as a generic storage error.
func (a *Auth) SignUp(ctx context.Context, email, password string) (int64, error) {
	const op = "auth.SignUp"

	log := a.log.With(slog.String("op", op))

	if len(password) < MinPasswordLen {
		return 0, fmt.Errorf("%s: %w", op, ErrPasswordTooShort)
	}

	_, err := a.accProvider.AccountByEmail(ctx, email)
	if err == nil {
		log.Warn("account already exists")
		return 0, fmt.Errorf("%s: %w", op, ErrAccountExists)
	}
	if !errors.Is(err, storage.ErrAccountNotFound) {
		log.Error("failed to look up account", sl.Err(err))
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	credHash, err := passhash.Hash(password)
	if err != nil {
		log.Error("failed to hash password", sl.Err(err))
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	id, err := a.accSaver.SaveAccount(ctx, email, credHash)
	if err != nil {
		if errors.Is(err, storage.ErrAccountExists) {
			log.Warn("account already exists")
			return 0, fmt.Errorf("%s: %w", op, ErrAccountExists)
		}

		log.Error("failed to save account", sl.Err(err))
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("account registered", slog.Int64("id", id))

	return id, nil
}

// SignIn verifies the credentials and issues a session token. A missing
// account, an account without a credential, and a wrong password all
// produce the same ErrInvalidCredentials so the caller cannot tell which
// occurred.
func (a *Auth) SignIn(ctx context.Context, email, password string) (string, error) {
	const op = "auth.SignIn"

	log := a.log.With(slog.String("op", op))

	account, err := a.accProvider.AccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			log.Info("sign in rejected")
			return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		log.Error("failed to look up account", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if !account.HasCredential() || !passhash.Verify(password, account.CredentialHash) {
		log.Info("sign in rejected")
		return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	token, err := jwt.NewSessionToken(account.ID, a.secret, a.sessionTTL)
	if err != nil {
		log.Error("failed to issue session token", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info("signed in", slog.Int64("id", account.ID))

	return token, nil
}

// RequestReset starts the recovery protocol. For an unknown email it does
// nothing and still returns nil, so the outcome is indistinguishable from
// the registered case. Only storage failures propagate.
func (a *Auth) RequestReset(ctx context.Context, email string) error {
	const op = "auth.RequestReset"

	log := a.log.With(slog.String("op", op))

	account, err := a.accProvider.AccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			log.Info("reset requested for unknown email")
			return nil
		}

		log.Error("failed to look up account", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	rawSecret, err := recovery.NewSecret()
	if err != nil {
		log.Error("failed to generate reset secret", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now()

	err = a.tokenStore.SaveResetToken(ctx, account.ID, recovery.HashSecret(rawSecret), now, now.Add(a.resetTTL))
	if err != nil {
		log.Error("failed to save reset token", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	recovery.SendRecoveryEmail(ctx, log, a.notifier, a.baseURL, account.Email, rawSecret)

	log.Info("reset token issued", slog.Int64("account_id", account.ID))

	return nil
}

// RedeemReset spends a reset token and sets a new credential. An unknown,
// consumed, or expired secret all fail with the same ErrInvalidResetToken.
func (a *Auth) RedeemReset(ctx context.Context, rawSecret, newPassword string) error {
	const op = "auth.RedeemReset"

	log := a.log.With(slog.String("op", op))

	if len(newPassword) < MinPasswordLen {
		return fmt.Errorf("%s: %w", op, ErrPasswordTooShort)
	}

	token, err := a.tokenStore.ResetTokenBySecretHash(ctx, recovery.HashSecret(rawSecret))
	if err != nil {
		if errors.Is(err, storage.ErrResetTokenNotFound) {
			log.Info("redeem rejected")
			return fmt.Errorf("%s: %w", op, ErrInvalidResetToken)
		}

		log.Error("failed to look up reset token", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now()

	if !token.IsRedeemable(now) {
		log.Info("redeem rejected")
		return fmt.Errorf("%s: %w", op, ErrInvalidResetToken)
	}

	credHash, err := passhash.Hash(newPassword)
	if err != nil {
		log.Error("failed to hash new password", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	err = a.tokenStore.RedeemResetToken(ctx, token.ID, token.AccountID, credHash, now)
	if err != nil {
		// Lost the race against another redemption of the same token.
		if errors.Is(err, storage.ErrResetTokenNotFound) {
			log.Info("redeem rejected")
			return fmt.Errorf("%s: %w", op, ErrInvalidResetToken)
		}

		log.Error("failed to redeem reset token", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("credential reset", slog.Int64("account_id", token.AccountID))

	return nil
}
