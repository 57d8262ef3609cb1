// Package recovery handles the raw side of password-reset tokens: secret
// generation, the digest that actually gets persisted, and delivery of the
// recovery link. The raw secret exists only in the outgoing message.
package recovery

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"log/slog"

	"github.com/victoor832/ColdMailAI-sub001/internal/models"
)

const secretBytes = 32

type Publisher interface {
	SendMessage(ctx context.Context, msg models.Message) error
}

// NewSecret returns a fresh high-entropy secret in URL-safe form.
func NewSecret() (string, error) {
	const op = "recovery.NewSecret"

	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashSecret computes the digest under which a secret is stored and looked up.
func HashSecret(rawSecret string) []byte {
	sum := sha256.Sum256([]byte(rawSecret))
	return sum[:]
}

// SendRecoveryEmail hands the recovery link to the notifier. Delivery is
// best-effort: a publish failure is logged and swallowed, because the token
// already exists and delivery can be retried independently.
func SendRecoveryEmail(
	ctx context.Context,
	log *slog.Logger,
	pub Publisher,
	baseURL, email, rawSecret string,
) {
	resetLink := fmt.Sprintf("%s/reset-password?token=%s", baseURL, rawSecret)

	msg := models.Message{
		Email:   email,
		Link:    resetLink,
		Purpose: "password_reset",
	}

	if err := pub.SendMessage(ctx, msg); err != nil {
		log.Error("failed to send recovery link", slog.Any("err", err))
	}
}
