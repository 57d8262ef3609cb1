package models

import "time"

type Account struct {
	ID             int64
	Email          string
	CredentialHash []byte // nil when the account has no password set
}

// HasCredential reports whether a password has ever been set for the account.
func (a *Account) HasCredential() bool {
	return len(a.CredentialHash) > 0
}

type ResetToken struct {
	ID         int64
	AccountID  int64
	SecretHash []byte
	IssuedAt   time.Time
	ExpiresAt  time.Time
	ConsumedAt *time.Time
}

func (t *ResetToken) IsConsumed() bool {
	return t.ConsumedAt != nil
}

func (t *ResetToken) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// IsRedeemable reports whether the token can still be spent at the given moment.
func (t *ResetToken) IsRedeemable(now time.Time) bool {
	return !t.IsConsumed() && !t.IsExpired(now)
}

type Message struct {
	Email   string `json:"to"`
	Link    string `json:"link"`
	Purpose string `json:"purpose"`
}
