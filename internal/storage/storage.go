package storage

import "errors"

var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountExists      = errors.New("account already exists")
	ErrResetTokenNotFound = errors.New("reset token not found")
)
