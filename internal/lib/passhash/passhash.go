// Package passhash wraps bcrypt for credential storage. Hashes are
// self-salted, so the same password never produces the same digest twice,
// and comparison happens inside bcrypt in constant time.
package passhash

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

func Hash(password string) ([]byte, error) {
	const op = "passhash.Hash"

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return hash, nil
}

func Verify(password string, hash []byte) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}
