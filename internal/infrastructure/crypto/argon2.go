package crypto

import (
	"fmt"

	"github.com/matthewhartstonge/argon2"
)

// Argon2Hasher produces PHC-encoded argon2id hashes.
type Argon2Hasher struct {
	cfg argon2.Config
}

func NewArgon2Hasher() *Argon2Hasher {
	return &Argon2Hasher{cfg: argon2.DefaultConfig()}
}

func (h *Argon2Hasher) Hash(plaintext string) (string, error) {
	encoded, err := h.cfg.HashEncoded([]byte(plaintext))
	if err != nil {
		return "", fmt.Errorf("argon2: %w", err)
	}
	return string(encoded), nil
}

func (h *Argon2Hasher) Verify(hash, plaintext string) (bool, error) {
	ok, err := argon2.VerifyEncoded([]byte(plaintext), []byte(hash))
	if err != nil {
		return false, fmt.Errorf("argon2: %w", err)
	}
	return ok, nil
}
