// Package crypto provides password hashers for stored account credentials.
package crypto

import (
	"fmt"
	"strings"

	"github.com/tata/car-sales/internal/core/ports"
)

const (
	AlgorithmBcrypt = "bcrypt"
	AlgorithmArgon2 = "argon2"
)

// NewHasher returns the hasher for algorithm. An empty name selects bcrypt.
// bcryptCost is ignored by other algorithms.
func NewHasher(algorithm string, bcryptCost int) (ports.PasswordHasher, error) {
	switch strings.ToLower(strings.TrimSpace(algorithm)) {
	case "", AlgorithmBcrypt:
		return NewBcryptHasher(bcryptCost)
	case AlgorithmArgon2:
		return NewArgon2Hasher(), nil
	}
	return nil, fmt.Errorf("unknown hash algorithm %q", algorithm)
}
