package hash

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes passwords with bcrypt at a fixed cost. Tests use
// bcrypt.MinCost to keep them fast.
type Hasher struct {
	Cost int
}

func Default() Hasher {
	return Hasher{Cost: bcrypt.DefaultCost}
}

func (h Hasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

func (Hasher) Check(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
