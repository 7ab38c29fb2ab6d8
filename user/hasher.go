package user

import "golang.org/x/crypto/bcrypt"

// PasswordHasher hashes and verifies user passwords
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash string, password string) error
}

// NewBcryptHasher constructs a bcrypt backed PasswordHasher
func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{
		cost: bcrypt.DefaultCost,
	}
}

// BcryptHasher is the default PasswordHasher implementation
type BcryptHasher struct {
	cost int
}

// Hash hashes a plaintext password
func (h *BcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// Verify checks a plaintext password against a stored hash
func (h *BcryptHasher) Verify(hash string, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
