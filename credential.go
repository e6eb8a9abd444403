package feedcore

import "golang.org/x/crypto/bcrypt"

// CredentialVerifier derives and checks password credentials. The stores
// treat it as an opaque collaborator; the digest format is its business.
type CredentialVerifier interface {
	// Hash derives a storable credential from a plaintext password.
	Hash(plaintext string) (string, error)

	// Verify reports whether plaintext matches the stored credential.
	Verify(plaintext, digest string) bool
}

// BcryptVerifier is the default CredentialVerifier, backed by bcrypt.
// A zero Cost means bcrypt.DefaultCost; tests use bcrypt.MinCost.
type BcryptVerifier struct {
	Cost int
}

func (v BcryptVerifier) Hash(plaintext string) (string, error) {
	cost := v.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

func (v BcryptVerifier) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
