package auth

import "golang.org/x/crypto/bcrypt"

// Verifier is the credential-verifier capability backed by bcrypt. Digests
// are salted by bcrypt itself; plaintext is never stored anywhere.
type Verifier struct {
	cost int
}

// NewVerifier constructs a Verifier. A non-positive cost falls back to the
// bcrypt default.
func NewVerifier(cost int) *Verifier {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	return &Verifier{cost: cost}
}

// Hash produces an opaque digest of the plaintext.
func (v *Verifier) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), v.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify reports whether plaintext matches the digest. A mismatch is a
// normal false outcome, not an error.
func (v *Verifier) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
