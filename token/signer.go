package token

import (
	"crypto/rand"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenInvalid is returned when a token fails signature, expiry, or
// format checks. Tokens signed before a rekey fail with this error.
var ErrTokenInvalid = errors.New("invalid verification token")

const signingKeySize = 32

// Claims is the payload of a verification token.
type Claims struct {
	User   uint64 `json:"uid"`
	Tenant uint64 `json:"tid,omitempty"`
	jwt.RegisteredClaims
}

// Signer issues and verifies verification tokens. Safe for concurrent use;
// Issue and Verify snapshot the signing key under a read lock so they
// never block each other.
type Signer struct {
	mu         sync.RWMutex
	key        []byte
	validity   time.Duration
	generation uint64
}

// NewSigner creates a Signer with a fresh random signing key.
func NewSigner(validity time.Duration) (*Signer, error) {
	if validity <= 0 {
		return nil, errors.New("invalid token validity")
	}
	key, err := newSigningKey()
	if err != nil {
		return nil, err
	}
	return &Signer{key: key, validity: validity}, nil
}

func newSigningKey() ([]byte, error) {
	key := make([]byte, signingKeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("signing key generation failed: %w", err)
	}
	return key, nil
}

// Rotate replaces the signing key, invalidating all outstanding tokens,
// and adopts the given validity window. Without force, rotation only
// happens when the validity actually changed; a forced rotation always
// discards the key.
func (s *Signer) Rotate(validity time.Duration, force bool) error {
	if validity <= 0 {
		return errors.New("invalid token validity")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !force && validity == s.validity {
		return nil
	}
	key, err := newSigningKey()
	if err != nil {
		return err
	}
	s.key = key
	s.validity = validity
	s.generation++
	return nil
}

// Validity returns the current token validity window.
func (s *Signer) Validity() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.validity
}

// Generation counts key rotations since the signer was created.
func (s *Signer) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// Issue signs a verification token for the user within the tenant.
func (s *Signer) Issue(user, tenant uint64) (string, error) {
	s.mu.RLock()
	key := s.key
	validity := s.validity
	s.mu.RUnlock()

	now := time.Now()
	claims := Claims{
		User:   user,
		Tenant: tenant,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

// Verify checks the token against the current signing key and returns its
// claims.
func (s *Signer) Verify(tokenString string) (Claims, error) {
	s.mu.RLock()
	key := s.key
	s.mu.RUnlock()

	var claims Claims
	parsed, err := jwt.ParseWithClaims(tokenString, &claims,
		func(t *jwt.Token) (any, error) { return key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return Claims{}, ErrTokenInvalid
	}
	return claims, nil
}
