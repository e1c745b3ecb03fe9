package auth

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	chat "github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/pkg/chat/domain"
)

// Authentication errors. Token failures are fatal to the connection attempt;
// no retry without a fresh credential.
var (
	ErrInvalidToken = errors.New("auth: invalid or expired token")
	ErrSuspended    = errors.New("auth: account suspended")
)

// Identity is the result of resolving a bearer credential.
type Identity struct {
	UserID int64
	Role   chat.Role
}

// claims is the JWT payload shape issued by the auth subsystem.
type claims struct {
	UserID int64  `json:"uid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Verifier validates HS256 bearer tokens. The messaging core never issues or
// refreshes credentials itself; Sign exists for tests and local tooling.
type Verifier struct {
	secret []byte
}

// NewVerifier constructs a verifier with the given HMAC secret.
func NewVerifier(secret []byte) (*Verifier, error) {
	if len(secret) == 0 {
		return nil, errors.New("auth: empty signing secret")
	}
	return &Verifier{secret: secret}, nil
}

// NewVerifierFromEnv reads the JWT_SECRET environment variable.
func NewVerifierFromEnv() (*Verifier, error) {
	secret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if secret == "" {
		return nil, errors.New("auth: JWT_SECRET environment variable is not set")
	}
	return NewVerifier([]byte(secret))
}

// Verify resolves a bearer token to an identity.
func (v *Verifier) Verify(tokenStr string) (Identity, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenStr, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("auth: unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return Identity{}, ErrInvalidToken
	}
	role := chat.Role(c.Role)
	if c.UserID <= 0 || !role.Valid() {
		return Identity{}, ErrInvalidToken
	}
	return Identity{UserID: c.UserID, Role: role}, nil
}

// Sign issues a token for the identity, valid for ttl.
func (v *Verifier) Sign(id Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	c := claims{
		UserID: id.UserID,
		Role:   string(id.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(v.secret)
}
