package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/samber/oops"
)

// Claims combines the registered JWT claims (sub = username) with the role.
type Claims struct {
	jwt.RegisteredClaims
	Role models.Role `json:"role"`
}

// Principal returns the identity carried by the claims.
func (c *Claims) Principal() models.Principal {
	return models.Principal{UserName: c.Subject, Role: c.Role}
}

// TokenCodec issues and verifies HS256 access tokens. The signing key is
// copied at construction and never changes afterwards.
type TokenCodec struct {
	secret   []byte
	issuer   string
	validity time.Duration
	now      func() time.Time
}

// NewTokenCodec returns a codec that signs with secretKey and stamps tokens
// with issuer. Issued tokens expire after validity.
func NewTokenCodec(secretKey []byte, issuer string, validity time.Duration) *TokenCodec {
	secret := make([]byte, len(secretKey))
	copy(secret, secretKey)
	return &TokenCodec{secret: secret, issuer: issuer, validity: validity, now: time.Now}
}

// Validity is the lifetime of tokens made by Issue.
func (c *TokenCodec) Validity() time.Duration {
	return c.validity
}

// Issue signs a token for p that expires after the configured validity.
func (c *TokenCodec) Issue(p models.Principal) (string, error) {
	return c.IssueUntil(p, c.now().Add(c.validity))
}

// IssueUntil signs a token for p with an explicit expiry.
func (c *TokenCodec) IssueUntil(p models.Principal, expiresAt time.Time) (string, error) {
	now := c.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserName,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
		Role: p.Role,
	})

	tokenString, err := token.SignedString(c.secret)
	if err != nil {
		return "", oops.Code("AUTH_SIGN_FAILED").Wrap(err)
	}
	return tokenString, nil
}

// Verify checks signature, structure, issuer and expiry and returns the
// claims. All failures match common.ErrInvalidToken; an expired token also
// matches common.ErrTokenExpired.
func (c *TokenCodec) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", common.ErrInvalidToken, common.ErrTokenExpired)
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if !token.Valid || claims.Subject == "" || !claims.Role.Valid() {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
