// Package jwtx implements the signed token codec: short-lived access tokens
// carrying an identity subject and role, and longer-lived single-use refresh
// tokens carrying only a unique id. Both are HS512 JWTs under one symmetric
// key.
package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/veil-id/veil/pkg/idx"
)

// Default token TTLs. Services usually override these from config.
const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

var (
	// ErrInvalidToken covers malformed tokens, bad signatures and wrong
	// algorithms alike. The stages are deliberately indistinguishable so a
	// caller cannot learn which check failed.
	ErrInvalidToken = errors.New("jwtx: invalid token")

	// ErrExpired reports a well-signed token outside its validity window.
	ErrExpired = errors.New("jwtx: token expired")

	// ErrClaimMissing reports a claim the token kind does not carry, e.g.
	// asking a refresh token for its subject.
	ErrClaimMissing = errors.New("jwtx: claim missing")
)

// Claims are the token claims used across the service. Access tokens carry
// Subject (the raw identity token) and Role; refresh tokens carry only ID
// (jti) so a leaked refresh token authenticates nothing by itself.
type Claims struct {
	jwt.RegisteredClaims

	Role string `json:"role,omitempty"`
}

// Codec signs and verifies tokens with a single symmetric key.
type Codec struct {
	key        []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewCodec(key []byte, issuer string, accessTTL, refreshTTL time.Duration) (*Codec, error) {
	if len(key) == 0 {
		return nil, errors.New("jwtx: empty signing key")
	}
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTokenTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTokenTTL
	}
	return &Codec{
		key:        key,
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}, nil
}

// AccessTTL returns the configured access token lifetime.
func (c *Codec) AccessTTL() time.Duration { return c.accessTTL }

// RefreshTTL returns the configured refresh token lifetime.
func (c *Codec) RefreshTTL() time.Duration { return c.refreshTTL }

// IssueAccess builds a signed access token for the given identity subject
// and role, valid from now until now+accessTTL.
func (c *Codec) IssueAccess(subject, role string, now time.Time) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.accessTTL)),
		},
		Role: role,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("jwtx: signing access token: %w", err)
	}
	return token, nil
}

// IssueRefresh builds a signed refresh token carrying a fresh unique id and
// no subject. It returns the token and its unique id (jti).
func (c *Codec) IssueRefresh(now time.Time) (string, string, error) {
	jti := idx.New().String()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.refreshTTL)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(c.key)
	if err != nil {
		return "", "", fmt.Errorf("jwtx: signing refresh token: %w", err)
	}
	return token, jti, nil
}

// Verify checks the signature and validity window and returns the claims.
// Only two failure kinds are surfaced: ErrExpired for a well-signed token
// outside its window, ErrInvalidToken for everything else.
func (c *Codec) Verify(token string) (Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, c.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
	)
	if err != nil {
		return Claims{}, mapVerifyError(err)
	}
	return *claims, nil
}

// RemainingValidity returns how long the token stays valid from now, clamped
// to zero for expired, malformed or forged tokens. The signature is still
// required: a forged expiry must not be able to extend a blacklist TTL.
func (c *Codec) RemainingValidity(token string, now time.Time) time.Duration {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, c.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil || claims.ExpiresAt == nil {
		return 0
	}

	remaining := claims.ExpiresAt.Time.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// SubjectOf verifies the token and returns its subject claim. Refresh tokens
// have no subject and yield ErrClaimMissing.
func (c *Codec) SubjectOf(token string) (string, error) {
	claims, err := c.Verify(token)
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", ErrClaimMissing
	}
	return claims.Subject, nil
}

// RoleOf verifies the token and returns its role claim.
func (c *Codec) RoleOf(token string) (string, error) {
	claims, err := c.Verify(token)
	if err != nil {
		return "", err
	}
	if claims.Role == "" {
		return "", ErrClaimMissing
	}
	return claims.Role, nil
}

// UniqueIDOf verifies the token and returns its unique id (jti) claim.
// Access tokens carry no jti and yield ErrClaimMissing.
func (c *Codec) UniqueIDOf(token string) (string, error) {
	claims, err := c.Verify(token)
	if err != nil {
		return "", err
	}
	if claims.ID == "" {
		return "", ErrClaimMissing
	}
	return claims.ID, nil
}

func (c *Codec) keyFunc(token *jwt.Token) (any, error) {
	if token.Method.Alg() != jwt.SigningMethodHS512.Alg() {
		return nil, ErrInvalidToken
	}
	return c.key, nil
}

// mapVerifyError collapses golang-jwt's error taxonomy into ours. A bad
// signature always wins over claim validation failures so an attacker cannot
// distinguish "forged" from "forged and expired".
func mapVerifyError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidToken
	case errors.Is(err, jwt.ErrTokenExpired), errors.Is(err, jwt.ErrTokenNotValidYet):
		return ErrExpired
	default:
		return ErrInvalidToken
	}
}
