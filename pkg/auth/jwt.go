package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token types carried in the typ claim. Refresh tokens hold only the subject;
// access tokens additionally carry email and role.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

type Claims struct {
	Sub   int64  `json:"sub"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	Typ   string `json:"typ"`
	jwt.RegisteredClaims
}

// Tokens signs and verifies the service's bearer credentials. The secret and
// both TTLs are set once at startup and never mutated, so a single value can
// be shared across goroutines freely.
type Tokens struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokens(secret string, accessTTL, refreshTTL time.Duration) *Tokens {
	return &Tokens{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func (t *Tokens) NewAccessToken(sub int64, email, role string) (string, error) {
	return t.sign(Claims{
		Sub:   sub,
		Email: email,
		Role:  role,
		Typ:   TypeAccess,
	}, t.accessTTL)
}

func (t *Tokens) NewRefreshToken(sub int64) (string, error) {
	return t.sign(Claims{
		Sub: sub,
		Typ: TypeRefresh,
	}, t.refreshTTL)
}

func (t *Tokens) sign(claims Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		Audience:  []string{"delivery-api"},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Parse verifies the signature and structure of a token and returns its
// claims. Expired tokens fail with jwt.ErrTokenExpired wrapped in the error.
func (t *Tokens) Parse(tokenString string) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := tok.Claims.(*Claims); ok && tok.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// IsExpired reports whether the token's expiration claim is in the past.
// Anything that cannot be parsed counts as expired.
func (t *Tokens) IsExpired(tokenString string) bool {
	tok, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithoutClaimsValidation())
	if err != nil {
		return true
	}
	claims, ok := tok.Claims.(*Claims)
	if !ok || claims.ExpiresAt == nil {
		return true
	}
	return claims.ExpiresAt.Before(time.Now())
}
