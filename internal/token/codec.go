// Package token signs and verifies the access and refresh JWTs. The two
// classes use different secrets, different lifetimes and a distinct typ
// claim, so neither can be presented in place of the other.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrExpired = errors.New("token has expired")
	ErrInvalid = errors.New("invalid token")
)

type Type string

const (
	TypeAccess  Type = "access"
	TypeRefresh Type = "refresh"
)

// Claims is the payload of both token classes.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"id"`
	Type   Type   `json:"typ"`
}

type Config struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

type Codec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewCodec(cfg Config) (*Codec, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("token: access and refresh secrets are required")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("token: access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("token: lifetimes must be positive")
	}
	return &Codec{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		now:           time.Now,
	}, nil
}

func (c *Codec) AccessTTL() time.Duration  { return c.accessTTL }
func (c *Codec) RefreshTTL() time.Duration { return c.refreshTTL }

// SignAccess returns a signed access token for userID and its expiry.
func (c *Codec) SignAccess(userID string) (string, time.Time, error) {
	return c.sign(userID, TypeAccess, c.accessSecret, c.accessTTL)
}

// SignRefresh returns a signed refresh token for userID and its expiry.
func (c *Codec) SignRefresh(userID string) (string, time.Time, error) {
	return c.sign(userID, TypeRefresh, c.refreshSecret, c.refreshTTL)
}

func (c *Codec) VerifyAccess(tokenString string) (*Claims, error) {
	return c.verify(tokenString, TypeAccess, c.accessSecret)
}

func (c *Codec) VerifyRefresh(tokenString string) (*Claims, error) {
	return c.verify(tokenString, TypeRefresh, c.refreshSecret)
}

// AccessKeyFunc returns the key function used to verify access tokens. It is
// handed to the JWT middleware so the guard shares the codec's key policy.
func (c *Codec) AccessKeyFunc() jwt.Keyfunc {
	return keyFunc(c.accessSecret)
}

// ValidateAccessClaims checks the parts of already-parsed access claims that
// the signature check does not cover.
func ValidateAccessClaims(claims *Claims) error {
	if claims == nil || claims.Type != TypeAccess || claims.UserID == "" {
		return ErrInvalid
	}
	return nil
}

func (c *Codec) sign(userID string, typ Type, secret []byte, ttl time.Duration) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, errors.New("token: user id is required")
	}
	now := c.now()
	expiresAt := now.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID: userID,
		Type:   typ,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", typ, err)
	}
	return signed, expiresAt, nil
}

func (c *Codec) verify(tokenString string, typ Type, secret []byte) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, keyFunc(secret),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if !parsed.Valid || claims.Type != typ || claims.UserID == "" {
		return nil, ErrInvalid
	}
	return claims, nil
}

func keyFunc(secret []byte) jwt.Keyfunc {
	return func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	}
}
