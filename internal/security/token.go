package security

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/segmentio/ksuid"

	"github.com/cemlevent54/FileMate/internal/clock"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrExpiredToken   = errors.New("token expired")
	ErrWrongTokenType = errors.New("wrong token type")
)

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
	TokenTypeReset   TokenType = "reset"
)

type Claims struct {
	UserID uint      `json:"id"`
	Email  string    `json:"email,omitempty"`
	Type   TokenType `json:"type"`
	jwt.RegisteredClaims
}

type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	// ResetSecret defaults to AccessSecret when empty.
	ResetSecret string
	AccessTTL   time.Duration
	RefreshTTL  time.Duration
	ResetTTL    time.Duration
	Issuer      string
}

type IssuedToken struct {
	Token     string
	ID        string
	ExpiresAt time.Time
}

// TokenCodec signs and verifies HS256 tokens with one secret per token class.
type TokenCodec struct {
	secrets map[TokenType][]byte
	ttls    map[TokenType]time.Duration
	issuer  string
	clock   clock.Clock
}

func NewTokenCodec(cfg TokenConfig, clk clock.Clock) (*TokenCodec, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("token codec: access and refresh secrets are required")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("token codec: access and refresh secrets must differ")
	}
	if cfg.ResetSecret == "" {
		cfg.ResetSecret = cfg.AccessSecret
	}
	if clk == nil {
		clk = clock.Real{}
	}

	return &TokenCodec{
		secrets: map[TokenType][]byte{
			TokenTypeAccess:  []byte(cfg.AccessSecret),
			TokenTypeRefresh: []byte(cfg.RefreshSecret),
			TokenTypeReset:   []byte(cfg.ResetSecret),
		},
		ttls: map[TokenType]time.Duration{
			TokenTypeAccess:  cfg.AccessTTL,
			TokenTypeRefresh: cfg.RefreshTTL,
			TokenTypeReset:   cfg.ResetTTL,
		},
		issuer: cfg.Issuer,
		clock:  clk,
	}, nil
}

func (c *TokenCodec) IssueAccess(userID uint, email string) (IssuedToken, error) {
	return c.issue(TokenTypeAccess, userID, email)
}

func (c *TokenCodec) IssueRefresh(userID uint) (IssuedToken, error) {
	return c.issue(TokenTypeRefresh, userID, "")
}

func (c *TokenCodec) IssueReset(userID uint, email string) (IssuedToken, error) {
	return c.issue(TokenTypeReset, userID, email)
}

func (c *TokenCodec) VerifyAccess(raw string) (*Claims, error) {
	return c.verify(raw, TokenTypeAccess)
}

func (c *TokenCodec) VerifyRefresh(raw string) (*Claims, error) {
	return c.verify(raw, TokenTypeRefresh)
}

func (c *TokenCodec) VerifyReset(raw string) (*Claims, error) {
	return c.verify(raw, TokenTypeReset)
}

// ExpiresAt checks the signature against the secret of the token's own class
// but ignores expiry, so already lapsed tokens can still be revoked.
func (c *TokenCodec) ExpiresAt(raw string) (time.Time, error) {
	typ, err := PeekTokenType(raw)
	if err != nil {
		return time.Time{}, err
	}
	secret, ok := c.secrets[typ]
	if !ok {
		return time.Time{}, fmt.Errorf("%w: unknown type %q", ErrInvalidToken, typ)
	}

	claims := &Claims{}
	_, err = jwt.ParseWithClaims(raw, claims, keyFunc(secret),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, fmt.Errorf("%w: missing exp", ErrInvalidToken)
	}
	return claims.ExpiresAt.Time, nil
}

// Peek decodes the claims without checking the signature or expiry. The
// result must never be trusted for authorization.
func Peek(raw string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}

func PeekTokenType(raw string) (TokenType, error) {
	claims, err := Peek(raw)
	if err != nil {
		return "", err
	}
	return claims.Type, nil
}

func (c *TokenCodec) issue(typ TokenType, userID uint, email string) (IssuedToken, error) {
	now := c.clock.Now()
	exp := jwt.NewNumericDate(now.Add(c.ttls[typ]))
	id := ksuid.New().String()

	claims := Claims{
		UserID: userID,
		Email:  email,
		Type:   typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: exp,
			ID:        id,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secrets[typ])
	if err != nil {
		return IssuedToken{}, fmt.Errorf("sign jwt: %w", err)
	}
	return IssuedToken{Token: signed, ID: id, ExpiresAt: exp.Time}, nil
}

// verify rejects a type mismatch before the signature is looked at.
func (c *TokenCodec) verify(raw string, want TokenType) (*Claims, error) {
	typ, err := PeekTokenType(raw)
	if err != nil {
		return nil, err
	}
	if typ != want {
		return nil, fmt.Errorf("%w: got %q, want %q", ErrWrongTokenType, typ, want)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.clock.Now),
		jwt.WithExpirationRequired(),
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, keyFunc(c.secrets[want]), opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrExpiredToken, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func keyFunc(secret []byte) jwt.Keyfunc {
	return func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	}
}
