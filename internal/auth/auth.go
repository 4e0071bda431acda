package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	appErrors "github.com/frahmantamala/hr-management/internal"
)

const (
	TokenTypeAccess            = "access"
	TokenTypeRefresh           = "refresh"
	TokenTypePasswordReset     = "password_reset"
	TokenTypeEmailVerification = "email_verification"

	PasswordResetTTL     = time.Hour
	EmailVerificationTTL = 24 * time.Hour
)

// Claims represents JWT token claims. ID (jti) identifies a single issued token.
type Claims struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Type     string `json:"type"`
	jwt.RegisteredClaims
}

// Subject is who a token is issued for.
type Subject struct {
	UserID   int64
	Username string
	Role     string
}

type IssuedToken struct {
	Token     string
	ID        string
	ExpiresAt time.Time
}

// TokenGenerator creates and validates typed tokens.
type TokenGenerator interface {
	Generate(subject Subject, tokenType string) (IssuedToken, error)
	Validate(tokenString, tokenType string) (*Claims, error)
	TTL(tokenType string) time.Duration
}

// JWTTokenGenerator signs HS256 tokens; each token family has its own secret.
type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	ActionTokenSecret  []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	Now                func() time.Time
}

func NewJWTTokenGenerator(accessSecret, refreshSecret, actionSecret string, accessTTL, refreshTTL time.Duration) *JWTTokenGenerator {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &JWTTokenGenerator{
		AccessTokenSecret:  []byte(accessSecret),
		RefreshTokenSecret: []byte(refreshSecret),
		ActionTokenSecret:  []byte(actionSecret),
		AccessTokenTTL:     accessTTL,
		RefreshTokenTTL:    refreshTTL,
		Now:                time.Now,
	}
}

func (j *JWTTokenGenerator) TTL(tokenType string) time.Duration {
	switch tokenType {
	case TokenTypeAccess:
		return j.AccessTokenTTL
	case TokenTypeRefresh:
		return j.RefreshTokenTTL
	case TokenTypePasswordReset:
		return PasswordResetTTL
	case TokenTypeEmailVerification:
		return EmailVerificationTTL
	}
	return 0
}

func (j *JWTTokenGenerator) secret(tokenType string) ([]byte, error) {
	switch tokenType {
	case TokenTypeAccess:
		return j.AccessTokenSecret, nil
	case TokenTypeRefresh:
		return j.RefreshTokenSecret, nil
	case TokenTypePasswordReset, TokenTypeEmailVerification:
		return j.ActionTokenSecret, nil
	}
	return nil, fmt.Errorf("unknown token type %q", tokenType)
}

func (j *JWTTokenGenerator) Generate(subject Subject, tokenType string) (IssuedToken, error) {
	secret, err := j.secret(tokenType)
	if err != nil {
		return IssuedToken{}, err
	}

	now := j.Now()
	expiresAt := now.Add(j.TTL(tokenType))
	id := uuid.NewString()

	claims := &Claims{
		UserID:   subject.UserID,
		Username: subject.Username,
		Role:     subject.Role,
		Type:     tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Subject:   fmt.Sprintf("%d", subject.UserID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(secret)
	if err != nil {
		return IssuedToken{}, err
	}

	return IssuedToken{Token: tokenString, ID: id, ExpiresAt: expiresAt}, nil
}

// Validate verifies signature, expiry and that the token is of the expected type.
func (j *JWTTokenGenerator) Validate(tokenString, tokenType string) (*Claims, error) {
	secret, err := j.secret(tokenType)
	if err != nil {
		return nil, err
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(j.Now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, appErrors.ErrTokenExpired
		}
		return nil, appErrors.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Type != tokenType || claims.ID == "" {
		return nil, appErrors.ErrInvalidToken
	}
	return claims, nil
}
