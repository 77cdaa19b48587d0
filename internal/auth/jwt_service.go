package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"readnest/internal/model"
)

const (
	// RefreshTokenExpiry is the duration for which refresh tokens are valid.
	RefreshTokenExpiry = 7 * 24 * time.Hour
	// MinSecretLength is the minimum HMAC key size in bytes.
	MinSecretLength = 32

	refreshTokenBytes = 32
)

var (
	// ErrWeakSecret is returned when the signing secret is too short.
	ErrWeakSecret = fmt.Errorf("jwt secret must be at least %d bytes", MinSecretLength)
	// ErrInvalidTTL is returned when the access token TTL is not positive.
	ErrInvalidTTL = errors.New("access token ttl must be positive")
	// ErrInvalidToken is returned for any access token that fails verification.
	ErrInvalidToken = errors.New("invalid token")
)

// TokenConfig carries the signing material and lifetimes for issued tokens.
type TokenConfig struct {
	Secret         []byte
	Issuer         string
	Audience       string
	AccessTokenTTL time.Duration
}

// Claims represents the access token payload.
type Claims struct {
	GivenName  string     `json:"given_name"`
	FamilyName string     `json:"family_name"`
	Email      string     `json:"email"`
	Role       model.Role `json:"role"`
	jwt.RegisteredClaims
}

// UserID parses the numeric subject.
func (c *Claims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse subject: %w", err)
	}
	return uint(id), nil
}

// TokenIssuer builds and verifies access tokens and mints refresh tokens.
type TokenIssuer interface {
	IssueAccessToken(user *model.User) (string, error)
	IssueRefreshToken(userID uint) (*model.RefreshToken, error)
	ParseAccessToken(token string) (*Claims, error)
}

// JWTService handles JWT token generation and validation.
type JWTService struct {
	cfg TokenConfig
	now func() time.Time
}

var _ TokenIssuer = (*JWTService)(nil)

// NewJWTService creates a new JWT service from cfg.
func NewJWTService(cfg TokenConfig) (*JWTService, error) {
	if len(cfg.Secret) < MinSecretLength {
		return nil, ErrWeakSecret
	}
	if cfg.AccessTokenTTL <= 0 {
		return nil, ErrInvalidTTL
	}
	return &JWTService{cfg: cfg, now: time.Now}, nil
}

// IssueAccessToken generates a signed HS256 access token for the user.
func (s *JWTService) IssueAccessToken(user *model.User) (string, error) {
	now := s.now()
	claims := &Claims{
		GivenName:  user.FirstName,
		FamilyName: user.LastName,
		Email:      user.Email,
		Role:       user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			Issuer:    s.cfg.Issuer,
			Audience:  jwt.ClaimStrings{s.cfg.Audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.AccessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// IssueRefreshToken mints an unsaved opaque refresh token for userID.
func (s *JWTService) IssueRefreshToken(userID uint) (*model.RefreshToken, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("read random: %w", err)
	}
	return &model.RefreshToken{
		UserID:    userID,
		Token:     base64.StdEncoding.EncodeToString(buf),
		ExpiresAt: s.now().UTC().Add(RefreshTokenExpiry),
		IsRevoked: false,
		IsUsed:    false,
	}, nil
}

// ParseAccessToken validates signature, algorithm, lifetime, issuer and audience.
func (s *JWTService) ParseAccessToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.cfg.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithAudience(s.cfg.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if !claims.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role", ErrInvalidToken)
	}
	if _, err := claims.UserID(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}
