package auth

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readnest/internal/model"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestJWTService(t *testing.T) *JWTService {
	t.Helper()
	svc, err := NewJWTService(TokenConfig{
		Secret:         []byte(testSecret),
		Issuer:         "readnest",
		Audience:       "readnest-api",
		AccessTokenTTL: 15 * time.Minute,
	})
	require.NoError(t, err)
	return svc
}

func testUser() *model.User {
	return &model.User{
		ID:        42,
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Role:      model.RoleLibraryMember,
	}
}

func TestNewJWTService_RejectsBadConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     TokenConfig
		wantErr error
	}{
		{
			name:    "short secret",
			cfg:     TokenConfig{Secret: []byte("too-short"), AccessTokenTTL: time.Minute},
			wantErr: ErrWeakSecret,
		},
		{
			name:    "zero ttl",
			cfg:     TokenConfig{Secret: []byte(testSecret)},
			wantErr: ErrInvalidTTL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := NewJWTService(tt.cfg)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, svc)
		})
	}
}

func TestJWTService_IssueAccessToken_RoundTrip(t *testing.T) {
	svc := newTestJWTService(t)
	user := testUser()

	token, err := svc.IssueAccessToken(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ParseAccessToken(token)
	require.NoError(t, err)

	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "Ada", claims.GivenName)
	assert.Equal(t, "Lovelace", claims.FamilyName)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, model.RoleLibraryMember, claims.Role)
	assert.Equal(t, "readnest", claims.Issuer)
	assert.Contains(t, claims.Audience, "readnest-api")
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), claims.ExpiresAt.Time, 2*time.Second)

	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
}

func TestJWTService_ParseAccessToken_Rejects(t *testing.T) {
	svc := newTestJWTService(t)
	user := testUser()

	other, err := NewJWTService(TokenConfig{
		Secret:         []byte(strings.Repeat("x", 32)),
		Issuer:         "readnest",
		Audience:       "readnest-api",
		AccessTokenTTL: time.Minute,
	})
	require.NoError(t, err)
	foreignSigned, err := other.IssueAccessToken(user)
	require.NoError(t, err)

	wrongAudience, err := NewJWTService(TokenConfig{
		Secret:         []byte(testSecret),
		Issuer:         "readnest",
		Audience:       "someone-else",
		AccessTokenTTL: time.Minute,
	})
	require.NoError(t, err)
	wrongAudienceToken, err := wrongAudience.IssueAccessToken(user)
	require.NoError(t, err)

	expired := newTestJWTService(t)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	expiredToken, err := expired.IssueAccessToken(user)
	require.NoError(t, err)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		Role: model.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			Issuer:    "readnest",
			Audience:  jwt.ClaimStrings{"readnest-api"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	badRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		Role: model.Role("Librarian"),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			Issuer:    "readnest",
			Audience:  jwt.ClaimStrings{"readnest-api"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-jwt"},
		{name: "foreign signature", token: foreignSigned},
		{name: "wrong audience", token: wrongAudienceToken},
		{name: "expired", token: expiredToken},
		{name: "alg none", token: noneToken},
		{name: "unknown role", token: badRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := svc.ParseAccessToken(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
			assert.Nil(t, claims)
		})
	}
}

func TestJWTService_IssueRefreshToken(t *testing.T) {
	svc := newTestJWTService(t)

	first, err := svc.IssueRefreshToken(7)
	require.NoError(t, err)
	second, err := svc.IssueRefreshToken(7)
	require.NoError(t, err)

	assert.Equal(t, uint(7), first.UserID)
	assert.False(t, first.IsUsed)
	assert.False(t, first.IsRevoked)
	assert.WithinDuration(t, time.Now().Add(RefreshTokenExpiry), first.ExpiresAt, 2*time.Second)
	assert.NotEqual(t, first.Token, second.Token)

	raw, err := base64.StdEncoding.DecodeString(first.Token)
	require.NoError(t, err)
	assert.Len(t, raw, 32)
}
