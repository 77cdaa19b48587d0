package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "auth sentinel", err: ErrInvalidCredentials, want: KindAuth},
		{name: "wrapped auth sentinel", err: fmt.Errorf("login: %w", ErrInvalidRefreshToken), want: KindAuth},
		{name: "not found", err: ErrBookNotFound, want: KindNotFound},
		{name: "validation", err: Validation("BAD", "bad"), want: KindValidation},
		{name: "fatal wrapper", err: Fatal("store", errors.New("boom")), want: KindFatal},
		{name: "plain error", err: errors.New("boom"), want: KindFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestIsAuthFailure(t *testing.T) {
	assert.True(t, IsAuthFailure(ErrForbidden))
	assert.False(t, IsAuthFailure(ErrUserNotFound))
}

func TestFatal(t *testing.T) {
	assert.NoError(t, Fatal("op", nil))

	cause := errors.New("connection refused")
	err := Fatal("find user", cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "find user: connection refused", err.Error())
}

func TestMapErrorToHTTP(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "invalid credentials", err: ErrInvalidCredentials, wantStatus: http.StatusUnauthorized, wantCode: "INVALID_CREDENTIALS"},
		{name: "invalid refresh token", err: ErrInvalidRefreshToken, wantStatus: http.StatusBadRequest, wantCode: "INVALID_REFRESH_TOKEN"},
		{name: "duplicate user", err: ErrDuplicateUser, wantStatus: http.StatusConflict, wantCode: "DUPLICATE_USER"},
		{name: "forbidden", err: ErrForbidden, wantStatus: http.StatusForbidden, wantCode: "FORBIDDEN"},
		{name: "wrapped not found", err: fmt.Errorf("get: %w", ErrLoanNotFound), wantStatus: http.StatusNotFound, wantCode: "LOAN_NOT_FOUND"},
		{name: "fatal hides details", err: Fatal("db", errors.New("dsn leaked")), wantStatus: http.StatusInternalServerError, wantCode: "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpErr := MapErrorToHTTP(tt.err)
			assert.Equal(t, tt.wantStatus, httpErr.StatusCode)
			assert.Equal(t, tt.wantCode, httpErr.Code)
			assert.NotContains(t, httpErr.ToErrorResponse().Error, "dsn")
		})
	}
}
