// Package middleware holds the echo middleware guarding the API.
package middleware

import (
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"readnest/internal/auth"
	apperrors "readnest/internal/errors"
	"readnest/internal/model"
)

// ClaimsKey is the echo context key holding the verified *auth.Claims.
const ClaimsKey = "claims"

// TokenParser verifies a bearer access token.
type TokenParser interface {
	ParseAccessToken(token string) (*auth.Claims, error)
}

// JWT rejects requests without a valid bearer access token and stores the
// verified claims under ClaimsKey.
func JWT(parser TokenParser) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ContextKey:  ClaimsKey,
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			return parser.ParseAccessToken(token)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return unauthorized()
		},
	})
}

// ClaimsFrom returns the claims stored by JWT.
func ClaimsFrom(c echo.Context) (*auth.Claims, bool) {
	claims, ok := c.Get(ClaimsKey).(*auth.Claims)
	return claims, ok && claims != nil
}

// RequireRole allows the request through only if the caller holds one of roles.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := ClaimsFrom(c)
			if !ok {
				return unauthorized()
			}
			for _, r := range roles {
				if claims.Role == r {
					return next(c)
				}
			}
			return forbidden()
		}
	}
}

// SelfOrAdmin allows admins, and callers whose subject equals the path parameter.
func SelfOrAdmin(param string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := ClaimsFrom(c)
			if !ok {
				return unauthorized()
			}
			if claims.Role == model.RoleAdmin || claims.Subject == c.Param(param) {
				return next(c)
			}
			return forbidden()
		}
	}
}

func unauthorized() error {
	return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
		Error: "missing or invalid access token",
		Code:  "UNAUTHORIZED",
	})
}

func forbidden() error {
	httpErr := apperrors.MapErrorToHTTP(apperrors.ErrForbidden)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}
