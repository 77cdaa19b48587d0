package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"readnest/internal/auth"
	"readnest/internal/errors"
	"readnest/internal/logging"
	"readnest/internal/middleware"
	"readnest/internal/repository"
)

// HeaderPagination carries the JSON page metadata of list responses.
const HeaderPagination = "X-Pagination"

// fail converts a service error into an echo HTTP error. Unclassified
// errors are logged here and reach the client as a generic 500.
func fail(c echo.Context, err error) error {
	httpErr := errors.MapErrorToHTTP(err)
	if httpErr.StatusCode >= http.StatusInternalServerError {
		logger := logging.Component("http")
		logger.Error().Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Msg("request failed")
	}
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}

func badRequest(code, message string) error {
	return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// bindAndValidate decodes the request body into req and runs struct validation.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return badRequest("INVALID_REQUEST", "invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return badRequest("VALIDATION_ERROR", err.Error())
	}
	return nil
}

func pathID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, badRequest("INVALID_ID", "invalid "+name)
	}
	return uint(id), nil
}

// pageFromQuery reads pageNumber and pageSize. Out-of-range values are clamped later.
func pageFromQuery(c echo.Context) (repository.Page, error) {
	var page repository.Page
	err := echo.QueryParamsBinder(c).
		Int("pageNumber", &page.Number).
		Int("pageSize", &page.Size).
		BindError()
	if err != nil {
		return page, badRequest("INVALID_PAGE", "pageNumber and pageSize must be integers")
	}
	return page.Normalize(), nil
}

func optionalBool(c echo.Context, name string) (*bool, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, badRequest("INVALID_QUERY", name+" must be a boolean")
	}
	return &v, nil
}

func optionalUint(c echo.Context, name string) (*uint, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, badRequest("INVALID_QUERY", name+" must be a positive integer")
	}
	id := uint(v)
	return &id, nil
}

func setPagination(c echo.Context, meta repository.PageMeta) {
	if payload, err := json.Marshal(meta); err == nil {
		c.Response().Header().Set(HeaderPagination, string(payload))
	}
}

// caller returns the authenticated user's id and claims.
func caller(c echo.Context) (uint, *auth.Claims, error) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		return 0, nil, echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
			Error: "missing or invalid access token",
			Code:  "UNAUTHORIZED",
		})
	}
	id, err := claims.UserID()
	if err != nil {
		return 0, nil, badRequest("INVALID_SUBJECT", "invalid user id in token")
	}
	return id, claims, nil
}
