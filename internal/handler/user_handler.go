package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"readnest/internal/model"
	"readnest/internal/repository"
	"readnest/internal/service"
)

// UserHandler bundles HTTP handlers.
type UserHandler struct {
	svc service.UserService
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// UpdateUserRequest replaces a user's profile. Role is ignored unless the caller is an admin.
type UpdateUserRequest struct {
	ID            uint        `json:"id" validate:"required"`
	FirstName     string      `json:"firstName" validate:"required,max=100"`
	LastName      string      `json:"lastName" validate:"required,max=100"`
	Email         string      `json:"email" validate:"required,email,max=255"`
	Address       *string     `json:"address" validate:"omitempty,max=300"`
	ContactNumber *string     `json:"contactNumber" validate:"omitempty,max=15"`
	Role          *model.Role `json:"role" validate:"omitempty,oneof=Admin LibraryMember"`
}

// GetUser godoc
// @Summary Get user by id
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	user, err := h.svc.GetUser(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

// ListUsers godoc
// @Summary List users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param firstName query string false "Exact first name"
// @Param lastName query string false "Exact last name"
// @Param email query string false "Exact email"
// @Param role query string false "Admin or LibraryMember"
// @Param searchQuery query string false "Substring match on name, email, address and contact number"
// @Param pageNumber query int false "Page number" default(1)
// @Param pageSize query int false "Page size, at most 20" default(10)
// @Success 200 {array} model.User
// @Header 200 {string} X-Pagination "Page metadata as JSON"
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /users [get]
func (h *UserHandler) ListUsers(c echo.Context) error {
	page, err := pageFromQuery(c)
	if err != nil {
		return err
	}

	filter := repository.UserFilter{
		FirstName:   c.QueryParam("firstName"),
		LastName:    c.QueryParam("lastName"),
		Email:       c.QueryParam("email"),
		SearchQuery: c.QueryParam("searchQuery"),
	}
	if raw := c.QueryParam("role"); raw != "" {
		role, err := model.ParseRole(raw)
		if err != nil {
			return badRequest("INVALID_ROLE", err.Error())
		}
		filter.Role = role
	}

	users, meta, err := h.svc.ListUsers(c.Request().Context(), filter, page)
	if err != nil {
		return fail(c, err)
	}
	setPagination(c, meta)
	return c.JSON(http.StatusOK, users)
}

// UpdateUser godoc
// @Summary Update a user profile
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body UpdateUserRequest true "Profile"
// @Success 200 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /users/{id} [put]
func (h *UserHandler) UpdateUser(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	_, claims, err := caller(c)
	if err != nil {
		return err
	}

	var req UpdateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.svc.UpdateUser(c.Request().Context(), id, service.UpdateUserInput{
		ID:            req.ID,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Email:         req.Email,
		Address:       req.Address,
		ContactNumber: req.ContactNumber,
		Role:          req.Role,
	}, claims.Role == model.RoleAdmin)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

// DeleteUser godoc
// @Summary Delete a user and their loans and tokens
// @Tags users
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 204
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id} [delete]
func (h *UserHandler) DeleteUser(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteUser(c.Request().Context(), id); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
