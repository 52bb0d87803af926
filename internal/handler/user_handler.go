package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"digithesis/internal/auth"
	apperrors "digithesis/internal/errors"
	"digithesis/internal/model"
	"digithesis/internal/pagination"
	"digithesis/internal/service"
)

// UserHandler bundles HTTP handlers.
type UserHandler struct {
	svc service.UserService
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// ChangeRoleRequest carries the new role for a user.
type ChangeRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

// Me godoc
// @Summary Get the current user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.User
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /me [get]
func (h *UserHandler) Me(c echo.Context) error {
	claims := auth.ClaimsFrom(c)
	if claims == nil {
		return fail(c, apperrors.ErrUnauthenticated)
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return fail(c, apperrors.ErrUnauthenticated)
	}

	user, err := h.svc.GetUser(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

// ListUsers godoc
// @Summary List all users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} pagination.Response
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /users/all [get]
func (h *UserHandler) ListUsers(c echo.Context) error {
	page := pagination.FromRequest(c)
	users, total, err := h.svc.ListUsers(c.Request().Context(), auth.RequesterFrom(c), page)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(users, page, total))
}

// ChangeRole godoc
// @Summary Change a user's role
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body ChangeRoleRequest true "New role"
// @Success 200 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/role/{id} [put]
func (h *UserHandler) ChangeRole(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req ChangeRoleRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.svc.ChangeRole(c.Request().Context(), auth.RequesterFrom(c), id, model.Role(req.Role))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, user)
}
