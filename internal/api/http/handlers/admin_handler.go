package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/auth-service/internal/api/dto"
	"github.com/spec-kit/auth-service/internal/auth"
	"github.com/spec-kit/auth-service/internal/service"
	apperrors "github.com/spec-kit/auth-service/pkg/util/errorutil"
)

// AdminHandler exposes user administration endpoints.
type AdminHandler struct {
	auth *service.AuthService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(authService *service.AuthService) *AdminHandler {
	return &AdminHandler{auth: authService}
}

// List handles GET /api/v1/users?skip=&limit=.
func (h *AdminHandler) List(c *fiber.Ctx) error {
	skip, err := parseInt(c.Query("skip"), 0)
	if err != nil {
		return apperrors.NewValidationError("skip must be an integer", nil)
	}
	limit, err := parseInt(c.Query("limit"), service.DefaultListLimit)
	if err != nil {
		return apperrors.NewValidationError("limit must be an integer", nil)
	}

	users, err := h.auth.ListUsers(c.UserContext(), auth.TokenFromContext(c), skip, limit)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponses(users)})
}

// Create handles POST /api/v1/users.
func (h *AdminHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, err := h.auth.CreateUser(c.UserContext(), auth.TokenFromContext(c), service.SignupInput{
		Email:           req.Email,
		Name:            req.Name,
		Password:        req.Password,
		ProfileImageURL: req.ProfileImageURL,
	}, req.Role)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewUserResponse(*user)})
}

// UpdateRole handles PUT /api/v1/users/:id/role. The role is read from the
// JSON body, falling back to the ?role= query parameter.
func (h *AdminHandler) UpdateRole(c *fiber.Ctx) error {
	var req dto.UpdateRoleRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	if req.Role == "" {
		req.Role = c.Query("role")
	}

	user, err := h.auth.UpdateUserRole(c.UserContext(), auth.TokenFromContext(c), c.Params("id"), req.Role)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(*user)})
}

// Delete handles DELETE /api/v1/users/:id.
func (h *AdminHandler) Delete(c *fiber.Ctx) error {
	if err := h.auth.DeleteUser(c.UserContext(), auth.TokenFromContext(c), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"ok": true}})
}

func parseInt(value string, fallback int) (int, error) {
	if value == "" {
		return fallback, nil
	}
	return strconv.Atoi(value)
}
