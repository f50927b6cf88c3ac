package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/niel17/invoiceflow/internal/common"
	"github.com/niel17/invoiceflow/internal/services"

	"github.com/labstack/echo/v4"
)

// AuthHandlers handles authentication-related HTTP requests
type AuthHandlers struct {
	authService services.AuthService
}

func NewAuthHandlers(authService services.AuthService) *AuthHandlers {
	return &AuthHandlers{authService: authService}
}

// SignupRequest represents the signup request payload
type SignupRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse carries the issued token and the authenticated user
type AuthResponse struct {
	Token string      `json:"token"`
	User  interface{} `json:"user"`
}

// Signup handles POST /v1/auth/signup
func (h *AuthHandlers) Signup(c echo.Context) error {
	ctx := c.Request().Context()

	var req SignupRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" || strings.TrimSpace(req.Name) == "" {
		return common.SendClientError(c, "Email, name and password are required")
	}
	if len(req.Password) < 8 {
		return common.SendValidationError(c, "password", "Password must be at least 8 characters")
	}

	user, token, err := h.authService.Signup(ctx, req.Email, strings.TrimSpace(req.Name), req.Password)
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			return common.SendConflictError(c, "Email already registered")
		}
		return common.SendServerError(c, "Failed to create account")
	}

	return c.JSON(http.StatusCreated, AuthResponse{Token: token, User: user})
}

// Login handles POST /v1/auth/login
func (h *AuthHandlers) Login(c echo.Context) error {
	ctx := c.Request().Context()

	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		return common.SendClientError(c, "Email and password are required")
	}

	user, token, err := h.authService.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
		}
		return common.SendServerError(c, "Failed to log in")
	}

	return c.JSON(http.StatusOK, AuthResponse{Token: token, User: user})
}

// Me handles GET /v1/me
func (h *AuthHandlers) Me(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	user, err := h.authService.GetUser(ctx, userID)
	if err != nil {
		return common.SendServerError(c, "Failed to load user")
	}
	if user == nil {
		return common.SendNotFoundError(c, "user")
	}

	return c.JSON(http.StatusOK, user)
}
