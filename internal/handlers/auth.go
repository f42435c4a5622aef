package handlers

import (
	"errors"

	"social-backend/internal/services"
	"social-backend/internal/store"

	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware verifies the bearer token and resolves the requesting user
// id into locals.
func AuthMiddleware(c *fiber.Ctx) error {
	// Get token from query param `access_token` or Authorization header
	token := c.Query("access_token")
	if token == "" {
		authHeader := c.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			token = authHeader[7:]
		}
	}

	if token == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "Missing token")
	}

	userID, err := services.ValidateAccessToken(token)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
	}

	c.Locals("user_id", userID)
	return c.Next()
}

// LoginHandler exchanges email and password for the user's profile plus a
// token pair.
func LoginHandler(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"user": nil, "error": "invalid request body", "message": "Login failed",
			})
		}

		user, err := authService.Login(c.Context(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, services.ErrInvalidCredentials) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"user": nil, "error": err.Error(), "message": "Invalid credentials",
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"user": nil, "error": err.Error(), "message": "Login failed",
			})
		}

		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"user": user, "error": nil, "message": "Login successful",
		})
	}
}

// RefreshHandler rotates a token pair from a valid refresh token.
func RefreshHandler(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			RefreshToken string `json:"refreshToken"`
		}
		if err := c.BodyParser(&req); err != nil || req.RefreshToken == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"tokens": nil, "error": "refreshToken required", "message": "Token refresh failed",
			})
		}

		tokens, err := authService.Refresh(req.RefreshToken)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"tokens": nil, "error": "invalid refresh token", "message": "Token refresh failed",
			})
		}

		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"tokens": tokens, "error": nil, "message": "Token refreshed successfully",
		})
	}
}

// statusFor maps service errors onto HTTP statuses, one status per error
// kind.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrPostNotFound),
		errors.Is(err, store.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrUserExists):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials):
		return fiber.StatusUnauthorized
	}
	return fiber.StatusInternalServerError
}
