package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/auth-service/pkg/util/errorutil"
)

const bearerTokenKey = "auth_bearer_token"

// RequireBearer rejects requests without a well-formed bearer credential and
// stores the raw token for handlers. Verification happens in the Gate.
func RequireBearer() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := ParseAuthorization(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
			return err
		}
		c.Locals(bearerTokenKey, token)
		return c.Next()
	}
}

// ParseAuthorization extracts the token from an "Authorization: Bearer <token>" value.
func ParseAuthorization(header string) (string, error) {
	if header == "" {
		return "", apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", apperrors.NewUnauthorized("invalid authorization header")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", apperrors.NewUnauthorized("invalid authorization header")
	}
	return token, nil
}

// TokenFromContext returns the bearer token stored by RequireBearer.
func TokenFromContext(c *fiber.Ctx) string {
	token, _ := c.Locals(bearerTokenKey).(string)
	return token
}
