// Package middleware contains HTTP middleware for the API surface.
package middleware

import (
	"errors"

	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/obohaghogho/fxwallet/pkg/config"
)

// ErrNoUserInContext is returned when a handler behind JwtProtected cannot
// find a verified token in the request context.
var ErrNoUserInContext = errors.New("no authenticated user in request context")

// JwtProtected guards a route with bearer token verification. The verified
// token lands in c.Locals("user") for handlers to read via UserID.
func JwtProtected(cfg *config.Jwt) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:   jwtware.SigningKey{Key: []byte(cfg.Secret)},
		ErrorHandler: jwtError,
	})
}

func jwtError(c *fiber.Ctx, err error) error {
	if errors.Is(err, jwtware.ErrJWTMissingOrMalformed) {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"status": "error", "message": "Missing or malformed JWT"})
	}
	return c.Status(fiber.StatusUnauthorized).
		JSON(fiber.Map{"status": "error", "message": "Invalid or expired JWT"})
}

// UserID extracts the authenticated user's id from the verified token.
func UserID(c *fiber.Ctx) (uuid.UUID, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return uuid.Nil, ErrNoUserInContext
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, ErrNoUserInContext
	}
	sub, ok := claims["user_id"].(string)
	if !ok {
		return uuid.Nil, ErrNoUserInContext
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, ErrNoUserInContext
	}
	return id, nil
}
