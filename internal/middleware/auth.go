// Package middleware provides HTTP middleware for the wallet API. The auth
// middleware is the identity resolver: it maps a bearer token issued by the
// platform's identity service to the owner id the wallet keys accounts by.
package middleware

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"coursepay/internal/config"
	"coursepay/internal/models"
	"coursepay/internal/utils/response"
)

// Auth validates the bearer token and stores the resolved claims in the
// request context under "claims" and "ownerID".
func Auth() fiber.Handler {
	secret := []byte(config.GetEnv("JWT_SECRET", "dev-secret"))

	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return response.Unauthorized(c)
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return response.Unauthorized(c)
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		token, err := jwt.ParseWithClaims(tokenString, &models.UserClaims{}, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return secret, nil
		})
		if err != nil || !token.Valid {
			log.Printf("auth: token validation failed: %v", err)
			return response.Unauthorized(c)
		}

		claims, ok := token.Claims.(*models.UserClaims)
		if !ok || claims.UserID == 0 {
			return response.Unauthorized(c)
		}

		c.Locals("claims", claims)
		c.Locals("ownerID", claims.UserID)
		return c.Next()
	}
}

// AdminOnly rejects callers whose claims lack the admin role.
func AdminOnly(c *fiber.Ctx) error {
	claims, ok := c.Locals("claims").(*models.UserClaims)
	if !ok || claims == nil {
		return response.Unauthorized(c)
	}
	if !claims.IsAdmin() {
		return response.Error(c, fiber.StatusForbidden, "insufficient permissions")
	}
	return c.Next()
}
