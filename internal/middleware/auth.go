// Package middleware provides HTTP middleware for the application,
// including authentication and capability checks for the fiber web
// framework.
package middleware

import (
	"log"
	"strings"
	"time"

	"kobopay/internal/models"
	"kobopay/internal/services/apikey"
	"kobopay/internal/services/auth"
	"kobopay/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware resolves the caller to a Principal once per request.
// Callers authenticate with either a Bearer JWT or an X-API-Key header;
// everything downstream sees only the resolved principal.
type AuthMiddleware struct {
	authService auth.Service
	keyService  apikey.Service
}

func NewAuthMiddleware(authService auth.Service, keyService apikey.Service) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		keyService:  keyService,
	}
}

// Handler authenticates the request and stores the principal in the
// context. JWT checks cover signature, expiry, and token version; API key
// checks cover existence only, with validity deferred to capability
// checks so an expired key produces 403 rather than 401.
func (m *AuthMiddleware) Handler(c *fiber.Ctx) error {
	if rawKey := c.Get("X-API-Key"); rawKey != "" {
		key, err := m.keyService.Resolve(c.Context(), rawKey)
		if err != nil {
			log.Printf("api key rejected: %v", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid api key"})
		}
		principal := &models.APIKeyPrincipal{Key: key, Now: time.Now()}
		c.Locals("principal", principal)
		c.Locals("userID", principal.PrincipalUserID())
		return c.Next()
	}

	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing authorization header"})
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid authorization format"})
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")

	_, claims, err := utils.ParseToken(tokenString)
	if err != nil {
		log.Printf("token validation error: %v", err)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token"})
	}

	currentVersion, err := m.authService.GetUserTokenVersion(claims.UserID)
	if err != nil {
		log.Printf("error getting token version for user %d: %v", claims.UserID, err)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token"})
	}
	if claims.TokenVersion != currentVersion {
		log.Printf("token version mismatch for user %d: token=%d current=%d",
			claims.UserID, claims.TokenVersion, currentVersion)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "session expired"})
	}

	principal := &models.JWTPrincipal{Claims: claims}
	c.Locals("principal", principal)
	c.Locals("claims", claims)
	c.Locals("userID", claims.UserID)

	return c.Next()
}

// RequireCapability returns a middleware that rejects principals missing
// the given capability. JWT principals always pass; API key principals
// pass only if the key is valid and grants it.
func RequireCapability(capability models.Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, err := utils.GetPrincipal(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		}
		if !principal.Can(capability) {
			log.Printf("capability denied kind=%s user_id=%d capability=%s",
				principal.Kind(), principal.PrincipalUserID(), capability)
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Insufficient permissions"})
		}
		return c.Next()
	}
}
