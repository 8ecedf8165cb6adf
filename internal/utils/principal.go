package utils

import (
	"errors"

	"kobopay/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetPrincipal extracts the authenticated principal from the Fiber
// context. It returns an error if no principal was resolved.
func GetPrincipal(c *fiber.Ctx) (models.Principal, error) {
	v := c.Locals("principal")
	if v == nil {
		return nil, errors.New("principal not found in context")
	}

	p, ok := v.(models.Principal)
	if !ok {
		return nil, errors.New("invalid principal type")
	}
	return p, nil
}
