package handlers

import (
	"errors"
	"log"

	"kobopay/internal/services/apikey"
	"kobopay/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type APIKeyHandler struct {
	keyService apikey.Service
}

func NewAPIKeyHandler(keyService apikey.Service) *APIKeyHandler {
	return &APIKeyHandler{keyService: keyService}
}

// CreateKey issues a new API key. The plaintext appears in this response
// and nowhere else.
func (h *APIKeyHandler) CreateKey(c *fiber.Ctx) error {
	principal, err := utils.GetPrincipal(c)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var req struct {
		Name        string   `json:"name"`
		Permissions []string `json:"permissions"`
		Expiry      string   `json:"expiry"`
	}
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequest(c, "Invalid request body")
	}

	created, err := h.keyService.Generate(c.Context(), principal.PrincipalUserID(), req.Name, req.Permissions, req.Expiry)
	if err != nil {
		if errors.Is(err, apikey.ErrInvalidExpiry) || errors.Is(err, apikey.ErrInvalidPermission) {
			return utils.BadRequest(c, err.Error())
		}
		log.Printf("api key creation failed: %v", err)
		return utils.InternalError(c, "Failed to create API key")
	}

	return utils.Respond(c, fiber.StatusCreated, fiber.Map{
		"id":          created.Key.PublicID,
		"name":        created.Key.Name,
		"key":         created.Plaintext,
		"masked_key":  created.Key.MaskedKey,
		"permissions": created.Key.PermissionList(),
		"expires_at":  created.Key.ExpiresAt,
		"warning":     "Store this key securely. It will not be shown again.",
	})
}

// ListKeys returns the caller's keys, masked.
func (h *APIKeyHandler) ListKeys(c *fiber.Ctx) error {
	principal, err := utils.GetPrincipal(c)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	keys, err := h.keyService.List(c.Context(), principal.PrincipalUserID())
	if err != nil {
		return utils.InternalError(c, "Failed to list API keys")
	}

	out := make([]fiber.Map, 0, len(keys))
	for i := range keys {
		k := &keys[i]
		out = append(out, fiber.Map{
			"id":           k.PublicID,
			"name":         k.Name,
			"masked_key":   k.MaskedKey,
			"permissions":  k.PermissionList(),
			"is_active":    k.IsActive,
			"expires_at":   k.ExpiresAt,
			"last_used_at": k.LastUsedAt,
			"created_at":   k.CreatedAt,
		})
	}
	return utils.Success(c, fiber.Map{"keys": out})
}

// RevokeKey deactivates one of the caller's keys.
func (h *APIKeyHandler) RevokeKey(c *fiber.Ctx) error {
	principal, err := utils.GetPrincipal(c)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	if err := h.keyService.Revoke(c.Context(), principal.PrincipalUserID(), c.Params("id")); err != nil {
		if errors.Is(err, apikey.ErrKeyNotFound) {
			return utils.NotFound(c, "API key not found")
		}
		return utils.InternalError(c, "Failed to revoke API key")
	}

	return utils.Success(c, fiber.Map{"message": "API key revoked"})
}
