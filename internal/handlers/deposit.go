package handlers

import (
	"errors"
	"log"

	"kobopay/internal/gateway/paystack"
	"kobopay/internal/services/auth"
	"kobopay/internal/services/deposit"
	"kobopay/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type DepositHandler struct {
	depositService deposit.Service
	authService    auth.Service
}

func NewDepositHandler(depositService deposit.Service, authService auth.Service) *DepositHandler {
	return &DepositHandler{
		depositService: depositService,
		authService:    authService,
	}
}

// InitiateDeposit opens a gateway payment session for the caller.
func (h *DepositHandler) InitiateDeposit(c *fiber.Ctx) error {
	principal, err := utils.GetPrincipal(c)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var req struct {
		AmountKobo int64 `json:"amount_kobo"`
	}
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequest(c, "Invalid request body")
	}

	user, err := h.authService.GetUserByID(principal.PrincipalUserID())
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	result, err := h.depositService.Initiate(c.Context(), user, req.AmountKobo)
	if err != nil {
		var verr *deposit.ValidationError
		if errors.As(err, &verr) {
			return utils.BadRequest(c, verr.Message)
		}
		var gerr *paystack.GatewayError
		if errors.As(err, &gerr) {
			return utils.Respond(c, fiber.StatusBadGateway, fiber.Map{"error": gerr.Message})
		}
		log.Printf("deposit initiation failed user_id=%d: %v", user.ID, err)
		return utils.InternalError(c, "Failed to initiate deposit")
	}

	status := fiber.StatusCreated
	if result.Reused {
		status = fiber.StatusOK
	}
	return utils.Respond(c, status, result)
}

// DepositStatus reports (and on demand re-verifies) a deposit's state.
func (h *DepositHandler) DepositStatus(c *fiber.Ctx) error {
	principal, err := utils.GetPrincipal(c)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	reference := c.Params("reference")
	forceRefresh := c.QueryBool("refresh", false)

	result, err := h.depositService.CheckStatus(c.Context(), principal.PrincipalUserID(), reference, forceRefresh)
	if err != nil {
		if errors.Is(err, deposit.ErrDepositNotFound) {
			return utils.NotFound(c, "Deposit not found")
		}
		var gerr *paystack.GatewayError
		if errors.As(err, &gerr) {
			return utils.Respond(c, fiber.StatusBadGateway, fiber.Map{"error": gerr.Message})
		}
		log.Printf("deposit status check failed reference=%s: %v", reference, err)
		return utils.InternalError(c, "Failed to check deposit status")
	}

	return utils.Success(c, result)
}

// PaystackWebhook receives gateway callbacks. The gateway retries on
// non-200, so the handler acknowledges everything and logs failures
// internally.
func (h *DepositHandler) PaystackWebhook(c *fiber.Ctx) error {
	signature := c.Get("X-Paystack-Signature")

	if err := h.depositService.HandleCallback(c.Context(), c.Body(), signature); err != nil {
		log.Printf("webhook processing failed: %v", err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": true})
}
