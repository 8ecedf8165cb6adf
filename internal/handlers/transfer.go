package handlers

import (
	"errors"

	"kobopay/internal/money"
	"kobopay/internal/services/transfer"
	"kobopay/internal/services/wallet"
	"kobopay/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// TransferHandler exposes the P2P transfer endpoint.
type TransferHandler struct {
	service transfer.Service
}

func NewTransferHandler(s transfer.Service) *TransferHandler { return &TransferHandler{service: s} }

// Transfer handles POST /api/wallet/transfer.
func (h *TransferHandler) Transfer(c *fiber.Ctx) error {
	principal, err := utils.GetPrincipal(c)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var req struct {
		WalletNumber string `json:"wallet_number"`
		AmountKobo   int64  `json:"amount_kobo"`
		Description  string `json:"description"`
	}
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequest(c, "Invalid request body")
	}

	result, err := h.service.Transfer(c.Context(), principal.PrincipalUserID(), req.WalletNumber, req.AmountKobo, req.Description)
	if err != nil {
		switch {
		case errors.Is(err, transfer.ErrInvalidAmount),
			errors.Is(err, transfer.ErrInvalidWalletNumber):
			return utils.BadRequest(c, err.Error())
		case errors.Is(err, wallet.ErrWalletNotFound):
			return utils.NotFound(c, "Wallet not found")
		default:
			return utils.InternalError(c, "Transfer failed")
		}
	}

	if !result.OK {
		return utils.BadRequest(c, result.Message)
	}

	txn := result.Transaction
	return utils.Success(c, fiber.Map{
		"message":          result.Message,
		"reference":        txn.Reference,
		"amount":           money.ToMajorString(txn.Amount),
		"amount_kobo":      txn.Amount,
		"recipient_wallet": txn.RecipientWalletNumber,
		"status":           txn.Status,
	})
}
