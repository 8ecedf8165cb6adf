package handlers

import (
	"errors"
	"time"

	"kobopay/internal/money"
	"kobopay/internal/services/wallet"
	"kobopay/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type WalletHandler struct {
	walletService wallet.Service
}

func NewWalletHandler(walletService wallet.Service) *WalletHandler {
	return &WalletHandler{walletService: walletService}
}

// CreateWallet provisions the caller's wallet. A repeat call reports the
// existing wallet with a conflict status.
func (h *WalletHandler) CreateWallet(c *fiber.Ctx) error {
	principal, err := utils.GetPrincipal(c)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var input struct {
		Currency string `json:"currency"`
	}
	// Body is optional; currency defaults to NGN.
	_ = c.BodyParser(&input)

	w, err := h.walletService.Create(c.Context(), principal.PrincipalUserID(), input.Currency)
	if err != nil {
		if errors.Is(err, wallet.ErrWalletExists) {
			return utils.Respond(c, fiber.StatusConflict, fiber.Map{
				"error":         "Wallet already exists",
				"wallet_number": w.WalletNumber,
			})
		}
		return utils.InternalError(c, "Failed to create wallet")
	}

	return utils.Respond(c, fiber.StatusCreated, fiber.Map{
		"wallet_number": w.WalletNumber,
		"currency":      w.Currency,
		"balance":       money.ToMajorString(w.Balance),
		"status":        w.Status,
	})
}

// GetBalance returns the caller's wallet state. The daily-spent figure is
// the lazy-reset view: yesterday's spend reads as zero after midnight even
// though the row was never rewritten.
func (h *WalletHandler) GetBalance(c *fiber.Ctx) error {
	principal, err := utils.GetPrincipal(c)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	w, err := h.walletService.GetByUser(c.Context(), principal.PrincipalUserID())
	if err != nil {
		if errors.Is(err, wallet.ErrWalletNotFound) {
			return utils.NotFound(c, "Wallet not found")
		}
		return utils.InternalError(c, "Failed to get wallet")
	}

	today := time.Now()
	dailySpent := wallet.EffectiveDailySpent(w, today)

	return utils.Success(c, fiber.Map{
		"wallet_number":    w.WalletNumber,
		"balance":          money.ToMajorString(w.Balance),
		"balance_kobo":     w.Balance,
		"currency":         w.Currency,
		"status":           w.Status,
		"is_locked":        w.IsLocked,
		"daily_limit":      money.ToMajorString(w.DailyLimit),
		"daily_spent":      money.ToMajorString(dailySpent),
		"daily_spent_kobo": dailySpent,
	})
}
