package handlers

import (
	"errors"
	"time"

	"kobopay/internal/models"
	"kobopay/internal/repositories"
	"kobopay/internal/services/ledger"
	"kobopay/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type TransactionHandler struct {
	ledgerService ledger.Service
}

func NewTransactionHandler(ledgerService ledger.Service) *TransactionHandler {
	return &TransactionHandler{ledgerService: ledgerService}
}

// ListTransactions returns the caller's history, newest first. Supports
// type/status/date filters and pagination.
func (h *TransactionHandler) ListTransactions(c *fiber.Ctx) error {
	principal, err := utils.GetPrincipal(c)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	pagination := utils.GetPagination(c, 1, 20)
	filter := repositories.TransactionFilter{
		Type:   c.Query("type"),
		Status: c.Query("status"),
		Limit:  pagination.Limit,
		Offset: pagination.Offset,
	}
	if from := c.Query("from"); from != "" {
		if ts, err := time.Parse("2006-01-02", from); err == nil {
			filter.StartDate = &ts
		}
	}
	if to := c.Query("to"); to != "" {
		if ts, err := time.Parse("2006-01-02", to); err == nil {
			end := ts.Add(24 * time.Hour)
			filter.EndDate = &end
		}
	}

	page, err := h.ledgerService.History(c.Context(), principal.PrincipalUserID(), filter)
	if err != nil {
		return utils.InternalError(c, "Failed to list transactions")
	}

	pagination.SetTotal(page.Total)
	return utils.Success(c, fiber.Map{
		"transactions": page.Entries,
		"pagination":   pagination,
	})
}

// TransactionStats returns on-demand aggregates over the caller's ledger.
func (h *TransactionHandler) TransactionStats(c *fiber.Ctx) error {
	principal, err := utils.GetPrincipal(c)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	stats, err := h.ledgerService.Stats(c.Context(), principal.PrincipalUserID())
	if err != nil {
		return utils.InternalError(c, "Failed to compute stats")
	}
	return utils.Success(c, stats)
}

// GetTransaction returns one of the caller's transactions by reference,
// together with its status-change audit trail.
func (h *TransactionHandler) GetTransaction(c *fiber.Ctx) error {
	principal, err := utils.GetPrincipal(c)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	txn, err := h.ledgerService.FindByReference(c.Context(), c.Params("reference"), principal.PrincipalUserID())
	if err != nil {
		if errors.Is(err, ledger.ErrTransactionNotFound) {
			return utils.NotFound(c, "Transaction not found")
		}
		return utils.InternalError(c, "Failed to get transaction")
	}

	logs, err := h.ledgerService.Logs(c.Context(), txn.ID)
	if err != nil {
		return utils.InternalError(c, "Failed to get transaction")
	}
	if logs == nil {
		logs = []models.TransactionLog{}
	}

	return utils.Success(c, fiber.Map{
		"transaction": txn,
		"logs":        logs,
	})
}
