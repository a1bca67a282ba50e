package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	domain "coursepay/internal/errors"
	"coursepay/internal/models"
	"coursepay/internal/services/ledger"
	"coursepay/internal/services/wallet"
	"coursepay/internal/utils/response"
)

// AdminHandler serves the back-office account and ledger controls.
type AdminHandler struct {
	walletService wallet.Service
	ledgerService *ledger.Service
}

// NewAdminHandler builds the admin HTTP handler.
func NewAdminHandler(walletService wallet.Service, ledgerService *ledger.Service) *AdminHandler {
	return &AdminHandler{
		walletService: walletService,
		ledgerService: ledgerService,
	}
}

func accountParam(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, domain.ErrAccountNotFound
	}
	return uint(id), nil
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

// Freeze blocks credits and debits on the account. Reads stay available.
func (h *AdminHandler) Freeze(c *fiber.Ctx) error {
	return h.flagOp(c, func(id uint, reason string) (*models.Account, error) {
		return h.walletService.Freeze(c.UserContext(), id, reason)
	})
}

// Unfreeze re-enables mutations.
func (h *AdminHandler) Unfreeze(c *fiber.Ctx) error {
	return h.flagOp(c, func(id uint, _ string) (*models.Account, error) {
		return h.walletService.Unfreeze(c.UserContext(), id)
	})
}

// Deactivate soft-disables the account; the ledger keeps referring to it.
func (h *AdminHandler) Deactivate(c *fiber.Ctx) error {
	return h.flagOp(c, func(id uint, reason string) (*models.Account, error) {
		return h.walletService.Deactivate(c.UserContext(), id, reason)
	})
}

// Reactivate reverses a deactivation.
func (h *AdminHandler) Reactivate(c *fiber.Ctx) error {
	return h.flagOp(c, func(id uint, _ string) (*models.Account, error) {
		return h.walletService.Reactivate(c.UserContext(), id)
	})
}

func (h *AdminHandler) flagOp(c *fiber.Ctx, op func(id uint, reason string) (*models.Account, error)) error {
	id, err := accountParam(c)
	if err != nil {
		return response.DomainError(c, err)
	}
	var req reasonRequest
	_ = c.BodyParser(&req)

	account, err := op(id, req.Reason)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, accountSnapshot(account))
}

// Reverse appends a compensating entry for a completed ledger entry.
func (h *AdminHandler) Reverse(c *fiber.Ctx) error {
	entryID := c.Params("id")
	var req reasonRequest
	_ = c.BodyParser(&req)

	reversal, err := h.ledgerService.Reverse(c.UserContext(), entryID, req.Reason)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, reversal)
}

// Reconcile verifies that the account balance equals the sum of its
// completed ledger entries.
func (h *AdminHandler) Reconcile(c *fiber.Ctx) error {
	id, err := accountParam(c)
	if err != nil {
		return response.DomainError(c, err)
	}
	if err := h.ledgerService.Reconcile(c.UserContext(), id); err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, fiber.Map{"account_id": id, "consistent": true})
}
