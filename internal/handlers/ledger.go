package handlers

import (
	"github.com/gofiber/fiber/v2"

	domain "coursepay/internal/errors"
	"coursepay/internal/services/ledger"
	"coursepay/internal/services/wallet"
	"coursepay/internal/utils/pagination"
	"coursepay/internal/utils/response"
)

// LedgerHandler serves transaction history and reporting reads.
type LedgerHandler struct {
	walletService wallet.Service
	ledgerService *ledger.Service
}

// NewLedgerHandler builds the ledger HTTP handler.
func NewLedgerHandler(walletService wallet.Service, ledgerService *ledger.Service) *LedgerHandler {
	return &LedgerHandler{
		walletService: walletService,
		ledgerService: ledgerService,
	}
}

// History lists the caller's ledger entries, newest first.
func (h *LedgerHandler) History(c *fiber.Ctx) error {
	owner, err := ownerID(c)
	if err != nil {
		return response.Unauthorized(c)
	}
	account, err := h.walletService.GetAccount(c.UserContext(), owner)
	if err != nil {
		return response.DomainError(c, err)
	}

	params := pagination.ParseFromRequest(c)
	status := c.Query("status")

	page, err := h.ledgerService.History(c.UserContext(), account.ID, params.Page, params.Limit, status)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, page)
}

// Totals reports completed sums per entry type for the caller's account.
func (h *LedgerHandler) Totals(c *fiber.Ctx) error {
	owner, err := ownerID(c)
	if err != nil {
		return response.Unauthorized(c)
	}
	account, err := h.walletService.GetAccount(c.UserContext(), owner)
	if err != nil {
		return response.DomainError(c, err)
	}

	totals, err := h.ledgerService.AggregateTotals(c.UserContext(), account.ID)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, totals)
}

// ByExternalRef resolves the entry recorded for a provider correlation id.
// Only the entry's own account may look it up; anything else reads as not
// found so refs cannot be probed across owners.
func (h *LedgerHandler) ByExternalRef(c *fiber.Ctx) error {
	owner, err := ownerID(c)
	if err != nil {
		return response.Unauthorized(c)
	}
	account, err := h.walletService.GetAccount(c.UserContext(), owner)
	if err != nil {
		return response.DomainError(c, err)
	}
	ref := c.Params("ref")

	entry, err := h.ledgerService.FindByExternalRef(c.UserContext(), ref)
	if err != nil {
		return response.DomainError(c, err)
	}
	if entry.AccountID != account.ID {
		return response.DomainError(c, domain.ErrEntryNotFound)
	}
	return response.Success(c, entry)
}
