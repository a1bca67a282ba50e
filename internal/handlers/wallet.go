package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	domain "coursepay/internal/errors"
	"coursepay/internal/models"
	"coursepay/internal/services/deposit"
	"coursepay/internal/services/wallet"
	"coursepay/internal/utils/response"
)

// WalletHandler serves the owner-facing wallet endpoints.
type WalletHandler struct {
	walletService  wallet.Service
	depositService *deposit.Service
}

// NewWalletHandler builds the wallet HTTP handler.
func NewWalletHandler(walletService wallet.Service, depositService *deposit.Service) *WalletHandler {
	return &WalletHandler{
		walletService:  walletService,
		depositService: depositService,
	}
}

func ownerID(c *fiber.Ctx) (uint, error) {
	id, ok := c.Locals("ownerID").(uint)
	if !ok || id == 0 {
		return 0, domain.ErrUnauthorized
	}
	return id, nil
}

type operationRequest struct {
	Amount      string                 `json:"amount"`
	Currency    string                 `json:"currency"`
	PurposeTag  string                 `json:"purpose_tag"`
	ExternalRef string                 `json:"external_ref"`
	Metadata    map[string]interface{} `json:"metadata"`
}

func (r operationRequest) parse(owner uint) (wallet.OperationInput, error) {
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return wallet.OperationInput{}, domain.ErrInvalidAmount
	}
	return wallet.OperationInput{
		OwnerID:     owner,
		Amount:      amount,
		Currency:    r.Currency,
		PurposeTag:  r.PurposeTag,
		ExternalRef: r.ExternalRef,
		Metadata:    r.Metadata,
	}, nil
}

func accountSnapshot(account *models.Account) fiber.Map {
	return fiber.Map{
		"account_id":          account.ID,
		"balance":             account.Balance,
		"currency":            account.Currency,
		"frozen":              account.Frozen,
		"active":              account.Active,
		"last_transaction_at": account.LastTransactionAt,
	}
}

// CreateAccount provisions the caller's wallet. One per owner; a second
// attempt conflicts.
func (h *WalletHandler) CreateAccount(c *fiber.Ctx) error {
	owner, err := ownerID(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	var req struct {
		Currency string `json:"currency"`
		TenantID *uint  `json:"tenant_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request format")
	}

	account, err := h.walletService.CreateAccount(c.UserContext(), wallet.CreateAccountInput{
		OwnerID:  owner,
		TenantID: req.TenantID,
		Currency: req.Currency,
	})
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Created(c, accountSnapshot(account))
}

// GetAccount returns the caller's wallet.
func (h *WalletHandler) GetAccount(c *fiber.Ctx) error {
	owner, err := ownerID(c)
	if err != nil {
		return response.Unauthorized(c)
	}
	account, err := h.walletService.GetAccount(c.UserContext(), owner)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, accountSnapshot(account))
}

// GetBalance returns the balance view only.
func (h *WalletHandler) GetBalance(c *fiber.Ctx) error {
	owner, err := ownerID(c)
	if err != nil {
		return response.Unauthorized(c)
	}
	snapshot, err := h.walletService.GetBalance(c.UserContext(), owner)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, snapshot)
}

// Credit adds funds to the caller's wallet.
func (h *WalletHandler) Credit(c *fiber.Ctx) error {
	return h.operate(c, h.walletService.Credit)
}

// Debit removes funds from the caller's wallet.
func (h *WalletHandler) Debit(c *fiber.Ctx) error {
	return h.operate(c, h.walletService.Debit)
}

// Withdraw is a debit recorded as a withdrawal event.
func (h *WalletHandler) Withdraw(c *fiber.Ctx) error {
	owner, err := ownerID(c)
	if err != nil {
		return response.Unauthorized(c)
	}
	in, err := h.parseOperation(c, owner)
	if err != nil {
		return response.DomainError(c, err)
	}
	in.EntryType = models.EntryTypeWithdrawal

	account, err := h.walletService.Debit(c.UserContext(), in)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, accountSnapshot(account))
}

func (h *WalletHandler) parseOperation(c *fiber.Ctx, owner uint) (wallet.OperationInput, error) {
	var req operationRequest
	if err := c.BodyParser(&req); err != nil {
		return wallet.OperationInput{}, domain.ErrInvalidAmount
	}
	return req.parse(owner)
}

func (h *WalletHandler) operate(c *fiber.Ctx, op func(ctx context.Context, in wallet.OperationInput) (*models.Account, error)) error {
	owner, err := ownerID(c)
	if err != nil {
		return response.Unauthorized(c)
	}
	in, err := h.parseOperation(c, owner)
	if err != nil {
		return response.DomainError(c, err)
	}

	account, err := op(c.UserContext(), in)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, accountSnapshot(account))
}

// Deposit charges a card through the payment provider and credits the
// wallet with the charge id as external reference.
func (h *WalletHandler) Deposit(c *fiber.Ctx) error {
	owner, err := ownerID(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	var req struct {
		CardToken string `json:"card_token"`
		Amount    string `json:"amount"`
		Currency  string `json:"currency"`
	}
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request format")
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return response.DomainError(c, domain.ErrInvalidAmount)
	}

	result, err := h.depositService.Deposit(c.UserContext(), deposit.Input{
		OwnerID:   owner,
		CardToken: req.CardToken,
		Amount:    amount,
		Currency:  req.Currency,
	})
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, fiber.Map{
		"charge_id": result.ChargeID,
		"account":   accountSnapshot(result.Account),
	})
}

// Transfer moves funds to another owner's wallet.
func (h *WalletHandler) Transfer(c *fiber.Ctx) error {
	owner, err := ownerID(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	var req struct {
		ToOwnerID  uint   `json:"to_owner_id"`
		Amount     string `json:"amount"`
		Currency   string `json:"currency"`
		PurposeTag string `json:"purpose_tag"`
	}
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request format")
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return response.DomainError(c, domain.ErrInvalidAmount)
	}

	err = h.walletService.Transfer(c.UserContext(), wallet.TransferInput{
		FromOwnerID: owner,
		ToOwnerID:   req.ToOwnerID,
		Amount:      amount,
		Currency:    req.Currency,
		PurposeTag:  req.PurposeTag,
	})
	if err != nil {
		return response.DomainError(c, err)
	}

	account, err := h.walletService.GetAccount(c.UserContext(), owner)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, accountSnapshot(account))
}
