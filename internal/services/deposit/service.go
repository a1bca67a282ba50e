// Package deposit funds wallets from external cards. The provider charge
// happens first; the wallet credit then records the charge id as the
// entry's external reference, which makes re-delivery of the same charge a
// DUPLICATE_EXTERNAL_REF instead of a double credit.
package deposit

import (
	"context"
	"fmt"
	"log"

	"github.com/shopspring/decimal"

	domain "coursepay/internal/errors"
	"coursepay/internal/models"
	"coursepay/internal/services/wallet"
)

// Input is one card deposit request.
type Input struct {
	OwnerID   uint
	CardToken string
	Amount    decimal.Decimal
	Currency  string
}

// Result reports the applied deposit.
type Result struct {
	ChargeID string          `json:"charge_id"`
	Account  *models.Account `json:"account"`
}

// Service orchestrates card charge then wallet credit.
type Service struct {
	wallet  wallet.Service
	charger Charger
}

// NewService builds the deposit service.
func NewService(walletSvc wallet.Service, charger Charger) *Service {
	if walletSvc == nil {
		panic("wallet service is required")
	}
	if charger == nil {
		panic("charger is required")
	}
	return &Service{wallet: walletSvc, charger: charger}
}

// Deposit charges the card and credits the wallet. If the credit fails
// after the charge succeeded the charge id is logged for the manual refund
// queue; the wallet itself never saw the money so no reconciliation is
// needed on our side.
func (s *Service) Deposit(ctx context.Context, in Input) (*Result, error) {
	if !in.Amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	account, err := s.wallet.GetAccount(ctx, in.OwnerID)
	if err != nil {
		return nil, err
	}
	if !account.Mutable() {
		if !account.Active {
			return nil, domain.ErrAccountInactive
		}
		return nil, domain.ErrAccountFrozen
	}

	chargeID, err := s.charger.Charge(ctx, in.CardToken, in.Amount, in.Currency,
		fmt.Sprintf("wallet deposit for owner %d", in.OwnerID))
	if err != nil {
		return nil, err
	}

	updated, err := s.wallet.Credit(ctx, wallet.OperationInput{
		OwnerID:     in.OwnerID,
		Amount:      in.Amount,
		Currency:    in.Currency,
		PurposeTag:  wallet.PurposeCardDeposit,
		ExternalRef: chargeID,
		EntryType:   models.EntryTypeDeposit,
		Metadata:    map[string]interface{}{"provider": "stripe"},
	})
	if err != nil {
		if derr, ok := domain.As(err); ok && derr == domain.ErrDuplicateExternalRef {
			// Provider retry of an already-applied charge.
			return &Result{ChargeID: chargeID, Account: account}, nil
		}
		log.Printf("deposit: charge %s succeeded but credit failed, needs refund: %v", chargeID, err)
		return nil, err
	}

	return &Result{ChargeID: chargeID, Account: updated}, nil
}
