/*
Package wallet implements the account balance state machine.

Every balance mutation runs inside one storage transaction that locks the
account row, re-validates the account flags and balance, applies the delta
and appends the matching ledger entry. That single exclusive section is what
makes concurrent credits and debits on the same account linearizable: two
debits that each fit the starting balance but not each other's result can
never both commit.

Amounts arrive in any supported currency, are normalized through the USD
canonical unit and converted into the account's own currency before the
balance changes. Balances are stored in the account currency; the canonical
unit only exists for cross-currency comparison and aggregation.

Usage:

	svc := wallet.NewService(repo, cache, normalizer, wallet.Config{}, nil)

	account, err := svc.CreateAccount(ctx, wallet.CreateAccountInput{
	    OwnerID:  ownerID,
	    Currency: "USD",
	})

	account, err = svc.Credit(ctx, wallet.OperationInput{
	    OwnerID:    ownerID,
	    Amount:     decimal.RequireFromString("100.00"),
	    Currency:   "USD",
	    PurposeTag: wallet.PurposeCoursePurchase,
	})

Business-rule failures (insufficient balance, frozen or inactive account,
unsupported currency) surface as *errors.DomainError values with stable
codes and are never retried; transient storage failures are retried a small
bounded number of times before surfacing as UNAVAILABLE.
*/
package wallet
