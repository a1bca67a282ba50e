package errors

var (
	ErrAccountNotFound = &DomainError{
		Code:    "NOT_FOUND",
		Message: "account not found",
	}
	ErrEntryNotFound = &DomainError{
		Code:    "NOT_FOUND",
		Message: "ledger entry not found",
	}
	ErrAccountExists = &DomainError{
		Code:    "ALREADY_EXISTS",
		Message: "an account already exists for this owner",
	}
	ErrDuplicateExternalRef = &DomainError{
		Code:    "DUPLICATE_EXTERNAL_REF",
		Message: "a ledger entry with this external reference already exists",
	}
	ErrAccountInactive = &DomainError{
		Code:    "ACCOUNT_INACTIVE",
		Message: "account is inactive",
	}
	ErrAccountFrozen = &DomainError{
		Code:    "ACCOUNT_FROZEN",
		Message: "account is frozen",
	}
	ErrInsufficientBalance = &DomainError{
		Code:    "INSUFFICIENT_BALANCE",
		Message: "insufficient account balance",
	}
	ErrUnsupportedCurrency = &DomainError{
		Code:    "UNSUPPORTED_CURRENCY",
		Message: "currency has no conversion rate",
	}
	ErrInvalidAmount = &DomainError{
		Code:    "INVALID_AMOUNT",
		Message: "amount must be a positive decimal",
	}
	ErrEntryNotReversible = &DomainError{
		Code:    "ENTRY_NOT_REVERSIBLE",
		Message: "only completed entries can be reversed",
	}
	ErrConsistency = &DomainError{
		Code:    "CONSISTENCY_ERROR",
		Message: "balance and ledger diverged, manual reconciliation required",
	}
	ErrUnauthorized = &DomainError{
		Code:    "UNAUTHORIZED",
		Message: "caller identity could not be resolved",
	}
	ErrUnavailable = &DomainError{
		Code:    "UNAVAILABLE",
		Message: "storage temporarily unavailable, retry later",
	}
)
