package wallet

import "time"

// Default configuration values
const (
	DefaultCurrency      = "USD"
	DefaultRetryAttempts = 3
	DefaultRetryBackoff  = 50 * time.Millisecond
)

// Purpose tags used by the platform's own flows. The field is free-form;
// these are the values our callers send.
const (
	PurposeCoursePurchase   = "course-purchase"
	PurposeSubscription     = "subscription"
	PurposeManualAdjustment = "manual-adjustment"
	PurposeCardDeposit      = "card-deposit"
	PurposeReversal         = "reversal"
)
