package wallet

import "github.com/shopspring/decimal"

// MetricsCollector receives operational signals from the wallet service.
type MetricsCollector interface {
	RecordOperation(operation, result string)
	RecordTransaction(txType string, amount decimal.Decimal)
	RecordBalanceChange(accountID uint, oldBalance, newBalance decimal.Decimal)
	RecordError(operation, errKind string)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (n *NoopMetricsCollector) RecordOperation(string, string)                       {}
func (n *NoopMetricsCollector) RecordTransaction(string, decimal.Decimal)            {}
func (n *NoopMetricsCollector) RecordBalanceChange(uint, decimal.Decimal, decimal.Decimal) {}
func (n *NoopMetricsCollector) RecordError(string, string)                           {}
