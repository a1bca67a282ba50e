package currency

import "github.com/shopspring/decimal"

// defaultRates is the static snapshot shipped with the service, expressed as
// USD per one unit of the currency. Production refreshes these from the
// treasury feed via Normalizer.Refresh.
func defaultRates() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		"USD": decimal.NewFromInt(1),
		"EUR": decimal.RequireFromString("1.08"),
		"GBP": decimal.RequireFromString("1.27"),
		"EGP": decimal.RequireFromString("0.0206"),
		"SAR": decimal.RequireFromString("0.2666"),
		"AED": decimal.RequireFromString("0.2723"),
		"NGN": decimal.RequireFromString("0.00065"),
		"KES": decimal.RequireFromString("0.0077"),
		"XAF": decimal.RequireFromString("0.00165"),
		"INR": decimal.RequireFromString("0.012"),
	}
}
