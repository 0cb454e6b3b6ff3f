package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Money is an exact (integer coins, currency) pair. Amounts stay integer
// internally; division by 10^precision happens only when formatting.
type Money struct {
	coins    int64
	currency Currency
}

// FromCoins constructs Money from the backend's smallest-unit amount.
func FromCoins(coins int64, c Currency) Money {
	return Money{coins: coins, currency: c}
}

// Coins returns the integer amount in the currency's smallest unit.
func (m Money) Coins() int64 {
	return m.coins
}

// Currency returns the currency the amount is denominated in.
func (m Money) Currency() Currency {
	return m.currency
}

// Amount returns the decimal amount, coins shifted by the currency's
// precision. Exact, no float involved.
func (m Money) Amount() decimal.Decimal {
	return decimal.New(m.coins, -int32(m.currency.Precision))
}

// FormatAmount renders the amount with the currency's full precision,
// trailing zeros kept.
func (m Money) FormatAmount() string {
	return m.Amount().StringFixed(int32(m.currency.Precision))
}

// String renders the amount followed by the currency name.
func (m Money) String() string {
	if m.currency.Name == "" {
		return m.FormatAmount()
	}
	return m.FormatAmount() + " " + m.currency.Name
}

// MarshalJSON renders Money as its display string.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}
