package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// AssetPair is the two currencies an exchange order prices. Amount always
// refers to the base asset regardless of which side of the match the order
// came from.
type AssetPair struct {
	AmountAsset Currency
	PriceAsset  Currency
}

// matcherPriceShift is the fixed exponent the matcher adds on top of the
// asset pair's precision delta when encoding prices.
const matcherPriceShift = 8

// OrderPrice is a backend-encoded exchange price bound to its asset pair.
type OrderPrice struct {
	pair  AssetPair
	price decimal.Decimal
}

// OrderPriceFromBackend decodes a matcher price. The human price is the
// backend integer shifted by 8 plus the pair's precision delta.
func OrderPriceFromBackend(backendPrice int64, pair AssetPair) OrderPrice {
	shift := matcherPriceShift + pair.PriceAsset.Precision - pair.AmountAsset.Precision
	return OrderPrice{
		pair:  pair,
		price: decimal.New(backendPrice, -int32(shift)),
	}
}

// Pair returns the asset pair the price is quoted for.
func (p OrderPrice) Pair() AssetPair {
	return p.pair
}

// Price returns the human decimal price (price asset per amount asset).
func (p OrderPrice) Price() decimal.Decimal {
	return p.price
}

// Volume computes price × amount as Money in the price asset. The product
// is rounded half away from zero at the price asset's precision, matching
// the matcher engine's totals.
func (p OrderPrice) Volume(amount Money) Money {
	precision := int32(p.pair.PriceAsset.Precision)
	v := p.price.Mul(amount.Amount()).Round(precision)
	return FromCoins(v.Shift(precision).IntPart(), p.pair.PriceAsset)
}

// FormatPrice renders the price with the price asset's full precision.
func (p OrderPrice) FormatPrice() string {
	return p.price.StringFixed(int32(p.pair.PriceAsset.Precision))
}

// String renders the price followed by the price asset name.
func (p OrderPrice) String() string {
	if p.pair.PriceAsset.Name == "" {
		return p.FormatPrice()
	}
	return p.FormatPrice() + " " + p.pair.PriceAsset.Name
}

// MarshalJSON renders the price as its display string.
func (p OrderPrice) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}
