package domain

// Currency describes an asset well enough to render amounts of it.
// Instances are immutable once constructed; the currency registry is the
// only place new ones are minted and cached.
type Currency struct {
	ID          string // asset id, empty for the native currency
	Name        string
	Precision   int // decimal places used to render coins
	Description string
	Reissuable  bool
	Scripted    bool
}

// SKS is the network's native currency.
var SKS = Currency{
	Name:      "SKS",
	Precision: 8,
}

// Legacy Vostok token, displayed under its post-rebrand identity.
// The registry rewrites name and description for this id regardless of
// what the backend returns.
const WavesEnterpriseAssetID = "4LHHvYGNKJUg5hj65aGD5vgScvCBmLpdRFtjokvCjSL8"

const (
	WavesEnterpriseName        = "WEST"
	WavesEnterpriseDescription = "Waves Enterprise System Token"
)

// CurrencyFromIssue mints a currency from an issue transaction's own
// payload, before any network round trip.
func CurrencyFromIssue(tx *RawTransaction) Currency {
	return Currency{
		ID:          tx.AssetID(),
		Name:        tx.Name,
		Precision:   tx.Decimals,
		Description: tx.Description,
		Reissuable:  tx.Reissuable,
		Scripted:    tx.Script != "",
	}
}

// AssetDetails is the node's description of one issued asset.
type AssetDetails struct {
	AssetID     string `json:"assetId"`
	Name        string `json:"name"`
	Decimals    int    `json:"decimals"`
	Description string `json:"description"`
	Reissuable  bool   `json:"reissuable"`
	Scripted    bool   `json:"scripted"`
	Issuer      string `json:"issuer"`
	Quantity    int64  `json:"quantity"`
	IssueHeight int64  `json:"issueHeight"`
}

// CurrencyFromDetails builds a currency from node asset details.
func CurrencyFromDetails(d AssetDetails) Currency {
	return Currency{
		ID:          d.AssetID,
		Name:        d.Name,
		Precision:   d.Decimals,
		Description: d.Description,
		Reissuable:  d.Reissuable,
		Scripted:    d.Scripted,
	}
}

func (c Currency) String() string {
	return c.Name
}
