package domain

import "encoding/json"

// Transaction type codes as transmitted by the node. Codes 2 and 4 are
// both plain transfers (2 is the pre-asset payment format). Future codes
// are tolerated and passed through unrecognized.
const (
	TypeGenesis = iota + 1
	TypePayment
	TypeIssue
	TypeTransfer
	TypeReissue
	TypeBurn
	TypeExchange
	TypeLease
	TypeLeaseCancel
	TypeAlias
	TypeMassTransfer
	TypeData
	TypeSetScript
	TypeSponsorship
	TypeSetAssetScript
	TypeInvokeScript
)

// RawTransaction is a wire-format transaction record as returned by the
// node REST API. Only Type is guaranteed present; kind-specific fields are
// populated for the kinds that carry them. The record is owned by the
// fetch layer and never mutated by the normalizer.
type RawTransaction struct {
	Type            int      `json:"type"`
	ID              string   `json:"id"`
	Version         int      `json:"version"`
	Timestamp       int64    `json:"timestamp"` // unix ms
	Sender          string   `json:"sender"`
	SenderPublicKey string   `json:"senderPublicKey"`
	Height          int64    `json:"height"`
	Proofs          []string `json:"proofs"`
	Signature       string   `json:"signature"`

	Fee        int64   `json:"fee"`
	FeeAssetID *string `json:"feeAssetId"`

	// transfer / issue / reissue / burn / sponsorship / asset script
	RawAssetID  *string `json:"assetId"`
	Amount      int64   `json:"amount"`
	Quantity    int64   `json:"quantity"`
	Recipient   string  `json:"recipient"`
	Attachment  string  `json:"attachment"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Decimals    int     `json:"decimals"`
	Reissuable  bool    `json:"reissuable"`
	Script      string  `json:"script"`

	// mass transfer
	Transfers     []RawTransfer `json:"transfers"`
	TotalAmount   int64         `json:"totalAmount"`
	TransferCount int           `json:"transferCount"`

	// exchange
	Order1         *RawOrder `json:"order1"`
	Order2         *RawOrder `json:"order2"`
	Price          int64     `json:"price"`
	BuyMatcherFee  int64     `json:"buyMatcherFee"`
	SellMatcherFee int64     `json:"sellMatcherFee"`

	// lease / lease cancel
	Status  string        `json:"status"`
	LeaseID string        `json:"leaseId"`
	Lease   *RawLeaseInfo `json:"lease"`

	// alias
	Alias string `json:"alias"`

	// data
	Data []DataEntry `json:"data"`

	// sponsorship
	MinSponsoredAssetFee *int64 `json:"minSponsoredAssetFee"`

	// invoke script
	DApp    string        `json:"dApp"`
	Call    *FunctionCall `json:"call"`
	Payment []RawPayment  `json:"payment"`

	// Raw keeps the record exactly as received, for pass-through of
	// unrecognized kinds.
	Raw json.RawMessage `json:"-"`
}

// UnmarshalJSON decodes the known fields and retains the original payload.
func (t *RawTransaction) UnmarshalJSON(data []byte) error {
	type alias RawTransaction
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*t = RawTransaction(a)
	t.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// AssetID returns the transaction's asset id, empty for the native
// currency (the node transmits null).
func (t *RawTransaction) AssetID() string {
	return derefAssetID(t.RawAssetID)
}

// FeeAsset returns the fee asset id, empty for the native currency.
func (t *RawTransaction) FeeAsset() string {
	return derefAssetID(t.FeeAssetID)
}

func derefAssetID(id *string) string {
	if id == nil {
		return ""
	}
	return *id
}

// RawTransfer is one recipient of a mass transfer.
type RawTransfer struct {
	Recipient string `json:"recipient"`
	Amount    int64  `json:"amount"`
}

// RawAssetPair is the wire form of an order's asset pair.
type RawAssetPair struct {
	AmountAsset *string `json:"amountAsset"`
	PriceAsset  *string `json:"priceAsset"`
}

// AmountAssetID returns the amount asset id, empty for the native currency.
func (p RawAssetPair) AmountAssetID() string {
	return derefAssetID(p.AmountAsset)
}

// PriceAssetID returns the price asset id, empty for the native currency.
func (p RawAssetPair) PriceAssetID() string {
	return derefAssetID(p.PriceAsset)
}

// Order side values as the matcher transmits them.
const (
	OrderTypeBuy  = "buy"
	OrderTypeSell = "sell"
)

// RawOrder is one side of an exchange match as transmitted.
type RawOrder struct {
	ID                string       `json:"id"`
	Sender            string       `json:"sender"`
	OrderType         string       `json:"orderType"`
	AssetPair         RawAssetPair `json:"assetPair"`
	Amount            int64        `json:"amount"`
	Price             int64        `json:"price"`
	Timestamp         int64        `json:"timestamp"`
	Expiration        int64        `json:"expiration"`
	MatcherFee        int64        `json:"matcherFee"`
	MatcherFeeAssetID *string      `json:"matcherFeeAssetId"`
}

// FeeAsset returns the order's matcher fee asset id, empty for native.
func (o *RawOrder) FeeAsset() string {
	return derefAssetID(o.MatcherFeeAssetID)
}

// RawLeaseInfo is the nested lease record a lease cancel may carry.
type RawLeaseInfo struct {
	Recipient string `json:"recipient"`
}

// DataEntry is one key of a data transaction or contract state change.
// Value stays raw JSON: its shape depends on Type and the display layer
// renders it verbatim.
type DataEntry struct {
	Key   string          `json:"key"`
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// FunctionCall is an invoke script call descriptor.
type FunctionCall struct {
	Function string    `json:"function"`
	Args     []CallArg `json:"args"`
}

// CallArg is one typed argument of a function call.
type CallArg struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// RawPayment is an asset payment attached to an invoke script call.
type RawPayment struct {
	Amount  int64   `json:"amount"`
	AssetID *string `json:"assetId"`
}

// Asset returns the payment asset id, empty for native.
func (p RawPayment) Asset() string {
	return derefAssetID(p.AssetID)
}

// StateTransfer is an asset movement produced by executing a contract
// invocation.
type StateTransfer struct {
	Address string  `json:"address"`
	Asset   *string `json:"asset"`
	Amount  int64   `json:"amount"`
}

// StateChanges is the list of ledger side effects of an invocation.
type StateChanges struct {
	Data      []DataEntry     `json:"data"`
	Transfers []StateTransfer `json:"transfers"`
}
