package domain

import (
	"encoding/json"
	"time"
)

// Kind tags each normalized transaction variant.
type Kind string

// Normalized transaction kinds.
const (
	KindGenesis      Kind = "genesis"
	KindTransfer     Kind = "transfer"
	KindIssue        Kind = "issue"
	KindReissue      Kind = "reissue"
	KindBurn         Kind = "burn"
	KindExchange     Kind = "exchange"
	KindLease        Kind = "lease"
	KindLeaseCancel  Kind = "lease-cancel"
	KindAlias        Kind = "alias"
	KindMassTransfer Kind = "mass-transfer"
	KindData         Kind = "data"
	KindSetScript    Kind = "set-script"
	KindSponsorship  Kind = "sponsorship"
	KindAssetScript  Kind = "asset-script"
	KindInvokeScript Kind = "invoke-script"
	KindUnknown      Kind = "unknown"
)

// TransactionCommon carries the attributes every kind shares. Proofs is
// the proof list, or a single-element list wrapping the legacy signature
// when the record predates proof lists.
type TransactionCommon struct {
	ID              string    `json:"id"`
	Type            int       `json:"type"`
	Version         int       `json:"version"`
	Timestamp       time.Time `json:"timestamp"`
	Sender          string    `json:"sender"`
	SenderPublicKey string    `json:"senderPublicKey"`
	Height          int64     `json:"height"`
	Proofs          []string  `json:"proofs"`
}

// NormalizedTransaction is the display-ready form of a transaction: a
// tagged union with one variant per kind plus an unknown pass-through.
// Records are produced fresh per normalization and never mutated after
// construction.
type NormalizedTransaction interface {
	// Kind returns the variant tag.
	Kind() Kind
	// Common returns the shared attributes.
	Common() TransactionCommon
}

// GenesisTransaction is an initial balance distribution. Height is always 1.
type GenesisTransaction struct {
	TransactionCommon
	Amount    Money  `json:"amount"`
	Fee       Money  `json:"fee"`
	Recipient string `json:"recipient"`
}

// TransferTransaction is a single-recipient asset transfer.
type TransferTransaction struct {
	TransactionCommon
	Amount     Money  `json:"amount"`
	Fee        Money  `json:"fee"`
	Attachment string `json:"attachment"`
	Recipient  string `json:"recipient"`
	IsSpam     bool   `json:"isSpam"`
}

// IssueTransaction creates a new asset.
type IssueTransaction struct {
	TransactionCommon
	Amount      Money  `json:"amount"`
	Fee         Money  `json:"fee"`
	Name        string `json:"name"`
	Reissuable  bool   `json:"reissuable"`
	Decimals    int    `json:"decimals"`
	Description string `json:"description"`
	Script      string `json:"script,omitempty"`
}

// ReissueTransaction mints additional quantity of an existing asset.
type ReissueTransaction struct {
	TransactionCommon
	Amount     Money `json:"amount"`
	Fee        Money `json:"fee"`
	Reissuable bool  `json:"reissuable"`
}

// BurnTransaction destroys asset quantity.
type BurnTransaction struct {
	TransactionCommon
	Amount Money `json:"amount"`
	Fee    Money `json:"fee"`
}

// Order is one side of an exchange match, normalized.
type Order struct {
	ID         string     `json:"id"`
	Sender     string     `json:"sender"`
	AssetPair  AssetPair  `json:"-"`
	OrderType  string     `json:"orderType"`
	Amount     Money      `json:"amount"`
	Price      OrderPrice `json:"price"`
	Timestamp  time.Time  `json:"timestamp"`
	Expiration time.Time  `json:"expiration"`
	Fee        Money      `json:"fee"`
}

// ExchangeTransaction is a matched buy/sell order pair. Total is always
// price × amount in the price asset.
type ExchangeTransaction struct {
	TransactionCommon
	Fee       Money      `json:"fee"`
	BuyFee    Money      `json:"buyFee"`
	SellFee   Money      `json:"sellFee"`
	Price     OrderPrice `json:"price"`
	Amount    Money      `json:"amount"`
	Total     Money      `json:"total"`
	BuyOrder  Order      `json:"buyOrder"`
	SellOrder Order      `json:"sellOrder"`
	Seller    string     `json:"seller"`
	Buyer     string     `json:"buyer"`
}

// LeaseTransaction lends native balance to another account.
type LeaseTransaction struct {
	TransactionCommon
	Recipient string `json:"recipient"`
	Fee       Money  `json:"fee"`
	Amount    Money  `json:"amount"`
	Status    string `json:"status"`
}

// LeaseCancelTransaction ends a lease. Recipient is empty when the node
// did not attach the original lease record.
type LeaseCancelTransaction struct {
	TransactionCommon
	Fee       Money  `json:"fee"`
	LeaseID   string `json:"leaseId"`
	Recipient string `json:"recipient,omitempty"`
}

// AliasTransaction binds a readable alias to the sender's address.
type AliasTransaction struct {
	TransactionCommon
	Fee   Money  `json:"fee"`
	Alias string `json:"alias"`
}

// Transfer is one recipient of a mass transfer.
type Transfer struct {
	Recipient string `json:"recipient"`
	Amount    Money  `json:"amount"`
}

// MassTransferTransaction moves one asset to many recipients at once.
type MassTransferTransaction struct {
	TransactionCommon
	Fee           Money      `json:"fee"`
	Attachment    string     `json:"attachment"`
	TotalAmount   Money      `json:"totalAmount"`
	TransferCount int        `json:"transferCount"`
	IsSpam        bool       `json:"isSpam"`
	Transfers     []Transfer `json:"transfers"`
}

// DataTransaction writes key/value entries to the sender's account.
type DataTransaction struct {
	TransactionCommon
	Data []DataEntry `json:"data"`
	Fee  Money       `json:"fee"`
}

// SetScriptTransaction installs or clears an account script.
type SetScriptTransaction struct {
	TransactionCommon
	Script string `json:"script,omitempty"`
	Fee    Money  `json:"fee"`
}

// SponsorshipTransaction enables or disables fee sponsorship for an
// asset. SponsoredFee is nil when the transaction carries no minimum
// sponsored fee.
type SponsorshipTransaction struct {
	TransactionCommon
	Fee          Money  `json:"fee"`
	SponsoredFee *Money `json:"sponsoredFee"`
}

// AssetScriptTransaction replaces an asset's script.
type AssetScriptTransaction struct {
	TransactionCommon
	Script string   `json:"script,omitempty"`
	Asset  Currency `json:"asset"`
	Fee    Money    `json:"fee"`
}

// InvokeScriptTransaction calls a dApp function. StateChanges is only
// populated at full detail, and only when the lookup succeeded.
type InvokeScriptTransaction struct {
	TransactionCommon
	DAppAddress  string        `json:"dappAddress"`
	Call         FunctionCall  `json:"call"`
	Payment      *Money        `json:"payment"`
	Fee          Money         `json:"fee"`
	StateChanges *StateChanges `json:"stateChanges,omitempty"`
}

// UnknownTransaction passes an unrecognized kind through untouched, with
// the original wire payload attached for display.
type UnknownTransaction struct {
	TransactionCommon
	Raw json.RawMessage `json:"raw"`
}

func (t *GenesisTransaction) Kind() Kind      { return KindGenesis }
func (t *TransferTransaction) Kind() Kind     { return KindTransfer }
func (t *IssueTransaction) Kind() Kind        { return KindIssue }
func (t *ReissueTransaction) Kind() Kind      { return KindReissue }
func (t *BurnTransaction) Kind() Kind         { return KindBurn }
func (t *ExchangeTransaction) Kind() Kind     { return KindExchange }
func (t *LeaseTransaction) Kind() Kind        { return KindLease }
func (t *LeaseCancelTransaction) Kind() Kind  { return KindLeaseCancel }
func (t *AliasTransaction) Kind() Kind        { return KindAlias }
func (t *MassTransferTransaction) Kind() Kind { return KindMassTransfer }
func (t *DataTransaction) Kind() Kind         { return KindData }
func (t *SetScriptTransaction) Kind() Kind    { return KindSetScript }
func (t *SponsorshipTransaction) Kind() Kind  { return KindSponsorship }
func (t *AssetScriptTransaction) Kind() Kind  { return KindAssetScript }
func (t *InvokeScriptTransaction) Kind() Kind { return KindInvokeScript }
func (t *UnknownTransaction) Kind() Kind      { return KindUnknown }

// Common implements NormalizedTransaction for every variant through the
// embedded TransactionCommon.
func (c TransactionCommon) Common() TransactionCommon { return c }
