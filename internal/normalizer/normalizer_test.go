package normalizer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"sks-explorer/internal/currency"
	"sks-explorer/internal/domain"
)

// stubResolver is an in-memory CurrencyResolver. Unknown ids resolve to a
// generic 8-decimal currency unless an error or delay is configured.
type stubResolver struct {
	mu         sync.Mutex
	currencies map[string]domain.Currency
	delays     map[string]time.Duration
	failures   map[string]error
	calls      []string
}

func newStubResolver() *stubResolver {
	return &stubResolver{
		currencies: make(map[string]domain.Currency),
		delays:     make(map[string]time.Duration),
		failures:   make(map[string]error),
	}
}

func (s *stubResolver) Get(_ context.Context, assetID string) (domain.Currency, error) {
	if assetID == "" {
		return domain.SKS, nil
	}

	if d, ok := s.delays[assetID]; ok {
		time.Sleep(d)
	}

	s.mu.Lock()
	s.calls = append(s.calls, assetID)
	c, cached := s.currencies[assetID]
	err := s.failures[assetID]
	s.mu.Unlock()

	if err != nil {
		return domain.Currency{}, err
	}
	if !cached {
		c = domain.Currency{ID: assetID, Name: "T-" + assetID, Precision: 8}
	}
	return c, nil
}

func (s *stubResolver) Put(c domain.Currency) {
	s.mu.Lock()
	s.currencies[c.ID] = c
	s.mu.Unlock()
}

// stubSpam flags a fixed set of asset ids.
type stubSpam struct {
	denied map[string]bool
}

func (s *stubSpam) IsSpam(assetID string) bool {
	return s.denied[assetID]
}

// stubStateChanges counts lookups and can be told to fail.
type stubStateChanges struct {
	calls   atomic.Int64
	err     error
	changes *domain.StateChanges
}

func (s *stubStateChanges) LoadStateChanges(_ context.Context, _ string) (*domain.StateChanges, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return s.changes, nil
}

func newTestNormalizer() (*Normalizer, *stubResolver, *stubSpam, *stubStateChanges) {
	resolver := newStubResolver()
	spam := &stubSpam{denied: map[string]bool{"spam-asset": true}}
	changes := &stubStateChanges{
		changes: &domain.StateChanges{
			Data: []domain.DataEntry{{Key: "counter", Type: "integer", Value: json.RawMessage(`7`)}},
		},
	}
	n := New(Options{Currencies: resolver, Spam: spam, StateChanges: changes})
	return n, resolver, spam, changes
}

func strptr(s string) *string { return &s }

// rawBase returns a minimal valid raw record of the given type.
func rawBase(txType int, id string) *domain.RawTransaction {
	return &domain.RawTransaction{
		Type:            txType,
		ID:              id,
		Version:         2,
		Timestamp:       1578000000000,
		Sender:          "3PSenderAddress",
		SenderPublicKey: "senderPublicKey",
		Height:          1234,
		Proofs:          []string{"proof1"},
	}
}

func rawExchange(id string, order1Type, order2Type string) *domain.RawTransaction {
	pair := domain.RawAssetPair{
		AmountAsset: strptr("amount-asset"),
		PriceAsset:  strptr("price-asset"),
	}
	order := func(oid, sender, side string) *domain.RawOrder {
		return &domain.RawOrder{
			ID:         oid,
			Sender:     sender,
			OrderType:  side,
			AssetPair:  pair,
			Amount:     100000000,
			Price:      250000000,
			Timestamp:  1578000000000,
			Expiration: 1578100000000,
			MatcherFee: 300000,
		}
	}

	tx := rawBase(domain.TypeExchange, id)
	tx.Order1 = order("order1", "3PFirstSender", order1Type)
	tx.Order2 = order("order2", "3PSecondSender", order2Type)
	tx.Price = 250000000
	tx.Amount = 100000000
	tx.Fee = 300000
	tx.BuyMatcherFee = 300000
	tx.SellMatcherFee = 300000
	return tx
}

func TestNormalize_Genesis(t *testing.T) {
	n, _, _, _ := newTestNormalizer()

	tx := rawBase(domain.TypeGenesis, "genesis-tx")
	tx.Proofs = nil
	tx.Signature = "legacy-signature"
	tx.Amount = 10000000000
	tx.Recipient = "3PRecipient"
	tx.Height = 999

	result, err := n.Normalize(context.Background(), tx, DetailSummary)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	genesis, ok := result.(*domain.GenesisTransaction)
	if !ok {
		t.Fatalf("expected GenesisTransaction, got %T", result)
	}

	if genesis.Height != 1 {
		t.Errorf("height = %d, want forced 1", genesis.Height)
	}
	if genesis.Amount.Currency() != domain.SKS {
		t.Errorf("amount currency = %v, want native", genesis.Amount.Currency())
	}
	if len(genesis.Proofs) != 1 || genesis.Proofs[0] != "legacy-signature" {
		t.Errorf("proofs = %v, want wrapped signature", genesis.Proofs)
	}
	if genesis.Recipient != "3PRecipient" {
		t.Errorf("recipient = %q", genesis.Recipient)
	}
}

func TestNormalize_Transfer(t *testing.T) {
	n, resolver, _, _ := newTestNormalizer()
	resolver.Put(domain.Currency{ID: "token-a", Name: "Token A", Precision: 4})

	tx := rawBase(domain.TypeTransfer, "transfer-tx")
	tx.RawAssetID = strptr("token-a")
	tx.Amount = 12345
	tx.Fee = 100000
	tx.Recipient = "3PRecipient"
	tx.Attachment = "Cn8eVZg" // base58 of "hello"

	result, err := n.Normalize(context.Background(), tx, DetailSummary)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	transfer, ok := result.(*domain.TransferTransaction)
	if !ok {
		t.Fatalf("expected TransferTransaction, got %T", result)
	}

	if transfer.Amount.Currency().Name != "Token A" {
		t.Errorf("amount currency = %v", transfer.Amount.Currency())
	}
	if transfer.Fee.Currency() != domain.SKS {
		t.Errorf("fee currency = %v, want native", transfer.Fee.Currency())
	}
	if transfer.Attachment != "hello" {
		t.Errorf("attachment = %q, want %q", transfer.Attachment, "hello")
	}
	if transfer.IsSpam {
		t.Error("unexpected spam flag")
	}
}

func TestNormalize_TransferSpamFlag(t *testing.T) {
	n, _, _, _ := newTestNormalizer()

	tx := rawBase(domain.TypeTransfer, "spam-tx")
	tx.RawAssetID = strptr("spam-asset")
	tx.Amount = 1

	result, err := n.Normalize(context.Background(), tx, DetailSummary)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	if !result.(*domain.TransferTransaction).IsSpam {
		t.Error("expected spam flag")
	}
}

func TestNormalize_PaymentUsesTransferHandler(t *testing.T) {
	n, _, _, _ := newTestNormalizer()

	tx := rawBase(domain.TypePayment, "payment-tx")
	tx.Amount = 500000000
	tx.Recipient = "3PRecipient"

	result, err := n.Normalize(context.Background(), tx, DetailSummary)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if _, ok := result.(*domain.TransferTransaction); !ok {
		t.Fatalf("expected TransferTransaction, got %T", result)
	}
}

func TestNormalize_IssueMintsAndResolves(t *testing.T) {
	n, resolver, _, _ := newTestNormalizer()

	tx := rawBase(domain.TypeIssue, "issue-tx")
	tx.RawAssetID = strptr("fresh-asset")
	tx.Name = "Fresh"
	tx.Description = "freshly issued"
	tx.Decimals = 6
	tx.Quantity = 1000000000
	tx.Reissuable = true

	result, err := n.Normalize(context.Background(), tx, DetailSummary)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	issue, ok := result.(*domain.IssueTransaction)
	if !ok {
		t.Fatalf("expected IssueTransaction, got %T", result)
	}

	if issue.Name != "Fresh" || issue.Decimals != 6 || !issue.Reissuable {
		t.Errorf("issue fields: %+v", issue)
	}
	if issue.Amount.Coins() != 1000000000 {
		t.Errorf("amount coins = %d, want quantity", issue.Amount.Coins())
	}
	if issue.Amount.Currency().Precision != 6 {
		t.Errorf("amount precision = %d, want minted 6", issue.Amount.Currency().Precision)
	}

	// The minted currency must now be registered for later transactions.
	c, err := resolver.Get(context.Background(), "fresh-asset")
	if err != nil {
		t.Fatalf("Get after issue: %v", err)
	}
	if c.Name != "Fresh" {
		t.Errorf("registered currency = %+v", c)
	}
}

// failingSource backs a real registry that must resolve everything from
// transaction payloads alone.
type failingSource struct{}

func (failingSource) AssetDetails(context.Context, string) (domain.AssetDetails, error) {
	return domain.AssetDetails{}, errors.New("must not fetch")
}

func TestNormalize_IssueLegacyAssetRenamed(t *testing.T) {
	registry := currency.NewRegistry(failingSource{})
	n := New(Options{
		Currencies:   registry,
		Spam:         &stubSpam{},
		StateChanges: &stubStateChanges{},
	})

	tx := rawBase(domain.TypeIssue, "legacy-issue")
	tx.RawAssetID = strptr(domain.WavesEnterpriseAssetID)
	tx.Name = "Vostok"
	tx.Description = "old description"
	tx.Decimals = 8
	tx.Quantity = 100000000

	result, err := n.Normalize(context.Background(), tx, DetailSummary)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	issue := result.(*domain.IssueTransaction)
	if issue.Name != domain.WavesEnterpriseName {
		t.Errorf("name = %q, want %q", issue.Name, domain.WavesEnterpriseName)
	}
	if issue.Description != domain.WavesEnterpriseDescription {
		t.Errorf("description = %q, want %q", issue.Description, domain.WavesEnterpriseDescription)
	}
}

func TestNormalize_ReissueUsesQuantity(t *testing.T) {
	n, _, _, _ := newTestNormalizer()

	tx := rawBase(domain.TypeReissue, "reissue-tx")
	tx.RawAssetID = strptr("token-a")
	tx.Quantity = 777
	tx.Amount = 111 // must be ignored
	tx.Reissuable = true

	result, err := n.Normalize(context.Background(), tx, DetailSummary)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	reissue := result.(*domain.ReissueTransaction)
	if reissue.Amount.Coins() != 777 {
		t.Errorf("amount coins = %d, want quantity 777", reissue.Amount.Coins())
	}
	if reissue.Fee.Currency() != domain.SKS {
		t.Errorf("fee currency = %v, want native", reissue.Fee.Currency())
	}
}

func TestNormalize_Exchange(t *testing.T) {
	n, _, _, _ := newTestNormalizer()

	tx := rawExchange("exchange-tx", domain.OrderTypeBuy, domain.OrderTypeSell)

	result, err := n.Normalize(context.Background(), tx, DetailSummary)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	exchange, ok := result.(*domain.ExchangeTransaction)
	if !ok {
		t.Fatalf("expected ExchangeTransaction, got %T", result)
	}

	if exchange.BuyOrder.ID != "order1" || exchange.SellOrder.ID != "order2" {
		t.Errorf("orders = %s/%s", exchange.BuyOrder.ID, exchange.SellOrder.ID)
	}
	if exchange.Buyer != "3PFirstSender" || exchange.Seller != "3PSecondSender" {
		t.Errorf("buyer/seller = %s/%s", exchange.Buyer, exchange.Seller)
	}

	// Total must equal price × amount in the price asset.
	want := exchange.Price.Volume(exchange.Amount)
	if exchange.Total.Coins() != want.Coins() {
		t.Errorf("total = %d, want %d", exchange.Total.Coins(), want.Coins())
	}
	if exchange.Total.Currency().ID != "price-asset" {
		t.Errorf("total currency = %v", exchange.Total.Currency())
	}
}

func TestNormalize_ExchangeOrdersCanonicalized(t *testing.T) {
	n, _, _, _ := newTestNormalizer()

	// order1 is the sell side here; the buy order must still resolve to
	// order2 regardless of position.
	tx := rawExchange("exchange-swapped", domain.OrderTypeSell, domain.OrderTypeBuy)

	result, err := n.Normalize(context.Background(), tx, DetailSummary)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	exchange := result.(*domain.ExchangeTransaction)
	if exchange.BuyOrder.ID != "order2" {
		t.Errorf("buy order = %s, want order2", exchange.BuyOrder.ID)
	}
	if exchange.SellOrder.ID != "order1" {
		t.Errorf("sell order = %s, want order1", exchange.SellOrder.ID)
	}
	if exchange.Buyer != "3PSecondSender" || exchange.Seller != "3PFirstSender" {
		t.Errorf("buyer/seller = %s/%s", exchange.Buyer, exchange.Seller)
	}
}

func TestNormalize_ExchangeMissingOrderFails(t *testing.T) {
	n, _, _, _ := newTestNormalizer()

	// One order absent must fail the element, whichever side survives.
	tx := rawExchange("exchange-no-buy", domain.OrderTypeBuy, domain.OrderTypeSell)
	tx.Order1 = nil
	if _, err := n.Normalize(context.Background(), tx, DetailSummary); !errors.Is(err, ErrMissingOrders) {
		t.Errorf("missing order1: err = %v, want ErrMissingOrders", err)
	}

	tx = rawExchange("exchange-no-sell", domain.OrderTypeBuy, domain.OrderTypeSell)
	tx.Order2 = nil
	if _, err := n.Normalize(context.Background(), tx, DetailSummary); !errors.Is(err, ErrMissingOrders) {
		t.Errorf("missing order2: err = %v, want ErrMissingOrders", err)
	}

	tx = rawExchange("exchange-empty", domain.OrderTypeBuy, domain.OrderTypeSell)
	tx.Order1, tx.Order2 = nil, nil
	if _, err := n.Normalize(context.Background(), tx, DetailSummary); !errors.Is(err, ErrMissingOrders) {
		t.Errorf("both missing: err = %v, want ErrMissingOrders", err)
	}
}

func TestNormalizeAll_MalformedExchangeFailsBatch(t *testing.T) {
	n, _, _, _ := newTestNormalizer()

	good := rawBase(domain.TypeTransfer, "batch-tx-0")
	bad := rawExchange("batch-tx-1", domain.OrderTypeSell, domain.OrderTypeBuy)
	bad.Order2 = nil

	_, err := n.NormalizeAll(context.Background(), []*domain.RawTransaction{good, bad})
	if !errors.Is(err, ErrMissingOrders) {
		t.Fatalf("err = %v, want ErrMissingOrders", err)
	}
}

func TestNormalize_LeaseCancelRecipient(t *testing.T) {
	n, _, _, _ := newTestNormalizer()

	tx := rawBase(domain.TypeLeaseCancel, "cancel-tx")
	tx.LeaseID = "lease-1"
	tx.Lease = &domain.RawLeaseInfo{Recipient: "3PLeaseRecipient"}

	result, err := n.Normalize(context.Background(), tx, DetailSummary)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	cancel := result.(*domain.LeaseCancelTransaction)
	if cancel.Recipient != "3PLeaseRecipient" {
		t.Errorf("recipient = %q", cancel.Recipient)
	}

	// Without the nested lease record the recipient is simply absent.
	tx2 := rawBase(domain.TypeLeaseCancel, "cancel-tx-2")
	tx2.LeaseID = "lease-2"

	result, err = n.Normalize(context.Background(), tx2, DetailSummary)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got := result.(*domain.LeaseCancelTransaction).Recipient; got != "" {
		t.Errorf("recipient = %q, want empty", got)
	}
}

func TestNormalize_MassTransfer(t *testing.T) {
	n, _, _, _ := newTestNormalizer()

	tx := rawBase(domain.TypeMassTransfer, "mass-tx")
	tx.RawAssetID = strptr("spam-asset")
	tx.Transfers = []domain.RawTransfer{
		{Recipient: "3PA", Amount: 100},
		{Recipient: "3PB", Amount: 200},
	}
	tx.TotalAmount = 300
	tx.TransferCount = 2

	result, err := n.Normalize(context.Background(), tx, DetailSummary)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	mass := result.(*domain.MassTransferTransaction)
	if len(mass.Transfers) != 2 {
		t.Fatalf("transfers = %d", len(mass.Transfers))
	}
	if mass.Transfers[1].Amount.Coins() != 200 {
		t.Errorf("second transfer = %d", mass.Transfers[1].Amount.Coins())
	}
	if mass.TotalAmount.Coins() != 300 || mass.TransferCount != 2 {
		t.Errorf("totals: %+v", mass)
	}
	if !mass.IsSpam {
		t.Error("expected spam flag")
	}
}

func TestNormalize_SponsorshipFee(t *testing.T) {
	n, _, _, _ := newTestNormalizer()

	minFee := int64(5000)
	tx := rawBase(domain.TypeSponsorship, "sponsor-tx")
	tx.RawAssetID = strptr("token-a")
	tx.MinSponsoredAssetFee = &minFee

	result, err := n.Normalize(context.Background(), tx, DetailSummary)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	sponsorship := result.(*domain.SponsorshipTransaction)
	if sponsorship.SponsoredFee == nil || sponsorship.SponsoredFee.Coins() != 5000 {
		t.Errorf("sponsored fee = %v", sponsorship.SponsoredFee)
	}
	if sponsorship.SponsoredFee.Currency().ID != "token-a" {
		t.Errorf("sponsored fee currency = %v", sponsorship.SponsoredFee.Currency())
	}

	// Cancelling sponsorship carries no minimum fee.
	tx2 := rawBase(domain.TypeSponsorship, "sponsor-cancel")
	tx2.RawAssetID = strptr("token-a")

	result, err = n.Normalize(context.Background(), tx2, DetailSummary)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if result.(*domain.SponsorshipTransaction).SponsoredFee != nil {
		t.Error("expected nil sponsored fee")
	}
}

func TestNormalize_InvokeScriptDetailLevels(t *testing.T) {
	n, _, _, changes := newTestNormalizer()

	tx := rawBase(domain.TypeInvokeScript, "invoke-tx")
	tx.DApp = "3PDAppAddress"
	tx.Payment = []domain.RawPayment{{Amount: 42, AssetID: strptr("token-a")}}

	// Summary detail must never touch the resolver.
	result, err := n.Normalize(context.Background(), tx, DetailSummary)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	invoke := result.(*domain.InvokeScriptTransaction)
	if changes.calls.Load() != 0 {
		t.Errorf("state change lookups at summary = %d, want 0", changes.calls.Load())
	}
	if invoke.StateChanges != nil {
		t.Error("unexpected state changes at summary detail")
	}
	if invoke.Call.Function != "default" || len(invoke.Call.Args) != 0 {
		t.Errorf("call = %+v, want default call", invoke.Call)
	}
	if invoke.Payment == nil || invoke.Payment.Coins() != 42 {
		t.Errorf("payment = %v", invoke.Payment)
	}

	// Full detail fetches exactly once.
	result, err = n.Normalize(context.Background(), tx, DetailFull)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if changes.calls.Load() != 1 {
		t.Errorf("state change lookups at full = %d, want 1", changes.calls.Load())
	}
	if result.(*domain.InvokeScriptTransaction).StateChanges == nil {
		t.Error("expected state changes at full detail")
	}
}

func TestNormalize_InvokeScriptStateChangeFailureTolerated(t *testing.T) {
	n, _, _, changes := newTestNormalizer()
	changes.err = errors.New("node unavailable")

	tx := rawBase(domain.TypeInvokeScript, "invoke-failing")
	tx.DApp = "3PDAppAddress"
	tx.Call = &domain.FunctionCall{Function: "deposit"}

	result, err := n.Normalize(context.Background(), tx, DetailFull)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	invoke := result.(*domain.InvokeScriptTransaction)
	if invoke.StateChanges != nil {
		t.Error("state changes must be omitted on lookup failure")
	}
	if invoke.Call.Function != "deposit" {
		t.Errorf("call = %+v", invoke.Call)
	}
	if invoke.Payment != nil {
		t.Errorf("payment = %v, want nil", invoke.Payment)
	}
}

func TestNormalize_UnknownTypePassesThrough(t *testing.T) {
	n, _, _, _ := newTestNormalizer()

	payload := json.RawMessage(`{"type":255,"id":"future-tx","newField":true}`)
	tx := &domain.RawTransaction{
		Type:      255,
		ID:        "future-tx",
		Timestamp: 1578000000000,
		Raw:       payload,
		// No proofs and no signature: still must not fail.
	}

	result, err := n.Normalize(context.Background(), tx, DetailFull)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	unknown, ok := result.(*domain.UnknownTransaction)
	if !ok {
		t.Fatalf("expected UnknownTransaction, got %T", result)
	}
	if unknown.Type != 255 || unknown.ID != "future-tx" {
		t.Errorf("common fields: %+v", unknown.TransactionCommon)
	}
	if string(unknown.Raw) != string(payload) {
		t.Errorf("raw payload = %s", unknown.Raw)
	}
}

func TestNormalize_MissingProofsFails(t *testing.T) {
	n, _, _, _ := newTestNormalizer()

	tx := rawBase(domain.TypeAlias, "no-proofs")
	tx.Proofs = nil
	tx.Signature = ""
	tx.Alias = "somebody"

	_, err := n.Normalize(context.Background(), tx, DetailSummary)
	if !errors.Is(err, ErrMissingProofs) {
		t.Fatalf("err = %v, want ErrMissingProofs", err)
	}
}

func TestNormalize_CurrencyFailurePropagates(t *testing.T) {
	n, resolver, _, _ := newTestNormalizer()
	lookupErr := errors.New("asset lookup failed")
	resolver.failures["broken-asset"] = lookupErr

	tx := rawBase(domain.TypeTransfer, "broken-transfer")
	tx.RawAssetID = strptr("broken-asset")

	_, err := n.Normalize(context.Background(), tx, DetailSummary)
	if !errors.Is(err, lookupErr) {
		t.Fatalf("err = %v, want wrapped lookup error", err)
	}
}

func TestNormalize_AllKnownKindsComplete(t *testing.T) {
	n, _, _, _ := newTestNormalizer()

	fixtures := map[int]*domain.RawTransaction{}
	for code := domain.TypeGenesis; code <= domain.TypeInvokeScript; code++ {
		fixtures[code] = rawBase(code, fmt.Sprintf("tx-%d", code))
	}
	fixtures[domain.TypeGenesis].Recipient = "3PR"
	fixtures[domain.TypeIssue].RawAssetID = strptr("issued")
	fixtures[domain.TypeIssue].Name = "Issued"
	fixtures[domain.TypeReissue].RawAssetID = strptr("token-a")
	fixtures[domain.TypeBurn].RawAssetID = strptr("token-a")
	fixtures[domain.TypeExchange] = rawExchange("tx-7", domain.OrderTypeBuy, domain.OrderTypeSell)
	fixtures[domain.TypeLease].Recipient = "3PR"
	fixtures[domain.TypeLeaseCancel].LeaseID = "lease-1"
	fixtures[domain.TypeAlias].Alias = "alice"
	fixtures[domain.TypeMassTransfer].Transfers = []domain.RawTransfer{{Recipient: "3PR", Amount: 1}}
	fixtures[domain.TypeData].Data = []domain.DataEntry{{Key: "k", Type: "string", Value: json.RawMessage(`"v"`)}}
	fixtures[domain.TypeSetScript].Script = "base64:AAIC"
	fixtures[domain.TypeSponsorship].RawAssetID = strptr("token-a")
	fixtures[domain.TypeSetAssetScript].RawAssetID = strptr("token-a")
	fixtures[domain.TypeSetAssetScript].Script = "base64:AAIC"
	fixtures[domain.TypeInvokeScript].DApp = "3PDApp"

	wantKinds := map[int]domain.Kind{
		domain.TypeGenesis:        domain.KindGenesis,
		domain.TypePayment:        domain.KindTransfer,
		domain.TypeIssue:          domain.KindIssue,
		domain.TypeTransfer:       domain.KindTransfer,
		domain.TypeReissue:        domain.KindReissue,
		domain.TypeBurn:           domain.KindBurn,
		domain.TypeExchange:       domain.KindExchange,
		domain.TypeLease:          domain.KindLease,
		domain.TypeLeaseCancel:    domain.KindLeaseCancel,
		domain.TypeAlias:          domain.KindAlias,
		domain.TypeMassTransfer:   domain.KindMassTransfer,
		domain.TypeData:           domain.KindData,
		domain.TypeSetScript:      domain.KindSetScript,
		domain.TypeSponsorship:    domain.KindSponsorship,
		domain.TypeSetAssetScript: domain.KindAssetScript,
		domain.TypeInvokeScript:   domain.KindInvokeScript,
	}

	for code, tx := range fixtures {
		result, err := n.Normalize(context.Background(), tx, DetailSummary)
		if err != nil {
			t.Errorf("type %d: %v", code, err)
			continue
		}

		if result.Kind() != wantKinds[code] {
			t.Errorf("type %d: kind = %s, want %s", code, result.Kind(), wantKinds[code])
		}

		common := result.Common()
		if common.ID == "" || common.Type != code {
			t.Errorf("type %d: incomplete common fields: %+v", code, common)
		}
		if len(common.Proofs) == 0 {
			t.Errorf("type %d: missing proofs", code)
		}
		if common.Timestamp.IsZero() {
			t.Errorf("type %d: missing timestamp", code)
		}
	}
}

func TestNormalizeAll_PreservesInputOrder(t *testing.T) {
	n, resolver, _, _ := newTestNormalizer()
	// The middle element's lookup resolves last.
	resolver.delays["slow-asset"] = 50 * time.Millisecond

	txs := make([]*domain.RawTransaction, 3)
	for i, asset := range []string{"fast-asset", "slow-asset", "fast-asset"} {
		tx := rawBase(domain.TypeTransfer, fmt.Sprintf("batch-tx-%d", i))
		tx.RawAssetID = strptr(asset)
		txs[i] = tx
	}

	results, err := n.NormalizeAll(context.Background(), txs)
	if err != nil {
		t.Fatalf("NormalizeAll: %v", err)
	}

	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
	for i, result := range results {
		want := fmt.Sprintf("batch-tx-%d", i)
		if result.Common().ID != want {
			t.Errorf("result[%d] = %s, want %s", i, result.Common().ID, want)
		}
	}
}

func TestNormalizeAll_SingleFailureFailsBatch(t *testing.T) {
	n, resolver, _, _ := newTestNormalizer()
	lookupErr := errors.New("asset lookup failed")
	resolver.failures["broken-asset"] = lookupErr

	txs := make([]*domain.RawTransaction, 3)
	for i, asset := range []string{"fast-asset", "broken-asset", "fast-asset"} {
		tx := rawBase(domain.TypeTransfer, fmt.Sprintf("batch-tx-%d", i))
		tx.RawAssetID = strptr(asset)
		txs[i] = tx
	}

	results, err := n.NormalizeAll(context.Background(), txs)
	if !errors.Is(err, lookupErr) {
		t.Fatalf("err = %v, want wrapped lookup error", err)
	}
	if results != nil {
		t.Error("expected no partial results")
	}
}
