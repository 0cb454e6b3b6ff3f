package normalizer

import (
	"context"
	"fmt"
	"time"

	"sks-explorer/internal/domain"
	"sks-explorer/internal/observability"
)

// defaultCall is substituted when an invoke script record omits the call.
var defaultCall = domain.FunctionCall{
	Function: "default",
	Args:     []domain.CallArg{},
}

func (n *Normalizer) normalizeGenesis(tx *domain.RawTransaction) (domain.NormalizedTransaction, error) {
	common, err := commonFields(tx)
	if err != nil {
		return nil, err
	}
	// Genesis distributions are always in block 1, whatever the record says.
	common.Height = 1

	return &domain.GenesisTransaction{
		TransactionCommon: common,
		Amount:            domain.FromCoins(tx.Amount, domain.SKS),
		Fee:               domain.FromCoins(tx.Fee, domain.SKS),
		Recipient:         tx.Recipient,
	}, nil
}

func (n *Normalizer) normalizeTransfer(ctx context.Context, tx *domain.RawTransaction) (domain.NormalizedTransaction, error) {
	common, err := commonFields(tx)
	if err != nil {
		return nil, err
	}

	currencies, err := n.resolveCurrencies(ctx, tx.AssetID(), tx.FeeAsset())
	if err != nil {
		return nil, err
	}

	isSpam := n.spam.IsSpam(tx.AssetID())
	if isSpam {
		observability.RecordSpamTransfer()
	}

	return &domain.TransferTransaction{
		TransactionCommon: common,
		Amount:            domain.FromCoins(tx.Amount, currencies[0]),
		Fee:               domain.FromCoins(tx.Fee, currencies[1]),
		Attachment:        decodeAttachment(tx.Attachment),
		Recipient:         tx.Recipient,
		IsSpam:            isSpam,
	}, nil
}

func (n *Normalizer) normalizeIssue(ctx context.Context, tx *domain.RawTransaction) (domain.NormalizedTransaction, error) {
	common, err := commonFields(tx)
	if err != nil {
		return nil, err
	}

	// The transaction's own payload defines the currency; register it
	// before resolving it back so the registry's rewrite rules apply.
	minted := domain.CurrencyFromIssue(tx)
	n.currencies.Put(minted)

	currency, err := n.currencies.Get(ctx, minted.ID)
	if err != nil {
		return nil, err
	}

	// Name and description come from the resolved currency, not the raw
	// payload, so registry rewrite rules reach the issue view too.
	return &domain.IssueTransaction{
		TransactionCommon: common,
		Amount:            domain.FromCoins(tx.Quantity, currency),
		Fee:               domain.FromCoins(tx.Fee, domain.SKS),
		Name:              currency.Name,
		Reissuable:        tx.Reissuable,
		Decimals:          tx.Decimals,
		Description:       currency.Description,
		Script:            tx.Script,
	}, nil
}

func (n *Normalizer) normalizeReissue(ctx context.Context, tx *domain.RawTransaction) (domain.NormalizedTransaction, error) {
	common, err := commonFields(tx)
	if err != nil {
		return nil, err
	}

	currency, err := n.currencies.Get(ctx, tx.AssetID())
	if err != nil {
		return nil, err
	}

	return &domain.ReissueTransaction{
		TransactionCommon: common,
		Amount:            domain.FromCoins(tx.Quantity, currency),
		Fee:               domain.FromCoins(tx.Fee, domain.SKS),
		Reissuable:        tx.Reissuable,
	}, nil
}

func (n *Normalizer) normalizeBurn(ctx context.Context, tx *domain.RawTransaction) (domain.NormalizedTransaction, error) {
	common, err := commonFields(tx)
	if err != nil {
		return nil, err
	}

	currency, err := n.currencies.Get(ctx, tx.AssetID())
	if err != nil {
		return nil, err
	}

	return &domain.BurnTransaction{
		TransactionCommon: common,
		Amount:            domain.FromCoins(tx.Amount, currency),
		Fee:               domain.FromCoins(tx.Fee, domain.SKS),
	}, nil
}

func (n *Normalizer) normalizeExchange(ctx context.Context, tx *domain.RawTransaction) (domain.NormalizedTransaction, error) {
	common, err := commonFields(tx)
	if err != nil {
		return nil, err
	}

	// Orders are matched by their own side marker; order1 is not
	// necessarily the buy side. A record missing either order fails the
	// element instead of reaching a nil dereference.
	buyOrder, sellOrder := tx.Order1, tx.Order2
	if buyOrder != nil && buyOrder.OrderType == domain.OrderTypeSell {
		buyOrder, sellOrder = sellOrder, buyOrder
	}
	if buyOrder == nil || sellOrder == nil {
		return nil, fmt.Errorf("transaction %s: %w", tx.ID, ErrMissingOrders)
	}

	pair := buyOrder.AssetPair
	currencies, err := n.resolveCurrencies(ctx,
		pair.AmountAssetID(),
		pair.PriceAssetID(),
		tx.FeeAsset(),
		buyOrder.FeeAsset(),
		sellOrder.FeeAsset(),
	)
	if err != nil {
		return nil, err
	}

	currencyPair := domain.AssetPair{
		AmountAsset: currencies[0],
		PriceAsset:  currencies[1],
	}
	feeAsset := currencies[2]
	buyFeeAsset := currencies[3]
	sellFeeAsset := currencies[4]

	price := domain.OrderPriceFromBackend(tx.Price, currencyPair)
	amount := domain.FromCoins(tx.Amount, currencyPair.AmountAsset)

	return &domain.ExchangeTransaction{
		TransactionCommon: common,
		Fee:               domain.FromCoins(tx.Fee, feeAsset),
		BuyFee:            domain.FromCoins(tx.BuyMatcherFee, buyFeeAsset),
		SellFee:           domain.FromCoins(tx.SellMatcherFee, sellFeeAsset),
		Price:             price,
		Amount:            amount,
		Total:             price.Volume(amount),
		BuyOrder:          normalizeOrder(buyOrder, currencyPair, buyFeeAsset),
		SellOrder:         normalizeOrder(sellOrder, currencyPair, sellFeeAsset),
		Seller:            sellOrder.Sender,
		Buyer:             buyOrder.Sender,
	}, nil
}

func normalizeOrder(order *domain.RawOrder, pair domain.AssetPair, feeAsset domain.Currency) domain.Order {
	return domain.Order{
		ID:         order.ID,
		Sender:     order.Sender,
		AssetPair:  pair,
		OrderType:  order.OrderType,
		Amount:     domain.FromCoins(order.Amount, pair.AmountAsset),
		Price:      domain.OrderPriceFromBackend(order.Price, pair),
		Timestamp:  time.UnixMilli(order.Timestamp),
		Expiration: time.UnixMilli(order.Expiration),
		Fee:        domain.FromCoins(order.MatcherFee, feeAsset),
	}
}

func (n *Normalizer) normalizeLease(ctx context.Context, tx *domain.RawTransaction) (domain.NormalizedTransaction, error) {
	common, err := commonFields(tx)
	if err != nil {
		return nil, err
	}

	feeCurrency, err := n.currencies.Get(ctx, tx.FeeAsset())
	if err != nil {
		return nil, err
	}

	return &domain.LeaseTransaction{
		TransactionCommon: common,
		Recipient:         tx.Recipient,
		Fee:               domain.FromCoins(tx.Fee, feeCurrency),
		Amount:            domain.FromCoins(tx.Amount, domain.SKS),
		Status:            tx.Status,
	}, nil
}

func (n *Normalizer) normalizeLeaseCancel(ctx context.Context, tx *domain.RawTransaction) (domain.NormalizedTransaction, error) {
	common, err := commonFields(tx)
	if err != nil {
		return nil, err
	}

	feeCurrency, err := n.currencies.Get(ctx, tx.FeeAsset())
	if err != nil {
		return nil, err
	}

	recipient := ""
	if tx.Lease != nil {
		recipient = tx.Lease.Recipient
	}

	return &domain.LeaseCancelTransaction{
		TransactionCommon: common,
		Fee:               domain.FromCoins(tx.Fee, feeCurrency),
		LeaseID:           tx.LeaseID,
		Recipient:         recipient,
	}, nil
}

func (n *Normalizer) normalizeAlias(tx *domain.RawTransaction) (domain.NormalizedTransaction, error) {
	common, err := commonFields(tx)
	if err != nil {
		return nil, err
	}

	return &domain.AliasTransaction{
		TransactionCommon: common,
		Fee:               domain.FromCoins(tx.Fee, domain.SKS),
		Alias:             tx.Alias,
	}, nil
}

func (n *Normalizer) normalizeMassTransfer(ctx context.Context, tx *domain.RawTransaction) (domain.NormalizedTransaction, error) {
	common, err := commonFields(tx)
	if err != nil {
		return nil, err
	}

	currencies, err := n.resolveCurrencies(ctx, tx.AssetID(), tx.FeeAsset())
	if err != nil {
		return nil, err
	}
	amountCurrency, feeCurrency := currencies[0], currencies[1]

	transfers := make([]domain.Transfer, len(tx.Transfers))
	for i, item := range tx.Transfers {
		transfers[i] = domain.Transfer{
			Recipient: item.Recipient,
			Amount:    domain.FromCoins(item.Amount, amountCurrency),
		}
	}

	isSpam := n.spam.IsSpam(tx.AssetID())
	if isSpam {
		observability.RecordSpamTransfer()
	}

	return &domain.MassTransferTransaction{
		TransactionCommon: common,
		Fee:               domain.FromCoins(tx.Fee, feeCurrency),
		Attachment:        decodeAttachment(tx.Attachment),
		TotalAmount:       domain.FromCoins(tx.TotalAmount, amountCurrency),
		TransferCount:     tx.TransferCount,
		IsSpam:            isSpam,
		Transfers:         transfers,
	}, nil
}

func (n *Normalizer) normalizeData(ctx context.Context, tx *domain.RawTransaction) (domain.NormalizedTransaction, error) {
	common, err := commonFields(tx)
	if err != nil {
		return nil, err
	}

	feeCurrency, err := n.currencies.Get(ctx, tx.FeeAsset())
	if err != nil {
		return nil, err
	}

	return &domain.DataTransaction{
		TransactionCommon: common,
		Data:              append([]domain.DataEntry(nil), tx.Data...),
		Fee:               domain.FromCoins(tx.Fee, feeCurrency),
	}, nil
}

func (n *Normalizer) normalizeSetScript(ctx context.Context, tx *domain.RawTransaction) (domain.NormalizedTransaction, error) {
	common, err := commonFields(tx)
	if err != nil {
		return nil, err
	}

	feeCurrency, err := n.currencies.Get(ctx, tx.FeeAsset())
	if err != nil {
		return nil, err
	}

	return &domain.SetScriptTransaction{
		TransactionCommon: common,
		Script:            tx.Script,
		Fee:               domain.FromCoins(tx.Fee, feeCurrency),
	}, nil
}

func (n *Normalizer) normalizeSponsorship(ctx context.Context, tx *domain.RawTransaction) (domain.NormalizedTransaction, error) {
	common, err := commonFields(tx)
	if err != nil {
		return nil, err
	}

	currencies, err := n.resolveCurrencies(ctx, tx.AssetID(), tx.FeeAsset())
	if err != nil {
		return nil, err
	}
	sponsoredCurrency, feeCurrency := currencies[0], currencies[1]

	var sponsoredFee *domain.Money
	if tx.MinSponsoredAssetFee != nil {
		fee := domain.FromCoins(*tx.MinSponsoredAssetFee, sponsoredCurrency)
		sponsoredFee = &fee
	}

	return &domain.SponsorshipTransaction{
		TransactionCommon: common,
		Fee:               domain.FromCoins(tx.Fee, feeCurrency),
		SponsoredFee:      sponsoredFee,
	}, nil
}

func (n *Normalizer) normalizeAssetScript(ctx context.Context, tx *domain.RawTransaction) (domain.NormalizedTransaction, error) {
	common, err := commonFields(tx)
	if err != nil {
		return nil, err
	}

	asset, err := n.currencies.Get(ctx, tx.AssetID())
	if err != nil {
		return nil, err
	}

	return &domain.AssetScriptTransaction{
		TransactionCommon: common,
		Script:            tx.Script,
		Asset:             asset,
		Fee:               domain.FromCoins(tx.Fee, domain.SKS),
	}, nil
}

func (n *Normalizer) normalizeInvokeScript(ctx context.Context, tx *domain.RawTransaction, detail DetailLevel) (domain.NormalizedTransaction, error) {
	common, err := commonFields(tx)
	if err != nil {
		return nil, err
	}

	feeCurrency, err := n.currencies.Get(ctx, tx.FeeAsset())
	if err != nil {
		return nil, err
	}

	var payment *domain.Money
	if len(tx.Payment) > 0 {
		paymentCurrency, err := n.currencies.Get(ctx, tx.Payment[0].Asset())
		if err != nil {
			return nil, err
		}
		m := domain.FromCoins(tx.Payment[0].Amount, paymentCurrency)
		payment = &m
	}

	call := defaultCall
	if tx.Call != nil {
		call = *tx.Call
	}

	result := &domain.InvokeScriptTransaction{
		TransactionCommon: common,
		DAppAddress:       tx.DApp,
		Call:              call,
		Payment:           payment,
		Fee:               domain.FromCoins(tx.Fee, feeCurrency),
	}

	if detail != DetailFull {
		return result, nil
	}

	// State changes are best effort: a failed lookup drops the field,
	// it never fails the transaction.
	changes, err := n.stateChanges.LoadStateChanges(ctx, tx.ID)
	observability.RecordStateChangeLookup(err)
	if err == nil {
		result.StateChanges = changes
	}

	return result, nil
}

// normalizeUnknown passes a record of an unrecognized kind through with
// whatever common attributes it carries. It never fails.
func (n *Normalizer) normalizeUnknown(tx *domain.RawTransaction) domain.NormalizedTransaction {
	proofs := tx.Proofs
	if len(proofs) == 0 && tx.Signature != "" {
		proofs = []string{tx.Signature}
	}

	return &domain.UnknownTransaction{
		TransactionCommon: domain.TransactionCommon{
			ID:              tx.ID,
			Type:            tx.Type,
			Version:         tx.Version,
			Timestamp:       time.UnixMilli(tx.Timestamp),
			Sender:          tx.Sender,
			SenderPublicKey: tx.SenderPublicKey,
			Height:          tx.Height,
			Proofs:          proofs,
		},
		Raw: tx.Raw,
	}
}
