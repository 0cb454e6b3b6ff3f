// Package normalizer converts wire-format transaction records into
// uniform, display-ready typed records. It dispatches on the transaction
// type code, resolves currency, spam and state-change dependencies, and
// keeps money values exact integer coins throughout.
package normalizer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"sks-explorer/internal/domain"
	"sks-explorer/internal/observability"
)

// ErrMissingProofs is returned for a recognized transaction that carries
// neither a proof list nor a legacy signature.
var ErrMissingProofs = errors.New("transaction has no proofs and no signature")

// ErrMissingOrders is returned for an exchange transaction whose buy or
// sell order cannot be determined.
var ErrMissingOrders = errors.New("exchange transaction is missing buy or sell order")

// DetailLevel selects how much per-transaction data normalization fetches.
type DetailLevel int

const (
	// DetailSummary skips expensive lookups; list views stay cheap.
	DetailSummary DetailLevel = iota
	// DetailFull additionally fetches contract state changes.
	DetailFull
)

// CurrencyResolver resolves asset ids to currency definitions and accepts
// newly discovered currencies.
type CurrencyResolver interface {
	// Get resolves an asset id; the empty id means the native currency.
	Get(ctx context.Context, assetID string) (domain.Currency, error)
	// Put registers a currency by id, overwriting any cached definition.
	Put(c domain.Currency)
}

// SpamClassifier decides whether transfers of an asset are spam.
// Implementations must be pure lookups with no I/O in the hot path.
type SpamClassifier interface {
	IsSpam(assetID string) bool
}

// StateChangeResolver fetches the ledger side effects of a contract
// invocation. Callers treat any error as "no extra data".
type StateChangeResolver interface {
	LoadStateChanges(ctx context.Context, txID string) (*domain.StateChanges, error)
}

// Normalizer is the transaction normalization engine.
type Normalizer struct {
	currencies   CurrencyResolver
	spam         SpamClassifier
	stateChanges StateChangeResolver
}

// Options contains the collaborators a Normalizer needs.
type Options struct {
	Currencies   CurrencyResolver
	Spam         SpamClassifier
	StateChanges StateChangeResolver
}

// New creates a Normalizer with the provided collaborators.
func New(opts Options) *Normalizer {
	return &Normalizer{
		currencies:   opts.Currencies,
		spam:         opts.Spam,
		stateChanges: opts.StateChanges,
	}
}

// Normalize converts one raw transaction. Unrecognized type codes never
// fail: they pass through as an UnknownTransaction carrying the original
// payload.
func (n *Normalizer) Normalize(ctx context.Context, tx *domain.RawTransaction, detail DetailLevel) (domain.NormalizedTransaction, error) {
	result, err := n.dispatch(ctx, tx, detail)
	if err != nil {
		observability.RecordNormalizationError()
		return nil, err
	}
	observability.RecordNormalized(string(result.Kind()))
	return result, nil
}

// NormalizeAll converts a batch concurrently, always at summary detail.
// Output order equals input order regardless of per-element resolution
// latency. A single failing element fails the whole batch; callers render
// one load failure instead of a partially populated list.
func (n *Normalizer) NormalizeAll(ctx context.Context, txs []*domain.RawTransaction) ([]domain.NormalizedTransaction, error) {
	observability.RecordBatch(len(txs))

	results := make([]domain.NormalizedTransaction, len(txs))
	errs := make([]error, len(txs))

	var wg sync.WaitGroup
	for i, tx := range txs {
		wg.Add(1)
		go func(i int, tx *domain.RawTransaction) {
			defer wg.Done()
			results[i], errs[i] = n.Normalize(ctx, tx, DetailSummary)
		}(i, tx)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

func (n *Normalizer) dispatch(ctx context.Context, tx *domain.RawTransaction, detail DetailLevel) (domain.NormalizedTransaction, error) {
	switch tx.Type {
	case domain.TypeGenesis:
		return n.normalizeGenesis(tx)
	case domain.TypePayment, domain.TypeTransfer:
		return n.normalizeTransfer(ctx, tx)
	case domain.TypeIssue:
		return n.normalizeIssue(ctx, tx)
	case domain.TypeReissue:
		return n.normalizeReissue(ctx, tx)
	case domain.TypeBurn:
		return n.normalizeBurn(ctx, tx)
	case domain.TypeExchange:
		return n.normalizeExchange(ctx, tx)
	case domain.TypeLease:
		return n.normalizeLease(ctx, tx)
	case domain.TypeLeaseCancel:
		return n.normalizeLeaseCancel(ctx, tx)
	case domain.TypeAlias:
		return n.normalizeAlias(tx)
	case domain.TypeMassTransfer:
		return n.normalizeMassTransfer(ctx, tx)
	case domain.TypeData:
		return n.normalizeData(ctx, tx)
	case domain.TypeSetScript:
		return n.normalizeSetScript(ctx, tx)
	case domain.TypeSponsorship:
		return n.normalizeSponsorship(ctx, tx)
	case domain.TypeSetAssetScript:
		return n.normalizeAssetScript(ctx, tx)
	case domain.TypeInvokeScript:
		return n.normalizeInvokeScript(ctx, tx, detail)
	default:
		return n.normalizeUnknown(tx), nil
	}
}

// commonFields copies the attributes shared by every kind. Proofs is the
// proof list, or the legacy signature wrapped in a single-element list.
func commonFields(tx *domain.RawTransaction) (domain.TransactionCommon, error) {
	proofs := tx.Proofs
	if len(proofs) == 0 {
		if tx.Signature == "" {
			return domain.TransactionCommon{}, fmt.Errorf("transaction %s: %w", tx.ID, ErrMissingProofs)
		}
		proofs = []string{tx.Signature}
	}

	return domain.TransactionCommon{
		ID:              tx.ID,
		Type:            tx.Type,
		Version:         tx.Version,
		Timestamp:       time.UnixMilli(tx.Timestamp),
		Sender:          tx.Sender,
		SenderPublicKey: tx.SenderPublicKey,
		Height:          tx.Height,
		Proofs:          proofs,
	}, nil
}

// resolveCurrencies looks all ids up concurrently and fails on the first
// lookup error. Results line up with the input ids.
func (n *Normalizer) resolveCurrencies(ctx context.Context, ids ...string) ([]domain.Currency, error) {
	out := make([]domain.Currency, len(ids))
	errs := make([]error, len(ids))

	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			out[i], errs[i] = n.currencies.Get(ctx, id)
		}(i, id)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
