// Package settlement resolves inbound transfer notifications to offers
// and completes matching swaps with a single outbound transfer.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/nice1-blockchain/nice1swapper/internal/domain"
	"github.com/nice1-blockchain/nice1swapper/internal/idhash"
	"github.com/nice1-blockchain/nice1swapper/internal/ledger"
	"github.com/nice1-blockchain/nice1swapper/internal/observability"
	"github.com/nice1-blockchain/nice1swapper/internal/storage"
)

// DefaultAckMemo is the memo carried by outbound settlement transfers.
const DefaultAckMemo = "ALL OK"

// Engine validates inbound transfer notifications against the offer
// registry and dispatches the counter-transfer. It never mutates the
// registry: a settled offer stays active and can be matched again.
type Engine struct {
	self    string
	offers  storage.OfferStore
	ledger  ledger.Ledger
	journal storage.JournalStore
	metrics *observability.Metrics
	logger  *log.Logger
	ackMemo string
	now     func() int64
}

// EngineOptions contains configuration for creating an Engine.
type EngineOptions struct {
	Self    string               // this system's own account
	Offers  storage.OfferStore   // offer registry
	Ledger  ledger.Ledger        // executes outbound transfers
	Journal storage.JournalStore // optional settlement journal
	Metrics *observability.Metrics
	Logger  *log.Logger
	AckMemo string       // defaults to DefaultAckMemo
	Now     func() int64 // optional, unix ms clock
}

// NewEngine creates a new settlement engine.
func NewEngine(opts EngineOptions) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	ackMemo := opts.AckMemo
	if ackMemo == "" {
		ackMemo = DefaultAckMemo
	}
	now := opts.Now
	if now == nil {
		now = func() int64 { return time.Now().UnixMilli() }
	}
	return &Engine{
		self:    opts.Self,
		offers:  opts.Offers,
		ledger:  opts.Ledger,
		journal: opts.Journal,
		metrics: opts.Metrics,
		logger:  logger,
		ackMemo: ackMemo,
		now:     now,
	}
}

// OnTransfer handles one inbound transfer notification. Transfers to any
// destination other than the engine's own account are ignored entirely.
// Every validation step runs before the outbound effect; the first
// violated condition aborts the whole operation with no state change.
// On success exactly one outbound transfer of the offer's sending asset
// is issued to the sender over the offer's sending contract.
func (e *Engine) OnTransfer(ctx context.Context, n domain.TransferNotice) error {
	if n.To != e.self {
		if e.metrics != nil {
			e.metrics.NoticesIgnored.Inc()
		}
		return nil
	}

	start := time.Now()
	offer, err := e.settle(ctx, n)

	if e.metrics != nil {
		e.metrics.NoticesReceived.Inc()
		e.metrics.SettlementLatency.Observe(time.Since(start).Seconds())
		if err == nil {
			e.metrics.SettlementsSettled.Inc()
		} else {
			e.metrics.SettlementAborts.WithLabelValues(abortReason(err)).Inc()
		}
	}
	e.record(ctx, n, offer, err)

	return err
}

// settle runs the validation chain and dispatches the outbound transfer.
// Returns the matched offer, if resolution got that far, for journaling.
func (e *Engine) settle(ctx context.Context, n domain.TransferNotice) (*domain.SwapOffer, error) {
	key, err := strconv.ParseUint(n.Memo, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMemoFormat, n.Memo)
	}

	offer, err := e.offers.GetByMemoKey(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: key %d", ErrMemoMismatch, key)
		}
		return nil, fmt.Errorf("lookup memo key %d: %w", key, err)
	}

	// The memo must be the canonical decimal rendering of the key.
	// "042" parses to 42 but is not the memo the offer was registered
	// with, so it must not settle.
	if strconv.FormatUint(key, 10) != n.Memo {
		return offer, fmt.Errorf("%w: non-canonical memo %q", ErrMemoMismatch, n.Memo)
	}

	if !offer.Active {
		return offer, fmt.Errorf("%w: %s", ErrOfferInactive, offer.Ref)
	}

	if n.SourceContract != offer.ReceivingContract {
		return offer, fmt.Errorf("%w: got %s, want %s", ErrWrongSourceContract, n.SourceContract, offer.ReceivingContract)
	}

	if !n.Quantity.Equal(offer.ReceivingAsset) {
		return offer, fmt.Errorf("%w: got %s, want %s", ErrWrongQuantity, n.Quantity, offer.ReceivingAsset)
	}

	// Defensive recheck of stored data before paying out.
	if err := offer.SendingAsset.Validate(); err != nil {
		return offer, fmt.Errorf("sending quantity: %w", err)
	}

	cmd := domain.TransferCommand{
		Contract: offer.SendingContract,
		From:     e.self,
		To:       n.From,
		Quantity: offer.SendingAsset,
		Memo:     e.ackMemo,
	}
	if err := e.ledger.Transfer(ctx, cmd); err != nil {
		return offer, fmt.Errorf("outbound transfer: %w", err)
	}

	e.logger.Printf("Settled offer %s: received %s from %s, sent %s via %s",
		offer.Ref, n.Quantity, n.From, offer.SendingAsset, offer.SendingContract)
	return offer, nil
}

// record journals the handled notice. Journal writes are best-effort
// telemetry and never change the settlement outcome.
func (e *Engine) record(ctx context.Context, n domain.TransferNotice, offer *domain.SwapOffer, settleErr error) {
	if e.journal == nil {
		return
	}

	ts := e.now()
	rec := &domain.SettlementRecord{
		SettlementID:   idhash.ComputeSettlementID(n.From, n.SourceContract, n.Quantity.String(), n.Memo, ts),
		Sender:         n.From,
		SourceContract: n.SourceContract,
		Quantity:       n.Quantity.String(),
		Memo:           n.Memo,
		Outcome:        domain.SettlementOutcomeSettled,
		Timestamp:      ts,
	}
	if offer != nil {
		rec.Ref = offer.Ref
		rec.MemoKey = offer.MemoKey
	}
	if settleErr != nil {
		rec.Outcome = domain.SettlementOutcomeAborted
		rec.Reason = abortReason(settleErr)
	}

	if err := e.journal.Insert(ctx, rec); err != nil {
		if e.metrics != nil {
			e.metrics.JournalErrors.Inc()
		}
		e.logger.Printf("Journal write failed for %s: %v", rec.SettlementID, err)
	}
}

// abortReason maps an abort error to a stable label for metrics and
// journal rows.
func abortReason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidMemoFormat):
		return "invalid_memo_format"
	case errors.Is(err, ErrMemoMismatch):
		return "memo_mismatch"
	case errors.Is(err, ErrOfferInactive):
		return "offer_inactive"
	case errors.Is(err, ErrWrongSourceContract):
		return "wrong_source_contract"
	case errors.Is(err, ErrWrongQuantity):
		return "wrong_quantity"
	case errors.Is(err, domain.ErrInvalidAssetQuantity):
		return "invalid_asset_quantity"
	case errors.Is(err, ledger.ErrInsufficientBalance):
		return "insufficient_balance"
	default:
		return "other"
	}
}
