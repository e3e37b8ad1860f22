package storage

import (
	"context"

	"github.com/nice1-blockchain/nice1swapper/internal/domain"
)

// OfferStore provides access to swap_offers storage. Ref is the primary
// key; MemoKey is a unique secondary index supporting exact-match lookup.
type OfferStore interface {
	// Insert adds a new offer. Returns ErrDuplicateRef if the ref exists,
	// ErrDuplicateMemoKey if the memo key is in use elsewhere.
	Insert(ctx context.Context, o *domain.SwapOffer) error

	// GetByRef retrieves an offer by its ref. Returns ErrNotFound if not exists.
	GetByRef(ctx context.Context, ref string) (*domain.SwapOffer, error)

	// GetByMemoKey retrieves the offer registered under a memo key.
	// Returns ErrNotFound if no offer uses the key.
	GetByMemoKey(ctx context.Context, key uint64) (*domain.SwapOffer, error)

	// GetByOwner retrieves all offers created by an owner, ordered by ref ASC.
	GetByOwner(ctx context.Context, owner string) ([]*domain.SwapOffer, error)

	// GetAll retrieves every offer, ordered by ref ASC.
	GetAll(ctx context.Context) ([]*domain.SwapOffer, error)

	// Delete removes an offer by ref. Returns ErrNotFound if absent.
	Delete(ctx context.Context, ref string) error

	// SetActive updates the active flag of an offer. Returns ErrNotFound
	// if absent. No other field is ever updated.
	SetActive(ctx context.Context, ref string, active bool) error
}

// JournalStore provides access to settlement_journal storage. Append-only.
type JournalStore interface {
	// Insert adds a new settlement record.
	Insert(ctx context.Context, r *domain.SettlementRecord) error

	// GetByRef retrieves all records for an offer ref, ordered by timestamp ASC.
	GetByRef(ctx context.Context, ref string) ([]*domain.SettlementRecord, error)

	// GetByTimeRange retrieves records within [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.SettlementRecord, error)
}
