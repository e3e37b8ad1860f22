package postgres

import (
	"context"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"

	"github.com/nice1-blockchain/nice1swapper/internal/domain"
	"github.com/nice1-blockchain/nice1swapper/internal/storage"
)

// Constraint names from sql/postgres/001_swap_offers.sql.
const (
	refConstraint     = "swap_offers_pkey"
	memoKeyConstraint = "swap_offers_memo_key_key"
)

// OfferStore implements storage.OfferStore using PostgreSQL.
//
// memo_key is stored as BIGINT; uint64 values round-trip through the
// int64 bit pattern so the full 64-bit key space stays representable.
type OfferStore struct {
	pool *Pool
}

// NewOfferStore creates a new OfferStore.
func NewOfferStore(pool *Pool) *OfferStore {
	return &OfferStore{pool: pool}
}

// Compile-time interface check.
var _ storage.OfferStore = (*OfferStore)(nil)

// Insert adds a new offer. Returns ErrDuplicateRef if the ref exists,
// ErrDuplicateMemoKey if the memo key is in use elsewhere.
func (s *OfferStore) Insert(ctx context.Context, o *domain.SwapOffer) error {
	if o == nil || o.Ref == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO swap_offers (
			ref, owner, receiving_contract, receiving_amount, receiving_symbol, receiving_precision,
			sending_contract, sending_amount, sending_symbol, sending_precision, memo_key, active, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := s.pool.Exec(ctx, query,
		o.Ref,
		o.Owner,
		o.ReceivingContract,
		o.ReceivingAsset.Amount,
		o.ReceivingAsset.Symbol.Code,
		int16(o.ReceivingAsset.Symbol.Precision),
		o.SendingContract,
		o.SendingAsset.Amount,
		o.SendingAsset.Symbol.Code,
		int16(o.SendingAsset.Symbol.Precision),
		memoKeyToDB(o.MemoKey),
		o.Active,
		o.CreatedAt,
	)
	if err != nil {
		switch uniqueViolationConstraint(err) {
		case refConstraint:
			return storage.ErrDuplicateRef
		case memoKeyConstraint:
			return storage.ErrDuplicateMemoKey
		}
		return fmt.Errorf("insert offer: %w", err)
	}
	return nil
}

const offerColumns = `
	ref, owner, receiving_contract, receiving_amount, receiving_symbol, receiving_precision,
	sending_contract, sending_amount, sending_symbol, sending_precision, memo_key, active, created_at
`

// GetByRef retrieves an offer by its ref. Returns ErrNotFound if not exists.
func (s *OfferStore) GetByRef(ctx context.Context, ref string) (*domain.SwapOffer, error) {
	query := `SELECT ` + offerColumns + ` FROM swap_offers WHERE ref = $1`

	row := s.pool.QueryRow(ctx, query, ref)
	o, err := scanOffer(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get offer by ref: %w", err)
	}
	return o, nil
}

// GetByMemoKey retrieves the offer registered under a memo key.
func (s *OfferStore) GetByMemoKey(ctx context.Context, key uint64) (*domain.SwapOffer, error) {
	query := `SELECT ` + offerColumns + ` FROM swap_offers WHERE memo_key = $1`

	row := s.pool.QueryRow(ctx, query, memoKeyToDB(key))
	o, err := scanOffer(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get offer by memo key: %w", err)
	}
	return o, nil
}

// GetByOwner retrieves all offers created by an owner, ordered by ref ASC.
func (s *OfferStore) GetByOwner(ctx context.Context, owner string) ([]*domain.SwapOffer, error) {
	query := `SELECT ` + offerColumns + ` FROM swap_offers WHERE owner = $1 ORDER BY ref ASC`

	rows, err := s.pool.Query(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("get offers by owner: %w", err)
	}
	defer rows.Close()

	return scanOffers(rows)
}

// GetAll retrieves every offer, ordered by ref ASC.
func (s *OfferStore) GetAll(ctx context.Context) ([]*domain.SwapOffer, error) {
	query := `SELECT ` + offerColumns + ` FROM swap_offers ORDER BY ref ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all offers: %w", err)
	}
	defer rows.Close()

	return scanOffers(rows)
}

// Delete removes an offer by ref. Returns ErrNotFound if absent.
func (s *OfferStore) Delete(ctx context.Context, ref string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM swap_offers WHERE ref = $1`, ref)
	if err != nil {
		return fmt.Errorf("delete offer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// SetActive updates the active flag of an offer. Returns ErrNotFound if absent.
func (s *OfferStore) SetActive(ctx context.Context, ref string, active bool) error {
	tag, err := s.pool.Exec(ctx, `UPDATE swap_offers SET active = $2 WHERE ref = $1`, ref, active)
	if err != nil {
		return fmt.Errorf("set offer active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// memoKeyToDB maps a uint64 memo key onto BIGINT via the bit pattern.
func memoKeyToDB(key uint64) int64 {
	return int64(key)
}

func memoKeyFromDB(key int64) uint64 {
	return uint64(key)
}

// scanOffer scans a single row into a SwapOffer.
func scanOffer(row pgx.Row) (*domain.SwapOffer, error) {
	var o domain.SwapOffer
	var memoKey int64
	var recvPrecision, sendPrecision int16

	err := row.Scan(
		&o.Ref,
		&o.Owner,
		&o.ReceivingContract,
		&o.ReceivingAsset.Amount,
		&o.ReceivingAsset.Symbol.Code,
		&recvPrecision,
		&o.SendingContract,
		&o.SendingAsset.Amount,
		&o.SendingAsset.Symbol.Code,
		&sendPrecision,
		&memoKey,
		&o.Active,
		&o.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	o.ReceivingAsset.Symbol.Precision = precisionFromDB(recvPrecision)
	o.SendingAsset.Symbol.Precision = precisionFromDB(sendPrecision)
	o.MemoKey = memoKeyFromDB(memoKey)
	return &o, nil
}

// scanOffers scans multiple rows into a slice of SwapOffer.
func scanOffers(rows pgx.Rows) ([]*domain.SwapOffer, error) {
	var offers []*domain.SwapOffer

	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan offer row: %w", err)
		}
		offers = append(offers, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate offer rows: %w", err)
	}

	return offers, nil
}

func precisionFromDB(p int16) uint8 {
	if p < 0 || p > math.MaxUint8 {
		return 0
	}
	return uint8(p)
}
