package clickhouse

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/nice1-blockchain/nice1swapper/internal/domain"
	"github.com/nice1-blockchain/nice1swapper/internal/storage"
)

// JournalStore implements storage.JournalStore using ClickHouse.
type JournalStore struct {
	conn *Conn
}

// NewJournalStore creates a new JournalStore.
func NewJournalStore(conn *Conn) *JournalStore {
	return &JournalStore{conn: conn}
}

// Compile-time interface check.
var _ storage.JournalStore = (*JournalStore)(nil)

// Insert adds a new settlement record.
func (s *JournalStore) Insert(ctx context.Context, r *domain.SettlementRecord) error {
	if r == nil || r.SettlementID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO settlement_journal (
			settlement_id, ref, memo_key, sender, source_contract,
			quantity, memo, outcome, reason, timestamp_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	err := s.conn.Exec(ctx, query,
		r.SettlementID, r.Ref, r.MemoKey, r.Sender, r.SourceContract,
		r.Quantity, r.Memo, r.Outcome, r.Reason, r.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert settlement record: %w", err)
	}
	return nil
}

// GetByRef retrieves all records for an offer ref, ordered by timestamp ASC.
func (s *JournalStore) GetByRef(ctx context.Context, ref string) ([]*domain.SettlementRecord, error) {
	query := `
		SELECT settlement_id, ref, memo_key, sender, source_contract,
		       quantity, memo, outcome, reason, timestamp_ms
		FROM settlement_journal
		WHERE ref = ?
		ORDER BY timestamp_ms ASC, settlement_id ASC
	`

	rows, err := s.conn.Query(ctx, query, ref)
	if err != nil {
		return nil, fmt.Errorf("query journal by ref: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// GetByTimeRange retrieves records within [start, end] (inclusive).
func (s *JournalStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.SettlementRecord, error) {
	query := `
		SELECT settlement_id, ref, memo_key, sender, source_contract,
		       quantity, memo, outcome, reason, timestamp_ms
		FROM settlement_journal
		WHERE timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC, settlement_id ASC
	`

	rows, err := s.conn.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("query journal by time range: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// scanRecords scans rows into a slice of SettlementRecord.
func scanRecords(rows driver.Rows) ([]*domain.SettlementRecord, error) {
	var records []*domain.SettlementRecord

	for rows.Next() {
		var r domain.SettlementRecord
		err := rows.Scan(
			&r.SettlementID, &r.Ref, &r.MemoKey, &r.Sender, &r.SourceContract,
			&r.Quantity, &r.Memo, &r.Outcome, &r.Reason, &r.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("scan journal row: %w", err)
		}
		records = append(records, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal rows: %w", err)
	}

	return records, nil
}
