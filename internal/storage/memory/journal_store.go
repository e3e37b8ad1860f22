package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/nice1-blockchain/nice1swapper/internal/domain"
	"github.com/nice1-blockchain/nice1swapper/internal/storage"
)

// JournalStore is an in-memory implementation of storage.JournalStore.
type JournalStore struct {
	mu   sync.RWMutex
	data []*domain.SettlementRecord
}

// NewJournalStore creates a new in-memory journal store.
func NewJournalStore() *JournalStore {
	return &JournalStore{}
}

// Insert adds a new settlement record.
func (s *JournalStore) Insert(_ context.Context, r *domain.SettlementRecord) error {
	if r == nil || r.SettlementID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	recordCopy := *r
	s.data = append(s.data, &recordCopy)
	return nil
}

// GetByRef retrieves all records for an offer ref, ordered by timestamp ASC.
func (s *JournalStore) GetByRef(_ context.Context, ref string) ([]*domain.SettlementRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SettlementRecord
	for _, r := range s.data {
		if r.Ref == ref {
			recordCopy := *r
			result = append(result, &recordCopy)
		}
	}

	sortRecords(result)
	return result, nil
}

// GetByTimeRange retrieves records within [start, end] (inclusive).
func (s *JournalStore) GetByTimeRange(_ context.Context, start, end int64) ([]*domain.SettlementRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SettlementRecord
	for _, r := range s.data {
		if r.Timestamp >= start && r.Timestamp <= end {
			recordCopy := *r
			result = append(result, &recordCopy)
		}
	}

	sortRecords(result)
	return result, nil
}

func sortRecords(records []*domain.SettlementRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].Timestamp != records[j].Timestamp {
			return records[i].Timestamp < records[j].Timestamp
		}
		return records[i].SettlementID < records[j].SettlementID
	})
}

var _ storage.JournalStore = (*JournalStore)(nil)
