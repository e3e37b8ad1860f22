package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/nice1-blockchain/nice1swapper/internal/domain"
	"github.com/nice1-blockchain/nice1swapper/internal/storage"
)

// OfferStore is an in-memory implementation of storage.OfferStore.
type OfferStore struct {
	mu     sync.RWMutex
	byRef  map[string]*domain.SwapOffer
	byMemo map[uint64]string // memo key -> ref, unique secondary index
}

// NewOfferStore creates a new in-memory offer store.
func NewOfferStore() *OfferStore {
	return &OfferStore{
		byRef:  make(map[string]*domain.SwapOffer),
		byMemo: make(map[uint64]string),
	}
}

// Insert adds a new offer. Returns ErrDuplicateRef if the ref exists,
// ErrDuplicateMemoKey if the memo key is in use elsewhere.
func (s *OfferStore) Insert(_ context.Context, o *domain.SwapOffer) error {
	if o == nil || o.Ref == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byRef[o.Ref]; exists {
		return storage.ErrDuplicateRef
	}
	if _, exists := s.byMemo[o.MemoKey]; exists {
		return storage.ErrDuplicateMemoKey
	}

	// Store a copy to prevent external mutation
	offerCopy := *o
	s.byRef[o.Ref] = &offerCopy
	s.byMemo[o.MemoKey] = o.Ref
	return nil
}

// GetByRef retrieves an offer by its ref. Returns ErrNotFound if not exists.
func (s *OfferStore) GetByRef(_ context.Context, ref string) (*domain.SwapOffer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, exists := s.byRef[ref]
	if !exists {
		return nil, storage.ErrNotFound
	}

	offerCopy := *o
	return &offerCopy, nil
}

// GetByMemoKey retrieves the offer registered under a memo key.
func (s *OfferStore) GetByMemoKey(_ context.Context, key uint64) (*domain.SwapOffer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ref, exists := s.byMemo[key]
	if !exists {
		return nil, storage.ErrNotFound
	}

	offerCopy := *s.byRef[ref]
	return &offerCopy, nil
}

// GetByOwner retrieves all offers created by an owner, ordered by ref ASC.
func (s *OfferStore) GetByOwner(_ context.Context, owner string) ([]*domain.SwapOffer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SwapOffer
	for _, o := range s.byRef {
		if o.Owner == owner {
			offerCopy := *o
			result = append(result, &offerCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Ref < result[j].Ref
	})

	return result, nil
}

// GetAll retrieves every offer, ordered by ref ASC.
func (s *OfferStore) GetAll(_ context.Context) ([]*domain.SwapOffer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.SwapOffer, 0, len(s.byRef))
	for _, o := range s.byRef {
		offerCopy := *o
		result = append(result, &offerCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Ref < result[j].Ref
	})

	return result, nil
}

// Delete removes an offer by ref. Returns ErrNotFound if absent.
func (s *OfferStore) Delete(_ context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, exists := s.byRef[ref]
	if !exists {
		return storage.ErrNotFound
	}

	delete(s.byMemo, o.MemoKey)
	delete(s.byRef, ref)
	return nil
}

// SetActive updates the active flag of an offer. Returns ErrNotFound if absent.
func (s *OfferStore) SetActive(_ context.Context, ref string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, exists := s.byRef[ref]
	if !exists {
		return storage.ErrNotFound
	}

	o.Active = active
	return nil
}

// Verify interface compliance at compile time.
var _ storage.OfferStore = (*OfferStore)(nil)
