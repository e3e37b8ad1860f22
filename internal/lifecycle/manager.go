// Package lifecycle creates, deletes and toggles swap offers, enforcing
// the registry's uniqueness invariants through the offer store.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/nice1-blockchain/nice1swapper/internal/domain"
	"github.com/nice1-blockchain/nice1swapper/internal/ledger"
	"github.com/nice1-blockchain/nice1swapper/internal/observability"
	"github.com/nice1-blockchain/nice1swapper/internal/storage"
)

// ErrNoChange is returned by SetActive when the requested state equals the
// current state.
var ErrNoChange = errors.New("selected state is already set")

// Manager mutates the offer registry on owner-initiated commands.
type Manager struct {
	offers  storage.OfferStore
	auth    ledger.Authorizer
	metrics *observability.Metrics
	logger  *log.Logger
	now     func() int64
}

// ManagerOptions contains configuration for creating a Manager.
type ManagerOptions struct {
	Offers  storage.OfferStore
	Auth    ledger.Authorizer
	Metrics *observability.Metrics // optional
	Logger  *log.Logger            // optional
	Now     func() int64           // optional, unix ms clock for CreatedAt
}

// NewManager creates a new lifecycle manager.
func NewManager(opts ManagerOptions) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	now := opts.Now
	if now == nil {
		now = func() int64 { return time.Now().UnixMilli() }
	}
	return &Manager{
		offers:  opts.Offers,
		auth:    opts.Auth,
		metrics: opts.Metrics,
		logger:  logger,
		now:     now,
	}
}

// CreateOfferParams are the inputs to CreateOffer. Active defaults false.
type CreateOfferParams struct {
	Owner             string
	Ref               string
	ReceivingContract string
	ReceivingAsset    domain.Asset
	SendingContract   string
	SendingAsset      domain.Asset
	MemoKey           uint64
	Active            bool
}

// CreateOffer inserts a new offer billed to the owner. The owner must be
// authorized, both assets must be valid quantities, and ref and memo key
// must be unused (ErrDuplicateRef / ErrDuplicateMemoKey surface from the
// store unchanged). Nothing is persisted on failure.
func (m *Manager) CreateOffer(ctx context.Context, p CreateOfferParams) error {
	if err := m.auth.RequireAuth(ctx, p.Owner); err != nil {
		return err
	}
	if p.Ref == "" {
		return fmt.Errorf("%w: empty ref", storage.ErrInvalidInput)
	}
	if err := p.ReceivingAsset.Validate(); err != nil {
		return fmt.Errorf("receiving quantity: %w", err)
	}
	if err := p.SendingAsset.Validate(); err != nil {
		return fmt.Errorf("sending quantity: %w", err)
	}

	offer := &domain.SwapOffer{
		Ref:               p.Ref,
		Owner:             p.Owner,
		ReceivingContract: p.ReceivingContract,
		ReceivingAsset:    p.ReceivingAsset,
		SendingContract:   p.SendingContract,
		SendingAsset:      p.SendingAsset,
		MemoKey:           p.MemoKey,
		Active:            p.Active,
		CreatedAt:         m.now(),
	}
	if err := m.offers.Insert(ctx, offer); err != nil {
		return err
	}

	if m.metrics != nil {
		m.metrics.OffersCreated.Inc()
	}
	m.logger.Printf("Created offer %s: %s from %s for %s from %s, memo key %d",
		p.Ref, p.ReceivingAsset, p.ReceivingContract, p.SendingAsset, p.SendingContract, p.MemoKey)
	return nil
}

// DeleteOffer removes an offer. The owner must be authorized; the row must
// exist. Deletion releases the storage billed to the creator.
func (m *Manager) DeleteOffer(ctx context.Context, owner, ref string) error {
	if err := m.auth.RequireAuth(ctx, owner); err != nil {
		return err
	}
	if err := m.offers.Delete(ctx, ref); err != nil {
		return err
	}

	if m.metrics != nil {
		m.metrics.OffersDeleted.Inc()
	}
	m.logger.Printf("Deleted offer %s", ref)
	return nil
}

// SetActive toggles the active flag. The owner must be authorized, the row
// must exist, and the new state must differ from the current one
// (ErrNoChange otherwise). The owner passed here is whoever authorizes the
// call; it is not required to be the original creator.
func (m *Manager) SetActive(ctx context.Context, owner, ref string, newActive bool) error {
	if err := m.auth.RequireAuth(ctx, owner); err != nil {
		return err
	}

	offer, err := m.offers.GetByRef(ctx, ref)
	if err != nil {
		return err
	}
	if offer.Active == newActive {
		return ErrNoChange
	}
	if err := m.offers.SetActive(ctx, ref, newActive); err != nil {
		return err
	}

	if m.metrics != nil {
		m.metrics.OfferToggles.Inc()
	}
	m.logger.Printf("Offer %s active: %t", ref, newActive)
	return nil
}
