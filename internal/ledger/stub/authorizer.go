package stub

import (
	"context"
	"fmt"
	"sync"

	"github.com/nice1-blockchain/nice1swapper/internal/ledger"
)

// Authorizer is a static implementation of ledger.Authorizer backed by an
// allow-set of account names. An empty set allows every account, which is
// the --use-memory development default.
type Authorizer struct {
	mu      sync.RWMutex
	allowed map[string]struct{}
}

// NewAuthorizer creates an authorizer allowing the given accounts. With no
// accounts it allows everything.
func NewAuthorizer(accounts ...string) *Authorizer {
	a := &Authorizer{allowed: make(map[string]struct{}, len(accounts))}
	for _, acct := range accounts {
		a.allowed[acct] = struct{}{}
	}
	return a
}

// RequireAuth returns ErrUnauthorized if the account is outside the allow-set.
func (a *Authorizer) RequireAuth(_ context.Context, account string) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if len(a.allowed) == 0 {
		return nil
	}
	if _, ok := a.allowed[account]; !ok {
		return fmt.Errorf("%w: %s", ledger.ErrUnauthorized, account)
	}
	return nil
}

var _ ledger.Authorizer = (*Authorizer)(nil)
