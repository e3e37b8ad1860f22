// Package ledger defines the boundary to the host ledger runtime. The
// runtime executes transfers, verifies signatures and authorizes callers;
// this module only issues commands against it and reacts to the
// notifications it delivers.
package ledger

import (
	"context"
	"errors"

	"github.com/nice1-blockchain/nice1swapper/internal/domain"
)

// Ledger errors surfaced by implementations.
var (
	// ErrInsufficientBalance is returned when the paying account does not
	// hold enough of the transferred asset.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrUnauthorized is returned when the caller is not authorized to act
	// as the named account.
	ErrUnauthorized = errors.New("unauthorized")
)

// Ledger executes outbound transfer effects. The host guarantees a
// transfer either executes before the triggering operation commits or the
// whole operation rolls back; implementations must not defer execution.
type Ledger interface {
	Transfer(ctx context.Context, cmd domain.TransferCommand) error
}

// Authorizer verifies that the caller of a lifecycle operation is
// authorized to act as an account. Signature verification itself belongs
// to the host runtime.
type Authorizer interface {
	// RequireAuth returns ErrUnauthorized if the caller may not act as account.
	RequireAuth(ctx context.Context, account string) error
}
