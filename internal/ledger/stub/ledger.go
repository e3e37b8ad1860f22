// Package stub provides in-memory ledger implementations for tests,
// examples and --use-memory runs.
package stub

import (
	"context"
	"fmt"
	"sync"

	"github.com/nice1-blockchain/nice1swapper/internal/domain"
	"github.com/nice1-blockchain/nice1swapper/internal/ledger"
)

// balanceKey identifies a balance row: one amount per account, contract
// and symbol.
type balanceKey struct {
	account  string
	contract string
	symbol   domain.Symbol
}

// Ledger is a recording in-memory implementation of ledger.Ledger. It
// keeps per-account balances and every transfer command it executed, in
// order.
type Ledger struct {
	mu       sync.Mutex
	balances map[balanceKey]int64
	commands []domain.TransferCommand
}

// NewLedger creates an empty stub ledger.
func NewLedger() *Ledger {
	return &Ledger{balances: make(map[balanceKey]int64)}
}

// Credit adds funds to an account balance. Test setup helper.
func (l *Ledger) Credit(account, contract string, asset domain.Asset) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[balanceKey{account, contract, asset.Symbol}] += asset.Amount
}

// Balance returns the balance of an account for a contract and symbol.
func (l *Ledger) Balance(account, contract string, symbol domain.Symbol) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[balanceKey{account, contract, symbol}]
}

// Transfer debits the paying account and credits the receiver. Returns
// ErrInsufficientBalance when the payer balance does not cover the
// quantity; no state changes in that case.
func (l *Ledger) Transfer(_ context.Context, cmd domain.TransferCommand) error {
	if err := cmd.Quantity.Validate(); err != nil {
		return fmt.Errorf("transfer quantity: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	fromKey := balanceKey{cmd.From, cmd.Contract, cmd.Quantity.Symbol}
	if l.balances[fromKey] < cmd.Quantity.Amount {
		return fmt.Errorf("%w: %s holds %d of %s", ledger.ErrInsufficientBalance,
			cmd.From, l.balances[fromKey], cmd.Quantity.Symbol.Code)
	}

	l.balances[fromKey] -= cmd.Quantity.Amount
	l.balances[balanceKey{cmd.To, cmd.Contract, cmd.Quantity.Symbol}] += cmd.Quantity.Amount
	l.commands = append(l.commands, cmd)
	return nil
}

// Commands returns a copy of all executed transfer commands, in order.
func (l *Ledger) Commands() []domain.TransferCommand {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.TransferCommand, len(l.commands))
	copy(out, l.commands)
	return out
}

var _ ledger.Ledger = (*Ledger)(nil)
