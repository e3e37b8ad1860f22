package feed

import (
	"context"
	"log"

	"github.com/nice1-blockchain/nice1swapper/internal/domain"
	"github.com/nice1-blockchain/nice1swapper/internal/settlement"
)

// Runner drains a notice stream and drives the settlement engine. Aborted
// settlements are expected traffic, not feed failures: they are logged
// and the runner keeps going.
type Runner struct {
	notices <-chan domain.TransferNotice
	engine  *settlement.Engine
	logger  *log.Logger
}

// NewRunner creates a new feed runner.
func NewRunner(notices <-chan domain.TransferNotice, engine *settlement.Engine, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{notices: notices, engine: engine, logger: logger}
}

// Run processes notices until the context is cancelled or the stream
// closes. Notices are handled strictly in arrival order, one at a time.
func (r *Runner) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case notice, ok := <-r.notices:
			if !ok {
				return nil
			}
			if err := r.engine.OnTransfer(ctx, notice); err != nil {
				r.logger.Printf("Settlement aborted for transfer from %s (memo %q): %v",
					notice.From, notice.Memo, err)
			}
		}
	}
}
