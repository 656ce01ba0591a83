package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultLockTimeout is how long an operation waits for a contended account before
// giving up with ErrBusy.
const DefaultLockTimeout = 10 * time.Second

// Option is used to apply configurations to the ledger
type Option func(*Ledger)

func WithLockTimeout(timeout time.Duration) Option {
	return func(l *Ledger) {
		if timeout >= 0 {
			l.lockTimeout = timeout
		}
	}
}

// WithProcessingDelay makes every mutation hold its account lock for at least d before
// applying, emulating the work a physical ATM does per transaction.
func WithProcessingDelay(d time.Duration) Option {
	return func(l *Ledger) {
		if d > 0 {
			l.processingDelay = d
		}
	}
}

// WithSeed pre-creates accounts and their locks. Negative balances and malformed ids are skipped.
func WithSeed(balances map[string]decimal.Decimal) Option {
	return func(l *Ledger) {
		for id, balance := range balances {
			l.seed[id] = balance
		}
	}
}
