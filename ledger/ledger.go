package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/phonghmnguyen/atm/telemetry"
)

type DepositResult struct {
	AccountID  string
	Deposited  decimal.Decimal
	NewBalance decimal.Decimal

	// Created is true only for the deposit whose critical section inserted the account
	Created bool
}

type WithdrawResult struct {
	AccountID  string
	Withdrawn  decimal.Decimal
	NewBalance decimal.Decimal
}

// Ledger executes balance reads, deposits and withdrawals against an in-memory Store.
// Operations on the same account are serialized by that account's lock, operations on
// different accounts run concurrently.
type Ledger struct {
	store *Store

	locks *LockManager

	// Maximum time an operation waits for its account lock
	lockTimeout time.Duration

	// Optional: time each mutation spends inside its critical section before applying
	processingDelay time.Duration

	// Optional: accounts created at construction
	seed map[string]decimal.Decimal

	metrics *metrics

	now func() time.Time

	// called under the account lock right before a mutation is applied
	beforeApply func(op Operation, id string)
}

func New(options ...Option) *Ledger {
	l := &Ledger{
		store:       NewStore(),
		locks:       NewLockManager(),
		lockTimeout: DefaultLockTimeout,
		seed:        make(map[string]decimal.Decimal),
		now:         time.Now,
	}

	for _, opt := range options {
		opt(l)
	}

	l.metrics = newMetrics(telemetry.GetMeter())
	l.applySeed()
	return l
}

func (l *Ledger) LockTimeout() time.Duration {
	return l.lockTimeout
}

// Balance returns the account snapshot for id, read under the account lock.
func (l *Ledger) Balance(ctx context.Context, rawID string) (acct Account, err error) {
	ctx, span := l.startSpan(ctx, OpBalance, rawID)
	defer func() { l.finish(ctx, span, OpBalance, err) }()

	id, err := NormalizeAccountID(rawID)
	if err != nil {
		return Account{}, newOperationError(OpBalance, rawID, err)
	}

	// ids that were never referenced have no lock and no record
	lock, ok := l.locks.Lookup(id)
	if !ok {
		return Account{}, newOperationError(OpBalance, id, ErrNotFound)
	}

	err = l.withLock(ctx, OpBalance, lock, func() error {
		current, ok := l.store.Get(id)
		if !ok {
			return ErrNotFound
		}

		acct = current
		return nil
	})
	if err != nil {
		return Account{}, newOperationError(OpBalance, id, err)
	}

	telemetry.Log().Debugf("[BALANCE] account: %s, balance: %s", id, FormatAmount(acct.Balance))
	return acct, nil
}

// Deposit adds rawAmount to the account, creating the account with a zero balance first
// if it does not exist. Creation and the first deposit happen in the same critical section.
func (l *Ledger) Deposit(ctx context.Context, rawID, rawAmount string) (res DepositResult, err error) {
	ctx, span := l.startSpan(ctx, OpDeposit, rawID)
	defer func() { l.finish(ctx, span, OpDeposit, err) }()

	id, err := NormalizeAccountID(rawID)
	if err != nil {
		return DepositResult{}, newOperationError(OpDeposit, rawID, err)
	}

	amount, err := ParsePositiveAmount(rawAmount)
	if err != nil {
		return DepositResult{}, newOperationError(OpDeposit, id, err)
	}

	lock, err := l.locks.Resolve(id)
	if err != nil {
		telemetry.Log().Errorf("[DEPOSIT] account: %s, %v", id, err)
		return DepositResult{}, newOperationError(OpDeposit, id, err)
	}

	err = l.withLock(ctx, OpDeposit, lock, func() error {
		now := l.now()
		acct, ok := l.store.Get(id)
		if !ok {
			acct = Account{
				ID:           id,
				Balance:      decimal.Zero,
				CreationTime: now,
			}
		}

		l.hold(OpDeposit, id)

		acct.Balance = acct.Balance.Add(amount)
		acct.LastUpdated = now
		created := l.store.Put(acct)
		res = DepositResult{
			AccountID:  id,
			Deposited:  amount,
			NewBalance: acct.Balance,
			Created:    created,
		}

		return nil
	})
	if err != nil {
		return DepositResult{}, newOperationError(OpDeposit, id, err)
	}

	telemetry.Log().Infof("[DEPOSIT] account: %s, amount: %s, balance: %s, created: %t",
		id, FormatAmount(amount), FormatAmount(res.NewBalance), res.Created)
	return res, nil
}

// Withdraw subtracts rawAmount from an existing account. The sufficiency check and the
// subtraction happen under the same lock hold.
func (l *Ledger) Withdraw(ctx context.Context, rawID, rawAmount string) (res WithdrawResult, err error) {
	ctx, span := l.startSpan(ctx, OpWithdraw, rawID)
	defer func() { l.finish(ctx, span, OpWithdraw, err) }()

	id, err := NormalizeAccountID(rawID)
	if err != nil {
		return WithdrawResult{}, newOperationError(OpWithdraw, rawID, err)
	}

	amount, err := ParsePositiveAmount(rawAmount)
	if err != nil {
		return WithdrawResult{}, newOperationError(OpWithdraw, id, err)
	}

	lock, ok := l.locks.Lookup(id)
	if !ok {
		return WithdrawResult{}, newOperationError(OpWithdraw, id, ErrNotFound)
	}

	err = l.withLock(ctx, OpWithdraw, lock, func() error {
		acct, ok := l.store.Get(id)
		if !ok {
			return ErrNotFound
		}

		if acct.Balance.LessThan(amount) {
			return fmt.Errorf("%w: balance %s, requested %s", ErrInsufficientFunds,
				FormatAmount(acct.Balance), FormatAmount(amount))
		}

		l.hold(OpWithdraw, id)

		acct.Balance = acct.Balance.Sub(amount)
		acct.LastUpdated = l.now()
		l.store.Put(acct)
		res = WithdrawResult{
			AccountID:  id,
			Withdrawn:  amount,
			NewBalance: acct.Balance,
		}

		return nil
	})
	if err != nil {
		return WithdrawResult{}, newOperationError(OpWithdraw, id, err)
	}

	telemetry.Log().Infof("[WITHDRAW] account: %s, amount: %s, balance: %s",
		id, FormatAmount(amount), FormatAmount(res.NewBalance))
	return res, nil
}

// Accounts returns a point-in-time listing of every account sorted by id. It takes no
// account lock, so it is not linearizable with respect to in-flight mutations.
func (l *Ledger) Accounts(ctx context.Context) []Account {
	ctx, span := l.startSpan(ctx, OpList, "")
	defer l.finish(ctx, span, OpList, nil)

	entries := l.store.Entries()
	span.SetAttributes(attribute.Int("ledger.accounts", len(entries)))
	return entries
}

// withLock runs apply while holding lock. The lock is released on every path out of
// the critical section and a panic inside apply is reported as ErrInternal.
func (l *Ledger) withLock(ctx context.Context, op Operation, lock *AccountLock, apply func() error) (err error) {
	start := time.Now()
	if err := lock.Acquire(ctx, l.lockTimeout); err != nil {
		l.metrics.recordLockWait(ctx, op, time.Since(start), false)
		telemetry.Log().Warnf("[%s] account: %s, lock not acquired within %v: %v",
			strings.ToUpper(op.String()), lock.AccountID(), l.lockTimeout, err)
		return err
	}

	l.metrics.recordLockWait(ctx, op, time.Since(start), true)
	defer lock.Release()

	defer func() {
		if r := recover(); r != nil {
			telemetry.Log().Errorf("[%s] account: %s, recovered from fault while applying: %v",
				strings.ToUpper(op.String()), lock.AccountID(), r)
			err = fmt.Errorf("%w: %v", ErrInternal, r)
		}
	}()

	return apply()
}

func (l *Ledger) hold(op Operation, id string) {
	if l.processingDelay > 0 {
		time.Sleep(l.processingDelay)
	}

	if l.beforeApply != nil {
		l.beforeApply(op, id)
	}
}

func (l *Ledger) applySeed() {
	now := l.now()
	for rawID, balance := range l.seed {
		id, err := NormalizeAccountID(rawID)
		if err != nil || balance.IsNegative() {
			telemetry.Log().Warnf("Skipping seed account %q with balance %s", rawID, balance.String())
			continue
		}

		if _, err := l.locks.Resolve(id); err != nil {
			telemetry.Log().Errorf("Failed to register lock for seed account %s: %v", id, err)
			continue
		}

		l.store.Put(Account{
			ID:           id,
			Balance:      balance,
			CreationTime: now,
			LastUpdated:  now,
		})
	}

	l.seed = nil
}

func (l *Ledger) startSpan(ctx context.Context, op Operation, rawID string) (context.Context, trace.Span) {
	return telemetry.GetTracer().Start(ctx, "ledger."+op.String(), trace.WithAttributes(
		attribute.String("ledger.op", op.String()),
		attribute.String("ledger.account", rawID),
	))
}

func (l *Ledger) finish(ctx context.Context, span trace.Span, op Operation, err error) {
	defer span.End()

	l.metrics.recordOperation(ctx, op, err)
	if err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}

	kind := KindOf(err)
	span.SetAttributes(attribute.String("ledger.error", string(kind)))
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	switch kind {
	case KindInternal, KindLockRegistryFault:
		telemetry.Log().Errorf("[%s] %v", strings.ToUpper(op.String()), err)

	case KindBusy:
		// already logged when the lock wait expired

	default:
		telemetry.Log().Debugf("[%s] %v", strings.ToUpper(op.String()), err)
	}
}
