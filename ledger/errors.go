package ledger

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindNotFound          ErrorKind = "NotFound"
	KindInvalidAmount     ErrorKind = "InvalidAmount"
	KindInvalidAccount    ErrorKind = "InvalidAccount"
	KindInsufficientFunds ErrorKind = "InsufficientFunds"
	KindBusy              ErrorKind = "Busy"
	KindLockRegistryFault ErrorKind = "LockRegistryFault"
	KindInternal          ErrorKind = "Internal"
)

var (
	ErrNotFound          = errors.New("account not found")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidAccount    = errors.New("invalid account number")
	ErrInsufficientFunds = errors.New("insufficient balance")
	ErrBusy              = errors.New("account is busy, please try again later")
	ErrLockRegistryFault = errors.New("lock registry failed to produce an account lock")
	ErrInternal          = errors.New("internal error while applying operation")
)

var kinds = map[error]ErrorKind{
	ErrNotFound:          KindNotFound,
	ErrInvalidAmount:     KindInvalidAmount,
	ErrInvalidAccount:    KindInvalidAccount,
	ErrInsufficientFunds: KindInsufficientFunds,
	ErrBusy:              KindBusy,
	ErrLockRegistryFault: KindLockRegistryFault,
	ErrInternal:          KindInternal,
}

// OperationError is returned by every failing Ledger operation. It unwraps to one of the
// sentinel errors above so callers can use errors.Is.
type OperationError struct {
	Op        Operation
	AccountID string

	kind ErrorKind
	err  error
}

func (e *OperationError) Error() string {
	if e.AccountID == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.err)
	}

	return fmt.Sprintf("%s %s: %v", e.Op, e.AccountID, e.err)
}

func (e *OperationError) Unwrap() error {
	return e.err
}

func (e *OperationError) Kind() ErrorKind {
	return e.kind
}

// Retryable reports whether the caller may retry the same request unchanged
func (e *OperationError) Retryable() bool {
	return e.kind == KindBusy
}

func newOperationError(op Operation, accountID string, err error) *OperationError {
	return &OperationError{
		Op:        op,
		AccountID: accountID,
		kind:      kindOf(err),
		err:       err,
	}
}

// KindOf returns the kind of a ledger error, or an empty kind if err is nil or foreign.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}

	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr.Kind()
	}

	return kindOf(err)
}

func kindOf(err error) ErrorKind {
	for sentinel, kind := range kinds {
		if errors.Is(err, sentinel) {
			return kind
		}
	}

	return KindInternal
}
