package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/phonghmnguyen/atm/ledger"
	"github.com/phonghmnguyen/atm/telemetry"
)

// kindTrailerKey carries the exact ledger error kind next to the status code, since
// several kinds share a code.
const kindTrailerKey = "x-ledger-error-kind"

var sentinels = map[ledger.ErrorKind]error{
	ledger.KindNotFound:          ledger.ErrNotFound,
	ledger.KindInvalidAmount:     ledger.ErrInvalidAmount,
	ledger.KindInvalidAccount:    ledger.ErrInvalidAccount,
	ledger.KindInsufficientFunds: ledger.ErrInsufficientFunds,
	ledger.KindBusy:              ledger.ErrBusy,
	ledger.KindLockRegistryFault: ledger.ErrLockRegistryFault,
	ledger.KindInternal:          ledger.ErrInternal,
}

// RemoteError is a ledger failure reported by a remote server. It prints the server's
// message and unwraps to the matching ledger sentinel.
type RemoteError struct {
	Code    codes.Code
	Message string

	err error
}

func (e *RemoteError) Error() string {
	return e.Message
}

func (e *RemoteError) Unwrap() error {
	return e.err
}

func CodeFor(kind ledger.ErrorKind) codes.Code {
	switch kind {
	case ledger.KindNotFound:
		return codes.NotFound

	case ledger.KindInvalidAmount, ledger.KindInvalidAccount:
		return codes.InvalidArgument

	case ledger.KindInsufficientFunds:
		return codes.FailedPrecondition

	case ledger.KindBusy:
		return codes.Unavailable

	default:
		return codes.Internal
	}
}

func toStatus(ctx context.Context, err error) error {
	kind := ledger.KindOf(err)
	if err := grpc.SetTrailer(ctx, metadata.Pairs(kindTrailerKey, string(kind))); err != nil {
		telemetry.Log().Debugf("Failed to set error kind trailer: %v", err)
	}

	return status.Error(CodeFor(kind), err.Error())
}

// fromStatus turns a status error back into a ledger error. Errors that did not come
// from the ledger, such as an unreachable server, are returned unchanged.
func fromStatus(err error, trailer metadata.MD) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	kind := kindFromStatus(st.Code(), trailer)
	sentinel, ok := sentinels[kind]
	if !ok {
		return err
	}

	return &RemoteError{
		Code:    st.Code(),
		Message: st.Message(),
		err:     sentinel,
	}
}

func kindFromStatus(code codes.Code, trailer metadata.MD) ledger.ErrorKind {
	if values := trailer.Get(kindTrailerKey); len(values) > 0 {
		kind := ledger.ErrorKind(values[0])
		if _, ok := sentinels[kind]; ok && CodeFor(kind) == code {
			return kind
		}
	}

	switch code {
	case codes.NotFound:
		return ledger.KindNotFound

	case codes.InvalidArgument:
		return ledger.KindInvalidAmount

	case codes.FailedPrecondition:
		return ledger.KindInsufficientFunds

	default:
		// Unavailable and Internal are also produced by the transport itself
		return ""
	}
}
