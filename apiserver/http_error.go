package apiserver

import (
	"net/http"

	"github.com/phonghmnguyen/atm/ledger"
)

type HTTPError struct {
	Error   error
	Status  int
	Message string
	Kind    ledger.ErrorKind
	Details []ValidationError
}

type ErrorResponse struct {
	Title   string            `json:"title"`
	Status  int               `json:"status"`
	Detail  string            `json:"detail"`
	Kind    string            `json:"kind,omitempty"`
	Details []ValidationError `json:"details,omitempty"`
}

func (e *HTTPError) Payload() *ErrorResponse {
	return &ErrorResponse{
		Title:   http.StatusText(e.Status),
		Status:  e.Status,
		Detail:  e.Message,
		Kind:    string(e.Kind),
		Details: e.Details,
	}
}

func NewBadRequestError(err error) *HTTPError {
	return &HTTPError{
		Error:   err,
		Status:  http.StatusBadRequest,
		Message: err.Error(),
	}
}

func NewRequestTooLargeError(err error) *HTTPError {
	return &HTTPError{
		Error:   err,
		Status:  http.StatusRequestEntityTooLarge,
		Message: err.Error(),
	}
}

func NewInvalidAmountError(err error, details []ValidationError) *HTTPError {
	return &HTTPError{
		Error:   err,
		Status:  http.StatusBadRequest,
		Message: err.Error(),
		Kind:    ledger.KindInvalidAmount,
		Details: details,
	}
}

func NewInternalError(err error) *HTTPError {
	return &HTTPError{
		Error:   err,
		Status:  http.StatusInternalServerError,
		Message: "Internal Error 🥲",
		Kind:    ledger.KindInternal,
	}
}

// NewLedgerError maps a ledger failure onto its HTTP status. Busy gets its own status so
// clients can retry it without retrying validation failures.
func NewLedgerError(err error) *HTTPError {
	kind := ledger.KindOf(err)
	status := StatusFor(kind)
	if status == http.StatusInternalServerError {
		e := NewInternalError(err)
		e.Kind = kind
		return e
	}

	return &HTTPError{
		Error:   err,
		Status:  status,
		Message: detailFor(kind, err),
		Kind:    kind,
	}
}

func StatusFor(kind ledger.ErrorKind) int {
	switch kind {
	case ledger.KindNotFound:
		return http.StatusNotFound

	case ledger.KindInvalidAmount, ledger.KindInvalidAccount:
		return http.StatusBadRequest

	case ledger.KindInsufficientFunds:
		return http.StatusConflict

	case ledger.KindBusy:
		return http.StatusLocked

	default:
		return http.StatusInternalServerError
	}
}

func detailFor(kind ledger.ErrorKind, err error) string {
	switch kind {
	case ledger.KindNotFound:
		return ledger.ErrNotFound.Error()

	case ledger.KindBusy:
		return ledger.ErrBusy.Error()

	default:
		return err.Error()
	}
}
