package apiserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/phonghmnguyen/atm/ledger"
)

// Ledger is the set of operations the HTTP layer needs. It is served either by an
// in-process *ledger.Ledger (see Local) or by a gRPC client.
type Ledger interface {
	Balance(ctx context.Context, id string) (ledger.Account, error)
	Deposit(ctx context.Context, id, amount string) (ledger.DepositResult, error)
	Withdraw(ctx context.Context, id, amount string) (ledger.WithdrawResult, error)
	Accounts(ctx context.Context) ([]ledger.Account, error)
}

type localLedger struct {
	*ledger.Ledger
}

func (l localLedger) Accounts(ctx context.Context) ([]ledger.Account, error) {
	return l.Ledger.Accounts(ctx), nil
}

// Local adapts an in-process ledger to the Ledger interface
func Local(l *ledger.Ledger) Ledger {
	return localLedger{Ledger: l}
}

// an amount request is a single short field
const maxRequestBodyBytes = 4 << 10

type AccountController struct {
	ledger Ledger
}

func NewAccountController(l Ledger) *AccountController {
	return &AccountController{ledger: l}
}

type AccountView struct {
	AccountNumber string      `json:"account_number"`
	Balance       json.Number `json:"balance"`
}

type ListAccountsResponse struct {
	Accounts      []AccountView `json:"accounts"`
	TotalAccounts int           `json:"total_accounts"`
}

type BalanceResponse struct {
	AccountNumber string      `json:"account_number"`
	Balance       json.Number `json:"balance"`
	Message       string      `json:"message"`
}

type WithdrawResponse struct {
	AccountNumber   string      `json:"account_number"`
	WithdrawnAmount json.Number `json:"withdrawn_amount"`
	NewBalance      json.Number `json:"new_balance"`
	Message         string      `json:"message"`
}

type DepositResponse struct {
	AccountNumber   string      `json:"account_number"`
	DepositedAmount json.Number `json:"deposited_amount"`
	NewBalance      json.Number `json:"new_balance"`
	Message         string      `json:"message"`
	AccountCreated  bool        `json:"account_created"`
}

func (c *AccountController) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := c.ledger.Accounts(r.Context())
	if err != nil {
		WriteJSONErrorResponse(w, r, NewLedgerError(err))
		return
	}

	views := make([]AccountView, 0, len(accounts))
	for _, acct := range accounts {
		views = append(views, AccountView{
			AccountNumber: acct.ID,
			Balance:       money(acct.Balance),
		})
	}

	WriteJSONResponse(w, r, http.StatusOK, ListAccountsResponse{
		Accounts:      views,
		TotalAccounts: len(views),
	})
}

func (c *AccountController) Balance(w http.ResponseWriter, r *http.Request) {
	acct, err := c.ledger.Balance(r.Context(), accountFromRequest(r))
	if err != nil {
		WriteJSONErrorResponse(w, r, NewLedgerError(err))
		return
	}

	WriteJSONResponse(w, r, http.StatusOK, BalanceResponse{
		AccountNumber: acct.ID,
		Balance:       money(acct.Balance),
		Message:       "Balance retrieved successfully",
	})
}

func (c *AccountController) Withdraw(w http.ResponseWriter, r *http.Request) {
	request, httpErr := decodeAmountRequest(w, r)
	if httpErr != nil {
		WriteJSONErrorResponse(w, r, httpErr)
		return
	}

	res, err := c.ledger.Withdraw(r.Context(), accountFromRequest(r), string(request.Amount))
	if err != nil {
		WriteJSONErrorResponse(w, r, NewLedgerError(err))
		return
	}

	WriteJSONResponse(w, r, http.StatusOK, WithdrawResponse{
		AccountNumber:   res.AccountID,
		WithdrawnAmount: money(res.Withdrawn),
		NewBalance:      money(res.NewBalance),
		Message:         "Withdrawal successful",
	})
}

func (c *AccountController) Deposit(w http.ResponseWriter, r *http.Request) {
	request, httpErr := decodeAmountRequest(w, r)
	if httpErr != nil {
		WriteJSONErrorResponse(w, r, httpErr)
		return
	}

	res, err := c.ledger.Deposit(r.Context(), accountFromRequest(r), string(request.Amount))
	if err != nil {
		WriteJSONErrorResponse(w, r, NewLedgerError(err))
		return
	}

	message := "Deposit successful"
	if res.Created {
		message = "Account created and deposit successful"
	}

	WriteJSONResponse(w, r, http.StatusOK, DepositResponse{
		AccountNumber:   res.AccountID,
		DepositedAmount: money(res.Deposited),
		NewBalance:      money(res.NewBalance),
		Message:         message,
		AccountCreated:  res.Created,
	})
}

func decodeAmountRequest(w http.ResponseWriter, r *http.Request) (AmountRequest, *HTTPError) {
	var request AmountRequest
	if r.Body == nil {
		return request, NewInvalidAmountError(errors.New("amount is required"), nil)
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		var (
			tooLarge  *http.MaxBytesError
			malformed *json.SyntaxError
		)
		switch {
		case errors.As(err, &tooLarge):
			return request, NewRequestTooLargeError(err)

		case errors.As(err, &malformed), errors.Is(err, io.ErrUnexpectedEOF):
			return request, NewBadRequestError(errors.Join(errors.New("malformed request body"), err))

		default:
			return request, NewInvalidAmountError(errors.Join(errors.New("invalid request body"), err), nil)
		}
	}

	if details := ValidateRequest(request); details != nil {
		return request, NewInvalidAmountError(errors.New("amount is required"), details)
	}

	return request, nil
}

func money(d decimal.Decimal) json.Number {
	return json.Number(ledger.FormatAmount(d))
}
