package rpc

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/phonghmnguyen/atm/ledger"
)

var errEmptyResponse = errors.New("empty response from ledger server")

// Client exposes a remote ledger with the same signatures as the in-process one.
// Failures reported by the server unwrap to the ledger sentinel errors.
type Client struct {
	ledger LedgerClient
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{ledger: NewLedgerClient(cc)}
}

func (c *Client) Balance(ctx context.Context, id string) (ledger.Account, error) {
	var trailer metadata.MD
	res, err := c.ledger.Balance(ctx, &BalanceRequest{AccountNumber: id}, grpc.Trailer(&trailer))
	if err != nil {
		return ledger.Account{}, fromStatus(err, trailer)
	}

	if res.Account == nil {
		return ledger.Account{}, errEmptyResponse
	}

	return fromAccount(res.Account)
}

func (c *Client) Deposit(ctx context.Context, id, amount string) (ledger.DepositResult, error) {
	var trailer metadata.MD
	res, err := c.ledger.Deposit(ctx, &AmountRequest{AccountNumber: id, Amount: amount}, grpc.Trailer(&trailer))
	if err != nil {
		return ledger.DepositResult{}, fromStatus(err, trailer)
	}

	deposited, err := parseAmount("deposited", res.Deposited)
	if err != nil {
		return ledger.DepositResult{}, err
	}

	balance, err := parseAmount("new_balance", res.NewBalance)
	if err != nil {
		return ledger.DepositResult{}, err
	}

	return ledger.DepositResult{
		AccountID:  res.AccountNumber,
		Deposited:  deposited,
		NewBalance: balance,
		Created:    res.AccountCreated,
	}, nil
}

func (c *Client) Withdraw(ctx context.Context, id, amount string) (ledger.WithdrawResult, error) {
	var trailer metadata.MD
	res, err := c.ledger.Withdraw(ctx, &AmountRequest{AccountNumber: id, Amount: amount}, grpc.Trailer(&trailer))
	if err != nil {
		return ledger.WithdrawResult{}, fromStatus(err, trailer)
	}

	withdrawn, err := parseAmount("withdrawn", res.Withdrawn)
	if err != nil {
		return ledger.WithdrawResult{}, err
	}

	balance, err := parseAmount("new_balance", res.NewBalance)
	if err != nil {
		return ledger.WithdrawResult{}, err
	}

	return ledger.WithdrawResult{
		AccountID:  res.AccountNumber,
		Withdrawn:  withdrawn,
		NewBalance: balance,
	}, nil
}

func (c *Client) Accounts(ctx context.Context) ([]ledger.Account, error) {
	var trailer metadata.MD
	res, err := c.ledger.Accounts(ctx, &AccountsRequest{}, grpc.Trailer(&trailer))
	if err != nil {
		return nil, fromStatus(err, trailer)
	}

	accounts := make([]ledger.Account, 0, len(res.Accounts))
	for _, a := range res.Accounts {
		if a == nil {
			continue
		}

		acct, err := fromAccount(a)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acct)
	}

	return accounts, nil
}

func fromAccount(a *Account) (ledger.Account, error) {
	balance, err := parseAmount("balance", a.Balance)
	if err != nil {
		return ledger.Account{}, err
	}

	return ledger.Account{
		ID:           a.AccountNumber,
		Balance:      balance,
		CreationTime: a.CreationTime,
		LastUpdated:  a.LastUpdated,
	}, nil
}

func parseAmount(field, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("malformed %s %q in ledger response: %w", field, raw, err)
	}

	return d, nil
}
