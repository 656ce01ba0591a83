package rpc

import (
	"context"
	"net"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/peer"

	"github.com/phonghmnguyen/atm/ledger"
	"github.com/phonghmnguyen/atm/telemetry"
)

var _ LedgerServer = (*Server)(nil)

type Server struct {
	UnimplementedLedgerServer

	ledger *ledger.Ledger

	grpc *grpc.Server
}

// NewServer registers the ledger service on grpc. The caller owns the server options.
func NewServer(l *ledger.Ledger, grpc *grpc.Server) *Server {
	s := &Server{
		ledger: l,
		grpc:   grpc,
	}

	RegisterLedgerServer(grpc, s)
	return s
}

func (s *Server) ListenAndServe(addr string) error {
	telemetry.Log().Infof("Starting Ledger gRPC Server on %s", addr)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	return s.Serve(lis)
}

func (s *Server) Serve(lis net.Listener) error {
	return s.grpc.Serve(lis)
}

func (s *Server) GracefulStop() {
	telemetry.Log().Infof("Shutting down Ledger gRPC Server")
	s.grpc.GracefulStop()
}

func (s *Server) Balance(ctx context.Context, request *BalanceRequest) (*BalanceResponse, error) {
	span := trace.SpanFromContext(ctx)
	from := remoteAddr(ctx)

	telemetry.Log().Infof("[BALANCE] account: %s, from: %s", request.AccountNumber, from)

	acct, err := s.ledger.Balance(ctx, request.AccountNumber)
	span.SetAttributes(
		attribute.String("req.account", request.AccountNumber),
		attribute.String("req.from", from),
		attribute.String("req.err", string(ledger.KindOf(err))),
	)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return &BalanceResponse{Account: toAccount(acct)}, nil
}

func (s *Server) Deposit(ctx context.Context, request *AmountRequest) (*DepositResponse, error) {
	span := trace.SpanFromContext(ctx)
	from := remoteAddr(ctx)

	telemetry.Log().Infof("[DEPOSIT] account: %s, amount: %s, from: %s", request.AccountNumber, request.Amount, from)

	res, err := s.ledger.Deposit(ctx, request.AccountNumber, request.Amount)
	span.SetAttributes(
		attribute.String("req.account", request.AccountNumber),
		attribute.String("req.amount", request.Amount),
		attribute.String("req.from", from),
		attribute.String("req.err", string(ledger.KindOf(err))),
	)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return &DepositResponse{
		AccountNumber:  res.AccountID,
		Deposited:      ledger.FormatAmount(res.Deposited),
		NewBalance:     ledger.FormatAmount(res.NewBalance),
		AccountCreated: res.Created,
	}, nil
}

func (s *Server) Withdraw(ctx context.Context, request *AmountRequest) (*WithdrawResponse, error) {
	span := trace.SpanFromContext(ctx)
	from := remoteAddr(ctx)

	telemetry.Log().Infof("[WITHDRAW] account: %s, amount: %s, from: %s", request.AccountNumber, request.Amount, from)

	res, err := s.ledger.Withdraw(ctx, request.AccountNumber, request.Amount)
	span.SetAttributes(
		attribute.String("req.account", request.AccountNumber),
		attribute.String("req.amount", request.Amount),
		attribute.String("req.from", from),
		attribute.String("req.err", string(ledger.KindOf(err))),
	)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return &WithdrawResponse{
		AccountNumber: res.AccountID,
		Withdrawn:     ledger.FormatAmount(res.Withdrawn),
		NewBalance:    ledger.FormatAmount(res.NewBalance),
	}, nil
}

func (s *Server) Accounts(ctx context.Context, request *AccountsRequest) (*AccountsResponse, error) {
	telemetry.Log().Infof("[ACCOUNTS] from: %s", remoteAddr(ctx))

	entries := s.ledger.Accounts(ctx)
	accounts := make([]*Account, 0, len(entries))
	for _, acct := range entries {
		accounts = append(accounts, toAccount(acct))
	}

	return &AccountsResponse{Accounts: accounts}, nil
}

func toAccount(acct ledger.Account) *Account {
	return &Account{
		AccountNumber: acct.ID,
		Balance:       ledger.FormatAmount(acct.Balance),
		CreationTime:  acct.CreationTime,
		LastUpdated:   acct.LastUpdated,
	}
}

func remoteAddr(ctx context.Context) string {
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return "unknown"
	}

	return p.Addr.String()
}
