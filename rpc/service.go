package rpc

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	ServiceName = "atm.Ledger"

	Ledger_Balance_FullMethodName  = "/atm.Ledger/Balance"
	Ledger_Deposit_FullMethodName  = "/atm.Ledger/Deposit"
	Ledger_Withdraw_FullMethodName = "/atm.Ledger/Withdraw"
	Ledger_Accounts_FullMethodName = "/atm.Ledger/Accounts"
)

// Amounts travel as decimal strings so no precision is lost on the wire.

type Account struct {
	AccountNumber string    `json:"account_number"`
	Balance       string    `json:"balance"`
	CreationTime  time.Time `json:"creation_time"`
	LastUpdated   time.Time `json:"last_updated"`
}

type BalanceRequest struct {
	AccountNumber string `json:"account_number"`
}

type BalanceResponse struct {
	Account *Account `json:"account"`
}

type AmountRequest struct {
	AccountNumber string `json:"account_number"`
	Amount        string `json:"amount"`
}

type DepositResponse struct {
	AccountNumber  string `json:"account_number"`
	Deposited      string `json:"deposited"`
	NewBalance     string `json:"new_balance"`
	AccountCreated bool   `json:"account_created"`
}

type WithdrawResponse struct {
	AccountNumber string `json:"account_number"`
	Withdrawn     string `json:"withdrawn"`
	NewBalance    string `json:"new_balance"`
}

type AccountsRequest struct{}

type AccountsResponse struct {
	Accounts []*Account `json:"accounts"`
}

type LedgerClient interface {
	Balance(ctx context.Context, in *BalanceRequest, opts ...grpc.CallOption) (*BalanceResponse, error)
	Deposit(ctx context.Context, in *AmountRequest, opts ...grpc.CallOption) (*DepositResponse, error)
	Withdraw(ctx context.Context, in *AmountRequest, opts ...grpc.CallOption) (*WithdrawResponse, error)
	Accounts(ctx context.Context, in *AccountsRequest, opts ...grpc.CallOption) (*AccountsResponse, error)
}

type ledgerClient struct {
	cc grpc.ClientConnInterface
}

func NewLedgerClient(cc grpc.ClientConnInterface) LedgerClient {
	return &ledgerClient{cc}
}

func (c *ledgerClient) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(codecName)}, opts...)
	return c.cc.Invoke(ctx, method, in, out, opts...)
}

func (c *ledgerClient) Balance(ctx context.Context, in *BalanceRequest, opts ...grpc.CallOption) (*BalanceResponse, error) {
	out := new(BalanceResponse)
	if err := c.invoke(ctx, Ledger_Balance_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ledgerClient) Deposit(ctx context.Context, in *AmountRequest, opts ...grpc.CallOption) (*DepositResponse, error) {
	out := new(DepositResponse)
	if err := c.invoke(ctx, Ledger_Deposit_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ledgerClient) Withdraw(ctx context.Context, in *AmountRequest, opts ...grpc.CallOption) (*WithdrawResponse, error) {
	out := new(WithdrawResponse)
	if err := c.invoke(ctx, Ledger_Withdraw_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ledgerClient) Accounts(ctx context.Context, in *AccountsRequest, opts ...grpc.CallOption) (*AccountsResponse, error) {
	out := new(AccountsResponse)
	if err := c.invoke(ctx, Ledger_Accounts_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

// LedgerServer is the server API for the atm.Ledger service.
// Implementations must embed UnimplementedLedgerServer for forward compatibility.
type LedgerServer interface {
	Balance(context.Context, *BalanceRequest) (*BalanceResponse, error)
	Deposit(context.Context, *AmountRequest) (*DepositResponse, error)
	Withdraw(context.Context, *AmountRequest) (*WithdrawResponse, error)
	Accounts(context.Context, *AccountsRequest) (*AccountsResponse, error)
	mustEmbedUnimplementedLedgerServer()
}

type UnimplementedLedgerServer struct{}

func (UnimplementedLedgerServer) Balance(context.Context, *BalanceRequest) (*BalanceResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Balance not implemented")
}

func (UnimplementedLedgerServer) Deposit(context.Context, *AmountRequest) (*DepositResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Deposit not implemented")
}

func (UnimplementedLedgerServer) Withdraw(context.Context, *AmountRequest) (*WithdrawResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Withdraw not implemented")
}

func (UnimplementedLedgerServer) Accounts(context.Context, *AccountsRequest) (*AccountsResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Accounts not implemented")
}

func (UnimplementedLedgerServer) mustEmbedUnimplementedLedgerServer() {}

func RegisterLedgerServer(s grpc.ServiceRegistrar, srv LedgerServer) {
	s.RegisterService(&Ledger_ServiceDesc, srv)
}

func _Ledger_Balance_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(BalanceRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LedgerServer).Balance(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: Ledger_Balance_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(LedgerServer).Balance(ctx, req.(*BalanceRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Ledger_Deposit_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(AmountRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LedgerServer).Deposit(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: Ledger_Deposit_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(LedgerServer).Deposit(ctx, req.(*AmountRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Ledger_Withdraw_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(AmountRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LedgerServer).Withdraw(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: Ledger_Withdraw_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(LedgerServer).Withdraw(ctx, req.(*AmountRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Ledger_Accounts_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(AccountsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LedgerServer).Accounts(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: Ledger_Accounts_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(LedgerServer).Accounts(ctx, req.(*AccountsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var Ledger_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LedgerServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Balance",
			Handler:    _Ledger_Balance_Handler,
		},
		{
			MethodName: "Deposit",
			Handler:    _Ledger_Deposit_Handler,
		},
		{
			MethodName: "Withdraw",
			Handler:    _Ledger_Withdraw_Handler,
		},
		{
			MethodName: "Accounts",
			Handler:    _Ledger_Accounts_Handler,
		},
	},
	Streams: []grpc.StreamDesc{},
}
