package rpc

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/phonghmnguyen/atm/ledger"
)

const bufSize = 1 << 20

func setup(t *testing.T, options ...ledger.Option) *grpc.ClientConn {
	t.Helper()

	options = append([]ledger.Option{ledger.WithSeed(map[string]decimal.Decimal{
		"123456789": decimal.RequireFromString("1000.00"),
		"555555555": decimal.RequireFromString("500.00"),
	})}, options...)

	lis := bufconn.Listen(bufSize)
	srv := NewServer(ledger.New(options...), grpc.NewServer(grpc.UnaryInterceptor(UnaryTelemetryInterceptor)))
	go func() {
		if err := srv.Serve(lis); err != nil {
			t.Logf("server exited: %v", err)
		}
	}()

	conn, err := grpc.DialContext(context.Background(), "bufnet",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) {
			return lis.Dial()
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("failed to dial bufnet: %v", err)
	}

	t.Cleanup(func() {
		conn.Close()
		srv.GracefulStop()
	})

	return conn
}

func TestClientRoundTrip(t *testing.T) {
	ctx := context.Background()
	client := NewClient(setup(t))

	acct, err := client.Balance(ctx, "123456789")
	if err != nil {
		t.Fatalf("Balance: unexpected error %v", err)
	}
	if !acct.Balance.Equal(decimal.RequireFromString("1000")) || acct.ID != "123456789" {
		t.Errorf("Balance: unexpected account %+v", acct)
	}

	dep, err := client.Deposit(ctx, "A1", "50")
	if err != nil {
		t.Fatalf("Deposit: unexpected error %v", err)
	}
	if !dep.Created || dep.NewBalance.String() != "50" || dep.AccountID != "A1" {
		t.Errorf("Deposit: unexpected result %+v", dep)
	}

	dep, err = client.Deposit(ctx, "A1", "0.25")
	if err != nil {
		t.Fatalf("Deposit: unexpected error %v", err)
	}
	if dep.Created || ledger.FormatAmount(dep.NewBalance) != "50.25" {
		t.Errorf("Deposit: unexpected result %+v", dep)
	}

	wd, err := client.Withdraw(ctx, "555555555", "120.50")
	if err != nil {
		t.Fatalf("Withdraw: unexpected error %v", err)
	}
	if ledger.FormatAmount(wd.NewBalance) != "379.50" || ledger.FormatAmount(wd.Withdrawn) != "120.50" {
		t.Errorf("Withdraw: unexpected result %+v", wd)
	}

	accounts, err := client.Accounts(ctx)
	if err != nil {
		t.Fatalf("Accounts: unexpected error %v", err)
	}

	expected := []string{"123456789", "555555555", "A1"}
	if len(accounts) != len(expected) {
		t.Fatalf("Accounts: expected %d accounts, got %d", len(expected), len(accounts))
	}
	for i, id := range expected {
		if accounts[i].ID != id {
			t.Errorf("Accounts: expected %s at %d, got %s", id, i, accounts[i].ID)
		}
	}
}

func TestServerStatusCodes(t *testing.T) {
	testCases := []struct {
		desc          string
		call          func(ctx context.Context, c LedgerClient, opts ...grpc.CallOption) error
		expectedCode  codes.Code
		expectedKind  ledger.ErrorKind
		expectedError error
	}{
		{
			desc: "Balance of unknown account",
			call: func(ctx context.Context, c LedgerClient, opts ...grpc.CallOption) error {
				_, err := c.Balance(ctx, &BalanceRequest{AccountNumber: "000"}, opts...)
				return err
			},
			expectedCode:  codes.NotFound,
			expectedKind:  ledger.KindNotFound,
			expectedError: ledger.ErrNotFound,
		},
		{
			desc: "Balance of blank account",
			call: func(ctx context.Context, c LedgerClient, opts ...grpc.CallOption) error {
				_, err := c.Balance(ctx, &BalanceRequest{AccountNumber: "   "}, opts...)
				return err
			},
			expectedCode:  codes.InvalidArgument,
			expectedKind:  ledger.KindInvalidAccount,
			expectedError: ledger.ErrInvalidAccount,
		},
		{
			desc: "Deposit non numeric amount",
			call: func(ctx context.Context, c LedgerClient, opts ...grpc.CallOption) error {
				_, err := c.Deposit(ctx, &AmountRequest{AccountNumber: "123456789", Amount: "abc"}, opts...)
				return err
			},
			expectedCode:  codes.InvalidArgument,
			expectedKind:  ledger.KindInvalidAmount,
			expectedError: ledger.ErrInvalidAmount,
		},
		{
			desc: "Withdraw negative amount",
			call: func(ctx context.Context, c LedgerClient, opts ...grpc.CallOption) error {
				_, err := c.Withdraw(ctx, &AmountRequest{AccountNumber: "123456789", Amount: "-5"}, opts...)
				return err
			},
			expectedCode:  codes.InvalidArgument,
			expectedKind:  ledger.KindInvalidAmount,
			expectedError: ledger.ErrInvalidAmount,
		},
		{
			desc: "Withdraw more than the balance",
			call: func(ctx context.Context, c LedgerClient, opts ...grpc.CallOption) error {
				_, err := c.Withdraw(ctx, &AmountRequest{AccountNumber: "555555555", Amount: "500.01"}, opts...)
				return err
			},
			expectedCode:  codes.FailedPrecondition,
			expectedKind:  ledger.KindInsufficientFunds,
			expectedError: ledger.ErrInsufficientFunds,
		},
	}

	conn := setup(t)
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			var trailer metadata.MD
			err := tc.call(context.Background(), NewLedgerClient(conn), grpc.Trailer(&trailer))
			if status.Code(err) != tc.expectedCode {
				t.Fatalf("Expected code %s, got %s (%v)", tc.expectedCode, status.Code(err), err)
			}

			if got := trailer.Get(kindTrailerKey); len(got) != 1 || got[0] != string(tc.expectedKind) {
				t.Errorf("Expected kind trailer %s, got %v", tc.expectedKind, got)
			}

			mapped := fromStatus(err, trailer)
			if !errors.Is(mapped, tc.expectedError) {
				t.Errorf("Expected %v to unwrap to %v", mapped, tc.expectedError)
			}

			if ledger.KindOf(mapped) != tc.expectedKind {
				t.Errorf("Expected kind %s, got %s", tc.expectedKind, ledger.KindOf(mapped))
			}
		})
	}
}

func TestClientBusy(t *testing.T) {
	client := NewClient(setup(t,
		ledger.WithLockTimeout(20*time.Millisecond),
		ledger.WithProcessingDelay(400*time.Millisecond)))

	ctx := context.Background()
	done := make(chan error, 1)
	go func() {
		_, err := client.Deposit(ctx, "123456789", "1")
		done <- err
	}()

	// let the deposit take the lock and sit in its processing delay
	time.Sleep(100 * time.Millisecond)

	_, err := client.Balance(ctx, "123456789")
	if !errors.Is(err, ledger.ErrBusy) {
		t.Fatalf("Expected ErrBusy, got %v", err)
	}

	var remote *RemoteError
	if !errors.As(err, &remote) || remote.Code != codes.Unavailable {
		t.Errorf("Expected a remote Unavailable error, got %#v", err)
	}

	if err := <-done; err != nil {
		t.Fatalf("Deposit holding the lock failed: %v", err)
	}

	acct, err := client.Balance(ctx, "123456789")
	if err != nil {
		t.Fatalf("Balance after release: unexpected error %v", err)
	}
	if ledger.FormatAmount(acct.Balance) != "1001.00" {
		t.Errorf("Expected balance 1001.00, got %s", ledger.FormatAmount(acct.Balance))
	}
}

func TestClientConcurrentWithdrawals(t *testing.T) {
	ctx := context.Background()
	client := NewClient(setup(t))

	if _, err := client.Deposit(ctx, "A1", "100"); err != nil {
		t.Fatalf("Deposit: unexpected error %v", err)
	}

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
		rejected  atomic.Int32
	)
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.Withdraw(ctx, "A1", "10")
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, ledger.ErrInsufficientFunds):
				rejected.Add(1)
			default:
				t.Errorf("Withdraw: unexpected error %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded.Load() != 10 || rejected.Load() != 20 {
		t.Errorf("Expected 10 successes and 20 rejections, got %d and %d", succeeded.Load(), rejected.Load())
	}

	acct, err := client.Balance(ctx, "A1")
	if err != nil {
		t.Fatalf("Balance: unexpected error %v", err)
	}
	if !acct.Balance.IsZero() {
		t.Errorf("Expected empty account, got %s", acct.Balance)
	}
}

func TestFromStatusLeavesTransportErrorsAlone(t *testing.T) {
	testCases := []struct {
		desc string
		err  error
	}{
		{desc: "Unavailable without kind", err: status.Error(codes.Unavailable, "connection refused")},
		{desc: "Internal without kind", err: status.Error(codes.Internal, "stream terminated")},
		{desc: "Not a status", err: errors.New("boom")},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			mapped := fromStatus(tc.err, nil)
			if mapped != tc.err {
				t.Errorf("Expected error to pass through, got %v", mapped)
			}

			if errors.Is(mapped, ledger.ErrBusy) {
				t.Errorf("Transport error must not read as busy")
			}
		})
	}
}

func TestFromStatusIgnoresMismatchedTrailer(t *testing.T) {
	err := status.Error(codes.NotFound, "account not found")
	mapped := fromStatus(err, metadata.Pairs(kindTrailerKey, string(ledger.KindBusy)))
	if !errors.Is(mapped, ledger.ErrNotFound) {
		t.Errorf("Expected status code to win over a mismatched trailer, got %v", mapped)
	}
}
