package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/keepalive"

	"github.com/phonghmnguyen/atm/apiserver"
	"github.com/phonghmnguyen/atm/ledger"
	"github.com/phonghmnguyen/atm/rpc"
	"github.com/phonghmnguyen/atm/telemetry"
)

// demo accounts the ATM ships with
const defaultSeed = "123456789=1000.00,987654321=2500.00,555555555=500.00"

var (
	grpcAddr, httpAddr, seedList, logFile, logLevel string
	lockTimeout, processingDelay                   time.Duration
)

func init() {
	flag.StringVar(&grpcAddr, "grpc", envOr("GRPC_ADDRESS", "0.0.0.0:8000"), "gRPC address")
	flag.StringVar(&httpAddr, "http", envOr("HTTP_ADDRESS", "0.0.0.0:9000"), "HTTP address, empty disables the HTTP API")
	flag.StringVar(&seedList, "seed", envOr("SEED_ACCOUNTS", defaultSeed), "Comma separated id=amount accounts created at startup")
	flag.StringVar(&logFile, "logfile", envOr("LOG_FILE", telemetry.DefaultLogFileName), "JSON log file, empty logs to stdout only")
	flag.StringVar(&logLevel, "loglevel", envOr("LOG_LEVEL", "info"), "Log level")
	flag.DurationVar(&lockTimeout, "lock-timeout", ledger.DefaultLockTimeout, "Maximum wait for a busy account before failing")
	flag.DurationVar(&processingDelay, "processing-delay", 0, "Time every deposit and withdrawal holds its account lock")
}

func main() {
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName: "service.ledgerd",
		ServiceHost: grpcAddr,
		LogFileName: logFile,
		Level:       logLevel,
	})
	if err != nil {
		panic(err.Error())
	}

	defer func() {
		if err := shutdown(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "telemetry shutdown: %v\n", err)
		}
	}()

	seed, err := parseSeed(seedList)
	if err != nil {
		telemetry.Log().Fatalf("Invalid seed list: %v", err)
	}

	l := ledger.New(
		ledger.WithLockTimeout(lockTimeout),
		ledger.WithProcessingDelay(processingDelay),
		ledger.WithSeed(seed),
	)
	telemetry.Log().Infof("Ledger ready with %d accounts, lock timeout: %v, processing delay: %v",
		len(seed), l.LockTimeout(), processingDelay)

	rpcServer := rpc.NewServer(l, grpc.NewServer(
		grpc.UnaryInterceptor(rpc.UnaryTelemetryInterceptor),
		grpc.KeepaliveParams(keepalive.ServerParameters{
			MaxConnectionAge:      30 * time.Second,
			MaxConnectionAgeGrace: 10 * time.Second,
		}),
	))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return rpcServer.ListenAndServe(grpcAddr)
	})

	var httpServer *apiserver.Server
	if httpAddr != "" {
		httpServer = apiserver.NewServer(apiserver.Local(l))
		g.Go(func() error {
			return httpServer.ListenAndServe(httpAddr)
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		rpcServer.GracefulStop()
		if httpServer != nil {
			return httpServer.GracefulStop(context.Background())
		}

		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		telemetry.Log().Errorf("Ledger server stopped: %v", err)
	}
}

// parseSeed reads "id=amount,id=amount". Later entries for the same id win.
func parseSeed(list string) (map[string]decimal.Decimal, error) {
	seed := make(map[string]decimal.Decimal)
	for _, entry := range strings.Split(list, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		id, raw, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("entry %q: expected id=amount", entry)
		}

		id, err := ledger.NormalizeAccountID(id)
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", entry, err)
		}

		amount, err := ledger.ParseAmount(raw)
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", entry, err)
		}

		if amount.IsNegative() {
			return nil, fmt.Errorf("entry %q: %w", entry, ledger.ErrInvalidAmount)
		}

		seed[id] = amount
	}

	return seed, nil
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}

	return fallback
}
