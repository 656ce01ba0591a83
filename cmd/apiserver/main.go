package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/phonghmnguyen/atm/apiserver"
	"github.com/phonghmnguyen/atm/rpc"
	"github.com/phonghmnguyen/atm/telemetry"
)

var ledgerAddr, httpAddr, logFile, logLevel string

func init() {
	flag.StringVar(&ledgerAddr, "ledger", envOr("LEDGER_ADDRESS", "localhost:8000"), "Ledger gRPC address")
	flag.StringVar(&httpAddr, "http", envOr("HTTP_ADDRESS", "0.0.0.0:9000"), "HTTP address")
	flag.StringVar(&logFile, "logfile", os.Getenv("LOG_FILE"), "JSON log file, empty logs to stdout only")
	flag.StringVar(&logLevel, "loglevel", envOr("LOG_LEVEL", "info"), "Log level")
}

func main() {
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName: "service.apiserver",
		ServiceHost: httpAddr,
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

	conn, err := grpc.DialContext(ctx, ledgerAddr,
		grpc.WithDefaultServiceConfig(`{"loadBalancingConfig": [{"round_robin":{}}]}`),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		panic(err.Error())
	}

	defer conn.Close()

	server := apiserver.NewServer(rpc.NewClient(conn))
	go func() {
		<-ctx.Done()
		if err := server.GracefulStop(context.Background()); err != nil {
			telemetry.Log().Errorf("HTTP API Server shutdown: %v", err)
		}
	}()

	if err := server.ListenAndServe(httpAddr); err != nil {
		telemetry.Log().Errorf("HTTP API Server stopped: %v", err)
	}
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}

	return fallback
}
