package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"contenthub/config"
	"contenthub/core"
	gatewayconfig "contenthub/gateway/config"
	"contenthub/gateway/middleware"
	"contenthub/gateway/routes"
	"contenthub/observability/logging"
	telemetry "contenthub/observability/otel"
	"contenthub/rpc"
	"contenthub/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "hubd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "config.toml", "path to hubd configuration")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("HUB_ENV"))

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := logging.Setup("hubd", env, cfg.LogFile)

	otlpEndpoint := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"))
	insecure := true
	if value := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_INSECURE")); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			insecure = parsed
		}
	}
	telemetryProvider, err := telemetry.Setup(context.Background(), telemetry.Options{
		Service:  "hubd",
		Env:      env,
		Endpoint: otlpEndpoint,
		Insecure: insecure,
		Headers:  telemetry.ParseHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS")),
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		_ = telemetryProvider.Shutdown(context.Background())
	}()

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	db, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "registry"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	node, err := core.NewNode(db)
	if err != nil {
		return fmt.Errorf("init node: %w", err)
	}
	if _, err := os.Stat(cfg.GenesisFile); err == nil {
		genesis, err := core.LoadGenesis(cfg.GenesisFile)
		if err != nil {
			return err
		}
		if err := node.ApplyGenesis(genesis); err != nil {
			return fmt.Errorf("apply genesis: %w", err)
		}
	} else {
		logger.Warn("no genesis file; registry has no administrator until one is applied", "path", cfg.GenesisFile)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 3)

	rpcServer := rpc.NewServer(node, os.Getenv("HUB_RPC_TOKEN"))
	rpcHTTP := &http.Server{
		Addr:              cfg.RPCAddress,
		Handler:           rpcServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("starting JSON-RPC server", "addr", cfg.RPCAddress)
		if err := rpcHTTP.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("rpc server: %w", err)
		}
	}()

	metricsHTTP := &http.Server{
		Addr:              cfg.MetricsAddress,
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("starting metrics server", "addr", cfg.MetricsAddress)
		if err := metricsHTTP.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("metrics server: %w", err)
		}
	}()

	var gatewayHTTP *http.Server
	if strings.TrimSpace(cfg.GatewayAddress) != "" || strings.TrimSpace(cfg.GatewayConfig) != "" {
		gwCfg := gatewayconfig.Default()
		if strings.TrimSpace(cfg.GatewayConfig) != "" {
			gwCfg, err = gatewayconfig.Load(cfg.GatewayConfig)
			if err != nil {
				return err
			}
		}
		if strings.TrimSpace(cfg.GatewayAddress) != "" {
			gwCfg.ListenAddress = cfg.GatewayAddress
		}
		handler := routes.New(routes.Config{
			Node: node,
			Authenticator: middleware.NewAuthenticator(middleware.AuthConfig{
				Enabled:    gwCfg.Auth.Enabled,
				HMACSecret: gwCfg.Auth.HMACSecret,
				Issuer:     gwCfg.Auth.Issuer,
				Audience:   gwCfg.Auth.Audience,
				ClockSkew:  gwCfg.Auth.ClockSkew,
			}),
			RateLimiter: middleware.NewRateLimiter(middleware.RateLimit{
				RequestsPerMinute: gwCfg.RateLimit.RequestsPerMinute,
				Burst:             gwCfg.RateLimit.Burst,
				TrustForwardedFor: gwCfg.RateLimit.TrustForwardedFor,
			}),
		})
		gatewayHTTP = &http.Server{
			Addr:              gwCfg.ListenAddress,
			Handler:           otelhttp.NewHandler(handler, "gateway"),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("starting gateway", "addr", gwCfg.ListenAddress)
			if err := gatewayHTTP.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("gateway: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = rpcHTTP.Shutdown(shutdownCtx)
	_ = metricsHTTP.Shutdown(shutdownCtx)
	if gatewayHTTP != nil {
		_ = gatewayHTTP.Shutdown(shutdownCtx)
	}
	return nil
}
