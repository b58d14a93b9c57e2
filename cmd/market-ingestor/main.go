package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ismaiel54/zigzag-trading-bridge/internal/config"
	"github.com/ismaiel54/zigzag-trading-bridge/internal/logging"
	"github.com/ismaiel54/zigzag-trading-bridge/internal/msg"
	"github.com/ismaiel54/zigzag-trading-bridge/internal/observability"
	"github.com/ismaiel54/zigzag-trading-bridge/internal/session"
	"github.com/ismaiel54/zigzag-trading-bridge/internal/transport"
	"github.com/ismaiel54/zigzag-trading-bridge/internal/zigzag"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

func main() {
	cfg, err := config.LoadConfig("market-ingestor")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLoggerWithConfig(logging.Config{
		Service:  cfg.ServiceName,
		Level:    cfg.LogLevel,
		FilePath: cfg.LogFile,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting market-ingestor service",
		zap.Int("grpc_port", cfg.GRPCPort),
		zap.Int("http_port", cfg.HTTPPort),
		zap.String("url", cfg.ZigZag.URL),
		zap.Strings("markets", cfg.ZigZag.Markets),
	)

	healthChecker := observability.NewHealthChecker(logger)
	healthChecker.SetUpstreamReady(false)

	producer, err := msg.NewProducer(cfg.Brokers(), logger)
	if err != nil {
		logger.Fatal("failed to create kafka producer", zap.Error(err))
	}
	defer producer.Close()

	grpcServer := grpc.NewServer()
	healthChecker.RegisterGRPC(grpcServer)

	grpcListener, err := net.Listen("tcp", cfg.GRPCAddr())
	if err != nil {
		logger.Fatal("failed to listen on gRPC port", zap.Error(err))
	}

	grpcErrCh := make(chan error, 1)
	go func() {
		logger.Info("gRPC server listening", zap.String("addr", cfg.GRPCAddr()))
		if err := grpcServer.Serve(grpcListener); err != nil {
			grpcErrCh <- err
		}
	}()

	httpErrCh := make(chan error, 1)
	go func() {
		if err := healthChecker.StartHTTPServer(cfg.HTTPAddr()); err != nil && err != http.ErrServerClosed {
			httpErrCh <- err
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dialCtx, dialCancel := context.WithTimeout(ctx, 15*time.Second)
	ws, err := transport.Dial(dialCtx, cfg.ZigZag.URL, logger)
	dialCancel()
	if err != nil {
		logger.Fatal("failed to connect to exchange", zap.Error(err))
	}
	sess := session.New(ws, logger)
	defer sess.Close()
	healthChecker.SetUpstreamReady(true)

	if err := sess.Send(ctx, &zigzag.Marketreq{ChainID: cfg.ZigZag.ChainID, Detailed: true}); err != nil {
		logger.Fatal("failed to request market info", zap.Error(err))
	}
	if err := sess.Subscribe(ctx, cfg.ZigZag.ChainID, cfg.ZigZag.Markets...); err != nil {
		logger.Fatal("failed to subscribe markets", zap.Error(err))
	}

	sessionErrCh := make(chan error, 1)
	go func() {
		err := sess.Run(ctx, func(ctx context.Context, op zigzag.Operation) error {
			if msg.TopicFor(op) != msg.TopicMarket {
				return nil
			}
			logMarketData(logger, op)
			if err := producer.ProduceOperation(ctx, op); err != nil {
				logger.Warn("failed to publish market data", zap.String("op", zigzag.Tag(op)), zap.Error(err))
			}
			return nil
		})
		healthChecker.SetUpstreamReady(false)
		if err != nil && ctx.Err() == nil {
			sessionErrCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case err := <-grpcErrCh:
		logger.Error("gRPC server error", zap.Error(err))
	case err := <-httpErrCh:
		logger.Error("HTTP server error", zap.Error(err))
	case err := <-sessionErrCh:
		logger.Error("exchange session error", zap.Error(err))
	}

	logger.Info("shutting down gracefully...")

	for _, m := range cfg.ZigZag.Markets {
		unsubCtx, unsubCancel := context.WithTimeout(context.Background(), time.Second)
		if err := sess.Send(unsubCtx, &zigzag.Unsubscribemarket{ChainID: cfg.ZigZag.ChainID, Market: m}); err != nil {
			logger.Debug("failed to unsubscribe", zap.String("market", m), zap.Error(err))
		}
		unsubCancel()
	}
	cancel()
	sess.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := healthChecker.Shutdown(shutdownCtx); err != nil {
		logger.Error("error shutting down health checker", zap.Error(err))
	}
	grpcServer.GracefulStop()

	logger.Info("market-ingestor service stopped")
}

func logMarketData(logger *zap.Logger, op zigzag.Operation) {
	switch v := op.(type) {
	case *zigzag.Lastprice:
		for _, u := range v.Updates {
			logger.Info("last price",
				zap.String("market", u.Market),
				zap.String("price", u.Price.Decimal().String()),
				zap.Float64("price_change", u.PriceChange.Float()),
			)
		}
	case *zigzag.Marketsummary:
		logger.Info("market summary",
			zap.String("market", v.Market),
			zap.String("price", v.Price.String()),
			zap.String("high_24", v.High24.String()),
			zap.String("low_24", v.Low24.String()),
			zap.Float64("base_volume", v.BaseVolume),
		)
	case *zigzag.Liquidity2:
		logger.Debug("liquidity",
			zap.String("market", v.Market),
			zap.Int("levels", len(v.Liquidity)),
		)
	case *zigzag.Marketinfo2:
		for _, mi := range v.MarketInfos {
			logger.Info("market info",
				zap.String("alias", mi.Alias),
				zap.String("base", mi.BaseAsset.Symbol),
				zap.String("quote", mi.QuoteAsset.Symbol),
				zap.String("base_fee", mi.BaseFee.String()),
			)
		}
	default:
		logger.Debug("market data", zap.String("op", zigzag.Tag(op)))
	}
}
