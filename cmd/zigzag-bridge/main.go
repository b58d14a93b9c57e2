package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ismaiel54/zigzag-trading-bridge/internal/chaos"
	"github.com/ismaiel54/zigzag-trading-bridge/internal/config"
	"github.com/ismaiel54/zigzag-trading-bridge/internal/idempotency"
	"github.com/ismaiel54/zigzag-trading-bridge/internal/logging"
	"github.com/ismaiel54/zigzag-trading-bridge/internal/msg"
	"github.com/ismaiel54/zigzag-trading-bridge/internal/observability"
	"github.com/ismaiel54/zigzag-trading-bridge/internal/session"
	"github.com/ismaiel54/zigzag-trading-bridge/internal/transport"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

func main() {
	cfg, err := config.LoadConfig("zigzag-bridge")
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

	logger.Info("starting zigzag-bridge service",
		zap.Int("grpc_port", cfg.GRPCPort),
		zap.Int("http_port", cfg.HTTPPort),
		zap.String("kafka_brokers", cfg.KafkaBrokers),
		zap.String("data_dir", cfg.DataDir),
		zap.String("network", cfg.ZigZag.Network),
		zap.Uint32("chain_id", cfg.ZigZag.ChainID),
		zap.Strings("markets", cfg.ZigZag.Markets),
	)

	dbPath := filepath.Join(cfg.DataDir, "receipts.db")
	store, err := idempotency.Open(dbPath)
	if err != nil {
		logger.Fatal("failed to open receipt store", zap.Error(err))
	}
	defer store.Close()
	logger.Info("receipt store opened", zap.String("path", dbPath))

	healthChecker := observability.NewHealthChecker(logger)
	healthChecker.SetUpstreamReady(false)
	healthChecker.SetKafkaReady(false)

	brokers := cfg.Brokers()
	producer, err := msg.NewProducer(brokers, logger)
	if err != nil {
		logger.Fatal("failed to create kafka producer", zap.Error(err))
	}
	defer producer.Close()

	publisher := idempotency.NewPublisher(store, producer, logger)

	consumer, err := msg.NewConsumer(brokers, "zigzag-bridge-v1", []string{msg.TopicCommands}, logger)
	if err != nil {
		logger.Fatal("failed to create kafka consumer", zap.Error(err))
	}
	defer consumer.Close()

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
		logger.Fatal("failed to connect to exchange", zap.String("url", cfg.ZigZag.URL), zap.Error(err))
	}
	sess := session.New(ws, logger, session.WithChaos(chaos.New(chaos.LoadConfig(), logger)))
	defer sess.Close()
	healthChecker.SetUpstreamReady(true)

	if cfg.ZigZag.UserID != "" {
		if err := sess.Login(ctx, cfg.ZigZag.ChainID, cfg.ZigZag.UserID); err != nil {
			logger.Fatal("failed to login", zap.Error(err))
		}
		logger.Info("logged in", zap.String("user_id", cfg.ZigZag.UserID))
	}
	if err := sess.Subscribe(ctx, cfg.ZigZag.ChainID, cfg.ZigZag.Markets...); err != nil {
		logger.Fatal("failed to subscribe markets", zap.Error(err))
	}

	r := &router{store: store, producer: producer, logger: logger}

	sessionErrCh := make(chan error, 1)
	go func() {
		err := sess.Run(ctx, r.handleInbound)
		healthChecker.SetUpstreamReady(false)
		if err != nil && ctx.Err() == nil {
			sessionErrCh <- err
		}
	}()

	consumerErrCh := make(chan error, 1)
	go func() {
		if err := consumer.RunOperations(ctx, forwardCommand(sess, logger)); err != nil && ctx.Err() == nil {
			consumerErrCh <- err
		}
	}()

	publisherErrCh := make(chan error, 1)
	go func() {
		if err := publisher.Run(ctx); err != nil && ctx.Err() == nil {
			publisherErrCh <- err
		}
	}()

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	if err := producer.Ping(pingCtx); err != nil {
		logger.Warn("kafka not reachable yet", zap.Error(err))
	} else {
		healthChecker.SetKafkaReady(true)
	}
	pingCancel()

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
	case err := <-consumerErrCh:
		logger.Error("consumer error", zap.Error(err))
	case err := <-publisherErrCh:
		logger.Error("publisher error", zap.Error(err))
	}

	logger.Info("shutting down gracefully...")

	cancel()
	st := sess.Stats()
	logger.Info("session totals",
		zap.Int64("received", st.Received),
		zap.Int64("decode_errors", st.DecodeErrors),
		zap.Int64("sent", st.Sent),
	)
	sess.Close()
	consumer.Close()
	producer.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := healthChecker.Shutdown(shutdownCtx); err != nil {
		logger.Error("error shutting down health checker", zap.Error(err))
	}
	grpcServer.GracefulStop()

	logger.Info("zigzag-bridge service stopped")
}
