package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ismaiel54/zigzag-trading-bridge/internal/logging"
	"github.com/ismaiel54/zigzag-trading-bridge/internal/msg"
	"github.com/ismaiel54/zigzag-trading-bridge/internal/zigzag"
	"go.uber.org/zap"
)

func main() {
	var (
		op       = flag.String("op", "subscribemarket", "Command to send: "+strings.Join(commandTags, ", "))
		count    = flag.Int("count", 1, "Number of times to publish the command")
		brokers  = flag.String("brokers", "127.0.0.1:9092", "Kafka broker addresses")
		chainID  = flag.Uint("chain", 1000, "Chain id (1000 rinkeby, 1 mainnet)")
		market   = flag.String("market", "ETH-USDT", "Market alias")
		userID   = flag.String("user", "", "User id for cancelall")
		orderID  = flag.Uint("order", 0, "Order id for receipt requests")
		side     = flag.String("side", "b", "Side code for requestquote: b or s")
		base     = flag.Float64("base", 0, "Base quantity for requestquote")
		quote    = flag.Float64("quote", 0, "Quote quantity for requestquote")
		detailed = flag.Bool("detailed", true, "Detailed market info for marketreq")
	)
	flag.Parse()

	logger, err := logging.NewLogger("producer", "info")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cmd, err := buildCommand(*op, commandArgs{
		ChainID:       uint32(*chainID),
		Market:        *market,
		UserID:        *userID,
		OrderID:       uint32(*orderID),
		Side:          *side,
		BaseQuantity:  *base,
		QuoteQuantity: *quote,
		Detailed:      *detailed,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}

	frame, err := zigzag.Encode(cmd)
	if err != nil {
		logger.Fatal("failed to encode command", zap.Error(err))
	}

	brokerList := parseBrokers(*brokers)
	batchID := uuid.New().String()
	logger.Info("starting producer",
		zap.String("op", *op),
		zap.Int("count", *count),
		zap.Strings("brokers", brokerList),
		zap.String("batch_id", batchID),
		zap.ByteString("frame", frame),
	)

	producer, err := msg.NewProducer(brokerList, logger)
	if err != nil {
		logger.Fatal("failed to create producer", zap.Error(err))
	}
	defer producer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	produced, failed := 0, 0
	key := msg.KeyFor(cmd)
	for i := 0; i < *count; i++ {
		if err := producer.ProduceFrame(ctx, msg.TopicCommands, key, frame); err != nil {
			logger.Error("failed to produce command", zap.Int("attempt", i+1), zap.Error(err))
			failed++
			continue
		}
		produced++
	}

	logger.Info("producer completed",
		zap.String("batch_id", batchID),
		zap.Int("produced", produced),
		zap.Int("failed", failed),
	)

	fmt.Printf("\n=== Producer Summary ===\n")
	fmt.Printf("Command: %s\n", frame)
	fmt.Printf("Topic: %s (key %s)\n", msg.TopicCommands, key)
	fmt.Printf("Produced: %d\n", produced)
	fmt.Printf("Failed: %d\n", failed)
	fmt.Printf("\n")

	if failed > 0 {
		os.Exit(1)
	}
}

func parseBrokers(brokers string) []string {
	var out []string
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
