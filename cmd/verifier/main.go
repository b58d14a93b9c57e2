package main

import (
	"context"
	"errors"
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
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <duration_seconds> [brokers]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Example: %s 30 127.0.0.1:9092\n", os.Args[0])
		os.Exit(1)
	}

	var durationSeconds int
	if _, err := fmt.Sscanf(os.Args[1], "%d", &durationSeconds); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid duration: %v\n", err)
		os.Exit(1)
	}

	brokers := "127.0.0.1:9092"
	if len(os.Args) >= 3 {
		brokers = os.Args[2]
	}

	logger, err := logging.NewLogger("verifier", "info")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	var brokerList []string
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokerList = append(brokerList, b)
		}
	}

	logger.Info("starting verifier",
		zap.Int("duration_seconds", durationSeconds),
		zap.Strings("brokers", brokerList),
	)

	// a fresh group reads the topic from the start
	group := "verifier-" + uuid.New().String()
	consumer, err := msg.NewConsumer(brokerList, group, []string{msg.TopicFills}, logger)
	if err != nil {
		logger.Fatal("failed to create consumer", zap.Error(err))
	}
	defer consumer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(durationSeconds)*time.Second)
	defer cancel()

	t := newTally()
	records := 0
	err = consumer.RunOperations(ctx, func(ctx context.Context, op zigzag.Operation, rec msg.Record) error {
		records++
		n := t.add(op)
		logger.Debug("consumed record",
			zap.String("op", zigzag.Tag(op)),
			zap.Int("transitions", n),
			zap.String("key", rec.Key),
			zap.Int32("partition", rec.Partition),
			zap.Int64("offset", rec.Offset),
		)
		return nil
	})
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		logger.Error("consumer error", zap.Error(err))
	}

	dups := t.duplicates()

	fmt.Println("\n=== Verification Results ===")
	fmt.Printf("Records consumed: %d\n", records)
	fmt.Printf("Fill transitions: %d\n", t.events)
	fmt.Printf("Unique transitions: %d\n", len(t.counts))
	fmt.Printf("Duplicate transitions: %d\n", len(dups))

	if len(dups) > 0 {
		fmt.Println("\nDuplicates found:")
		for _, d := range dups {
			fmt.Printf("  %s, Count: %d\n", d, t.counts[d])
		}
		fmt.Println("\nVERIFICATION FAILED: duplicate fill transitions published")
		os.Exit(1)
	}

	fmt.Println("\nVERIFICATION PASSED: no duplicate fill transitions")
}
