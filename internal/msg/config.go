package msg

import (
	"os"
	"strings"
)

// Config holds Kafka configuration
type Config struct {
	Brokers  []string
	ClientID string
}

// Topic names
const (
	TopicOrders   = "zigzag.orders"
	TopicFills    = "zigzag.fills"
	TopicMarket   = "zigzag.market"
	TopicErrors   = "zigzag.errors"
	TopicCommands = "zigzag.commands"
)

// LoadConfig loads Kafka configuration from environment variables
func LoadConfig() *Config {
	var brokers []string
	for _, b := range strings.Split(getEnvAsString("KAFKA_BROKERS", "127.0.0.1:9092"), ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}

	return &Config{
		Brokers:  brokers,
		ClientID: getEnvAsString("KAFKA_CLIENT_ID", "zigzag-bridge"),
	}
}

func getEnvAsString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
