package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// Network is a named exchange deployment
type Network struct {
	URL     string
	ChainID uint32
}

// Networks lists the known exchange deployments
var Networks = map[string]Network{
	"rinkeby": {URL: "wss://secret-thicket-93345.herokuapp.com", ChainID: 1000},
	"mainnet": {URL: "wss://zigzag-exchange.herokuapp.com", ChainID: 1},
}

// Config holds configuration for all services
type Config struct {
	// Service name
	ServiceName string `yaml:"-"`

	// gRPC health server port
	GRPCPort int `yaml:"grpcPort"`

	// HTTP server port
	HTTPPort int `yaml:"httpPort"`

	// Log level: debug, info, warn, error
	LogLevel string `yaml:"logLevel"`

	// Rotated log file, empty logs to stdout only
	LogFile string `yaml:"logFile"`

	// Kafka brokers (comma-separated)
	KafkaBrokers string `yaml:"kafkaBrokers"`

	// Directory holding the receipt database
	DataDir string `yaml:"dataDir"`

	ZigZag ZigZagConfig `yaml:"zigzag"`
}

// ZigZagConfig selects the exchange endpoint and account
type ZigZagConfig struct {
	Network string   `yaml:"network"`
	URL     string   `yaml:"url"`
	ChainID uint32   `yaml:"chainId"`
	UserID  string   `yaml:"userId"`
	Markets []string `yaml:"markets"`
}

// LoadConfig loads configuration from the optional YAML file named by
// CONFIG_FILE, then from environment variables, then fills defaults.
func LoadConfig(serviceName string) (*Config, error) {
	cfg := &Config{ServiceName: serviceName}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.GRPCPort = getEnvAsInt("PORT_GRPC", cfg.GRPCPort)
	cfg.HTTPPort = getEnvAsInt("PORT_HTTP", cfg.HTTPPort)
	cfg.LogLevel = getEnvAsString("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFile = getEnvAsString("LOG_FILE", cfg.LogFile)
	cfg.KafkaBrokers = getEnvAsString("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.DataDir = getEnvAsString("DATA_DIR", cfg.DataDir)
	cfg.ZigZag.Network = getEnvAsString("ZIGZAG_NETWORK", cfg.ZigZag.Network)
	cfg.ZigZag.URL = getEnvAsString("ZIGZAG_URL", cfg.ZigZag.URL)
	cfg.ZigZag.ChainID = uint32(getEnvAsInt("ZIGZAG_CHAIN_ID", int(cfg.ZigZag.ChainID)))
	cfg.ZigZag.UserID = getEnvAsString("ZIGZAG_USER_ID", cfg.ZigZag.UserID)
	if v := os.Getenv("ZIGZAG_MARKETS"); v != "" {
		cfg.ZigZag.Markets = splitList(v)
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyDefaults() error {
	if c.GRPCPort == 0 {
		c.GRPCPort = 50051
	}
	if c.HTTPPort == 0 {
		c.HTTPPort = 8080
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.KafkaBrokers == "" {
		c.KafkaBrokers = "127.0.0.1:9092"
	}
	if c.DataDir == "" {
		c.DataDir = "./data"
	}
	if c.ZigZag.Network == "" {
		c.ZigZag.Network = "rinkeby"
	}

	net, ok := Networks[c.ZigZag.Network]
	if !ok && (c.ZigZag.URL == "" || c.ZigZag.ChainID == 0) {
		return fmt.Errorf("unknown zigzag network %q: set ZIGZAG_URL and ZIGZAG_CHAIN_ID", c.ZigZag.Network)
	}
	if c.ZigZag.URL == "" {
		c.ZigZag.URL = net.URL
	}
	if c.ZigZag.ChainID == 0 {
		c.ZigZag.ChainID = net.ChainID
	}
	if len(c.ZigZag.Markets) == 0 {
		c.ZigZag.Markets = []string{"ETH-USDT"}
	}
	return nil
}

// GRPCAddr returns the gRPC server address
func (c *Config) GRPCAddr() string {
	return fmt.Sprintf(":%d", c.GRPCPort)
}

// HTTPAddr returns the HTTP server address
func (c *Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// Brokers splits KafkaBrokers
func (c *Config) Brokers() []string {
	return splitList(c.KafkaBrokers)
}

func getEnvAsString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := cast.ToIntE(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
