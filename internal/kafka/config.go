package kafka

import (
	"errors"
	"os"
	"strings"
)

// ErrNotConfigured is returned by LoadConfig when KAFKA_BROKERS is unset.
var ErrNotConfigured = errors.New("KAFKA_BROKERS environment variable is required")

// Config holds Kafka configuration
type Config struct {
	Brokers           string
	EngagementTopic   string
	ClientID          string
	EnableIdempotence bool
	Acks              string
}

// LoadConfig loads Kafka configuration from environment variables
func LoadConfig(clientID string) (*Config, error) {
	brokers := os.Getenv("KAFKA_BROKERS")
	if brokers == "" {
		return nil, ErrNotConfigured
	}

	topic := os.Getenv("KAFKA_TOPIC_ENGAGEMENT")
	if topic == "" {
		topic = "engagement-events"
	}

	return &Config{
		Brokers:           brokers,
		EngagementTopic:   topic,
		ClientID:          clientID,
		EnableIdempotence: true,
		Acks:              "all",
	}, nil
}

// GetBrokersList returns brokers as a slice
func (c *Config) GetBrokersList() []string {
	return strings.Split(c.Brokers, ",")
}
