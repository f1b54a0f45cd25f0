// Package producers publishes settlement events to Kafka. Events are emitted
// after the local commit succeeds and are strictly informational: losing one
// never desynchronizes balances, so the writer runs async and failures only log.
package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/ecoguardians/energy-settlement/internal/config"
)

// Event kinds mirror the operations that move balances
const (
	EventFactoryRegistered = "FACTORY_REGISTERED"
	EventEnergyMinted      = "ENERGY_MINTED"
	EventEnergyTransferred = "ENERGY_TRANSFERRED"
	EventTradeCreated      = "TRADE_CREATED"
	EventTradeExecuted     = "TRADE_EXECUTED"
)

// Event is the wire payload published for each completed settlement operation
type Event struct {
	Kind             string    `json:"kind"`
	FactoryID        string    `json:"factory_id,omitempty"`
	RelatedFactoryID string    `json:"related_factory_id,omitempty"`
	TradeID          string    `json:"trade_id,omitempty"`
	Amount           int64     `json:"amount,omitempty"`
	TotalPrice       int64     `json:"total_price,omitempty"`
	ExternalTxRef    string    `json:"external_tx_ref,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

// SettlementEventProducer publishes settlement events to the configured topic
type SettlementEventProducer struct {
	logger *slog.Logger
	writer KafkaWriter // Interface for testability
	topic  string
}

// NewSettlementEventProducer creates the event producer and ensures the topic exists
func NewSettlementEventProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*SettlementEventProducer, error) {
	if cfg.EventTopic == "" {
		return nil, fmt.Errorf("kafka event topic is not configured")
	}

	conn, err := kafka.Dial("tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for settlement event producer: %w", err)
	}
	defer conn.Close()

	err = ensureEventTopic(conn, cfg.EventTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure event topic %s exists: %w", cfg.EventTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.EventTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Async:        true, // Events are informational, throughput over delivery guarantees
		WriteTimeout: cfg.MaxWait,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("Failed to write settlement events asynchronously", "topic", cfg.EventTopic, "error", err, "count", len(messages))
			} else {
				logger.Debug("Wrote settlement events asynchronously", "topic", cfg.EventTopic, "count", len(messages))
			}
		},
	}

	return &SettlementEventProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.EventTopic,
	}, nil
}

// Publish sends one event keyed by factory so per-factory ordering is preserved
func (p *SettlementEventProducer) Publish(ctx context.Context, key string, value interface{}) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal settlement event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: jsonValue,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish settlement event",
			"topic", p.topic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish settlement event to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published settlement event",
		"topic", p.topic,
		"key", key,
	)
	return nil
}

func (p *SettlementEventProducer) Close() error {
	p.logger.Info("Closing settlement event producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
