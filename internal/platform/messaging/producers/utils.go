package producers

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	topicReadAttempts  = 5
	topicReadRetryWait = 2 * time.Second
)

// ensureEventTopic creates the settlement event topic when the broker does
// not already have it. Partition reads are retried because a freshly started
// broker can briefly report no metadata.
func ensureEventTopic(conn *kafka.Conn, topic string, partitions, replicationFactor int, log *slog.Logger) error {
	var (
		existing []kafka.Partition
		readErr  error
	)
	for attempt := 1; attempt <= topicReadAttempts; attempt++ {
		existing, readErr = conn.ReadPartitions(topic)
		if readErr == nil {
			break
		}
		log.Warn("Reading topic partitions failed", "topic", topic, "attempt", attempt, "error", readErr)
		time.Sleep(topicReadRetryWait)
	}

	if len(existing) > 0 {
		log.Info("Event topic already exists", "topic", topic, "partitions", len(existing))
		return nil
	}

	if partitions <= 0 {
		partitions = 1
	}
	if replicationFactor <= 0 {
		replicationFactor = 1
	}

	log.Info("Creating event topic",
		"topic", topic,
		"partitions", partitions,
		"replication_factor", replicationFactor,
	)
	err := conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     partitions,
		ReplicationFactor: replicationFactor,
	})
	if err != nil {
		return fmt.Errorf("create event topic %s: %w", topic, err)
	}
	return nil
}
