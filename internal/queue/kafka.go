package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/querylens/querylens/internal/utils"
)

// KafkaConfig represents Apache Kafka configuration
type KafkaConfig struct {
	Brokers       []string      // Kafka broker addresses
	GroupID       string        // Consumer group ID
	BatchTimeout  time.Duration // Producer batch timeout (default: 10ms)
	RequiredAcks  int           // Required acks: 0=none, 1=leader, -1=all (default: 1)
	MaxRetries    int           // Max write attempts (default: 3)
	RetryBackoff  time.Duration // Backoff between commit retries (default: 100ms)
	CommitRetries int           // Consumer commit retries (default: 3)
}

type kafkaSubscription struct {
	reader *kafka.Reader
	cancel context.CancelFunc
}

// KafkaQueue implements Queue interface using Apache Kafka. Message keys
// become Kafka message keys, so one session's events stay on one partition.
type KafkaQueue struct {
	config        KafkaConfig
	writer        *kafka.Writer
	subscriptions map[string]kafkaSubscription
	wg            sync.WaitGroup
	mu            sync.Mutex
}

// newKafkaQueue creates a new Kafka queue instance
func newKafkaQueue(cfg KafkaConfig) (*KafkaQueue, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers not configured")
	}

	// Apply defaults
	if cfg.GroupID == "" {
		cfg.GroupID = "querylens-group"
	}
	if cfg.BatchTimeout == 0 {
		cfg.BatchTimeout = 10 * time.Millisecond
	}
	if cfg.RequiredAcks == 0 {
		cfg.RequiredAcks = int(kafka.RequireOne)
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = utils.DefaultMaxRetries
	}
	if cfg.RetryBackoff == 0 {
		cfg.RetryBackoff = utils.DefaultRetryBackoff
	}
	if cfg.CommitRetries == 0 {
		cfg.CommitRetries = utils.DefaultMaxRetries
	}

	// One writer for all topics; the topic is set per message
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           kafka.RequiredAcks(cfg.RequiredAcks),
		MaxAttempts:            cfg.MaxRetries,
		AllowAutoTopicCreation: true,
	}

	return &KafkaQueue{
		config:        cfg,
		writer:        writer,
		subscriptions: make(map[string]kafkaSubscription),
	}, nil
}

// Publish writes a message to the subject's topic
func (q *KafkaQueue) Publish(ctx context.Context, msg Message) error {
	km := kafka.Message{
		Topic: msg.Subject,
		Value: msg.Data,
		Time:  time.Now(),
	}
	if msg.Key != "" {
		km.Key = []byte(msg.Key)
	}

	if err := q.writer.WriteMessages(ctx, km); err != nil {
		return fmt.Errorf("failed to publish to kafka topic %s: %w", msg.Subject, err)
	}
	return nil
}

// Subscribe consumes a topic within the configured consumer group
func (q *KafkaQueue) Subscribe(subject string, handler MessageHandler) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, exists := q.subscriptions[subject]; exists {
		return fmt.Errorf("already subscribed to topic: %s", subject)
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     q.config.Brokers,
		GroupID:     q.config.GroupID,
		Topic:       subject,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     time.Second,
		StartOffset: kafka.LastOffset,
	})

	ctx, cancel := context.WithCancel(context.Background())
	q.subscriptions[subject] = kafkaSubscription{reader: reader, cancel: cancel}

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		q.consume(ctx, reader, handler)
	}()
	return nil
}

// consume fetches, handles and commits messages until ctx is cancelled
func (q *KafkaQueue) consume(ctx context.Context, reader *kafka.Reader, handler MessageHandler) {
	for {
		km, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			continue
		}

		msg := Message{Subject: km.Topic, Key: string(km.Key), Data: km.Value}
		if err := handler(ctx, msg); err != nil {
			// Not committed; redelivered after rebalance or restart
			continue
		}

		backoff := q.config.RetryBackoff
		for i := 0; i < q.config.CommitRetries; i++ {
			if err := reader.CommitMessages(ctx, km); err == nil {
				break
			}
			if ctx.Err() != nil {
				return
			}
			time.Sleep(backoff)
			backoff = min(backoff*2, utils.MaxRetryBackoff)
		}
	}
}

// Unsubscribe stops consuming a topic
func (q *KafkaQueue) Unsubscribe(subject string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	s, exists := q.subscriptions[subject]
	if !exists {
		return fmt.Errorf("not subscribed to topic: %s", subject)
	}

	s.cancel()
	delete(q.subscriptions, subject)
	return s.reader.Close()
}

// Close closes all readers and the writer
func (q *KafkaQueue) Close() error {
	q.mu.Lock()
	var lastErr error
	for subject, s := range q.subscriptions {
		s.cancel()
		if err := s.reader.Close(); err != nil {
			lastErr = err
		}
		delete(q.subscriptions, subject)
	}
	q.mu.Unlock()

	q.wg.Wait()
	if err := q.writer.Close(); err != nil {
		lastErr = err
	}
	return lastErr
}

// Stats returns writer stats (for monitoring)
func (q *KafkaQueue) Stats() kafka.WriterStats {
	return q.writer.Stats()
}
