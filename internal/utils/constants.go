package utils

import "time"

// =============================================================================
// Timeout Constants
// =============================================================================

// HTTP Handler Timeouts
const (
	// DefaultRequestTimeout bounds a request that has no configured timeout
	DefaultRequestTimeout = 30 * time.Second

	// InterpretTimeout bounds the local interpretation of an uploaded result
	InterpretTimeout = 10 * time.Second

	// ShutdownTimeout is how long the server waits for in-flight requests
	ShutdownTimeout = 15 * time.Second
)

// Side channel Timeouts
const (
	// RecommendationTimeout is the fallback deadline for a recommendation call
	RecommendationTimeout = 10 * time.Second

	// EventPublishTimeout bounds publishing a query event
	EventPublishTimeout = 5 * time.Second

	// HistoryTimeout bounds a history store round-trip
	HistoryTimeout = 2 * time.Second
)

// =============================================================================
// Session Constants
// =============================================================================

const (
	// DefaultSessionID is used when a request carries no X-Session-ID header
	DefaultSessionID = "default"

	// MaxQuestionLength caps the question text accepted by the query endpoint
	MaxQuestionLength = 4096

	// HistoryCapacity is the number of recent questions kept per session
	HistoryCapacity = 10
)

// =============================================================================
// Retry and Backoff Constants
// =============================================================================

const (
	// DefaultMaxRetries is the default number of retry attempts
	DefaultMaxRetries = 3

	// DefaultRetryBackoff is the default backoff duration between retries
	DefaultRetryBackoff = 100 * time.Millisecond

	// MaxRetryBackoff is the maximum backoff duration
	MaxRetryBackoff = 5 * time.Second
)

// =============================================================================
// Queue Type Constants
// =============================================================================

// QueueType represents the type of message queue
type QueueType string

const (
	// QueueTypeNATS represents NATS JetStream queue (default)
	QueueTypeNATS QueueType = "nats"

	// QueueTypeRedis represents Redis Streams queue
	QueueTypeRedis QueueType = "redis"

	// QueueTypeKafka represents Apache Kafka queue
	QueueTypeKafka QueueType = "kafka"

	// QueueTypeMemory represents in-memory queue (for testing)
	QueueTypeMemory QueueType = "memory"
)
