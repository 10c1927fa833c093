package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querylens/querylens/internal/config"
)

func TestNewQueue(t *testing.T) {
	natsURL := setupTestNATS(t)

	tests := []struct {
		name     string
		cfg      config.QueueConfig
		wantType interface{}
		wantErr  string
	}{
		{name: "memory", cfg: config.QueueConfig{Type: "memory"}, wantType: &MemoryQueue{}},
		{name: "memory upper case", cfg: config.QueueConfig{Type: "MEMORY"}, wantType: &MemoryQueue{}},
		{name: "defaults to nats", cfg: config.QueueConfig{URL: natsURL}, wantType: &NATSQueue{}},
		{name: "kafka", cfg: config.QueueConfig{Type: "kafka", KafkaBrokers: []string{"localhost:9092"}}, wantType: &KafkaQueue{}},
		{name: "kafka without brokers", cfg: config.QueueConfig{Type: "kafka"}, wantErr: "brokers not configured"},
		{name: "unsupported", cfg: config.QueueConfig{Type: "carrier-pigeon"}, wantErr: "unsupported queue type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := NewQueue(tt.cfg)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			defer func() { _ = q.Close() }()
			assert.IsType(t, tt.wantType, q)
		})
	}
}
