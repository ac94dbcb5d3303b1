package kafka_config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(EnvKafkaBrokers, "broker-a:9092, broker-b:9092,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"broker-a:9092", "broker-b:9092"}, cfg.Brokers)
	assert.Equal(t, DefaultProducerCompression, cfg.ProducerCompression)
	assert.Equal(t, DefaultConsumerStartOffset, cfg.ConsumerStartOffset)
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := &Config{
		ProducerCompression: "brotli",
		ConsumerStartOffset: 7,
		ConsumerMaxWait:     time.Second,
		ConsumerMaxRetries:  -1,
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "At least one Kafka broker")
	assert.Contains(t, err.Error(), "ProducerCompression")
	assert.Contains(t, err.Error(), "ConsumerStartOffset")
	assert.Contains(t, err.Error(), "ConsumerMaxRetries")
}
