package kafka_config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(EnvKafkaBrokers, "broker-1:9092, broker-2:9092,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.Brokers)
	assert.Equal(t, DefaultProducerCompression, cfg.ProducerCompression)
	assert.Equal(t, int64(DefaultConsumerStartOffset), cfg.ConsumerStartOffset)
}

func TestLoad_ClientID(t *testing.T) {
	t.Setenv(EnvKafkaBrokers, "broker-1:9092")
	t.Setenv(EnvKafkaClientID, "ratings-worker")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "ratings-worker", cfg.ClientID)
}

func TestLoad_RejectsInvalidCompression(t *testing.T) {
	t.Setenv(EnvKafkaProducerCompression, "brotli")

	_, err := Load()
	assert.ErrorContains(t, err, "ProducerCompression")
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := &Config{ProducerCompression: "snappy", ConsumerStartOffset: -1}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "At least one Kafka broker")
	assert.Contains(t, err.Error(), "ProducerMaxAttempts")
	assert.Contains(t, err.Error(), "ConsumerMaxWait")
}
