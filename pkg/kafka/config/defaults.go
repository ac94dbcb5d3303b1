package kafka_config

import "time"

const (
	DefaultKafkaBrokers                = "localhost:9092"
	DefaultProducerMaxAttempts         = 3
	DefaultProducerBatchTimeout        = 10 * time.Millisecond
	DefaultProducerCompression         = "snappy"
	DefaultConsumerStartOffset   int64 = -2 // oldest
	DefaultConsumerMaxWait             = 500 * time.Millisecond
	DefaultConsumerCommitInterval      = 0 // synchronous commits
	DefaultConsumerMaxRetries          = 3
)
