package kafka_middleware

import (
	"context"
	"sync/atomic"
	"time"

	"gatherly/pkg/kafka"
)

// Metrics counts Kafka traffic of this process.
type Metrics struct {
	messagesPublished       atomic.Int64
	messagesPublishedFailed atomic.Int64
	publishDurationTotal    atomic.Int64
	messagesConsumed        atomic.Int64
	messagesConsumedFailed  atomic.Int64
	consumeDurationTotal    atomic.Int64
}

// Snapshot is the JSON view served on /metrics.
type Snapshot struct {
	MessagesPublished       int64  `json:"messages_published"`
	MessagesPublishedFailed int64  `json:"messages_published_failed"`
	AvgPublishDuration      string `json:"avg_publish_duration"`
	MessagesConsumed        int64  `json:"messages_consumed"`
	MessagesConsumedFailed  int64  `json:"messages_consumed_failed"`
	AvgConsumeDuration      string `json:"avg_consume_duration"`
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) Snapshot() Snapshot {
	published := m.messagesPublished.Load()
	publishedFailed := m.messagesPublishedFailed.Load()
	consumed := m.messagesConsumed.Load()
	consumedFailed := m.messagesConsumedFailed.Load()

	return Snapshot{
		MessagesPublished:       published,
		MessagesPublishedFailed: publishedFailed,
		AvgPublishDuration:      average(m.publishDurationTotal.Load(), published+publishedFailed).String(),
		MessagesConsumed:        consumed,
		MessagesConsumedFailed:  consumedFailed,
		AvgConsumeDuration:      average(m.consumeDurationTotal.Load(), consumed+consumedFailed).String(),
	}
}

func average(total, n int64) time.Duration {
	if n == 0 {
		return 0
	}
	return time.Duration(total / n)
}

func (m *Metrics) ProducerMiddleware() kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()
		err := next(ctx, msg)

		m.publishDurationTotal.Add(int64(time.Since(start)))
		if err != nil {
			m.messagesPublishedFailed.Add(1)
		} else {
			m.messagesPublished.Add(1)
		}
		return err
	}
}

func (m *Metrics) ConsumerMiddleware() kafka.ConsumerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		start := time.Now()
		err := next(ctx, msg)

		m.consumeDurationTotal.Add(int64(time.Since(start)))
		if err != nil {
			m.messagesConsumedFailed.Add(1)
		} else {
			m.messagesConsumed.Add(1)
		}
		return err
	}
}
