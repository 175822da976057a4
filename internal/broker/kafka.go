package broker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/compress"

	"cdr-mock/internal/envelope"
	"cdr-mock/internal/metrics"
	"cdr-mock/pkg/logger"
)

var (
	ErrProducerClosed  = errors.New("broker: producer is closed")
	ErrSerializeFailed = errors.New("broker: failed to serialize envelope")
)

// Config controls the Kafka writer. Zero values get conservative defaults.
type Config struct {
	Brokers      []string
	Topic        string
	BatchSize    int
	BatchTimeout time.Duration
	WriteTimeout time.Duration
	RequiredAcks int
	Compression  string
	MaxRetries   int
	RetryBackoff time.Duration
}

func (c Config) withDefaults() Config {
	out := c
	if out.BatchSize <= 0 {
		out.BatchSize = 100
	}
	if out.BatchTimeout <= 0 {
		out.BatchTimeout = 50 * time.Millisecond
	}
	if out.WriteTimeout <= 0 {
		out.WriteTimeout = 10 * time.Second
	}
	if out.RequiredAcks == 0 {
		out.RequiredAcks = int(kafka.RequireAll)
	}
	if out.MaxRetries < 0 {
		out.MaxRetries = 0
	}
	if out.RetryBackoff <= 0 {
		out.RetryBackoff = 100 * time.Millisecond
	}
	return out
}

// messageWriter is the subset of *kafka.Writer the producer needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes CDR envelopes to a Kafka topic, keyed by record id.
type Producer struct {
	cfg    Config
	writer messageWriter
	closed atomic.Bool
}

func NewProducer(cfg Config) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("broker: at least one broker is required")
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, errors.New("broker: topic is required")
	}
	cfg = cfg.withDefaults()

	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
		Compression:  compression(cfg.Compression),
		MaxAttempts:  1, // retries are ours, with backoff
	}
	return &Producer{cfg: cfg, writer: w}, nil
}

func compression(name string) compress.Compression {
	switch name {
	case "gzip":
		return compress.Gzip
	case "snappy":
		return compress.Snappy
	case "lz4":
		return compress.Lz4
	case "zstd":
		return compress.Zstd
	default:
		return compress.None
	}
}

func (p *Producer) Topic() string { return p.cfg.Topic }

// Publish writes all envelopes as one batch. Retries with exponential backoff.
func (p *Producer) Publish(ctx context.Context, envs []envelope.Envelope) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}
	if len(envs) == 0 {
		return nil
	}

	msgs, err := toMessages(envs)
	if err != nil {
		metrics.BrokerPublishTotal.WithLabelValues("failed").Add(float64(len(envs)))
		return err
	}

	start := time.Now()
	err = p.writeWithRetry(ctx, msgs)
	metrics.BrokerPublishDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.BrokerPublishTotal.WithLabelValues("failed").Add(float64(len(msgs)))
		return err
	}
	metrics.BrokerPublishTotal.WithLabelValues("success").Add(float64(len(msgs)))
	return nil
}

// toMessages maps envelopes onto Kafka messages: key and value carry the same JSON the
// export renders, the message time is the envelope timestamp.
func toMessages(envs []envelope.Envelope) ([]kafka.Message, error) {
	out := make([]kafka.Message, 0, len(envs))
	for _, e := range envs {
		key, err := json.Marshal(e.Key)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSerializeFailed, err)
		}
		value, err := json.Marshal(e.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSerializeFailed, err)
		}
		out = append(out, kafka.Message{
			Key:   key,
			Value: value,
			Time:  time.UnixMilli(e.Timestamp),
		})
	}
	return out, nil
}

func (p *Producer) writeWithRetry(ctx context.Context, msgs []kafka.Message) error {
	log := logger.From(ctx).With("component", "broker", "topic", p.cfg.Topic)
	backoff := p.cfg.RetryBackoff
	var lastErr error

	for attempt := 0; attempt <= p.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			log.Warn("retrying kafka publish", "attempt", attempt, "backoff", backoff.String(), "batch_size", len(msgs))
			select {
			case <-time.After(backoff):
				backoff *= 2
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := p.writer.WriteMessages(ctx, msgs...)
		if err == nil {
			log.Debug("batch published", "batch_size", len(msgs))
			return nil
		}
		lastErr = err
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
	}

	log.Error("kafka publish failed", "err", lastErr, "attempts", p.cfg.MaxRetries+1)
	return fmt.Errorf("broker: publish failed after %d attempts: %w", p.cfg.MaxRetries+1, lastErr)
}

func (p *Producer) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	return p.writer.Close()
}
