package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
)

// Sink delivers events outside the process.
type Sink interface {
	Name() string
	Send(ctx context.Context, event Event) error
	Close() error
}

// Publisher is a pub/sub transport such as persistence.Redis.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// RedisSink publishes events as JSON on a pub/sub channel.
type RedisSink struct {
	publisher Publisher
	channel   string
}

// NewRedisSink builds a sink on an existing connection.
func NewRedisSink(publisher Publisher, channel string) *RedisSink {
	return &RedisSink{publisher: publisher, channel: channel}
}

func (s *RedisSink) Name() string { return "redis" }

func (s *RedisSink) Send(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return s.publisher.Publish(ctx, s.channel, body)
}

// Close is a no-op; the connection is owned by the persistence layer.
func (s *RedisSink) Close() error { return nil }

// kafkaWriter is the subset of kafka.Writer the sink uses.
type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink writes events to a topic keyed by request id, so one request's events stay ordered.
type KafkaSink struct {
	writer  kafkaWriter
	timeout time.Duration
}

// NewKafkaSink builds a sink writing to topic on the given brokers.
func NewKafkaSink(brokers []string, topic string, timeout time.Duration) *KafkaSink {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: timeout,
	}
	return &KafkaSink{writer: writer, timeout: timeout}
}

func (s *KafkaSink) Name() string { return "kafka" }

func (s *KafkaSink) Send(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.RequestID),
		Value: body,
		Time:  event.Timestamp,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	})
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
