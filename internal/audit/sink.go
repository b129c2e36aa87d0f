package audit

import (
	"context"
	"encoding/json"
	"fmt"

	commonredis "shethrive-data/internal/common/redis"
	"shethrive-data/internal/domain"

	"github.com/go-redis/redis/v8"
)

// Sink receives committed audit entries.
type Sink interface {
	Name() string
	Publish(ctx context.Context, entry domain.AuditLogEntry) error
}

// Publisher is the part of the MQTT client used by MQTTSink.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// MQTTSink publishes each entry as JSON to a fixed topic.
type MQTTSink struct {
	pub   Publisher
	topic string
	qos   byte
}

func NewMQTTSink(pub Publisher, topic string, qos byte) *MQTTSink {
	return &MQTTSink{pub: pub, topic: topic, qos: qos}
}

func (s *MQTTSink) Name() string { return "mqtt" }

func (s *MQTTSink) Publish(_ context.Context, entry domain.AuditLogEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}
	return s.pub.Publish(s.topic, s.qos, false, payload)
}

// StreamSink appends each entry to a Redis stream.
type StreamSink struct {
	client *redis.Client
	stream string
	maxLen int64
}

func NewStreamSink(client *redis.Client, stream string, maxLen int64) *StreamSink {
	return &StreamSink{client: client, stream: stream, maxLen: maxLen}
}

func (s *StreamSink) Name() string { return "redis_stream" }

func (s *StreamSink) Publish(ctx context.Context, entry domain.AuditLogEntry) error {
	if _, err := commonredis.PublishJSONToStream(ctx, s.client, s.stream, s.maxLen, entry); err != nil {
		return fmt.Errorf("xadd %s: %w", s.stream, err)
	}
	return nil
}
