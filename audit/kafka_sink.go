package audit

import (
	"context"
	"encoding/json"

	segkafka "github.com/segmentio/kafka-go"

	"github.com/slabworks/catalog-sync/audit/model"
	"github.com/slabworks/catalog-sync/e"
	"github.com/slabworks/catalog-sync/kafka"
)

const (
	// DefaultTopic the topic audit records are published to
	DefaultTopic = "catalog-sync-audit"

	ECode070301 = e.Code0703 + "01"
	ECode070302 = e.Code0703 + "02"
	ECode070303 = e.Code0703 + "03"
)

// KafkaSink publishes records to a kafka topic, keyed by the record
// uid
type KafkaSink struct {
	writer *segkafka.Writer
}

// NewKafkaSink returns a sink publishing to the topic on the
// connection, creating the topic if it does not exist yet
func NewKafkaSink(conn *kafka.Connection, topic string) (s *KafkaSink, err error) {
	if topic == "" {
		topic = DefaultTopic
	}

	if err := conn.CreateTopics(segkafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}); err != nil {
		return nil, e.W(err, ECode070301)
	}

	return &KafkaSink{
		writer: conn.NewWriter(topic),
	}, nil
}

// Write implements Sink
func (s *KafkaSink) Write(ctx context.Context, r *model.Record) (err error) {
	b, err := json.Marshal(r)
	if err != nil {
		return e.W(err, ECode070302, r.UID)
	}

	if err := s.writer.WriteMessages(ctx, segkafka.Message{
		Key:   []byte(r.UID),
		Value: b,
	}); err != nil {
		return e.W(err, ECode070303)
	}

	return nil
}

// Close flushes and closes the underlying writer
func (s *KafkaSink) Close() (err error) {
	return s.writer.Close()
}
