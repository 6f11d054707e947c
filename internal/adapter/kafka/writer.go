// Package kafka publishes warning records to a sink topic for downstream
// consumers (archival, alerting) that want a push feed instead of polling
// the HTTP API.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/wxjp/jma-warnings-etl/internal/config"
	"github.com/wxjp/jma-warnings-etl/internal/domain"
)

// Writer produces warning records to a Kafka topic.
// It implements pipeline.RecordPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishRecords serializes and publishes records to the sink topic in a
// single WriteMessages call for efficiency.
func (w *Writer) PublishRecords(ctx context.Context, records []domain.WarningRecord) error {
	if len(records) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(records))
	for i := range records {
		msg, err := serializeToMessage(records[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a WarningRecord into a Kafka message keyed by
// the source entry, so all records of one report land on one partition.
func serializeToMessage(record domain.WarningRecord) (kafkago.Message, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize warning record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(record.EntryID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "kind", Value: []byte(record.Kind)},
			{Key: "report_datetime", Value: []byte(record.ReportedAt)},
		},
	}, nil
}
