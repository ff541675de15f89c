package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/opendata-catalog-etl/internal/config"
	"github.com/couchcryptid/opendata-catalog-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

const (
	headerModified   = "modified"
	headerIngestedAt = "ingested_at"
)

// Writer publishes upserted catalog records to a Kafka topic, one message per
// dataset. It implements pipeline.RecordPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured catalog topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishBatch serializes the page's records and sends them in a single
// WriteMessages call. Records with the same dataset id land on the same
// partition, so consumers see updates in ingestion order.
func (w *Writer) PublishBatch(ctx context.Context, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}
	ingestedAt := domain.Now()
	msgs := make([]kafkago.Message, len(records))
	for i := range records {
		msg, err := serializeToMessage(records[i], ingestedAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %d catalog records: %w", len(msgs), err)
	}
	w.logger.Debug("catalog records published", "count", len(msgs), "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a record into a Kafka message keyed by dataset id.
func serializeToMessage(rec domain.Record, ingestedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize catalog record %s: %w", rec.Dataset.ID, err)
	}
	headers := make([]kafkago.Header, 0, 2)
	if rec.Dataset.Modified != nil {
		headers = append(headers, kafkago.Header{Key: headerModified, Value: []byte(*rec.Dataset.Modified)})
	}
	headers = append(headers, kafkago.Header{Key: headerIngestedAt, Value: []byte(ingestedAt.Format(time.RFC3339))})
	return kafkago.Message{
		Key:     []byte(rec.Dataset.ID),
		Value:   data,
		Headers: headers,
	}, nil
}

// HeaderMap flattens message headers for lookup by key.
func HeaderMap(msg kafkago.Message) map[string]string {
	m := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		m[h.Key] = string(h.Value)
	}
	return m
}
