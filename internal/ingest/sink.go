package ingest

import (
	"context"
	"log/slog"

	"github.com/nats-io/nats.go"
	kafkago "github.com/segmentio/kafka-go"

	"tac_codec/internal/observability"
)

// NATSSink publishes results to a fixed subject.
type NATSSink struct {
	conn    *nats.Conn
	subject string
	metrics *observability.Metrics
}

// NewNATSSink returns a sink publishing to subject on nc.
func NewNATSSink(nc *nats.Conn, subject string, m *observability.Metrics) *NATSSink {
	return &NATSSink{conn: nc, subject: subject, metrics: m}
}

func (n *NATSSink) Publish(_ context.Context, _ *Result, payload []byte) error {
	if err := n.conn.Publish(n.subject, payload); err != nil {
		return err
	}
	if n.metrics != nil {
		n.metrics.MessagesProduced.WithLabelValues("nats").Inc()
	}
	return nil
}

// Close is a no-op; the connection belongs to the caller.
func (n *NATSSink) Close() error { return nil }

// KafkaSink produces results to a Kafka topic keyed by aerodrome.
type KafkaSink struct {
	writer  *kafkago.Writer
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewKafkaSink creates a producer for topic on brokers.
func NewKafkaSink(brokers []string, topic string, logger *slog.Logger, m *observability.Metrics) *KafkaSink {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &KafkaSink{writer: w, logger: logger, metrics: m}
}

func (k *KafkaSink) Publish(ctx context.Context, res *Result, payload []byte) error {
	if err := k.writer.WriteMessages(ctx, toMessage(res, payload)); err != nil {
		return err
	}
	if k.metrics != nil {
		k.metrics.MessagesProduced.WithLabelValues("kafka").Inc()
	}
	return nil
}

func (k *KafkaSink) Close() error {
	return k.writer.Close()
}

// toMessage keys the message by aerodrome so one station stays ordered
// within its partition.
func toMessage(res *Result, payload []byte) kafkago.Message {
	msg := kafkago.Message{
		Key:   []byte(res.Aerodrome),
		Value: payload,
		Time:  res.ReceivedAt,
	}
	if res.Report != nil {
		msg.Headers = []kafkago.Header{
			{Key: "kind", Value: []byte(res.Report.Kind)},
			{Key: "status", Value: []byte(res.Report.Status)},
		}
	}
	return msg
}
