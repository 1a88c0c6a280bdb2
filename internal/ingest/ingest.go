// Package ingest consumes raw TAC reports from NATS, parses and archives
// them, and publishes the parsed result to the configured sinks.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go"

	"tac_codec/internal/codec"
	"tac_codec/internal/conversion"
	"tac_codec/internal/observability"
	"tac_codec/internal/storage"
)

// Result is the message published for every consumed report.
type Result struct {
	ReceivedAt time.Time     `json:"received_at"`
	Aerodrome  string        `json:"aerodrome,omitempty"`
	Report     *codec.Report `json:"report"`
	Error      string        `json:"error,omitempty"`
}

// Sink receives every parsed result.
type Sink interface {
	Publish(ctx context.Context, res *Result, payload []byte) error
	Close() error
}

// Service ties a converter to an archive and a set of sinks.
type Service struct {
	conv    *codec.Converter
	store   storage.Store
	sinks   []Sink
	hints   conversion.Hints
	clock   clockwork.Clock
	log     *slog.Logger
	metrics *observability.Metrics

	// resultSink is owned by Run and replaced on every call.
	mu         sync.RWMutex
	resultSink Sink
}

// Option configures a Service.
type Option func(*Service)

// WithStore archives every parsed report.
func WithStore(s storage.Store) Option { return func(svc *Service) { svc.store = s } }

// WithSink adds a result sink.
func WithSink(s Sink) Option {
	return func(svc *Service) {
		if s != nil {
			svc.sinks = append(svc.sinks, s)
		}
	}
}

// WithMetrics records ingest metrics.
func WithMetrics(m *observability.Metrics) Option { return func(svc *Service) { svc.metrics = m } }

// WithClock sets the clock used for receive timestamps.
func WithClock(c clockwork.Clock) Option { return func(svc *Service) { svc.clock = c } }

// NewService returns a Service parsing with conv under hints.
func NewService(conv *codec.Converter, hints conversion.Hints, log *slog.Logger, opts ...Option) *Service {
	if log == nil {
		log = slog.Default()
	}
	s := &Service{conv: conv, hints: hints, log: log, clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handle parses one raw report, archives it and fans the result out to the
// sinks. The returned payload is the JSON encoded Result. Store and sink
// failures are logged and do not fail the message.
func (s *Service) Handle(ctx context.Context, raw []byte) ([]byte, error) {
	start := s.clock.Now()
	res := &Result{ReceivedAt: start.UTC()}

	r, err := s.conv.Parse(string(raw), s.hints)
	if err != nil {
		res.Error = err.Error()
	} else {
		res.Report = r
		res.Aerodrome = r.Aerodrome()
		if s.metrics != nil {
			s.metrics.ObserveReport(r)
			s.metrics.ParseDuration.Observe(s.clock.Since(start).Seconds())
		}
		if s.store != nil {
			if err := s.store.Save(ctx, storage.NewRecord(r, res.ReceivedAt)); err != nil {
				s.log.Error("archive report", "aerodrome", res.Aerodrome, "error", err)
				if s.metrics != nil {
					s.metrics.StoreErrors.Inc()
				}
			}
		}
	}

	payload, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}

	for _, sink := range s.publishers() {
		if err := sink.Publish(ctx, res, payload); err != nil {
			s.log.Error("publish result", "aerodrome", res.Aerodrome, "error", err)
		}
	}
	return payload, nil
}

func (s *Service) publishers() []Sink {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.resultSink == nil {
		return s.sinks
	}
	return append(s.sinks[:len(s.sinks):len(s.sinks)], s.resultSink)
}

// setResultSink installs sink as the Run result sink, replacing any earlier
// one. A nil sink removes it.
func (s *Service) setResultSink(sink Sink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resultSink = sink
}

// Run subscribes to subject in the given queue group and handles messages
// until ctx is done. Results are published to resultSubject and, when the
// message carries one, to its reply subject.
func (s *Service) Run(ctx context.Context, nc *nats.Conn, subject, queue, resultSubject string) error {
	if nc == nil {
		return errors.New("ingest: no NATS connection")
	}
	if resultSubject != "" {
		s.setResultSink(NewNATSSink(nc, resultSubject, s.metrics))
	} else {
		s.setResultSink(nil)
	}
	defer s.setResultSink(nil)

	sub, err := nc.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		if s.metrics != nil {
			s.metrics.MessagesConsumed.Inc()
		}
		payload, err := s.Handle(ctx, msg.Data)
		if err != nil {
			s.log.Error("handle message", "subject", msg.Subject, "error", err)
			return
		}
		if msg.Reply != "" {
			if err := msg.Respond(payload); err != nil {
				s.log.Error("reply", "subject", msg.Reply, "error", err)
			}
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	s.log.Info("ingest started", "subject", subject, "queue", queue, "result_subject", resultSubject)

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		s.log.Warn("drain subscription", "error", err)
	}
	s.log.Info("ingest stopped")
	return nil
}

// Close closes every sink.
func (s *Service) Close() error {
	var errs []error
	for _, sink := range s.sinks {
		errs = append(errs, sink.Close())
	}
	return errors.Join(errs...)
}

// Connect dials NATS with reconnects enabled.
func Connect(url string, log *slog.Logger) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("tacconv"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return nc, nil
}
