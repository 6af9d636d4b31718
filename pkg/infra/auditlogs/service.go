package auditlogs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rimareum/gatekeeper/pkg/domain/security"
	"github.com/rimareum/gatekeeper/pkg/infra/prometheus"
	"github.com/sirupsen/logrus"
)

const (
	defaultQueueSize    = 1000
	defaultWorkers      = 2
	defaultWriteTimeout = 5 * time.Second
)

//go:generate mockery --name=Auditor --dir=. --output=./mocks --filename=auditor_mock.go --case=underscore
type Auditor interface {
	Record(ctx context.Context, evt *security.Event)
}

type Options struct {
	QueueSize    int
	Workers      int
	WriteTimeout time.Duration
	Notifier     Notifier
}

// Service fans audit events out to its sinks from a fixed worker pool.
// Record never blocks on persistence: when the queue is full the event is
// dropped and counted.
type Service struct {
	logger       *logrus.Logger
	sinks        []Sink
	notifier     Notifier
	queue        chan *security.Event
	writeTimeout time.Duration

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewService(logger *logrus.Logger, sinks []Sink, opts Options) *Service {
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = defaultWriteTimeout
	}
	if opts.Notifier == nil {
		opts.Notifier = NewLogNotifier(logger)
	}
	s := &Service{
		logger:       logger,
		sinks:        sinks,
		notifier:     opts.Notifier,
		queue:        make(chan *security.Event, opts.QueueSize),
		writeTimeout: opts.WriteTimeout,
	}
	s.wg.Add(opts.Workers)
	for i := 0; i < opts.Workers; i++ {
		go s.run()
	}
	return s
}

// Record notifies synchronously for HIGH severity events and queues the
// event for the sinks.
func (s *Service) Record(ctx context.Context, evt *security.Event) {
	if evt == nil {
		return
	}
	if evt.Severity == security.SeverityHigh {
		if err := s.notify(ctx, evt); err != nil {
			s.logger.WithError(err).WithField("event_id", evt.ID.String()).Warn("failed to notify security alert")
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.logger.WithField("event_id", evt.ID.String()).Debug("audit service closed, event discarded")
		return
	}
	select {
	case s.queue <- evt:
	default:
		prometheus.AuditDropped.Inc()
		s.logger.WithFields(logrus.Fields{
			"event_id":    evt.ID.String(),
			"ip":          evt.IP,
			"threat_type": evt.ThreatType,
		}).Warn("audit queue is full, dropping event")
	}
}

func (s *Service) run() {
	defer s.wg.Done()
	for evt := range s.queue {
		s.write(evt)
	}
}

func (s *Service) write(evt *security.Event) {
	for _, sink := range s.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
		err := s.writeSink(ctx, sink, evt)
		cancel()
		if err != nil {
			prometheus.AuditEvents.WithLabelValues(sink.Name(), "error").Inc()
			s.logger.WithFields(logrus.Fields{
				"sink":     sink.Name(),
				"event_id": evt.ID.String(),
			}).WithError(err).Error("failed to persist security event")
			continue
		}
		prometheus.AuditEvents.WithLabelValues(sink.Name(), "ok").Inc()
	}
}

func (s *Service) writeSink(ctx context.Context, sink Sink, evt *security.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink panic: %v", r)
		}
	}()
	return sink.Write(ctx, evt)
}

func (s *Service) notify(ctx context.Context, evt *security.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notifier panic: %v", r)
		}
	}()
	return s.notifier.Notify(ctx, evt)
}

// Close drains the queue, stops the workers and closes every sink.
func (s *Service) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	s.logger.Info("shutting down audit workers")
	s.wg.Wait()

	var errs []error
	for _, sink := range s.sinks {
		if err := sink.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s sink: %w", sink.Name(), err))
		}
	}
	s.logger.Info("audit workers stopped")
	return errors.Join(errs...)
}

// Discard is an Auditor that records nothing.
type Discard struct{}

func (Discard) Record(context.Context, *security.Event) {}
