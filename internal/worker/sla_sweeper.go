package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/devdesk/helpdesk/internal/observability"
	"github.com/devdesk/helpdesk/internal/service"
)

// Sweeper periodically scans for tickets past their SLA deadline and
// drives the escalation pipeline. One run may overlap a very slow
// predecessor only at the database level, where the conditional
// notified-at update keeps each breach to a single escalation.
type Sweeper struct {
	sla      *service.SLAService
	interval time.Duration
	logger   *zap.Logger
	metrics  *observability.Metrics

	stopOnce sync.Once
	done     chan struct{}
	finished chan struct{}
}

// NewSweeper constructs a sweeper ticking at the given interval.
func NewSweeper(sla *service.SLAService, interval time.Duration, logger *zap.Logger, metrics *observability.Metrics) *Sweeper {
	return &Sweeper{
		sla:      sla,
		interval: interval,
		logger:   logger,
		metrics:  metrics,
		done:     make(chan struct{}),
		finished: make(chan struct{}),
	}
}

// Start launches the sweep loop in its own goroutine. The first sweep
// happens after one full interval, not immediately.
func (s *Sweeper) Start() {
	s.logger.Info("sla sweeper started", zap.Duration("interval", s.interval))
	go s.run()
}

// Stop halts the loop and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
	})
	<-s.finished
	s.logger.Info("sla sweeper stopped")
}

func (s *Sweeper) run() {
	defer close(s.finished)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.interval)
	defer cancel()

	breached, err := s.sla.RunSweep(ctx)
	if err != nil {
		s.logger.Error("sla sweep failed", zap.Error(err))
		return
	}
	s.metrics.RecordSweep(breached)
	if breached > 0 {
		s.logger.Info("sla sweep completed", zap.Int("breached", breached))
	}
}
