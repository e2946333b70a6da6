package policy

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"financecalc/internal/log"
)

// Scheduler reloads the provider on a cron schedule.
type Scheduler struct {
	cron     *cron.Cron
	provider *Provider
	logger   *log.Logger
	timeout  time.Duration
}

// NewScheduler parses a standard five-field cron spec.
func NewScheduler(provider *Provider, spec string, logger *log.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = log.Discard()
	}
	s := &Scheduler{
		cron:     cron.New(),
		provider: provider,
		logger:   logger.WithComponent(log.ComponentScheduler),
		timeout:  30 * time.Second,
	}
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, fmt.Errorf("invalid policy refresh schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.provider.Reload(ctx); err != nil {
		s.logger.Error("Scheduled policy reload failed", log.FieldError, err.Error())
		return
	}
	s.logger.Debug("Scheduled policy reload completed")
}

// Start runs the schedule in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Policy refresh scheduled", "entries", len(s.cron.Entries()))
}

// Stop halts the schedule and waits for a running reload to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
