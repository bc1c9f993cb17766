package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/quantfolio/portfolio-analytics-backend/internal/service"
)

// refreshTimeout bounds one full refresh run across all tickers.
const refreshTimeout = 10 * time.Minute

// Scheduler runs the background price refresh on a cron schedule.
type Scheduler struct {
	cron   *cron.Cron
	prices *service.PriceService
	logger zerolog.Logger
}

// New creates a Scheduler that refreshes prices per the given cron spec.
func New(prices *service.PriceService, spec string, logger zerolog.Logger) (*Scheduler, error) {
	c := cron.New()
	s := &Scheduler{cron: c, prices: prices, logger: logger}

	if _, err := c.AddFunc(spec, s.run); err != nil {
		return nil, err
	}
	return s, nil
}

// Start launches the cron loop in its own goroutine.
func (s *Scheduler) Start() {
	s.logger.Info().Msg("price refresh scheduler started")
	s.cron.Start()
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info().Msg("price refresh scheduler stopped")
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	s.logger.Info().Msg("scheduled price refresh starting")
	s.prices.RefreshAll(ctx)
}
