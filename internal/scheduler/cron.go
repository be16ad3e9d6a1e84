package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Runner triggers a DailyGate on a cron schedule.
type Runner struct {
	gate     *DailyGate
	cron     *cron.Cron
	schedule string
	parsed   cron.Schedule
	timeout  time.Duration
	logger   *slog.Logger
}

// NewRunner parses a standard five-field schedule such as "0 6 * * *".
func NewRunner(gate *DailyGate, schedule string, timeout time.Duration, logger *slog.Logger) (*Runner, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	parsed, err := parser.Parse(schedule)
	if err != nil {
		return nil, fmt.Errorf("invalid daily post schedule %q: %w", schedule, err)
	}

	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelWarn))
	r := &Runner{
		gate:     gate,
		schedule: schedule,
		parsed:   parsed,
		timeout:  timeout,
		logger:   logger,
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger), cron.Recover(cronLogger)),
		),
	}
	return r, nil
}

// Start schedules the gate and blocks until ctx is cancelled. A run in
// progress is allowed to finish.
func (r *Runner) Start(ctx context.Context) {
	r.cron.Schedule(r.parsed, cron.FuncJob(func() { r.runOnce(ctx) }))
	r.cron.Start()
	r.logger.Info("daily post scheduler started",
		"schedule", r.schedule,
		"next_run", r.parsed.Next(time.Now()),
	)

	<-ctx.Done()
	<-r.cron.Stop().Done()
	r.logger.Info("daily post scheduler stopped")
}

func (r *Runner) runOnce(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, r.timeout)
	defer cancel()

	out, err := r.gate.Run(ctx)
	if err != nil {
		r.logger.Error("daily post run failed", "error", err)
		return
	}
	if out.Skipped {
		r.logger.Info("daily post run skipped")
	}
}
