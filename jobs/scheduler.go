package jobs

import (
	"context"
	"log"
	"time"

	"github.com/Kariqs/pizzaking-api/metrics"
)

type Func func(ctx context.Context) error

// NextRun returns the next occurrence of hour:minute strictly after now.
func NextRun(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Run executes a job once, logging and recording the outcome.
func Run(ctx context.Context, name string, fn Func) error {
	start := time.Now()
	if err := fn(ctx); err != nil {
		metrics.JobRuns.WithLabelValues(name, metrics.ResultError).Inc()
		log.Printf("Job %s failed after %s: %v", name, time.Since(start), err)
		return err
	}
	metrics.JobRuns.WithLabelValues(name, metrics.ResultOK).Inc()
	log.Printf("Job %s completed in %s", name, time.Since(start))
	return nil
}

// RunDailyAt runs fn every day at hour:minute local time until ctx is cancelled.
func RunDailyAt(ctx context.Context, hour, minute int, name string, fn Func) {
	for {
		next := NextRun(time.Now(), hour, minute)
		log.Printf("Next %s run scheduled at: %s", name, next.Format("2006-01-02 15:04:05"))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		Run(ctx, name, fn)
	}
}
