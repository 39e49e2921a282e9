package jobs

import (
	"context"
	"log"
	"time"

	"github.com/Kariqs/pizzaking-api/initializers"
	"github.com/Kariqs/pizzaking-api/services"
)

const (
	DailyAnalyticsJob   = "daily-analytics"
	ExpirePromotionsJob = "expire-promotions"
)

// DailyAnalyticsFor returns a job that aggregates the given day.
func DailyAnalyticsFor(day time.Time) Func {
	return func(ctx context.Context) error {
		report, err := services.DailyAnalytics(ctx, day)
		if err != nil {
			return err
		}
		log.Printf("Analytics for %s: %d orders, %d FCFA revenue", report.Date, report.TotalOrders, report.Revenue)
		return nil
	}
}

func dailyAnalytics(ctx context.Context) error {
	return DailyAnalyticsFor(time.Now().AddDate(0, 0, -1))(ctx)
}

func expirePromotions(ctx context.Context) error {
	count, err := services.ExpirePromotions(ctx, time.Now())
	if err != nil {
		return err
	}
	log.Printf("Expired %d promotions", count)
	return nil
}

var registry = map[string]Func{
	DailyAnalyticsJob:   dailyAnalytics,
	ExpirePromotionsJob: expirePromotions,
}

// Lookup returns the job registered under name.
func Lookup(name string) (Func, bool) {
	fn, ok := registry[name]
	return fn, ok
}

func Names() []string {
	return []string{DailyAnalyticsJob, ExpirePromotionsJob}
}

// Start schedules every job at its configured hour. It returns immediately.
func Start(ctx context.Context, cfg initializers.JobsConfig) {
	if !cfg.Enabled {
		log.Println("Scheduled jobs are disabled.")
		return
	}
	go RunDailyAt(ctx, cfg.AnalyticsHour, 0, DailyAnalyticsJob, dailyAnalytics)
	go RunDailyAt(ctx, cfg.PromotionsHour, 0, ExpirePromotionsJob, expirePromotions)
}
