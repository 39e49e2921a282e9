package main

import (
	"time"

	"github.com/Kariqs/pizzaking-api/jobs"
	"github.com/spf13/cobra"
)

var analyticsDate string

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Run a scheduled job once",
}

var dailyAnalyticsCmd = &cobra.Command{
	Use:   jobs.DailyAnalyticsJob,
	Short: "Aggregate one day of orders (yesterday by default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		day := time.Now().AddDate(0, 0, -1)
		if analyticsDate != "" {
			parsed, err := time.ParseInLocation(time.DateOnly, analyticsDate, time.Local)
			if err != nil {
				return err
			}
			day = parsed
		}
		if _, err := bootstrap(); err != nil {
			return err
		}
		return jobs.Run(cmd.Context(), jobs.DailyAnalyticsJob, jobs.DailyAnalyticsFor(day))
	},
}

var expirePromotionsCmd = &cobra.Command{
	Use:   jobs.ExpirePromotionsJob,
	Short: "Deactivate promotions whose validity window has closed",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := bootstrap(); err != nil {
			return err
		}
		fn, _ := jobs.Lookup(jobs.ExpirePromotionsJob)
		return jobs.Run(cmd.Context(), jobs.ExpirePromotionsJob, fn)
	},
}

func init() {
	dailyAnalyticsCmd.Flags().StringVar(&analyticsDate, "date", "", "day to aggregate, YYYY-MM-DD")
	jobsCmd.AddCommand(dailyAnalyticsCmd)
	jobsCmd.AddCommand(expirePromotionsCmd)
}
