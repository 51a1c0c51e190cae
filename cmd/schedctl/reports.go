package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hackgods/consultation-scheduling/internal/client"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "report", Short: "Day and cancellation reports"}

	var statsDate string
	stats := &cobra.Command{
		Use:   "stats",
		Short: "Appointment counts for one day",
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := parseDateFlag("date", statsDate)
			if err != nil {
				return err
			}
			return withClient(cmd.Context(), func(ctx context.Context, c *client.Client) error {
				s, err := c.DayStats(ctx, date)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(s)
				}
				fmt.Printf("%s: total=%d scheduled=%d completed=%d cancelled=%d\n",
					s.Date.Format("2006-01-02"), s.Total, s.Scheduled, s.Completed, s.Cancelled)
				return nil
			})
		},
	}
	stats.Flags().StringVar(&statsDate, "date", "", "day, defaults to today")

	var dayDate, dayOut string
	day := &cobra.Command{
		Use:   "day",
		Short: "Full report for one day",
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := parseDateFlag("date", dayDate)
			if err != nil {
				return err
			}
			return withClient(cmd.Context(), func(ctx context.Context, c *client.Client) error {
				if viper.GetBool("json") {
					sum, err := c.DaySummary(ctx, date)
					if err != nil {
						return err
					}
					return printJSON(sum)
				}
				text, err := c.DayReport(ctx, date)
				if err != nil {
					return err
				}
				return emit(text, dayOut)
			})
		},
	}
	day.Flags().StringVar(&dayDate, "date", "", "day, defaults to today")
	day.Flags().StringVar(&dayOut, "out", "", "write the report to this file")

	var start, end, cancOut string
	cancellations := &cobra.Command{
		Use:   "cancellations",
		Short: "Cancellations in a date range, defaults to the last 30 days",
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := parseDateFlag("start", start)
			if err != nil {
				return err
			}
			to, err := parseDateFlag("end", end)
			if err != nil {
				return err
			}
			return withClient(cmd.Context(), func(ctx context.Context, c *client.Client) error {
				if viper.GetBool("json") {
					sum, err := c.Cancellations(ctx, from, to)
					if err != nil {
						return err
					}
					return printJSON(sum)
				}
				text, err := c.CancellationReport(ctx, from, to)
				if err != nil {
					return err
				}
				return emit(text, cancOut)
			})
		},
	}
	cancellations.Flags().StringVar(&start, "start", "", "first cancellation day, 2006-01-02")
	cancellations.Flags().StringVar(&end, "end", "", "last cancellation day, 2006-01-02")
	cancellations.Flags().StringVar(&cancOut, "out", "", "write the report to this file")

	cmd.AddCommand(stats, day, cancellations)
	return cmd
}

func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check API readiness",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *client.Client) error {
				r, err := c.Ready(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(r)
				}
				fmt.Printf("status=%s version=%s postgres=%s redis=%s\n",
					r.Status, r.Version, r.Dependencies["postgres"], r.Dependencies["redis"])
				return nil
			})
		},
	}
}

// emit prints text, or writes it to path when one is given.
func emit(text, path string) error {
	if path == "" {
		fmt.Print(text)
		return nil
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	fmt.Printf("report written to %s\n", path)
	return nil
}
