package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pkordes/nexttrip/backend/internal/app"
)

func (r *root) newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show trip statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withApp(cmd, func(ctx context.Context, a *app.App) error {
				stats, err := a.Trips.Stats(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if r.output != "table" {
					return r.print(out, stats)
				}

				fmt.Fprintln(out, "NexTrip Statistics")
				fmt.Fprintln(out, strings.Repeat("=", 40))
				fmt.Fprintf(out, "  Trips:         %d total\n", stats.Total)
				fmt.Fprintf(out, "  Planned:       %d\n", stats.Planned)
				fmt.Fprintf(out, "  Active:        %d\n", stats.Active)
				fmt.Fprintf(out, "  Completed:     %d\n", stats.Completed)
				fmt.Fprintf(out, "  Cancelled:     %d\n", stats.Cancelled)
				fmt.Fprintf(out, "  Total budget:  %s\n", stats.TotalBudget.StringFixed(2))
				fmt.Fprintf(out, "  Avg budget:    %s\n", stats.AverageBudget.StringFixed(2))
				fmt.Fprintf(out, "  Destinations:  %d\n", len(stats.Destinations))
				fmt.Fprintf(out, "  Countries:     %d\n", len(stats.Countries))

				if len(stats.UpcomingTrips) == 0 {
					return nil
				}
				fmt.Fprintln(out)
				t := NewTable("ID", "NAME", "DESTINATION", "START")
				for _, trip := range stats.UpcomingTrips {
					start := "-"
					if trip.StartDate != nil {
						start = trip.StartDate.Format("2006-01-02")
					}
					t.AddRow(trip.ID.String(), truncate(trip.Name, 30), truncate(trip.Destination, 24), start)
				}
				return t.Render(out)
			})
		},
	}
}
