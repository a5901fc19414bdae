package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pkordes/nexttrip/backend/internal/app"
	"github.com/pkordes/nexttrip/backend/internal/service"
)

func (r *root) newExportCmd() *cobra.Command {
	var outFile string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export trips, account data or the tracked route",
	}
	cmd.PersistentFlags().StringVarP(&outFile, "file", "f", "", "write to this file instead of stdout")

	write := func(cmd *cobra.Command, data []byte) error {
		if outFile == "" {
			_, err := cmd.OutOrStdout().Write(data)
			return err
		}
		if err := os.WriteFile(outFile, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", outFile, err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d bytes to %s\n", len(data), outFile)
		return nil
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "data",
		Short: "Export the signed-in account with all trips and memories as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withApp(cmd, func(ctx context.Context, a *app.App) error {
				data, err := a.Export.DataJSON(ctx)
				if err != nil {
					return err
				}
				return write(cmd, data)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "gpx",
		Short: "Export tracked locations as a GPX 1.1 track",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withApp(cmd, func(ctx context.Context, a *app.App) error {
				data, err := a.Export.GPX(ctx)
				if err != nil {
					return err
				}
				return write(cmd, data)
			})
		},
	})

	var format string
	tripCmd := &cobra.Command{
		Use:   "trip <id>",
		Short: "Export one trip as JSON, CSV or PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid trip id %q: %w", args[0], err)
			}
			var render func(*service.ExportService, context.Context, uuid.UUID) ([]byte, error)
			switch format {
			case "json":
				render = (*service.ExportService).TripJSON
			case "csv":
				render = (*service.ExportService).TripCSV
			case "pdf":
				render = (*service.ExportService).TripPDF
			default:
				return fmt.Errorf("unknown export format %q (want json, csv or pdf)", format)
			}
			return r.withApp(cmd, func(ctx context.Context, a *app.App) error {
				data, err := render(a.Export, ctx, id)
				if err != nil {
					return err
				}
				if outFile == "" && format == "pdf" && isTerminal(cmd.OutOrStdout()) {
					trip, err := a.Trips.Get(ctx, id)
					if err != nil {
						return err
					}
					outFile = service.TripFilename(trip, format)
				}
				return write(cmd, data)
			})
		},
	}
	tripCmd.Flags().StringVar(&format, "format", "json", "export format: json, csv, pdf")
	cmd.AddCommand(tripCmd)
	return cmd
}

// isTerminal reports whether w is a character device such as a TTY.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}
