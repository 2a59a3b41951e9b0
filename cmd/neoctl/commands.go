package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"neowatch/internal/models"
	"neowatch/internal/utils"
)

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Load every day from --from up to yesterday in 7-day chunks",
	Long: `Backfill walks [from, yesterday] in chunks of SYNC_CHUNK_DAYS days.
A failed chunk is reported and skipped; rows already stored are left untouched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fromStr, _ := cmd.Flags().GetString("from")
		asJSON, _ := cmd.Flags().GetBool("json")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return withApp(ctx, true, func(ctx context.Context, a *app) error {
			if fromStr == "" {
				fromStr = a.cfg.Sync.BackfillStart
			}
			from, err := models.ParseDate(fromStr)
			if err != nil {
				return err
			}

			report, err := a.sync.Backfill(ctx, from)
			if report != nil {
				printBackfill(cmd.OutOrStdout(), report, asJSON)
			}
			return err
		})
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Load a single date range (default: yesterday)",
	RunE: func(cmd *cobra.Command, args []string) error {
		fromStr, _ := cmd.Flags().GetString("from")
		toStr, _ := cmd.Flags().GetString("to")
		asJSON, _ := cmd.Flags().GetBool("json")

		from, to, err := resolveRange(fromStr, toStr, time.Now())
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return withApp(ctx, true, func(ctx context.Context, a *app) error {
			report, err := a.sync.SyncRange(ctx, from, to)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), report)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d new asteroids (%d existing), %d new approaches (%d existing)\n",
				report.Window, report.Stats.AsteroidsInserted, report.Stats.AsteroidsExisting,
				report.Stats.ApproachesInserted, report.Stats.ApproachesExisting)
			return nil
		})
	},
}

var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Print stored asteroid and close-approach counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), false, func(ctx context.Context, a *app) error {
			asteroids, err := a.repo.CountAsteroids(ctx)
			if err != nil {
				return err
			}
			approaches, err := a.repo.CountApproaches(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "asteroids:        %d\nclose approaches: %d\n", asteroids, approaches)
			return nil
		})
	},
}

func init() {
	backfillCmd.Flags().String("from", "", "First day to load, YYYY-MM-DD (default SYNC_BACKFILL_START)")
	backfillCmd.Flags().Bool("json", false, "Print the run report as JSON")

	syncCmd.Flags().String("from", "", "First day, YYYY-MM-DD (default yesterday)")
	syncCmd.Flags().String("to", "", "Last day, YYYY-MM-DD (default --from)")
	syncCmd.Flags().Bool("json", false, "Print the run report as JSON")

	rootCmd.AddCommand(backfillCmd, syncCmd, countCmd)
}

// resolveRange: пустой from - вчера (UTC), пустой to - равен from.
func resolveRange(fromStr, toStr string, now time.Time) (time.Time, time.Time, error) {
	from := utils.Yesterday(now)
	if fromStr != "" {
		parsed, err := models.ParseDate(fromStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		from = parsed
	}

	to := from
	if toStr != "" {
		parsed, err := models.ParseDate(toStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to = parsed
	}

	return from, to, nil
}

func printBackfill(w io.Writer, report *models.BackfillReport, asJSON bool) {
	if asJSON {
		_ = writeJSON(w, report)
		return
	}

	fmt.Fprintf(w, "run %s: %s..%s\n", report.RunID, models.FormatDate(report.From), models.FormatDate(report.To))
	fmt.Fprintf(w, "chunks: %d ok / %d total\n", report.Succeeded, report.Chunks)
	fmt.Fprintf(w, "inserted: %d asteroids, %d approaches\n", report.Stats.AsteroidsInserted, report.Stats.ApproachesInserted)
	for _, f := range report.Failures {
		fmt.Fprintf(w, "failed %s at %s: %s\n", f.Window, f.Stage, f.Error)
	}
	if report.Cancelled {
		fmt.Fprintln(w, "cancelled before completion")
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
