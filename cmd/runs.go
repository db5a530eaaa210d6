package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/Asif-shah786/zoopla-scraper/internal/ledger"
	"github.com/Asif-shah786/zoopla-scraper/internal/model"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect pipeline run history",
	Long:  "Commands for listing, viewing, and summarizing recorded pipeline runs.",
}

// -- runs list --

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pipeline runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx, cfg.Ledger)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")

		runs, err := st.ListRuns(ctx, ledger.RunFilter{
			Status: model.RunStatus(status),
			Limit:  limit,
		})
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(runs) == 0 {
			fmt.Fprintln(cmd.ErrOrStderr(), "No runs found.")
			return nil
		}

		formatRunsList(cmd.OutOrStdout(), runs)
		return nil
	},
}

// -- runs show --

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a run and its stages",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx, cfg.Ledger)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "runs show")
		}
		stages, err := st.ListStages(ctx, run.ID)
		if err != nil {
			return eris.Wrap(err, "runs show: stages")
		}

		return printJSON(cmd.OutOrStdout(), map[string]any{
			"run":    run,
			"stages": stages,
		})
	},
}

// -- runs stats --

var runsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate run statistics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx, cfg.Ledger)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		runs, err := st.ListRuns(ctx, ledger.RunFilter{Limit: 10000})
		if err != nil {
			return eris.Wrap(err, "runs stats")
		}

		since, _ := cmd.Flags().GetDuration("since")
		if since > 0 {
			runs = runsSince(runs, time.Now().Add(-since))
		}

		formatRunStats(cmd.OutOrStdout(), computeRunStats(runs))
		return nil
	},
}

func init() {
	runsListCmd.Flags().String("status", "", "filter by run status (running, completed, failed)")
	runsListCmd.Flags().Int("limit", 50, "max number of runs to display")

	runsStatsCmd.Flags().Duration("since", 7*24*time.Hour, "time window for stats (e.g. 24h, 168h)")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsStatsCmd)
	rootCmd.AddCommand(runsCmd)
}

// runStats holds aggregate statistics computed from a set of runs.
type runStats struct {
	Total       int
	Completed   int
	Failed      int
	Running     int
	AvgDuration time.Duration
	LastNumber  int
}

func computeRunStats(runs []model.Run) runStats {
	var (
		s        runStats
		finished int
		total    time.Duration
	)
	s.Total = len(runs)
	for _, r := range runs {
		switch r.Status {
		case model.RunStatusCompleted:
			s.Completed++
		case model.RunStatusFailed:
			s.Failed++
		case model.RunStatusRunning:
			s.Running++
		}
		if r.Status != model.RunStatusRunning && r.UpdatedAt.After(r.CreatedAt) {
			finished++
			total += r.UpdatedAt.Sub(r.CreatedAt)
		}
		if r.Number > s.LastNumber {
			s.LastNumber = r.Number
		}
	}
	if finished > 0 {
		s.AvgDuration = total / time.Duration(finished)
	}
	return s
}

func runsSince(runs []model.Run, cutoff time.Time) []model.Run {
	out := runs[:0:0]
	for _, r := range runs {
		if !r.CreatedAt.Before(cutoff) {
			out = append(out, r)
		}
	}
	return out
}

func formatRunStats(w io.Writer, s runStats) {
	fmt.Fprintf(w, "Total runs:     %d\n", s.Total)
	fmt.Fprintf(w, "Completed:      %d\n", s.Completed)
	fmt.Fprintf(w, "Failed:         %d\n", s.Failed)
	fmt.Fprintf(w, "Running:        %d\n", s.Running)
	if s.Total > 0 {
		fmt.Fprintf(w, "Success rate:   %.1f%%\n", float64(s.Completed)/float64(s.Total)*100)
	}
	if s.AvgDuration > 0 {
		fmt.Fprintf(w, "Avg duration:   %s\n", s.AvgDuration.Round(time.Second))
	}
	if s.LastNumber > 0 {
		fmt.Fprintf(w, "Last run:       #%d\n", s.LastNumber)
	}
}

// formatRunsList writes an aligned table of runs. Widths are measured in
// terminal cells so non-ASCII directory names line up.
func formatRunsList(w io.Writer, runs []model.Run) {
	header := []string{"ID", "RUN", "STATUS", "DIRECTORY", "CREATED"}
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			truncateID(r.ID),
			fmt.Sprintf("#%d", r.Number),
			string(r.Status),
			r.Dir,
			r.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if cw := runewidth.StringWidth(cell); cw > widths[i] {
				widths[i] = cw
			}
		}
	}

	writeRow := func(cells []string) {
		var b strings.Builder
		for i, cell := range cells {
			if i == len(cells)-1 {
				b.WriteString(cell)
				break
			}
			b.WriteString(runewidth.FillRight(cell, widths[i]))
			b.WriteString("  ")
		}
		fmt.Fprintln(w, b.String())
	}

	writeRow(header)
	for _, row := range rows {
		writeRow(row)
	}
}

// truncateID shortens a UUID to its first 8 characters for display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
