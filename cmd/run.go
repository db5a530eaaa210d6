package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Asif-shah786/zoopla-scraper/internal/pipeline"
	"github.com/Asif-shah786/zoopla-scraper/internal/preprocess"
)

var (
	runPages int
	runMax   int
	runQuery string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Scrape listings, add crime profiles, and write run-ready data",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		flags := cmd.Flags()
		if flags.Changed("pages") {
			cfg.Scrape.Pages = runPages
		}
		if flags.Changed("max") {
			cfg.Scrape.MaxProperties = runMax
		}
		if flags.Changed("query") {
			cfg.Scrape.Query = runQuery
		}
		if err := cfg.Validate("run"); err != nil {
			return err
		}

		schema := preprocess.DefaultSchema()
		if path := cfg.Preprocess.SchemaPath; path != "" {
			s, err := preprocess.LoadSchema(path)
			if err != nil {
				return err
			}
			schema = s
		}

		st, err := initStore(ctx, cfg.Ledger)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		p := pipeline.New(
			pipeline.OptionsFromConfig(cfg, schema),
			buildFetcher(cfg),
			buildEngine(cfg),
			buildAggregator(cfg),
			st,
		)
		if g := buildGeocoder(cfg, st); g != nil {
			p.SetGeocoder(g)
		} else {
			zap.L().Info("geocoding disabled, records without coordinates get no crime profile")
		}
		if pc := buildPOI(cfg); pc != nil {
			p.SetPOISource(pc)
		}

		summary, err := p.Run(ctx)
		if summary.RunID != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "run %d %s in %.1fs: %s\n",
				summary.RunNumber, summary.OverallStatus, summary.TotalDurationSeconds, summary.RunDirectory)
		}
		return err
	},
}

func init() {
	runCmd.Flags().IntVar(&runPages, "pages", 1, "search result pages to walk")
	runCmd.Flags().IntVar(&runMax, "max", 10, "maximum listings to scrape")
	runCmd.Flags().StringVar(&runQuery, "query", "", "search location")
	rootCmd.AddCommand(runCmd)
}
