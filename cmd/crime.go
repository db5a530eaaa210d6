package main

import (
	"context"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/Asif-shah786/zoopla-scraper/internal/crime"
)

var (
	crimeLat      float64
	crimeLng      float64
	crimeAddress  string
	crimePostcode string
)

var crimeCmd = &cobra.Command{
	Use:   "crime",
	Short: "Profile six months of street crime around a coordinate",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("crime"); err != nil {
			return err
		}
		if !cmd.Flags().Changed("lat") || !cmd.Flags().Changed("lng") {
			return eris.New("crime: --lat and --lng are required")
		}
		t := crime.Target{Address: crimeAddress, Postcode: crimePostcode, Lat: crimeLat, Lng: crimeLng}
		return runCrime(cmd.Context(), cmd.OutOrStdout(), buildAggregator(cfg), t, cfg.Police.RadiusKm)
	},
}

func init() {
	crimeCmd.Flags().Float64Var(&crimeLat, "lat", 0, "latitude")
	crimeCmd.Flags().Float64Var(&crimeLng, "lng", 0, "longitude")
	crimeCmd.Flags().StringVar(&crimeAddress, "address", "", "address quoted in the summary")
	crimeCmd.Flags().StringVar(&crimePostcode, "postcode", "", "postcode quoted in the summary")
	rootCmd.AddCommand(crimeCmd)
}

func runCrime(ctx context.Context, w io.Writer, agg *crime.Aggregator, t crime.Target, radiusKm float64) error {
	if t.Lat < -90 || t.Lat > 90 || t.Lng < -180 || t.Lng > 180 {
		return eris.Errorf("crime: coordinate %f,%f out of range", t.Lat, t.Lng)
	}
	sum := crime.Summarize(ctx, agg, t)
	if radiusKm > 0 && radiusKm != crime.DefaultRadiusKm {
		sum.Summary = crime.BuildSummaryRadius(sum.Address, sum.Postcode, sum.Aggregate, radiusKm)
	}
	return printJSON(w, sum)
}
