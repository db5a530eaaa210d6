package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// Validate checks that the settings a command mode depends on are usable.
// Modes: "run", "crime", "serve".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "run":
		if c.Scrape.SearchURL == "" {
			errs = append(errs, "scrape.search_url is required")
		}
		if c.Scrape.Pages < 1 {
			errs = append(errs, "scrape.pages must be >= 1")
		}
		if c.Scrape.MaxProperties < 1 {
			errs = append(errs, "scrape.max_properties must be >= 1")
		}
		if c.Ledger.RunsDir == "" {
			errs = append(errs, "ledger.runs_dir is required")
		}
		if c.POI.Enabled && c.POI.BaseURL == "" {
			errs = append(errs, "poi.base_url is required when poi.enabled")
		}
	case "crime":
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Police.Months < 1 || c.Police.Months > 24 {
		errs = append(errs, "police.months must be between 1 and 24")
	}
	if c.Police.RadiusKm <= 0 {
		errs = append(errs, "police.radius_km must be > 0")
	}
	if c.Crime.Concurrency < 1 || c.Crime.Concurrency > 16 {
		errs = append(errs, "crime.concurrency must be between 1 and 16")
	}
	if d := c.Ledger.Driver; d != "sqlite" && d != "postgres" {
		errs = append(errs, fmt.Sprintf("ledger.driver must be sqlite or postgres, got %q", d))
	}
	if c.Ledger.Driver == "postgres" && c.Ledger.DSN == "" {
		errs = append(errs, "ledger.dsn is required for postgres")
	}
	if l := c.Ledger; l.MaxConns > 0 && l.MinConns > l.MaxConns {
		errs = append(errs, "ledger.min_conns must not exceed ledger.max_conns")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: invalid for %s: %s", mode, strings.Join(errs, "; "))
	}
	return nil
}
