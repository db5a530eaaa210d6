package pipeline

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/rotisserie/eris"
)

// Artifact file names inside a run directory.
const (
	ScrapedJSON       = "scraped_data.json"
	ScrapedCSV        = "scraped_data.csv"
	CrimeSummaries    = "property_crime_summaries.json"
	PropertiesCrime   = "properties_with_crime.json"
	RunReadyJSON      = "run_ready.json"
	RunReadyCSV       = "run_ready.csv"
	RunReadyXLSX      = "run_ready.xlsx"
	RunSummaryJSON    = "run_summary.json"
	RunLogFile        = "run_log.txt"
	runDirPrefix      = "run_"
	maxRunDirAttempts = 100
)

var runDirRe = regexp.MustCompile(`^run_(\d+)$`)

// NextRunNumber returns one more than the highest run_N directory under
// root, or 1 when there are none.
func NextRunNumber(root string) (int, error) {
	entries, err := os.ReadDir(root)
	if os.IsNotExist(err) {
		return 1, nil
	}
	if err != nil {
		return 0, eris.Wrapf(err, "pipeline: list %s", root)
	}
	highest := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		m := runDirRe.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n > highest {
			highest = n
		}
	}
	return highest + 1, nil
}

// CreateRunDir creates the next run_N directory under root and returns its
// number and path.
func CreateRunDir(root string) (int, string, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return 0, "", eris.Wrapf(err, "pipeline: create %s", root)
	}
	n, err := NextRunNumber(root)
	if err != nil {
		return 0, "", err
	}
	for i := 0; i < maxRunDirAttempts; i++ {
		dir := filepath.Join(root, runDirPrefix+strconv.Itoa(n))
		err := os.Mkdir(dir, 0o755)
		if err == nil {
			return n, dir, nil
		}
		if !os.IsExist(err) {
			return 0, "", eris.Wrapf(err, "pipeline: create %s", dir)
		}
		n++
	}
	return 0, "", eris.Errorf("pipeline: no free run directory under %s", root)
}
