package extract

import (
	"regexp"
	"strings"

	"github.com/Asif-shah786/zoopla-scraper/internal/model"
	"github.com/Asif-shah786/zoopla-scraper/internal/normalize"
)

var (
	nearestStationsRe  = regexp.MustCompile(`"nearestStations":\s*\[([^\]]+)\]`)
	stationDistancesRe = regexp.MustCompile(`"nearestStationsInMiles":\s*\[([^\]]+)\]`)
	nearestSchoolsRe   = regexp.MustCompile(`"nearestSchools":\s*\[([^\]]+)\]`)
)

// Fallback school phrases used when the document carries no school array.
const (
	goodSchoolsMarker  = "Good and Outstanding schools"
	goodSchoolsPhrase  = "Good and Outstanding schools in the area"
	localSchoolsMarker = "local schools"
	localSchoolsPhrase = "Local schools nearby"
)

// locationArrays reads station and school arrays embedded anywhere in the
// raw document.
func locationArrays(in Input) Result {
	var p Partial

	if names := arrayItems(nearestStationsRe, in.Raw); len(names) > 0 {
		p.Set(model.FieldNearestStations, strings.Join(names, ", "))
	}
	if dists := arrayItems(stationDistancesRe, in.Raw); len(dists) > 0 {
		for i, d := range dists {
			dists[i] = normalize.Miles(d)
		}
		p.Set(model.FieldStationDistances, strings.Join(dists, ", "))
	}

	switch schools := arrayItems(nearestSchoolsRe, in.Raw); {
	case len(schools) > 0:
		p.Set(model.FieldNearestSchools, strings.Join(schools, ", "))
	case strings.Contains(in.Raw, goodSchoolsMarker):
		p.Set(model.FieldNearestSchools, goodSchoolsPhrase)
	case strings.Contains(in.Raw, localSchoolsMarker):
		p.Set(model.FieldNearestSchools, localSchoolsPhrase)
	}
	return Result{Fields: p}
}

// arrayItems splits the first array captured by re into trimmed, unquoted
// items.
func arrayItems(re *regexp.Regexp, raw string) []string {
	m := re.FindStringSubmatch(raw)
	if m == nil {
		return nil
	}
	var out []string
	for _, item := range strings.Split(m[1], ",") {
		item = strings.Trim(strings.TrimSpace(item), `"`)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
