package extract

import (
	"strings"

	"github.com/Asif-shah786/zoopla-scraper/internal/model"
	"github.com/Asif-shah786/zoopla-scraper/internal/normalize"
)

// pointsOfInterest formats a supplied POI payload. Its results replace
// whatever the embedded arrays produced.
func pointsOfInterest(in Input) Result {
	if len(in.POI) == 0 {
		return Result{}
	}

	var schools, stations []string
	for _, pt := range in.POI {
		if strings.TrimSpace(pt.Name) == "" {
			continue
		}
		switch pt.Kind {
		case model.PointSchool:
			schools = append(schools, FormatPoint(pt))
		case model.PointTransport:
			stations = append(stations, FormatPoint(pt))
		}
	}

	var p Partial
	if len(schools) > 0 {
		p.Overwrite(model.FieldNearestSchools, strings.Join(schools, ", "))
	}
	if len(stations) > 0 {
		p.Overwrite(model.FieldNearestStations, strings.Join(stations, ", "))
	}
	return Result{Fields: p}
}

// FormatPoint renders a point as "name (distance miles)", or
// "name (type) (distance miles)" when the point carries a type.
func FormatPoint(pt model.Point) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(pt.Name))
	if t := strings.TrimSpace(pt.Type); t != "" {
		b.WriteString(" (")
		b.WriteString(t)
		b.WriteString(")")
	}
	b.WriteString(" (")
	b.WriteString(normalize.OneDecimal(pt.DistanceMiles))
	b.WriteString(" miles)")
	return b.String()
}
