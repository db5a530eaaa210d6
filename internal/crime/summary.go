package crime

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Asif-shah786/zoopla-scraper/internal/model"
)

// DefaultRadiusKm is the search radius quoted in summaries.
const DefaultRadiusKm = 1.0

// BuildSummary renders the traffic-light sentence for an aggregate at the
// default radius.
func BuildSummary(address, postcode string, agg model.CrimeAggregate) string {
	return BuildSummaryRadius(address, postcode, agg, DefaultRadiusKm)
}

// BuildSummaryRadius renders the traffic-light sentence for an aggregate.
func BuildSummaryRadius(address, postcode string, agg model.CrimeAggregate, radiusKm float64) string {
	pc := ""
	if postcode != "" {
		pc = " (" + postcode + ")"
	}
	radius := formatRadius(radiusKm)
	head := address + pc + ": "

	if agg.Total <= 0 {
		return "🟢 " + head + "Safe area - no crimes reported within " + radius + "km radius in past 6 months"
	}

	light, band := "🔴", "High crime area"
	switch {
	case agg.Total <= 5:
		light, band = "🟢", "Low crime"
	case agg.Total <= 20:
		light, band = "🟡", "Moderate crime"
	}

	near := ""
	if streets := agg.TopStreets.Names(); len(streets) > 0 {
		if len(streets) > 2 {
			streets = streets[:2]
		}
		near = " (near " + strings.Join(streets, ", ") + ")"
	}

	trend := agg.Trend
	if trend == "" {
		trend = model.TrendStable
	}

	return light + " " + head + band + " - " + strconv.Itoa(agg.Total) +
		" incidents within " + radius + "km radius" + near +
		", mainly " + topCategories(agg.ByCategory) + " (" + string(trend) + " trend)"
}

// PrettyCategory turns "anti-social-behaviour" into "Anti Social Behaviour".
func PrettyCategory(cat string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(cat, "-", " "))
}

func topCategories(t model.Tallies) string {
	names := t.Names()
	if len(names) == 0 {
		return "No major categories"
	}
	if len(names) > 2 {
		names = names[:2]
	}
	for i, n := range names {
		names[i] = PrettyCategory(n)
	}
	return strings.Join(names, ", ")
}

// formatRadius always shows at least one decimal: 1 → "1.0", 2.5 → "2.5".
func formatRadius(km float64) string {
	s := strconv.FormatFloat(km, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
