package model

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"

	"github.com/rotisserie/eris"
)

// MonthKey identifies a calendar month as "YYYY-MM".
type MonthKey string

// Trend classifies recent versus prior incident volume.
type Trend string

const (
	TrendRising  Trend = "rising"
	TrendFalling Trend = "falling"
	TrendStable  Trend = "stable"
)

// Incident is a single street-level crime returned by the incident API.
type Incident struct {
	Category      string         `json:"category"`
	Month         string         `json:"month,omitempty"`
	Location      *CrimeLocation `json:"location,omitempty"`
	OutcomeStatus *Outcome       `json:"outcome_status,omitempty"`
}

// CrimeLocation is the approximate location attached to an incident.
type CrimeLocation struct {
	Latitude  string  `json:"latitude,omitempty"`
	Longitude string  `json:"longitude,omitempty"`
	Street    *Street `json:"street,omitempty"`
}

// Street names the street an incident was snapped to.
type Street struct {
	ID   int64  `json:"id,omitempty"`
	Name string `json:"name"`
}

// Outcome is the latest outcome recorded for an incident.
type Outcome struct {
	Category string `json:"category"`
	Date     string `json:"date,omitempty"`
}

// StreetName returns the incident's street name, or "Unknown".
func (i Incident) StreetName() string {
	if i.Location == nil || i.Location.Street == nil || i.Location.Street.Name == "" {
		return "Unknown"
	}
	return i.Location.Street.Name
}

// OutcomeCategory returns the incident's outcome category, or "Not provided".
func (i Incident) OutcomeCategory() string {
	if i.OutcomeStatus == nil || i.OutcomeStatus.Category == "" {
		return "Not provided"
	}
	return i.OutcomeStatus.Category
}

// CategoryName returns the incident's category, or "unknown".
func (i Incident) CategoryName() string {
	if i.Category == "" {
		return "unknown"
	}
	return i.Category
}

// Tally is a named count.
type Tally struct {
	Name  string
	Count int
}

// Tallies is a list of counts ordered by descending count. It encodes as
// an ordered JSON object.
type Tallies []Tally

// Names returns the tally names in order.
func (t Tallies) Names() []string {
	out := make([]string, len(t))
	for i, x := range t {
		out[i] = x.Name
	}
	return out
}

// Get returns the count for name.
func (t Tallies) Get(name string) int {
	for _, x := range t {
		if x.Name == name {
			return x.Count
		}
	}
	return 0
}

// MarshalJSON writes the tallies as {"name": count, ...} in order.
func (t Tallies) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, x := range t {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(x.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(x.Count))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an ordered JSON object of counts.
func (t *Tallies) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return eris.Wrap(err, "tallies: read")
	}
	if tok == nil {
		*t = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return eris.New("tallies: expected object")
	}
	var out Tallies
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return eris.Wrap(err, "tallies: read key")
		}
		key, _ := keyTok.(string)
		var n int
		if err := dec.Decode(&n); err != nil {
			return eris.Wrapf(err, "tallies: read count for %q", key)
		}
		out = append(out, Tally{Name: key, Count: n})
	}
	*t = out
	return nil
}

// CountTallies counts names and orders them by descending count. Ties keep
// first-seen order.
func CountTallies(names []string) Tallies {
	idx := make(map[string]int)
	var out Tallies
	for _, n := range names {
		if i, ok := idx[n]; ok {
			out[i].Count++
			continue
		}
		idx[n] = len(out)
		out = append(out, Tally{Name: n, Count: 1})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// CrimeAggregate summarizes incidents around a coordinate over a window of
// months.
type CrimeAggregate struct {
	Total         int              `json:"total"`
	ByCategory    Tallies          `json:"by_category"`
	TopStreets    Tallies          `json:"top_streets"`
	Outcomes      Tallies          `json:"outcomes"`
	MonthlyCounts map[MonthKey]int `json:"monthly_counts"`
	Trend         Trend            `json:"trend"`
}

// CrimeSummary pairs an aggregate with the location that produced it.
type CrimeSummary struct {
	Address   string         `json:"address"`
	Postcode  string         `json:"postcode,omitempty"`
	Lat       float64        `json:"lat"`
	Lng       float64        `json:"lng"`
	Summary   string         `json:"summary"`
	Aggregate CrimeAggregate `json:"aggregate"`
}
