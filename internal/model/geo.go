package model

// GeoResult is a geocoded address.
type GeoResult struct {
	Query      string  `json:"query"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Postcode   string  `json:"postcode,omitempty"`
	City       string  `json:"city,omitempty"`
	County     string  `json:"county,omitempty"`
	State      string  `json:"state,omitempty"`
	ResultType string  `json:"result_type,omitempty"`
	Formatted  string  `json:"formatted,omitempty"`
	Matched    bool    `json:"matched"`
}
