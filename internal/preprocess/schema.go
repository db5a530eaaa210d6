package preprocess

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// HelperKind is the type of a derived numeric column.
type HelperKind string

const (
	HelperInt   HelperKind = "int"
	HelperFloat HelperKind = "float"
)

// Helper derives a numeric column from another column.
type Helper struct {
	Source string     `yaml:"source"`
	Name   string     `yaml:"name"`
	Kind   HelperKind `yaml:"kind"`
}

// Rename maps a source column to its output name.
type Rename struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Schema describes how scraped records become the run-ready table. Column
// lists after Renames refer to output names.
type Schema struct {
	// Columns are kept in this order; absent ones are skipped.
	Columns []string `yaml:"columns"`
	Renames []Rename `yaml:"renames"`
	// ImputeMode columns have gaps filled with their most common value.
	ImputeMode []string `yaml:"impute_mode"`
	// Numeric columns are coerced to numbers; unparseable values become null.
	Numeric []string `yaml:"numeric"`
	// Text columns have whitespace runs collapsed.
	Text    []string `yaml:"text"`
	Helpers []Helper `yaml:"helpers"`
}

// DefaultSchema returns the standard run-ready column layout.
func DefaultSchema() Schema {
	return Schema{
		Columns: []string{
			"property_id",
			"property_url",
			"price",
			"property_type",
			"tenure",
			"bedrooms",
			"bathrooms",
			"receptions",
			"outcode",
			"chain_free",
			"number_of_photos",
			"number_of_floorplans",
			"address",
			"council_tax_band",
			"ground_rent",
			"nearest_stations",
			"nearest_schools",
			"latitude",
			"longitude",
			"epc_rating",
			"size_sq_feet",
			"title",
			"agent",
			"about_property",
			"crime_summary",
			"crime_data",
		},
		Renames: []Rename{
			{From: "outcode", To: "postcode"},
			{From: "latitude", To: "lat"},
			{From: "longitude", To: "lng"},
			{From: "agent", To: "agent_name"},
			{From: "about_property", To: "description"},
			{From: "size_sq_feet", To: "size_sqft"},
		},
		ImputeMode: []string{"bathrooms", "receptions", "property_type", "council_tax_band", "tenure"},
		Numeric:    []string{"bathrooms", "bedrooms", "price", "receptions", "size_sqft"},
		Text: []string{
			"description",
			"address",
			"title",
			"agent_name",
			"nearest_stations",
			"nearest_schools",
			"epc_rating",
			"council_tax_band",
		},
		Helpers: []Helper{
			{Source: "bedrooms", Name: "bedrooms_int", Kind: HelperInt},
			{Source: "bathrooms", Name: "bathrooms_int", Kind: HelperInt},
			{Source: "receptions", Name: "receptions_int", Kind: HelperInt},
			{Source: "price", Name: "price_num", Kind: HelperFloat},
			{Source: "size_sqft", Name: "size_sqft_num", Kind: HelperFloat},
		},
	}
}

// LoadSchema reads a schema from a YAML file. Sections missing from the
// file keep their defaults.
func LoadSchema(path string) (Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Schema{}, eris.Wrapf(err, "preprocess: read schema %s", path)
	}
	var file Schema
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Schema{}, eris.Wrap(err, "preprocess: parse schema")
	}

	s := DefaultSchema()
	if file.Columns != nil {
		s.Columns = file.Columns
	}
	if file.Renames != nil {
		s.Renames = file.Renames
	}
	if file.ImputeMode != nil {
		s.ImputeMode = file.ImputeMode
	}
	if file.Numeric != nil {
		s.Numeric = file.Numeric
	}
	if file.Text != nil {
		s.Text = file.Text
	}
	if file.Helpers != nil {
		s.Helpers = file.Helpers
	}
	for _, h := range s.Helpers {
		if h.Kind != HelperInt && h.Kind != HelperFloat {
			return Schema{}, eris.Errorf("preprocess: helper %q has unknown kind %q", h.Name, h.Kind)
		}
	}
	return s, nil
}
