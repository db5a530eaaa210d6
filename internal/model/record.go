package model

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// Recognized record field names. Room dimensions use synthetic
// room_<slug>_m keys built by RoomField.
const (
	FieldListingID         = "listing_id"
	FieldPropertyID        = "property_id"
	FieldPropertyURL       = "property_url"
	FieldPage              = "page"
	FieldScrapedAt         = "scraped_at"
	FieldSource            = "source"
	FieldPrice             = "price"
	FieldTitle             = "title"
	FieldPropertyType      = "property_type"
	FieldTenure            = "tenure"
	FieldBedrooms          = "bedrooms"
	FieldBathrooms         = "bathrooms"
	FieldReceptions        = "receptions"
	FieldHasEPC            = "has_epc"
	FieldHasFloorplan      = "has_floorplan"
	FieldSizeSqFeet        = "size_sq_feet"
	FieldDisplayAddress    = "display_address"
	FieldAddress           = "address"
	FieldAddressFull       = "address_full"
	FieldOutcode           = "outcode"
	FieldPostcode          = "postcode"
	FieldAgent             = "agent"
	FieldChainFree         = "chain_free"
	FieldStatus            = "status"
	FieldNumberOfPhotos    = "number_of_photos"
	FieldNumberOfFloorplan = "number_of_floorplans"
	FieldEPCRating         = "epc_rating"
	FieldPricePerSqft      = "price_per_sqft"
	FieldCouncilTaxBand    = "council_tax_band"
	FieldGroundRent        = "ground_rent"
	FieldNearestStations   = "nearest_stations"
	FieldStationDistances  = "nearest_stations_distances"
	FieldNearestSchools    = "nearest_schools"
	FieldListedDate        = "listed_date"
	FieldListedPrice       = "listed_price"
	FieldSoldDate          = "sold_date"
	FieldSoldPrice         = "sold_price"
	FieldAboutProperty     = "about_property"
	FieldLatitude          = "latitude"
	FieldLongitude         = "longitude"
	FieldCrimeSummary      = "crime_summary"
	FieldCrimeData         = "crime_data"
)

// RoomField returns the synthetic field key for a room name, e.g.
// "Living Room" becomes "room_living_room_m".
func RoomField(name string) string {
	slug := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
	return "room_" + slug + "_m"
}

// Record is the canonical, flat property record. Values are strings, ints,
// float64s, or a *CrimeAggregate under FieldCrimeData.
type Record map[string]any

// Clone returns a shallow copy of r.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// String returns the field as a string. Numbers are formatted without
// exponent; missing or non-scalar values return "".
func (r Record) String(key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

// Float parses the field as a float64.
func (r Record) Float(key string) (float64, bool) {
	switch v := r[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// Has reports whether key is present with a non-empty value.
func (r Record) Has(key string) bool {
	v, ok := r[key]
	return ok && !IsEmpty(v)
}

// Coordinates returns the record's latitude and longitude. Scraped records
// use latitude/longitude; geocoded and cleaned ones may carry lat/lng/lon.
func (r Record) Coordinates() (lat, lng float64, ok bool) {
	lat, latOK := r.firstFloat(FieldLatitude, "lat")
	lng, lngOK := r.firstFloat(FieldLongitude, "lng", "lon")
	return lat, lng, latOK && lngOK
}

func (r Record) firstFloat(keys ...string) (float64, bool) {
	for _, k := range keys {
		if !r.Has(k) {
			continue
		}
		if f, ok := r.Float(k); ok {
			return f, true
		}
	}
	return 0, false
}

// Address returns the best available address: address_full, address, then
// display_address.
func (r Record) Address() string {
	for _, k := range []string{FieldAddressFull, FieldAddress, FieldDisplayAddress} {
		if s := strings.TrimSpace(r.String(k)); s != "" {
			return s
		}
	}
	return ""
}

// Prune drops every key whose value is nil, an empty string, or an empty
// collection. It mutates and returns r.
func (r Record) Prune() Record {
	for k, v := range r {
		if IsEmpty(v) {
			delete(r, k)
		}
	}
	return r
}

// Keys returns the record's keys in sorted order.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsEmpty reports whether v counts as an empty record value.
func IsEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	case []string:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	case *CrimeAggregate:
		return t == nil
	default:
		return false
	}
}
