package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordPrune(t *testing.T) {
	t.Parallel()

	r := Record{
		"price":    "450000",
		"title":    "",
		"agent":    nil,
		"rooms":    []any{},
		"tags":     []string{},
		"extra":    map[string]any{},
		"bedrooms": 3,
		"crime":    (*CrimeAggregate)(nil),
	}
	r.Prune()

	assert.Equal(t, Record{"price": "450000", "bedrooms": 3}, r)
}

func TestRecordCoordinates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		rec    Record
		lat    float64
		lng    float64
		wantOK bool
	}{
		{"floats", Record{"latitude": 51.5, "longitude": -0.1}, 51.5, -0.1, true},
		{"strings", Record{"latitude": "51.5", "longitude": "-0.1"}, 51.5, -0.1, true},
		{"lat lon aliases", Record{"lat": 53.4, "lon": -2.2}, 53.4, -2.2, true},
		{"lat lng aliases", Record{"lat": 53.4, "lng": -2.2}, 53.4, -2.2, true},
		{"missing lng", Record{"latitude": 51.5}, 0, 0, false},
		{"unparseable", Record{"latitude": "north", "longitude": "-0.1"}, 0, 0, false},
		{"empty string", Record{"latitude": "", "longitude": "-0.1"}, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			lat, lng, ok := tt.rec.Coordinates()
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.InDelta(t, tt.lat, lat, 1e-9)
				assert.InDelta(t, tt.lng, lng, 1e-9)
			}
		})
	}
}

func TestRecordAddress(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "1 Full Road", Record{"address_full": "1 Full Road", "address": "x"}.Address())
	assert.Equal(t, "12 Elm Street", Record{"address": " 12 Elm Street "}.Address())
	assert.Equal(t, "Elm Street, Wigan", Record{"display_address": "Elm Street, Wigan"}.Address())
	assert.Empty(t, Record{}.Address())
}

func TestRecordString(t *testing.T) {
	t.Parallel()

	r := Record{"a": "x", "b": 3, "c": 2.5, "d": []string{"z"}}
	assert.Equal(t, "x", r.String("a"))
	assert.Equal(t, "3", r.String("b"))
	assert.Equal(t, "2.5", r.String("c"))
	assert.Empty(t, r.String("d"))
	assert.Empty(t, r.String("missing"))
}

func TestRoomField(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "room_kitchen_m", RoomField("Kitchen"))
	assert.Equal(t, "room_living_room_m", RoomField(" Living Room "))
}

func TestRecordCloneIsIndependent(t *testing.T) {
	t.Parallel()

	r := Record{"price": "1"}
	c := r.Clone()
	c["price"] = "2"
	assert.Equal(t, "1", r["price"])
}
