package model

// PointKind discriminates points-of-interest results.
type PointKind string

const (
	PointSchool    PointKind = "school"
	PointTransport PointKind = "transport"
)

// Point is a nearby school or transport stop returned by the
// points-of-interest service.
type Point struct {
	Kind          PointKind `json:"kind"`
	Name          string    `json:"name"`
	DistanceMiles float64   `json:"distance_miles"`

	// Schools only.
	Ofsted string `json:"ofsted,omitempty"`

	// Transport only.
	Type  string   `json:"type,omitempty"`
	Zone  string   `json:"zone,omitempty"`
	Lines []string `json:"lines,omitempty"`
}
