package models

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
)

// Coordinate is a geographic position. It travels over the wire as a
// two-element [lat, lng] array.
type Coordinate struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lng float64 `bson:"lng" json:"lng"`
}

// MarshalJSON encodes the coordinate as [lat, lng].
func (c Coordinate) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{c.Lat, c.Lng})
}

// UnmarshalJSON decodes a [lat, lng] array.
func (c *Coordinate) UnmarshalJSON(data []byte) error {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("coordinate: %w", err)
	}
	if len(pair) < 2 {
		return fmt.Errorf("coordinate: expected [lat,lng], got %d values", len(pair))
	}
	c.Lat, c.Lng = pair[0], pair[1]
	return nil
}

// Point returns the coordinate as an orb point. orb orders points [lng, lat].
func (c Coordinate) Point() orb.Point {
	return orb.Point{c.Lng, c.Lat}
}

// String formats the coordinate the way waypoint rows display it.
func (c Coordinate) String() string {
	return fmt.Sprintf("%v, %v", c.Lat, c.Lng)
}

// CoordinateFromPoint converts an orb point back to a coordinate.
func CoordinateFromPoint(p orb.Point) Coordinate {
	return Coordinate{Lat: p.Lat(), Lng: p.Lon()}
}

// Bounds is a rectangular region given by its south-west and north-east corners.
type Bounds struct {
	SouthWest Coordinate `json:"south_west"`
	NorthEast Coordinate `json:"north_east"`
}

// Bound returns the region as an orb bound.
func (b Bounds) Bound() orb.Bound {
	return orb.Bound{Min: b.SouthWest.Point(), Max: b.NorthEast.Point()}
}

// Contains reports whether c lies inside the region, edges included.
func (b Bounds) Contains(c Coordinate) bool {
	return b.Bound().Contains(c.Point())
}

// Center returns the midpoint of the region.
func (b Bounds) Center() Coordinate {
	return CoordinateFromPoint(b.Bound().Center())
}

// DefaultRegion is the 100x100 km operating area around Nagpur.
var DefaultRegion = Bounds{
	SouthWest: Coordinate{Lat: 20.6458, Lng: 78.5882},
	NorthEast: Coordinate{Lat: 21.6458, Lng: 79.5882},
}
