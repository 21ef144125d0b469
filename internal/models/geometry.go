package models

import (
	"encoding/json"

	"github.com/paulmach/orb"
)

// TollZone is a polygon inside which travelled distance is tolled.
type TollZone struct {
	Ring []Coordinate
}

// MarshalJSON encodes the zone as a bare list of [lat,lng] pairs.
func (z TollZone) MarshalJSON() ([]byte, error) {
	return json.Marshal(z.Ring)
}

// UnmarshalJSON decodes a bare list of [lat,lng] pairs.
func (z *TollZone) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &z.Ring)
}

// Polygon returns the zone as a closed orb polygon.
func (z TollZone) Polygon() orb.Polygon {
	ring := make(orb.Ring, 0, len(z.Ring)+1)
	for _, c := range z.Ring {
		ring = append(ring, c.Point())
	}
	if len(ring) > 0 && !ring.Closed() {
		ring = append(ring, ring[0])
	}
	return orb.Polygon{ring}
}

// Highway is a renderable line geometry. The backend only promises something
// drawable, so the raw payload is kept; Path is filled when the payload is a
// plain list of [lat,lng] pairs.
type Highway struct {
	Raw  json.RawMessage
	Path []Coordinate
}

// MarshalJSON re-emits the original payload.
func (h Highway) MarshalJSON() ([]byte, error) {
	if len(h.Raw) > 0 {
		return h.Raw, nil
	}
	return json.Marshal(h.Path)
}

// UnmarshalJSON keeps the raw payload and decodes the path when possible.
func (h *Highway) UnmarshalJSON(data []byte) error {
	h.Raw = append(h.Raw[:0], data...)
	var path []Coordinate
	if err := json.Unmarshal(data, &path); err == nil {
		h.Path = path
	}
	return nil
}

// LineString returns the decoded path as an orb line string, or nil when the
// geometry was not a coordinate list.
func (h Highway) LineString() orb.LineString {
	if len(h.Path) == 0 {
		return nil
	}
	ls := make(orb.LineString, 0, len(h.Path))
	for _, c := range h.Path {
		ls = append(ls, c.Point())
	}
	return ls
}
