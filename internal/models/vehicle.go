package models

// DefaultBalance is the starting balance of a newly created vehicle.
const DefaultBalance = 1000.0

// Vehicle is a scenario vehicle with its ordered route waypoints.
type Vehicle struct {
	ID        int          `bson:"id" json:"id"`
	Identity  string       `bson:"identity" json:"identity"`
	Balance   float64      `bson:"balance" json:"balance"`
	Waypoints []Coordinate `bson:"waypoints" json:"waypoints"`
}

// Clone returns a copy that shares no memory with v.
func (v Vehicle) Clone() Vehicle {
	out := v
	out.Waypoints = make([]Coordinate, len(v.Waypoints))
	copy(out.Waypoints, v.Waypoints)
	return out
}

// ScenarioPayload is the body submitted to the simulate endpoint.
type ScenarioPayload struct {
	Vehicles []Vehicle `bson:"vehicles" json:"vehicles"`
}

// VehicleGroup describes the input group rendered for a newly added vehicle.
type VehicleGroup struct {
	VehicleID int     `json:"vehicle_id"`
	Identity  string  `json:"identity"`
	Balance   float64 `json:"balance"`
}

// Marker is a map annotation for one filled waypoint slot.
type Marker struct {
	VehicleID int        `json:"vehicle_id"`
	Slot      int        `json:"slot"` // 1-based
	Position  Coordinate `json:"position"`
	Label     string     `json:"label"`
}
