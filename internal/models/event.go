package models

import "encoding/json"

// Display event kinds
const (
	EventRegion       = "region"
	EventTollZones    = "toll_zones"
	EventHighways     = "highways"
	EventVehicleGroup = "vehicle_group"
	EventWaypointRow  = "waypoint_row"
	EventWaypointFill = "waypoint_fill"
	EventMarker       = "marker"
	EventPanel        = "panel"
)

// DisplayEvent is one display update pushed to remote views.
type DisplayEvent struct {
	SessionID string          `json:"session_id"`
	Kind      string          `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
}
