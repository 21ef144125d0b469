// Package display implements the map display surface the controller drives.
package display

import (
	"github.com/ukydev/toll-scenario/internal/models"
	"github.com/ukydev/toll-scenario/internal/render"
)

// Surface is the geo display: base geometry, per-vehicle input groups,
// waypoint rows, markers and the result panel. Implementations never issue
// backend requests.
type Surface interface {
	DrawRegion(region models.Bounds)
	DrawTollZones(zones []models.TollZone)
	DrawHighways(highways []models.Highway)
	AddVehicleGroup(group models.VehicleGroup)
	AddWaypointRow(vehicleID, slot int)
	FillWaypointRow(vehicleID, slot int, c models.Coordinate)
	PlaceMarker(marker models.Marker)
	ShowPanel(panel render.Panel)
}

// Fanout forwards every call to each surface in order.
type Fanout []Surface

func (f Fanout) DrawRegion(region models.Bounds) {
	for _, s := range f {
		s.DrawRegion(region)
	}
}

func (f Fanout) DrawTollZones(zones []models.TollZone) {
	for _, s := range f {
		s.DrawTollZones(zones)
	}
}

func (f Fanout) DrawHighways(highways []models.Highway) {
	for _, s := range f {
		s.DrawHighways(highways)
	}
}

func (f Fanout) AddVehicleGroup(group models.VehicleGroup) {
	for _, s := range f {
		s.AddVehicleGroup(group)
	}
}

func (f Fanout) AddWaypointRow(vehicleID, slot int) {
	for _, s := range f {
		s.AddWaypointRow(vehicleID, slot)
	}
}

func (f Fanout) FillWaypointRow(vehicleID, slot int, c models.Coordinate) {
	for _, s := range f {
		s.FillWaypointRow(vehicleID, slot, c)
	}
}

func (f Fanout) PlaceMarker(marker models.Marker) {
	for _, s := range f {
		s.PlaceMarker(marker)
	}
}

func (f Fanout) ShowPanel(panel render.Panel) {
	for _, s := range f {
		s.ShowPanel(panel)
	}
}
