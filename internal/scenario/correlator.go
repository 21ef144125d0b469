package scenario

import (
	"fmt"

	"github.com/ukydev/toll-scenario/internal/models"
)

// SlotView is the part of the display a click updates.
type SlotView interface {
	FillWaypointRow(vehicleID, slot int, c models.Coordinate)
	PlaceMarker(marker models.Marker)
}

// Fill records one slot filled by a click.
type Fill struct {
	VehicleID int               `json:"vehicle_id"`
	Slot      int               `json:"slot"`
	Position  models.Coordinate `json:"position"`
}

// MarkerLabel is the popup text of a waypoint marker.
func MarkerLabel(vehicleID, slot int) string {
	return fmt.Sprintf("Vehicle %d Waypoint %d", vehicleID, slot)
}

// Correlator maps global map clicks onto waypoint slots.
type Correlator struct {
	model *Model
	view  SlotView
}

// NewCorrelator binds a correlator to a model. view may be nil.
func NewCorrelator(model *Model, view SlotView) *Correlator {
	return &Correlator{model: model, view: view}
}

// Click fills at most one slot per vehicle: the first empty slot of each
// vehicle, visiting vehicles in creation order. Vehicles without an empty slot
// are skipped. One marker is placed per fill. The result is never nil.
func (c *Correlator) Click(at models.Coordinate) []Fill {
	fills := []Fill{}
	for _, e := range c.model.vehicles {
		id := e.vehicle.ID
		slot, ok := c.model.FillNextEmptySlot(id, at)
		if !ok {
			continue
		}
		fills = append(fills, Fill{VehicleID: id, Slot: slot, Position: at})
		if c.view != nil {
			c.view.FillWaypointRow(id, slot, at)
			c.view.PlaceMarker(models.Marker{
				VehicleID: id,
				Slot:      slot,
				Position:  at,
				Label:     MarkerLabel(id, slot),
			})
		}
	}
	return fills
}
