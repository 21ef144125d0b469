package display

import (
	"encoding/json"

	"github.com/paulmach/orb/geojson"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/toll-scenario/internal/models"
	"github.com/ukydev/toll-scenario/internal/render"
)

// Emitter receives display events.
type Emitter func(event models.DisplayEvent)

// EventSurface turns surface calls into display events for remote views.
// Geometry is sent as GeoJSON.
type EventSurface struct {
	SessionID string
	emit      Emitter
}

// NewEventSurface returns a surface that sends every update to emit.
func NewEventSurface(sessionID string, emit Emitter) *EventSurface {
	return &EventSurface{SessionID: sessionID, emit: emit}
}

func (s *EventSurface) send(kind string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.WithError(err).WithField("kind", kind).Error("Failed to encode display event")
		return
	}
	s.emit(models.DisplayEvent{SessionID: s.SessionID, Kind: kind, Payload: data})
}

func (s *EventSurface) DrawRegion(region models.Bounds) {
	f := geojson.NewFeature(region.Bound().ToPolygon())
	f.Properties["kind"] = "region"
	s.send(models.EventRegion, f)
}

func (s *EventSurface) DrawTollZones(zones []models.TollZone) {
	s.send(models.EventTollZones, TollZoneCollection(zones))
}

func (s *EventSurface) DrawHighways(highways []models.Highway) {
	s.send(models.EventHighways, HighwayCollection(highways))
}

func (s *EventSurface) AddVehicleGroup(group models.VehicleGroup) {
	s.send(models.EventVehicleGroup, group)
}

func (s *EventSurface) AddWaypointRow(vehicleID, slot int) {
	s.send(models.EventWaypointRow, map[string]int{"vehicle_id": vehicleID, "slot": slot})
}

func (s *EventSurface) FillWaypointRow(vehicleID, slot int, c models.Coordinate) {
	s.send(models.EventWaypointFill, struct {
		VehicleID int               `json:"vehicle_id"`
		Slot      int               `json:"slot"`
		Position  models.Coordinate `json:"position"`
	}{vehicleID, slot, c})
}

func (s *EventSurface) PlaceMarker(marker models.Marker) {
	f := geojson.NewFeature(marker.Position.Point())
	f.Properties["vehicle_id"] = marker.VehicleID
	f.Properties["slot"] = marker.Slot
	f.Properties["label"] = marker.Label
	s.send(models.EventMarker, f)
}

func (s *EventSurface) ShowPanel(panel render.Panel) {
	s.send(models.EventPanel, panel)
}

// TollZoneCollection converts toll zones to a GeoJSON feature collection.
func TollZoneCollection(zones []models.TollZone) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i, z := range zones {
		f := geojson.NewFeature(z.Polygon())
		f.Properties["zone"] = i
		fc.Append(f)
	}
	return fc
}

// HighwayCollection converts highways to a GeoJSON feature collection.
// Highways whose geometry is not a coordinate list are skipped.
func HighwayCollection(highways []models.Highway) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i, h := range highways {
		ls := h.LineString()
		if ls == nil {
			log.WithField("highway", i).Debug("Skipping highway without a coordinate path")
			continue
		}
		f := geojson.NewFeature(ls)
		f.Properties["highway"] = i
		fc.Append(f)
	}
	return fc
}
