package display

import (
	"sort"
	"sync"

	"github.com/ukydev/toll-scenario/internal/models"
	"github.com/ukydev/toll-scenario/internal/render"
)

// MarkerKey addresses one marker: a vehicle and a 1-based waypoint slot.
type MarkerKey struct {
	VehicleID int
	Slot      int
}

// Row is one waypoint input row. Value is empty until a click fills it.
type Row struct {
	Slot  int    `json:"slot"`
	Value string `json:"value"`
}

// Recorder is an in-memory surface. It keeps every marker addressable by
// (vehicle, slot) so callers can show all waypoints or only the latest.
type Recorder struct {
	mu       sync.Mutex
	region   *models.Bounds
	zones    []models.TollZone
	highways []models.Highway
	groups   []models.VehicleGroup
	rows     map[int][]Row
	markers  map[MarkerKey]models.Marker
	panel    render.Panel
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		rows:    make(map[int][]Row),
		markers: make(map[MarkerKey]models.Marker),
		panel:   *render.NewPanel(),
	}
}

func (r *Recorder) DrawRegion(region models.Bounds) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.region = &region
}

func (r *Recorder) DrawTollZones(zones []models.TollZone) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.zones = append(r.zones, zones...)
}

func (r *Recorder) DrawHighways(highways []models.Highway) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.highways = append(r.highways, highways...)
}

func (r *Recorder) AddVehicleGroup(group models.VehicleGroup) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.groups = append(r.groups, group)
}

func (r *Recorder) AddWaypointRow(vehicleID, slot int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[vehicleID] = append(r.rows[vehicleID], Row{Slot: slot})
}

func (r *Recorder) FillWaypointRow(vehicleID, slot int, c models.Coordinate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rows := r.rows[vehicleID]
	for i := range rows {
		if rows[i].Slot == slot {
			rows[i].Value = c.String()
			return
		}
	}
}

func (r *Recorder) PlaceMarker(marker models.Marker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markers[MarkerKey{VehicleID: marker.VehicleID, Slot: marker.Slot}] = marker
}

func (r *Recorder) ShowPanel(panel render.Panel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.panel = panel
}

// Region returns the drawn region, if any.
func (r *Recorder) Region() (models.Bounds, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.region == nil {
		return models.Bounds{}, false
	}
	return *r.region, true
}

// TollZones returns the drawn toll zones.
func (r *Recorder) TollZones() []models.TollZone {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.TollZone(nil), r.zones...)
}

// Highways returns the drawn highways.
func (r *Recorder) Highways() []models.Highway {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Highway(nil), r.highways...)
}

// VehicleGroups returns the rendered input groups in creation order.
func (r *Recorder) VehicleGroups() []models.VehicleGroup {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.VehicleGroup(nil), r.groups...)
}

// Rows returns the vehicle's waypoint rows.
func (r *Recorder) Rows(vehicleID int) []Row {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Row(nil), r.rows[vehicleID]...)
}

// Markers returns every marker of the vehicle ordered by slot.
func (r *Recorder) Markers(vehicleID int) []models.Marker {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Marker
	for k, m := range r.markers {
		if k.VehicleID == vehicleID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slot < out[j].Slot })
	return out
}

// LatestMarker returns the vehicle's marker with the highest slot.
func (r *Recorder) LatestMarker(vehicleID int) (models.Marker, bool) {
	markers := r.Markers(vehicleID)
	if len(markers) == 0 {
		return models.Marker{}, false
	}
	return markers[len(markers)-1], true
}

// MarkerCount returns the total number of markers.
func (r *Recorder) MarkerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.markers)
}

// Panel returns the last panel shown.
func (r *Recorder) Panel() render.Panel {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.panel.Clone()
}
