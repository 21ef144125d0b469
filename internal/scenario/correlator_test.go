package scenario

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/toll-scenario/internal/models"
)

type fakeView struct {
	rows    []Fill
	markers []models.Marker
}

func (f *fakeView) FillWaypointRow(vehicleID, slot int, c models.Coordinate) {
	f.rows = append(f.rows, Fill{VehicleID: vehicleID, Slot: slot, Position: c})
}

func (f *fakeView) PlaceMarker(marker models.Marker) {
	f.markers = append(f.markers, marker)
}

func TestCorrelator_SingleVehicle(t *testing.T) {
	m := NewModel()
	view := &fakeView{}
	c := NewCorrelator(m, view)

	id := m.CreateVehicle()
	_, err := m.CreateWaypointSlot(id)
	require.NoError(t, err)

	at := models.Coordinate{Lat: 21.0, Lng: 79.0}
	fills := c.Click(at)

	assert.Equal(t, []Fill{{VehicleID: 1, Slot: 1, Position: at}}, fills)
	v, _ := m.Vehicle(id)
	assert.Equal(t, []models.Coordinate{at}, v.Waypoints)
	require.Len(t, view.markers, 1)
	assert.Equal(t, "Vehicle 1 Waypoint 1", view.markers[0].Label)
	assert.Equal(t, at, view.markers[0].Position)
	assert.Len(t, view.rows, 1)
}

func TestCorrelator_NoVehicles(t *testing.T) {
	view := &fakeView{}
	c := NewCorrelator(NewModel(), view)

	fills := c.Click(models.Coordinate{Lat: 21, Lng: 79})
	assert.NotNil(t, fills)
	assert.Empty(t, fills)
	assert.Empty(t, view.markers)
	assert.Empty(t, view.rows)
}

func TestCorrelator_OneClickFillsEveryPendingVehicle(t *testing.T) {
	m := NewModel()
	view := &fakeView{}
	c := NewCorrelator(m, view)

	first := m.CreateVehicle()
	second := m.CreateVehicle()
	idle := m.CreateVehicle()
	_, _ = m.CreateWaypointSlot(first)
	_, _ = m.CreateWaypointSlot(first)
	_, _ = m.CreateWaypointSlot(second)

	at := models.Coordinate{Lat: 21.2, Lng: 79.1}
	fills := c.Click(at)

	require.Len(t, fills, 2)
	assert.Equal(t, first, fills[0].VehicleID)
	assert.Equal(t, second, fills[1].VehicleID)
	assert.Equal(t, 1, m.FilledCount(first))
	assert.Equal(t, 1, m.FilledCount(second))
	assert.Equal(t, 0, m.FilledCount(idle))

	// Second click: only the first vehicle still has an empty slot.
	next := models.Coordinate{Lat: 21.3, Lng: 79.2}
	fills = c.Click(next)
	assert.Equal(t, []Fill{{VehicleID: first, Slot: 2, Position: next}}, fills)

	// Everything is full now.
	assert.Empty(t, c.Click(models.Coordinate{Lat: 21.4, Lng: 79.3}))
	assert.Equal(t, []string{"Vehicle 1 Waypoint 1", "Vehicle 2 Waypoint 1", "Vehicle 1 Waypoint 2"},
		[]string{view.markers[0].Label, view.markers[1].Label, view.markers[2].Label})
}

func TestCorrelator_AtMostNClicksPerVehicle(t *testing.T) {
	for n := 0; n <= 5; n++ {
		m := NewModel()
		c := NewCorrelator(m, nil)
		id := m.CreateVehicle()
		for i := 0; i < n; i++ {
			_, _ = m.CreateWaypointSlot(id)
		}

		successes := 0
		for i := 0; i < n+3; i++ {
			successes += len(c.Click(models.Coordinate{Lat: float64(i), Lng: 79}))
		}
		assert.Equal(t, n, successes, "slots=%d", n)
		assert.Equal(t, n, m.FilledCount(id))
	}
}

func TestCorrelator_Deterministic(t *testing.T) {
	run := func() []Fill {
		m := NewModel()
		c := NewCorrelator(m, nil)
		a := m.CreateVehicle()
		b := m.CreateVehicle()
		_, _ = m.CreateWaypointSlot(b)
		_, _ = m.CreateWaypointSlot(a)
		_, _ = m.CreateWaypointSlot(b)

		var all []Fill
		for i := 0; i < 3; i++ {
			all = append(all, c.Click(models.Coordinate{Lat: 21 + float64(i)/10, Lng: 79})...)
		}
		return all
	}
	assert.Equal(t, run(), run())
}
