// Package scenario holds the in-memory scenario model: vehicles, their
// waypoint slots, and the click correlation that fills those slots.
package scenario

import (
	"errors"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/ukydev/toll-scenario/internal/models"
)

var (
	ErrUnknownVehicle = errors.New("unknown vehicle")
	ErrInvalidBalance = errors.New("balance must be a finite number")
)

type entry struct {
	vehicle models.Vehicle
	// slots is the number of waypoint slots created. Slots fill strictly in
	// creation order, so slot i (1-based) is filled iff i <= len(waypoints).
	slots int
}

// Model is the single source of truth for what gets submitted. It is not safe
// for concurrent use; callers serialize access.
type Model struct {
	lastID   int
	vehicles []*entry
	byID     map[int]*entry
}

// NewModel returns an empty scenario.
func NewModel() *Model {
	return &Model{byID: make(map[int]*entry)}
}

// CreateVehicle allocates the next sequential id with the default balance and
// no waypoints. Ids start at 1 and are never reused.
func (m *Model) CreateVehicle() int {
	m.lastID++
	e := &entry{vehicle: models.Vehicle{
		ID:        m.lastID,
		Balance:   models.DefaultBalance,
		Waypoints: []models.Coordinate{},
	}}
	m.vehicles = append(m.vehicles, e)
	m.byID[e.vehicle.ID] = e
	return e.vehicle.ID
}

// CreateWaypointSlot adds one empty slot to the vehicle and returns its
// 1-based position.
func (m *Model) CreateWaypointSlot(vehicleID int) (int, error) {
	e, ok := m.byID[vehicleID]
	if !ok {
		return 0, ErrUnknownVehicle
	}
	e.slots++
	return e.slots, nil
}

// FillNextEmptySlot fills the vehicle's first empty slot with c and appends c
// to its waypoints. It returns the 1-based slot filled, or false without
// mutating anything when the vehicle has no empty slot.
func (m *Model) FillNextEmptySlot(vehicleID int, c models.Coordinate) (int, bool) {
	e, ok := m.byID[vehicleID]
	if !ok || len(e.vehicle.Waypoints) >= e.slots {
		return 0, false
	}
	e.vehicle.Waypoints = append(e.vehicle.Waypoints, c)
	return len(e.vehicle.Waypoints), true
}

// SetIdentity overwrites the vehicle's identity label.
func (m *Model) SetIdentity(vehicleID int, identity string) error {
	e, ok := m.byID[vehicleID]
	if !ok {
		return ErrUnknownVehicle
	}
	e.vehicle.Identity = identity
	return nil
}

// SetBalance overwrites the vehicle's starting balance.
func (m *Model) SetBalance(vehicleID int, amount float64) error {
	e, ok := m.byID[vehicleID]
	if !ok {
		return ErrUnknownVehicle
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return ErrInvalidBalance
	}
	e.vehicle.Balance = amount
	return nil
}

// Snapshot returns a deep copy of the scenario suitable for transmission.
func (m *Model) Snapshot() models.ScenarioPayload {
	return models.ScenarioPayload{Vehicles: m.Vehicles()}
}

// Vehicles returns copies of all vehicles in creation order.
func (m *Model) Vehicles() []models.Vehicle {
	out := make([]models.Vehicle, 0, len(m.vehicles))
	for _, e := range m.vehicles {
		out = append(out, e.vehicle.Clone())
	}
	return out
}

// Vehicle returns a copy of one vehicle.
func (m *Model) Vehicle(vehicleID int) (models.Vehicle, error) {
	e, ok := m.byID[vehicleID]
	if !ok {
		return models.Vehicle{}, ErrUnknownVehicle
	}
	return e.vehicle.Clone(), nil
}

// IDs returns the vehicle ids in creation order.
func (m *Model) IDs() []int {
	ids := make([]int, 0, len(m.vehicles))
	for _, e := range m.vehicles {
		ids = append(ids, e.vehicle.ID)
	}
	return ids
}

// Len returns the number of vehicles.
func (m *Model) Len() int {
	return len(m.vehicles)
}

// SlotCount returns how many slots were created for the vehicle.
func (m *Model) SlotCount(vehicleID int) int {
	if e, ok := m.byID[vehicleID]; ok {
		return e.slots
	}
	return 0
}

// FilledCount returns how many of the vehicle's slots hold a coordinate.
func (m *Model) FilledCount(vehicleID int) int {
	if e, ok := m.byID[vehicleID]; ok {
		return len(e.vehicle.Waypoints)
	}
	return 0
}

// PlannedDistanceKm is the great-circle length of the vehicle's waypoint
// polyline. It is a local preview only; the backend computes the real distance.
func (m *Model) PlannedDistanceKm(vehicleID int) (float64, error) {
	e, ok := m.byID[vehicleID]
	if !ok {
		return 0, ErrUnknownVehicle
	}
	if len(e.vehicle.Waypoints) < 2 {
		return 0, nil
	}
	ls := make(orb.LineString, 0, len(e.vehicle.Waypoints))
	for _, c := range e.vehicle.Waypoints {
		ls = append(ls, c.Point())
	}
	return geo.LengthHaversine(ls) / 1000, nil
}
