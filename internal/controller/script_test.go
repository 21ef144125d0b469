package controller

import (
	"context"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/toll-scenario/internal/models"
	"gopkg.in/yaml.v3"
)

const sampleScript = `
name: two vehicles
steps:
  - action: add_vehicle
  - action: add_vehicle
  - action: set_identity
    vehicle: 1
    identity: MH31AB1234
  - action: set_balance
    vehicle: 2
    balance: "250"
  - action: add_waypoint
    vehicle: 1
  - action: add_waypoint
    vehicle: 2
  - action: click
    at: [21.0, 79.0]
  - action: simulate
`

func TestLoadScript(t *testing.T) {
	s, err := LoadScript(strings.NewReader(sampleScript))
	require.NoError(t, err)
	assert.Equal(t, "two vehicles", s.Name)
	require.Len(t, s.Steps, 8)
	assert.Equal(t, Step{Action: ActionBalance, Vehicle: 2, Balance: "250"}, s.Steps[3])
	assert.Equal(t, []float64{21.0, 79.0}, s.Steps[6].At)
}

func TestLoadScript_Empty(t *testing.T) {
	s, err := LoadScript(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, s.Steps)
}

func TestLoadScript_UnknownField(t *testing.T) {
	_, err := LoadScript(strings.NewReader("steps:\n  - action: click\n    where: [1, 2]\n"))
	assert.Error(t, err)
}

func TestReplay(t *testing.T) {
	backend := &MockBackend{}
	c, rec := newTestController(backend)

	backend.On("Simulate", mock.Anything, mock.MatchedBy(func(p models.ScenarioPayload) bool {
		return len(p.Vehicles) == 2 &&
			p.Vehicles[0].Identity == "MH31AB1234" &&
			p.Vehicles[1].Balance == 250 &&
			len(p.Vehicles[0].Waypoints) == 1 &&
			len(p.Vehicles[1].Waypoints) == 1
	})).Return([]models.SimulationResult{{VehicleID: 1}, {VehicleID: 2}}, nil)

	s, err := LoadScript(strings.NewReader(sampleScript))
	require.NoError(t, err)
	require.NoError(t, c.Replay(context.Background(), s))

	assert.Equal(t, 2, rec.MarkerCount())
	assert.Len(t, c.Panel().Blocks, 2)
	backend.AssertExpectations(t)
}

func TestReplay_StopsAtFailingStep(t *testing.T) {
	c, _ := newTestController(&MockBackend{})
	s := &Script{Steps: []Step{
		{Action: ActionAddVehicle},
		{Action: ActionBalance, Vehicle: 1, Balance: "abc"},
		{Action: ActionAddVehicle},
	}}

	err := c.Replay(context.Background(), s)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidBalance)
	assert.Contains(t, err.Error(), "step 2 (set_balance)")
	assert.Len(t, c.Snapshot().Vehicles, 1)
}

func TestReplay_BadClick(t *testing.T) {
	c, _ := newTestController(&MockBackend{})
	err := c.Replay(context.Background(), &Script{Steps: []Step{{Action: ActionClick, At: []float64{21}}}})
	assert.Error(t, err)

	err = c.Replay(context.Background(), &Script{Steps: []Step{{Action: "teleport"}}})
	assert.Error(t, err)
}

func TestGenerateScript(t *testing.T) {
	a := GenerateScript(rand.New(rand.NewSource(1)), 3, 4, models.DefaultRegion)
	b := GenerateScript(rand.New(rand.NewSource(1)), 3, 4, models.DefaultRegion)
	assert.Equal(t, a, b)

	clicks := 0
	for _, step := range a.Steps {
		if step.Action != ActionClick {
			continue
		}
		clicks++
		assert.True(t, models.DefaultRegion.Contains(models.Coordinate{Lat: step.At[0], Lng: step.At[1]}))
	}
	assert.Equal(t, 12, clicks)
	assert.Equal(t, ActionSimulate, a.Steps[len(a.Steps)-1].Action)
}

func TestGenerateScript_ReplayFillsEveryVehicle(t *testing.T) {
	backend := &MockBackend{}
	c, rec := newTestController(backend)
	backend.On("Simulate", mock.Anything, mock.Anything).Return([]models.SimulationResult{}, nil)

	s := GenerateScript(rand.New(rand.NewSource(7)), 2, 3, models.DefaultRegion)

	// Survives a YAML round trip so `tollsim generate | tollsim run` works.
	out, err := yaml.Marshal(s)
	require.NoError(t, err)
	loaded, err := LoadScript(strings.NewReader(string(out)))
	require.NoError(t, err)

	require.NoError(t, c.Replay(context.Background(), loaded))
	for _, v := range c.Vehicles() {
		assert.Len(t, v.Waypoints, 3)
		assert.Equal(t, 3, v.Slots)
		assert.Len(t, rec.Markers(v.ID), 3)
	}
	assert.Equal(t, 6, rec.MarkerCount())
}
