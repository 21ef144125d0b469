package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"

	"github.com/ukydev/toll-scenario/internal/models"
	"gopkg.in/yaml.v3"
)

// Script step actions
const (
	ActionAddVehicle  = "add_vehicle"
	ActionAddWaypoint = "add_waypoint"
	ActionClick       = "click"
	ActionIdentity    = "set_identity"
	ActionBalance     = "set_balance"
	ActionSimulate    = "simulate"
	ActionUpload      = "upload"
	ActionDownload    = "download"
)

// Step is one recorded operator action.
type Step struct {
	Action    string    `yaml:"action"`
	Vehicle   int       `yaml:"vehicle,omitempty"`
	Identity  string    `yaml:"identity,omitempty"`
	Balance   string    `yaml:"balance,omitempty"` // as typed into the balance field
	At        []float64 `yaml:"at,flow,omitempty"` // [lat, lng]
	Async     bool      `yaml:"async,omitempty"`
	RequestID string    `yaml:"request_id,omitempty"`
}

// Script is a scripted operator session.
type Script struct {
	Name  string `yaml:"name,omitempty"`
	Steps []Step `yaml:"steps"`
}

// LoadScript decodes a YAML script. Unknown fields are rejected.
func LoadScript(r io.Reader) (*Script, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var s Script
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return &Script{}, nil
		}
		return nil, fmt.Errorf("failed to decode script: %w", err)
	}
	return &s, nil
}

// Replay applies the steps in order and stops at the first failing step.
func (c *Controller) Replay(ctx context.Context, s *Script) error {
	for i, step := range s.Steps {
		if err := c.apply(ctx, step); err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, step.Action, err)
		}
	}
	return nil
}

func (c *Controller) apply(ctx context.Context, step Step) error {
	switch step.Action {
	case ActionAddVehicle:
		c.AddVehicle()
		return nil
	case ActionAddWaypoint:
		_, err := c.AddWaypoint(step.Vehicle)
		return err
	case ActionClick:
		if len(step.At) != 2 {
			return fmt.Errorf("click needs [lat, lng], got %v", step.At)
		}
		c.Click(models.Coordinate{Lat: step.At[0], Lng: step.At[1]})
		return nil
	case ActionIdentity:
		return c.SetIdentity(step.Vehicle, step.Identity)
	case ActionBalance:
		return c.SetBalanceText(step.Vehicle, step.Balance)
	case ActionSimulate:
		return c.RunSimulation(ctx)
	case ActionUpload:
		return c.UploadGPSTracks(ctx, step.Async)
	case ActionDownload:
		return c.DownloadGPSTracks(ctx, step.RequestID)
	default:
		return fmt.Errorf("unknown action %q", step.Action)
	}
}

// GenerateScript builds a random session inside region: vehicles with
// identities, each routed through waypointsPer jittered clicks, then a
// simulation. Each vehicle's slots are created and clicked before the next
// vehicle's slots exist, so every click lands on exactly one vehicle.
func GenerateScript(rng *rand.Rand, vehicles, waypointsPer int, region models.Bounds) *Script {
	s := &Script{Name: fmt.Sprintf("generated-%dx%d", vehicles, waypointsPer)}
	for v := 1; v <= vehicles; v++ {
		s.Steps = append(s.Steps,
			Step{Action: ActionAddVehicle},
			Step{Action: ActionIdentity, Vehicle: v, Identity: fmt.Sprintf("vehicle-%d", v)},
		)
	}
	for v := 1; v <= vehicles; v++ {
		for i := 0; i < waypointsPer; i++ {
			s.Steps = append(s.Steps, Step{Action: ActionAddWaypoint, Vehicle: v})
		}
		pos := randomLocation(rng, region)
		for i := 0; i < waypointsPer; i++ {
			s.Steps = append(s.Steps, Step{Action: ActionClick, At: []float64{pos.Lat, pos.Lng}})
			pos = clampTo(region, jitterLocation(rng, pos, 8000))
		}
	}
	s.Steps = append(s.Steps, Step{Action: ActionSimulate})
	return s
}

func randomLocation(rng *rand.Rand, region models.Bounds) models.Coordinate {
	return models.Coordinate{
		Lat: region.SouthWest.Lat + rng.Float64()*(region.NorthEast.Lat-region.SouthWest.Lat),
		Lng: region.SouthWest.Lng + rng.Float64()*(region.NorthEast.Lng-region.SouthWest.Lng),
	}
}

func jitterLocation(rng *rand.Rand, base models.Coordinate, meters float64) models.Coordinate {
	latMetersPerDeg := 111320.0
	lngMetersPerDeg := 111320.0 * math.Cos(base.Lat*math.Pi/180)
	dLat := (rng.Float64()*2 - 1) * (meters / latMetersPerDeg)
	dLng := (rng.Float64()*2 - 1) * (meters / lngMetersPerDeg)
	return models.Coordinate{Lat: base.Lat + dLat, Lng: base.Lng + dLng}
}

func clampTo(region models.Bounds, c models.Coordinate) models.Coordinate {
	c.Lat = math.Max(region.SouthWest.Lat, math.Min(region.NorthEast.Lat, c.Lat))
	c.Lng = math.Max(region.SouthWest.Lng, math.Min(region.NorthEast.Lng, c.Lng))
	return c
}
