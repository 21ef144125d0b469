// Package controller binds operator actions to the scenario model, the
// display surface and the backend gateway.
package controller

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/toll-scenario/internal/display"
	"github.com/ukydev/toll-scenario/internal/models"
	"github.com/ukydev/toll-scenario/internal/render"
	"github.com/ukydev/toll-scenario/internal/scenario"
)

var (
	ErrStaleResponse     = errors.New("response superseded by a newer request")
	ErrRequestIDMissing  = errors.New("request id missing")
	ErrRoutesUnavailable = errors.New("routes not yet available")
	ErrInvalidBalance    = scenario.ErrInvalidBalance
	ErrUnknownVehicle    = scenario.ErrUnknownVehicle
)

// Backend is the remote data gateway.
type Backend interface {
	FetchTollZones(ctx context.Context) ([]models.TollZone, error)
	FetchHighways(ctx context.Context) ([]models.Highway, error)
	Simulate(ctx context.Context, payload models.ScenarioPayload) ([]models.SimulationResult, error)
	UploadTracks(ctx context.Context, req models.UploadTracksRequest) (models.TrackResponse, error)
	DownloadTracks(ctx context.Context, req models.DownloadTracksRequest) (models.TrackResponse, error)
}

// Archive persists applied runs and asynchronous track jobs.
type Archive interface {
	InsertRun(ctx context.Context, run models.RunRecord) error
	InsertTrackJob(ctx context.Context, job models.TrackJob) error
	FindTrackJobs(ctx context.Context, sessionID string) ([]models.TrackJob, error)
}

// VehicleState is a vehicle together with its slot bookkeeping.
type VehicleState struct {
	models.Vehicle
	Slots             int     `json:"slots"`
	PlannedDistanceKm float64 `json:"planned_distance_km"`
}

// Controller owns one operator session. All model and panel mutation happens
// under mu; no lock is held while a backend call is in flight.
type Controller struct {
	id      string
	backend Backend
	surface display.Surface
	archive Archive

	mu         sync.Mutex
	model      *scenario.Model
	correlator *scenario.Correlator
	panel      *render.Panel
	seq        *sequencer
	jobs       []models.TrackJob
}

// Option configures a Controller.
type Option func(*Controller)

// WithArchive stores applied runs and track jobs in a.
func WithArchive(a Archive) Option {
	return func(c *Controller) { c.archive = a }
}

// New creates a controller with an empty scenario.
func New(sessionID string, backend Backend, surface display.Surface, opts ...Option) *Controller {
	model := scenario.NewModel()
	c := &Controller{
		id:         sessionID,
		backend:    backend,
		surface:    surface,
		model:      model,
		correlator: scenario.NewCorrelator(model, surface),
		panel:      render.NewPanel(),
		seq:        newSequencer(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ID returns the session id.
func (c *Controller) ID() string {
	return c.id
}

func (c *Controller) logger() *log.Entry {
	return log.WithField("session_id", c.id)
}

// LoadMapLayers draws the operating region and the backend's toll zones and
// highways. A failed layer is logged and skipped; the others still draw.
func (c *Controller) LoadMapLayers(ctx context.Context) error {
	c.mu.Lock()
	c.surface.DrawRegion(models.DefaultRegion)
	c.mu.Unlock()

	var errs []error
	zones, err := c.backend.FetchTollZones(ctx)
	if err != nil {
		c.logger().WithError(err).Error("Failed to fetch toll zones")
		errs = append(errs, fmt.Errorf("toll zones: %w", err))
	} else {
		c.mu.Lock()
		c.surface.DrawTollZones(zones)
		c.mu.Unlock()
	}

	highways, err := c.backend.FetchHighways(ctx)
	if err != nil {
		c.logger().WithError(err).Error("Failed to fetch highways")
		errs = append(errs, fmt.Errorf("highways: %w", err))
	} else {
		c.mu.Lock()
		c.surface.DrawHighways(highways)
		c.mu.Unlock()
	}
	return errors.Join(errs...)
}

// AddVehicle creates a vehicle and renders its input group.
func (c *Controller) AddVehicle() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.model.CreateVehicle()
	c.surface.AddVehicleGroup(models.VehicleGroup{VehicleID: id, Balance: models.DefaultBalance})
	c.logger().WithField("vehicle_id", id).Info("Added vehicle")
	return id
}

// AddWaypoint creates an empty waypoint slot awaiting a map click.
func (c *Controller) AddWaypoint(vehicleID int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	slot, err := c.model.CreateWaypointSlot(vehicleID)
	if err != nil {
		return 0, fmt.Errorf("vehicle %d: %w", vehicleID, err)
	}
	c.surface.AddWaypointRow(vehicleID, slot)
	return slot, nil
}

// Click correlates a map click to the first empty slot of every vehicle.
func (c *Controller) Click(at models.Coordinate) []scenario.Fill {
	c.mu.Lock()
	defer c.mu.Unlock()
	fills := c.correlator.Click(at)
	c.logger().WithFields(log.Fields{
		"lat":   at.Lat,
		"lng":   at.Lng,
		"fills": len(fills),
	}).Debug("Map click")
	return fills
}

// SetIdentity updates a vehicle's identity as soon as the operator edits it.
func (c *Controller) SetIdentity(vehicleID int, identity string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.model.SetIdentity(vehicleID, identity); err != nil {
		return fmt.Errorf("vehicle %d: %w", vehicleID, err)
	}
	return nil
}

// SetBalance updates a vehicle's starting balance.
func (c *Controller) SetBalance(vehicleID int, amount float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.model.SetBalance(vehicleID, amount); err != nil {
		return fmt.Errorf("vehicle %d: %w", vehicleID, err)
	}
	return nil
}

// SetBalanceText parses a balance typed by the operator. Text that is not a
// finite number is rejected and the model keeps its previous value.
func (c *Controller) SetBalanceText(vehicleID int, text string) error {
	amount, err := parseBalance(vehicleID, text)
	if err != nil {
		return err
	}
	return c.SetBalance(vehicleID, amount)
}

// UpdateVehicle applies an identity and a balance edit together. Both are
// validated first; if either is rejected the vehicle is left unchanged.
// A nil field is not edited.
func (c *Controller) UpdateVehicle(vehicleID int, identity, balanceText *string) (VehicleState, error) {
	var amount float64
	if balanceText != nil {
		var err error
		if amount, err = parseBalance(vehicleID, *balanceText); err != nil {
			return VehicleState{}, err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.model.Vehicle(vehicleID); err != nil {
		return VehicleState{}, fmt.Errorf("vehicle %d: %w", vehicleID, err)
	}
	if balanceText != nil {
		if err := c.model.SetBalance(vehicleID, amount); err != nil {
			return VehicleState{}, fmt.Errorf("vehicle %d: %w", vehicleID, err)
		}
	}
	if identity != nil {
		if err := c.model.SetIdentity(vehicleID, *identity); err != nil {
			return VehicleState{}, fmt.Errorf("vehicle %d: %w", vehicleID, err)
		}
	}
	return c.vehicleState(vehicleID), nil
}

func parseBalance(vehicleID int, text string) (float64, error) {
	amount, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, fmt.Errorf("vehicle %d: %w: %q", vehicleID, ErrInvalidBalance, text)
	}
	return amount, nil
}

// RunSimulation submits the current scenario. On success the panel shows one
// block per returned result; on failure the blocks stay as they were and the
// status indicator reports the error. A response that arrives after a newer
// simulation was issued is discarded with ErrStaleResponse.
func (c *Controller) RunSimulation(ctx context.Context) error {
	c.mu.Lock()
	seq := c.seq.next(OpSimulate)
	payload := c.model.Snapshot()
	c.setStatus(render.StatePending, OpSimulate, "")
	c.mu.Unlock()

	results, err := c.backend.Simulate(ctx, payload)

	c.mu.Lock()
	if err := c.checkLatest(OpSimulate, seq); err != nil {
		c.mu.Unlock()
		return err
	}
	if err != nil {
		c.fail(OpSimulate, seq, err)
		c.mu.Unlock()
		return fmt.Errorf("simulate: %w", err)
	}
	c.panel.RenderSimulation(results)
	c.setStatus(render.StateOK, OpSimulate, "")
	c.mu.Unlock()

	c.logger().WithFields(log.Fields{"seq": seq, "results": len(results)}).Info("Simulation applied")
	if c.archive != nil {
		run := models.RunRecord{
			SessionID: c.id,
			Sequence:  seq,
			Scenario:  payload,
			Results:   results,
			CreatedAt: time.Now(),
		}
		if err := c.archive.InsertRun(ctx, run); err != nil {
			c.logger().WithError(err).Error("Failed to archive simulation run")
		}
	}
	return nil
}

// UploadGPSTracks triggers server-side track ingestion. A synchronous upload
// renders the returned routes; an asynchronous one shows the request id.
func (c *Controller) UploadGPSTracks(ctx context.Context, isAsync bool) error {
	c.mu.Lock()
	seq := c.seq.next(OpUpload)
	c.setStatus(render.StatePending, OpUpload, "")
	c.mu.Unlock()

	resp, err := c.backend.UploadTracks(ctx, models.UploadTracksRequest{IsAsync: isAsync})

	c.mu.Lock()
	if err := c.checkLatest(OpUpload, seq); err != nil {
		c.mu.Unlock()
		return err
	}
	if err != nil {
		c.fail(OpUpload, seq, err)
		c.mu.Unlock()
		return fmt.Errorf("upload tracks: %w", err)
	}
	if !isAsync {
		err = c.applyRoutes(OpUpload, resp)
		c.mu.Unlock()
		return err
	}
	if resp.RequestID == "" {
		c.fail(OpUpload, seq, ErrRequestIDMissing)
		c.mu.Unlock()
		return fmt.Errorf("upload tracks: %w", ErrRequestIDMissing)
	}
	job := models.TrackJob{SessionID: c.id, RequestID: resp.RequestID, CreatedAt: time.Now()}
	c.jobs = append(c.jobs, job)
	c.panel.ShowRequestID(resp.RequestID)
	c.setStatus(render.StateOK, OpUpload, "")
	c.mu.Unlock()

	c.logger().WithField("request_id", resp.RequestID).Info("Asynchronous track upload accepted")
	if c.archive != nil {
		if err := c.archive.InsertTrackJob(ctx, job); err != nil {
			c.logger().WithError(err).Error("Failed to archive track job")
		}
	}
	return nil
}

// DownloadGPSTracks fetches and renders the routes of an earlier asynchronous upload.
func (c *Controller) DownloadGPSTracks(ctx context.Context, requestID string) error {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		c.mu.Lock()
		c.setStatus(render.StateError, OpDownload, ErrRequestIDMissing.Error())
		c.mu.Unlock()
		return fmt.Errorf("download tracks: %w", ErrRequestIDMissing)
	}

	c.mu.Lock()
	seq := c.seq.next(OpDownload)
	c.setStatus(render.StatePending, OpDownload, "")
	c.mu.Unlock()

	resp, err := c.backend.DownloadTracks(ctx, models.DownloadTracksRequest{RequestID: requestID})

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkLatest(OpDownload, seq); err != nil {
		return err
	}
	if err != nil {
		c.fail(OpDownload, seq, err)
		return fmt.Errorf("download tracks %s: %w", requestID, err)
	}
	return c.applyRoutes(OpDownload, resp)
}

// applyRoutes renders a track response. Callers hold mu.
func (c *Controller) applyRoutes(op Operation, resp models.TrackResponse) error {
	if resp.Routes == nil {
		c.setStatus(render.StateUnavailable, op, ErrRoutesUnavailable.Error())
		return ErrRoutesUnavailable
	}
	c.panel.RenderRoutes(resp.Routes)
	c.setStatus(render.StateOK, op, "")
	c.logger().WithFields(log.Fields{"operation": op, "routes": len(resp.Routes)}).Info("Routes applied")
	return nil
}

// checkLatest rejects responses to superseded requests. Callers hold mu.
func (c *Controller) checkLatest(op Operation, seq uint64) error {
	if c.seq.latest(op, seq) {
		return nil
	}
	c.logger().WithFields(log.Fields{"operation": op, "seq": seq}).Warn("Discarding stale response")
	return ErrStaleResponse
}

// fail reports a backend failure on the status indicator. Callers hold mu.
func (c *Controller) fail(op Operation, seq uint64, err error) {
	c.logger().WithError(err).WithFields(log.Fields{"operation": op, "seq": seq}).Error("Backend call failed")
	c.setStatus(render.StateError, op, err.Error())
}

func (c *Controller) setStatus(state render.State, op Operation, message string) {
	c.panel.SetStatus(state, string(op), message)
	c.surface.ShowPanel(c.panel.Clone())
}

// Snapshot returns the scenario as it would be submitted.
func (c *Controller) Snapshot() models.ScenarioPayload {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.model.Snapshot()
}

// Vehicles returns every vehicle with its slot count and planned distance.
func (c *Controller) Vehicles() []VehicleState {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := c.model.IDs()
	out := make([]VehicleState, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.vehicleState(id))
	}
	return out
}

// vehicleState describes a known vehicle. Callers hold mu.
func (c *Controller) vehicleState(vehicleID int) VehicleState {
	v, _ := c.model.Vehicle(vehicleID)
	km, _ := c.model.PlannedDistanceKm(vehicleID)
	return VehicleState{Vehicle: v, Slots: c.model.SlotCount(vehicleID), PlannedDistanceKm: km}
}

// Panel returns a copy of the result panel.
func (c *Controller) Panel() render.Panel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.panel.Clone()
}

// TrackJobs lists the asynchronous uploads of this session. The archive is
// the source when configured; otherwise the in-memory list is used.
func (c *Controller) TrackJobs(ctx context.Context) ([]models.TrackJob, error) {
	if c.archive != nil {
		jobs, err := c.archive.FindTrackJobs(ctx, c.id)
		if err != nil {
			return nil, fmt.Errorf("find track jobs: %w", err)
		}
		return jobs, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.TrackJob(nil), c.jobs...), nil
}
