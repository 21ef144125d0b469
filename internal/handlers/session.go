package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/toll-scenario/internal/controller"
	"github.com/ukydev/toll-scenario/internal/db"
	"github.com/ukydev/toll-scenario/internal/models"
	"github.com/ukydev/toll-scenario/internal/render"
	"github.com/ukydev/toll-scenario/internal/session"
)

// SessionState is the full view of one session.
type SessionState struct {
	ID       string                    `json:"id"`
	Vehicles []controller.VehicleState `json:"vehicles"`
	Panel    render.Panel              `json:"panel"`
}

// VehicleEdit carries operator edits to a vehicle's form fields. Balance is
// the text as typed; a JSON number is accepted too.
type VehicleEdit struct {
	Identity *string         `json:"identity,omitempty"`
	Balance  json.RawMessage `json:"balance,omitempty"`
}

// ClickRequest is a map click at [lat, lng].
type ClickRequest struct {
	At *models.Coordinate `json:"at"`
}

// SessionHandler exposes operator sessions over HTTP
type SessionHandler struct {
	registry *session.Registry
	runs     db.RunCollection
}

// NewSessionHandler creates a session handler. runs may be nil when no
// archive is configured.
func NewSessionHandler(registry *session.Registry, runs db.RunCollection) *SessionHandler {
	return &SessionHandler{registry: registry, runs: runs}
}

// CreateSession starts a session and draws its map layers.
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	ctrl := h.registry.Create()
	if err := ctrl.LoadMapLayers(r.Context()); err != nil {
		log.WithError(err).WithField("session_id", ctrl.ID()).Warn("Map layers incomplete")
	}
	writeJSON(w, http.StatusCreated, state(ctrl))
}

// ListSessions lists every session.
func (h *SessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.registry.List())
}

// GetSession returns the vehicles and panel of a session.
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, state(ctrl))
}

// ReloadLayers redraws the region, toll zones and highways, typically after
// a display client connects.
func (h *SessionHandler) ReloadLayers(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if err := ctrl.LoadMapLayers(r.Context()); err != nil {
		writeError(w, err, http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddVehicle creates a vehicle with the default balance.
func (h *SessionHandler) AddVehicle(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.lookup(w, r)
	if !ok {
		return
	}
	id := ctrl.AddVehicle()
	writeJSON(w, http.StatusCreated, models.VehicleGroup{VehicleID: id, Balance: models.DefaultBalance})
}

// AddWaypoint creates an empty waypoint slot for a vehicle.
func (h *SessionHandler) AddWaypoint(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.lookup(w, r)
	if !ok {
		return
	}
	vehicleID, ok := vehicleIDParam(w, r)
	if !ok {
		return
	}
	slot, err := ctrl.AddWaypoint(vehicleID)
	if err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"vehicle_id": vehicleID, "slot": slot})
}

// UpdateVehicle applies identity and balance edits as the operator types.
func (h *SessionHandler) UpdateVehicle(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.lookup(w, r)
	if !ok {
		return
	}
	vehicleID, ok := vehicleIDParam(w, r)
	if !ok {
		return
	}
	var edit VehicleEdit
	if !decodeBody(w, r, &edit) {
		return
	}
	var balance *string
	if len(edit.Balance) > 0 {
		var text string
		if err := json.Unmarshal(edit.Balance, &text); err != nil {
			text = string(edit.Balance)
		}
		balance = &text
	}
	v, err := ctrl.UpdateVehicle(vehicleID, edit.Identity, balance)
	if err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// Click forwards a map click to the correlator.
func (h *SessionHandler) Click(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var req ClickRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.At == nil {
		http.Error(w, "at is required", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, ctrl.Click(*req.At))
}

// Simulate submits the session's scenario.
func (h *SessionHandler) Simulate(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.lookup(w, r)
	if !ok {
		return
	}
	h.runBackend(w, ctrl, ctrl.RunSimulation(r.Context()))
}

// Upload triggers a GPS track upload.
func (h *SessionHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var req models.UploadTracksRequest
	if !decodeBody(w, r, &req) {
		return
	}
	err := ctrl.UploadGPSTracks(r.Context(), req.IsAsync)
	if errors.Is(err, controller.ErrRequestIDMissing) {
		// The backend acknowledged an async upload without an id.
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	h.runBackend(w, ctrl, err)
}

// Download fetches the routes of an asynchronous upload.
func (h *SessionHandler) Download(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var req models.DownloadTracksRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.runBackend(w, ctrl, ctrl.DownloadGPSTracks(r.Context(), req.RequestID))
}

// Panel returns the result panel.
func (h *SessionHandler) Panel(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ctrl.Panel())
}

// Jobs lists the asynchronous uploads of a session.
func (h *SessionHandler) Jobs(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.lookup(w, r)
	if !ok {
		return
	}
	jobs, err := ctrl.TrackJobs(r.Context())
	if err != nil {
		log.WithError(err).WithField("session_id", ctrl.ID()).Error("Failed to list track jobs")
		http.Error(w, "Failed to list track jobs", http.StatusInternalServerError)
		return
	}
	if jobs == nil {
		jobs = []models.TrackJob{}
	}
	writeJSON(w, http.StatusOK, jobs)
}

// Runs lists archived simulation runs, newest first. ?limit= caps the count.
func (h *SessionHandler) Runs(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if h.runs == nil {
		http.Error(w, "Run archive is not configured", http.StatusNotFound)
		return
	}
	var limit int64
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n < 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	runs, err := h.runs.FindRuns(r.Context(), ctrl.ID(), limit)
	if err != nil {
		log.WithError(err).WithField("session_id", ctrl.ID()).Error("Failed to list runs")
		http.Error(w, "Failed to list runs", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

// runBackend answers a backend operation with the resulting panel. A
// response that carries no routes yet is reported as 202 Accepted.
func (h *SessionHandler) runBackend(w http.ResponseWriter, ctrl *controller.Controller, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, ctrl.Panel())
	case errors.Is(err, controller.ErrRoutesUnavailable):
		writeJSON(w, http.StatusAccepted, ctrl.Panel())
	default:
		writeError(w, err, http.StatusBadGateway)
	}
}

func (h *SessionHandler) lookup(w http.ResponseWriter, r *http.Request) (*controller.Controller, bool) {
	ctrl, err := h.registry.Get(r.PathValue("id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return nil, false
	}
	return ctrl, true
}

func state(ctrl *controller.Controller) SessionState {
	return SessionState{ID: ctrl.ID(), Vehicles: ctrl.Vehicles(), Panel: ctrl.Panel()}
}

func vehicleIDParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("vid"))
	if err != nil || id <= 0 {
		http.Error(w, "Invalid vehicle id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// decodeBody decodes an optional JSON body. An empty body leaves v untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return false
	}
	if len(body) == 0 {
		return true
	}
	if err := json.Unmarshal(body, v); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return false
	}
	return true
}

// writeError maps controller errors to status codes; anything unrecognized
// gets fallback.
func writeError(w http.ResponseWriter, err error, fallback int) {
	code := fallback
	switch {
	case errors.Is(err, controller.ErrUnknownVehicle), errors.Is(err, session.ErrSessionNotFound):
		code = http.StatusNotFound
	case errors.Is(err, controller.ErrInvalidBalance), errors.Is(err, controller.ErrRequestIDMissing):
		code = http.StatusBadRequest
	case errors.Is(err, controller.ErrStaleResponse):
		code = http.StatusConflict
	case errors.Is(err, context.Canceled):
		code = http.StatusRequestTimeout
	}
	http.Error(w, err.Error(), code)
}
