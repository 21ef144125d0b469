package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/toll-scenario/internal/auth"
	"github.com/ukydev/toll-scenario/internal/controller"
	"github.com/ukydev/toll-scenario/internal/middleware"
	"github.com/ukydev/toll-scenario/internal/models"
	"github.com/ukydev/toll-scenario/internal/render"
	"github.com/ukydev/toll-scenario/internal/session"
)

// MockBackend is a mock implementation of controller.Backend
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) FetchTollZones(ctx context.Context) ([]models.TollZone, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TollZone), args.Error(1)
}

func (m *MockBackend) FetchHighways(ctx context.Context) ([]models.Highway, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Highway), args.Error(1)
}

func (m *MockBackend) Simulate(ctx context.Context, payload models.ScenarioPayload) ([]models.SimulationResult, error) {
	args := m.Called(ctx, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SimulationResult), args.Error(1)
}

func (m *MockBackend) UploadTracks(ctx context.Context, req models.UploadTracksRequest) (models.TrackResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(models.TrackResponse), args.Error(1)
}

func (m *MockBackend) DownloadTracks(ctx context.Context, req models.DownloadTracksRequest) (models.TrackResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(models.TrackResponse), args.Error(1)
}

// MockRunCollection is a mock implementation of db.RunCollection
type MockRunCollection struct {
	mock.Mock
}

func (m *MockRunCollection) InsertRun(ctx context.Context, run models.RunRecord) error {
	return m.Called(ctx, run).Error(0)
}

func (m *MockRunCollection) FindRuns(ctx context.Context, sessionID string, limit int64) ([]models.RunRecord, error) {
	args := m.Called(ctx, sessionID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RunRecord), args.Error(1)
}

func (m *MockRunCollection) InsertTrackJob(ctx context.Context, job models.TrackJob) error {
	return m.Called(ctx, job).Error(0)
}

func (m *MockRunCollection) FindTrackJobs(ctx context.Context, sessionID string) ([]models.TrackJob, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TrackJob), args.Error(1)
}

type testServer struct {
	handler  http.Handler
	backend  *MockBackend
	registry *session.Registry
}

func newTestServer(t *testing.T, authService *auth.Service, runs *MockRunCollection) *testServer {
	t.Helper()
	backend := &MockBackend{}
	backend.On("FetchTollZones", mock.Anything).Return([]models.TollZone{}, nil).Maybe()
	backend.On("FetchHighways", mock.Anything).Return([]models.Highway{}, nil).Maybe()

	registry := session.NewRegistry(backend, nil)
	sessions := NewSessionHandler(registry, nil)
	if runs != nil {
		registry = session.NewRegistry(backend, nil, controller.WithArchive(runs))
		sessions = NewSessionHandler(registry, runs)
	}

	authMW := middleware.NewAuthMiddleware(authService)
	mux := http.NewServeMux()
	Routes(mux, authMW, NewAuthHandler(authService), sessions, nil)
	return &testServer{handler: authMW.Authenticate(mux), backend: backend, registry: registry}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if len(header) == 2 {
		req.Header.Set(header[0], header[1])
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func (s *testServer) createSession(t *testing.T) string {
	t.Helper()
	w := s.do(t, "POST", "/api/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var st SessionState
	require.NoError(t, json.NewDecoder(w.Body).Decode(&st))
	return st.ID
}

func decodePanel(t *testing.T, w *httptest.ResponseRecorder) render.Panel {
	t.Helper()
	var p render.Panel
	require.NoError(t, json.NewDecoder(w.Body).Decode(&p))
	return p
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil, nil)
	w := s.do(t, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestAuthHandler_Login(t *testing.T) {
	authService := auth.NewService("test-secret", time.Hour, nil)
	hash, err := authService.HashPassword("password123")
	require.NoError(t, err)
	authService = auth.NewService("test-secret", time.Hour, auth.StaticOperators{
		"operator": {Username: "operator", PasswordHash: hash, Role: models.RoleOperator},
	})
	s := newTestServer(t, authService, nil)

	t.Run("successful login", func(t *testing.T) {
		w := s.do(t, "POST", "/api/auth/login", models.LoginRequest{Username: "operator", Password: "password123"})
		require.Equal(t, http.StatusOK, w.Code)

		var resp models.LoginResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, models.RoleOperator, resp.Role)

		me := s.do(t, "GET", "/api/auth/me", nil, "Authorization", "Bearer "+resp.Token)
		require.Equal(t, http.StatusOK, me.Code)
		assert.Contains(t, me.Body.String(), `"username":"operator"`)
	})

	t.Run("wrong password", func(t *testing.T) {
		w := s.do(t, "POST", "/api/auth/login", models.LoginRequest{Username: "operator", Password: "nope"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		w := s.do(t, "POST", "/api/auth/login", models.LoginRequest{Username: "operator"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		w := s.do(t, "POST", "/api/auth/login", "{not json")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("protected route without token", func(t *testing.T) {
		w := s.do(t, "POST", "/api/sessions", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAuthHandler_LoginDisabled(t *testing.T) {
	s := newTestServer(t, nil, nil)
	w := s.do(t, "POST", "/api/auth/login", models.LoginRequest{Username: "operator", Password: "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestViewerCannotEdit(t *testing.T) {
	authService := auth.NewService("test-secret", time.Hour, nil)
	token, err := authService.GenerateToken(&models.Operator{Username: "viewer", Role: models.RoleViewer})
	require.NoError(t, err)
	s := newTestServer(t, authService, nil)

	w := s.do(t, "POST", "/api/sessions", nil, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, "GET", "/api/sessions", nil, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSessionFlow(t *testing.T) {
	s := newTestServer(t, nil, nil)
	id := s.createSession(t)
	base := "/api/sessions/" + id

	w := s.do(t, "POST", base+"/vehicles", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"vehicle_id":1,"identity":"","balance":1000}`, w.Body.String())

	w = s.do(t, "POST", base+"/vehicles/1/waypoints", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"vehicle_id":1,"slot":1}`, w.Body.String())

	w = s.do(t, "PUT", base+"/vehicles/1", `{"identity":"MH31AB1234","balance":"750"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, "PUT", base+"/vehicles/1", `{"balance":800.5}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, "POST", base+"/clicks", `{"at":[21.0,79.0]}`)
	require.Equal(t, http.StatusOK, w.Code)
	var fills []map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&fills))
	assert.Len(t, fills, 1)

	want := models.ScenarioPayload{Vehicles: []models.Vehicle{{
		ID: 1, Identity: "MH31AB1234", Balance: 800.5,
		Waypoints: []models.Coordinate{{Lat: 21.0, Lng: 79.0}},
	}}}
	s.backend.On("Simulate", mock.Anything, want).Return([]models.SimulationResult{
		{VehicleID: 1, TotalDistance: 10, TollDistance: 2, TollCharged: 50, RemainingBalance: 750.5},
	}, nil)

	w = s.do(t, "POST", base+"/simulate", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	panel := decodePanel(t, w)
	require.Len(t, panel.Blocks, 1)
	assert.Equal(t, "Remaining Balance: INR 750.50", panel.Blocks[0].Lines[3])

	w = s.do(t, "GET", base, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var st SessionState
	require.NoError(t, json.NewDecoder(w.Body).Decode(&st))
	require.Len(t, st.Vehicles, 1)
	assert.Equal(t, 1, st.Vehicles[0].Slots)
	assert.Equal(t, render.KindSimulation, st.Panel.Kind)

	w = s.do(t, "GET", base+"/panel", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, panel, decodePanel(t, w))
}

func TestUpdateVehicle_RejectedEditChangesNothing(t *testing.T) {
	s := newTestServer(t, nil, nil)
	base := "/api/sessions/" + s.createSession(t)
	require.Equal(t, http.StatusCreated, s.do(t, "POST", base+"/vehicles", nil).Code)

	w := s.do(t, "PUT", base+"/vehicles/1", `{"identity":"MH31AB1234","balance":"abc"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, "GET", base, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var st SessionState
	require.NoError(t, json.NewDecoder(w.Body).Decode(&st))
	require.Len(t, st.Vehicles, 1)
	assert.Equal(t, "", st.Vehicles[0].Identity)
	assert.Equal(t, models.DefaultBalance, st.Vehicles[0].Balance)

	w = s.do(t, "PUT", base+"/vehicles/1", `{"identity":"MH31AB1234","balance":"250"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var v controller.VehicleState
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	assert.Equal(t, "MH31AB1234", v.Identity)
	assert.Equal(t, 250.0, v.Balance)
}

func TestClickWithoutOpenSlot(t *testing.T) {
	s := newTestServer(t, nil, nil)
	base := "/api/sessions/" + s.createSession(t)
	require.Equal(t, http.StatusCreated, s.do(t, "POST", base+"/vehicles", nil).Code)

	w := s.do(t, "POST", base+"/clicks", `{"at":[21.0,79.0]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestViewerCannotReloadLayers(t *testing.T) {
	authService := auth.NewService("test-secret", time.Hour, nil)
	operatorToken, err := authService.GenerateToken(&models.Operator{Username: "operator", Role: models.RoleOperator})
	require.NoError(t, err)
	viewerToken, err := authService.GenerateToken(&models.Operator{Username: "viewer", Role: models.RoleViewer})
	require.NoError(t, err)
	s := newTestServer(t, authService, nil)

	w := s.do(t, "POST", "/api/sessions", nil, "Authorization", "Bearer "+operatorToken)
	require.Equal(t, http.StatusCreated, w.Code)
	var st SessionState
	require.NoError(t, json.NewDecoder(w.Body).Decode(&st))

	w = s.do(t, "POST", "/api/sessions/"+st.ID+"/layers", nil, "Authorization", "Bearer "+viewerToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, "POST", "/api/sessions/"+st.ID+"/layers", nil, "Authorization", "Bearer "+operatorToken)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestUploadAndDownload(t *testing.T) {
	s := newTestServer(t, nil, nil)
	base := "/api/sessions/" + s.createSession(t)

	s.backend.On("UploadTracks", mock.Anything, models.UploadTracksRequest{IsAsync: true}).
		Return(models.TrackResponse{RequestID: "abc123"}, nil)
	s.backend.On("DownloadTracks", mock.Anything, models.DownloadTracksRequest{RequestID: "abc123"}).
		Return(models.TrackResponse{Routes: []models.Route{{TotalDistance: 10, TollDistance: 2, TollAmount: 50}}}, nil)
	s.backend.On("DownloadTracks", mock.Anything, models.DownloadTracksRequest{RequestID: "later"}).
		Return(models.TrackResponse{}, nil)

	w := s.do(t, "POST", base+"/upload", `{"isAsync":true}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "abc123", decodePanel(t, w).RequestID)

	w = s.do(t, "GET", base+"/jobs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var jobs []models.TrackJob
	require.NoError(t, json.NewDecoder(w.Body).Decode(&jobs))
	require.Len(t, jobs, 1)
	assert.Equal(t, "abc123", jobs[0].RequestID)

	w = s.do(t, "POST", base+"/download", `{"requestId":"abc123"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	panel := decodePanel(t, w)
	require.Len(t, panel.Blocks, 1)
	assert.Equal(t, []string{"Total Distance: 10.00 km", "Toll Distance: 2.00 km", "Toll Amount: 50.00"}, panel.Blocks[0].Lines)

	w = s.do(t, "POST", base+"/download", `{"requestId":"later"}`)
	require.Equal(t, http.StatusAccepted, w.Code)
	panel = decodePanel(t, w)
	assert.Equal(t, render.StateUnavailable, panel.Status.State)
	assert.Len(t, panel.Blocks, 1)

	w = s.do(t, "POST", base+"/download", `{"requestId":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadWithoutRequestID(t *testing.T) {
	s := newTestServer(t, nil, nil)
	base := "/api/sessions/" + s.createSession(t)
	s.backend.On("UploadTracks", mock.Anything, mock.Anything).Return(models.TrackResponse{}, nil)

	w := s.do(t, "POST", base+"/upload", `{"isAsync":true}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestSessionErrors(t *testing.T) {
	s := newTestServer(t, nil, nil)
	base := "/api/sessions/" + s.createSession(t)
	s.do(t, "POST", base+"/vehicles", nil)

	tests := []struct {
		name     string
		method   string
		path     string
		body     interface{}
		wantCode int
	}{
		{"unknown session", "GET", "/api/sessions/00000000-0000-0000-0000-000000000000", nil, http.StatusNotFound},
		{"malformed session", "GET", "/api/sessions/nope/panel", nil, http.StatusNotFound},
		{"unknown vehicle", "POST", base + "/vehicles/9/waypoints", nil, http.StatusNotFound},
		{"bad vehicle id", "POST", base + "/vehicles/x/waypoints", nil, http.StatusBadRequest},
		{"invalid balance", "PUT", base + "/vehicles/1", `{"balance":"lots"}`, http.StatusBadRequest},
		{"edit unknown vehicle", "PUT", base + "/vehicles/5", `{"identity":"x"}`, http.StatusNotFound},
		{"click without position", "POST", base + "/clicks", `{}`, http.StatusBadRequest},
		{"click bad JSON", "POST", base + "/clicks", `{"at":`, http.StatusBadRequest},
		{"runs without archive", "GET", base + "/runs", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
		})
	}
}

func TestSimulateBackendFailure(t *testing.T) {
	s := newTestServer(t, nil, nil)
	base := "/api/sessions/" + s.createSession(t)
	s.backend.On("Simulate", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))

	w := s.do(t, "POST", base+"/simulate", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	w = s.do(t, "GET", base+"/panel", nil)
	panel := decodePanel(t, w)
	assert.Equal(t, render.StateError, panel.Status.State)
	assert.Empty(t, panel.Blocks)
}

func TestRunsFromArchive(t *testing.T) {
	runs := &MockRunCollection{}
	s := newTestServer(t, nil, runs)
	id := s.createSession(t)

	runs.On("FindRuns", mock.Anything, id, int64(5)).
		Return([]models.RunRecord{{SessionID: id, Sequence: 3}}, nil)

	w := s.do(t, "GET", "/api/sessions/"+id+"/runs?limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got []models.RunRecord
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	require.Len(t, got, 1)
	assert.Equal(t, uint64(3), got[0].Sequence)

	w = s.do(t, "GET", "/api/sessions/"+id+"/runs?limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	runs.AssertExpectations(t)
}

func TestListSessions(t *testing.T) {
	s := newTestServer(t, nil, nil)
	s.createSession(t)
	s.createSession(t)

	w := s.do(t, "GET", "/api/sessions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var infos []session.Info
	require.NoError(t, json.NewDecoder(w.Body).Decode(&infos))
	assert.Len(t, infos, 2)
	assert.Equal(t, 2, s.registry.Len())
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{controller.ErrStaleResponse, http.StatusConflict},
		{controller.ErrInvalidBalance, http.StatusBadRequest},
		{controller.ErrUnknownVehicle, http.StatusNotFound},
		{session.ErrSessionNotFound, http.StatusNotFound},
		{errors.New("boom"), http.StatusBadGateway},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		writeError(w, tt.err, http.StatusBadGateway)
		assert.Equal(t, tt.want, w.Code, tt.err.Error())
	}
}
