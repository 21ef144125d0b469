package handlers

import (
	"net/http"

	"github.com/ukydev/toll-scenario/internal/middleware"
	"github.com/ukydev/toll-scenario/internal/models"
)

// Health reports liveness.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Routes registers the operator API. ws serves display clients; it may be nil.
func Routes(mux *http.ServeMux, authMW *middleware.AuthMiddleware, authH *AuthHandler, sessions *SessionHandler, ws http.Handler) {
	edit := authMW.RequirePermission(models.ActionEditScenario)
	run := authMW.RequirePermission(models.ActionRunBackend)
	view := authMW.RequirePermission(models.ActionViewResults)

	mux.HandleFunc("GET /health", Health)
	mux.HandleFunc("POST /api/auth/login", authH.Login)
	mux.Handle("GET /api/auth/me", view(http.HandlerFunc(authH.Me)))

	mux.Handle("POST /api/sessions", edit(http.HandlerFunc(sessions.CreateSession)))
	mux.Handle("GET /api/sessions", view(http.HandlerFunc(sessions.ListSessions)))
	mux.Handle("GET /api/sessions/{id}", view(http.HandlerFunc(sessions.GetSession)))
	mux.Handle("POST /api/sessions/{id}/layers", run(http.HandlerFunc(sessions.ReloadLayers)))
	mux.Handle("POST /api/sessions/{id}/vehicles", edit(http.HandlerFunc(sessions.AddVehicle)))
	mux.Handle("POST /api/sessions/{id}/vehicles/{vid}/waypoints", edit(http.HandlerFunc(sessions.AddWaypoint)))
	mux.Handle("PUT /api/sessions/{id}/vehicles/{vid}", edit(http.HandlerFunc(sessions.UpdateVehicle)))
	mux.Handle("POST /api/sessions/{id}/clicks", edit(http.HandlerFunc(sessions.Click)))
	mux.Handle("POST /api/sessions/{id}/simulate", run(http.HandlerFunc(sessions.Simulate)))
	mux.Handle("POST /api/sessions/{id}/upload", run(http.HandlerFunc(sessions.Upload)))
	mux.Handle("POST /api/sessions/{id}/download", run(http.HandlerFunc(sessions.Download)))
	mux.Handle("GET /api/sessions/{id}/panel", view(http.HandlerFunc(sessions.Panel)))
	mux.Handle("GET /api/sessions/{id}/jobs", view(http.HandlerFunc(sessions.Jobs)))
	mux.Handle("GET /api/sessions/{id}/runs", view(http.HandlerFunc(sessions.Runs)))

	if ws != nil {
		mux.Handle("GET /ws", ws)
	}
}
