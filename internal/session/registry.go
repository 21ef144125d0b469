// Package session keeps one scenario controller per operator session.
package session

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/toll-scenario/internal/controller"
	"github.com/ukydev/toll-scenario/internal/display"
)

var ErrSessionNotFound = errors.New("session not found")

// SurfaceFactory returns the display surface for a new session.
type SurfaceFactory func(sessionID string) display.Surface

// Info describes a session.
type Info struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Vehicles  int       `json:"vehicles"`
}

type entry struct {
	ctrl      *controller.Controller
	createdAt time.Time
}

// Registry maps session ids to controllers.
type Registry struct {
	backend  controller.Backend
	surfaces SurfaceFactory
	opts     []controller.Option

	mu       sync.RWMutex
	sessions map[string]*entry
}

// NewRegistry creates an empty registry. Every controller it creates shares
// backend and opts but gets its own model and surface.
func NewRegistry(backend controller.Backend, surfaces SurfaceFactory, opts ...controller.Option) *Registry {
	if surfaces == nil {
		surfaces = func(string) display.Surface { return display.NewRecorder() }
	}
	return &Registry{
		backend:  backend,
		surfaces: surfaces,
		opts:     opts,
		sessions: make(map[string]*entry),
	}
}

// Create starts a new session with an empty scenario.
func (r *Registry) Create() *controller.Controller {
	id := uuid.NewString()
	ctrl := controller.New(id, r.backend, r.surfaces(id), r.opts...)

	r.mu.Lock()
	r.sessions[id] = &entry{ctrl: ctrl, createdAt: time.Now()}
	r.mu.Unlock()

	log.WithField("session_id", id).Info("Session created")
	return ctrl
}

// Get returns the controller of a session.
func (r *Registry) Get(id string) (*controller.Controller, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrSessionNotFound
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return e.ctrl, nil
}

// List returns every session, oldest first.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Info, 0, len(r.sessions))
	for id, e := range r.sessions {
		out = append(out, Info{ID: id, CreatedAt: e.createdAt, Vehicles: len(e.ctrl.Snapshot().Vehicles)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Len returns the number of sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
