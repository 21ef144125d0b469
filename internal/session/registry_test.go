package session

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/toll-scenario/internal/display"
	"github.com/ukydev/toll-scenario/internal/models"
)

func TestRegistry_CreateAndGet(t *testing.T) {
	r := NewRegistry(nil, nil)

	ctrl := r.Create()
	_, err := uuid.Parse(ctrl.ID())
	require.NoError(t, err)

	got, err := r.Get(ctrl.ID())
	require.NoError(t, err)
	assert.Same(t, ctrl, got)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_GetUnknown(t *testing.T) {
	r := NewRegistry(nil, nil)

	_, err := r.Get("not-a-uuid")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = r.Get(uuid.NewString())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRegistry_SessionsAreIsolated(t *testing.T) {
	surfaces := map[string]*display.Recorder{}
	r := NewRegistry(nil, func(id string) display.Surface {
		rec := display.NewRecorder()
		surfaces[id] = rec
		return rec
	})

	a := r.Create()
	b := r.Create()

	idA := a.AddVehicle()
	_, err := a.AddWaypoint(idA)
	require.NoError(t, err)
	idB := b.AddVehicle()
	_, err = b.AddWaypoint(idB)
	require.NoError(t, err)

	a.Click(models.Coordinate{Lat: 21.0, Lng: 79.0})

	assert.Len(t, a.Snapshot().Vehicles[0].Waypoints, 1)
	assert.Empty(t, b.Snapshot().Vehicles[0].Waypoints)
	assert.Equal(t, 1, surfaces[a.ID()].MarkerCount())
	assert.Equal(t, 0, surfaces[b.ID()].MarkerCount())
	// Vehicle ids restart per session.
	assert.Equal(t, 1, idA)
	assert.Equal(t, 1, idB)
}

func TestRegistry_List(t *testing.T) {
	r := NewRegistry(nil, nil)
	a := r.Create()
	a.AddVehicle()
	a.AddVehicle()
	r.Create()

	infos := r.List()
	require.Len(t, infos, 2)
	total := 0
	for _, info := range infos {
		total += info.Vehicles
	}
	assert.Equal(t, 2, total)
}
