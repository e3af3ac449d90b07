package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/browserfarm/browserfarm/internal/events"
	"github.com/browserfarm/browserfarm/pkg/models"
)

// reentrantSink reads role state from inside Publish. If a role mutation
// published while still holding the role lock, the read would deadlock.
type reentrantSink struct {
	mgr       *Manager
	profileID int64
	kinds     []events.Kind
	isSlave   []bool
}

func (s *reentrantSink) Publish(e events.Event) {
	_, slave := s.mgr.rolesOf(s.profileID)
	s.kinds = append(s.kinds, e.Kind)
	s.isSlave = append(s.isSlave, slave)
}

func TestSetMaster(t *testing.T) {
	t.Run("requires a running session", func(t *testing.T) {
		mgr, _, st := newTestManager(1)

		err := mgr.SetMaster(1)
		assert.ErrorIs(t, err, ErrNotRunning)
		assert.Empty(t, st.masterSet)
	})

	t.Run("promotion demotes the previous master", func(t *testing.T) {
		mgr, _, st := newTestManager(1, 2)
		for _, id := range []int64{1, 2} {
			_, err := mgr.Start(id, models.StartOptions{})
			require.NoError(t, err)
		}

		require.NoError(t, mgr.SetMaster(1))
		require.NoError(t, mgr.SetMaster(2))

		assert.Equal(t, int64(2), mgr.MasterProfile())
		assert.False(t, mgr.StatusOf(1).IsMaster)
		assert.True(t, mgr.StatusOf(2).IsMaster)
		assert.Equal(t, []int64{1, 2}, st.masterSet)
	})

	t.Run("promoting a slave removes it from the slave set", func(t *testing.T) {
		mgr, _, _ := newTestManager(1)
		_, err := mgr.Start(1, models.StartOptions{})
		require.NoError(t, err)

		require.NoError(t, mgr.AddSlave(1))
		require.NoError(t, mgr.SetMaster(1))

		assert.Equal(t, int64(1), mgr.MasterProfile())
		assert.Empty(t, mgr.Slaves())
	})
}

func TestAddSlave(t *testing.T) {
	t.Run("requires a running session", func(t *testing.T) {
		mgr, _, _ := newTestManager(1)
		assert.ErrorIs(t, mgr.AddSlave(1), ErrNotRunning)
	})

	t.Run("the master cannot be a slave", func(t *testing.T) {
		mgr, _, _ := newTestManager(1)
		_, err := mgr.Start(1, models.StartOptions{})
		require.NoError(t, err)

		require.NoError(t, mgr.SetMaster(1))
		assert.ErrorIs(t, mgr.AddSlave(1), ErrInvalidRole)
		assert.Empty(t, mgr.Slaves())
	})

	t.Run("role reads proceed while the event publishes", func(t *testing.T) {
		mgr, _, _ := newTestManager(1)
		_, err := mgr.Start(1, models.StartOptions{})
		require.NoError(t, err)

		sink := &reentrantSink{mgr: mgr, profileID: 1}
		mgr.events = sink

		require.NoError(t, mgr.AddSlave(1))
		require.Equal(t, []events.Kind{events.SlaveAdded}, sink.kinds)
		assert.Equal(t, []bool{true}, sink.isSlave)
	})

	t.Run("adding twice is a no-op", func(t *testing.T) {
		mgr, _, _ := newTestManager(1)
		_, err := mgr.Start(1, models.StartOptions{})
		require.NoError(t, err)

		require.NoError(t, mgr.AddSlave(1))
		require.NoError(t, mgr.AddSlave(1))
		assert.Equal(t, []int64{1}, mgr.Slaves())
	})
}

func TestRemoveSlave(t *testing.T) {
	mgr, _, _ := newTestManager(1)
	_, err := mgr.Start(1, models.StartOptions{})
	require.NoError(t, err)

	require.NoError(t, mgr.AddSlave(1))
	mgr.RemoveSlave(1)
	assert.Empty(t, mgr.Slaves())

	// Removing an absent slave is fine.
	mgr.RemoveSlave(1)
	mgr.RemoveSlave(42)
}
