package session

import (
	"fmt"
	"log"

	"github.com/browserfarm/browserfarm/internal/browser"
	"github.com/browserfarm/browserfarm/internal/events"
)

// Role state is process-wide and ephemeral: it is reconstructed empty on
// restart. The persisted is_master flag is history, not a recovery source.
// Invariant: the master is never a member of the slave set.

// SetMaster atomically promotes a running profile to master, demoting any
// previous master and removing the profile from the slave set.
func (m *Manager) SetMaster(profileID int64) error {
	if _, ok := m.pageOf(profileID); !ok {
		return fmt.Errorf("%w: %d", ErrNotRunning, profileID)
	}

	m.roleMu.Lock()
	m.master = profileID
	delete(m.slaves, profileID)
	m.roleMu.Unlock()

	if err := m.store.SetMasterSession(profileID); err != nil {
		return fmt.Errorf("failed to persist master flag for profile %d: %w", profileID, err)
	}

	m.publish(events.MasterChanged, profileID, nil)
	return nil
}

// AddSlave adds a running profile to the slave set. Adding the current
// master is rejected; adding an existing slave is a no-op.
func (m *Manager) AddSlave(profileID int64) error {
	if _, ok := m.pageOf(profileID); !ok {
		return fmt.Errorf("%w: %d", ErrNotRunning, profileID)
	}

	m.roleMu.Lock()
	if m.master == profileID {
		m.roleMu.Unlock()
		return fmt.Errorf("%w: %d", ErrInvalidRole, profileID)
	}
	if _, ok := m.slaves[profileID]; ok {
		m.roleMu.Unlock()
		return nil
	}
	m.slaves[profileID] = struct{}{}
	m.roleMu.Unlock()

	// Publish after releasing roleMu; a slow event subscriber must not
	// stall role reads.
	m.publish(events.SlaveAdded, profileID, nil)
	return nil
}

// RemoveSlave removes a profile from the slave set. Idempotent.
func (m *Manager) RemoveSlave(profileID int64) {
	m.roleMu.Lock()
	_, present := m.slaves[profileID]
	delete(m.slaves, profileID)
	m.roleMu.Unlock()

	if present {
		m.publish(events.SlaveRemoved, profileID, nil)
	}
}

// MasterProfile returns the current master's profile id, 0 when unassigned.
func (m *Manager) MasterProfile() int64 {
	m.roleMu.Lock()
	defer m.roleMu.Unlock()
	return m.master
}

// Slaves returns a snapshot of the slave set.
func (m *Manager) Slaves() []int64 {
	m.roleMu.Lock()
	defer m.roleMu.Unlock()

	ids := make([]int64, 0, len(m.slaves))
	for id := range m.slaves {
		ids = append(ids, id)
	}
	return ids
}

func (m *Manager) rolesOf(profileID int64) (isMaster, isSlave bool) {
	m.roleMu.Lock()
	defer m.roleMu.Unlock()
	_, isSlave = m.slaves[profileID]
	return m.master == profileID, isSlave
}

// masterPage resolves the master's live page handle.
func (m *Manager) masterPage() (int64, browser.Page, error) {
	m.roleMu.Lock()
	master := m.master
	m.roleMu.Unlock()

	if master == 0 {
		return 0, nil, ErrNoMaster
	}

	page, ok := m.pageOf(master)
	if !ok {
		// The assigned master's session has since stopped.
		return 0, nil, fmt.Errorf("%w: master profile %d", ErrNotRunning, master)
	}
	return master, page, nil
}

type slaveTarget struct {
	profileID int64
	page      browser.Page
}

// slavePages resolves the live subset of the slave set. Slaves whose
// sessions have stopped are silently excluded from fan-out, not an error.
func (m *Manager) slavePages() []slaveTarget {
	m.roleMu.Lock()
	ids := make([]int64, 0, len(m.slaves))
	for id := range m.slaves {
		ids = append(ids, id)
	}
	m.roleMu.Unlock()

	targets := make([]slaveTarget, 0, len(ids))
	for _, id := range ids {
		page, ok := m.pageOf(id)
		if !ok {
			log.Printf("[session] dropping stale slave %d from fan-out", id)
			continue
		}
		targets = append(targets, slaveTarget{profileID: id, page: page})
	}
	return targets
}
