package session

import (
	"fmt"
	"sync"

	"github.com/browserfarm/browserfarm/pkg/models"
)

// ExecuteOnMaster runs one action against the master's page. Single target,
// single outcome: errors surface directly.
func (m *Manager) ExecuteOnMaster(a Action) (interface{}, error) {
	profileID, page, err := m.masterPage()
	if err != nil {
		return nil, err
	}

	result, err := executeAction(page, a)
	if err != nil {
		return nil, err
	}

	m.scheduleTelemetry(profileID, page)
	return result, nil
}

// ExecuteOnProfile runs one action against a specific live profile.
func (m *Manager) ExecuteOnProfile(profileID int64, a Action) (interface{}, error) {
	page, ok := m.pageOf(profileID)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNotRunning, profileID)
	}

	result, err := executeAction(page, a)
	if err != nil {
		return nil, err
	}

	m.scheduleTelemetry(profileID, page)
	return result, nil
}

// ExecuteOnSlaves fans one action out to every live slave concurrently and
// collects one outcome per target. A target's failure is isolated in its
// outcome record and never aborts the rest; completion order across slaves
// is unspecified.
func (m *Manager) ExecuteOnSlaves(a Action) []models.Outcome {
	targets := m.slavePages()
	outcomes := make([]models.Outcome, len(targets))

	var wg sync.WaitGroup
	for i, target := range targets {
		wg.Add(1)
		go func(i int, target slaveTarget) {
			defer wg.Done()

			result, err := executeAction(target.page, a)
			if err != nil {
				outcomes[i] = models.Outcome{ProfileID: target.profileID, Success: false, Error: err.Error()}
				return
			}

			m.scheduleTelemetry(target.profileID, target.page)
			outcomes[i] = models.Outcome{ProfileID: target.profileID, Success: true, Result: result}
		}(i, target)
	}
	wg.Wait()

	return outcomes
}
