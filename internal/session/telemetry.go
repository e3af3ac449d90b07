package session

import (
	"log"
	"time"

	"github.com/browserfarm/browserfarm/internal/browser"
)

// scheduleTelemetry (re)arms the per-profile debounce timer after a
// successful action. Bursts of actions within the quiet period coalesce
// into a single persisted currentUrl/lastActivity write; the URL is read
// when the timer fires so it reflects the latest action. Write failures are
// logged only; telemetry must never block or fail the action itself.
func (m *Manager) scheduleTelemetry(profileID int64, page browser.Page) {
	m.timerMu.Lock()
	defer m.timerMu.Unlock()

	if t, ok := m.timers[profileID]; ok {
		t.Stop()
	}

	m.timers[profileID] = time.AfterFunc(m.debounce, func() {
		m.timerMu.Lock()
		delete(m.timers, profileID)
		m.timerMu.Unlock()

		if err := m.store.UpdateSessionActivity(profileID, page.URL(), time.Now()); err != nil {
			log.Printf("[session] telemetry write failed for profile %d: %v", profileID, err)
		}
	})
}

// cancelTelemetry drops any pending debounced write for a profile. Reached
// from both Stop and Cleanup so no background write references a destroyed
// session.
func (m *Manager) cancelTelemetry(profileID int64) {
	m.timerMu.Lock()
	defer m.timerMu.Unlock()

	if t, ok := m.timers[profileID]; ok {
		t.Stop()
		delete(m.timers, profileID)
	}
}
