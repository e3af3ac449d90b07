// Package session is the orchestration core: it owns the live mapping from
// profile to browser handle pair, the master/slave role assignments, action
// execution and fan-out, and the debounced liveness telemetry.
package session

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/browserfarm/browserfarm/internal/browser"
	"github.com/browserfarm/browserfarm/internal/events"
	"github.com/browserfarm/browserfarm/internal/fingerprint"
	"github.com/browserfarm/browserfarm/internal/proxycfg"
	"github.com/browserfarm/browserfarm/internal/store"
	"github.com/browserfarm/browserfarm/pkg/models"
)

// Store is the slice of persistence the orchestrator needs. Status
// transitions are authoritative writes; telemetry is best-effort.
type Store interface {
	GetProfile(id int64) (*models.Profile, error)
	SetProfileStatus(id int64, status models.ProfileStatus) error
	DeactivateAllProfiles() error
	CreateSession(profileID int64, startedAt time.Time) (*models.Session, error)
	MarkSessionStopped(profileID int64, status models.SessionState, stoppedAt time.Time) error
	StopAllRunningSessions(stoppedAt time.Time) error
	SetMasterSession(profileID int64) error
	ClearMasterSessions() error
	UpdateSessionActivity(profileID int64, currentURL string, at time.Time) error
}

// eventSink is the slice of the event hub the orchestrator uses.
type eventSink interface {
	Publish(e events.Event)
}

// DefaultMaxSessions caps concurrently live browsers
const DefaultMaxSessions = 20

// DefaultDebounce is the telemetry quiet period
const DefaultDebounce = 5 * time.Second

type liveSession struct {
	profileID int64
	instance  browser.Instance
	page      browser.Page

	// starting marks a placeholder reserved while the launch is in flight
	// so a racing Start fails fast without side effects
	starting bool
}

// Manager owns the live session map and role state. No other component may
// hold or create profile-to-handle mappings.
type Manager struct {
	launcher browser.Launcher
	store    Store
	injector *fingerprint.Injector
	events   eventSink

	mu   sync.RWMutex
	live map[int64]*liveSession

	roleMu sync.Mutex
	master int64 // 0 means unassigned
	slaves map[int64]struct{}

	slots *semaphore.Weighted

	timerMu  sync.Mutex
	timers   map[int64]*time.Timer
	debounce time.Duration
}

// NewManager creates the orchestrator. hub may be nil when no event stream
// is attached (tests).
func NewManager(launcher browser.Launcher, st Store, hub *events.Hub) *Manager {
	m := &Manager{
		launcher: launcher,
		store:    st,
		injector: fingerprint.NewInjector(),
		live:     make(map[int64]*liveSession),
		slaves:   make(map[int64]struct{}),
		slots:    semaphore.NewWeighted(DefaultMaxSessions),
		timers:   make(map[int64]*time.Timer),
		debounce: DefaultDebounce,
	}
	if hub != nil {
		m.events = hub
	}
	return m
}

// SetDebounce overrides the telemetry quiet period.
func (m *Manager) SetDebounce(d time.Duration) {
	m.timerMu.Lock()
	defer m.timerMu.Unlock()
	m.debounce = d
}

// Start launches a browser for the profile, applies its fingerprint before
// any navigation, and registers the handle pair. A profile has at most one
// live handle pair at any time.
func (m *Manager) Start(profileID int64, opts models.StartOptions) (*models.Session, error) {
	profile, err := m.store.GetProfile(profileID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrProfileNotFound, profileID)
		}
		return nil, fmt.Errorf("failed to load profile %d: %w", profileID, err)
	}

	// Reserve the slot in the live map first so a concurrent Start for the
	// same profile fails without side effects.
	m.mu.Lock()
	if _, exists := m.live[profileID]; exists {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %d", ErrAlreadyRunning, profileID)
	}
	m.live[profileID] = &liveSession{profileID: profileID, starting: true}
	m.mu.Unlock()

	if !m.slots.TryAcquire(1) {
		m.removeLive(profileID)
		return nil, ErrSessionLimit
	}

	instance, err := m.launcher.Launch(m.launchOptions(profile, opts))
	if err != nil {
		m.removeLive(profileID)
		m.slots.Release(1)
		return nil, fmt.Errorf("%w: %v", ErrLaunch, err)
	}

	page := instance.Page()

	// Best-effort stealth: partial spoofing is preferable to refusing to
	// start the session.
	m.injector.Apply(page, profile.Fingerprint)

	startedAt := time.Now()
	sess, err := m.store.CreateSession(profileID, startedAt)
	if err != nil {
		if cerr := instance.Close(); cerr != nil {
			log.Printf("[session] close after failed persist for profile %d: %v", profileID, cerr)
		}
		m.removeLive(profileID)
		m.slots.Release(1)
		return nil, fmt.Errorf("failed to persist session for profile %d: %w", profileID, err)
	}

	// Status transitions are authoritative; roll the launch back rather
	// than leave a running browser whose profile still reads inactive.
	if err := m.store.SetProfileStatus(profileID, models.ProfileActive); err != nil {
		m.abortStart(profileID, instance)
		return nil, fmt.Errorf("failed to mark profile %d active: %w", profileID, err)
	}

	// Commit the live entry only if the starting placeholder survived. A
	// Cleanup that swept while the launch was in flight discarded it, and
	// re-registering here would resurrect the session past the sweep.
	m.mu.Lock()
	ls, ok := m.live[profileID]
	if !ok || !ls.starting {
		m.mu.Unlock()
		m.abortStart(profileID, instance)
		return nil, fmt.Errorf("%w: %d", ErrStartAborted, profileID)
	}
	m.live[profileID] = &liveSession{profileID: profileID, instance: instance, page: page}
	m.mu.Unlock()

	m.publish(events.SessionStarted, profileID, nil)
	return sess, nil
}

// Stop closes the profile's browser and releases its registry entry. The
// entry is removed even when the close fails; a hung close must not leak a
// running session that cannot be reached.
func (m *Manager) Stop(profileID int64) error {
	m.mu.Lock()
	ls, ok := m.live[profileID]
	if !ok || ls.starting {
		m.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrNotRunning, profileID)
	}
	delete(m.live, profileID)
	m.mu.Unlock()

	m.cancelTelemetry(profileID)
	m.slots.Release(1)

	if err := ls.instance.Close(); err != nil {
		log.Printf("[session] close failed for profile %d: %v", profileID, err)
	}

	stoppedAt := time.Now()
	if err := m.store.MarkSessionStopped(profileID, models.StateStopped, stoppedAt); err != nil {
		return fmt.Errorf("failed to persist stop for profile %d: %w", profileID, err)
	}
	if err := m.store.SetProfileStatus(profileID, models.ProfileInactive); err != nil {
		return fmt.Errorf("failed to mark profile %d inactive: %w", profileID, err)
	}

	m.publish(events.SessionStopped, profileID, nil)
	return nil
}

// StatusOf reports the real-time status of one profile's browser.
func (m *Manager) StatusOf(profileID int64) models.SessionStatus {
	m.mu.RLock()
	ls, ok := m.live[profileID]
	m.mu.RUnlock()

	if !ok {
		return models.SessionStatus{Status: models.StateStopped}
	}
	if ls.starting {
		return models.SessionStatus{Status: models.StateStarting}
	}

	isMaster, isSlave := m.rolesOf(profileID)

	title, err := ls.page.Title()
	if err != nil {
		// The underlying process died without an explicit stop.
		return models.SessionStatus{
			Status:   models.StateError,
			IsMaster: isMaster,
			IsSlave:  isSlave,
			Error:    err.Error(),
		}
	}

	return models.SessionStatus{
		Status:   models.StateRunning,
		URL:      ls.page.URL(),
		Title:    title,
		IsMaster: isMaster,
		IsSlave:  isSlave,
	}
}

// StatusOfAll reports the real-time status of every live profile.
func (m *Manager) StatusOfAll() map[int64]models.SessionStatus {
	m.mu.RLock()
	ids := make([]int64, 0, len(m.live))
	for id := range m.live {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	statuses := make(map[int64]models.SessionStatus, len(ids))
	for _, id := range ids {
		statuses[id] = m.StatusOf(id)
	}
	return statuses
}

// RunningCount reports how many sessions are currently live.
func (m *Manager) RunningCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.live)
}

// Cleanup closes every live session, clears role assignments and debounce
// timers, and bulk-persists the stopped state. Per-handle close failures
// are logged and do not stop the sweep.
func (m *Manager) Cleanup() error {
	m.mu.Lock()
	sessions := make([]*liveSession, 0, len(m.live))
	for _, ls := range m.live {
		if !ls.starting {
			sessions = append(sessions, ls)
		}
	}
	m.live = make(map[int64]*liveSession)
	m.mu.Unlock()

	m.timerMu.Lock()
	for id, t := range m.timers {
		t.Stop()
		delete(m.timers, id)
	}
	m.timerMu.Unlock()

	for _, ls := range sessions {
		if err := ls.instance.Close(); err != nil {
			log.Printf("[session] cleanup close failed for profile %d: %v", ls.profileID, err)
		}
		m.slots.Release(1)
	}

	m.roleMu.Lock()
	m.master = 0
	m.slaves = make(map[int64]struct{})
	m.roleMu.Unlock()

	var firstErr error
	if err := m.store.StopAllRunningSessions(time.Now()); err != nil {
		firstErr = fmt.Errorf("failed to persist session cleanup: %w", err)
	}
	if err := m.store.ClearMasterSessions(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("failed to clear master flags: %w", err)
	}
	if err := m.store.DeactivateAllProfiles(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("failed to deactivate profiles: %w", err)
	}

	m.publish(events.CleanupDone, 0, nil)
	return firstErr
}

func (m *Manager) launchOptions(profile *models.Profile, opts models.StartOptions) browser.LaunchOptions {
	fp := profile.Fingerprint

	launch := browser.LaunchOptions{
		Headless:       opts.Headless,
		UserDataDir:    profile.UserDataDir,
		UserAgent:      fp.UserAgent,
		Timezone:       fp.Timezone,
		Locale:         primaryLocale(fp.Language),
		ViewportWidth:  fp.Screen.Width,
		ViewportHeight: fp.Screen.Height,
	}

	if profile.Proxy != nil {
		launch.Proxy = &browser.ProxyConfig{
			Server:   proxycfg.ServerURL(*profile.Proxy),
			Username: profile.Proxy.Username,
			Password: profile.Proxy.Password,
		}
	}

	return launch
}

func primaryLocale(language string) string {
	if language == "" {
		return ""
	}
	first := strings.SplitN(language, ",", 2)[0]
	return strings.TrimSpace(strings.SplitN(first, ";", 2)[0])
}

// abortStart unwinds a launch that cannot be committed: the browser is
// closed, the persisted session row is stopped, and the slot is released.
// Persistence rollback is best-effort; the browser close is what matters.
func (m *Manager) abortStart(profileID int64, instance browser.Instance) {
	if err := instance.Close(); err != nil {
		log.Printf("[session] close after aborted start for profile %d: %v", profileID, err)
	}
	if err := m.store.MarkSessionStopped(profileID, models.StateStopped, time.Now()); err != nil {
		log.Printf("[session] failed to persist aborted start for profile %d: %v", profileID, err)
	}
	if err := m.store.SetProfileStatus(profileID, models.ProfileInactive); err != nil {
		log.Printf("[session] failed to mark profile %d inactive after aborted start: %v", profileID, err)
	}
	m.removeLive(profileID)
	m.slots.Release(1)
}

func (m *Manager) removeLive(profileID int64) {
	m.mu.Lock()
	delete(m.live, profileID)
	m.mu.Unlock()
}

func (m *Manager) pageOf(profileID int64) (browser.Page, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ls, ok := m.live[profileID]
	if !ok || ls.starting {
		return nil, false
	}
	return ls.page, true
}

func (m *Manager) publish(kind events.Kind, profileID int64, data map[string]interface{}) {
	if m.events == nil {
		return
	}
	m.events.Publish(events.Event{Kind: kind, ProfileID: profileID, Data: data})
}
