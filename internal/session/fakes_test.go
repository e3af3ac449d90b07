package session

import (
	"sync"
	"time"

	"github.com/browserfarm/browserfarm/internal/browser"
	"github.com/browserfarm/browserfarm/internal/store"
	"github.com/browserfarm/browserfarm/pkg/models"
)

// fakePage records calls and can be configured to fail specific operations.
type fakePage struct {
	mu          sync.Mutex
	url         string
	title       string
	navigated   []string
	clicked     []string
	typed       []string
	initScripts []string
	failClick   error
	failTitle   error
	failWaitSel error
	evalResult  interface{}
}

func (p *fakePage) Navigate(url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.navigated = append(p.navigated, url)
	p.url = url
	return nil
}

func (p *fakePage) Click(selector string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failClick != nil {
		return p.failClick
	}
	p.clicked = append(p.clicked, selector)
	return nil
}

func (p *fakePage) Type(selector, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.typed = append(p.typed, selector+"="+text)
	return nil
}

func (p *fakePage) WaitForTimeout(ms float64) {}

func (p *fakePage) WaitForSelector(selector string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failWaitSel
}

func (p *fakePage) GetText(selector string) (string, error) {
	return "text of " + selector, nil
}

func (p *fakePage) Screenshot(fullPage bool) ([]byte, error) {
	return []byte{0x89, 0x50, 0x4e, 0x47}, nil
}

func (p *fakePage) Evaluate(script string) (interface{}, error) {
	return p.evalResult, nil
}

func (p *fakePage) AddInitScript(script string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.initScripts = append(p.initScripts, script)
	return nil
}

func (p *fakePage) SetViewport(width, height int) error { return nil }

func (p *fakePage) SetGeolocation(latitude, longitude, accuracy float64) error { return nil }

func (p *fakePage) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *fakePage) Title() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failTitle != nil {
		return "", p.failTitle
	}
	return p.title, nil
}

func (p *fakePage) setURL(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.url = url
}

type fakeInstance struct {
	page      *fakePage
	mu        sync.Mutex
	closed    bool
	failClose error
}

func (i *fakeInstance) Page() browser.Page { return i.page }

func (i *fakeInstance) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.closed = true
	return i.failClose
}

func (i *fakeInstance) isClosed() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.closed
}

type fakeLauncher struct {
	mu         sync.Mutex
	launched   []browser.LaunchOptions
	instances  []*fakeInstance
	failLaunch error

	// onLaunch, when set, runs while the launch is in flight
	onLaunch func()
}

func (l *fakeLauncher) Launch(opts browser.LaunchOptions) (browser.Instance, error) {
	if l.onLaunch != nil {
		l.onLaunch()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failLaunch != nil {
		return nil, l.failLaunch
	}
	l.launched = append(l.launched, opts)
	inst := &fakeInstance{page: &fakePage{title: "New Tab"}}
	l.instances = append(l.instances, inst)
	return inst, nil
}

func (l *fakeLauncher) launchCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.launched)
}

type activityWrite struct {
	profileID int64
	url       string
}

// fakeSessionStore satisfies the Store interface with in-memory state.
type fakeSessionStore struct {
	mu              sync.Mutex
	profiles        map[int64]*models.Profile
	sessionsCreated []int64
	stopped         []int64
	stopAllCalls    int
	masterSet       []int64
	masterCleared   int
	deactivated     int
	statuses        map[int64]models.ProfileStatus
	activity        []activityWrite
	failCreate      error
	failStatus      error
}

func newFakeSessionStore(profileIDs ...int64) *fakeSessionStore {
	st := &fakeSessionStore{
		profiles: make(map[int64]*models.Profile),
		statuses: make(map[int64]models.ProfileStatus),
	}
	for _, id := range profileIDs {
		st.profiles[id] = &models.Profile{
			ID:     id,
			Name:   "profile",
			Status: models.ProfileInactive,
			Fingerprint: models.Fingerprint{
				UserAgent: "Mozilla/5.0",
				Timezone:  "America/New_York",
				Language:  "en-US,en;q=0.9",
				Screen:    models.Screen{Width: 1920, Height: 1080},
			},
		}
	}
	return st
}

func (s *fakeSessionStore) GetProfile(id int64) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *fakeSessionStore) SetProfileStatus(id int64, status models.ProfileStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failStatus != nil {
		return s.failStatus
	}
	s.statuses[id] = status
	return nil
}

func (s *fakeSessionStore) DeactivateAllProfiles() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deactivated++
	return nil
}

func (s *fakeSessionStore) CreateSession(profileID int64, startedAt time.Time) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreate != nil {
		return nil, s.failCreate
	}
	s.sessionsCreated = append(s.sessionsCreated, profileID)
	return &models.Session{ID: profileID, ProfileID: profileID, Status: models.StateRunning, StartedAt: startedAt}, nil
}

func (s *fakeSessionStore) MarkSessionStopped(profileID int64, status models.SessionState, stoppedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = append(s.stopped, profileID)
	return nil
}

func (s *fakeSessionStore) StopAllRunningSessions(stoppedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopAllCalls++
	return nil
}

func (s *fakeSessionStore) SetMasterSession(profileID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.masterSet = append(s.masterSet, profileID)
	return nil
}

func (s *fakeSessionStore) ClearMasterSessions() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.masterCleared++
	return nil
}

func (s *fakeSessionStore) UpdateSessionActivity(profileID int64, currentURL string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activity = append(s.activity, activityWrite{profileID: profileID, url: currentURL})
	return nil
}

func (s *fakeSessionStore) activityWrites() []activityWrite {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]activityWrite, len(s.activity))
	copy(out, s.activity)
	return out
}
