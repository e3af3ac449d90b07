package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/browserfarm/browserfarm/pkg/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func testProfile(name string) models.Profile {
	return models.Profile{
		Name: name,
		Fingerprint: models.Fingerprint{
			ID:        "fp-" + name,
			Platform:  "Win32",
			UserAgent: "Mozilla/5.0",
			Timezone:  "Europe/Berlin",
			Language:  "en-US,en;q=0.9",
			Screen:    models.Screen{Width: 1920, Height: 1080},
		},
		UserDataDir: "/tmp/" + name,
	}
}

func TestProfileCRUD(t *testing.T) {
	st := openTestStore(t)

	created, err := st.CreateProfile(testProfile("alpha"))
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, models.ProfileInactive, created.Status)

	got, err := st.GetProfile(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "alpha", got.Name)
	assert.Equal(t, "fp-alpha", got.Fingerprint.ID)
	assert.Equal(t, 1920, got.Fingerprint.Screen.Width)
	assert.Nil(t, got.LastUsed)

	got.Name = "renamed"
	got.Notes = "warmed up"
	require.NoError(t, st.UpdateProfile(*got))

	got, err = st.GetProfile(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Name)
	assert.Equal(t, "warmed up", got.Notes)

	require.NoError(t, st.DeleteProfile(created.ID))
	_, err = st.GetProfile(created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProfileNotFound(t *testing.T) {
	st := openTestStore(t)

	_, err := st.GetProfile(42)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, st.UpdateProfile(models.Profile{ID: 42}), ErrNotFound)
	assert.ErrorIs(t, st.DeleteProfile(42), ErrNotFound)
}

func TestSetProfileStatus(t *testing.T) {
	st := openTestStore(t)

	p, err := st.CreateProfile(testProfile("alpha"))
	require.NoError(t, err)

	require.NoError(t, st.SetProfileStatus(p.ID, models.ProfileActive))
	got, err := st.GetProfile(p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProfileActive, got.Status)
	require.NotNil(t, got.LastUsed, "activation stamps last_used")

	require.NoError(t, st.SetProfileStatus(p.ID, models.ProfileInactive))
	got, err = st.GetProfile(p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProfileInactive, got.Status)
}

func TestDeactivateAllProfiles(t *testing.T) {
	st := openTestStore(t)

	a, _ := st.CreateProfile(testProfile("a"))
	b, _ := st.CreateProfile(testProfile("b"))
	require.NoError(t, st.SetProfileStatus(a.ID, models.ProfileActive))
	require.NoError(t, st.SetProfileStatus(b.ID, models.ProfileActive))

	require.NoError(t, st.DeactivateAllProfiles())

	profiles, err := st.ListProfiles()
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	for _, p := range profiles {
		assert.Equal(t, models.ProfileInactive, p.Status)
	}
}

func TestProfileWithProxy(t *testing.T) {
	st := openTestStore(t)

	proxy, err := st.CreateProxy(models.Proxy{Host: "203.0.113.7", Port: 8080})
	require.NoError(t, err)

	p := testProfile("proxied")
	p.ProxyID = &proxy.ID
	created, err := st.CreateProfile(p)
	require.NoError(t, err)

	got, err := st.GetProfile(created.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Proxy)
	assert.Equal(t, "203.0.113.7", got.Proxy.Host)
}

func TestProxyLifecycle(t *testing.T) {
	st := openTestStore(t)

	created, err := st.CreateProxy(models.Proxy{Host: "h", Port: 3128, Username: "u", Password: "p"})
	require.NoError(t, err)
	assert.Equal(t, "http", created.Protocol)
	assert.Equal(t, models.ProxyUntested, created.Status)

	require.NoError(t, st.RecordProxyTest(created.ID, models.ProxyTestResult{Success: true, SpeedMs: 120}))
	got, err := st.GetProxy(created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProxyWorking, got.Status)
	require.NotNil(t, got.SpeedMs)
	assert.Equal(t, int64(120), *got.SpeedMs)
	assert.NotNil(t, got.LastTested)

	require.NoError(t, st.RecordProxyTest(created.ID, models.ProxyTestResult{Success: false, Error: "timeout"}))
	got, err = st.GetProxy(created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProxyFailed, got.Status)
	assert.Nil(t, got.SpeedMs)

	profileID := int64(9)
	require.NoError(t, st.AssignProxy(created.ID, &profileID))
	got, _ = st.GetProxy(created.ID)
	assert.True(t, got.IsAssigned)
	require.NotNil(t, got.AssignedTo)
	assert.Equal(t, int64(9), *got.AssignedTo)

	require.NoError(t, st.AssignProxy(created.ID, nil))
	got, _ = st.GetProxy(created.ID)
	assert.False(t, got.IsAssigned)
	assert.Nil(t, got.AssignedTo)

	require.NoError(t, st.DeleteProxy(created.ID))
	_, err = st.GetProxy(created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessionPersistence(t *testing.T) {
	st := openTestStore(t)

	p, err := st.CreateProfile(testProfile("alpha"))
	require.NoError(t, err)

	startedAt := time.Now()
	sess, err := st.CreateSession(p.ID, startedAt)
	require.NoError(t, err)
	assert.NotZero(t, sess.ID)
	assert.Equal(t, models.StateRunning, sess.Status)

	require.NoError(t, st.UpdateSessionActivity(p.ID, "https://example.com", time.Now()))

	sessions, err := st.ListSessions()
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "https://example.com", sessions[0].CurrentURL)
	assert.NotNil(t, sessions[0].LastActivity)

	require.NoError(t, st.MarkSessionStopped(p.ID, models.StateStopped, time.Now()))
	sessions, _ = st.ListSessions()
	assert.Equal(t, models.StateStopped, sessions[0].Status)
	assert.NotNil(t, sessions[0].StoppedAt)

	// Telemetry against a stopped session is a silent no-op.
	require.NoError(t, st.UpdateSessionActivity(p.ID, "https://late.example", time.Now()))
	sessions, _ = st.ListSessions()
	assert.Equal(t, "https://example.com", sessions[0].CurrentURL)
}

func TestMasterFlagPersistence(t *testing.T) {
	st := openTestStore(t)

	a, _ := st.CreateProfile(testProfile("a"))
	b, _ := st.CreateProfile(testProfile("b"))
	_, err := st.CreateSession(a.ID, time.Now())
	require.NoError(t, err)
	_, err = st.CreateSession(b.ID, time.Now())
	require.NoError(t, err)

	masters := func() []int64 {
		sessions, err := st.ListSessions()
		require.NoError(t, err)
		var ids []int64
		for _, s := range sessions {
			if s.IsMaster {
				ids = append(ids, s.ProfileID)
			}
		}
		return ids
	}

	require.NoError(t, st.SetMasterSession(a.ID))
	assert.Equal(t, []int64{a.ID}, masters())

	// Promotion clears the previous master in the same transaction.
	require.NoError(t, st.SetMasterSession(b.ID))
	assert.Equal(t, []int64{b.ID}, masters())

	require.NoError(t, st.ClearMasterSessions())
	assert.Empty(t, masters())
}

func TestStopAllRunningSessions(t *testing.T) {
	st := openTestStore(t)

	a, _ := st.CreateProfile(testProfile("a"))
	b, _ := st.CreateProfile(testProfile("b"))
	_, err := st.CreateSession(a.ID, time.Now())
	require.NoError(t, err)
	_, err = st.CreateSession(b.ID, time.Now())
	require.NoError(t, err)

	require.NoError(t, st.StopAllRunningSessions(time.Now()))

	sessions, err := st.ListSessions()
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	for _, s := range sessions {
		assert.Equal(t, models.StateStopped, s.Status)
		assert.NotNil(t, s.StoppedAt)
	}
}

func TestScriptCRUD(t *testing.T) {
	st := openTestStore(t)

	created, err := st.CreateScript(models.Script{
		Name:     "warmup",
		IsActive: true,
		Actions: []models.ScriptAction{
			{Type: "navigate", Args: []interface{}{"https://example.com"}},
			{Type: "wait", Args: []interface{}{float64(1000)}, ContinueOnError: true},
		},
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	got, err := st.GetScript(created.ID)
	require.NoError(t, err)
	require.Len(t, got.Actions, 2)
	assert.Equal(t, "navigate", got.Actions[0].Type)
	assert.True(t, got.Actions[1].ContinueOnError)
	assert.Zero(t, got.RunCount)

	got.Name = "warmup v2"
	got.Actions = got.Actions[:1]
	require.NoError(t, st.UpdateScript(*got))
	got, err = st.GetScript(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "warmup v2", got.Name)
	assert.Len(t, got.Actions, 1)

	require.NoError(t, st.MarkScriptRun(created.ID, time.Now()))
	require.NoError(t, st.RecordScriptOutcome(created.ID, 3, 1))
	got, err = st.GetScript(created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.RunCount)
	assert.Equal(t, int64(3), got.SuccessCount)
	assert.Equal(t, int64(1), got.FailureCount)
	assert.NotNil(t, got.LastRun)

	require.NoError(t, st.DeleteScript(created.ID))
	_, err = st.GetScript(created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
