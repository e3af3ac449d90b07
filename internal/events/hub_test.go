package events

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func subscribe(t *testing.T, hub *Hub) (*websocket.Conn, func()) {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleConnection))
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	// Registration races the dial returning.
	require.Eventually(t, func() bool { return hub.ClientCount() > 0 }, time.Second, 10*time.Millisecond)

	return conn, func() {
		conn.Close()
		srv.Close()
	}
}

func TestPublishReachesSubscribers(t *testing.T) {
	hub := NewHub()
	conn, cleanup := subscribe(t, hub)
	defer cleanup()

	hub.Publish(Event{Kind: SessionStarted, ProfileID: 7})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got Event
	require.NoError(t, conn.ReadJSON(&got))

	assert.Equal(t, SessionStarted, got.Kind)
	assert.Equal(t, int64(7), got.ProfileID)
	assert.NotEmpty(t, got.ID)
	assert.False(t, got.Time.IsZero())
}

func TestDisconnectedClientIsDropped(t *testing.T) {
	hub := NewHub()
	conn, cleanup := subscribe(t, hub)
	defer cleanup()

	conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 10*time.Millisecond)

	// Publishing to an empty hub is fine.
	hub.Publish(Event{Kind: CleanupDone})
}
