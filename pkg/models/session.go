package models

import "time"

// SessionState represents the lifecycle state of a browser session
type SessionState string

const (
	StateStarting SessionState = "starting"
	StateRunning  SessionState = "running"
	StateStopped  SessionState = "stopped"
	StateError    SessionState = "error"
)

// Session represents one running or historical browser instance bound to a profile
type Session struct {
	ID           int64        `json:"id"`
	ProfileID    int64        `json:"profileId"`
	Status       SessionState `json:"status"`
	StartedAt    time.Time    `json:"startedAt"`
	StoppedAt    *time.Time   `json:"stoppedAt,omitempty"`
	IsMaster     bool         `json:"isMaster"`
	CurrentURL   string       `json:"currentUrl,omitempty"`
	LastActivity *time.Time   `json:"lastActivity,omitempty"`
}

// SessionStatus is the real-time view of a profile's browser as reported by
// the live registry, not the persisted session row
type SessionStatus struct {
	Status   SessionState `json:"status"`
	URL      string       `json:"url,omitempty"`
	Title    string       `json:"title,omitempty"`
	IsMaster bool         `json:"isMaster"`
	IsSlave  bool         `json:"isSlave"`
	Error    string       `json:"error,omitempty"`
}

// StartOptions configures a session start request
type StartOptions struct {
	Headless bool `json:"headless"`
}

// BulkRequest is the payload for bulk start/stop
type BulkRequest struct {
	ProfileIDs []int64 `json:"profileIds"`
	Headless   bool    `json:"headless"`
}

// Outcome is the per-target result of a bulk or fanned-out operation.
// One target's failure never masks another's.
type Outcome struct {
	ProfileID int64       `json:"profileId"`
	Success   bool        `json:"success"`
	Result    interface{} `json:"result,omitempty"`
	Error     string      `json:"error,omitempty"`
}
