package models

import "time"

// ScriptAction is one step of a script: an action payload plus a flag
// controlling whether a failure aborts the rest of the run for that profile.
// Args are positional, matching the execute endpoints.
type ScriptAction struct {
	Type            string        `json:"type"`
	Args            []interface{} `json:"args,omitempty"`
	ContinueOnError bool          `json:"continueOnError,omitempty"`
}

// Script is a stored sequence of actions played back against one or many
// running profiles. Schedule holds a cron expression for external
// schedulers; this service does not evaluate it.
type Script struct {
	ID           int64          `json:"id"`
	Name         string         `json:"name"`
	Description  string         `json:"description,omitempty"`
	Actions      []ScriptAction `json:"actions"`
	Schedule     string         `json:"schedule,omitempty"`
	IsActive     bool           `json:"isActive"`
	LastRun      *time.Time     `json:"lastRun,omitempty"`
	RunCount     int64          `json:"runCount"`
	SuccessCount int64          `json:"successCount"`
	FailureCount int64          `json:"failureCount"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// ScriptRunResult aggregates one script invocation
type ScriptRunResult struct {
	ScriptID int64           `json:"scriptId"`
	Profiles []ProfileResult `json:"profiles"`
}

// ProfileResult is one profile's playback record within a script run
type ProfileResult struct {
	ProfileID int64           `json:"profileId"`
	Success   bool            `json:"success"`
	Error     string          `json:"error,omitempty"`
	Actions   []ActionOutcome `json:"actions"`
}

// ActionOutcome records one executed script step
type ActionOutcome struct {
	Action  string      `json:"action"`
	Success bool        `json:"success"`
	Result  interface{} `json:"result,omitempty"`
	Error   string      `json:"error,omitempty"`
}
