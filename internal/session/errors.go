package session

import "errors"

// Typed failures surfaced by the orchestrator. The API layer maps these to
// status codes with errors.Is.
var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrAlreadyRunning  = errors.New("browser already running for profile")
	ErrNotRunning      = errors.New("browser not running for profile")
	ErrNoMaster        = errors.New("no master profile assigned")
	ErrInvalidRole     = errors.New("profile is the master and cannot be a slave")
	ErrUnknownAction   = errors.New("unknown action")
	ErrBadActionArgs   = errors.New("invalid action arguments")
	ErrLaunch          = errors.New("browser launch failed")
	ErrStartAborted    = errors.New("session swept during startup")
	ErrElementNotFound = errors.New("element not found")
	ErrSelectorTimeout = errors.New("timed out waiting for selector")
	ErrSessionLimit    = errors.New("session limit reached")
)
