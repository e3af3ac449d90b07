package models

import "time"

// ProfileStatus represents whether a profile currently has a live session
type ProfileStatus string

const (
	ProfileInactive ProfileStatus = "inactive"
	ProfileActive   ProfileStatus = "active"
	ProfileError    ProfileStatus = "error"
)

// Profile is a persistent automation identity: a fingerprint, an optional
// egress proxy and an on-disk user-data directory. One profile maps to at
// most one live session.
type Profile struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	Fingerprint Fingerprint   `json:"fingerprint"`
	ProxyID     *int64        `json:"proxyId,omitempty"`
	Proxy       *Proxy        `json:"proxy,omitempty"`
	UserDataDir string        `json:"userDataDir"`
	Status      ProfileStatus `json:"status"`
	LastUsed    *time.Time    `json:"lastUsed,omitempty"`
	Notes       string        `json:"notes,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// CreateProfileRequest is the payload for creating a profile
type CreateProfileRequest struct {
	Name        string       `json:"name"`
	Fingerprint *Fingerprint `json:"fingerprint,omitempty"`
	ProxyID     *int64       `json:"proxyId,omitempty"`
	UserDataDir string       `json:"userDataDir,omitempty"`
	Notes       string       `json:"notes,omitempty"`
}
