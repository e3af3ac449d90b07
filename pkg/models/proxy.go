package models

import "time"

// ProxyStatus is the last known health of a proxy
type ProxyStatus string

const (
	ProxyUntested ProxyStatus = "untested"
	ProxyWorking  ProxyStatus = "working"
	ProxyFailed   ProxyStatus = "failed"
)

// Proxy is an egress address a profile's browser traffic is routed through
type Proxy struct {
	ID         int64       `json:"id"`
	Host       string      `json:"host"`
	Port       int         `json:"port"`
	Username   string      `json:"username,omitempty"`
	Password   string      `json:"password,omitempty"`
	Protocol   string      `json:"protocol"`
	Status     ProxyStatus `json:"status"`
	SpeedMs    *int64      `json:"speedMs,omitempty"`
	LastTested *time.Time  `json:"lastTested,omitempty"`
	IsAssigned bool        `json:"isAssigned"`
	AssignedTo *int64      `json:"assignedTo,omitempty"`
	Notes      string      `json:"notes,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

// ProxyTestResult is the outcome of a single proxy health check
type ProxyTestResult struct {
	Success bool   `json:"success"`
	SpeedMs int64  `json:"speedMs,omitempty"`
	IP      string `json:"ip,omitempty"`
	Error   string `json:"error,omitempty"`
}
