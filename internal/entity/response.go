package entity

import "time"

// ResponseStatus is the outcome reported by the crawler API.
type ResponseStatus string

const (
	StatusSuccess ResponseStatus = "success"
	StatusError   ResponseStatus = "error"
	StatusStarted ResponseStatus = "started"
)

// APIResponse is the uniform result of every crawl call. Started jobs carry
// the PID of the background worker, finished sync runs their captured output.
type APIResponse struct {
	Status  ResponseStatus `json:"status"`
	Message string         `json:"message"`
	Output  string         `json:"output,omitempty"`
	Error   string         `json:"error,omitempty"`
	Command string         `json:"command,omitempty"`
	PID     int            `json:"pid,omitempty"`
}

// NewErrorResponse wraps a failure in the shape the result view renders.
func NewErrorResponse(message string) *APIResponse {
	return &APIResponse{
		Status:  StatusError,
		Message: message,
		Error:   message,
	}
}

// Platform is one entry of GET /platforms.
type Platform struct {
	Platform string `json:"platform"`
	Name     string `json:"name"`
}

// PlatformList is the body of GET /platforms.
type PlatformList struct {
	Platforms []Platform `json:"platforms"`
}

// ServiceStatus is the body of GET /.
type ServiceStatus struct {
	Message string `json:"message"`
	Version string `json:"version"`
}

// APIState is the three-way indicator of the status monitor.
type APIState string

const (
	APIStateLoading APIState = "loading"
	APIStateOnline  APIState = "online"
	APIStateOffline APIState = "offline"
)

// StatusReport is the status monitor's view of the crawler API.
type StatusReport struct {
	State     APIState   `json:"status"`
	Message   string     `json:"message,omitempty"`
	Version   string     `json:"version,omitempty"`
	Platforms []Platform `json:"platforms"`
	CheckedAt time.Time  `json:"checked_at"`
}
