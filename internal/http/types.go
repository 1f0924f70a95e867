package http

import "github.com/fyrsmithlabs/jipange/internal/telemetry"

// RootResponse is the body of GET /.
type RootResponse struct {
	Message string `json:"message"`
	Version string `json:"version,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string                  `json:"status"`
	Service   string                  `json:"service"`
	Telemetry *telemetry.HealthStatus `json:"telemetry,omitempty"`
}

// MessageResponse carries a human readable outcome.
type MessageResponse struct {
	Message string `json:"message"`
}

// StatusResponse is the reply to webhook deliveries.
type StatusResponse struct {
	Status string `json:"status"`
}
