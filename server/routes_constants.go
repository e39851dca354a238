package server

// Route path constants
const (
	// Session lifecycle
	RouteSession     = "/session"
	RouteUserSession = "/user/{id}/session"

	// Operational
	RouteMetrics = "/metrics"
	RouteHealth  = "/healthz"
)
