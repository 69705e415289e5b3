package metrics

// ============================================================================
// Metric Names
// ============================================================================

// Namespace prefixes every metric exported by the companion.
const Namespace = "delve"

// HTTP metric names
const (
	MetricNameHTTPRequestsTotal    = "http_requests_total"
	MetricNameHTTPRequestDuration  = "http_request_duration_seconds"
	MetricNameHTTPRequestsInFlight = "http_requests_in_flight"
)

// Event metric names
const (
	MetricNameEventsDispatched = "events_dispatched_total"
	MetricNameFloorsCompleted  = "floors_completed_total"
	MetricNameDropsObtained    = "drops_obtained_total"
	MetricNameSyncs            = "syncs_total"
	MetricNameManualResets     = "manual_resets_total"
	MetricNameWebSocketClients = "websocket_clients"
)

// ============================================================================
// Metric Help Text
// ============================================================================

const (
	HelpTextHTTPRequestsTotal    = "Total number of HTTP requests"
	HelpTextHTTPRequestDuration  = "HTTP request latency in seconds"
	HelpTextHTTPRequestsInFlight = "Current number of HTTP requests being served"

	HelpTextEventsDispatched = "Total number of events dispatched by the tracker"
	HelpTextFloorsCompleted  = "Total number of Delve floor completions recorded"
	HelpTextDropsObtained    = "Total number of Delve uniques recorded"
	HelpTextSyncs            = "Total number of authoritative syncs applied"
	HelpTextManualResets     = "Total number of manual profile resets"
	HelpTextWebSocketClients = "Current number of connected WebSocket clients"
)

// ============================================================================
// Metric Label Names
// ============================================================================

const (
	LabelMethod = "method"
	LabelPath   = "path"
	LabelStatus = "status"
	LabelType   = "type"
	LabelMode   = "mode"
	LabelFloor  = "floor"
	LabelItem   = "item"
	LabelKind   = "kind"
)

// Sync kinds
const (
	SyncKindKills = "kills"
	SyncKindDrops = "drops"
)

// HTTPLatencyBuckets defines the histogram buckets for HTTP request duration
// in seconds, from 1ms to 10s.
var HTTPLatencyBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
