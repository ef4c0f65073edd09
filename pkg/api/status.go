package api

// Status is the coarse health state reported by a provider check.
type Status string

const (
	StatusOperational Status = "operational"
	StatusDegraded    Status = "degraded"
	StatusDown        Status = "down"
)

// StatusCheckResult is produced fresh by every status or API check.
type StatusCheckResult struct {
	Status    Status   `json:"status"`
	Message   string   `json:"message"`
	Incidents []string `json:"incidents"`
}
