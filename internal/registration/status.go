package registration

import (
	"sync"
	"time"
)

// Phase represents the current phase of the registration driver
type Phase string

const (
	// PhaseNoRegistry means no registry has been discovered yet
	PhaseNoRegistry Phase = "NoRegistry"

	// PhaseSelecting means the driver is waiting for a compatible registry
	PhaseSelecting Phase = "Selecting"

	// PhaseRegistering means a bulk registration pass is in progress
	PhaseRegistering Phase = "Registering"

	// PhaseHeartbeating means the node is registered and heartbeating
	PhaseHeartbeating Phase = "Heartbeating"
)

// Status is a point-in-time snapshot of the driver state, served on the
// node's /status endpoint.
type Status struct {
	// Phase is the driver's current phase
	Phase Phase `json:"phase"`

	// RegistryURL is the base URL of the active registry, empty when none
	RegistryURL string `json:"registryUrl,omitempty"`

	// LastHeartbeat is the timestamp of the last accepted heartbeat
	LastHeartbeat *time.Time `json:"lastHeartbeat,omitempty"`

	// ConsecutiveFailures counts registration passes and heartbeats that
	// failed since the last success
	ConsecutiveFailures int `json:"consecutiveFailures,omitempty"`
}

// tracker guards the driver's published status.
type tracker struct {
	mu     sync.RWMutex
	status Status
}

func newTracker() *tracker {
	return &tracker{status: Status{Phase: PhaseNoRegistry}}
}

func (t *tracker) snapshot() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

func (t *tracker) setPhase(phase Phase, registryURL string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.Phase = phase
	t.status.RegistryURL = registryURL
}

func (t *tracker) heartbeatAccepted() {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := time.Now()
	t.status.LastHeartbeat = &now
	t.status.ConsecutiveFailures = 0
}

func (t *tracker) failure() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.ConsecutiveFailures++
}
