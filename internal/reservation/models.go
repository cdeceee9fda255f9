package reservation

import "time"

// Status describes the lifecycle state of a topic reservation.
type Status string

const (
	StatusActive    Status = "active"
	StatusExpired   Status = "expired"
	StatusReleased  Status = "released"
	StatusCompleted Status = "completed"
)

// DefaultTTLHours is the reservation lifetime applied when a claim does not
// specify one. Workers are expected to renew well inside this window.
const DefaultTTLHours = 24

// HeartbeatInterval is the recommended cadence for renewing a held
// reservation. It is a fraction of the default TTL so a worker gets several
// chances to renew before the claim lapses.
const HeartbeatInterval = 6 * time.Hour

// Reservation is a claim on a topic key held by a single worker.
type Reservation struct {
	ID           int64
	TopicKey     string
	Description  string
	Category     string
	WorkerID     string
	ExperimentID int64
	Status       Status
	ReservedAt   time.Time
	ExpiresAt    time.Time
	RenewedAt    *time.Time
	ReleasedAt   *time.Time
	Embedding    []float64
	Fingerprint  string
}

// Claim carries the fields needed to reserve a topic. TTLHours of zero uses
// the manager default.
type Claim struct {
	WorkerID     string
	TopicKey     string
	Description  string
	Category     string
	ExperimentID int64
	Embedding    []float64
	Fingerprint  string
	TTLHours     int
}

// Match pairs a reservation with its similarity to a probe topic.
type Match struct {
	Reservation
	Similarity float64
}
