package store

import (
	"strings"
	"time"
)

// Status represents the lifecycle of an experiment.
type Status string

const (
	StatusPending        Status = "pending"
	StatusRunning        Status = "running"
	StatusAwaitingReview Status = "awaiting_review"
	StatusNoGo           Status = "no_go"
	StatusFailed         Status = "failed"
	StatusApproved       Status = "approved"
	StatusRejected       Status = "rejected"
	StatusCompleted      Status = "completed"
	StatusArchived       Status = "archived"
)

var allStatuses = []Status{
	StatusPending,
	StatusRunning,
	StatusAwaitingReview,
	StatusNoGo,
	StatusFailed,
	StatusApproved,
	StatusRejected,
	StatusCompleted,
	StatusArchived,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// terminalStatuses never run again; RunExperiment treats them as a no-op.
var terminalStatuses = map[Status]struct{}{
	StatusCompleted: {},
	StatusArchived:  {},
	StatusRejected:  {},
}

// runnableStatuses are eligible for a RunAllPending sweep.
var runnableStatuses = []Status{
	StatusPending,
	StatusRunning,
	StatusFailed,
	StatusApproved,
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// RunnableStatuses returns the statuses RunAllPending sweeps over.
func RunnableStatuses() []Status {
	cp := make([]Status, len(runnableStatuses))
	copy(cp, runnableStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a status permits no further pipeline work.
func (s Status) IsTerminal() bool {
	_, ok := terminalStatuses[s]
	return ok
}

// Experiment represents one validation run persisted in SQLite.
type Experiment struct {
	ID          int64
	Title       string
	Summary     string
	Status      Status
	CurrentStep int
	WorkerID    string
	ReviewerID  string
	ReviewNotes string
	ReviewedAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// StageResult is the persisted output of one stage for one experiment. At most
// one row exists per (experiment id, stage name); re-saving overwrites in
// place so re-checkpointing is idempotent.
type StageResult struct {
	ID           int64
	ExperimentID int64
	StageName    string
	StageNumber  int
	Payload      string
	WorkerID     string
	CreatedAt    time.Time
}

// EventType categorizes entries in the append-only orchestration log.
type EventType string

const (
	EventPipelineStart    EventType = "pipeline_start"
	EventStepStart        EventType = "step_start"
	EventStepComplete     EventType = "step_complete"
	EventStepError        EventType = "step_error"
	EventPipelineComplete EventType = "pipeline_complete"
	EventPipelineNoGo     EventType = "pipeline_nogo"
	EventPipelineStopped  EventType = "pipeline_stopped"
	EventDiscoveryStart   EventType = "discovery_start"
	EventIdeaCreated      EventType = "idea_created"
)

// LogEvent is an append-only record of an orchestration event. ExperimentID
// is zero for events not tied to a single experiment (discovery sweeps).
type LogEvent struct {
	ID           int64
	ExperimentID int64
	StageName    string
	EventType    EventType
	Message      string
	WorkerID     string
	CreatedAt    time.Time
}

// HealthSummary describes aggregated experiment counts per key lifecycle states.
type HealthSummary struct {
	Total          int
	Pending        int
	Running        int
	AwaitingReview int
	Failed         int
	Completed      int
}

// DatabaseHealth captures diagnostic information about the experiment database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	TablesPresent    []string
	MissingTables    []string
	IntegrityCheck   bool
	TotalExperiments int
	Error            string
}
