// Package feed is the push-based change feed between the write API and
// scheduling clients. Every event carries the complete current set, not a
// diff: the full job list on job changes, the full assignment set of one job
// on assignment changes.
package feed

import (
	"time"

	"fieldops/internal/api/models"
)

// JobsEvent is a whole-collection snapshot of a tenant's jobs.
type JobsEvent struct {
	Tenant     string       `json:"tenant"`
	Jobs       []models.Job `json:"jobs"`
	ServerTime time.Time    `json:"serverTime"`
}

// AssignmentsEvent is a whole-collection snapshot of one job's assignments.
type AssignmentsEvent struct {
	Tenant      string              `json:"tenant"`
	JobID       uint                `json:"jobId"`
	Assignments []models.Assignment `json:"assignments"`
	ServerTime  time.Time           `json:"serverTime"`
}

// AllJobs subscribes to every job's assignment snapshots at once. Real job
// IDs start at 1, so the zero value is free to act as the wildcard.
const AllJobs uint = 0

// Unsubscribe tears down one subscription. Safe to call more than once.
type Unsubscribe func()

// Feed delivers snapshot events. Handlers are invoked per event; onError
// reports a transport failure on that subscription (the subscription stays
// registered so consumers can keep rendering the last known state while they
// resubscribe).
type Feed interface {
	SubscribeJobs(onEvent func(JobsEvent), onError func(error)) (Unsubscribe, error)
	SubscribeAssignments(jobID uint, onEvent func(AssignmentsEvent), onError func(error)) (Unsubscribe, error)
}

// Publisher is the write-side half: the job service publishes the affected
// snapshot after every committed write.
type Publisher interface {
	PublishJobs(JobsEvent) error
	PublishAssignments(AssignmentsEvent) error
}
