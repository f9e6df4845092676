package store

import (
	"fmt"
	"time"

	"fieldops/internal/api/models"
	"fieldops/internal/feed"
)

// resubscribeDelay paces feed recovery attempts after a transport error.
// Variable so tests can shorten the cycle.
var resubscribeDelay = time.Second

// handleFeedError surfaces a feed failure on the error channel and kicks off
// recovery. The last known graph stays visible and resumes updating once the
// feed is re-established.
func (s *Store) handleFeedError(err error) {
	s.reportErr(fmt.Errorf("feed: %w", err))

	s.mu.Lock()
	if !s.subscribed || s.retrying {
		s.mu.Unlock()
		return
	}
	s.retrying = true
	s.mu.Unlock()

	go s.resubscribe()
}

// resubscribe tears the whole subscription tree down and rebuilds it. The
// jobs snapshot that follows a successful resubscription reopens the per-job
// feeds through the normal path.
func (s *Store) resubscribe() {
	for {
		time.Sleep(resubscribeDelay)

		s.mu.Lock()
		if s.closed || !s.subscribed {
			s.retrying = false
			s.mu.Unlock()
			return
		}
		old := s.jobsUnsub
		s.jobsUnsub = nil
		children := s.childSubs
		s.childSubs = make(map[uint]feed.Unsubscribe)
		s.mu.Unlock()

		if old != nil {
			old()
		}
		for _, unsub := range children {
			unsub()
		}

		unsub, err := s.feed.SubscribeJobs(s.handleJobsEvent, s.handleFeedError)
		if err != nil {
			s.reportErr(fmt.Errorf("resubscribe jobs: %w", err))
			continue
		}

		s.mu.Lock()
		if !s.subscribed {
			s.mu.Unlock()
			unsub()
			return
		}
		s.jobsUnsub = unsub
		s.retrying = false
		s.mu.Unlock()
		s.logger.Info().Str("tenant", s.tenant.ID).Msg("Feed resubscribed")
		return
	}
}

// handleJobsEvent replaces the job set from a whole-collection snapshot.
// Snapshot order is preserved as the canonical presentation order. Jobs with
// a pending local mutation are shielded until a snapshot stamped after the
// mutation was issued arrives; that snapshot carries the server's verdict
// and wins.
func (s *Store) handleJobsEvent(e feed.JobsEvent) {
	var opened []uint
	var closed []feed.Unsubscribe

	s.mu.Lock()
	if !s.subscribed {
		s.mu.Unlock()
		return
	}

	seen := make(map[uint]bool, len(e.Jobs))
	newOrder := make([]uint, 0, len(e.Jobs))

	for _, j := range e.Jobs {
		if jm, ok := s.pendingJobs[j.ID]; ok {
			if !e.ServerTime.After(jm.issuedAt) {
				// Stale snapshot. A pending delete keeps the job out; a
				// pending save keeps the local field values.
				if jm.kind == jobMutationDelete {
					continue
				}
				if local, exists := s.jobs[j.ID]; exists {
					seen[j.ID] = true
					newOrder = append(newOrder, j.ID)
					s.jobs[j.ID] = local
					continue
				}
			} else {
				delete(s.pendingJobs, j.ID)
			}
		}
		seen[j.ID] = true
		newOrder = append(newOrder, j.ID)
		s.jobs[j.ID] = j
	}

	// Jobs absent from the snapshot are gone, except optimistic creations
	// still awaiting their server identity and shielded pending entries.
	for id := range s.jobs {
		if seen[id] {
			continue
		}
		if jm, ok := s.pendingJobs[id]; ok && !e.ServerTime.After(jm.issuedAt) {
			if isTempID(id) || jm.kind != jobMutationDelete {
				newOrder = append(newOrder, id)
				continue
			}
		}
		delete(s.jobs, id)
		delete(s.assignments, id)
		if unsub, ok := s.childSubs[id]; ok {
			delete(s.childSubs, id)
			closed = append(closed, unsub)
		}
	}

	// Resolved pending deletes whose job the snapshot no longer carries.
	for id, jm := range s.pendingJobs {
		if !seen[id] && e.ServerTime.After(jm.issuedAt) {
			delete(s.pendingJobs, id)
		}
	}

	for _, id := range newOrder {
		if _, ok := s.childSubs[id]; !ok && !isTempID(id) {
			opened = append(opened, id)
		}
	}
	s.order = newOrder
	s.mu.Unlock()

	for _, unsub := range closed {
		unsub()
	}
	for _, id := range opened {
		s.openAssignmentsFeed(id)
	}
	s.notify()
}

// openAssignmentsFeed subscribes to one job's assignment snapshots and
// records the teardown handle. Registration is dropped if the job vanished
// or the store unsubscribed while the feed call was in flight.
func (s *Store) openAssignmentsFeed(jobID uint) {
	unsub, err := s.feed.SubscribeAssignments(jobID, s.handleAssignmentsEvent, s.handleFeedError)
	if err != nil {
		s.reportErr(fmt.Errorf("subscribe assignments for job %d: %w", jobID, err))
		return
	}

	s.mu.Lock()
	_, known := s.jobs[jobID]
	if !s.subscribed || !known {
		s.mu.Unlock()
		unsub()
		return
	}
	prev := s.childSubs[jobID]
	s.childSubs[jobID] = unsub
	s.mu.Unlock()

	if prev != nil {
		prev()
	}
}

// handleAssignmentsEvent replaces one job's assignment set. Assignments with
// a pending local mutation keep their optimistic value until a snapshot
// stamped after the mutation's issue time arrives. Events for jobs no longer
// in the graph are dropped, so a late snapshot cannot resurrect a deleted
// job's assignments.
func (s *Store) handleAssignmentsEvent(e feed.AssignmentsEvent) {
	s.mu.Lock()
	if !s.subscribed {
		s.mu.Unlock()
		return
	}
	if _, ok := s.jobs[e.JobID]; !ok {
		s.mu.Unlock()
		return
	}

	current := make(map[uint]models.Assignment, len(s.assignments[e.JobID]))
	for _, a := range s.assignments[e.JobID] {
		current[a.ID] = a
	}

	seen := make(map[uint]bool, len(e.Assignments))
	next := make([]models.Assignment, 0, len(e.Assignments))
	for _, a := range e.Assignments {
		seen[a.ID] = true
		if mut, ok := s.pending[a.ID]; ok {
			if !e.ServerTime.After(mut.issuedAt) {
				if local, exists := current[a.ID]; exists {
					next = append(next, local)
					continue
				}
			} else {
				delete(s.pending, a.ID)
			}
		}
		next = append(next, a)
	}

	// Optimistic assignments a stale snapshot does not carry yet stay put;
	// anything else absent from the snapshot is gone, and its pending entry
	// resolves with it.
	for _, a := range s.assignments[e.JobID] {
		if seen[a.ID] {
			continue
		}
		if mut, ok := s.pending[a.ID]; ok {
			if !e.ServerTime.After(mut.issuedAt) || isTempID(a.ID) && mut.state == statePending {
				next = append(next, a)
				continue
			}
			delete(s.pending, a.ID)
		}
	}

	s.assignments[e.JobID] = next
	s.mu.Unlock()
	s.notify()
}
