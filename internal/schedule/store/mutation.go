package store

import (
	"fmt"
	"time"

	"fieldops/internal/api/models"
)

// MoveAssignment repositions an assignment, keyed by its ID. The graph is
// updated immediately; the write is queued behind earlier writes and the
// optimistic value rolls back to its shadow copy if the server rejects it.
func (s *Store) MoveAssignment(jobID, assignmentID, employeeID uint, start, end time.Time) error {
	if !end.After(start) {
		return ErrInvalidRange
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	list, ok := s.assignments[jobID]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	idx := -1
	for i, a := range list {
		if a.ID == assignmentID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return ErrNotFound
	}

	shadow := list[idx]
	optimistic := shadow
	optimistic.EmployeeID = employeeID
	optimistic.Start = start
	optimistic.End = end
	optimistic.UpdatedAt = time.Now()
	list[idx] = optimistic

	s.pending[assignmentID] = &mutation{
		shadow:   shadow,
		issuedAt: time.Now(),
		state:    statePending,
	}
	s.enqueueWriteLocked(func() {
		err := s.writer.MoveAssignment(jobID, assignmentID, employeeID, start, end)
		s.resolveAssignment(jobID, assignmentID, err)
	})
	s.mu.Unlock()

	s.notify()
	return nil
}

// resolveAssignment settles a pending assignment write. A committed entry
// stays in the pending table until a snapshot stamped after its issue time
// confirms it; a failed write restores the shadow copy, unless a newer
// snapshot already superseded the mutation.
func (s *Store) resolveAssignment(jobID, assignmentID uint, writeErr error) {
	s.mu.Lock()
	mut, ok := s.pending[assignmentID]
	if !ok {
		s.mu.Unlock()
		if writeErr != nil {
			s.reportErr(fmt.Errorf("move assignment %d: %w", assignmentID, writeErr))
		}
		return
	}

	if writeErr == nil {
		mut.state = stateCommitted
		s.mu.Unlock()
		return
	}

	mut.state = stateRolledBack
	delete(s.pending, assignmentID)
	if list, exists := s.assignments[jobID]; exists {
		for i, a := range list {
			if a.ID == assignmentID {
				list[i] = mut.shadow
				break
			}
		}
	}
	s.mu.Unlock()

	s.reportErr(fmt.Errorf("move assignment %d: %w", assignmentID, writeErr))
	s.notify()
}

// AddJob creates a blank job with one assignment at the given slot. The job
// appears immediately under a temporary identity and is swapped for the
// server-issued one when the write lands; a snapshot arriving in between
// cannot duplicate it.
func (s *Store) AddJob(employeeID uint, start, end time.Time) (uint, error) {
	if !end.After(start) {
		return 0, ErrInvalidRange
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0, ErrClosed
	}
	s.nextTempID++
	tempJobID := s.nextTempID
	s.nextTempID++
	tempAssignmentID := s.nextTempID

	job := models.Job{ID: tempJobID, Status: models.JobStatusActive}
	assignment := models.Assignment{
		ID:         tempAssignmentID,
		JobID:      tempJobID,
		EmployeeID: employeeID,
		Start:      start,
		End:        end,
		UpdatedAt:  time.Now(),
	}

	s.jobs[tempJobID] = job
	s.order = append(s.order, tempJobID)
	s.assignments[tempJobID] = []models.Assignment{assignment}
	s.pendingJobs[tempJobID] = &jobMutation{
		kind:     jobMutationAdd,
		issuedAt: time.Now(),
		state:    statePending,
	}
	s.pending[tempAssignmentID] = &mutation{
		shadow:   assignment,
		issuedAt: time.Now(),
		state:    statePending,
	}

	s.enqueueWriteLocked(func() {
		serverJobID, serverAssignmentID, err := s.writer.CreateJob(
			models.Job{Status: models.JobStatusActive},
			models.Assignment{EmployeeID: employeeID, Start: start, End: end},
		)
		s.resolveAddJob(tempJobID, tempAssignmentID, serverJobID, serverAssignmentID, err)
	})
	s.mu.Unlock()

	s.notify()
	return tempJobID, nil
}

// resolveAddJob reconciles a temporary job with its server identity, or
// removes it when the create was rejected.
func (s *Store) resolveAddJob(tempJobID, tempAssignmentID, serverJobID, serverAssignmentID uint, writeErr error) {
	var open bool

	s.mu.Lock()
	delete(s.pendingJobs, tempJobID)
	delete(s.pending, tempAssignmentID)

	if writeErr != nil {
		s.removeJobLocked(tempJobID)
		s.mu.Unlock()
		s.reportErr(fmt.Errorf("create job: %w", writeErr))
		s.notify()
		return
	}

	temp, hadTemp := s.jobs[tempJobID]
	tempAssignments := s.assignments[tempJobID]
	s.removeJobLocked(tempJobID)

	// The jobs snapshot published after the commit may have landed first and
	// already carry the server row.
	if _, exists := s.jobs[serverJobID]; !exists && hadTemp {
		temp.ID = serverJobID
		s.jobs[serverJobID] = temp
		s.order = append(s.order, serverJobID)
		for i := range tempAssignments {
			tempAssignments[i].ID = serverAssignmentID
			tempAssignments[i].JobID = serverJobID
		}
		s.assignments[serverJobID] = tempAssignments
		_, open = s.childSubs[serverJobID]
		open = !open && s.subscribed
	}
	s.mu.Unlock()

	if open {
		s.openAssignmentsFeed(serverJobID)
	}
	s.notify()
}

// DeleteJob removes a job and its assignments. The per-job assignments feed
// is torn down before the write is issued, so a concurrent snapshot for the
// dead job has nowhere to land.
func (s *Store) DeleteJob(jobID uint) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	job, ok := s.jobs[jobID]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}

	shadowAssignments := append([]models.Assignment(nil), s.assignments[jobID]...)
	unsub := s.childSubs[jobID]
	delete(s.childSubs, jobID)
	s.removeJobLocked(jobID)
	s.pendingJobs[jobID] = &jobMutation{
		kind:        jobMutationDelete,
		shadow:      job,
		assignments: shadowAssignments,
		issuedAt:    time.Now(),
		state:       statePending,
	}

	s.enqueueWriteLocked(func() {
		err := s.writer.DeleteJob(jobID)
		s.resolveDeleteJob(jobID, err)
	})
	s.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	s.notify()
	return nil
}

func (s *Store) resolveDeleteJob(jobID uint, writeErr error) {
	var reopen bool

	s.mu.Lock()
	jm, ok := s.pendingJobs[jobID]
	if !ok {
		s.mu.Unlock()
		if writeErr != nil {
			s.reportErr(fmt.Errorf("delete job %d: %w", jobID, writeErr))
		}
		return
	}

	if writeErr == nil {
		jm.state = stateCommitted
		s.mu.Unlock()
		return
	}

	jm.state = stateRolledBack
	delete(s.pendingJobs, jobID)
	s.jobs[jobID] = jm.shadow
	s.order = append(s.order, jobID)
	s.assignments[jobID] = jm.assignments
	reopen = s.subscribed
	s.mu.Unlock()

	if reopen {
		s.openAssignmentsFeed(jobID)
	}
	s.reportErr(fmt.Errorf("delete job %d: %w", jobID, writeErr))
	s.notify()
}

// SaveJob updates a job's detail fields. Assignments are untouched; they
// move through their own write paths.
func (s *Store) SaveJob(job models.Job) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	existing, ok := s.jobs[job.ID]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}

	updated := existing
	updated.Title = job.Title
	updated.Client = job.Client
	updated.Address = job.Address
	updated.Notes = job.Notes
	updated.ContactName = job.ContactName
	updated.ContactPhone = job.ContactPhone
	updated.ContactEmail = job.ContactEmail
	updated.Status = job.Status
	updated.Color = job.Color
	s.jobs[job.ID] = updated
	s.pendingJobs[job.ID] = &jobMutation{
		kind:     jobMutationSave,
		shadow:   existing,
		issuedAt: time.Now(),
		state:    statePending,
	}

	fields := map[string]any{
		"title":         updated.Title,
		"client":        updated.Client,
		"address":       updated.Address,
		"notes":         updated.Notes,
		"contact_name":  updated.ContactName,
		"contact_phone": updated.ContactPhone,
		"contact_email": updated.ContactEmail,
		"status":        updated.Status,
		"color":         updated.Color,
	}
	jobID := job.ID
	s.enqueueWriteLocked(func() {
		err := s.writer.UpdateJobFields(jobID, fields)
		s.resolveSaveJob(jobID, err)
	})
	s.mu.Unlock()

	s.notify()
	return nil
}

func (s *Store) resolveSaveJob(jobID uint, writeErr error) {
	s.mu.Lock()
	jm, ok := s.pendingJobs[jobID]
	if !ok {
		s.mu.Unlock()
		if writeErr != nil {
			s.reportErr(fmt.Errorf("save job %d: %w", jobID, writeErr))
		}
		return
	}

	if writeErr == nil {
		jm.state = stateCommitted
		s.mu.Unlock()
		return
	}

	jm.state = stateRolledBack
	delete(s.pendingJobs, jobID)
	if _, exists := s.jobs[jobID]; exists {
		s.jobs[jobID] = jm.shadow
	}
	s.mu.Unlock()

	s.reportErr(fmt.Errorf("save job %d: %w", jobID, writeErr))
	s.notify()
}

// removeJobLocked drops a job from every table. Caller holds s.mu.
func (s *Store) removeJobLocked(jobID uint) {
	delete(s.jobs, jobID)
	delete(s.assignments, jobID)
	for i, id := range s.order {
		if id == jobID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}
