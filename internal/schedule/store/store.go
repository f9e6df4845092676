// Package store is the single source of truth for the scheduling views. It
// maintains the normalized job graph against the push-based change feed,
// applies local mutations optimistically, and reconciles them with
// authoritative server snapshots without duplication.
package store

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"fieldops/internal/api/models"
	"fieldops/internal/feed"
	"fieldops/internal/schedule/normalize"
)

var (
	// ErrInvalidRange rejects assignment ranges where end is not after start.
	ErrInvalidRange = errors.New("store: assignment end must be after start")
	// ErrNotFound is returned when a mutation targets an unknown entity.
	ErrNotFound = errors.New("store: entity not found")
	// ErrClosed is returned once the store has been closed.
	ErrClosed = errors.New("store: closed")
)

// Writer is the authoritative write API (the job service, or an HTTP client
// in a remote deployment). The store issues writes through it and never
// touches persistence directly.
//
// UpsertAssignment is keyed by (jobID, employeeID): through that path an
// employee has at most one assignment per job. Moves are keyed by the
// assignment ID, so the store never addresses one assignment two ways.
type Writer interface {
	CreateJob(job models.Job, assignment models.Assignment) (jobID uint, assignmentID uint, err error)
	UpdateJobFields(jobID uint, fields map[string]any) error
	DeleteJob(jobID uint) error
	MoveAssignment(jobID, assignmentID, employeeID uint, start, end time.Time) error
	UpsertAssignment(jobID, employeeID uint, start, end time.Time) (uint, error)
	DeleteAssignment(jobID, employeeID uint) error
}

// Directory is the read-only employee directory collaborator.
type Directory interface {
	ListEmployees() ([]models.Employee, error)
}

type mutationState int

const (
	statePending mutationState = iota
	stateCommitted
	stateRolledBack
)

// mutation tracks one optimistic assignment write: the shadow copy restored
// on rollback, and the issue time guarding against stale snapshots.
type mutation struct {
	shadow   models.Assignment
	issuedAt time.Time
	state    mutationState
}

type jobMutationKind int

const (
	jobMutationSave jobMutationKind = iota
	jobMutationAdd
	jobMutationDelete
)

type jobMutation struct {
	kind        jobMutationKind
	shadow      models.Job
	assignments []models.Assignment
	issuedAt    time.Time
	state       mutationState
}

// Temp IDs for optimistically created entities live above this base so they
// can never collide with server-issued serials.
const tempIDBase uint = 1 << 30

func isTempID(id uint) bool { return id >= tempIDBase }

// Store owns the one piece of mutable shared state: the normalized graph.
// Projections and the placement engine read snapshots and submit requests;
// only the store applies them.
type Store struct {
	tenant    models.TenantContext
	feed      feed.Feed
	writer    Writer
	directory Directory
	logger    zerolog.Logger

	mu          sync.Mutex
	jobs        map[uint]models.Job
	order       []uint
	assignments map[uint][]models.Assignment
	employees   map[uint]models.Employee

	subscribed bool
	retrying   bool
	jobsUnsub  feed.Unsubscribe
	childSubs  map[uint]feed.Unsubscribe

	pending     map[uint]*mutation
	pendingJobs map[uint]*jobMutation
	nextTempID  uint

	writeQueue  []func()
	writeSignal chan struct{}
	quit        chan struct{}
	done        chan struct{}
	closeOnce   sync.Once
	closed      bool

	updates chan struct{}
	errs    chan error
}

// New constructs a store for one tenant. The tenant context is threaded
// explicitly; nothing here reads ambient tenant state.
func New(tenant models.TenantContext, f feed.Feed, writer Writer, directory Directory, logger zerolog.Logger) *Store {
	s := &Store{
		tenant:      tenant,
		feed:        f,
		writer:      writer,
		directory:   directory,
		logger:      logger,
		jobs:        make(map[uint]models.Job),
		assignments: make(map[uint][]models.Assignment),
		employees:   make(map[uint]models.Employee),
		childSubs:   make(map[uint]feed.Unsubscribe),
		pending:     make(map[uint]*mutation),
		pendingJobs: make(map[uint]*jobMutation),
		nextTempID:  tempIDBase,
		writeSignal: make(chan struct{}, 1),
		quit:        make(chan struct{}),
		done:        make(chan struct{}),
		updates:     make(chan struct{}, 1),
		errs:        make(chan error, 16),
	}
	go s.writeLoop()
	return s
}

// Updates signals graph revisions. Coalesced: readers call Snapshot after
// each signal.
func (s *Store) Updates() <-chan struct{} { return s.updates }

// Errors is the error channel, separate from data updates, so a view can
// show a transient sync-failed indicator without losing its last render.
func (s *Store) Errors() <-chan error { return s.errs }

// Subscribe opens the jobs feed and, per job, that job's assignments feed.
// Child subscriptions are tracked structurally and torn down exactly once
// when their job disappears or on Unsubscribe.
func (s *Store) Subscribe() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.subscribed {
		s.mu.Unlock()
		return nil
	}
	s.subscribed = true
	s.mu.Unlock()

	if s.directory != nil {
		employees, err := s.directory.ListEmployees()
		if err != nil {
			s.mu.Lock()
			s.subscribed = false
			s.mu.Unlock()
			return fmt.Errorf("list employees: %w", err)
		}
		s.SetEmployees(employees)
	}

	unsub, err := s.feed.SubscribeJobs(s.handleJobsEvent, s.handleFeedError)
	if err != nil {
		s.mu.Lock()
		s.subscribed = false
		s.mu.Unlock()
		return fmt.Errorf("subscribe jobs: %w", err)
	}

	s.mu.Lock()
	if !s.subscribed {
		// Unsubscribe raced the feed call; the handle it never saw is ours
		// to release.
		s.mu.Unlock()
		unsub()
		return nil
	}
	s.jobsUnsub = unsub
	s.mu.Unlock()
	return nil
}

// Unsubscribe tears down the jobs feed and every per-job assignments feed.
// Idempotent; holding no live listener afterwards.
func (s *Store) Unsubscribe() {
	s.mu.Lock()
	if !s.subscribed {
		s.mu.Unlock()
		return
	}
	s.subscribed = false
	jobsUnsub := s.jobsUnsub
	s.jobsUnsub = nil
	children := s.childSubs
	s.childSubs = make(map[uint]feed.Unsubscribe)
	s.mu.Unlock()

	if jobsUnsub != nil {
		jobsUnsub()
	}
	for _, unsub := range children {
		unsub()
	}
}

// Close unsubscribes, drains pending writes and stops the write worker.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		s.Unsubscribe()
		s.Flush()
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.quit)
		<-s.done
	})
}

// Flush blocks until every write queued so far has been issued.
func (s *Store) Flush() {
	barrier := make(chan struct{})
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.enqueueWriteLocked(func() { close(barrier) })
	s.mu.Unlock()
	<-barrier
}

// SetEmployees replaces the employee directory snapshot.
func (s *Store) SetEmployees(employees []models.Employee) {
	s.mu.Lock()
	s.employees = make(map[uint]models.Employee, len(employees))
	for _, e := range employees {
		s.employees[e.ID] = e
	}
	s.mu.Unlock()
	s.notify()
}

// Snapshot returns the current normalized graph. The result is owned by the
// caller; the store never mutates it afterwards.
func (s *Store) Snapshot() *normalize.Graph {
	s.mu.Lock()
	jobs := make([]models.Job, 0, len(s.order))
	for _, id := range s.order {
		if j, ok := s.jobs[id]; ok {
			jobs = append(jobs, j)
		}
	}
	byJob := make(map[uint][]models.Assignment, len(s.assignments))
	for id, list := range s.assignments {
		byJob[id] = append([]models.Assignment(nil), list...)
	}
	employees := make(map[uint]models.Employee, len(s.employees))
	for id, e := range s.employees {
		employees[id] = e
	}
	s.mu.Unlock()

	return normalize.BuildGraph(jobs, byJob, employees, s.logger)
}

// Job returns one job's node from the current graph, or nil when the job is
// unknown. This is the detail view's read path; edits go back through
// SaveJob and the assignment mutations.
func (s *Store) Job(jobID uint) *normalize.JobNode {
	return s.Snapshot().Job(jobID)
}

// enqueueWriteLocked appends a write behind everything queued so far.
// Caller holds s.mu; the queue is a plain slice, so enqueueing can never
// block against a resolve callback that is itself waiting for the lock.
func (s *Store) enqueueWriteLocked(fn func()) {
	s.writeQueue = append(s.writeQueue, fn)
	select {
	case s.writeSignal <- struct{}{}:
	default:
	}
}

// writeLoop is the single write worker. One consumer and enqueueing under
// the store lock give every write a strict issue order, so two moves of the
// same assignment can never land reversed.
func (s *Store) writeLoop() {
	defer close(s.done)
	for {
		select {
		case <-s.writeSignal:
		case <-s.quit:
			return
		}
		for {
			s.mu.Lock()
			if len(s.writeQueue) == 0 {
				s.mu.Unlock()
				break
			}
			fn := s.writeQueue[0]
			s.writeQueue = s.writeQueue[1:]
			s.mu.Unlock()
			fn()
		}
	}
}

func (s *Store) notify() {
	select {
	case s.updates <- struct{}{}:
	default:
	}
}

func (s *Store) reportErr(err error) {
	s.logger.Error().Err(err).Str("tenant", s.tenant.ID).Msg("Sync error")
	select {
	case s.errs <- err:
	default:
		s.logger.Warn().Msg("Error channel full, sync error dropped")
	}
}
